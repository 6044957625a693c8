package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/humastar"
	"github.com/joeblew999/plat-talhao/internal/operation"
	"github.com/joeblew999/plat-talhao/internal/service"
)

// formSignals are the signal names of the operation form, matching the
// JSON names of operation.Form.
var formSignals = []string{
	"clientName", "propertyName", "municipality", "region", "droneId",
	"productName", "activeIngredient", "toxicologyClass", "purpose",
	"dosePerHectare", "sprayVolumePerHectare", "notes",
}

// FormFromSignals reads the operation form out of the request signals.
func FormFromSignals(s humastar.Signals) operation.Form {
	return operation.Form{
		ClientName:            s.String("clientName"),
		PropertyName:          s.String("propertyName"),
		Municipality:          s.String("municipality"),
		Region:                s.String("region"),
		DroneID:               s.String("droneId"),
		ProductName:           s.String("productName"),
		ActiveIngredient:      s.String("activeIngredient"),
		ToxicologyClass:       s.String("toxicologyClass"),
		Purpose:               s.String("purpose"),
		DosePerHectare:        s.String("dosePerHectare"),
		SprayVolumePerHectare: s.String("sprayVolumePerHectare"),
		Notes:                 s.String("notes"),
	}
}

// resetFormSignals clears the form after a successful save.
func resetFormSignals() map[string]any {
	signals := make(map[string]any, len(formSignals)+1)
	for _, name := range formSignals {
		signals[name] = ""
	}
	signals["purpose"] = string(service.PurposeHerbicide)
	signals["missing"] = []string{}
	return signals
}

func (h *Handler) CreateOperation(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Parse()
	if err != nil {
		return nil, err
	}
	rec, err := h.sess.Save(ctx, FormFromSignals(signals))

	return h.Stream(func(sse humastar.SSE) {
		var verr *operation.ValidationError
		switch {
		case errors.As(err, &verr):
			missing := append([]string{}, verr.Missing...)
			sse.Signals(map[string]any{"missing": append(missing, verr.Invalid...)})
			sse.Error(validationMessage(verr))
		case err != nil:
			sse.Error("Não foi possível registrar a operação: " + err.Error())
		default:
			sse.Signals(resetFormSignals())
			sse.Success(fmt.Sprintf("Operação %s registrada para %s", rec.ID, rec.TalhaoName))
			sse.DispatchCustomEvent("operation-created", map[string]any{
				"id": rec.ID, "talhaoId": rec.TalhaoID,
			})
		}
	}), nil
}

func validationMessage(verr *operation.ValidationError) string {
	if len(verr.Missing) == 1 && verr.Missing[0] == operation.FieldTalhao {
		return "Selecione um talhão no mapa"
	}
	return verr.Error()
}
