// Package operation assembles and validates drone application records.
package operation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-talhao/internal/service"
)

// Field names reported by ValidationError, in reporting order.
const (
	FieldTalhao         = "talhao"
	FieldClientName     = "clientName"
	FieldPropertyName   = "propertyName"
	FieldDroneID        = "droneId"
	FieldProductName    = "productName"
	FieldDosePerHectare = "dosePerHectare"
	FieldPurpose        = "purpose"
)

// ValidationError lists every field that blocks building a record.
type ValidationError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "operation not valid: " + strings.Join(parts, "; ")
}

// Form is what the operator typed. Huma reads the tags when it is used as a
// request body.
type Form struct {
	ClientName            string `json:"clientName,omitempty" doc:"Client name" example:"Acme"`
	PropertyName          string `json:"propertyName,omitempty" doc:"Property (farm) name" example:"Farm A"`
	Municipality          string `json:"municipality,omitempty" doc:"Municipality"`
	Region                string `json:"region,omitempty" doc:"State / region (UF)"`
	DroneID               string `json:"droneId,omitempty" doc:"Drone id from the catalogue" example:"drone-1"`
	ProductName           string `json:"productName,omitempty" doc:"Commercial product name" example:"Herb X"`
	ActiveIngredient      string `json:"activeIngredient,omitempty" doc:"Active ingredient"`
	ToxicologyClass       string `json:"toxicologyClass,omitempty" doc:"Toxicology class"`
	Purpose               string `json:"purpose,omitempty" doc:"Application purpose, herbicide when empty"`
	DosePerHectare        string `json:"dosePerHectare,omitempty" doc:"Dose per hectare" example:"2.5 L/ha"`
	SprayVolumePerHectare string `json:"sprayVolumePerHectare,omitempty" doc:"Spray volume per hectare"`
	Notes                 string `json:"notes,omitempty" doc:"Free-text notes"`
}

// Builder turns a selection, a form and a weather snapshot into a record.
// It keeps no state between calls.
type Builder struct {
	Drones *service.DroneCatalog
	Now    func() time.Time
	NewID  func() string
}

// NewBuilder returns a Builder with the production clock and id source.
func NewBuilder(drones *service.DroneCatalog) *Builder {
	return &Builder{Drones: drones}
}

// NewID returns "op-" followed by a UUIDv7, so ids sort by creation time.
func NewID() string {
	return "op-" + uuid.Must(uuid.NewV7()).String()
}

// Build validates the inputs and returns a record pending validation.
// With no selection the only reported problem is the missing plot.
func (b *Builder) Build(selection *service.FieldPlot, form Form, weather service.WeatherSnapshot, operator string) (service.OperationRecord, error) {
	if selection == nil {
		return service.OperationRecord{}, &ValidationError{Missing: []string{FieldTalhao}}
	}

	f := form.trimmed()
	verr := &ValidationError{}
	for _, req := range []struct{ name, value string }{
		{FieldClientName, f.ClientName},
		{FieldPropertyName, f.PropertyName},
		{FieldDroneID, f.DroneID},
		{FieldProductName, f.ProductName},
		{FieldDosePerHectare, f.DosePerHectare},
	} {
		if req.value == "" {
			verr.Missing = append(verr.Missing, req.name)
		}
	}

	var drone service.Drone
	if f.DroneID != "" {
		d, ok := b.drone(f.DroneID)
		if !ok {
			verr.Invalid = append(verr.Invalid, FieldDroneID)
		}
		drone = d
	}

	purpose := service.PurposeHerbicide
	if f.Purpose != "" {
		purpose = service.Purpose(strings.ToLower(f.Purpose))
		if !purpose.Valid() {
			verr.Invalid = append(verr.Invalid, FieldPurpose)
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return service.OperationRecord{}, verr
	}

	return service.OperationRecord{
		ID:                    b.newID(),
		Status:                service.StatusPendingValidation,
		ClientName:            f.ClientName,
		PropertyName:          f.PropertyName,
		Municipality:          f.Municipality,
		Region:                f.Region,
		TalhaoID:              selection.ID,
		TalhaoName:            selection.DisplayName(),
		DroneID:               drone.ID,
		DroneName:             drone.Name,
		DroneModel:            drone.Model,
		ProductName:           f.ProductName,
		ActiveIngredient:      f.ActiveIngredient,
		ToxicologyClass:       f.ToxicologyClass,
		Purpose:               purpose,
		DosePerHectare:        f.DosePerHectare,
		SprayVolumePerHectare: f.SprayVolumePerHectare,
		Notes:                 f.Notes,
		Weather:               weather.Clone(),
		OperatorName:          strings.TrimSpace(operator),
		CreatedAt:             b.now().UTC().Truncate(time.Millisecond),
	}, nil
}

func (b *Builder) drone(id string) (service.Drone, bool) {
	if b.Drones == nil {
		return service.Drone{}, false
	}
	return b.Drones.Get(id)
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return NewID()
}

func (f Form) trimmed() Form {
	return Form{
		ClientName:            strings.TrimSpace(f.ClientName),
		PropertyName:          strings.TrimSpace(f.PropertyName),
		Municipality:          strings.TrimSpace(f.Municipality),
		Region:                strings.TrimSpace(f.Region),
		DroneID:               strings.TrimSpace(f.DroneID),
		ProductName:           strings.TrimSpace(f.ProductName),
		ActiveIngredient:      strings.TrimSpace(f.ActiveIngredient),
		ToxicologyClass:       strings.TrimSpace(f.ToxicologyClass),
		Purpose:               strings.TrimSpace(f.Purpose),
		DosePerHectare:        strings.TrimSpace(f.DosePerHectare),
		SprayVolumePerHectare: strings.TrimSpace(f.SprayVolumePerHectare),
		Notes:                 strings.TrimSpace(f.Notes),
	}
}

// Recorder receives one finished record per save.
type Recorder interface {
	Record(ctx context.Context, rec service.OperationRecord) error
}

// Recorders hands a record to every recorder in order and joins the errors.
// A failing recorder does not stop the others.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, rec service.OperationRecord) error {
	var errs []error
	for _, r := range rs {
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("recording %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}
