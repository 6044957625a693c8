package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/humastar"
	"github.com/joeblew999/plat-talhao/internal/operation"
	"github.com/joeblew999/plat-talhao/internal/service"
)

type OperationIDInput struct {
	ID string `path:"id" doc:"Operation ID"`
}

type ListOperationsInput struct {
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset of the first item"`
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
}

type OperationOutput struct {
	Location string `header:"Location" doc:"URL of the created operation"`
	Body     service.OperationRecord
}

// RegisterOperations registers the operation record routes.
func (h *APIHandler) RegisterOperations(api huma.API) {
	huma.Post(api, "/api/v1/operations", h.CreateOperation, huma.OperationTags("operations"),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated })
	huma.Get(api, "/api/v1/operations", h.ListOperations, huma.OperationTags("operations"))
	huma.Get(api, "/api/v1/operations/{id}", h.GetOperation, huma.OperationTags("operations"))
}

// CreateOperation builds a record from the current selection and weather
// and hands it to the configured recorders.
func (h *APIHandler) CreateOperation(ctx context.Context, input *struct{ Body operation.Form }) (*OperationOutput, error) {
	rec, err := h.svc.Session.Save(ctx, input.Body)
	var verr *operation.ValidationError
	if errors.As(err, &verr) {
		return nil, validationError(verr)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("could not record operation", err)
	}
	return &OperationOutput{Location: "/api/v1/operations/" + rec.ID, Body: rec}, nil
}

func (h *APIHandler) ListOperations(ctx context.Context, input *ListOperationsInput) (*struct {
	Body humastar.PageBody[service.OperationRecord]
}, error) {
	if h.svc.Operations == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	recs, total, err := h.svc.Operations.List(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list operations", err)
	}
	if recs == nil {
		recs = []service.OperationRecord{}
	}
	return &struct {
		Body humastar.PageBody[service.OperationRecord]
	}{Body: humastar.PageBody[service.OperationRecord]{
		Total:  total,
		Offset: input.Offset,
		Limit:  input.Limit,
		Data:   recs,
	}}, nil
}

func (h *APIHandler) GetOperation(ctx context.Context, input *OperationIDInput) (*struct{ Body service.OperationRecord }, error) {
	if h.svc.Operations == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	rec, err := h.svc.Operations.Get(ctx, input.ID)
	if errors.Is(err, service.ErrOperationNotFound) {
		return nil, huma.Error404NotFound("operation not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load operation", err)
	}
	return &struct{ Body service.OperationRecord }{Body: rec}, nil
}

// validationError reports every offending field as its own error detail.
func validationError(verr *operation.ValidationError) error {
	details := make([]error, 0, len(verr.Missing)+len(verr.Invalid))
	for _, f := range verr.Missing {
		loc := "body." + f
		if f == operation.FieldTalhao {
			loc = "selection"
		}
		details = append(details, &huma.ErrorDetail{Message: "required", Location: loc})
	}
	for _, f := range verr.Invalid {
		details = append(details, &huma.ErrorDetail{Message: "unknown value", Location: "body." + f})
	}
	return huma.Error422UnprocessableEntity("operation not valid", details...)
}
