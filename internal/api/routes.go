// Package api defines the Huma REST routes of the talhão server.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/overlay"
	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/session"
)

// Services holds the dependencies of the REST handlers.
type Services struct {
	Session    *session.Session
	Operations *service.OperationStore // nil when the database is unavailable
	DataDir    string
}

type IDInput struct {
	ID string `path:"id" doc:"Plot ID" example:"talhao-1"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds the REST handlers. Methods named Register* are picked
// up by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers the health check.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

// plotError maps overlay errors to HTTP errors.
func plotError(err error) error {
	switch {
	case errors.Is(err, overlay.ErrUnknownPlot):
		return huma.Error404NotFound("plot not found", err)
	case errors.Is(err, overlay.ErrNotRendered):
		return huma.Error422UnprocessableEntity("plot is not drawn on the map", err)
	default:
		return huma.Error500InternalServerError("overlay error", err)
	}
}
