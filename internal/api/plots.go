package api

import (
	"context"
	"fmt"
	"math"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/geo"
	"github.com/joeblew999/plat-talhao/internal/humastar"
	"github.com/joeblew999/plat-talhao/internal/service"
)

// plotActions are the actions every plot resource advertises.
var plotActions = []humastar.ActionDef{
	{Rel: "select", Pattern: "/api/v1/selection/%s", Method: "PUT", Title: "Select plot"},
	{Rel: "click", Pattern: "/api/v1/overlay/%s/click", Method: "POST", Title: "Click plot on the map"},
	{Rel: "centroid", Pattern: "/api/v1/plots/%s/centroid", Method: "GET", Title: "Plot centroid"},
}

// PlotBody is a plot plus what the server derived from its boundary.
type PlotBody struct {
	service.FieldPlot
	GeodesicHectares float64 `json:"geodesicHectares" doc:"Area computed from the boundary (ha)"`
	Drawn            bool    `json:"drawn" doc:"Whether the boundary is valid and drawn on the map"`
}

// Actions implements humastar.Actor.
func (b PlotBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, plotActions)
}

func newPlotBody(p service.FieldPlot) PlotBody {
	body := PlotBody{FieldPlot: p}
	if err := geo.ValidRing(p.Boundary); err == nil {
		body.Drawn = true
		body.GeodesicHectares = math.Round(geo.AreaHectares(p.Boundary)*1000) / 1000
	}
	return body
}

type CentroidBody struct {
	PlotID string  `json:"plotId" doc:"Plot ID"`
	Lat    float64 `json:"lat" doc:"Mean latitude of the boundary vertices"`
	Lon    float64 `json:"lon" doc:"Mean longitude of the boundary vertices"`
}

type ReloadBody struct {
	Plots   int      `json:"plots" doc:"Number of plots loaded"`
	Skipped []string `json:"skipped" doc:"Plots not drawn because of a malformed boundary"`
	Message string   `json:"message" doc:"Result message"`
}

// RegisterPlots registers the plot routes.
func (h *APIHandler) RegisterPlots(api huma.API) {
	huma.Get(api, "/api/v1/plots", h.ListPlots, huma.OperationTags("plots"))
	huma.Get(api, "/api/v1/plots/{id}", h.GetPlot, huma.OperationTags("plots"))
	huma.Get(api, "/api/v1/plots/{id}/centroid", h.GetCentroid, huma.OperationTags("plots"))
	huma.Post(api, "/api/v1/plots/reload", h.ReloadPlots, huma.OperationTags("plots"))
}

func (h *APIHandler) ListPlots(ctx context.Context, input *struct{}) (*struct{ Body []PlotBody }, error) {
	plots := h.svc.Session.Plots().List()
	out := make([]PlotBody, len(plots))
	for i, p := range plots {
		out[i] = newPlotBody(p)
	}
	return &struct{ Body []PlotBody }{Body: out}, nil
}

func (h *APIHandler) GetPlot(ctx context.Context, input *IDInput) (*struct{ Body PlotBody }, error) {
	p, ok := h.svc.Session.Plots().Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("plot not found")
	}
	return &struct{ Body PlotBody }{Body: newPlotBody(p)}, nil
}

func (h *APIHandler) GetCentroid(ctx context.Context, input *IDInput) (*struct{ Body CentroidBody }, error) {
	p, ok := h.svc.Session.Plots().Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("plot not found")
	}
	c, ok := geo.CentroidOf(p)
	if !ok {
		return nil, huma.Error422UnprocessableEntity("plot has no boundary")
	}
	return &struct{ Body CentroidBody }{Body: CentroidBody{PlotID: p.ID, Lat: c.Lat(), Lon: c.Lon()}}, nil
}

func (h *APIHandler) ReloadPlots(ctx context.Context, input *struct{}) (*struct{ Body ReloadBody }, error) {
	store, err := service.LoadPlots(h.svc.DataDir)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("could not load plots", err)
	}
	skipped := h.svc.Session.Reload(ctx, store)
	if skipped == nil {
		skipped = []string{}
	}
	return &struct{ Body ReloadBody }{Body: ReloadBody{
		Plots:   store.Len(),
		Skipped: skipped,
		Message: fmt.Sprintf("%d plots loaded", store.Len()),
	}}, nil
}

// RegisterDrones registers the drone catalogue route.
func (h *APIHandler) RegisterDrones(api huma.API) {
	huma.Get(api, "/api/v1/drones", h.ListDrones, huma.OperationTags("drones"))
}

func (h *APIHandler) ListDrones(ctx context.Context, input *struct{}) (*struct{ Body []service.Drone }, error) {
	return &struct{ Body []service.Drone }{Body: h.svc.Session.Drones().List()}, nil
}
