package api

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/overlay"
	"github.com/joeblew999/plat-talhao/internal/session"
	"github.com/joeblew999/plat-talhao/internal/weather"
)

// OverlayBody is the rendered overlay: effective selection, hover, map
// bound and layers in draw order.
type OverlayBody struct {
	SelectedID string          `json:"selectedId,omitempty" doc:"Effective selected plot id"`
	Hovered    string          `json:"hovered,omitempty" doc:"Hovered plot id"`
	Bound      *[4]float64     `json:"bound,omitempty" doc:"Union bound of the drawn plots [minLon, minLat, maxLon, maxLat]"`
	Layers     []overlay.Layer `json:"layers" doc:"Layers in draw order, last on top"`
}

// GeoJSONOutput carries the overlay as a raw application/geo+json body.
type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterOverlay registers the overlay and pointer-event routes.
func (h *APIHandler) RegisterOverlay(api huma.API) {
	huma.Get(api, "/api/v1/overlay", h.GetOverlay, huma.OperationTags("overlay"))
	huma.Get(api, "/api/v1/overlay/geojson", h.GetOverlayGeoJSON, huma.OperationTags("overlay"))
	huma.Post(api, "/api/v1/overlay/{id}/click", h.ClickPlot, huma.OperationTags("overlay"))
	huma.Post(api, "/api/v1/overlay/{id}/enter", h.EnterPlot, huma.OperationTags("overlay"))
	huma.Post(api, "/api/v1/overlay/{id}/leave", h.LeavePlot, huma.OperationTags("overlay"))
}

func (h *APIHandler) GetOverlay(ctx context.Context, input *struct{}) (*struct{ Body OverlayBody }, error) {
	s := h.svc.Session
	sel := s.Selection()
	body := OverlayBody{
		SelectedID: sel.SelectedID,
		Hovered:    sel.Hovered,
		Layers:     s.Layers(),
	}
	if b, ok := s.Bound(); ok {
		body.Bound = &[4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	return &struct{ Body OverlayBody }{Body: body}, nil
}

func (h *APIHandler) GetOverlayGeoJSON(ctx context.Context, input *struct{}) (*GeoJSONOutput, error) {
	data, err := json.Marshal(h.svc.Session.FeatureCollection())
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding overlay", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) ClickPlot(ctx context.Context, input *IDInput) (*struct{ Body session.Selection }, error) {
	if err := h.svc.Session.Click(ctx, input.ID); err != nil {
		return nil, plotError(err)
	}
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

func (h *APIHandler) EnterPlot(ctx context.Context, input *IDInput) (*struct{ Body session.Selection }, error) {
	if err := h.svc.Session.Enter(input.ID); err != nil {
		return nil, plotError(err)
	}
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

func (h *APIHandler) LeavePlot(ctx context.Context, input *IDInput) (*struct{ Body session.Selection }, error) {
	if err := h.svc.Session.Leave(input.ID); err != nil {
		return nil, plotError(err)
	}
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

// RegisterSelection registers the external selection routes.
func (h *APIHandler) RegisterSelection(api huma.API) {
	huma.Get(api, "/api/v1/selection", h.GetSelection, huma.OperationTags("selection"))
	huma.Put(api, "/api/v1/selection/{id}", h.PutSelection, huma.OperationTags("selection"))
	huma.Delete(api, "/api/v1/selection", h.DeleteSelection, huma.OperationTags("selection"))
}

func (h *APIHandler) GetSelection(ctx context.Context, input *struct{}) (*struct{ Body session.Selection }, error) {
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

func (h *APIHandler) PutSelection(ctx context.Context, input *IDInput) (*struct{ Body session.Selection }, error) {
	if err := h.svc.Session.Select(ctx, input.ID); err != nil {
		return nil, plotError(err)
	}
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

func (h *APIHandler) DeleteSelection(ctx context.Context, input *struct{}) (*struct{ Body session.Selection }, error) {
	h.svc.Session.Clear(ctx)
	return &struct{ Body session.Selection }{Body: h.svc.Session.Selection()}, nil
}

// RegisterWeather registers the weather state route.
func (h *APIHandler) RegisterWeather(api huma.API) {
	huma.Get(api, "/api/v1/weather", h.GetWeather, huma.OperationTags("weather"))
}

func (h *APIHandler) GetWeather(ctx context.Context, input *struct{}) (*struct{ Body weather.State }, error) {
	return &struct{ Body weather.State }{Body: h.svc.Session.Weather()}, nil
}
