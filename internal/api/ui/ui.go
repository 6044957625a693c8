// Package ui contains the Datastar SSE handlers behind the map page.
package ui

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/geo"
	"github.com/joeblew999/plat-talhao/internal/humastar"
	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/session"
	"github.com/joeblew999/plat-talhao/internal/templates"
)

// Handler streams fragments and signals for one session.
type Handler struct {
	humastar.Handler
	sess *session.Session
}

func NewHandler(sess *session.Session, renderer *templates.Renderer) *Handler {
	return &Handler{Handler: humastar.Handler{Renderer: renderer}, sess: sess}
}

type PlotInput struct {
	ID string `path:"id" doc:"Plot ID" example:"talhao-1"`
}

// PlotItem is the data of the plot-item fragment.
type PlotItem struct {
	ID           string
	Name         string
	AreaHectares float64
	Selected     bool
	Drawn        bool
}

// WeatherPanel is the data of the weather-panel fragment.
type WeatherPanel struct {
	Busy       bool
	Configured bool
	PlotName   string
	Snapshot   service.WeatherSnapshot
	UpdatedAt  *time.Time
}

// RegisterRoutes registers the UI routes.
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/ui/overlay", h.Overlay, huma.OperationTags("ui"))
	huma.Get(api, "/api/v1/ui/weather", h.Weather, huma.OperationTags("ui"))
	huma.Get(api, "/api/v1/ui/drones", h.Drones, huma.OperationTags("ui"))
	huma.Get(api, "/api/v1/ui/events", h.Events, huma.OperationTags("ui"))
	huma.Post(api, "/api/v1/ui/plots/{id}/click", h.Click, huma.OperationTags("ui"))
	huma.Post(api, "/api/v1/ui/plots/{id}/enter", h.Enter, huma.OperationTags("ui"))
	huma.Post(api, "/api/v1/ui/plots/{id}/leave", h.Leave, huma.OperationTags("ui"))
	huma.Post(api, "/api/v1/ui/operations", h.CreateOperation, huma.OperationTags("ui"))
}

func (h *Handler) Overlay(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.sendOverlay), nil
}

func (h *Handler) Weather(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.sendWeather), nil
}

func (h *Handler) Drones(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		drones := h.sess.Drones().List()
		opts := make([]humastar.SelectOptionData, len(drones))
		for i, d := range drones {
			opts[i] = humastar.SelectOptionData{Value: d.ID, Label: d.Name}
		}
		sse.Patch(h.RenderSelect("Selecione o drone", opts), "#drone-select")
	}), nil
}

// Click selects a plot from the list or the map. The weather result
// follows on the events stream.
func (h *Handler) Click(ctx context.Context, input *PlotInput) (*huma.StreamResponse, error) {
	err := h.sess.Click(ctx, input.ID)
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		h.sendOverlay(sse)
		h.sendWeather(sse)
	}), nil
}

func (h *Handler) Enter(ctx context.Context, input *PlotInput) (*huma.StreamResponse, error) {
	err := h.sess.Enter(input.ID)
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		h.sendOverlay(sse)
	}), nil
}

func (h *Handler) Leave(ctx context.Context, input *PlotInput) (*huma.StreamResponse, error) {
	err := h.sess.Leave(input.ID)
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		h.sendOverlay(sse)
	}), nil
}

// sendOverlay patches the map signals and the plot list.
func (h *Handler) sendOverlay(sse humastar.SSE) {
	sel := h.sess.Selection()
	sse.Signals(map[string]any{
		"talhoes":    h.sess.FeatureCollection(),
		"selectedId": sel.SelectedID,
	})
	sse.Patch(h.renderPlotList(sel.SelectedID), "#plot-list")
}

func (h *Handler) sendWeather(sse humastar.SSE) {
	sse.Patch(h.Render("weather-panel", h.weatherPanel()), "#weather")
}

func (h *Handler) renderPlotList(selected string) string {
	plots := h.sess.Plots().List()
	items := make([]any, len(plots))
	for i, p := range plots {
		items[i] = PlotItem{
			ID:           p.ID,
			Name:         p.DisplayName(),
			AreaHectares: p.AreaHectares,
			Selected:     p.ID == selected,
			Drawn:        geo.ValidRing(p.Boundary) == nil,
		}
	}
	return h.RenderList("plot-item", items, "Nenhum talhão", "Adicione talhoes.geojson ao diretório de dados")
}

func (h *Handler) weatherPanel() WeatherPanel {
	st := h.sess.Weather()
	panel := WeatherPanel{
		Busy:       st.Busy,
		Configured: st.Configured,
		Snapshot:   st.Snapshot,
		UpdatedAt:  st.UpdatedAt,
	}
	if p, ok := h.sess.Plots().Get(st.PlotID); ok {
		panel.PlotName = p.DisplayName()
	}
	return panel
}
