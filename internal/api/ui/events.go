package ui

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/humastar"
	"github.com/joeblew999/plat-talhao/internal/service"
)

// Events streams session changes to the page until the client goes away.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			bus := h.sess.Bus()
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)
			sse := humastar.NewSSE(humaCtx)
			done := humaCtx.Context().Done()

			for {
				select {
				case <-done:
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					switch ev.Resource {
					case service.ResourceWeather:
						h.sendWeather(sse)
					case service.ResourceSelection, service.ResourcePlots:
						h.sendOverlay(sse)
					}
					sse.DispatchCustomEvent("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}
