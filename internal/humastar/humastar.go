// Package humastar bridges Huma operations and Datastar server-sent events.
//
// Handlers declare a normal Huma operation that returns a
// *huma.StreamResponse; [Handler.Stream] hands the body a ready [SSE]
// writer. Request signals arrive as a flat JSON object and are read through
// [SignalsInput] and [Signals].
//
//	func (h *MapHandler) Click(ctx context.Context, in *PlotInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.Render("weather-panel", panel), "#weather")
//	    }), nil
//	}
package humastar

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-talhao/internal/templates"
)

// Handler is embedded by Datastar handlers for streaming and rendering.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream wraps fn in a Huma StreamResponse.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Render renders one fragment template, returning "" on error.
func (h *Handler) Render(tmpl string, data any) string {
	var buf bytes.Buffer
	if err := h.Renderer.RenderToBuffer(&buf, tmpl, data); err != nil {
		return ""
	}
	return buf.String()
}

// RenderList renders each item with tmpl, or the empty-state fragment.
func (h *Handler) RenderList(tmpl string, items []any, emptyTitle, emptyMsg string) string {
	return RenderList(h.Renderer, tmpl, items, emptyTitle, emptyMsg)
}

// RenderSelect renders <option> elements led by a placeholder.
func (h *Handler) RenderSelect(placeholder string, options []SelectOptionData) string {
	return RenderSelect(h.Renderer, placeholder, options)
}

// SSE is a Datastar event writer with shorthand for the common patches.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE opens a Datastar stream on the request behind a Huma context.
// The context must come from the humago adapter.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the inner HTML of selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
	)
}

// Replace replaces the element matched by selector.
func (s SSE) Replace(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
	)
}

// Error sets the error signal and clears success.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg, "success": ""})
}

// Success sets the success signal and clears error.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Signals patches arbitrary signals.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Signals is the decoded signal object of a Datastar request.
type Signals map[string]any

// ParseSignals decodes a Datastar request body. An empty body yields no signals.
func ParseSignals(body []byte) (Signals, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Signals{}, nil
	}
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a trimmed string signal. Numbers are not converted.
func (s Signals) String(key string) string {
	if v, ok := s[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Bool returns a bool signal, false when absent.
func (s Signals) Bool(key string) bool {
	v, _ := s[key].(bool)
	return v
}

// Has reports whether key was sent, whatever its value.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// EmptyInput is the input of operations without parameters.
type EmptyInput struct{}

// SignalsInput captures the raw Datastar body.
type SignalsInput struct {
	RawBody []byte
}

// Parse decodes the signals or returns a Huma 400.
func (i *SignalsInput) Parse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid signals: " + err.Error())
	}
	return signals, nil
}

// SelectOptionData is the data of the select-option fragment.
type SelectOptionData struct {
	Value    string
	Label    string
	Selected bool
}

// RenderList renders each item with tmpl, or the empty-state fragment.
func RenderList(r *templates.Renderer, tmpl string, items []any, emptyTitle, emptyMsg string) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		r.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": emptyTitle, "Message": emptyMsg,
		})
		return buf.String()
	}
	for _, item := range items {
		r.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// RenderSelect renders a placeholder option followed by options.
func RenderSelect(r *templates.Renderer, placeholder string, options []SelectOptionData) string {
	var buf bytes.Buffer
	r.RenderToBuffer(&buf, "select-option", SelectOptionData{Label: placeholder})
	for _, opt := range options {
		r.RenderToBuffer(&buf, "select-option", opt)
	}
	return buf.String()
}
