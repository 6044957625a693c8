// Package session wires the plot overlay, the weather enricher and the
// operation builder into the state one operator works against.
//
// Every overlay call goes through the session mutex, so HTTP handlers
// running concurrently see the same ordering a single UI event loop would.
// The weather lookup is the only work that leaves that lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-talhao/internal/metrics"
	"github.com/joeblew999/plat-talhao/internal/operation"
	"github.com/joeblew999/plat-talhao/internal/overlay"
	"github.com/joeblew999/plat-talhao/internal/service"
	"github.com/joeblew999/plat-talhao/internal/weather"
)

// Config holds the collaborators of a session.
type Config struct {
	Plots    *service.PlotStore
	Drones   *service.DroneCatalog
	Provider weather.Provider   // nil when no weather key is configured
	Recorder operation.Recorder // nil keeps records nowhere
	User     service.User
	ReadOnly bool
	Bus      *service.EventBus
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// Now and NewID override the record clock and id source in tests.
	Now   func() time.Time
	NewID func() string
}

// Selection is the effective selection as seen by clients.
type Selection struct {
	SelectedID string             `json:"selectedId,omitempty" doc:"Effective selected plot id"`
	Plot       *service.FieldPlot `json:"plot,omitempty" doc:"Selected plot"`
	Hovered    string             `json:"hovered,omitempty" doc:"Plot currently under the pointer"`
	Asserted   bool               `json:"asserted" doc:"Whether the selection was set externally"`
	CanEdit    bool               `json:"canEdit" doc:"Whether drawing tools are enabled for this user"`
}

// Session is the state of one operator's map view.
type Session struct {
	mu       sync.Mutex
	plots    *service.PlotStore
	ov       *overlay.Overlay
	asserted bool
	current  string // last effective selection handed to the enricher

	drones   *service.DroneCatalog
	enricher *weather.Enricher
	builder  *operation.Builder
	recorder operation.Recorder
	user     service.User
	canEdit  bool
	bus      *service.EventBus
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds a session and renders the initial plot list.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = service.NewEventBus()
	}
	plots := cfg.Plots
	if plots == nil {
		plots, _ = service.NewPlotStore(nil)
	}
	drones := cfg.Drones
	if drones == nil {
		drones, _ = service.NewDroneCatalog(nil)
	}

	s := &Session{
		plots:    plots,
		ov:       overlay.New(),
		drones:   drones,
		enricher: weather.NewEnricher(cfg.Provider, logger.With("component", "weather"), cfg.Metrics),
		builder:  &operation.Builder{Drones: drones, Now: cfg.Now, NewID: cfg.NewID},
		recorder: cfg.Recorder,
		user:     cfg.User,
		canEdit:  cfg.User.CanEdit(cfg.ReadOnly),
		bus:      bus,
		metrics:  cfg.Metrics,
		logger:   logger,
	}

	// A click is mirrored back as the container's assertion, so the
	// clicked plot stays selected until something else asserts otherwise.
	s.ov.OnSelect(func(p service.FieldPlot) {
		s.ov.Assert(p.ID)
	})
	s.enricher.OnChange(func(st weather.State) {
		s.bus.Publish(service.Event{Resource: service.ResourceWeather, Action: "changed", ID: st.PlotID})
	})

	s.rebuild()
	if !s.enricher.Configured() {
		logger.Warn("weather provider not configured, lookups disabled")
	}
	return s
}

// Bus returns the session event bus.
func (s *Session) Bus() *service.EventBus { return s.bus }

// User returns the session user.
func (s *Session) User() service.User { return s.user }

// CanEdit reports whether editing tools are enabled. Resolved once at start.
func (s *Session) CanEdit() bool { return s.canEdit }

// WeatherConfigured reports whether weather lookups can happen.
func (s *Session) WeatherConfigured() bool { return s.enricher.Configured() }

// Click handles a pointer click on a plot.
func (s *Session) Click(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ov.Click(id); err != nil {
		return err
	}
	s.asserted = false
	s.changed(ctx, "click")
	return nil
}

// Enter applies the hover style to id.
func (s *Session) Enter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov.Enter(id)
}

// Leave clears the hover style from id.
func (s *Session) Leave(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov.Leave(id)
}

// Select asserts id from outside the map. It wins over the last click.
func (s *Session) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plots.Get(id); !ok {
		return fmt.Errorf("%w: %q", overlay.ErrUnknownPlot, id)
	}
	s.ov.Assert(id)
	s.asserted = true
	s.changed(ctx, "assert")
	return nil
}

// Clear asserts that nothing is selected.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ov.Assert("")
	s.asserted = true
	s.changed(ctx, "assert")
}

// Selection returns the effective selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := Selection{
		Hovered:  s.ov.Hovered(),
		Asserted: s.asserted,
		CanEdit:  s.canEdit,
	}
	if p, ok := s.ov.Selected(); ok {
		sel.SelectedID = p.ID
		sel.Plot = &p
	}
	return sel
}

// Layers returns the rendered layers in draw order.
func (s *Session) Layers() []overlay.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov.Layers()
}

// FeatureCollection returns the layers as GeoJSON.
func (s *Session) FeatureCollection() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov.FeatureCollection()
}

// Bound returns the union bound of the rendered layers.
func (s *Session) Bound() (orb.Bound, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov.Bound()
}

// Plots returns the current plot store.
func (s *Session) Plots() *service.PlotStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plots
}

// Drones returns the drone catalogue.
func (s *Session) Drones() *service.DroneCatalog { return s.drones }

// Weather returns the enricher state.
func (s *Session) Weather() weather.State { return s.enricher.State() }

// Reload swaps in a new plot list and rebuilds the overlay. It returns the
// ids of plots that could not be drawn. A selected plot whose boundary
// changed gets a fresh weather lookup.
func (s *Session) Reload(ctx context.Context, plots *service.PlotStore) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, hadPrev := s.ov.Selected()
	s.plots = plots
	skipped := s.rebuild()
	s.bus.Publish(service.Event{Resource: service.ResourcePlots, Action: "reloaded"})
	s.changed(ctx, "reload")

	// Same id, new boundary: the centroid may have moved.
	if p, ok := s.ov.Selected(); ok && hadPrev && p.ID == prev.ID && !orb.Equal(p.Boundary, prev.Boundary) {
		s.logger.Debug("selected plot boundary changed", "plot", p.ID)
		s.enricher.Select(ctx, &p)
	}
	return skipped
}

// Save builds a record from the current selection, form and weather and
// hands it to the recorder. A *operation.ValidationError means nothing was
// recorded.
func (s *Session) Save(ctx context.Context, form operation.Form) (service.OperationRecord, error) {
	s.mu.Lock()
	var sel *service.FieldPlot
	if p, ok := s.ov.Selected(); ok {
		sel = &p
	}
	rec, err := s.builder.Build(sel, form, s.enricher.Snapshot(), s.user.Name)
	s.mu.Unlock()

	var verr *operation.ValidationError
	if errors.As(err, &verr) {
		s.metrics.Operation("rejected")
		return service.OperationRecord{}, err
	}
	if err != nil {
		s.metrics.Operation("failed")
		return service.OperationRecord{}, err
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, rec); err != nil {
			s.metrics.Operation("failed")
			s.logger.Error("recording operation failed", "id", rec.ID, "error", err)
			return service.OperationRecord{}, err
		}
	}

	s.metrics.Operation("saved")
	s.logger.Info("operation saved", "id", rec.ID, "plot", rec.TalhaoID, "drone", rec.DroneID)
	s.bus.Publish(service.Event{Resource: service.ResourceOperations, Action: "created", ID: rec.ID})
	return rec, nil
}

// Wait blocks until in-flight weather lookups finish.
func (s *Session) Wait() { s.enricher.Wait() }

// rebuild re-renders the overlay from s.plots. Caller holds s.mu.
func (s *Session) rebuild() []string {
	skipped := s.ov.Rebuild(s.plots.List())
	for _, id := range skipped {
		s.logger.Warn("plot not drawn: malformed boundary", "plot", id)
	}
	return skipped
}

// changed hands a new effective selection to the enricher. Caller holds s.mu.
func (s *Session) changed(ctx context.Context, source string) {
	id := s.ov.SelectedID()
	if id == s.current {
		return
	}
	s.current = id
	s.metrics.SelectionChange(source)
	s.bus.Publish(service.Event{Resource: service.ResourceSelection, Action: "changed", ID: id})

	if id == "" {
		s.logger.Debug("selection cleared")
		s.enricher.Select(ctx, nil)
		return
	}
	p, _ := s.ov.Selected()
	s.logger.Debug("plot selected", "plot", id, "source", source)
	s.enricher.Select(ctx, &p)
}
