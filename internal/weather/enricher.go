package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joeblew999/plat-talhao/internal/geo"
	"github.com/joeblew999/plat-talhao/internal/metrics"
	"github.com/joeblew999/plat-talhao/internal/service"
)

// State is what the UI shows for weather.
type State struct {
	Busy       bool                    `json:"busy" doc:"A lookup for the current selection is in flight"`
	Configured bool                    `json:"configured" doc:"Whether a weather provider is configured"`
	Snapshot   service.WeatherSnapshot `json:"snapshot" doc:"Latest weather snapshot"`
	PlotID     string                  `json:"plotId,omitempty" doc:"Plot the snapshot was fetched for"`
	UpdatedAt  *time.Time              `json:"updatedAt,omitempty" doc:"When the snapshot was last replaced"`
}

// Enricher reacts to selection changes by fetching weather for the plot
// centroid. Each lookup carries a generation number; a response whose
// generation is no longer current is dropped instead of overwriting the
// snapshot with data for a plot that is no longer selected.
type Enricher struct {
	provider Provider // nil when unconfigured
	logger   *slog.Logger
	metrics  *metrics.Metrics
	onChange func(State)

	mu        sync.Mutex
	gen       uint64
	busy      bool
	snapshot  service.WeatherSnapshot
	plotID    string
	updatedAt time.Time

	wg sync.WaitGroup
}

// NewEnricher creates an enricher. A nil provider means unconfigured:
// no lookups are ever made.
func NewEnricher(provider Provider, logger *slog.Logger, m *metrics.Metrics) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{provider: provider, logger: logger, metrics: m}
}

// OnChange registers the callback fired after every state transition.
// It runs outside the enricher lock, possibly on the lookup goroutine.
func (e *Enricher) OnChange(fn func(State)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Configured reports whether lookups can happen at all.
func (e *Enricher) Configured() bool {
	return e.provider != nil
}

// Select reacts to a selection change. A nil plot, an unconfigured provider
// or a plot without a centroid performs no lookup and keeps the snapshot;
// a nil plot or one without a centroid also drops lookups still in flight.
// Otherwise one lookup starts in the background; Select never blocks on it
// and never returns its error.
func (e *Enricher) Select(ctx context.Context, plot *service.FieldPlot) {
	if plot == nil {
		e.invalidate()
		return
	}
	if e.provider == nil {
		return
	}
	center, ok := geo.CentroidOf(*plot)
	if !ok {
		e.logger.Warn("weather lookup skipped: plot has no centroid", "plot", plot.ID)
		e.invalidate()
		return
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.busy = true
	e.mu.Unlock()
	e.notify()

	plotID := plot.ID
	// The lookup outlives the request that triggered it.
	lookupCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		snap, err := e.provider.Current(lookupCtx, center.Lat(), center.Lon())
		e.complete(gen, plotID, snap, err)
	}()
}

// invalidate makes in-flight lookups stale and clears busy. The snapshot
// is kept.
func (e *Enricher) invalidate() {
	e.mu.Lock()
	e.gen++
	e.busy = false
	e.mu.Unlock()
	e.notify()
}

func (e *Enricher) complete(gen uint64, plotID string, snap service.WeatherSnapshot, err error) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.logger.Debug("stale weather response dropped", "plot", plotID)
		e.metrics.WeatherLookup("stale")
		return
	}
	e.busy = false
	if err == nil {
		e.snapshot = snap.Clone()
		e.plotID = plotID
		e.updatedAt = time.Now().UTC()
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("weather lookup failed", "plot", plotID, "error", err)
		e.metrics.WeatherLookup("error")
	} else {
		e.logger.Debug("weather updated", "plot", plotID)
		e.metrics.WeatherLookup("ok")
	}
	e.notify()
}

// State returns the current state with a private copy of the snapshot.
func (e *Enricher) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Snapshot returns a private copy of the latest snapshot.
func (e *Enricher) Snapshot() service.WeatherSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// Wait blocks until every started lookup has completed.
func (e *Enricher) Wait() {
	e.wg.Wait()
}

func (e *Enricher) stateLocked() State {
	st := State{
		Busy:       e.busy,
		Configured: e.provider != nil,
		Snapshot:   e.snapshot.Clone(),
		PlotID:     e.plotID,
	}
	if !e.updatedAt.IsZero() {
		t := e.updatedAt
		st.UpdatedAt = &t
	}
	return st
}

func (e *Enricher) notify() {
	e.mu.Lock()
	fn := e.onChange
	st := e.stateLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}
