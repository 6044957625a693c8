// Package metrics exposes the session counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters and the private registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	weatherLookups   *prometheus.CounterVec
	selectionChanges *prometheus.CounterVec
	operations       *prometheus.CounterVec
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		weatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talhao",
			Name:      "weather_lookups_total",
			Help:      "Completed weather lookups by outcome (ok, error, stale).",
		}, []string{"outcome"}),
		selectionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talhao",
			Name:      "selection_changes_total",
			Help:      "Plot selection changes by source (click, assert, reload).",
		}, []string{"source"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talhao",
			Name:      "operations_total",
			Help:      "Operation save attempts by result (saved, rejected, failed).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.weatherLookups, m.selectionChanges, m.operations)
	return m
}

// WeatherLookup counts one completed lookup.
func (m *Metrics) WeatherLookup(outcome string) {
	if m == nil {
		return
	}
	m.weatherLookups.WithLabelValues(outcome).Inc()
}

// SelectionChange counts one selection change.
func (m *Metrics) SelectionChange(source string) {
	if m == nil {
		return
	}
	m.selectionChanges.WithLabelValues(source).Inc()
}

// Operation counts one save attempt.
func (m *Metrics) Operation(result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(result).Inc()
}

// WeatherLookups returns the counter for outcome, for tests and diagnostics.
func (m *Metrics) WeatherLookups(outcome string) prometheus.Counter {
	return m.weatherLookups.WithLabelValues(outcome)
}

// SelectionChanges returns the counter for source.
func (m *Metrics) SelectionChanges(source string) prometheus.Counter {
	return m.selectionChanges.WithLabelValues(source)
}

// Operations returns the counter for result.
func (m *Metrics) Operations(result string) prometheus.Counter {
	return m.operations.WithLabelValues(result)
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
