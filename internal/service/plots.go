package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PlotsFile is the seed file name inside the data directory.
const PlotsFile = "talhoes.geojson"

// PlotStore holds the immutable list of field plots for one session.
// A new list means a new store; nothing mutates an existing one.
type PlotStore struct {
	plots []FieldPlot
	byID  map[string]int
}

// NewPlotStore builds a store from plots. Plot ids must be unique.
func NewPlotStore(plots []FieldPlot) (*PlotStore, error) {
	s := &PlotStore{
		plots: make([]FieldPlot, len(plots)),
		byID:  make(map[string]int, len(plots)),
	}
	for i, p := range plots {
		if p.ID == "" {
			return nil, fmt.Errorf("plot %d has no id", i)
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plot id %q", p.ID)
		}
		p.Boundary = cloneRing(p.Boundary)
		s.plots[i] = p
		s.byID[p.ID] = i
	}
	return s, nil
}

// List returns the plots in seed order. The slice is a copy.
func (s *PlotStore) List() []FieldPlot {
	out := make([]FieldPlot, len(s.plots))
	for i, p := range s.plots {
		p.Boundary = cloneRing(p.Boundary)
		out[i] = p
	}
	return out
}

// Get returns a plot by id.
func (s *PlotStore) Get(id string) (FieldPlot, bool) {
	i, ok := s.byID[id]
	if !ok {
		return FieldPlot{}, false
	}
	p := s.plots[i]
	p.Boundary = cloneRing(p.Boundary)
	return p, true
}

// Len returns the number of plots.
func (s *PlotStore) Len() int {
	return len(s.plots)
}

// LoadPlots reads {dataDir}/talhoes.geojson. A missing file yields the
// built-in seed.
func LoadPlots(dataDir string) (*PlotStore, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, PlotsFile))
	if errors.Is(err, os.ErrNotExist) {
		return NewPlotStore(DefaultPlots())
	}
	if err != nil {
		return nil, fmt.Errorf("reading plots: %w", err)
	}
	plots, err := ParsePlots(data)
	if err != nil {
		return nil, err
	}
	return NewPlotStore(plots)
}

// ParsePlots decodes a GeoJSON FeatureCollection of plot polygons.
// Properties: id, nome or name, area_ha. A feature that is not a polygon
// keeps an empty boundary so it stays selectable but is never drawn.
func ParsePlots(data []byte) ([]FieldPlot, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing plots geojson: %w", err)
	}

	plots := make([]FieldPlot, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := f.Properties.MustString("id", "")
		if id == "" {
			if fid, ok := f.ID.(string); ok {
				id = fid
			}
		}
		if id == "" {
			id = fmt.Sprintf("talhao-%d", i+1)
		}
		name := f.Properties.MustString("nome", "")
		if name == "" {
			name = f.Properties.MustString("name", "")
		}

		plot := FieldPlot{
			ID:           id,
			Name:         name,
			AreaHectares: f.Properties.MustFloat64("area_ha", 0),
		}
		if poly, ok := f.Geometry.(orb.Polygon); ok && len(poly) > 0 {
			plot.Boundary = poly[0]
		}
		plots = append(plots, plot)
	}
	return plots, nil
}

// DefaultPlots is the built-in single-plot seed near the default map center.
func DefaultPlots() []FieldPlot {
	return []FieldPlot{{
		ID:           "talhao-1",
		Name:         "Talhão 01",
		AreaHectares: 2.75,
		Boundary: orb.Ring{
			{-47.56810, -21.12310},
			{-47.56870, -21.12360},
			{-47.56795, -21.12400},
			{-47.56745, -21.12347},
			{-47.56810, -21.12310},
		},
	}}
}

func cloneRing(r orb.Ring) orb.Ring {
	if r == nil {
		return nil
	}
	return append(orb.Ring(nil), r...)
}
