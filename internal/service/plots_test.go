package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

const seedGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"id": "t-norte", "nome": "Talhão Norte", "area_ha": 3.1},
      "geometry": {"type": "Polygon", "coordinates": [[[-47.5,-21.1],[-47.49,-21.1],[-47.49,-21.09],[-47.5,-21.1]]]}
    },
    {
      "type": "Feature",
      "id": "t-sul",
      "properties": {"name": "Talhão Sul"},
      "geometry": {"type": "Point", "coordinates": [-47.5,-21.2]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Polygon", "coordinates": [[[-47.6,-21.3],[-47.59,-21.3],[-47.59,-21.29],[-47.6,-21.3]]]}
    }
  ]
}`

func TestParsePlots(t *testing.T) {
	plots, err := ParsePlots([]byte(seedGeoJSON))
	if err != nil {
		t.Fatalf("ParsePlots() err = %v", err)
	}
	if len(plots) != 3 {
		t.Fatalf("len = %d, want 3", len(plots))
	}

	tests := []struct {
		i        int
		id, name string
		area     float64
		points   int
	}{
		{0, "t-norte", "Talhão Norte", 3.1, 4},
		{1, "t-sul", "Talhão Sul", 0, 0},
		{2, "talhao-3", "", 0, 4},
	}
	for _, tt := range tests {
		p := plots[tt.i]
		if p.ID != tt.id || p.Name != tt.name || p.AreaHectares != tt.area || len(p.Boundary) != tt.points {
			t.Errorf("plot %d = %+v, want id=%s name=%q area=%v points=%d", tt.i, p, tt.id, tt.name, tt.area, tt.points)
		}
	}
	if plots[2].DisplayName() != "talhao-3" {
		t.Errorf("DisplayName() = %q", plots[2].DisplayName())
	}
}

func TestParsePlots_Invalid(t *testing.T) {
	if _, err := ParsePlots([]byte(`{"type":`)); err == nil {
		t.Fatal("ParsePlots(invalid) err = nil")
	}
}

func TestLoadPlots(t *testing.T) {
	t.Run("missing file uses seed", func(t *testing.T) {
		st, err := LoadPlots(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		p, ok := st.Get("talhao-1")
		if !ok || p.Name != "Talhão 01" || len(p.Boundary) != 5 {
			t.Fatalf("seed plot = %+v, %v", p, ok)
		}
	})

	t.Run("reads file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, PlotsFile), []byte(seedGeoJSON), 0o644); err != nil {
			t.Fatal(err)
		}
		st, err := LoadPlots(dir)
		if err != nil {
			t.Fatal(err)
		}
		if st.Len() != 3 {
			t.Fatalf("Len() = %d, want 3", st.Len())
		}
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		dir := t.TempDir()
		dup := `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{"id":"a"},"geometry":{"type":"Point","coordinates":[0,0]}},
			{"type":"Feature","properties":{"id":"a"},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
		if err := os.WriteFile(filepath.Join(dir, PlotsFile), []byte(dup), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPlots(dir); err == nil {
			t.Fatal("LoadPlots() with duplicate ids err = nil")
		}
	})
}

func TestPlotStore_Immutable(t *testing.T) {
	ring := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	st, err := NewPlotStore([]FieldPlot{{ID: "a", Boundary: ring}})
	if err != nil {
		t.Fatal(err)
	}

	ring[0] = orb.Point{9, 9}
	got := st.List()
	got[0].Boundary[1] = orb.Point{8, 8}

	p, _ := st.Get("a")
	if p.Boundary[0] != (orb.Point{0, 0}) || p.Boundary[1] != (orb.Point{1, 0}) {
		t.Errorf("store mutated through caller slices: %v", p.Boundary)
	}
	if _, ok := st.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
}

func TestNewPlotStore_EmptyID(t *testing.T) {
	if _, err := NewPlotStore([]FieldPlot{{Name: "no id"}}); err == nil {
		t.Fatal("NewPlotStore() with empty id err = nil")
	}
}
