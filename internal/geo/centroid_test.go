package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-talhao/internal/service"
)

func sampleRing() orb.Ring {
	return orb.Ring{
		{-47.56810, -21.12310},
		{-47.56870, -21.12360},
		{-47.56795, -21.12400},
		{-47.56745, -21.12347},
		{-47.56810, -21.12310},
	}
}

func TestCentroidOf_VertexMean(t *testing.T) {
	got, ok := CentroidOf(service.FieldPlot{ID: "t1", Boundary: sampleRing()})
	if !ok {
		t.Fatal("CentroidOf() ok = false, want true")
	}

	wantLon := (-47.56810 - 47.56870 - 47.56795 - 47.56745 - 47.56810) / 5
	wantLat := (-21.12310 - 21.12360 - 21.12400 - 21.12347 - 21.12310) / 5
	if math.Abs(got.Lon()-wantLon) > 1e-12 {
		t.Errorf("lon = %v, want %v", got.Lon(), wantLon)
	}
	if math.Abs(got.Lat()-wantLat) > 1e-12 {
		t.Errorf("lat = %v, want %v", got.Lat(), wantLat)
	}
}

func TestCentroidOf_Empty(t *testing.T) {
	if _, ok := CentroidOf(service.FieldPlot{ID: "t1"}); ok {
		t.Fatal("CentroidOf(empty) ok = true, want false")
	}
}

func TestValidRing(t *testing.T) {
	tests := []struct {
		name    string
		ring    orb.Ring
		wantErr bool
	}{
		{name: "sample", ring: sampleRing()},
		{name: "empty", ring: nil, wantErr: true},
		{name: "too short", ring: orb.Ring{{0, 0}, {1, 0}, {0, 0}}, wantErr: true},
		{name: "open", ring: orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, wantErr: true},
		{name: "out of range", ring: orb.Ring{{0, 0}, {200, 0}, {1, 1}, {0, 0}}, wantErr: true},
		{name: "nan", ring: orb.Ring{{0, 0}, {math.NaN(), 0}, {1, 1}, {0, 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidRing(tt.ring)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedBoundary) {
					t.Fatalf("ValidRing() err = %v, want ErrMalformedBoundary", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidRing() err = %v, want nil", err)
			}
		})
	}
}

func TestAreaHectares(t *testing.T) {
	got := AreaHectares(sampleRing())
	// Planar estimate of the sample outline is about 0.66 ha.
	if got < 0.6 || got > 0.72 {
		t.Fatalf("AreaHectares() = %v, want about 0.66", got)
	}
	if AreaHectares(nil) != 0 {
		t.Fatal("AreaHectares(nil) != 0")
	}
}
