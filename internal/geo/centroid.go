// Package geo holds the small geometry helpers the overlay and the weather
// lookup need: the vertex-mean centroid, ring validation and geodesic area.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/joeblew999/plat-talhao/internal/service"
)

// ErrMalformedBoundary marks a plot boundary that cannot be rendered.
var ErrMalformedBoundary = errors.New("malformed boundary")

// CentroidOf returns the arithmetic mean of every listed boundary point,
// the duplicated closing point included. This is a lookup key for weather,
// not an area centroid. ok is false for an empty boundary.
func CentroidOf(plot service.FieldPlot) (orb.Point, bool) {
	n := len(plot.Boundary)
	if n == 0 {
		return orb.Point{}, false
	}
	var sumLon, sumLat float64
	for _, p := range plot.Boundary {
		sumLon += p.Lon()
		sumLat += p.Lat()
	}
	return orb.Point{sumLon / float64(n), sumLat / float64(n)}, true
}

// ValidRing reports why a ring cannot be drawn as a plot outline.
func ValidRing(r orb.Ring) error {
	if len(r) < 4 {
		return fmt.Errorf("%w: %d points, need at least 4", ErrMalformedBoundary, len(r))
	}
	for i, p := range r {
		if math.IsNaN(p.Lon()) || math.IsNaN(p.Lat()) || math.IsInf(p.Lon(), 0) || math.IsInf(p.Lat(), 0) {
			return fmt.Errorf("%w: point %d is not finite", ErrMalformedBoundary, i)
		}
		if p.Lon() < -180 || p.Lon() > 180 || p.Lat() < -90 || p.Lat() > 90 {
			return fmt.Errorf("%w: point %d out of range", ErrMalformedBoundary, i)
		}
	}
	if !r.Closed() {
		return fmt.Errorf("%w: ring is not closed", ErrMalformedBoundary)
	}
	return nil
}

// AreaHectares is the geodesic area enclosed by the ring.
func AreaHectares(r orb.Ring) float64 {
	if len(r) < 4 {
		return 0
	}
	return math.Abs(orbgeo.Area(r)) / 10_000
}
