// Package overlay keeps the interactive plot layers drawn over the map in
// sync with one selection identity.
//
// The overlay owns an arena of layers keyed by plot id. The arena is thrown
// away and rebuilt on every plot-list change; styles are always re-derived
// from the selection and hover cells, never patched in place.
//
// An Overlay is not safe for concurrent use. Callers serialize access.
package overlay

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-talhao/internal/geo"
	"github.com/joeblew999/plat-talhao/internal/service"
)

var (
	// ErrUnknownPlot is returned for ids not in the current plot list.
	ErrUnknownPlot = errors.New("unknown plot")
	// ErrNotRendered is returned for pointer events on plots without a layer.
	ErrNotRendered = errors.New("plot has no layer")
)

// Layer is a read-only view of one rendered layer.
type Layer struct {
	PlotID   string   `json:"plotId" doc:"Plot id" example:"talhao-1"`
	Name     string   `json:"name" doc:"Plot display name"`
	Kind     Kind     `json:"kind" enum:"base,hovered,selected" doc:"Visual state"`
	Style    Style    `json:"style" doc:"Path style derived from kind"`
	Order    int      `json:"order" doc:"Draw order, higher is drawn on top"`
	Boundary orb.Ring `json:"boundary" doc:"Outer ring as [lon, lat] pairs"`
}

type layer struct {
	plot service.FieldPlot
	kind Kind
}

// Overlay renders plots as layers and tracks selection and hover.
type Overlay struct {
	plots  map[string]service.FieldPlot
	layers map[string]*layer
	order  []string // draw order, last is on top

	local    string  // last clicked plot
	external *string // asserted by the container, wins when set
	hovered  string

	listeners []func(service.FieldPlot)
}

// New returns an empty overlay. Call Rebuild with the plot list.
func New() *Overlay {
	return &Overlay{
		plots:  map[string]service.FieldPlot{},
		layers: map[string]*layer{},
	}
}

// OnSelect registers a listener called with the full clicked plot after
// every click. The clicked plot is what the user picked, not necessarily the
// effective selection: while an external assertion is set, Selected keeps
// returning the asserted plot. A container that wants clicks to win mirrors
// them back with Assert from the listener.
func (o *Overlay) OnSelect(fn func(service.FieldPlot)) {
	o.listeners = append(o.listeners, fn)
}

// Rebuild discards every layer and derives one per plot from its boundary.
// Plots with a malformed boundary get no layer but stay selectable by id;
// their ids are returned. The current selection is re-applied.
func (o *Overlay) Rebuild(plots []service.FieldPlot) []string {
	o.plots = make(map[string]service.FieldPlot, len(plots))
	o.layers = make(map[string]*layer, len(plots))
	o.order = make([]string, 0, len(plots))

	var skipped []string
	for _, p := range plots {
		o.plots[p.ID] = p
		if err := geo.ValidRing(p.Boundary); err != nil {
			skipped = append(skipped, p.ID)
			continue
		}
		o.layers[p.ID] = &layer{plot: p, kind: KindBase}
		o.order = append(o.order, p.ID)
	}

	if _, ok := o.plots[o.local]; !ok {
		o.local = ""
	}
	if _, ok := o.layers[o.hovered]; !ok {
		o.hovered = ""
	}

	o.highlight()
	return skipped
}

// Click records id as the local selection, restyles every layer, raises the
// selected layer and notifies listeners with the full plot.
func (o *Overlay) Click(id string) error {
	if err := o.rendered(id); err != nil {
		return err
	}
	plot := o.plots[id]

	o.local = id
	o.highlight()

	for _, fn := range o.listeners {
		fn(plot)
	}
	return nil
}

// Enter applies the transient hover style to exactly one layer.
func (o *Overlay) Enter(id string) error {
	if err := o.rendered(id); err != nil {
		return err
	}
	o.hovered = id
	o.restyle()
	return nil
}

// Leave clears the hover on id. The selected plot goes back to selected.
func (o *Overlay) Leave(id string) error {
	if err := o.rendered(id); err != nil {
		return err
	}
	if o.hovered == id {
		o.hovered = ""
	}
	o.restyle()
	return nil
}

// rendered reports whether id is known and has a layer.
func (o *Overlay) rendered(id string) error {
	if _, ok := o.plots[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlot, id)
	}
	if _, ok := o.layers[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRendered, id)
	}
	return nil
}

// Assert sets the external selection. An empty id asserts "no selection".
func (o *Overlay) Assert(id string) {
	o.external = &id
	o.highlight()
}

// Withdraw removes the external assertion; the last click applies again.
func (o *Overlay) Withdraw() {
	o.external = nil
	o.highlight()
}

// SelectedID returns the effective selection, or "" if none.
func (o *Overlay) SelectedID() string {
	id := Resolve(o.local, o.external)
	if _, ok := o.plots[id]; !ok {
		return ""
	}
	return id
}

// Selected returns the effectively selected plot.
func (o *Overlay) Selected() (service.FieldPlot, bool) {
	id := o.SelectedID()
	if id == "" {
		return service.FieldPlot{}, false
	}
	return o.plots[id], true
}

// Hovered returns the hovered plot id, or "".
func (o *Overlay) Hovered() string {
	return o.hovered
}

// KindOf returns the current kind of a rendered layer.
func (o *Overlay) KindOf(id string) (Kind, bool) {
	l, ok := o.layers[id]
	if !ok {
		return "", false
	}
	return l.kind, true
}

// Top returns the plot drawn above all others, or "".
func (o *Overlay) Top() string {
	if len(o.order) == 0 {
		return ""
	}
	return o.order[len(o.order)-1]
}

// Layers returns the rendered layers in draw order.
func (o *Overlay) Layers() []Layer {
	out := make([]Layer, 0, len(o.order))
	for i, id := range o.order {
		l := o.layers[id]
		out = append(out, Layer{
			PlotID:   id,
			Name:     l.plot.DisplayName(),
			Kind:     l.kind,
			Style:    StyleOf(l.kind),
			Order:    i,
			Boundary: append(orb.Ring(nil), l.plot.Boundary...),
		})
	}
	return out
}

// Bound returns the union bound of every rendered layer.
func (o *Overlay) Bound() (orb.Bound, bool) {
	if len(o.order) == 0 {
		return orb.Bound{}, false
	}
	b := o.layers[o.order[0]].plot.Boundary.Bound()
	for _, id := range o.order[1:] {
		b = b.Union(o.layers[id].plot.Boundary.Bound())
	}
	return b, true
}

// FeatureCollection renders the layers as GeoJSON polygons in draw order,
// with the style in the feature properties.
func (o *Overlay) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range o.Layers() {
		f := geojson.NewFeature(orb.Polygon{l.Boundary})
		f.ID = l.PlotID
		f.Properties["id"] = l.PlotID
		f.Properties["name"] = l.Name
		f.Properties["kind"] = string(l.Kind)
		f.Properties["color"] = l.Style.Color
		f.Properties["weight"] = l.Style.Weight
		f.Properties["fillOpacity"] = l.Style.FillOpacity
		f.Properties["order"] = l.Order
		fc.Append(f)
	}
	return fc
}

// highlight restyles every layer and raises the selected one to the top.
func (o *Overlay) highlight() {
	o.restyle()
	if sel := o.SelectedID(); sel != "" {
		o.raise(sel)
	}
}

func (o *Overlay) restyle() {
	sel := o.SelectedID()
	for id, l := range o.layers {
		l.kind = kindFor(id, sel, o.hovered)
	}
}

func (o *Overlay) raise(id string) {
	i := slices.Index(o.order, id)
	if i < 0 || i == len(o.order)-1 {
		return
	}
	o.order = append(slices.Delete(o.order, i, i+1), id)
}
