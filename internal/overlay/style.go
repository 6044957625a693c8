package overlay

// Kind is the visual state of one layer.
type Kind string

const (
	KindBase     Kind = "base"
	KindHovered  Kind = "hovered"
	KindSelected Kind = "selected"
)

// Style is the Leaflet path style for a layer.
type Style struct {
	Color       string  `json:"color" doc:"Stroke color (CSS)" example:"#2d5c32"`
	Weight      int     `json:"weight" doc:"Stroke width in pixels" example:"5"`
	FillOpacity float64 `json:"fillOpacity" doc:"Fill opacity (0-1)" example:"0"`
}

const outlineColor = "#2d5c32"

var styles = map[Kind]Style{
	KindBase:     {Color: outlineColor, Weight: 5, FillOpacity: 0},
	KindHovered:  {Color: outlineColor, Weight: 7, FillOpacity: 0},
	KindSelected: {Color: outlineColor, Weight: 8, FillOpacity: 0},
}

// StyleOf returns the style for a kind.
func StyleOf(k Kind) Style {
	return styles[k]
}

// kindFor applies the precedence selected > hovered > base.
func kindFor(id, selected, hovered string) Kind {
	switch {
	case id != "" && id == selected:
		return KindSelected
	case id != "" && id == hovered:
		return KindHovered
	default:
		return KindBase
	}
}

// Resolve picks the effective selection from the two cells: an external
// assertion, when present, always wins over the last click.
func Resolve(local string, external *string) string {
	if external != nil {
		return *external
	}
	return local
}
