package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-talhao/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/plots>; rel="plots"`,
		`</api/v1/overlay>; rel="overlay"`,
		`</api/v1/selection>; rel="selection"`,
		`</api/v1/weather>; rel="weather"`,
		`</api/v1/drones>; rel="drones"`,
		`</api/v1/operations>; rel="operations"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="up"`,
	},
	"/api/v1/plots": {
		`</api/v1/plots/{id}>; rel="item"`,
		`</api/v1/overlay>; rel="overlay"`,
	},
	"/api/v1/plots/{id}": {
		`</api/v1/plots>; rel="collection"`,
	},
	"/api/v1/plots/{id}/centroid": {
		`</api/v1/plots>; rel="collection"`,
		`</api/v1/weather>; rel="weather"`,
	},
	"/api/v1/overlay": {
		`</api/v1/overlay/geojson>; rel="alternate"; type="application/geo+json"`,
		`</api/v1/selection>; rel="selection"`,
	},
	"/api/v1/selection": {
		`</api/v1/overlay>; rel="overlay"`,
		`</api/v1/weather>; rel="weather"`,
	},
	"/api/v1/weather": {
		`</api/v1/selection>; rel="selection"`,
	},
	"/api/v1/drones": {
		`</api/v1/operations>; rel="operations"`,
	},
	"/api/v1/operations": {
		`</api/v1/operations/{id}>; rel="item"`,
		`</api/v1/drones>; rel="drones"`,
	},
	"/api/v1/operations/{id}": {
		`</api/v1/operations>; rel="collection"`,
	},
}

// LinkTransformer returns the Huma transformer adding hypermedia links.
func LinkTransformer() huma.Transformer {
	return humastar.LinkTransformer(links)
}
