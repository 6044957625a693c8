package humastar

import "fmt"

// Action is a hypermedia action available on a resource in its current
// state, rendered as a Link header with method and title parameters:
//
//	</api/v1/selection/talhao-1>; rel="select"; method="PUT"; title="Select plot"
type Action struct {
	Rel    string
	Href   string
	Method string
	Title  string
}

// Actor is implemented by response bodies that expose actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	return h
}
