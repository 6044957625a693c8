// Package templates renders the HTML fragments streamed to the map page.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"sync"
)

var funcMap = template.FuncMap{
	// dict builds a map from key/value pairs for nested templates.
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	// reading formats an optional measurement, "--" when unavailable.
	"reading": func(v any, unit string) string {
		switch n := v.(type) {
		case *float64:
			if n != nil {
				return fmt.Sprintf("%.1f%s", *n, unit)
			}
		case *int:
			if n != nil {
				return fmt.Sprintf("%d%s", *n, unit)
			}
		case string:
			if n != "" {
				return n + unit
			}
		}
		return "--"
	},
}

// Renderer holds the parsed fragment templates.
type Renderer struct {
	mu        sync.RWMutex
	dir       string
	templates *template.Template
}

// New parses every *.html file in fragmentsDir.
func New(fragmentsDir string) (*Renderer, error) {
	r := &Renderer{dir: fragmentsDir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Render renders a named fragment to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named fragment into buf.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.ExecuteTemplate(buf, name, data)
}

// Reload re-parses the fragments from disk, for template edits in dev.
func (r *Renderer) Reload() error {
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(filepath.Join(r.dir, "*.html"))
	if err != nil {
		return fmt.Errorf("parsing fragments in %s: %w", r.dir, err)
	}
	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()
	return nil
}
