// Package debugui collects debug panels from components that implement
// Debuggable and renders them as text or JSON.
package debugui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Debuggable is implemented by components that can describe their live state.
type Debuggable interface {
	RenderDebugUI(p *Panel)
}

type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Panel is the output of one RenderDebugUI call.
type Panel struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Date    string   `json:"date,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
	Rows    []string `json:"rows,omitempty"`
}

func (p *Panel) Field(key string, v any) { p.Fields = append(p.Fields, Field{Key: key, Value: v}) }

// Row adds a free-form line, e.g. one row of the LED grid.
func (p *Panel) Row(s string) { p.Rows = append(p.Rows, s) }

type entry struct {
	name, version, date string
	d                   Debuggable
}

// Registry holds named components in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func NewRegistry() *Registry { return &Registry{} }

// Register adds d under name. version and date describe the component
// revision and may be empty.
func (r *Registry) Register(name, version, date string, d Debuggable) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i] = entry{name, version, date, d}
			return
		}
	}
	r.entries = append(r.entries, entry{name, version, date, d})
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// Panels renders every registered component.
func (r *Registry) Panels() []Panel {
	r.mu.RLock()
	entries := append([]entry(nil), r.entries...)
	r.mu.RUnlock()

	out := make([]Panel, 0, len(entries))
	for _, e := range entries {
		p := Panel{Name: e.name, Version: e.version, Date: e.date}
		e.d.RenderDebugUI(&p)
		out = append(out, p)
	}
	return out
}

// WriteText renders all panels as plain text.
func (r *Registry) WriteText(w io.Writer) error {
	for _, p := range r.Panels() {
		header := p.Name
		if p.Version != "" {
			header += " v" + p.Version
		}
		if p.Date != "" {
			header += " (" + p.Date + ")"
		}
		if _, err := fmt.Fprintf(w, "== %s\n", header); err != nil {
			return err
		}
		for _, f := range p.Fields {
			if _, err := fmt.Fprintf(w, "  %-12s %v\n", f.Key+":", f.Value); err != nil {
				return err
			}
		}
		for _, row := range p.Rows {
			if _, err := fmt.Fprintf(w, "  %s\n", row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) WriteJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(r.Panels())
}
