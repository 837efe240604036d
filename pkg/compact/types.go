// Package compact implements the compact diagram format: a small JSON
// shape used to exchange isometric architecture diagrams with LLM
// providers. It turns untrusted, possibly malformed payloads into
// well-formed diagrams (Normalize) and offers a strict structural
// pre-check for machine-generated input (Validate).
package compact

import "encoding/json"

// Format metadata attached to every normalized diagram.
const (
	MetaFormat  = "compact"
	MetaVersion = "1.0"
)

// DefaultTitle is used when a payload carries no usable title.
const DefaultTitle = "Untitled"

// Item is one diagram node: a named component with a canonical icon.
type Item struct {
	Name        string
	Icon        string
	Description string
}

// Position places an item on the isometric grid. ItemIndex refers to the
// diagram's item list. Within a normalized view each ItemIndex appears at
// most once.
type Position struct {
	ItemIndex int
	X         int
	Y         int
}

// Connection is a directed edge between two items by index. Self-loops
// and duplicates are allowed and pass through normalization unchanged.
type Connection struct {
	From int
	To   int
}

// View is one layout of the diagram: item placements plus edges.
type View struct {
	Positions   []Position
	Connections []Connection
}

// Meta identifies the wire format of a serialized diagram.
type Meta struct {
	Format  string `json:"f"`
	Version string `json:"v"`
}

// Diagram is the canonical normalized structure handed to the rendering
// engine. It is immutable once produced; the engine derives its own
// internal model from it.
type Diagram struct {
	Title string
	Items []Item
	Views []View
	Meta  Meta
}

// wireDiagram is the on-the-wire shape:
//
//	{"t": title, "i": [[name, icon, desc?], ...],
//	 "v": [[[idx,x,y],...], [[from,to],...]], "_": {"f","v"}}
type wireDiagram struct {
	T string       `json:"t"`
	I [][]string   `json:"i"`
	V [][2][][]int `json:"v"`
	M Meta         `json:"_"`
}

// MarshalJSON serializes the diagram in the compact wire format.
func (d Diagram) MarshalJSON() ([]byte, error) {
	wire := wireDiagram{
		T: d.Title,
		I: make([][]string, len(d.Items)),
		V: make([][2][][]int, len(d.Views)),
		M: d.Meta,
	}

	for i := range d.Items {
		item := &d.Items[i]
		if item.Description != "" {
			wire.I[i] = []string{item.Name, item.Icon, item.Description}
		} else {
			wire.I[i] = []string{item.Name, item.Icon}
		}
	}

	for vi := range d.Views {
		view := &d.Views[vi]
		positions := make([][]int, len(view.Positions))
		for pi, p := range view.Positions {
			positions[pi] = []int{p.ItemIndex, p.X, p.Y}
		}
		connections := make([][]int, len(view.Connections))
		for ci, c := range view.Connections {
			connections[ci] = []int{c.From, c.To}
		}
		wire.V[vi] = [2][][]int{positions, connections}
	}

	return json.Marshal(wire)
}
