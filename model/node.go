package model

import (
	"log/slog"
	"slices"

	"github.com/ganrec/ganrec/ml/nn"
)

// Node ist ein Knoten eines Graphen: eine Eingabe oder ein angewendeter Block.
type Node struct {
	id   int
	path string
	kind string

	// layer ist nil fuer Eingabeknoten
	layer  nn.Layer
	inputs []*Node
	shape  []int
	params []*nn.Param

	owner *state
}

// ID ist die Position des Knotens in der topologischen Reihenfolge
func (n *Node) ID() int {
	return n.id
}

// Path ist der hierarchische Name, z.B. "generator/conv/1"
func (n *Node) Path() string {
	return n.path
}

// Kind ist der Blocktyp oder "input"
func (n *Node) Kind() string {
	return n.kind
}

// Shape ist die Ausgabe-Shape pro Sample (ohne Batch-Achse)
func (n *Node) Shape() []int {
	return slices.Clone(n.shape)
}

// Inputs gibt die Vorgaengerknoten zurueck
func (n *Node) Inputs() []*Node {
	return slices.Clone(n.inputs)
}

// Params gibt die Parameter des Blocks zurueck
func (n *Node) Params() []*nn.Param {
	return slices.Clone(n.params)
}

// NumParams gibt die Anzahl der Skalare aller Parameter zurueck
func (n *Node) NumParams() int {
	var total int
	for _, p := range n.params {
		total += p.NumElements()
	}
	return total
}

// IsInput meldet, ob der Knoten eine Graph-Eingabe ist
func (n *Node) IsInput() bool {
	return n.layer == nil
}

// LogValue gibt den Knoten als slog-Wert zurueck
func (n *Node) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", n.path),
		slog.String("kind", n.kind),
		slog.Any("shape", n.shape),
	)
}
