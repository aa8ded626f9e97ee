// graph.go - Gebauter Modellgraph und Vorwaerts-Auswertung
//
// Ein Graph wird nach Builder.Build nie mehr veraendert. Forward haelt
// allen Zustand lokal, daher duerfen beliebig viele Auswertungen
// nebenlaeufig auf demselben Graphen laufen.

package model

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ganrec/ganrec/logutil"
	"github.com/ganrec/ganrec/ml"
	"github.com/ganrec/ganrec/ml/nn"
)

// Graph ist ein unveraenderlicher Berechnungsgraph
type Graph struct {
	id   uuid.UUID
	name string

	// nodes ist topologisch sortiert; Node.ID ist der Index
	nodes   []*Node
	inputs  []*Node
	outputs []*Node

	// lastUse[i] ist der letzte Knoten, der den Wert von i liest
	lastUse []int

	params    *orderedmap.OrderedMap[string, *nn.Param]
	numParams int

	logger *slog.Logger
}

// ID identifiziert diese gebaute Instanz
func (g *Graph) ID() uuid.UUID {
	return g.id
}

// Name ist der Name der Architektur
func (g *Graph) Name() string {
	return g.name
}

// Nodes gibt alle Knoten in topologischer Reihenfolge zurueck
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Inputs gibt die Eingabeknoten in Deklarationsreihenfolge zurueck
func (g *Graph) Inputs() []*Node {
	return slices.Clone(g.inputs)
}

// Outputs gibt die Ausgabeknoten zurueck
func (g *Graph) Outputs() []*Node {
	return slices.Clone(g.outputs)
}

// Params iteriert in Bau-Reihenfolge ueber Pfad und Parameter
func (g *Graph) Params() iter.Seq2[string, *nn.Param] {
	return func(yield func(string, *nn.Param) bool) {
		for pair := g.params.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Param gibt den Parameter unter path zurueck, z.B. "generator/dense/0/kernel"
func (g *Graph) Param(path string) (*nn.Param, bool) {
	return g.params.Get(path)
}

// NumParams gibt die Anzahl aller Parameter-Skalare zurueck
func (g *Graph) NumParams() int {
	return g.numParams
}

// LogValue gibt den Graphen als slog-Wert zurueck
func (g *Graph) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", g.name),
		slog.String("id", g.id.String()),
		slog.Int("nodes", len(g.nodes)),
		slog.Int("params", g.numParams),
	)
}

// Forward wertet den Graphen aus. inputs muessen in Anzahl, Reihenfolge und
// Shape pro Sample der Deklaration entsprechen und dieselbe Batch-Groesse haben.
func (g *Graph) Forward(ctx ml.Context, inputs ...ml.Tensor) ([]ml.Tensor, error) {
	return g.Walk(ctx, nil, inputs...)
}

// Walk ist Forward mit Rueckruf: fn wird fuer jeden Knoten genau einmal in
// topologischer Reihenfolge mit seinem Wert aufgerufen.
func (g *Graph) Walk(ctx ml.Context, fn func(*Node, ml.Tensor), inputs ...ml.Tensor) ([]ml.Tensor, error) {
	if err := g.checkInputs(inputs); err != nil {
		return nil, err
	}

	trace := g.logger.Enabled(context.TODO(), logutil.LevelTrace)

	values := make([]ml.Tensor, len(g.nodes))
	for i, in := range g.inputs {
		values[in.id] = inputs[i]
	}

	args := make([]ml.Tensor, 0, 2)
	for _, n := range g.nodes {
		if !n.IsInput() {
			args = args[:0]
			for _, in := range n.inputs {
				args = append(args, values[in.id])
			}
			values[n.id] = n.layer.Forward(ctx, args...)

			// Zwischenwerte freigeben, sobald der letzte Leser fertig ist
			for _, in := range n.inputs {
				if g.lastUse[in.id] == n.id {
					values[in.id] = nil
				}
			}
		}

		if trace {
			g.logger.Log(context.TODO(), logutil.LevelTrace, "node evaluated", "graph", g.name, "node", n, "value", values[n.id])
		}
		if fn != nil {
			fn(n, values[n.id])
		}
	}

	outputs := make([]ml.Tensor, len(g.outputs))
	for i, out := range g.outputs {
		outputs[i] = values[out.id]
	}
	return outputs, nil
}

func (g *Graph) checkInputs(inputs []ml.Tensor) error {
	if len(inputs) != len(g.inputs) {
		return fmt.Errorf("%w: graph %q expects %d inputs, got %d", ml.ErrShapeMismatch, g.name, len(g.inputs), len(inputs))
	}

	batch := -1
	for i, in := range g.inputs {
		t := inputs[i]
		if t == nil {
			return &ml.ShapeMismatchError{Input: in.path, Want: in.shape}
		}

		shape := t.Shape()
		if len(shape) != len(in.shape)+1 || shape[0] < 1 || !slices.Equal(shape[1:], in.shape) {
			return &ml.ShapeMismatchError{Input: in.path, Want: in.shape, Got: shape}
		}

		if batch < 0 {
			batch = shape[0]
		} else if shape[0] != batch {
			return fmt.Errorf("%w: input %q has batch size %d, other inputs %d", ml.ErrShapeMismatch, in.path, shape[0], batch)
		}
	}

	return nil
}
