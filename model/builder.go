// builder.go - Schrittweiser Aufbau von Modellgraphen
//
// Ein Builder haengt Knoten in Bau-Reihenfolge an; diese Reihenfolge ist
// bereits topologisch, da jeder Block nur vorhandene Knoten als Eingabe
// bekommt. Der erste Fehler bleibt bestehen: alle weiteren Aufrufe sind
// wirkungslos und Build gibt ihn zurueck.

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/v2/stacks/arraystack"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ganrec/ganrec/logutil"
	"github.com/ganrec/ganrec/ml"
	"github.com/ganrec/ganrec/ml/nn"
)

var errBuilt = errors.New("builder already built")

// state ist der gemeinsame Zustand aller Scopes eines Builders
type state struct {
	opts options
	init *nn.Initializer

	name   string
	nodes  []*Node
	inputs []*Node
	paths  map[string]struct{}

	err   error
	built bool
}

// Builder baut einen Graphen. In und At liefern Builder fuer
// verschachtelte Scopes, die denselben Graphen fuellen.
type Builder struct {
	s     *state
	scope string
}

// NewBuilder erstellt einen Builder fuer den Graphen name
func NewBuilder(name string, opts ...Option) *Builder {
	o := newOptions(opts)
	s := &state{
		opts:  o,
		init:  nn.NewInitializer(o.seed),
		name:  name,
		paths: make(map[string]struct{}),
	}

	if name == "" || strings.Contains(name, "/") {
		s.err = fmt.Errorf("%w: invalid graph name %q", ml.ErrConfiguration, name)
	}

	return &Builder{s: s, scope: name}
}

// In gibt einen Builder fuer den Unter-Scope name zurueck
func (b *Builder) In(name string) *Builder {
	if name == "" && b.s.err == nil {
		b.s.err = fmt.Errorf("%w: empty scope name in %q", ml.ErrConfiguration, b.scope)
	}
	return &Builder{s: b.s, scope: b.scope + "/" + name}
}

// At gibt einen Builder fuer den Unter-Scope mit strukturellem Index i zurueck
func (b *Builder) At(i int) *Builder {
	return b.In(strconv.Itoa(i))
}

// Err gibt den ersten aufgetretenen Fehler zurueck
func (b *Builder) Err() error {
	return b.s.err
}

// Input deklariert eine Graph-Eingabe mit der Shape dims pro Sample.
// Die Batch-Achse ist nicht Teil von dims.
func (b *Builder) Input(name string, dims ...int) *Node {
	if b.s.err != nil {
		return nil
	}

	if len(dims) == 0 {
		b.s.err = fmt.Errorf("%w: input %q has no dimensions", ml.ErrConfiguration, name)
		return nil
	}
	for _, d := range dims {
		if d <= 0 {
			b.s.err = fmt.Errorf("%w: input %q has invalid shape %v", ml.ErrConfiguration, name, dims)
			return nil
		}
	}

	n := b.add(name, "input", nil, nil, dims)
	if n != nil {
		b.s.inputs = append(b.s.inputs, n)
	}
	return n
}

// Apply baut spec auf den Shapes von inputs und haengt den Block als
// Knoten name an. Ein leerer name verwendet den Scope-Pfad selbst.
func (b *Builder) Apply(name string, spec nn.Spec, inputs ...*Node) *Node {
	if b.s.err != nil {
		return nil
	}

	path := b.path(name)
	shapes := make([][]int, len(inputs))
	for i, in := range inputs {
		if in == nil || in.owner != b.s {
			b.s.err = fmt.Errorf("%w: %s: input %d does not belong to graph %q", ml.ErrConfiguration, path, i, b.s.name)
			return nil
		}
		shapes[i] = in.shape
	}

	layer, shape, err := spec.Build(b.s.init, shapes...)
	if err != nil {
		b.s.err = fmt.Errorf("%s: %w", path, err)
		return nil
	}

	n := b.add(name, spec.Kind(), layer, inputs, shape)
	if n != nil {
		logutil.Trace("block built", "graph", b.s.name, "node", n, "params", n.NumParams())
	}
	return n
}

func (b *Builder) path(name string) string {
	if name == "" {
		return b.scope
	}
	return b.scope + "/" + name
}

func (b *Builder) add(name, kind string, layer nn.Layer, inputs []*Node, shape []int) *Node {
	if b.s.built {
		b.s.err = errBuilt
		return nil
	}

	path := b.path(name)
	if _, ok := b.s.paths[path]; ok {
		b.s.err = fmt.Errorf("%w: duplicate node path %q", ml.ErrConfiguration, path)
		return nil
	}
	b.s.paths[path] = struct{}{}

	n := &Node{
		id:     len(b.s.nodes),
		path:   path,
		kind:   kind,
		layer:  layer,
		inputs: inputs,
		shape:  shape,
		owner:  b.s,
	}
	if layer != nil {
		n.params = nn.ParamsOf(layer)
	}

	b.s.nodes = append(b.s.nodes, n)
	return n
}

// Build schliesst den Bau ab. Knoten, von denen keine Ausgabe abhaengt,
// werden verworfen; Eingaben bleiben Teil der Signatur.
func (b *Builder) Build(outputs ...*Node) (*Graph, error) {
	s := b.s
	if s.err != nil {
		return nil, s.err
	}
	if s.built {
		return nil, errBuilt
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: graph %q has no outputs", ml.ErrConfiguration, s.name)
	}
	if len(s.inputs) == 0 {
		return nil, fmt.Errorf("%w: graph %q has no inputs", ml.ErrConfiguration, s.name)
	}
	for _, out := range outputs {
		if out == nil || out.owner != s {
			return nil, fmt.Errorf("%w: output does not belong to graph %q", ml.ErrConfiguration, s.name)
		}
	}

	reachable := make([]bool, len(s.nodes))
	stack := arraystack.New[*Node]()
	for _, out := range outputs {
		stack.Push(out)
	}
	for !stack.Empty() {
		n, _ := stack.Pop()
		if reachable[n.id] {
			continue
		}
		reachable[n.id] = true
		for _, in := range n.inputs {
			stack.Push(in)
		}
	}

	g := &Graph{
		id:      uuid.New(),
		name:    s.name,
		inputs:  s.inputs,
		outputs: outputs,
		params:  orderedmap.New[string, *nn.Param](),
		logger:  s.opts.logger,
	}

	// Erst pruefen, dann umnummerieren: ein Fehler laesst die Knoten unveraendert
	for _, n := range s.nodes {
		if !reachable[n.id] && !n.IsInput() {
			continue
		}

		for _, p := range n.params {
			key := n.path + "/" + p.Name
			if _, ok := g.params.Get(key); ok {
				return nil, fmt.Errorf("%w: duplicate parameter path %q", ml.ErrConfiguration, key)
			}
			g.params.Set(key, p)
			g.numParams += p.NumElements()
		}
		g.nodes = append(g.nodes, n)
	}

	for _, n := range s.nodes {
		switch {
		case !reachable[n.id] && n.IsInput():
			s.opts.logger.Warn("graph input unused", "graph", s.name, "input", n.path)
		case !reachable[n.id]:
			s.opts.logger.Debug("dropping unreachable node", "graph", s.name, "node", n)
		}
	}
	for i, n := range g.nodes {
		n.id = i
	}

	g.lastUse = make([]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, in := range n.inputs {
			g.lastUse[in.id] = n.id
		}
	}
	for _, out := range outputs {
		g.lastUse[out.id] = len(g.nodes)
	}

	s.built = true
	s.opts.logger.Debug("graph built",
		"graph", g.name,
		"id", g.id,
		"nodes", len(g.nodes),
		"params", g.numParams,
		"seed", s.opts.seed,
	)

	return g, nil
}
