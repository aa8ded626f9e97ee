// shape.go - Shape-Bloecke und Verknuepfungen mehrerer Eingaben
// Enthaelt: Flatten, Reshape, Concat, Add, Multiply

package nn

import (
	"slices"

	"github.com/ganrec/ganrec/ml"
)

// Flatten legt alle Achsen eines Samples zu einer zusammen.
type Flatten struct{}

func (Flatten) Kind() string { return "flatten" }

func (s Flatten) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}
	return flatten{}, []int{numElements(x)}, nil
}

type flatten struct{}

func (flatten) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].Reshape(ctx, xs[0].Dim(0), -1)
}

// Reshape bringt ein Sample in die Form Dims (gleiche Elementzahl).
type Reshape struct {
	Dims []int
}

func (Reshape) Kind() string { return "reshape" }

func (s Reshape) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}

	for _, d := range s.Dims {
		if err := positive(s.Kind(), "dimension", d); err != nil {
			return nil, nil, err
		}
	}
	if len(s.Dims) == 0 || numElements(s.Dims) != numElements(x) {
		return nil, nil, configError(s.Kind(), "cannot reshape %v to %v", x, s.Dims)
	}

	return reshape{dims: slices.Clone(s.Dims)}, slices.Clone(s.Dims), nil
}

type reshape struct {
	dims []int
}

func (l reshape) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].Reshape(ctx, append([]int{xs[0].Dim(0)}, l.dims...)...)
}

// Concat verkettet zwei oder mehr Eingaben entlang der letzten Achse
// (bei Bildern: der Kanalachse). Alle anderen Achsen muessen gleich sein.
type Concat struct{}

func (Concat) Kind() string { return "concat" }

func (s Concat) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	if len(in) < 2 {
		return nil, nil, configError(s.Kind(), "expected at least 2 inputs, got %d", len(in))
	}

	out := slices.Clone(in[0])
	if len(out) == 0 {
		return nil, nil, configError(s.Kind(), "cannot concatenate scalars")
	}

	last := len(out) - 1
	for _, x := range in[1:] {
		if len(x) != len(out) || !slices.Equal(x[:last], out[:last]) {
			return nil, nil, configError(s.Kind(), "cannot concatenate %v with %v", in[0], x)
		}
		out[last] += x[last]
	}

	return concat{}, out, nil
}

type concat struct{}

func (concat) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	t := xs[0]
	for _, x := range xs[1:] {
		t = t.Concat(ctx, x, -1)
	}
	return t
}

// Add addiert zwei Eingaben elementweise mit Broadcasting.
type Add struct{}

func (Add) Kind() string { return "add" }

func (s Add) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	out, err := broadcast(s.Kind(), in)
	if err != nil {
		return nil, nil, err
	}
	return add{}, out, nil
}

type add struct{}

func (add) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].Add(ctx, xs[1])
}

// Multiply multipliziert zwei Eingaben elementweise mit Broadcasting.
type Multiply struct{}

func (Multiply) Kind() string { return "multiply" }

func (s Multiply) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	out, err := broadcast(s.Kind(), in)
	if err != nil {
		return nil, nil, err
	}
	return multiply{}, out, nil
}

type multiply struct{}

func (multiply) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].Mul(ctx, xs[1])
}

// broadcast prueft zwei Sample-Shapes gleichen Rangs und gibt die
// gemeinsame Shape zurueck. Achsen der Groesse 1 werden gestreckt.
// Gleicher Rang ist Pflicht, da die Batch-Achse vorne steht.
func broadcast(kind string, in [][]int) ([]int, error) {
	if len(in) != 2 {
		return nil, configError(kind, "expected 2 inputs, got %d", len(in))
	}

	a, b := in[0], in[1]
	if len(a) != len(b) {
		return nil, configError(kind, "rank mismatch %v and %v", a, b)
	}

	out := make([]int, len(a))
	for i := range a {
		switch {
		case a[i] == b[i], b[i] == 1:
			out[i] = a[i]
		case a[i] == 1:
			out[i] = b[i]
		default:
			return nil, configError(kind, "cannot broadcast %v with %v", a, b)
		}
	}
	return out, nil
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
