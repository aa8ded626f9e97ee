package nn

import (
	"github.com/ganrec/ganrec/ml"
)

// Linear ist eine voll verbundene Schicht ueber der letzten Achse.
type Linear struct {
	Units int
	Bias  bool
	Init  Init
}

func (Linear) Kind() string { return "linear" }

func (s Linear) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}
	if err := positive(s.Kind(), "units", s.Units); err != nil {
		return nil, nil, err
	}

	k := x[len(x)-1]
	l := &linear{Weight: init.kernel(s.Init, "kernel", k, s.Units, k, s.Units)}
	if s.Bias {
		l.Bias = init.Constant("bias", 0, s.Units)
	}

	x[len(x)-1] = s.Units
	return l, x, nil
}

type linear struct {
	Weight *Param
	Bias   *Param
}

func (l *linear) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	t := xs[0].Matmul(ctx, l.Weight.Tensor(ctx))
	if l.Bias != nil {
		t = t.Add(ctx, l.Bias.Tensor(ctx))
	}
	return t
}

func (l *linear) Params() []*Param {
	if l.Bias == nil {
		return []*Param{l.Weight}
	}
	return []*Param{l.Weight, l.Bias}
}
