package nn

import (
	"github.com/ganrec/ganrec/ml"
)

// DefaultEpsilon ist das Epsilon von LayerNorm, wenn keins gesetzt ist
const DefaultEpsilon = 1e-3

// LayerNorm normalisiert ueber die letzte Achse mit lernbarem gamma (1) und beta (0).
type LayerNorm struct {
	Eps float32
}

func (LayerNorm) Kind() string { return "layer_norm" }

func (s LayerNorm) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}

	eps := s.Eps
	switch {
	case eps < 0:
		return nil, nil, configError(s.Kind(), "epsilon must not be negative, got %g", eps)
	case eps == 0:
		eps = DefaultEpsilon
	}

	d := x[len(x)-1]
	return &layerNorm{
		Weight: init.Constant("gamma", 1, d),
		Bias:   init.Constant("beta", 0, d),
		eps:    eps,
	}, x, nil
}

type layerNorm struct {
	Weight *Param
	Bias   *Param

	eps float32
}

func (l *layerNorm) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].LayerNorm(ctx, l.Weight.Tensor(ctx), l.Bias.Tensor(ctx), l.eps)
}

func (l *layerNorm) Params() []*Param {
	return []*Param{l.Weight, l.Bias}
}
