// activation.go - Aktivierungen und Dropout

package nn

import (
	"github.com/ganrec/ganrec/ml"
)

// LeakyAlpha ist die Standard-Steigung von LeakyReLU fuer negative Werte
const LeakyAlpha = 0.3

// ActivationFunc waehlt eine elementweise Nichtlinearitaet
type ActivationFunc int

const (
	Identity ActivationFunc = iota
	ReLU
	LeakyReLU
)

func (f ActivationFunc) String() string {
	switch f {
	case ReLU:
		return "relu"
	case LeakyReLU:
		return "leaky_relu"
	default:
		return "identity"
	}
}

func (f ActivationFunc) apply(ctx ml.Context, t ml.Tensor, alpha float32) ml.Tensor {
	switch f {
	case ReLU:
		return t.RELU(ctx)
	case LeakyReLU:
		if alpha == 0 {
			alpha = LeakyAlpha
		}
		return t.LeakyRELU(ctx, alpha)
	default:
		return t
	}
}

// Activation ist eine eigenstaendige Aktivierungsschicht.
// Alpha 0 waehlt LeakyAlpha.
type Activation struct {
	Func  ActivationFunc
	Alpha float32
}

func (s Activation) Kind() string { return s.Func.String() }

func (s Activation) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}
	if s.Alpha < 0 {
		return nil, nil, configError(s.Kind(), "alpha must not be negative, got %g", s.Alpha)
	}
	return activation(s), x, nil
}

type activation Activation

func (l activation) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return l.Func.apply(ctx, xs[0], l.Alpha)
}

// Dropout verwirft im Trainingsmodus Elemente mit Wahrscheinlichkeit Rate.
// Im Inferenzmodus ist die Schicht die Identitaet.
type Dropout struct {
	Rate float32
}

func (Dropout) Kind() string { return "dropout" }

func (s Dropout) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}
	if err := dropoutRate(s.Kind(), s.Rate); err != nil {
		return nil, nil, err
	}
	return dropout(s), x, nil
}

type dropout Dropout

func (l dropout) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	if l.Rate == 0 || !ctx.IsTraining() {
		return xs[0]
	}
	return xs[0].Dropout(ctx, l.Rate)
}
