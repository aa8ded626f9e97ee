// pooling.go - Raeumliches Down- und Upsampling
// Enthaelt: MaxPool2D ("same"-Padding), Upsample2D (naechster Nachbar)

package nn

import (
	"github.com/ganrec/ganrec/ml"
)

// MaxPool2D verkleinert um den Faktor Size (Fenster = Schritt = Size).
type MaxPool2D struct {
	Size int
}

func (MaxPool2D) Kind() string { return "max_pool2d" }

func (s MaxPool2D) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}
	if err := positive(s.Kind(), "size", s.Size); err != nil {
		return nil, nil, err
	}

	h, _ := ml.ConvOutput(x[0], s.Size, s.Size, ml.PaddingSame)
	w, _ := ml.ConvOutput(x[1], s.Size, s.Size, ml.PaddingSame)
	return maxPool2d(s), []int{h, w, x[2]}, nil
}

type maxPool2d MaxPool2D

func (l maxPool2d) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	return xs[0].MaxPool2D(ctx, l.Size, l.Size, ml.PaddingSame)
}

// Upsample2D vergroessert um den Faktor Size durch Pixelwiederholung.
type Upsample2D struct {
	Size int
}

func (Upsample2D) Kind() string { return "upsample2d" }

func (s Upsample2D) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}
	if err := positive(s.Kind(), "size", s.Size); err != nil {
		return nil, nil, err
	}

	return upsample2d(s), []int{x[0] * s.Size, x[1] * s.Size, x[2]}, nil
}

type upsample2d Upsample2D

func (l upsample2d) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	x := xs[0]
	dims := [4]int{x.Dim(0), x.Dim(1) * l.Size, x.Dim(2) * l.Size, x.Dim(3)}
	return x.Interpolate(ctx, dims, ml.SamplingModeNearest)
}
