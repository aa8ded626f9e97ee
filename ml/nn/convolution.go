// convolution.go - Faltungsschichten
// Enthaelt: Conv2D und ConvTranspose2D mit "same"-Padding im NHWC-Layout

package nn

import (
	"github.com/ganrec/ganrec/ml"
)

// Conv2D ist eine 2D-Faltung mit "same"-Padding.
// (H, W, C) -> (ceil(H/Stride), ceil(W/Stride), Filters)
type Conv2D struct {
	Filters    int
	Kernel     int
	Stride     int
	Bias       bool
	Activation ActivationFunc
	Init       Init
}

func (Conv2D) Kind() string { return "conv2d" }

func (s Conv2D) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}
	if err := validateConv(s.Kind(), s.Filters, s.Kernel, s.Stride); err != nil {
		return nil, nil, err
	}

	h, _ := ml.ConvOutput(x[0], s.Kernel, s.Stride, ml.PaddingSame)
	w, _ := ml.ConvOutput(x[1], s.Kernel, s.Stride, ml.PaddingSame)

	c := x[2]
	receptive := s.Kernel * s.Kernel
	l := &conv2d{
		Weight:     init.kernel(s.Init, "kernel", receptive*c, receptive*s.Filters, s.Kernel, s.Kernel, c, s.Filters),
		stride:     s.Stride,
		activation: s.Activation,
	}
	if s.Bias {
		l.Bias = init.Constant("bias", 0, s.Filters)
	}

	return l, []int{h, w, s.Filters}, nil
}

type conv2d struct {
	Weight *Param
	Bias   *Param

	stride     int
	activation ActivationFunc
}

func (l *conv2d) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	t := xs[0].Conv2D(ctx, l.Weight.Tensor(ctx), l.stride, l.stride, ml.PaddingSame)
	if l.Bias != nil {
		t = t.Add(ctx, l.Bias.Tensor(ctx))
	}
	return l.activation.apply(ctx, t, 0)
}

func (l *conv2d) Params() []*Param {
	if l.Bias == nil {
		return []*Param{l.Weight}
	}
	return []*Param{l.Weight, l.Bias}
}

// ConvTranspose2D ist eine transponierte 2D-Faltung mit "same"-Padding.
// (H, W, C) -> (H*Stride, W*Stride, Filters)
type ConvTranspose2D struct {
	Filters int
	Kernel  int
	Stride  int
	Bias    bool
	Init    Init
}

func (ConvTranspose2D) Kind() string { return "conv_transpose2d" }

func (s ConvTranspose2D) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}
	if err := validateConv(s.Kind(), s.Filters, s.Kernel, s.Stride); err != nil {
		return nil, nil, err
	}

	h, _ := ml.ConvTransposeOutput(x[0], s.Kernel, s.Stride, ml.PaddingSame)
	w, _ := ml.ConvTransposeOutput(x[1], s.Kernel, s.Stride, ml.PaddingSame)

	// Kernel-Layout [kh, kw, out, in]
	c := x[2]
	receptive := s.Kernel * s.Kernel
	l := &convTranspose2d{
		Weight: init.kernel(s.Init, "kernel", receptive*s.Filters, receptive*c, s.Kernel, s.Kernel, s.Filters, c),
		stride: s.Stride,
	}
	if s.Bias {
		l.Bias = init.Constant("bias", 0, s.Filters)
	}

	return l, []int{h, w, s.Filters}, nil
}

type convTranspose2d struct {
	Weight *Param
	Bias   *Param

	stride int
}

func (l *convTranspose2d) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	t := xs[0].ConvTranspose2D(ctx, l.Weight.Tensor(ctx), l.stride, l.stride, ml.PaddingSame)
	if l.Bias != nil {
		t = t.Add(ctx, l.Bias.Tensor(ctx))
	}
	return t
}

func (l *convTranspose2d) Params() []*Param {
	if l.Bias == nil {
		return []*Param{l.Weight}
	}
	return []*Param{l.Weight, l.Bias}
}

func validateConv(kind string, filters, kernel, stride int) error {
	if err := positive(kind, "filters", filters); err != nil {
		return err
	}
	if err := positive(kind, "kernel", kernel); err != nil {
		return err
	}
	return positive(kind, "stride", stride)
}
