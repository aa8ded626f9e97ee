// blocks.go - Normalisierte Bausteine der Generator-Netze
// Enthaelt: DenseNorm, ConvNorm, DeconvNorm
//
// Jeder Block ist eine feste Folge aus Kernschicht, optionaler
// Normalisierung/Dropout und LeakyReLU. Kernel werden aus
// N(0, NormalStddev) gezogen.

package nn

// DenseNorm: Linear (mit Bias) -> Dropout -> [LayerNorm] -> LeakyReLU.
// (..., K) -> (..., Units)
type DenseNorm struct {
	Units     int
	Dropout   float32
	Normalize bool
}

func (DenseNorm) Kind() string { return "dense_norm" }

func (s DenseNorm) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 0, in)
	if err != nil {
		return nil, nil, err
	}
	if err := positive(s.Kind(), "units", s.Units); err != nil {
		return nil, nil, err
	}
	if err := dropoutRate(s.Kind(), s.Dropout); err != nil {
		return nil, nil, err
	}

	specs := []Spec{
		Linear{Units: s.Units, Bias: true, Init: InitNormal},
		Dropout{Rate: s.Dropout},
	}
	if s.Normalize {
		specs = append(specs, LayerNorm{})
	}
	specs = append(specs, Activation{Func: LeakyReLU})

	return chain(init, x, specs...)
}

// ConvNorm: Conv2D (ohne Bias, "same") -> [LayerNorm] -> LeakyReLU.
// (H, W, C) -> (ceil(H/Stride), ceil(W/Stride), Filters)
type ConvNorm struct {
	Filters   int
	Kernel    int
	Stride    int
	Normalize bool
}

func (ConvNorm) Kind() string { return "conv_norm" }

func (s ConvNorm) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}

	specs := []Spec{Conv2D{Filters: s.Filters, Kernel: s.Kernel, Stride: s.Stride, Init: InitNormal}}
	if s.Normalize {
		specs = append(specs, LayerNorm{})
	}
	specs = append(specs, Activation{Func: LeakyReLU})

	return chain(init, x, specs...)
}

// DeconvNorm: ConvTranspose2D (ohne Bias, "same") -> [LayerNorm] -> [Dropout] -> LeakyReLU.
// (H, W, C) -> (H*Stride, W*Stride, Filters)
type DeconvNorm struct {
	Filters   int
	Kernel    int
	Stride    int
	Dropout   float32
	Normalize bool
}

func (DeconvNorm) Kind() string { return "deconv_norm" }

func (s DeconvNorm) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}
	if err := dropoutRate(s.Kind(), s.Dropout); err != nil {
		return nil, nil, err
	}

	specs := []Spec{ConvTranspose2D{Filters: s.Filters, Kernel: s.Kernel, Stride: s.Stride, Init: InitNormal}}
	if s.Normalize {
		specs = append(specs, LayerNorm{})
	}
	if s.Dropout > 0 {
		specs = append(specs, Dropout{Rate: s.Dropout})
	}
	specs = append(specs, Activation{Func: LeakyReLU})

	return chain(init, x, specs...)
}
