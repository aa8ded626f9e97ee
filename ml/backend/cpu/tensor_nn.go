// tensor_nn.go - Neuronale Netzwerk Operationen
// Enthält: Aktivierungen, Dropout, LayerNorm, Convolution, Pooling, Interpolation

package cpu

import (
	"fmt"
	"math"

	"github.com/ganrec/ganrec/ml"
)

// RELU führt RELU-Aktivierung durch
func (t *Tensor) RELU(ctx ml.Context) ml.Tensor {
	out := t.like(t.shape)
	for i, v := range t.data {
		out.data[i] = max(v, 0)
	}
	return out
}

// LeakyRELU führt Leaky-RELU-Aktivierung mit Steigung alpha für negative Werte durch
func (t *Tensor) LeakyRELU(ctx ml.Context, alpha float32) ml.Tensor {
	out := t.like(t.shape)
	for i, v := range t.data {
		if v < 0 {
			v *= alpha
		}
		out.data[i] = v
	}
	return out
}

// Dropout setzt im Trainingsmodus Elemente mit Wahrscheinlichkeit rate auf Null
// und skaliert die übrigen mit 1/(1-rate). Im Inferenzmodus unverändert.
func (t *Tensor) Dropout(ctx ml.Context, rate float32) ml.Tensor {
	c, ok := ctx.(*Context)
	if !ok || !c.training || rate <= 0 {
		return t
	}

	out := t.like(t.shape)
	keep := 1 / (1 - rate)
	for i, v := range t.data {
		if c.rng.Float32() >= rate {
			out.data[i] = v * keep
		}
	}
	return out
}

// LayerNorm normalisiert über die letzte Achse
func (t *Tensor) LayerNorm(ctx ml.Context, weight, bias ml.Tensor, eps float32) ml.Tensor {
	d := t.shape[len(t.shape)-1]
	out := t.like(t.shape)

	var w, b []float32
	if weight != nil {
		w = weight.(*Tensor).data
	}
	if bias != nil {
		b = bias.(*Tensor).data
	}

	for r := 0; r < len(t.data); r += d {
		row := t.data[r : r+d]

		var mean float64
		for _, v := range row {
			mean += float64(v)
		}
		mean /= float64(d)

		var variance float64
		for _, v := range row {
			diff := float64(v) - mean
			variance += diff * diff
		}
		variance /= float64(d)

		inv := 1 / math.Sqrt(variance+float64(eps))
		dst := out.data[r : r+d]
		for i, v := range row {
			x := float32((float64(v) - mean) * inv)
			if w != nil {
				x *= w[i]
			}
			if b != nil {
				x += b[i]
			}
			dst[i] = x
		}
	}

	return out
}

// dims4 gibt die NHWC-Dimensionen zurück
func (t *Tensor) dims4() (n, h, w, c int) {
	if len(t.shape) != 4 {
		panic(fmt.Errorf("cpu: expected NHWC tensor, got %v", t.shape))
	}
	return t.shape[0], t.shape[1], t.shape[2], t.shape[3]
}

// Conv2D führt eine 2D-Faltung über im2col und gemm durch.
// weight hat das Layout [kh, kw, in, out].
func (t *Tensor) Conv2D(ctx ml.Context, weight ml.Tensor, s0, s1 int, padding ml.Padding) ml.Tensor {
	w := weight.(*Tensor)
	n, h, wd, c := t.dims4()
	kh, kw, ci, f := w.dims4()
	if ci != c {
		panic(fmt.Errorf("cpu: conv2d input channels %d, weight expects %d", c, ci))
	}

	oh, top := ml.ConvOutput(h, kh, s0, padding)
	ow, left := ml.ConvOutput(wd, kw, s1, padding)
	out := t.like([]int{n, oh, ow, f})

	cols := kh * kw * c
	t.b.parallel(n, func(b int) {
		src := t.data[b*h*wd*c : (b+1)*h*wd*c]
		patches := make([]float32, oh*ow*cols)

		for oy := range oh {
			for ox := range ow {
				row := patches[(oy*ow+ox)*cols:]
				for ky := range kh {
					iy := oy*s0 + ky - top
					if iy < 0 || iy >= h {
						continue
					}
					for kx := range kw {
						ix := ox*s1 + kx - left
						if ix < 0 || ix >= wd {
							continue
						}
						copy(row[(ky*kw+kx)*c:(ky*kw+kx+1)*c], src[(iy*wd+ix)*c:(iy*wd+ix+1)*c])
					}
				}
			}
		}

		gemm(oh*ow, cols, f, patches, w.data, out.data[b*oh*ow*f:(b+1)*oh*ow*f])
	})

	return out
}

// ConvTranspose2D führt eine transponierte 2D-Faltung durch (gemm + col2im).
// weight hat das Layout [kh, kw, out, in].
func (t *Tensor) ConvTranspose2D(ctx ml.Context, weight ml.Tensor, s0, s1 int, padding ml.Padding) ml.Tensor {
	w := weight.(*Tensor)
	n, h, wd, c := t.dims4()
	kh, kw, f, ci := w.dims4()
	if ci != c {
		panic(fmt.Errorf("cpu: conv_transpose2d input channels %d, weight expects %d", c, ci))
	}

	oh, top := ml.ConvTransposeOutput(h, kh, s0, padding)
	ow, left := ml.ConvTransposeOutput(wd, kw, s1, padding)
	out := t.like([]int{n, oh, ow, f})

	// wt [in, kh*kw*out]
	span := kh * kw * f
	wt := make([]float32, c*span)
	for ky := range kh {
		for kx := range kw {
			for o := range f {
				for i := range c {
					wt[i*span+(ky*kw+kx)*f+o] = w.data[((ky*kw+kx)*f+o)*c+i]
				}
			}
		}
	}

	t.b.parallel(n, func(b int) {
		src := t.data[b*h*wd*c : (b+1)*h*wd*c]
		cols := make([]float32, h*wd*span)
		gemm(h*wd, c, span, src, wt, cols)

		dst := out.data[b*oh*ow*f : (b+1)*oh*ow*f]
		for iy := range h {
			for ix := range wd {
				col := cols[(iy*wd+ix)*span:]
				for ky := range kh {
					oy := iy*s0 + ky - top
					if oy < 0 || oy >= oh {
						continue
					}
					for kx := range kw {
						ox := ix*s1 + kx - left
						if ox < 0 || ox >= ow {
							continue
						}
						acc := dst[(oy*ow+ox)*f : (oy*ow+ox+1)*f]
						for o, v := range col[(ky*kw+kx)*f : (ky*kw+kx+1)*f] {
							acc[o] += v
						}
					}
				}
			}
		}
	})

	return out
}

// MaxPool2D führt 2D-Max-Pooling durch. Aufgefüllte Randbereiche werden ignoriert.
func (t *Tensor) MaxPool2D(ctx ml.Context, k, s int, padding ml.Padding) ml.Tensor {
	n, h, wd, c := t.dims4()
	oh, top := ml.ConvOutput(h, k, s, padding)
	ow, left := ml.ConvOutput(wd, k, s, padding)
	out := t.like([]int{n, oh, ow, c})

	t.b.parallel(n, func(b int) {
		src := t.data[b*h*wd*c : (b+1)*h*wd*c]
		dst := out.data[b*oh*ow*c : (b+1)*oh*ow*c]
		for oy := range oh {
			for ox := range ow {
				acc := dst[(oy*ow+ox)*c : (oy*ow+ox+1)*c]
				for i := range acc {
					acc[i] = float32(math.Inf(-1))
				}

				for ky := range k {
					iy := oy*s + ky - top
					if iy < 0 || iy >= h {
						continue
					}
					for kx := range k {
						ix := ox*s + kx - left
						if ix < 0 || ix >= wd {
							continue
						}
						for i, v := range src[(iy*wd+ix)*c : (iy*wd+ix+1)*c] {
							acc[i] = max(acc[i], v)
						}
					}
				}
			}
		}
	})

	return out
}

// Interpolate skaliert die räumlichen Achsen auf dims = [n, h, w, c]
func (t *Tensor) Interpolate(ctx ml.Context, dims [4]int, samplingMode ml.SamplingMode) ml.Tensor {
	n, h, wd, c := t.dims4()
	if dims[0] != n || dims[3] != c {
		panic(fmt.Errorf("cpu: interpolate %v to %v changes batch or channels", t.shape, dims))
	}

	oh, ow := dims[1], dims[2]
	out := t.like(dims[:])

	t.b.parallel(n, func(b int) {
		src := t.data[b*h*wd*c : (b+1)*h*wd*c]
		dst := out.data[b*oh*ow*c : (b+1)*oh*ow*c]
		for oy := range oh {
			for ox := range ow {
				acc := dst[(oy*ow+ox)*c : (oy*ow+ox+1)*c]
				switch samplingMode {
				case ml.SamplingModeBilinear:
					bilinear(acc, src, h, wd, c,
						(float64(oy)+0.5)*float64(h)/float64(oh)-0.5,
						(float64(ox)+0.5)*float64(wd)/float64(ow)-0.5)
				default:
					iy, ix := oy*h/oh, ox*wd/ow
					copy(acc, src[(iy*wd+ix)*c:(iy*wd+ix+1)*c])
				}
			}
		}
	})

	return out
}

// bilinear interpoliert an der Position (y, x) mit Halbpixel-Zentren
func bilinear(dst, src []float32, h, w, c int, y, x float64) {
	y = min(max(y, 0), float64(h-1))
	x = min(max(x, 0), float64(w-1))

	y0, x0 := int(y), int(x)
	y1, x1 := min(y0+1, h-1), min(x0+1, w-1)
	fy, fx := float32(y-float64(y0)), float32(x-float64(x0))

	for i := range dst {
		a := src[(y0*w+x0)*c+i]
		b := src[(y0*w+x1)*c+i]
		cc := src[(y1*w+x0)*c+i]
		d := src[(y1*w+x1)*c+i]
		dst[i] = (a*(1-fx)+b*fx)*(1-fy) + (cc*(1-fx)+d*fx)*fy
	}
}
