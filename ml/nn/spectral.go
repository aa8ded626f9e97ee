// spectral.go - Fourier-Schicht (SpectralMix)
//
// Die Schicht transformiert jede (Sample, Kanal)-Ebene mit einer reellen
// 2D-FFT, behaelt nur die Eckbloecke niedriger Frequenzen, multipliziert
// sie mit einem Verstaerkungsfaktor und transformiert zurueck. Danach
// folgen Residual-Addition und ReLU.
//
// Komplexe Zwischenergebnisse (spectrum) verlassen dieses Paket nie.

package nn

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ganrec/ganrec/ml"
)

// DefaultModes ist die Kantenlaenge der behaltenen Frequenzbloecke
const DefaultModes = 5

// Gain bestimmt den Faktor, mit dem behaltene Moden multipliziert werden
type Gain int

const (
	// GainResidual multipliziert Mode (ky, kx) mit dem Eingabewert an Position (ky, kx)
	GainResidual Gain = iota
	// GainUnit laesst die behaltenen Moden unveraendert
	GainUnit
)

func (g Gain) String() string {
	if g == GainUnit {
		return "unit"
	}
	return "residual"
}

// SpectralMix ist eine Fourier-Operator-Schicht mit abgeschnittenen Moden.
// Behalten werden die Zeilen [0, Modes) und [H-Modes, H) der Spalten
// [0, Modes) des Halbspektrums. Modes 0 waehlt DefaultModes.
// (H, W, C) -> (H, W, C); H und W muessen mindestens 2*Modes sein.
type SpectralMix struct {
	Modes int
	Gain  Gain
}

func (SpectralMix) Kind() string { return "spectral_mix" }

func (s SpectralMix) Build(init *Initializer, in ...[]int) (Layer, []int, error) {
	x, err := single(s.Kind(), 3, in)
	if err != nil {
		return nil, nil, err
	}

	modes := s.Modes
	switch {
	case modes < 0:
		return nil, nil, configError(s.Kind(), "modes must not be negative, got %d", modes)
	case modes == 0:
		modes = DefaultModes
	}

	if s.Gain != GainResidual && s.Gain != GainUnit {
		return nil, nil, configError(s.Kind(), "unknown gain %d", s.Gain)
	}

	if x[0] < 2*modes || x[1] < 2*modes {
		return nil, nil, fmt.Errorf("%w: %s: %dx%d is smaller than two %d-mode windows",
			ml.ErrInvalidSpectralShape, s.Kind(), x[0], x[1], modes)
	}

	return &spectralMix{modes: modes, gain: s.Gain}, x, nil
}

type spectralMix struct {
	modes int
	gain  Gain
}

func (l *spectralMix) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	x := xs[0]
	n, h, w, c := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)

	src := x.Floats()
	dst := make([]float32, len(src))

	// FFT-Objekte sind nicht nebenlaeufig nutzbar: eins pro Aufruf
	tr := newTransform(h, w)
	plane := make([]float64, h*w)
	for b := range n {
		for ch := range c {
			base := b * h * w * c
			for i := range plane {
				plane[i] = float64(src[base+i*c+ch])
			}

			mixed := tr.inverse(tr.forward(plane).truncate(l.modes, l.gain, plane))
			for i, v := range mixed {
				dst[base+i*c+ch] = float32(v)
			}
		}
	}

	return ctx.FromFloats(dst, n, h, w, c).Add(ctx, x).RELU(ctx)
}

// spectrum ist das Halbspektrum einer reellen h x w Ebene:
// h Zeilen mal w/2+1 Spalten, zeilenweise gespeichert.
type spectrum struct {
	h, w int
	data []complex128
}

func (s *spectrum) cols() int {
	return s.w/2 + 1
}

func (s *spectrum) at(ky, kx int) complex128 {
	return s.data[ky*s.cols()+kx]
}

// truncate gibt ein neues Spektrum zurueck, in dem nur die Zeilen
// [0, m) und [h-m, h) der Spalten [0, m) erhalten sind. residual ist die
// raeumliche Ebene, aus der bei GainResidual die Faktoren stammen.
func (s *spectrum) truncate(m int, gain Gain, residual []float64) *spectrum {
	out := &spectrum{h: s.h, w: s.w, data: make([]complex128, len(s.data))}
	cols := min(m, s.cols())

	keep := func(ky int) {
		for kx := range cols {
			f := complex(1, 0)
			if gain == GainResidual {
				f = complex(residual[ky*s.w+kx], 0)
			}
			out.data[ky*s.cols()+kx] = s.at(ky, kx) * f
		}
	}

	for ky := range min(m, s.h) {
		keep(ky)
	}
	for ky := max(s.h-m, m); ky < s.h; ky++ {
		keep(ky)
	}

	return out
}

// transform ist das 2D-FFT-Paar fuer Ebenen fester Groesse
type transform struct {
	h, w int
	rows *fourier.FFT
	cols *fourier.CmplxFFT

	col []complex128
}

func newTransform(h, w int) *transform {
	return &transform{
		h:    h,
		w:    w,
		rows: fourier.NewFFT(w),
		cols: fourier.NewCmplxFFT(h),
		col:  make([]complex128, h),
	}
}

// forward berechnet das Halbspektrum einer zeilenweise gespeicherten Ebene
func (t *transform) forward(plane []float64) *spectrum {
	s := &spectrum{h: t.h, w: t.w, data: make([]complex128, t.h*(t.w/2+1))}
	cols := s.cols()

	for y := range t.h {
		t.rows.Coefficients(s.data[y*cols:(y+1)*cols], plane[y*t.w:(y+1)*t.w])
	}

	for kx := range cols {
		for y := range t.h {
			t.col[y] = s.data[y*cols+kx]
		}
		t.cols.Coefficients(t.col, t.col)
		for ky := range t.h {
			s.data[ky*cols+kx] = t.col[ky]
		}
	}

	return s
}

// inverse ist die normierte Umkehrung von forward
func (t *transform) inverse(s *spectrum) []float64 {
	cols := s.cols()
	data := make([]complex128, len(s.data))
	copy(data, s.data)

	for kx := range cols {
		for ky := range t.h {
			t.col[ky] = data[ky*cols+kx]
		}
		t.cols.Sequence(t.col, t.col)
		for y := range t.h {
			data[y*cols+kx] = t.col[y]
		}
	}

	plane := make([]float64, t.h*t.w)
	scale := 1 / float64(t.h*t.w)
	for y := range t.h {
		row := plane[y*t.w : (y+1)*t.w]
		t.rows.Sequence(row, data[y*cols:(y+1)*cols])
		for i := range row {
			row[i] *= scale
		}
	}

	return plane
}
