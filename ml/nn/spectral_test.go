package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func randomPlane(h, w int) []float64 {
	r := rand.New(rand.NewPCG(1, 2))
	p := make([]float64, h*w)
	for i := range p {
		p[i] = r.NormFloat64()
	}
	return p
}

func TestTransformRoundTrip(t *testing.T) {
	for _, size := range [][2]int{{10, 10}, {12, 10}, {9, 7}, {16, 32}} {
		h, w := size[0], size[1]
		plane := randomPlane(h, w)
		tr := newTransform(h, w)

		got := tr.inverse(tr.forward(plane))
		if diff := cmp.Diff(plane, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%dx%d Round-Trip falsch (-want +got):\n%s", h, w, diff)
		}

		// volles Fenster mit Einheitsverstaerkung verwirft nichts
		s := tr.forward(plane)
		full := s.truncate(max(h, s.cols()), GainUnit, plane)
		if diff := cmp.Diff(s.data, full.data); diff != "" {
			t.Errorf("%dx%d volles Fenster veraendert das Spektrum", h, w)
		}

		got = tr.inverse(full)
		if diff := cmp.Diff(plane, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%dx%d Round-Trip mit vollem Fenster falsch (-want +got):\n%s", h, w, diff)
		}
	}
}

func TestTruncateWindow(t *testing.T) {
	h, w, m := 12, 12, 2
	plane := randomPlane(h, w)
	tr := newTransform(h, w)
	s := tr.forward(plane).truncate(m, GainUnit, plane)

	for ky := range h {
		for kx := range s.cols() {
			kept := (ky < m || ky >= h-m) && kx < m
			if !kept && s.at(ky, kx) != 0 {
				t.Errorf("Mode (%d, %d) = %v, erwartet 0", ky, kx, s.at(ky, kx))
			}
			if kept && s.at(ky, kx) == 0 {
				t.Errorf("Mode (%d, %d) wurde verworfen", ky, kx)
			}
		}
	}
}

func TestSpectralMixForward(t *testing.T) {
	ctx := newContext(t)

	// konstante Ebene c: nur der Gleichanteil c*h*w ist belegt. GainResidual
	// multipliziert ihn mit c, die Ruecktransformation ergibt c*c.
	// Ausgabe: relu(c*c + c)
	h, w := 10, 12
	l, out, err := SpectralMix{}.Build(NewInitializer(0), []int{h, w, 2})
	require.NoError(t, err)
	require.Equal(t, []int{h, w, 2}, out)

	data := make([]float32, 2*h*w*2)
	for i := range data {
		// Kanal 0: 2, Kanal 1: -3; zweites Sample: 0.5 / 1
		switch b, c := i/(h*w*2), i%2; {
		case b == 0 && c == 0:
			data[i] = 2
		case b == 0:
			data[i] = -3
		case c == 0:
			data[i] = 0.5
		default:
			data[i] = 1
		}
	}

	got := l.Forward(ctx, ctx.FromFloats(data, 2, h, w, 2))
	require.Equal(t, []int{2, h, w, 2}, got.Shape())

	want := map[[2]int]float64{
		{0, 0}: 2*2 + 2,
		{0, 1}: 9 - 3,
		{1, 0}: 0.25 + 0.5,
		{1, 1}: 1 + 1,
	}
	for i, v := range got.Floats() {
		b, c := i/(h*w*2), i%2
		if e := want[[2]int{b, c}]; math.Abs(float64(v)-e) > 1e-4 {
			t.Fatalf("Element %d (Sample %d, Kanal %d) = %f, erwartet %f", i, b, c, v, e)
		}
	}
}

func TestSpectralMixUnitGainLowPass(t *testing.T) {
	ctx := newContext(t)

	// negative Konstante: Tiefpass behaelt sie, relu(-1 + -1) = 0
	l, _, err := SpectralMix{Modes: 1, Gain: GainUnit}.Build(NewInitializer(0), []int{4, 4, 1})
	require.NoError(t, err)

	data := make([]float32, 16)
	for i := range data {
		data[i] = -1
	}
	got := l.Forward(ctx, ctx.FromFloats(data, 1, 4, 4, 1)).Floats()
	if diff := cmp.Diff(make([]float32, 16), got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Ausgabe falsch (-want +got):\n%s", diff)
	}
}
