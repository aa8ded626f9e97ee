// tensor_test.go - Tests fuer die CPU-Tensor-Engine
// Prueft Faltung, Pooling, Interpolation, Normalisierung und Broadcasting
// gegen handgerechnete Werte.

package cpu

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ganrec/ganrec/ml"
)

func setup(t *testing.T, threads int) ml.Context {
	t.Helper()
	b, err := New(ml.BackendParams{NumThreads: threads})
	if err != nil {
		t.Fatalf("Backend konnte nicht erstellt werden: %v", err)
	}
	t.Cleanup(b.Close)
	return b.NewContext()
}

func ones(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func arange(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i)
	}
	return s
}

var approx = cmpopts.EquateApprox(0, 1e-5)

// ============================================================================
// Faltung
// ============================================================================

func TestConv2D(t *testing.T) {
	cases := []struct {
		name    string
		in      []float32
		inShape []int
		w       []float32
		wShape  []int
		stride  int
		want    []float32
		shape   []int
	}{
		{
			name:    "1x1 skaliert",
			in:      arange(4),
			inShape: []int{1, 2, 2, 1},
			w:       []float32{2},
			wShape:  []int{1, 1, 1, 1},
			stride:  1,
			want:    []float32{0, 2, 4, 6},
			shape:   []int{1, 2, 2, 1},
		},
		{
			name:    "3x3 same summiert Nachbarn",
			in:      ones(9),
			inShape: []int{1, 3, 3, 1},
			w:       ones(9),
			wShape:  []int{3, 3, 1, 1},
			stride:  1,
			want:    []float32{4, 6, 4, 6, 9, 6, 4, 6, 4},
			shape:   []int{1, 3, 3, 1},
		},
		{
			name:    "stride 2 waehlt jedes zweite Pixel",
			in:      arange(16),
			inShape: []int{1, 4, 4, 1},
			w:       []float32{1},
			wShape:  []int{1, 1, 1, 1},
			stride:  2,
			want:    []float32{0, 2, 8, 10},
			shape:   []int{1, 2, 2, 1},
		},
		{
			name:    "Kanaele werden gemischt",
			in:      []float32{1, 2, 3, 4},
			inShape: []int{2, 1, 1, 2},
			// [1, 1, in=2, out=2]
			w:      []float32{1, 10, 100, 1000},
			wShape: []int{1, 1, 2, 2},
			stride: 1,
			want:   []float32{201, 2010, 403, 4030},
			shape:  []int{2, 1, 1, 2},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setup(t, 2)
			x := ctx.FromFloats(tt.in, tt.inShape...)
			w := ctx.FromFloats(tt.w, tt.wShape...)

			out := x.Conv2D(ctx, w, tt.stride, tt.stride, ml.PaddingSame)
			if diff := cmp.Diff(tt.shape, out.Shape()); diff != "" {
				t.Errorf("Shape falsch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, out.Floats(), approx); diff != "" {
				t.Errorf("Werte falsch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvTranspose2D(t *testing.T) {
	ctx := setup(t, 1)

	t.Run("stride 2 verteilt Pixel", func(t *testing.T) {
		x := ctx.FromFloats([]float32{1, 2, 3, 4}, 1, 2, 2, 1)
		w := ctx.FromFloats([]float32{1}, 1, 1, 1, 1)

		out := x.ConvTranspose2D(ctx, w, 2, 2, ml.PaddingSame)
		want := []float32{
			1, 0, 2, 0,
			0, 0, 0, 0,
			3, 0, 4, 0,
			0, 0, 0, 0,
		}
		if diff := cmp.Diff([]int{1, 4, 4, 1}, out.Shape()); diff != "" {
			t.Errorf("Shape falsch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, out.Floats(), approx); diff != "" {
			t.Errorf("Werte falsch (-want +got):\n%s", diff)
		}
	})

	t.Run("stride 1 entspricht Faltung mit symmetrischem Kern", func(t *testing.T) {
		x := ctx.FromFloats(ones(9), 1, 3, 3, 1)
		w := ctx.FromFloats(ones(9), 3, 3, 1, 1)

		got := x.ConvTranspose2D(ctx, w, 1, 1, ml.PaddingSame).Floats()
		want := x.Conv2D(ctx, w, 1, 1, ml.PaddingSame).Floats()
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("Werte falsch (-want +got):\n%s", diff)
		}
	})

	t.Run("Ausgabekanaele", func(t *testing.T) {
		x := ctx.FromFloats([]float32{2}, 1, 1, 1, 1)
		// [1, 1, out=3, in=1]
		w := ctx.FromFloats([]float32{1, 2, 3}, 1, 1, 3, 1)

		out := x.ConvTranspose2D(ctx, w, 1, 1, ml.PaddingSame)
		if diff := cmp.Diff([]float32{2, 4, 6}, out.Floats(), approx); diff != "" {
			t.Errorf("Werte falsch (-want +got):\n%s", diff)
		}
	})
}

// ============================================================================
// Pooling und Interpolation
// ============================================================================

func TestMaxPool2D(t *testing.T) {
	ctx := setup(t, 2)

	out := ctx.FromFloats(arange(16), 1, 4, 4, 1).MaxPool2D(ctx, 2, 2, ml.PaddingSame)
	if diff := cmp.Diff([]float32{5, 7, 13, 15}, out.Floats()); diff != "" {
		t.Errorf("4x4 falsch (-want +got):\n%s", diff)
	}

	// ungerade Groesse: das Auffuellen am Ende wird ignoriert
	out = ctx.FromFloats(arange(9), 1, 3, 3, 1).MaxPool2D(ctx, 2, 2, ml.PaddingSame)
	if diff := cmp.Diff([]int{1, 2, 2, 1}, out.Shape()); diff != "" {
		t.Errorf("3x3 Shape falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{4, 5, 7, 8}, out.Floats()); diff != "" {
		t.Errorf("3x3 falsch (-want +got):\n%s", diff)
	}
}

func TestInterpolateNearest(t *testing.T) {
	ctx := setup(t, 1)

	out := ctx.FromFloats([]float32{1, 2, 3, 4}, 1, 2, 2, 1).
		Interpolate(ctx, [4]int{1, 4, 4, 1}, ml.SamplingModeNearest)
	want := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	if diff := cmp.Diff(want, out.Floats()); diff != "" {
		t.Errorf("Werte falsch (-want +got):\n%s", diff)
	}
}

func TestInterpolateBilinearConstant(t *testing.T) {
	ctx := setup(t, 1)

	out := ctx.FromFloats([]float32{3, 3, 3, 3}, 1, 2, 2, 1).
		Interpolate(ctx, [4]int{1, 3, 5, 1}, ml.SamplingModeBilinear)
	want := []float32{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	if diff := cmp.Diff(want, out.Floats(), approx); diff != "" {
		t.Errorf("Werte falsch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Normalisierung und Aktivierungen
// ============================================================================

func TestLayerNorm(t *testing.T) {
	ctx := setup(t, 1)

	x := ctx.FromFloats([]float32{1, 2, 3, 4, 5, 5, 5, 5}, 2, 4)
	out := x.LayerNorm(ctx, nil, nil, 0).Floats()

	s := float32(1 / math.Sqrt(1.25))
	want := []float32{-1.5 * s, -0.5 * s, 0.5 * s, 1.5 * s}
	if diff := cmp.Diff(want, out[:4], approx); diff != "" {
		t.Errorf("Zeile 0 falsch (-want +got):\n%s", diff)
	}

	// konstante Zeile: Varianz 0, Ergebnis 0 dank eps
	got := ctx.FromFloats([]float32{5, 5, 5, 5}, 1, 4).LayerNorm(ctx, nil, nil, 1e-3).Floats()
	if diff := cmp.Diff([]float32{0, 0, 0, 0}, got, approx); diff != "" {
		t.Errorf("konstante Zeile falsch (-want +got):\n%s", diff)
	}

	w := ctx.FromFloats([]float32{2, 2, 2, 2}, 4)
	b := ctx.FromFloats([]float32{1, 1, 1, 1}, 4)
	got = x.LayerNorm(ctx, w, b, 0).Floats()
	if math.Abs(float64(got[0]-(1-3*s))) > 1e-5 {
		t.Errorf("affine LayerNorm = %f, erwartet %f", got[0], 1-3*s)
	}
}

func TestActivations(t *testing.T) {
	ctx := setup(t, 1)
	x := ctx.FromFloats([]float32{-2, -0.5, 0, 1.5}, 4)

	if diff := cmp.Diff([]float32{0, 0, 0, 1.5}, x.RELU(ctx).Floats()); diff != "" {
		t.Errorf("RELU falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{-0.6, -0.15, 0, 1.5}, x.LeakyRELU(ctx, 0.3).Floats(), approx); diff != "" {
		t.Errorf("LeakyRELU falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{-2, -0.5, 0, 1.5}, x.Floats()); diff != "" {
		t.Errorf("Eingabe wurde veraendert (-want +got):\n%s", diff)
	}
}

func TestDropout(t *testing.T) {
	ctx := setup(t, 1)
	x := ctx.FromFloats(ones(1000), 1000)

	if got := x.Dropout(ctx, 0.5); got != x {
		t.Error("Dropout im Inferenzmodus muss die Identitaet sein")
	}

	a := x.Dropout(ctx.Training(7), 0.5).Floats()
	b := x.Dropout(ctx.Training(7), 0.5).Floats()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("gleicher Seed liefert unterschiedliche Masken (-a +b):\n%s", diff)
	}

	var dropped int
	for _, v := range a {
		switch v {
		case 0:
			dropped++
		case 2:
		default:
			t.Fatalf("unerwarteter Wert %f, erwartet 0 oder 2", v)
		}
	}
	if dropped < 400 || dropped > 600 {
		t.Errorf("%d von 1000 verworfen, erwartet ~500", dropped)
	}
}

// ============================================================================
// Arithmetik und Shapes
// ============================================================================

func TestMatmul(t *testing.T) {
	ctx := setup(t, 1)

	x := ctx.FromFloats([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	w := ctx.FromFloats([]float32{1, 0, 0, 1, 1, 1}, 3, 2)

	out := x.Matmul(ctx, w)
	if diff := cmp.Diff([]int{2, 2}, out.Shape()); diff != "" {
		t.Errorf("Shape falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{4, 5, 10, 11}, out.Floats(), approx); diff != "" {
		t.Errorf("Werte falsch (-want +got):\n%s", diff)
	}
}

func TestBroadcast(t *testing.T) {
	ctx := setup(t, 1)

	x := ctx.FromFloats(arange(6), 1, 2, 3)
	bias := ctx.FromFloats([]float32{10, 20, 30}, 3)
	if diff := cmp.Diff([]float32{10, 21, 32, 13, 24, 35}, x.Add(ctx, bias).Floats()); diff != "" {
		t.Errorf("Add falsch (-want +got):\n%s", diff)
	}

	gate := ctx.FromFloats([]float32{2, 3}, 2, 1, 1)
	out := ctx.FromFloats(ones(3), 1, 1, 3).Mul(ctx, gate)
	if diff := cmp.Diff([]int{2, 1, 3}, out.Shape()); diff != "" {
		t.Errorf("Mul Shape falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{2, 2, 2, 3, 3, 3}, out.Floats()); diff != "" {
		t.Errorf("Mul falsch (-want +got):\n%s", diff)
	}
}

func TestReshapeConcat(t *testing.T) {
	ctx := setup(t, 1)

	x := ctx.FromFloats(arange(6), 2, 3).Reshape(ctx, -1, 1, 3)
	if diff := cmp.Diff([]int{2, 1, 3}, x.Shape()); diff != "" {
		t.Errorf("Reshape falsch (-want +got):\n%s", diff)
	}

	a := ctx.FromFloats([]float32{1, 2}, 2, 1)
	b := ctx.FromFloats([]float32{3, 4, 5, 6}, 2, 2)
	out := a.Concat(ctx, b, -1)
	if diff := cmp.Diff([]float32{1, 3, 4, 2, 5, 6}, out.Floats()); diff != "" {
		t.Errorf("Concat falsch (-want +got):\n%s", diff)
	}
}

func TestF16(t *testing.T) {
	ctx := setup(t, 1)

	x := ctx.FromFloats([]float32{1, 0.5, -2, 1.0009765625}, 4).Cast(ctx, ml.DTypeF16)
	if x.DType() != ml.DTypeF16 {
		t.Fatalf("DType = %v, erwartet f16", x.DType())
	}

	raw := x.Bytes()
	if len(raw) != 8 {
		t.Fatalf("Bytes Laenge = %d, erwartet 8", len(raw))
	}

	back := ctx.FromBytes(ml.DTypeF16, raw, 4)
	if diff := cmp.Diff(x.Floats(), back.Floats()); diff != "" {
		t.Errorf("F16 Round-Trip falsch (-want +got):\n%s", diff)
	}
}

func TestBF16(t *testing.T) {
	ctx := setup(t, 1)

	// exakt darstellbar: 8 Bit Mantisse
	want := []float32{1, 0.5, -2, 3.75, 1.0078125, -0.0009765625}
	x := ctx.FromFloats(want, 2, 3).Cast(ctx, ml.DTypeBF16)
	if x.DType() != ml.DTypeBF16 {
		t.Fatalf("DType = %v, erwartet bf16", x.DType())
	}
	if diff := cmp.Diff(want, x.Floats()); diff != "" {
		t.Errorf("BF16 Cast veraendert darstellbare Werte (-want +got):\n%s", diff)
	}

	raw := x.Bytes()
	if len(raw) != 12 {
		t.Fatalf("Bytes Laenge = %d, erwartet 12", len(raw))
	}

	back := ctx.FromBytes(ml.DTypeBF16, raw, 2, 3)
	if diff := cmp.Diff(want, back.Floats()); diff != "" {
		t.Errorf("BF16 Round-Trip falsch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, back.Shape()); diff != "" {
		t.Errorf("Shape falsch (-want +got):\n%s", diff)
	}

	// 1+2^-10 liegt unterhalb der BF16-Aufloesung
	lossy := ctx.FromFloats([]float32{1.0009765625}, 1).Cast(ctx, ml.DTypeBF16).Floats()
	if lossy[0] != 1 {
		t.Errorf("BF16 Cast = %v, erwartet 1", lossy[0])
	}
}
