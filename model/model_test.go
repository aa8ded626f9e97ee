package model

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ganrec/ganrec/logutil"
	"github.com/ganrec/ganrec/ml"
	_ "github.com/ganrec/ganrec/ml/backend/cpu"
	"github.com/ganrec/ganrec/ml/nn"
)

func newContext(t *testing.T) ml.Context {
	t.Helper()
	b, err := ml.NewBackend("cpu", ml.BackendParams{NumThreads: 2})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b.NewContext()
}

// mlp baut einen kleinen Graphen mit zwei Eingaben:
// out = dense(concat(a, b)) und einen toten Zweig
func mlp(t *testing.T, opts ...Option) *Graph {
	t.Helper()

	b := NewBuilder("mlp", opts...)
	a := b.Input("a", 3)
	c := b.Input("b", 2)

	x := b.Apply("concat", nn.Concat{}, a, c)
	hidden := b.In("hidden")
	for i := range 2 {
		x = hidden.At(i).Apply("", nn.DenseNorm{Units: 4, Normalize: true}, x)
	}
	b.Apply("unused", nn.Linear{Units: 7}, x)
	x = b.Apply("out", nn.Linear{Units: 1, Bias: true}, x)

	g, err := b.Build(x)
	require.NoError(t, err)
	return g
}

func TestBuilderPaths(t *testing.T) {
	g := mlp(t)

	var paths []string
	for _, n := range g.Nodes() {
		paths = append(paths, n.Path())
	}

	want := []string{"mlp/a", "mlp/b", "mlp/concat", "mlp/hidden/0", "mlp/hidden/1", "mlp/out"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("Knoten falsch (-want +got):\n%s", diff)
	}

	for i, n := range g.Nodes() {
		if n.ID() != i {
			t.Errorf("Knoten %s: ID = %d, erwartet %d", n.Path(), n.ID(), i)
		}
	}

	var params []string
	for path := range g.Params() {
		params = append(params, path)
	}
	wantParams := []string{
		"mlp/hidden/0/kernel", "mlp/hidden/0/bias", "mlp/hidden/0/gamma", "mlp/hidden/0/beta",
		"mlp/hidden/1/kernel", "mlp/hidden/1/bias", "mlp/hidden/1/gamma", "mlp/hidden/1/beta",
		"mlp/out/kernel", "mlp/out/bias",
	}
	if diff := cmp.Diff(wantParams, params); diff != "" {
		t.Errorf("Parameter falsch (-want +got):\n%s", diff)
	}

	// 5*4+4+4+4 + 4*4+4+4+4 + 4+1
	if g.NumParams() != 65 {
		t.Errorf("NumParams = %d, erwartet 65", g.NumParams())
	}

	p, ok := g.Param("mlp/out/kernel")
	if !ok || !slices.Equal(p.Shape, []int{4, 1}) {
		t.Errorf("Param(mlp/out/kernel) = %v, %v", p, ok)
	}
	if _, ok := g.Param("mlp/unused/kernel"); ok {
		t.Error("Parameter eines toten Zweigs darf nicht registriert sein")
	}
}

func TestBuilderErrors(t *testing.T) {
	t.Run("doppelter Pfad", func(t *testing.T) {
		b := NewBuilder("g")
		x := b.Input("x", 4)
		b.Apply("dense", nn.Linear{Units: 2}, x)
		y := b.Apply("dense", nn.Linear{Units: 2}, x)
		if y != nil {
			t.Error("Apply nach Fehler muss nil liefern")
		}

		_, err := b.Build(x)
		if !errors.Is(err, ml.ErrConfiguration) {
			t.Fatalf("Fehler = %v, erwartet ErrConfiguration", err)
		}
	})

	t.Run("erster Fehler bleibt", func(t *testing.T) {
		b := NewBuilder("g")
		x := b.Input("x", 8, 8, 1)
		b.Apply("spectral", nn.SpectralMix{}, x)
		b.Apply("conv", nn.Conv2D{Filters: -1, Kernel: 3, Stride: 1}, x)

		g, err := b.Build(x)
		if g != nil {
			t.Error("bei Fehler darf kein Graph entstehen")
		}
		if !errors.Is(err, ml.ErrInvalidSpectralShape) {
			t.Fatalf("Fehler = %v, erwartet ErrInvalidSpectralShape", err)
		}
	})

	t.Run("fremder Knoten", func(t *testing.T) {
		other := NewBuilder("other").Input("x", 4)

		b := NewBuilder("g")
		b.Input("x", 4)
		b.Apply("dense", nn.Linear{Units: 2}, other)
		if err := b.Err(); !errors.Is(err, ml.ErrConfiguration) {
			t.Fatalf("Fehler = %v, erwartet ErrConfiguration", err)
		}
	})

	t.Run("ungueltige Eingabe", func(t *testing.T) {
		b := NewBuilder("g")
		b.Input("x", 4, 0)
		if err := b.Err(); !errors.Is(err, ml.ErrConfiguration) {
			t.Fatalf("Fehler = %v, erwartet ErrConfiguration", err)
		}
	})

	t.Run("zweimal bauen", func(t *testing.T) {
		b := NewBuilder("g")
		x := b.Input("x", 4)
		_, err := b.Build(x)
		require.NoError(t, err)

		if _, err := b.Build(x); err == nil {
			t.Error("zweites Build muss fehlschlagen")
		}
	})
}

// twinKernel baut einen Layer mit zwei gleichnamigen Parametern
type twinKernel struct{}

func (twinKernel) Kind() string { return "twin_kernel" }

func (twinKernel) Build(init *nn.Initializer, in ...[]int) (nn.Layer, []int, error) {
	return twinLayer{init.Constant("kernel", 1, 2), init.Constant("kernel", 2, 2)}, in[0], nil
}

type twinLayer []*nn.Param

func (l twinLayer) Params() []*nn.Param { return l }

func (twinLayer) Forward(_ ml.Context, xs ...ml.Tensor) ml.Tensor { return xs[0] }

func TestBuildDuplicateParamKeepsNodes(t *testing.T) {
	b := NewBuilder("g")
	x := b.Input("x", 2)
	b.Apply("dead", nn.Linear{Units: 3}, x)
	y := b.Apply("twin", twinKernel{}, x)

	_, err := b.Build(y)
	if !errors.Is(err, ml.ErrConfiguration) {
		t.Fatalf("Fehler = %v, erwartet ErrConfiguration", err)
	}

	// der tote Knoten behaelt seine Position, die IDs bleiben unveraendert
	if x.ID() != 0 || y.ID() != 2 {
		t.Errorf("IDs nach fehlgeschlagenem Build: x=%d, twin=%d, erwartet 0 und 2", x.ID(), y.ID())
	}

	_, err = b.Build(y)
	if !errors.Is(err, ml.ErrConfiguration) {
		t.Fatalf("zweites Build: Fehler = %v, erwartet ErrConfiguration", err)
	}
}

func TestForwardShapeMismatch(t *testing.T) {
	ctx := newContext(t)
	g := mlp(t)

	cases := []struct {
		name   string
		inputs []ml.Tensor
	}{
		{"zu wenige Eingaben", []ml.Tensor{ctx.Zeros(ml.DTypeF32, 2, 3)}},
		{"falsche Breite", []ml.Tensor{ctx.Zeros(ml.DTypeF32, 2, 4), ctx.Zeros(ml.DTypeF32, 2, 2)}},
		{"ohne Batch-Achse", []ml.Tensor{ctx.Zeros(ml.DTypeF32, 3), ctx.Zeros(ml.DTypeF32, 2)}},
		{"Batch ungleich", []ml.Tensor{ctx.Zeros(ml.DTypeF32, 2, 3), ctx.Zeros(ml.DTypeF32, 3, 2)}},
		{"nil", []ml.Tensor{ctx.Zeros(ml.DTypeF32, 2, 3), nil}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			out, err := g.Forward(ctx, tt.inputs...)
			if !errors.Is(err, ml.ErrShapeMismatch) {
				t.Fatalf("Fehler = %v, erwartet ErrShapeMismatch", err)
			}
			if out != nil {
				t.Error("bei Fehler darf keine Ausgabe entstehen")
			}
		})
	}

	var sm *ml.ShapeMismatchError
	_, err := g.Forward(ctx, ctx.Zeros(ml.DTypeF32, 2, 4), ctx.Zeros(ml.DTypeF32, 2, 2))
	require.ErrorAs(t, err, &sm)
	if sm.Input != "mlp/a" {
		t.Errorf("Input = %q, erwartet mlp/a", sm.Input)
	}
}

func TestForwardDeterministic(t *testing.T) {
	ctx := newContext(t)

	a := ctx.FromFloats([]float32{1, 2, 3, -1, -2, -3}, 2, 3)
	c := ctx.FromFloats([]float32{0.5, 0.25, -0.5, 4}, 2, 2)

	g1 := mlp(t, WithSeed(11))
	g2 := mlp(t, WithSeed(11))
	if g1.ID() == g2.ID() {
		t.Error("zwei gebaute Graphen haben dieselbe ID")
	}

	out1, err := g1.Forward(ctx, a, c)
	require.NoError(t, err)
	out2, err := g2.Forward(ctx, a, c)
	require.NoError(t, err)
	again, err := g1.Forward(ctx, a, c)
	require.NoError(t, err)

	if diff := cmp.Diff(out1[0].Floats(), out2[0].Floats()); diff != "" {
		t.Errorf("gleicher Seed, unterschiedliche Ausgabe (-g1 +g2):\n%s", diff)
	}
	if diff := cmp.Diff(out1[0].Floats(), again[0].Floats()); diff != "" {
		t.Errorf("wiederholte Auswertung weicht ab (-erste +zweite):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1}, out1[0].Shape()); diff != "" {
		t.Errorf("Ausgabe-Shape falsch (-want +got):\n%s", diff)
	}

	other := mlp(t, WithSeed(12))
	out3, err := other.Forward(ctx, a, c)
	require.NoError(t, err)
	if cmp.Equal(out1[0].Floats(), out3[0].Floats()) {
		t.Error("anderer Seed liefert identische Ausgabe")
	}
}

func TestForwardConcurrent(t *testing.T) {
	ctx := newContext(t)
	g := mlp(t, WithSeed(3))

	a := ctx.FromFloats([]float32{1, 2, 3}, 1, 3)
	c := ctx.FromFloats([]float32{4, 5}, 1, 2)

	want, err := g.Forward(ctx, a, c)
	require.NoError(t, err)

	var eg errgroup.Group
	results := make([][]float32, 16)
	for i := range results {
		eg.Go(func() error {
			out, err := g.Forward(ctx, a, c)
			if err != nil {
				return err
			}
			results[i] = out[0].Floats()
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for i, got := range results {
		if diff := cmp.Diff(want[0].Floats(), got); diff != "" {
			t.Errorf("Auswertung %d weicht ab (-want +got):\n%s", i, diff)
		}
	}
}

func TestWalk(t *testing.T) {
	ctx := newContext(t)
	g := mlp(t)

	var visited []string
	out, err := g.Walk(ctx, func(n *Node, v ml.Tensor) {
		visited = append(visited, n.Path())

		want := append([]int{1}, n.Shape()...)
		if diff := cmp.Diff(want, v.Shape()); diff != "" {
			t.Errorf("%s: Shape falsch (-want +got):\n%s", n.Path(), diff)
		}
	}, ctx.Zeros(ml.DTypeF32, 1, 3), ctx.Zeros(ml.DTypeF32, 1, 2))
	require.NoError(t, err)
	require.Len(t, out, 1)

	var want []string
	for _, n := range g.Nodes() {
		want = append(want, n.Path())
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("Reihenfolge falsch (-want +got):\n%s", diff)
	}
}

func TestWalkTrace(t *testing.T) {
	ctx := newContext(t)

	var buf bytes.Buffer
	g := mlp(t, WithLogger(logutil.NewLogger(&buf, logutil.LevelTrace)))

	_, err := g.Forward(ctx, ctx.Zeros(ml.DTypeF32, 1, 3), ctx.Zeros(ml.DTypeF32, 1, 2))
	require.NoError(t, err)

	if !bytes.Contains(buf.Bytes(), []byte("node.path=mlp/hidden/1")) {
		t.Errorf("Trace ohne Knotenpfad:\n%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("graph built")) {
		t.Errorf("Debug-Meldung zum Bau fehlt:\n%s", buf.String())
	}
}

func TestApplyTrace(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	slog.SetDefault(logutil.NewLogger(&buf, logutil.LevelTrace))

	mlp(t)

	out := buf.String()
	for _, want := range []string{"msg=\"block built\"", "node.path=mlp/hidden/0", "node.kind=dense_norm", "params=32", "source=builder.go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Trace ohne %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "node.path=mlp/a") {
		t.Errorf("Eingaben duerfen nicht als Block gemeldet werden:\n%s", out)
	}
}

func TestRegistry(t *testing.T) {
	Register("test-mlp", func(c Config, opts ...Option) (*Graph, error) {
		b := NewBuilder("test", opts...)
		x := b.Input("x", c.ImageWidth)
		return b.Build(b.Apply("dense", nn.Linear{Units: c.Outputs}, x))
	})
	t.Cleanup(func() { delete(models, "test-mlp") })

	if !slices.Contains(Architectures(), "test-mlp") {
		t.Fatalf("Architectures() = %v", Architectures())
	}

	g, err := New("test-mlp", Config{ImageWidth: 5, Outputs: 2})
	require.NoError(t, err)
	if diff := cmp.Diff([]int{2}, g.Outputs()[0].Shape()); diff != "" {
		t.Errorf("Ausgabe-Shape falsch (-want +got):\n%s", diff)
	}

	if _, err := New("gibt-es-nicht", DefaultConfig()); !errors.Is(err, ErrUnsupportedModel) {
		t.Errorf("Fehler = %v, erwartet ErrUnsupportedModel", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("doppelte Registrierung muss paniken")
		}
	}()
	Register("test-mlp", nil)
}
