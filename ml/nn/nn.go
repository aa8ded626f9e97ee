// Package nn enthaelt die Bausteine der Modellgraphen.
//
// Ein Spec ist eine typisierte Block-Beschreibung (Hyperparameter). Build
// prueft die Beschreibung gegen die Eingabe-Shapes, erzeugt die Parameter
// und liefert einen unveraenderlichen Layer sowie die Ausgabe-Shape.
//
// Alle Shapes in diesem Paket sind Shapes pro Sample, also ohne Batch-Achse.
package nn

import (
	"fmt"
	"slices"

	"github.com/ganrec/ganrec/ml"
)

// Layer ist ein gebauter Block. Forward veraendert weder den Layer noch
// seine Eingaben und darf nebenlaeufig aufgerufen werden.
type Layer interface {
	Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor
}

// Spec beschreibt einen Block vor dem Bau.
type Spec interface {
	// Kind ist der Blocktyp, z.B. "conv2d"
	Kind() string

	// Build validiert die Konfiguration gegen die Eingabe-Shapes und
	// erzeugt den Layer. Fehler wrappen ml.ErrConfiguration,
	// ml.ErrInvalidResolution oder ml.ErrInvalidSpectralShape.
	Build(init *Initializer, in ...[]int) (Layer, []int, error)
}

// Param ist ein benannter, zur Bauzeit initialisierter Parametertensor.
// Die Daten werden waehrend der Auswertung nur gelesen.
type Param struct {
	Name  string
	Shape []int
	Data  []float32
}

// Tensor materialisiert den Parameter im Kontext
func (p *Param) Tensor(ctx ml.Context) ml.Tensor {
	return ctx.FromFloats(p.Data, p.Shape...)
}

// NumElements gibt die Anzahl der Skalare zurueck
func (p *Param) NumElements() int {
	return len(p.Data)
}

// Parameterized wird von Layern mit Parametern implementiert.
type Parameterized interface {
	Params() []*Param
}

// ParamsOf gibt die Parameter eines Layers zurueck (nil ohne Parameter)
func ParamsOf(l Layer) []*Param {
	if p, ok := l.(Parameterized); ok {
		return p.Params()
	}
	return nil
}

// configError wrappt ml.ErrConfiguration mit dem Blocktyp
func configError(kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ml.ErrConfiguration, kind, fmt.Sprintf(format, args...))
}

// single prueft, dass genau eine Eingabe mit dem erwarteten Rang vorliegt.
// rank 0 akzeptiert jeden Rang >= 1.
func single(kind string, rank int, in [][]int) ([]int, error) {
	if len(in) != 1 {
		return nil, configError(kind, "expected 1 input, got %d", len(in))
	}

	x := in[0]
	switch {
	case rank > 0 && len(x) != rank:
		return nil, configError(kind, "expected rank %d input, got %v", rank, x)
	case len(x) == 0:
		return nil, configError(kind, "expected non-scalar input")
	}

	for _, d := range x {
		if d <= 0 {
			return nil, configError(kind, "invalid input shape %v", x)
		}
	}

	return slices.Clone(x), nil
}

func positive(kind, name string, v int) error {
	if v <= 0 {
		return configError(kind, "%s must be positive, got %d", name, v)
	}
	return nil
}

func dropoutRate(kind string, rate float32) error {
	if rate < 0 || rate >= 1 {
		return configError(kind, "dropout must be in [0, 1), got %g", rate)
	}
	return nil
}

// sequential wendet Layer nacheinander an
type sequential struct {
	layers []Layer
}

// chain baut specs hintereinander ab der Eingabe-Shape in
func chain(init *Initializer, in []int, specs ...Spec) (Layer, []int, error) {
	s := &sequential{layers: make([]Layer, 0, len(specs))}
	for _, spec := range specs {
		l, out, err := spec.Build(init, in)
		if err != nil {
			return nil, nil, err
		}
		s.layers = append(s.layers, l)
		in = out
	}
	return s, in, nil
}

func (s *sequential) Forward(ctx ml.Context, xs ...ml.Tensor) ml.Tensor {
	t := xs[0]
	for _, l := range s.layers {
		t = l.Forward(ctx, t)
	}
	return t
}

func (s *sequential) Params() []*Param {
	var params []*Param
	for _, l := range s.layers {
		params = append(params, ParamsOf(l)...)
	}
	return params
}
