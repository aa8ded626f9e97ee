// backend.go - Backend-Struktur und Basis-Methoden
// Enthält: Backend struct, init(), New(), Close(), parallele Ausführung

package cpu

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ganrec/ganrec/ml"
)

func init() {
	ml.RegisterBackend("cpu", New)
}

// Backend ist die reine Go-Implementierung der Tensor-Engine.
// Tensoren liegen als zusammenhängende float32-Slices im Speicher.
type Backend struct {
	// numThreads begrenzt die Goroutinen pro Operation
	numThreads int
}

// New erstellt ein CPU-Backend
func New(params ml.BackendParams) (ml.Backend, error) {
	b := &Backend{numThreads: params.Threads()}
	slog.Debug("cpu backend", "threads", b.numThreads)
	return b, nil
}

// Name gibt den Registrierungsnamen zurück
func (b *Backend) Name() string {
	return "cpu"
}

// NewContext erstellt einen Inferenz-Kontext
func (b *Backend) NewContext() ml.Context {
	return &Context{b: b}
}

// Close gibt Ressourcen frei (keine bei der CPU-Engine)
func (b *Backend) Close() {}

// parallel führt fn für alle i in [0, n) aus, höchstens numThreads gleichzeitig.
// Jeder Index muss disjunkte Ausgabebereiche schreiben.
func (b *Backend) parallel(n int, fn func(i int)) {
	if n == 1 || b.numThreads == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(b.numThreads)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	g.Wait() //nolint:errcheck
}
