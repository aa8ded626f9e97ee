// backend.go - Backend-Interface und Registrierung fuer Tensor-Engines
// Dieses Modul definiert das Backend-Interface und die Backend-Factory-Funktionen.
package ml

import (
	"fmt"
	"runtime"
	"sort"
)

// Backend represents a tensor execution engine (e.g., the pure Go CPU engine).
type Backend interface {
	// Name returns the name the backend was registered under
	Name() string

	// NewContext returns an inference context. Dropout is disabled.
	NewContext() Context

	// Close frees all resources associated with this backend
	Close()
}

// BackendParams controls how the backend executes graphs
type BackendParams struct {
	// NumThreads bounds the number of goroutines a single operation
	// may use. Values <= 0 select runtime.NumCPU().
	NumThreads int
}

// Threads gibt die effektive Thread-Anzahl zurueck
func (p BackendParams) Threads() int {
	if p.NumThreads <= 0 {
		return runtime.NumCPU()
	}
	return p.NumThreads
}

var backends = make(map[string]func(BackendParams) (Backend, error))

// RegisterBackend registers a backend factory function.
func RegisterBackend(name string, f func(BackendParams) (Backend, error)) {
	if _, ok := backends[name]; ok {
		panic("backend: backend already registered")
	}

	backends[name] = f
}

// NewBackend creates a new backend instance by name.
func NewBackend(name string, params BackendParams) (Backend, error) {
	if backend, ok := backends[name]; ok {
		return backend(params)
	}

	return nil, fmt.Errorf("unsupported backend %q", name)
}

// Backends gibt die Namen aller registrierten Backends sortiert zurueck
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
