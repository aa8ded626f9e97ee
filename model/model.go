// Package model - Modellgraphen und Architektur-Registry
//
// Dieses Paket baut aus nn-Bausteinen unveraenderliche Berechnungsgraphen
// und verwaltet die registrierten Architekturen.
//
// Hauptkomponenten:
// - Builder: Baut einen Graphen Knoten fuer Knoten in benannten Scopes
// - Graph: Gebauter, unveraenderlicher DAG mit Forward-Auswertung
// - Register: Registriert Architektur-Konstruktoren
// - New: Baut eine registrierte Architektur

package model

import (
	"errors"
	"fmt"
	"sort"
)

// Fehler-Definitionen
var (
	ErrUnsupportedModel = errors.New("model not supported")
)

// Config enthaelt die statische Konfiguration einer Architektur.
// Jede Architektur liest nur die Felder, die sie braucht.
type Config struct {
	// ImageHeight und ImageWidth sind die Eingabegroesse. Beim
	// Diskriminator entsprechen sie Winkeln und Pixeln des Sinogramms.
	ImageHeight int
	ImageWidth  int

	// Filters und Kernel konfigurieren die Faltungsstufen des Generators
	Filters int
	Kernel  int

	// Dropout ist die Rate der Dense-Stufen des Generators
	Dropout float32

	// Outputs ist die Anzahl der Ausgabekanaele
	Outputs int
}

// DefaultConfig gibt die Standard-Konfiguration fuer 64x64-Bilder zurueck
func DefaultConfig() Config {
	return Config{
		ImageHeight: 64,
		ImageWidth:  64,
		Filters:     32,
		Kernel:      3,
		Dropout:     0.25,
		Outputs:     1,
	}
}

// Constructor baut eine Architektur aus einer Konfiguration
type Constructor func(Config, ...Option) (*Graph, error)

// models speichert registrierte Architektur-Konstruktoren
var models = make(map[string]Constructor)

// Register registriert einen Konstruktor fuer eine Architektur
func Register(name string, f Constructor) {
	if _, ok := models[name]; ok {
		panic("model: model already registered")
	}

	models[name] = f
}

// New baut die Architektur name
func New(name string, c Config, opts ...Option) (*Graph, error) {
	f, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, name)
	}

	return f(c, opts...)
}

// Architectures gibt die Namen aller registrierten Architekturen sortiert zurueck
func Architectures() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
