package model

import (
	"log/slog"

	"github.com/ganrec/ganrec/envconfig"
)

// Option konfiguriert den Graph-Bau
type Option func(*options)

type options struct {
	seed   uint64
	logger *slog.Logger
}

// WithSeed setzt den Seed der Parameter-Initialisierung.
// Ohne Option gilt GANREC_SEED.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger setzt den Logger fuer Bau und Auswertung
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{seed: envconfig.Seed(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
