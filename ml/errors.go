// errors.go - Fehler-Taxonomie fuer Graph-Bau und Auswertung
// Konfigurations- und Aufloesungsfehler entstehen beim Bau, Shape-Fehler beim Aufruf.
package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrConfiguration kennzeichnet ungueltige Hyperparameter (z.B. negative Filterzahl).
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidResolution kennzeichnet Bildgroessen, die nicht zu den Down-/Upsampling-Faktoren passen.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrInvalidSpectralShape kennzeichnet Bildgroessen, die kleiner als das Spektralfenster sind.
	ErrInvalidSpectralShape = errors.New("invalid spectral shape")

	// ErrShapeMismatch kennzeichnet Tensoren, deren Shape nicht zur Deklaration passt.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ShapeMismatchError beschreibt einen Eingabetensor, der nicht zur
// Eingabesignatur eines Graphen passt. Want enthaelt keine Batch-Achse.
type ShapeMismatchError struct {
	Input string
	Want  []int
	Got   []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: input %q: want (N, %s), got %v", ErrShapeMismatch, e.Input, joinDims(e.Want), e.Got)
}

// Is erlaubt errors.Is(err, ErrShapeMismatch).
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

func joinDims(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", ")
}
