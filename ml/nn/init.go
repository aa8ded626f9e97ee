// init.go - Parameter-Initialisierung
// Enthaelt: Initializer mit Normal-, Glorot-Uniform- und Konstant-Verteilung

package nn

import (
	"math"
	"math/rand/v2"
	"slices"
)

// NormalStddev ist die Standardabweichung der normalverteilten Kernel
// der normalisierten Bloecke.
const NormalStddev = 0.05

// Init waehlt die Verteilung der Kernel-Gewichte
type Init int

const (
	// InitGlorotUniform: U(-l, l) mit l = sqrt(6 / (fanIn + fanOut))
	InitGlorotUniform Init = iota
	// InitNormal: N(0, NormalStddev)
	InitNormal
)

// Initializer erzeugt Parameter aus einer deterministischen Zufallsquelle.
// Gleicher Seed und gleiche Bau-Reihenfolge ergeben identische Parameter.
// Nicht nebenlaeufig verwendbar.
type Initializer struct {
	rng *rand.Rand
}

// NewInitializer erstellt einen Initializer mit festem Seed
func NewInitializer(seed uint64) *Initializer {
	return &Initializer{rng: rand.New(rand.NewPCG(seed, 0x853c49e6748fea9b))}
}

// Normal zieht jeden Wert aus N(0, stddev)
func (i *Initializer) Normal(name string, stddev float64, shape ...int) *Param {
	p := newParam(name, shape)
	for j := range p.Data {
		p.Data[j] = float32(i.rng.NormFloat64() * stddev)
	}
	return p
}

// GlorotUniform zieht jeden Wert gleichverteilt aus [-l, l)
func (i *Initializer) GlorotUniform(name string, fanIn, fanOut int, shape ...int) *Param {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	p := newParam(name, shape)
	for j := range p.Data {
		p.Data[j] = float32((2*i.rng.Float64() - 1) * limit)
	}
	return p
}

// Constant fuellt den Parameter mit v
func (i *Initializer) Constant(name string, v float32, shape ...int) *Param {
	p := newParam(name, shape)
	for j := range p.Data {
		p.Data[j] = v
	}
	return p
}

func (i *Initializer) kernel(kind Init, name string, fanIn, fanOut int, shape ...int) *Param {
	if kind == InitNormal {
		return i.Normal(name, NormalStddev, shape...)
	}
	return i.GlorotUniform(name, fanIn, fanOut, shape...)
}

func newParam(name string, shape []int) *Param {
	return &Param{Name: name, Shape: slices.Clone(shape), Data: make([]float32, numElements(shape))}
}
