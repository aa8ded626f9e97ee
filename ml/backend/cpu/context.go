// context.go - Context-Struktur und Tensor-Erzeugung
// Enthaelt: Context struct, Zeros(), FromFloats(), FromBytes(), Training()

package cpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/ganrec/ganrec/ml"
)

// Context ist ein CPU-Berechnungskontext. Im Trainingsmodus haelt er die
// Zufallsquelle fuer Dropout-Masken.
type Context struct {
	b *Backend

	training bool
	rng      *rand.Rand
}

// Training gibt einen abgeleiteten Kontext mit aktivem Dropout zurueck
func (c *Context) Training(seed uint64) ml.Context {
	return &Context{
		b:        c.b,
		training: true,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// IsTraining meldet, ob Dropout aktiv ist
func (c *Context) IsTraining() bool {
	return c.training
}

// Close gibt den Kontext frei
func (c *Context) Close() {}

// Zeros erstellt einen mit Nullen gefuellten Tensor
func (c *Context) Zeros(dtype ml.DType, shape ...int) ml.Tensor {
	checkDType(dtype)
	return newTensor(c.b, dtype, make([]float32, numElements(shape)), shape)
}

// FromFloats kopiert s in einen neuen F32-Tensor
func (c *Context) FromFloats(s []float32, shape ...int) ml.Tensor {
	if len(s) != numElements(shape) {
		panic(fmt.Errorf("cpu: %d values do not fill shape %v", len(s), shape))
	}

	data := make([]float32, len(s))
	copy(data, s)
	return newTensor(c.b, ml.DTypeF32, data, shape)
}

// FromBytes dekodiert Little-Endian-Daten im angegebenen Typ
func (c *Context) FromBytes(dtype ml.DType, s []byte, shape ...int) ml.Tensor {
	n := numElements(shape)
	data := make([]float32, n)

	switch dtype {
	case ml.DTypeF32:
		if len(s) != 4*n {
			panic(fmt.Errorf("cpu: %d bytes do not fill f32 shape %v", len(s), shape))
		}
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(s[4*i:]))
		}
	case ml.DTypeF16:
		if len(s) != 2*n {
			panic(fmt.Errorf("cpu: %d bytes do not fill f16 shape %v", len(s), shape))
		}
		for i := range data {
			data[i] = float16.Frombits(binary.LittleEndian.Uint16(s[2*i:])).Float32()
		}
	case ml.DTypeBF16:
		if len(s) != 2*n {
			panic(fmt.Errorf("cpu: %d bytes do not fill bf16 shape %v", len(s), shape))
		}
		data = bfloat16.DecodeFloat32(s)
	default:
		panic(fmt.Errorf("cpu: unsupported dtype %v", dtype))
	}

	return newTensor(c.b, dtype, data, shape)
}

func checkDType(dtype ml.DType) {
	if dtype != ml.DTypeF32 && dtype != ml.DTypeF16 && dtype != ml.DTypeBF16 {
		panic(fmt.Errorf("cpu: unsupported dtype %v", dtype))
	}
}
