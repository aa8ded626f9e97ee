// tensor.go - Tensor-Struktur und Basis-Methoden
// Enthält: Tensor struct, Shape, Bytes, Floats, DType, Cast

package cpu

import (
	"encoding/binary"
	"log/slog"
	"math"
	"slices"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/ganrec/ganrec/ml"
)

// Tensor ist ein zeilenweise (row-major) gespeicherter Tensor.
// Die Daten werden nach der Erzeugung nie mehr veraendert.
type Tensor struct {
	b     *Backend
	dtype ml.DType
	shape []int
	data  []float32
}

func newTensor(b *Backend, dtype ml.DType, data []float32, shape []int) *Tensor {
	return &Tensor{b: b, dtype: dtype, shape: slices.Clone(shape), data: data}
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic("cpu: negative dimension")
		}
		n *= d
	}
	return n
}

// LogValue gibt den Tensor als slog-Wert zurück
func (t *Tensor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", t.dtype.String()),
		slog.Any("shape", t.shape),
	)
}

// Dim gibt die Größe einer Dimension zurück. Negative n zählen vom Ende.
func (t *Tensor) Dim(n int) int {
	if n < 0 {
		n += len(t.shape)
	}
	return t.shape[n]
}

// Stride gibt den Stride einer Dimension in Elementen zurück
func (t *Tensor) Stride(n int) int {
	if n < 0 {
		n += len(t.shape)
	}
	return numElements(t.shape[n+1:])
}

// Shape gibt die Form des Tensors zurück
func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

// DType gibt den Datentyp zurück
func (t *Tensor) DType() ml.DType {
	return t.dtype
}

// Floats gibt eine Kopie der Daten als float32 zurück
func (t *Tensor) Floats() []float32 {
	return slices.Clone(t.data)
}

// Bytes kodiert die Daten Little-Endian im eigenen Datentyp
func (t *Tensor) Bytes() []byte {
	switch t.dtype {
	case ml.DTypeF16:
		out := make([]byte, 2*len(t.data))
		for i, v := range t.data {
			binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
		}
		return out
	case ml.DTypeBF16:
		return bfloat16.EncodeFloat32(t.data)
	default:
		out := make([]byte, 4*len(t.data))
		for i, v := range t.data {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	}
}

// Cast konvertiert in einen anderen Datentyp. F16 und BF16 runden die
// Werte auf halbe Genauigkeit, gerechnet wird weiterhin in float32.
func (t *Tensor) Cast(ctx ml.Context, dtype ml.DType) ml.Tensor {
	checkDType(dtype)
	if dtype == t.dtype {
		return t
	}

	data := make([]float32, len(t.data))
	switch dtype {
	case ml.DTypeF16:
		for i, v := range t.data {
			data[i] = float16.Fromfloat32(v).Float32()
		}
	case ml.DTypeBF16:
		data = bfloat16.DecodeFloat32(bfloat16.EncodeFloat32(t.data))
	default:
		copy(data, t.data)
	}

	return newTensor(t.b, dtype, data, t.shape)
}

// like erstellt einen Ergebnis-Tensor mit gleichem Typ und neuer Form
func (t *Tensor) like(shape []int) *Tensor {
	return newTensor(t.b, t.dtype, make([]float32, numElements(shape)), shape)
}
