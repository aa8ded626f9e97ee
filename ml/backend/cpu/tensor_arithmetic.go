// tensor_arithmetic.go - Arithmetische Operationen auf Tensoren
// Enthält: Add, Mul mit Broadcasting

package cpu

import (
	"fmt"
	"slices"

	"github.com/ganrec/ganrec/ml"
)

// Add addiert zwei Tensoren elementweise
func (t *Tensor) Add(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2.(*Tensor), func(a, b float32) float32 { return a + b })
}

// Mul multipliziert zwei Tensoren elementweise
func (t *Tensor) Mul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.binary(t2.(*Tensor), func(a, b float32) float32 { return a * b })
}

// binary wendet fn elementweise an. Die Formen werden von rechts
// ausgerichtet; Achsen der Größe 1 werden gestreckt.
func (t *Tensor) binary(other *Tensor, fn func(a, b float32) float32) *Tensor {
	if slices.Equal(t.shape, other.shape) {
		out := t.like(t.shape)
		for i := range out.data {
			out.data[i] = fn(t.data[i], other.data[i])
		}
		return out
	}

	shape, err := broadcastShape(t.shape, other.shape)
	if err != nil {
		panic(err)
	}

	out := t.like(shape)
	sa := broadcastStrides(t.shape, shape)
	sb := broadcastStrides(other.shape, shape)

	// Odometer über alle Ausgabeindizes
	idx := make([]int, len(shape))
	var oa, ob int
	for i := range out.data {
		out.data[i] = fn(t.data[oa], other.data[ob])

		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			oa += sa[d]
			ob += sb[d]
			if idx[d] < shape[d] {
				break
			}
			oa -= sa[d] * shape[d]
			ob -= sb[d] * shape[d]
			idx[d] = 0
		}
	}

	return out
}

func broadcastShape(a, b []int) ([]int, error) {
	n := max(len(a), len(b))
	shape := make([]int, n)
	for i := range n {
		da, db := 1, 1
		if j := len(a) - n + i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - n + i; j >= 0 {
			db = b[j]
		}

		switch {
		case da == db, db == 1:
			shape[i] = da
		case da == 1:
			shape[i] = db
		default:
			return nil, fmt.Errorf("cpu: cannot broadcast %v with %v", a, b)
		}
	}
	return shape, nil
}

// broadcastStrides gibt die Strides von shape im Indexraum von out zurück;
// gestreckte Achsen haben Stride 0.
func broadcastStrides(shape, out []int) []int {
	strides := make([]int, len(out))
	offset := len(out) - len(shape)
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] != 1 {
			strides[offset+i] = stride
		}
		stride *= shape[i]
	}
	return strides
}
