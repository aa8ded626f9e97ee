// tensor_shape.go - Shape-Operationen für Tensoren
// Enthält: Reshape, Concat

package cpu

import (
	"fmt"
	"slices"

	"github.com/ganrec/ganrec/ml"
)

// Reshape ändert die Form des Tensors ohne Datenkopie.
// Eine Dimension darf -1 sein und wird dann abgeleitet.
func (t *Tensor) Reshape(ctx ml.Context, shape ...int) ml.Tensor {
	shape = slices.Clone(shape)
	if i := slices.Index(shape, -1); i >= 0 {
		shape[i] = 1
		shape[i] = len(t.data) / numElements(shape)
	}

	if numElements(shape) != len(t.data) {
		panic(fmt.Errorf("cpu: cannot reshape %v to %v", t.shape, shape))
	}

	return &Tensor{b: t.b, dtype: t.dtype, shape: shape, data: t.data}
}

// Concat verkettet zwei Tensoren entlang einer Achse.
// Alle anderen Achsen müssen übereinstimmen.
func (t *Tensor) Concat(ctx ml.Context, t2 ml.Tensor, dim int) ml.Tensor {
	other := t2.(*Tensor)
	if dim < 0 {
		dim += len(t.shape)
	}

	if len(t.shape) != len(other.shape) {
		panic(fmt.Errorf("cpu: concat rank mismatch %v and %v", t.shape, other.shape))
	}
	for i := range t.shape {
		if i != dim && t.shape[i] != other.shape[i] {
			panic(fmt.Errorf("cpu: concat shape mismatch %v and %v on axis %d", t.shape, other.shape, dim))
		}
	}

	shape := slices.Clone(t.shape)
	shape[dim] += other.shape[dim]
	out := t.like(shape)

	outer := numElements(t.shape[:dim])
	a := numElements(t.shape[dim:])
	b := numElements(other.shape[dim:])
	for i := range outer {
		dst := out.data[i*(a+b):]
		copy(dst[:a], t.data[i*a:(i+1)*a])
		copy(dst[a:a+b], other.data[i*b:(i+1)*b])
	}

	return out
}
