// tensor_matrix.go - Matrix-Operationen
// Enthält: Matmul über gonum blas32

package cpu

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/ganrec/ganrec/ml"
)

// Matmul multipliziert die letzte Achse von t mit einer [K, M]-Matrix.
// Alle führenden Achsen werden als Zeilen behandelt.
func (t *Tensor) Matmul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	w := t2.(*Tensor)
	if len(w.shape) != 2 {
		panic(fmt.Errorf("cpu: matmul weight must be 2-d, got %v", w.shape))
	}

	k, m := w.shape[0], w.shape[1]
	if t.shape[len(t.shape)-1] != k {
		panic(fmt.Errorf("cpu: matmul %v x %v", t.shape, w.shape))
	}

	shape := slices.Clone(t.shape)
	shape[len(shape)-1] = m
	out := t.like(shape)

	rows := len(t.data) / k
	gemm(rows, k, m, t.data, w.data, out.data)
	return out
}

// gemm berechnet c = a * b für zeilenweise gespeicherte Matrizen
// a [rows, k], b [k, m], c [rows, m].
func gemm(rows, k, m int, a, b, c []float32) {
	if rows == 0 || m == 0 {
		return
	}

	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: rows, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: m, Stride: m, Data: b},
		0,
		blas32.General{Rows: rows, Cols: m, Stride: m, Data: c},
	)
}
