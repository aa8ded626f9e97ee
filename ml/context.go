// context.go - Context und Tensor Interfaces fuer ML-Operationen
// Dieses Modul definiert die Schnittstellen fuer Tensor-Operationen und Compute-Kontexte.
package ml

// Context represents an execution context for tensor operations.
//
// A context is used by one forward evaluation at a time. Training contexts
// carry a random source for dropout and must not be shared between
// concurrent evaluations; inference contexts are stateless.
type Context interface {
	Zeros(dtype DType, shape ...int) Tensor
	FromBytes(dtype DType, s []byte, shape ...int) Tensor
	FromFloats(s []float32, shape ...int) Tensor

	// Training returns a derived context with dropout enabled. The seed
	// makes dropout masks reproducible.
	Training(seed uint64) Context
	// IsTraining reports whether Dropout is active.
	IsTraining() bool

	Close()
}

// Tensor represents a multi-dimensional array with various operations.
//
// Shapes are row-major with the batch axis first; image tensors use NHWC.
// Operations never modify their receiver or arguments.
type Tensor interface {
	Dim(n int) int
	Stride(n int) int

	Shape() []int
	DType() DType
	Cast(ctx Context, dtype DType) Tensor

	Bytes() []byte
	Floats() []float32

	// Add and Mul broadcast like numpy (shapes aligned from the right).
	Add(ctx Context, t2 Tensor) Tensor
	Mul(ctx Context, t2 Tensor) Tensor

	// Matmul multiplies the last axis of t with a [K, M] matrix.
	Matmul(ctx Context, t2 Tensor) Tensor

	// LayerNorm normalizes over the last axis. weight and bias may be nil.
	LayerNorm(ctx Context, weight, bias Tensor, eps float32) Tensor

	// Conv2D expects an HWIO weight [kh, kw, in, out].
	Conv2D(ctx Context, weight Tensor, s0, s1 int, padding Padding) Tensor
	// ConvTranspose2D expects an HWOI weight [kh, kw, out, in].
	ConvTranspose2D(ctx Context, weight Tensor, s0, s1 int, padding Padding) Tensor
	MaxPool2D(ctx Context, k, s int, padding Padding) Tensor
	Interpolate(ctx Context, dims [4]int, samplingMode SamplingMode) Tensor

	RELU(ctx Context) Tensor
	LeakyRELU(ctx Context, alpha float32) Tensor

	// Dropout is the identity unless ctx is a training context.
	Dropout(ctx Context, rate float32) Tensor

	Reshape(ctx Context, shape ...int) Tensor
	Concat(ctx Context, t2 Tensor, dim int) Tensor
}
