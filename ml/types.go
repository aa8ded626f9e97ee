// types.go - Datentypen und Konstanten fuer ML-Operationen
// Dieses Modul definiert grundlegende Typen wie DType, Padding und SamplingMode.
package ml

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
)

func (d DType) String() string {
	switch d {
	case DTypeF32:
		return "f32"
	case DTypeF16:
		return "f16"
	case DTypeBF16:
		return "bf16"
	default:
		return "other"
	}
}

// SamplingMode specifies the interpolation method for tensor resizing.
type SamplingMode int

const (
	SamplingModeNearest SamplingMode = iota
	SamplingModeBilinear
)

// Padding waehlt die Randbehandlung fuer Faltungen und Pooling.
//
// PaddingSame folgt der TensorFlow-Konvention: Ausgabe = ceil(in/stride),
// ein ungerader Rest wird am Ende aufgefuellt.
type Padding int

const (
	PaddingSame Padding = iota
	PaddingValid
)

func (p Padding) String() string {
	if p == PaddingValid {
		return "valid"
	}
	return "same"
}

// ConvOutput berechnet die raeumliche Ausgabegroesse und das fuehrende
// Padding einer Faltung entlang einer Achse.
func ConvOutput(in, kernel, stride int, padding Padding) (out, before int) {
	if padding == PaddingValid {
		return (in-kernel)/stride + 1, 0
	}

	out = (in + stride - 1) / stride
	total := max((out-1)*stride+kernel-in, 0)
	return out, total / 2
}

// ConvTransposeOutput ist das Gegenstueck zu ConvOutput fuer transponierte Faltungen.
func ConvTransposeOutput(in, kernel, stride int, padding Padding) (out, before int) {
	if padding == PaddingValid {
		return (in-1)*stride + kernel, 0
	}

	return in * stride, max(kernel-stride, 0) / 2
}
