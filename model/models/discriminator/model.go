// Modul: model.go
// Beschreibung: Diskriminator fuer Sinogramme
// Hauptstrukturen:
//   - New: Vier Faltungsstufen (stride 2 + stride 1) -> Flatten -> Dense(256) -> Dense(128)
//   - Embedding: Laenge des Ausgabevektors

package discriminator

import (
	"github.com/ganrec/ganrec/ml/nn"
	"github.com/ganrec/ganrec/model"
)

// Embedding ist die Laenge des Ausgabevektors (rohe Logits, kein Sigmoid)
const Embedding = 128

// Dropout ist die feste Rate nach jeder Faltungsstufe
const Dropout = 0.2

// stages: Filter und Kernelgroesse je Stufe
var stages = []struct{ filters, kernel int }{
	{16, 5},
	{32, 5},
	{64, 3},
	{128, 3},
}

func init() {
	model.Register("discriminator", func(c model.Config, opts ...model.Option) (*model.Graph, error) {
		return New(c.ImageHeight, c.ImageWidth, opts...)
	})
}

// New baut den Diskriminator fuer Eingabe "sinogram" (numAngles, numPixels, 1).
// Die Ausgabe hat unabhaengig von der Eingabegroesse die Laenge Embedding.
func New(numAngles, numPixels int, opts ...model.Option) (*model.Graph, error) {
	b := model.NewBuilder("discriminator", opts...)

	x := b.Input("sinogram", numAngles, numPixels, 1)

	conv := b.In("conv")
	for i, s := range stages {
		stage := conv.At(i)
		x = stage.Apply("down", nn.Conv2D{Filters: s.filters, Kernel: s.kernel, Stride: 2, Bias: true}, x)
		x = stage.Apply("refine", nn.Conv2D{Filters: s.filters, Kernel: s.kernel, Stride: 1, Bias: true}, x)
		x = stage.Apply("activation", nn.Activation{Func: nn.LeakyReLU}, x)
		x = stage.Apply("dropout", nn.Dropout{Rate: Dropout}, x)
	}

	x = b.Apply("flatten", nn.Flatten{}, x)
	x = b.Apply("dense", nn.Linear{Units: 256, Bias: true}, x)
	x = b.Apply("embedding", nn.Linear{Units: Embedding, Bias: true}, x)

	return b.Build(x)
}
