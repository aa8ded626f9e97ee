// Modul: model.go
// Beschreibung: Generator-Netz fuer die Rekonstruktion aus Rohdaten
// Hauptstrukturen:
//   - New: Baut den Graphen Dense-Stapel -> Reshape -> Conv-Stapel -> Deconv-Stapel
//   - Units: Breite der verdeckten Dense-Stufen

package generator

import (
	"github.com/ganrec/ganrec/ml/nn"
	"github.com/ganrec/ganrec/model"
)

// Units ist die Breite der drei verdeckten Dense-Stufen
const Units = 128

func init() {
	model.Register("generator", func(c model.Config, opts ...model.Option) (*model.Graph, error) {
		return New(c.ImageHeight, c.ImageWidth, c.Filters, c.Kernel, c.Dropout, c.Outputs, opts...)
	})
}

// New baut den Generator. Eingabe "image" (imgH, imgW, 1), Ausgabe
// (imgW, imgW, outputs): die Dense-Stufen bilden immer auf ein Quadrat
// der Kantenlaenge imgW ab.
func New(imgH, imgW, filters, kernel int, dropout float32, outputs int, opts ...model.Option) (*model.Graph, error) {
	b := model.NewBuilder("generator", opts...)

	x := b.Input("image", imgH, imgW, 1)
	x = b.Apply("flatten", nn.Flatten{}, x)

	x = stack(b.In("dense"), x,
		nn.DenseNorm{Units: Units, Dropout: dropout},
		nn.DenseNorm{Units: Units, Dropout: dropout},
		nn.DenseNorm{Units: Units, Dropout: dropout},
		nn.DenseNorm{Units: imgW * imgW},
	)

	x = b.Apply("reshape", nn.Reshape{Dims: []int{imgW, imgW, 1}}, x)

	x = stack(b.In("conv"), x,
		nn.ConvNorm{Filters: filters, Kernel: kernel + 2, Stride: 1},
		nn.ConvNorm{Filters: filters, Kernel: kernel + 2, Stride: 1},
		nn.ConvNorm{Filters: filters, Kernel: kernel, Stride: 1},
	)

	x = stack(b.In("deconv"), x,
		nn.DeconvNorm{Filters: filters, Kernel: kernel + 2, Stride: 1},
		nn.DeconvNorm{Filters: filters, Kernel: kernel + 2, Stride: 1},
		nn.DeconvNorm{Filters: filters, Kernel: kernel, Stride: 1},
	)

	x = b.Apply("output", nn.ConvNorm{Filters: outputs, Kernel: 3, Stride: 1}, x)
	return b.Build(x)
}

// stack wendet specs nacheinander an; Stufe i erhaelt den Pfad scope/i
func stack(b *model.Builder, x *model.Node, specs ...nn.Spec) *model.Node {
	for i, spec := range specs {
		x = b.At(i).Apply("", spec, x)
	}
	return x
}
