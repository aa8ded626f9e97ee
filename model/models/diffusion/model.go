// Modul: model.go
// Beschreibung: Zeitkonditioniertes U-Net fuer Diffusionsmodelle
// Hauptstrukturen:
//   - New: Einbettung -> Encoder (4 Bloecke, 3x Pooling) -> MLP-Engpass -> Decoder mit Skips
//   - Block: Residual-Block mit Zeitmodulation (block.go)

package diffusion

import (
	"fmt"

	"github.com/ganrec/ganrec/ml"
	"github.com/ganrec/ganrec/ml/nn"
	"github.com/ganrec/ganrec/model"
)

const (
	// Depth ist die Anzahl der Downsampling-Schritte (Faktor 2 je Schritt)
	Depth = 3

	// EmbeddingUnits ist die Breite der Zeitschritt-Einbettung
	EmbeddingUnits = 192

	// BottleneckUnits ist die Breite der ersten Engpass-Stufe
	BottleneckUnits = 128

	// BottleneckChannels ist die Kanalzahl der zurueckgeformten Engpass-Ausgabe
	BottleneckChannels = 32
)

func init() {
	model.Register("diffusion", func(c model.Config, opts ...model.Option) (*model.Graph, error) {
		return New(c.ImageHeight, c.ImageWidth, c.Outputs, opts...)
	})
}

// New baut das U-Net mit den Eingaben "image" (imgH, imgW, 1) und
// "timestep" (1). Die Ausgabe hat die Form (imgH, imgW, outputs).
// imgH und imgW muessen durch 8 teilbar sein.
//
// Die Einbettung des Zeitschritts ist ein einzelner Knoten; alle Bloecke
// lesen denselben Wert, er wird pro Auswertung genau einmal berechnet.
func New(imgH, imgW, outputs int, opts ...model.Option) (*model.Graph, error) {
	const factor = 1 << Depth
	if imgH%factor != 0 || imgW%factor != 0 {
		return nil, fmt.Errorf("%w: diffusion: %dx%d is not divisible by %d", ml.ErrInvalidResolution, imgH, imgW, factor)
	}

	b := model.NewBuilder("diffusion", opts...)

	image := b.Input("image", imgH, imgW, 1)
	timestep := b.Input("timestep", 1)

	embedding := b.In("embedding")
	emb := embedding.Apply("dense", nn.Linear{Units: EmbeddingUnits, Bias: true}, timestep)
	emb = embedding.Apply("norm", nn.LayerNorm{}, emb)
	emb = embedding.Apply("activation", nn.Activation{Func: nn.ReLU}, emb)

	// Encoder: Skips bei voller, halber, viertel und achtel Aufloesung
	encoder := b.In("encoder")
	skips := make([]*model.Node, 0, Depth+1)
	x := image
	for i := range Depth + 1 {
		stage := encoder.At(i)
		x = Block(stage.In("block"), x, emb)
		skips = append(skips, x)
		if i < Depth {
			x = stage.Apply("pool", nn.MaxPool2D{Size: 2}, x)
		}
	}

	bottleneck := b.In("bottleneck")
	x = bottleneck.Apply("flatten", nn.Flatten{}, x)
	x = bottleneck.Apply("concat", nn.Concat{}, x, emb)
	for i, units := range []int{BottleneckUnits, (imgH / factor) * (imgW / factor) * BottleneckChannels} {
		stage := bottleneck.At(i)
		x = stage.Apply("dense", nn.Linear{Units: units, Bias: true}, x)
		x = stage.Apply("norm", nn.LayerNorm{}, x)
		x = stage.Apply("activation", nn.Activation{Func: nn.ReLU}, x)
	}
	x = bottleneck.Apply("reshape", nn.Reshape{Dims: []int{imgH / factor, imgW / factor, BottleneckChannels}}, x)

	// Decoder: der innerste Skip wird ohne Upsampling angehaengt
	decoder := b.In("decoder")
	for i := range Depth + 1 {
		stage := decoder.At(i)
		x = stage.Apply("concat", nn.Concat{}, x, skips[Depth-i])
		x = Block(stage.In("block"), x, emb)
		if i < Depth {
			x = stage.Apply("upsample", nn.Upsample2D{Size: 2}, x)
		}
	}

	x = b.Apply("output", nn.Conv2D{Filters: outputs, Kernel: 1, Stride: 1, Bias: true}, x)
	return b.Build(x)
}
