// Package fno baut den spektralen Generator (Fourier Neural Operator):
// vier SpectralMix-Stufen direkt auf der Eingabe, ohne Dense- oder
// Faltungsstufen.
package fno

import (
	"github.com/ganrec/ganrec/ml/nn"
	"github.com/ganrec/ganrec/model"
)

// Stages ist die Anzahl der SpectralMix-Stufen
const Stages = 4

func init() {
	model.Register("fno", func(c model.Config, opts ...model.Option) (*model.Graph, error) {
		return New(c.ImageHeight, c.ImageWidth, opts...)
	})
}

// New baut den Graphen fuer Eingabe "image" (imgH, imgW, 1).
// imgH und imgW muessen mindestens 2*nn.DefaultModes sein.
func New(imgH, imgW int, opts ...model.Option) (*model.Graph, error) {
	b := model.NewBuilder("fno", opts...)

	x := b.Input("image", imgH, imgW, 1)
	spectral := b.In("spectral")
	for i := range Stages {
		x = spectral.At(i).Apply("", nn.SpectralMix{Modes: nn.DefaultModes, Gain: nn.GainResidual}, x)
	}

	return b.Build(x)
}
