package diffusion

import (
	"github.com/ganrec/ganrec/ml/nn"
	"github.com/ganrec/ganrec/model"
)

// Channels ist die Kanalzahl jedes Residual-Blocks
const Channels = 128

// Block haengt einen zeitkonditionierten Residual-Block an x an.
//
//	gate = relu(conv3x3(x)) * reshape(relu(dense(emb)), 1, 1, Channels)
//	out  = relu(layernorm(conv3x3(x) + gate))
//
// Die Ausgabe hat die raeumliche Groesse von x und Channels Kanaele.
// Jeder Ort erhaelt dieselbe kanalweise Modulation aus emb.
func Block(b *model.Builder, x, emb *model.Node) *model.Node {
	gate := b.Apply("gate", nn.Conv2D{Filters: Channels, Kernel: 3, Stride: 1, Bias: true, Activation: nn.ReLU}, x)

	t := b.Apply("time", nn.Linear{Units: Channels, Bias: true}, emb)
	t = b.Apply("time_activation", nn.Activation{Func: nn.ReLU}, t)
	t = b.Apply("time_reshape", nn.Reshape{Dims: []int{1, 1, Channels}}, t)
	gate = b.Apply("modulate", nn.Multiply{}, gate, t)

	out := b.Apply("conv", nn.Conv2D{Filters: Channels, Kernel: 3, Stride: 1, Bias: true}, x)
	out = b.Apply("residual", nn.Add{}, out, gate)
	out = b.Apply("norm", nn.LayerNorm{}, out)
	return b.Apply("activation", nn.Activation{Func: nn.ReLU}, out)
}
