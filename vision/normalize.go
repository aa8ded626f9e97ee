// MODUL: normalize
// ZWECK: Phasen-Normalisierung und Tensor-Konvertierung fuer die Netze
// INPUT: Image-Ebenen, Ausgabe-Tensoren (N, H, W, C)
// OUTPUT: NHWC-Tensoren bzw. Image-Ebenen je Batch-Eintrag
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: ml (Tensor-Interface)
// HINWEISE: Alle Netze erwarten einen Kanal (C = 1) als letzte Achse

package vision

import (
	"errors"
	"fmt"

	"github.com/ganrec/ganrec/ml"
)

// ErrSizeMismatch wird zurueckgegeben wenn Bilder eines Batches verschieden gross sind
var ErrSizeMismatch = errors.New("bilder haben unterschiedliche groesse")

// NormalizePhase skaliert die Ebene linear auf [0,1] (Minimum -> 0,
// Maximum -> 1). Eine konstante Ebene wird zu 0.
func NormalizePhase(img *Image) *Image {
	out := &Image{
		Pix:    make([]float32, len(img.Pix)),
		Width:  img.Width,
		Height: img.Height,
		Format: img.Format,
	}
	if len(img.Pix) == 0 {
		return out
	}

	lo, hi := img.Pix[0], img.Pix[0]
	for _, v := range img.Pix[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}

	scale := 1 / (hi - lo)
	for i, v := range img.Pix {
		out.Pix[i] = (v - lo) * scale
	}
	return out
}

// ToTensor stapelt die Bilder zu einem Tensor (N, H, W, 1)
func ToTensor(ctx ml.Context, imgs ...*Image) (ml.Tensor, error) {
	if len(imgs) == 0 {
		return nil, errors.New("keine bilder")
	}

	h, w := imgs[0].Height, imgs[0].Width
	data := make([]float32, 0, len(imgs)*h*w)
	for i, img := range imgs {
		if img.Height != h || img.Width != w {
			return nil, fmt.Errorf("%w: bild %d ist %dx%d, erwartet %dx%d", ErrSizeMismatch, i, img.Width, img.Height, w, h)
		}
		data = append(data, img.Pix...)
	}

	return ctx.FromFloats(data, len(imgs), h, w, 1), nil
}

// FromTensor liest Kanal channel jedes Batch-Eintrags eines Tensors
// (N, H, W, C) als Bild aus
func FromTensor(t ml.Tensor, channel int) ([]*Image, error) {
	shape := t.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("tensor muss 4 Achsen haben, hat %v", shape)
	}

	n, h, w, c := shape[0], shape[1], shape[2], shape[3]
	if channel < 0 || channel >= c {
		return nil, fmt.Errorf("kanal %d ausserhalb von [0, %d)", channel, c)
	}

	data := t.Floats()
	imgs := make([]*Image, n)
	for b := range n {
		img := NewImage(w, h)
		for i := range h * w {
			img.Pix[i] = data[(b*h*w+i)*c+channel]
		}
		imgs[b] = img
	}
	return imgs, nil
}
