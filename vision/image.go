// MODUL: image
// ZWECK: Laden, Zuschneiden und Speichern einkanaliger Messbilder
// INPUT: Dateipfad, Bytes oder io.Reader (TIFF, PNG)
// OUTPUT: Image mit float32-Ebene im Bereich [0,1]
// NEBENEFFEKTE: Dateisystem-Zugriff bei LoadImage und SaveTIFF
// ABHAENGIGKEITEN: golang.org/x/image/tiff, golang.org/x/image/draw (extern), image/png
// HINWEISE: Farbbilder werden nach Graustufen (16 Bit) konvertiert.
//           Gleitkomma-TIFFs (SampleFormat 3) werden nicht gelesen, SaveTIFF
//           quantisiert auf 16 Bit im Bereich [0,1].

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	// Standard-Decoder registrieren
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Image ist eine einkanalige Ebene in Zeilen-Reihenfolge (Pix[y*Width+x])
type Image struct {
	Pix    []float32
	Width  int
	Height int
	Format ImageFormat
}

// NewImage erzeugt ein leeres Bild der Groesse width x height
func NewImage(width, height int) *Image {
	return &Image{
		Pix:    make([]float32, width*height),
		Width:  width,
		Height: height,
		Format: FormatTIFF,
	}
}

// At gibt den Wert an Position (x, y) zurueck
func (img *Image) At(x, y int) float32 {
	return img.Pix[y*img.Width+x]
}

// LoadImage laedt ein Bild von einem Dateipfad
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datei lesen fehlgeschlagen: %w", err)
	}
	return LoadImageFromBytes(data)
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten
func LoadImageFromBytes(data []byte) (*Image, error) {
	format := DetectFormat(data)
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		var unsupported tiff.UnsupportedError
		if errors.As(err, &unsupported) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("bild dekodieren fehlgeschlagen: %w", err)
	}

	out := fromGray(toGray16(img))
	out.Format = format
	return out, nil
}

// DecodeImage dekodiert ein Bild aus einem io.Reader
func DecodeImage(reader io.Reader) (*Image, error) {
	// Erst Daten puffern fuer Format-Erkennung
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("daten lesen fehlgeschlagen: %w", err)
	}
	return LoadImageFromBytes(data)
}

// toGray16 konvertiert ein beliebiges image.Image zu *image.Gray16
func toGray16(img image.Image) *image.Gray16 {
	if g, ok := img.(*image.Gray16); ok {
		return g
	}

	bounds := img.Bounds()
	g := image.NewGray16(bounds)
	draw.Draw(g, bounds, img, bounds.Min, draw.Src)
	return g
}

func fromGray(g *image.Gray16) *Image {
	bounds := g.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Pix[idx] = float32(g.Gray16At(x, y).Y) / 0xFFFF
			idx++
		}
	}
	return out
}

// toGray quantisiert die Ebene auf 16 Bit; Werte ausserhalb [0,1] werden begrenzt
func (img *Image) toGray() *image.Gray16 {
	g := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for i, v := range img.Pix {
		v = min(max(v, 0), 1)
		g.SetGray16(i%img.Width, i/img.Width, color.Gray16{Y: uint16(v*0xFFFF + 0.5)})
	}
	return g
}

// ResizeImage skaliert ein Bild bilinear auf die angegebene Groesse
func ResizeImage(img *Image, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ungueltige Groesse: %dx%d", width, height)
	}

	src := img.toGray()
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := fromGray(dst)
	out.Format = img.Format
	return out, nil
}

// CenterCrop schneidet einen zentrierten Bereich aus
func CenterCrop(img *Image, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ungueltige Groesse: %dx%d", width, height)
	}
	if width > img.Width || height > img.Height {
		return nil, fmt.Errorf("crop groesser als bild: %dx%d > %dx%d", width, height, img.Width, img.Height)
	}

	offsetX := (img.Width - width) / 2
	offsetY := (img.Height - height) / 2

	out := NewImage(width, height)
	out.Format = img.Format
	for y := range height {
		row := (offsetY+y)*img.Width + offsetX
		copy(out.Pix[y*width:(y+1)*width], img.Pix[row:row+width])
	}
	return out, nil
}

// EncodeTIFF schreibt das Bild als 16-Bit-Graustufen-TIFF (Deflate)
func EncodeTIFF(w io.Writer, img *Image) error {
	return tiff.Encode(w, img.toGray(), &tiff.Options{Compression: tiff.Deflate})
}

// SaveTIFF schreibt das Bild nach path
func SaveTIFF(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("datei anlegen fehlgeschlagen: %w", err)
	}

	if err := EncodeTIFF(f, img); err != nil {
		f.Close()
		return fmt.Errorf("tiff schreiben fehlgeschlagen: %w", err)
	}
	return f.Close()
}
