// MODUL: formats
// ZWECK: Bildformat-Erkennung fuer Sinogramme und Rekonstruktionen
// INPUT: Bild-Bytes oder Format-String
// OUTPUT: ImageFormat, Fehler bei ungueltigem Format
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Magic-Bytes-basierte Erkennung, unterstuetzt TIFF (II/MM) und PNG

package vision

import (
	"bytes"
	"errors"
)

// ImageFormat repraesentiert ein unterstuetztes Bildformat
type ImageFormat string

const (
	FormatTIFF    ImageFormat = "tiff"
	FormatPNG     ImageFormat = "png"
	FormatUnknown ImageFormat = "unknown"
)

// Magic-Byte-Signaturen fuer Bildformate
var (
	magicTIFFLittle = []byte{'I', 'I', 0x2A, 0x00}
	magicTIFFBig    = []byte{'M', 'M', 0x00, 0x2A}
	magicPNG        = []byte{0x89, 0x50, 0x4E, 0x47}
)

// ErrUnknownFormat wird zurueckgegeben wenn Format nicht erkannt wurde
var ErrUnknownFormat = errors.New("unbekanntes Bildformat")

// ErrUnsupportedFormat wird zurueckgegeben bei ungueltigem Format
var ErrUnsupportedFormat = errors.New("nicht unterstuetztes Bildformat")

// DetectFormat erkennt das Bildformat anhand der Magic-Bytes
func DetectFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, magicTIFFLittle), bytes.HasPrefix(data, magicTIFFBig):
		return FormatTIFF
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	default:
		return FormatUnknown
	}
}

// ValidateFormat prueft ob ein Format unterstuetzt wird
func ValidateFormat(format ImageFormat) error {
	switch format {
	case FormatTIFF, FormatPNG:
		return nil
	case FormatUnknown:
		return ErrUnknownFormat
	default:
		return ErrUnsupportedFormat
	}
}

// Extension gibt die Dateiendung fuer ein Format zurueck
func (f ImageFormat) Extension() string {
	switch f {
	case FormatTIFF:
		return ".tiff"
	case FormatPNG:
		return ".png"
	default:
		return ".bin"
	}
}

// String implementiert Stringer Interface
func (f ImageFormat) String() string {
	return string(f)
}
