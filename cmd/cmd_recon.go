// cmd_recon.go - Rekonstruktion eines Bildes mit frisch initialisierten Parametern
// Hauptfunktionen: ReconHandler, writeDump
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ganrec/ganrec/ml"
	"github.com/ganrec/ganrec/model"
	"github.com/ganrec/ganrec/model/models/diffusion"
	"github.com/ganrec/ganrec/vision"
)

// ReconHandler - Laedt IMAGE, fuehrt einen Forward-Pass aus und schreibt Kanal 0 als TIFF
func ReconHandler(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	arch, _ := cmd.Flags().GetString("arch")
	timestep, _ := cmd.Flags().GetFloat32("timestep")
	size, _ := cmd.Flags().GetInt("size")
	dumpPath, _ := cmd.Flags().GetString("dump")
	dumpType, _ := cmd.Flags().GetString("dump-dtype")

	if arch == "discriminator" {
		return errors.New("recon: use 'ganrec score' for the discriminator")
	}

	dtype, err := parseDType(dumpType)
	if err != nil {
		return err
	}

	c, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	seed, err := seedFromFlags(cmd)
	if err != nil {
		return err
	}

	img, err := loadInput(args[0], size)
	if err != nil {
		return err
	}

	if arch == "diffusion" {
		img, err = cropToMultiple(img, 1<<diffusion.Depth)
		if err != nil {
			return err
		}
	}

	c.ImageHeight, c.ImageWidth = img.Height, img.Width
	g, err := model.New(arch, c, model.WithSeed(seed))
	if err != nil {
		return err
	}

	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := b.NewContext()
	x, err := vision.ToTensor(ctx, img)
	if err != nil {
		return err
	}

	inputs := []ml.Tensor{x}
	if len(g.Inputs()) == 2 {
		inputs = append(inputs, ctx.FromFloats([]float32{timestep}, 1, 1))
	}

	start := time.Now()
	out, err := g.Forward(ctx, inputs...)
	if err != nil {
		return err
	}
	slog.Info("reconstruction finished", "arch", arch, "graph", g.ID(), "shape", out[0].Shape(), "running_time", time.Since(start))

	recs, err := vision.FromTensor(out[0], 0)
	if err != nil {
		return err
	}

	rec := vision.NormalizePhase(recs[0])
	if err := vision.SaveTIFF(output, rec); err != nil {
		return err
	}

	if dumpPath != "" {
		if err := writeDump(ctx, dumpPath, out[0], dtype); err != nil {
			return err
		}
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", output, rec.Width, rec.Height)
	}
	return nil
}

// loadInput - Laedt und normalisiert das Eingabebild, optional skaliert
func loadInput(path string, size int) (*vision.Image, error) {
	img, err := vision.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if size > 0 {
		img, err = vision.ResizeImage(img, size, size)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("input loaded", "path", path, "format", img.Format, "width", img.Width, "height", img.Height)
	return vision.NormalizePhase(img), nil
}

// cropToMultiple - Schneidet zentriert auf Vielfache von m zu
func cropToMultiple(img *vision.Image, m int) (*vision.Image, error) {
	w, h := img.Width-img.Width%m, img.Height-img.Height%m
	if w == img.Width && h == img.Height {
		return img, nil
	}
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d is smaller than %d", ml.ErrInvalidResolution, img.Width, img.Height, m)
	}

	slog.Warn("cropping input", "from", fmt.Sprintf("%dx%d", img.Width, img.Height), "to", fmt.Sprintf("%dx%d", w, h))
	return vision.CenterCrop(img, w, h)
}

func parseDType(s string) (ml.DType, error) {
	switch s {
	case "f32":
		return ml.DTypeF32, nil
	case "f16":
		return ml.DTypeF16, nil
	case "bf16":
		return ml.DTypeBF16, nil
	default:
		return ml.DTypeOther, fmt.Errorf("unsupported --dump-dtype %q (want f32, f16 or bf16)", s)
	}
}

// writeDump - Schreibt die Rohbytes des Tensors (little endian) nach path
func writeDump(ctx ml.Context, path string, t ml.Tensor, dtype ml.DType) error {
	if t.DType() != dtype {
		t = t.Cast(ctx, dtype)
	}

	if err := os.WriteFile(path, t.Bytes(), 0o644); err != nil {
		return err
	}

	slog.Debug("output dumped", "path", path, "dtype", dtype, "shape", t.Shape())
	return nil
}
