// cmd_score.go - Diskriminator-Einbettung eines Sinogramms
// Hauptfunktionen: ScoreHandler
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganrec/ganrec/ml"
	"github.com/ganrec/ganrec/model"
	"github.com/ganrec/ganrec/vision"
)

// ScoreHandler - Fuehrt den Diskriminator auf IMAGE aus und gibt die Logits aus
func ScoreHandler(cmd *cobra.Command, args []string) error {
	seed, err := seedFromFlags(cmd)
	if err != nil {
		return err
	}

	img, err := loadInput(args[0], 0)
	if err != nil {
		return err
	}

	c := model.DefaultConfig()
	c.ImageHeight, c.ImageWidth = img.Height, img.Width
	g, err := model.New("discriminator", c, model.WithSeed(seed))
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

	out, err := g.Forward(ctx, x)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ml.Dump(out[0], ml.DumpWithPrecision(4)))
	return nil
}
