// cmd_builders.go - Command-Builder Funktionen
// Hauptfunktionen: newSummaryCmd, newReconCmd, newScoreCmd, addConfigFlags
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganrec/ganrec/envconfig"
	"github.com/ganrec/ganrec/model"
)

// newSummaryCmd - Erstellt den summary Command
func newSummaryCmd() *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summary ARCH",
		Short: "Print the node table of an architecture",
		Args:  cobra.ExactArgs(1),
		RunE:  SummaryHandler,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return model.Architectures(), cobra.ShellCompDirectiveNoFileComp
		},
	}

	addConfigFlags(summaryCmd, true)
	return summaryCmd
}

// newReconCmd - Erstellt den recon Command
func newReconCmd() *cobra.Command {
	reconCmd := &cobra.Command{
		Use:   "recon IMAGE",
		Short: "Run one reconstruction forward pass on a TIFF or PNG image",
		Args:  cobra.ExactArgs(1),
		RunE:  ReconHandler,
	}

	reconCmd.Flags().StringP("output", "o", "", "Output TIFF file")
	reconCmd.Flags().String("arch", "generator", "Architecture (generator, fno, diffusion)")
	reconCmd.Flags().Float32("timestep", 0, "Diffusion timestep")
	reconCmd.Flags().Int("size", 0, "Resize the input to SIZE x SIZE before the forward pass")
	reconCmd.Flags().String("dump", "", "Write the raw output tensor to this file")
	reconCmd.Flags().String("dump-dtype", "f32", "Element type of --dump (f32, f16, bf16)")
	_ = reconCmd.MarkFlagRequired("output")

	addConfigFlags(reconCmd, false)
	return reconCmd
}

// newScoreCmd - Erstellt den score Command
func newScoreCmd() *cobra.Command {
	scoreCmd := &cobra.Command{
		Use:   "score IMAGE",
		Short: "Print the discriminator embedding of a sinogram",
		Args:  cobra.ExactArgs(1),
		RunE:  ScoreHandler,
	}

	scoreCmd.Flags().Uint64("seed", 0, "Parameter seed (default: GANREC_SEED)")
	return scoreCmd
}

// addConfigFlags - Registriert die Architektur-Parameter als Flags.
// Ohne size kommen Hoehe und Breite aus dem Eingabebild.
func addConfigFlags(cmd *cobra.Command, size bool) {
	c := model.DefaultConfig()

	if size {
		cmd.Flags().Int("height", c.ImageHeight, "Input height (angles for the discriminator)")
		cmd.Flags().Int("width", c.ImageWidth, "Input width (pixels for the discriminator)")
	}
	cmd.Flags().Int("filters", c.Filters, "Convolution filters of the generator")
	cmd.Flags().Int("kernel", c.Kernel, "Base kernel size of the generator")
	cmd.Flags().Float32("dropout", c.Dropout, "Dropout rate of the generator dense stack")
	cmd.Flags().Int("outputs", c.Outputs, "Output channels")
	cmd.Flags().Uint64("seed", 0, "Parameter seed (default: GANREC_SEED)")
}

// configFromFlags - Liest die Flags aus addConfigFlags
func configFromFlags(cmd *cobra.Command) (model.Config, error) {
	c := model.DefaultConfig()

	var err error
	if cmd.Flags().Lookup("height") != nil {
		if c.ImageHeight, err = cmd.Flags().GetInt("height"); err != nil {
			return c, err
		}
		if c.ImageWidth, err = cmd.Flags().GetInt("width"); err != nil {
			return c, err
		}
	}
	if c.Filters, err = cmd.Flags().GetInt("filters"); err != nil {
		return c, err
	}
	if c.Kernel, err = cmd.Flags().GetInt("kernel"); err != nil {
		return c, err
	}
	if c.Dropout, err = cmd.Flags().GetFloat32("dropout"); err != nil {
		return c, err
	}
	if c.Outputs, err = cmd.Flags().GetInt("outputs"); err != nil {
		return c, err
	}
	return c, nil
}

// seedFromFlags - --seed hat Vorrang vor GANREC_SEED
func seedFromFlags(cmd *cobra.Command) (uint64, error) {
	if !cmd.Flags().Changed("seed") {
		return envconfig.Seed(), nil
	}

	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return 0, fmt.Errorf("invalid --seed: %w", err)
	}
	return seed, nil
}
