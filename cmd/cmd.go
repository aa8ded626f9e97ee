// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganrec/ganrec/envconfig"
	"github.com/ganrec/ganrec/logutil"
	"github.com/ganrec/ganrec/ml"
	_ "github.com/ganrec/ganrec/ml/backend"
	_ "github.com/ganrec/ganrec/model/models"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "ganrec",
		Short:         "GAN and diffusion networks for image reconstruction",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
		},
	}

	summaryCmd := newSummaryCmd()
	reconCmd := newReconCmd()
	scoreCmd := newScoreCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	engine := []envconfig.EnvVar{
		envVars["GANREC_DEBUG"],
		envVars["GANREC_BACKEND"],
		envVars["GANREC_NUM_THREADS"],
		envVars["GANREC_SEED"],
		envVars["GANREC_DETERMINISTIC"],
	}

	appendEnvDocs(summaryCmd, []envconfig.EnvVar{envVars["GANREC_DEBUG"], envVars["GANREC_SEED"]})
	appendEnvDocs(reconCmd, engine)
	appendEnvDocs(scoreCmd, engine)

	rootCmd.AddCommand(summaryCmd, reconCmd, scoreCmd)
	return rootCmd
}

// newBackend - Oeffnet das per GANREC_BACKEND gewaehlte Backend
func newBackend() (ml.Backend, error) {
	threads := int(envconfig.NumThreads())
	if envconfig.Deterministic() {
		threads = 1
	}

	b, err := ml.NewBackend(envconfig.Backend(), ml.BackendParams{NumThreads: threads})
	if err != nil {
		return nil, err
	}

	slog.Debug("backend ready", "backend", b.Name(), "threads", ml.BackendParams{NumThreads: threads}.Threads())
	return b, nil
}
