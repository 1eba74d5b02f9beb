// Package cli implements the speech-coach commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/speech-coach/internal/config"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

var (
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "speech-coach",
	Short: "Practice speaking and get coached on it",
	Long: "Records practice sessions from a speech recognizer, computes live speaking metrics " +
		"and asks a language model for feedback. Sessions are kept in a short history.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SPEECH_COACH_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig reads the config and points logging at stderr so stdout stays
// free for command output.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	observability.SetOutput(os.Stderr)
	observability.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
