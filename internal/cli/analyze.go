package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze typed text as a practice session",
		Long:  "Analyzes the given text, or stdin when no text is given, and stores it in the history.",
		RunE:  runAnalyze,
	}

	cmd.Flags().StringP("scenario", "s", "general", "Scenario: interview, social, public or general")
	cmd.Flags().Float64("seconds", 0, "How long the text took to say (default: estimated from length)")

	RootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if text == "" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}

	scenario, _ := cmd.Flags().GetString("scenario")
	seconds, _ := cmd.Flags().GetFloat64("seconds")

	app, err := buildApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := app.Supervisor.PracticeText(cmd.Context(), text, domain.ParseScenario(scenario), seconds)
	if err != nil && out.SessionID == "" {
		return err
	}
	if perr := printOutcome(cmd.OutOrStdout(), out); perr != nil {
		return perr
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "analysis: %v\n", err)
	}
	return err
}
