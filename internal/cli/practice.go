package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/speech-coach/internal/adapters/speech"
	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Record a practice session and get feedback",
		Long: "Runs one practice session. Transcript events come from the speech daemon socket " +
			"(--socket, or speech.socket in config) or from an NDJSON replay file (--events). " +
			"Live sessions end on Ctrl+C or after --duration.",
		RunE: runPractice,
	}

	cmd.Flags().StringP("scenario", "s", "general", "Scenario: interview, social, public or general")
	cmd.Flags().String("events", "", "Replay transcript events from an NDJSON file ('-' for stdin)")
	cmd.Flags().Bool("paced", false, "Replay events in real time")
	cmd.Flags().String("socket", "", "Speech daemon socket (overrides config)")
	cmd.Flags().Duration("duration", 0, "Stop a live session after this long")

	RootCmd.AddCommand(cmd)
}

func runPractice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scenarioFlag, _ := cmd.Flags().GetString("scenario")
	eventsPath, _ := cmd.Flags().GetString("events")
	paced, _ := cmd.Flags().GetBool("paced")
	socket, _ := cmd.Flags().GetString("socket")
	limit, _ := cmd.Flags().GetDuration("duration")
	if socket == "" {
		socket = cfg.Speech.Socket
	}

	var src domain.TranscriptSource
	switch {
	case eventsPath != "":
		r, closeFn, err := openInput(eventsPath)
		if err != nil {
			return err
		}
		defer closeFn()
		src = speech.NewReplaySource(r, speech.ReplayOptions{Paced: paced})
	case socket != "":
		src = speech.NewDaemonSource(socket, speech.DaemonOptions{Locale: cfg.Speech.Locale})
	default:
		return errors.New("either --events or --socket is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	app, err := buildApp(ctx, cfg, progressNotifier(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer app.Close()

	sup := app.Supervisor
	if _, err := sup.Start(ctx, domain.ParseScenario(scenarioFlag)); err != nil {
		return err
	}

	// The listener ends when the replay runs out, the duration elapses or the
	// user interrupts. Stop runs on a fresh context so an interrupt does not
	// cancel the analysis.
	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(listenCtx)
	g.Go(func() error {
		defer cancel()
		err := sup.Listen(gctx, src)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if limit > 0 {
		g.Go(func() error {
			t := time.NewTimer(limit)
			defer t.Stop()
			select {
			case <-t.C:
				cancel()
			case <-gctx.Done():
			}
			return nil
		})
	}
	listenErr := g.Wait()

	outcome, stopErr := sup.Stop(context.WithoutCancel(ctx))
	if listenErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "speech source: %v\n", listenErr)
	}
	if err := printOutcome(out, outcome); err != nil {
		return err
	}
	return stopErr
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open events: %w", err)
	}
	return f, f.Close, nil
}

// progressNotifier prints live metrics and errors in text mode.
func progressNotifier(w io.Writer) practice.Notifier {
	if formatFlag != "text" {
		return nil
	}
	return practice.NotifierFunc(func(e practice.Event) {
		switch e.Kind {
		case practice.EventMetrics:
			fmt.Fprintf(w, "\r%4.0f wpm  %3d words  %2d fillers  %.0f%% unique  %s",
				e.Metrics.WPM, e.Metrics.WordCount, e.Metrics.FillerWordCount,
				e.Metrics.VocabularyDiversity*100, formatSeconds(e.Metrics.Duration))
		case practice.EventStateChanged:
			if e.State == practice.StateAnalyzing {
				fmt.Fprintln(w, "\nanalyzing...")
			}
		case practice.EventError:
			fmt.Fprintf(w, "\nerror: %v\n", e.Err)
		}
	})
}

func printOutcome(w io.Writer, o practice.Outcome) error {
	if formatFlag != "text" {
		return printJSON(w, o)
	}

	fmt.Fprintf(w, "\nSession %s (%s)\n", o.SessionID, o.Scenario)
	fmt.Fprintf(w, "  %s, %d words, %.0f wpm, %d fillers, %.0f%% unique words\n",
		formatSeconds(o.Metrics.Duration), o.Metrics.WordCount, o.Metrics.WPM,
		o.Metrics.FillerWordCount, o.Metrics.VocabularyDiversity*100)
	if o.SkipReason != "" {
		fmt.Fprintf(w, "  no analysis: %s\n", o.SkipReason)
	}
	if a := o.Analysis; a != nil {
		fmt.Fprintf(w, "  score %d/10, tone: %s\n", a.OverallScore, a.ToneFeedback)
		if a.Feedback != "" {
			fmt.Fprintf(w, "  %s\n", a.Feedback)
		}
		for _, c := range a.Corrections {
			fmt.Fprintf(w, "  - [%s] %q -> %q: %s\n", c.Type, c.Original, c.Correction, c.Explanation)
		}
		for _, s := range a.Strengths {
			fmt.Fprintf(w, "  + %s\n", s)
		}
		for _, i := range a.Improvements {
			fmt.Fprintf(w, "  * %s\n", i)
		}
	}
	if o.Record != nil {
		fmt.Fprintf(w, "  saved as #%d\n", o.Record.ID)
	}
	return nil
}

func formatSeconds(s float64) string {
	return humanize.FtoaWithDigits(s, 1) + "s"
}
