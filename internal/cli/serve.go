package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/speech-coach/internal/adapters/http"
	"github.com/PabloGalante/speech-coach/internal/adapters/speech"
	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "Listen port (overrides config)")
	cmd.Flags().Bool("listen-daemon", false, "Feed recording sessions from the speech daemon socket")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	observability.SetOutput(os.Stdout)
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		cfg.Port = p
	}
	listenDaemon, _ := cmd.Flags().GetBool("listen-daemon")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := observability.Logger()

	// When the daemon feeds the sessions, each recording started over HTTP
	// spawns a listener that lives until the session leaves recording.
	var listen func(practice.Event)
	notifier := practice.NotifierFunc(func(e practice.Event) {
		if listen != nil {
			listen(e)
		}
	})

	app, err := buildApp(ctx, cfg, notifier)
	if err != nil {
		return err
	}
	defer app.Close()

	if listenDaemon && cfg.Speech.Socket != "" {
		var cancel context.CancelFunc = func() {}
		listen = func(e practice.Event) {
			if e.Kind != practice.EventStateChanged {
				return
			}
			switch e.State {
			case practice.StateRecording:
				var lctx context.Context
				lctx, cancel = context.WithCancel(ctx)
				src := speech.NewDaemonSource(cfg.Speech.Socket, speech.DaemonOptions{Locale: cfg.Speech.Locale})
				go func() {
					if err := app.Supervisor.Listen(lctx, src); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn("speech listener stopped", "error", err)
					}
				}()
			case practice.StateStopping:
				cancel()
			}
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(app.Supervisor, app.Vault),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("speech-coach API listening", "port", cfg.Port, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
