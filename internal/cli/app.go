package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/PabloGalante/speech-coach/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/speech-coach/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/speech-coach/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/speech-coach/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/speech-coach/internal/app/analysis"
	"github.com/PabloGalante/speech-coach/internal/app/credentials"
	"github.com/PabloGalante/speech-coach/internal/app/history"
	"github.com/PabloGalante/speech-coach/internal/app/metrics"
	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/config"
	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

type kvStore interface {
	domain.KeyValueStore
	io.Closer
}

// App is the wired object graph shared by every command.
type App struct {
	Config     *config.Config
	KV         kvStore
	Vault      *credentials.Vault
	Analyzer   *analysis.Orchestrator
	History    *history.Store
	Supervisor *practice.Supervisor
}

func buildApp(ctx context.Context, cfg *config.Config, notifier practice.Notifier) (*App, error) {
	log := observability.WithFields("component", "wiring")

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("storage ready", "backend", cfg.Storage.Backend)

	gen := newGenerator(cfg)
	log.Info("generator ready", "backend", cfg.Generator.Backend, "model", cfg.Generator.Model)

	// Backends that do not take a per-user key run with a placeholder so the
	// missing-credential gate does not block them.
	fallback := cfg.Generator.APIKey
	if fallback == "" && (cfg.Generator.Backend == "mock" || vertexEnabled(cfg)) {
		fallback = cfg.Generator.Backend
	}
	vault := credentials.NewVault(kv, fallback)

	orch := analysis.NewOrchestrator(gen, vault, analysis.Options{
		Generation: domain.GenerationConfig{
			Temperature:     cfg.Generator.Temperature,
			TopK:            cfg.Generator.TopK,
			TopP:            cfg.Generator.TopP,
			MaxOutputTokens: cfg.Generator.MaxOutputTokens,
		},
		Timeout:         cfg.Analysis.Timeout,
		ContextCapacity: cfg.Analysis.ContextCapacity,
	})

	store := history.NewStore(kv, history.Options{
		Capacity:   cfg.History.Capacity,
		MinSeconds: cfg.History.MinSeconds,
	})
	store.Load(ctx)

	sup := practice.NewSupervisor(metrics.NewEngine(cfg.Metrics.FillerWords...), orch, store, practice.Options{
		MinAnalysisSeconds: cfg.Analysis.MinSeconds,
		Notifier:           notifier,
	})

	return &App{
		Config:     cfg,
		KV:         kv,
		Vault:      vault,
		Analyzer:   orch,
		History:    store,
		Supervisor: sup,
	}, nil
}

func (a *App) Close() error {
	return a.KV.Close()
}

func openKV(ctx context.Context, cfg *config.Config) (kvStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		kv, err := sqlitestore.NewKV(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return kv, nil
	case "firestore":
		kv, err := firestorestore.NewKV(ctx, cfg.Storage.GCPProject, cfg.Storage.Collection)
		if err != nil {
			return nil, fmt.Errorf("open firestore store: %w", err)
		}
		return kv, nil
	default:
		return memstore.NewKV(), nil
	}
}

func vertexEnabled(cfg *config.Config) bool {
	return cfg.Generator.Backend == "gemini" && cfg.Mode == config.ModeGCP
}

func newGenerator(cfg *config.Config) domain.TextGenerator {
	switch cfg.Generator.Backend {
	case "gemini":
		gc := llm.GeminiConfig{Model: cfg.Generator.Model}
		if vertexEnabled(cfg) {
			gc.Project = cfg.Storage.GCPProject
			gc.Location = cfg.Generator.Location
		}
		return llm.NewGeminiClient(gc)
	case "http":
		return llm.NewHTTPClient(cfg.Generator.Endpoint, cfg.Analysis.Timeout)
	default:
		return llm.NewMockLLM()
	}
}
