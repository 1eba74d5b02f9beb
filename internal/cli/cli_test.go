package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/adapters/llm"
	"github.com/PabloGalante/speech-coach/internal/app/practice"
	"github.com/PabloGalante/speech-coach/internal/config"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Mode:      config.ModeLocal,
		Generator: config.Generator{Backend: "mock"},
		Analysis:  config.Analysis{Timeout: 5 * time.Second, MinSeconds: 10, ContextCapacity: 10},
		History:   config.History{Capacity: 20, MinSeconds: 5},
		Storage: config.Storage{
			Backend:    "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "coach.db"),
		},
	}
}

func TestBuildAppPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := buildApp(ctx, cfg, nil)
	require.NoError(t, err)

	out, err := app.Supervisor.PracticeText(ctx, "We cut the build time in half by caching the dependency graph", domain.ScenarioInterview, 12)
	require.NoError(t, err)
	require.NotNil(t, out.Analysis, "mock backend runs without a configured key")
	require.NotNil(t, out.Record)
	require.NoError(t, app.Vault.Set(ctx, "stored-key"))
	require.NoError(t, app.Close())

	again, err := buildApp(ctx, cfg, nil)
	require.NoError(t, err)
	defer again.Close()

	records := again.Supervisor.History(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, out.Record.ID, records[0].ID)
	assert.Equal(t, "stored-key", again.Vault.Credential(ctx))
}

func TestNewGeneratorSelectsBackend(t *testing.T) {
	cfg := testConfig(t)

	assert.IsType(t, &llm.MockLLM{}, newGenerator(cfg))

	cfg.Generator.Backend = "http"
	cfg.Generator.Endpoint = "http://localhost:9"
	assert.IsType(t, &llm.HTTPClient{}, newGenerator(cfg))

	cfg.Generator.Backend = "gemini"
	assert.IsType(t, &llm.GeminiClient{}, newGenerator(cfg))
}

func TestPrintOutcomeText(t *testing.T) {
	old := formatFlag
	formatFlag = "text"
	defer func() { formatFlag = old }()

	var buf bytes.Buffer
	err := printOutcome(&buf, practice.Outcome{
		SessionID: "01J",
		Scenario:  domain.ScenarioPublic,
		Metrics:   domain.SpeechMetrics{WordCount: 30, WPM: 120, FillerWordCount: 2, VocabularyDiversity: 0.8, Duration: 15},
		Analysis: &domain.AnalysisResult{
			OverallScore: 7,
			ToneFeedback: "Warm",
			Improvements: []string{"Fewer fillers"},
		},
		Record: &domain.SessionRecord{ID: 42},
	})
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "score 7/10, tone: Warm")
	assert.Contains(t, text, "* Fewer fillers")
	assert.Contains(t, text, "saved as #42")
	assert.Contains(t, text, "15s")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b   c", 10))
	long := strings.Repeat("word ", 40)
	got := preview(long, 20)
	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}
