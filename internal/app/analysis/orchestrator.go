package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

const DefaultTimeout = 45 * time.Second

// DefaultGenerationConfig is the sampling setup used when none is configured.
func DefaultGenerationConfig() domain.GenerationConfig {
	return domain.GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

type Options struct {
	Generation      domain.GenerationConfig
	Timeout         time.Duration
	ContextCapacity int
}

// Orchestrator sequences analysis requests: at most one outstanding call per
// session, each bounded by a timeout.
type Orchestrator struct {
	llm     domain.TextGenerator
	creds   domain.CredentialProvider
	parser  *Parser
	conv    *ConversationContext
	genCfg  domain.GenerationConfig
	timeout time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewOrchestrator(llm domain.TextGenerator, creds domain.CredentialProvider, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Generation == (domain.GenerationConfig{}) {
		opts.Generation = DefaultGenerationConfig()
	}

	return &Orchestrator{
		llm:      llm,
		creds:    creds,
		parser:   NewParser(),
		conv:     NewConversationContext(opts.ContextCapacity),
		genCfg:   opts.Generation,
		timeout:  opts.Timeout,
		inFlight: make(map[string]bool),
	}
}

// Analyze runs one analysis for sessionID. A second call for the same session
// while the first is outstanding gets ErrAnalysisInFlight.
func (o *Orchestrator) Analyze(ctx context.Context, sessionID string, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return domain.AnalysisResult{}, domain.ErrEmptyInput
	}

	credential := ""
	if o.creds != nil {
		credential = o.creds.Credential(ctx)
	}
	if credential == "" {
		return domain.AnalysisResult{}, domain.ErrMissingCredential
	}

	if !o.acquire(sessionID) {
		return domain.AnalysisResult{}, domain.ErrAnalysisInFlight
	}
	defer o.release(sessionID)

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"scenario", req.Scenario,
	)
	log.Info("analysis started", "word_count", req.Metrics.WordCount)
	start := time.Now()

	prompt := BuildPrompt(req, o.conv.Snapshot())

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.llm.Generate(callCtx, domain.GenerationRequest{
		System:     prompt.System,
		Prompt:     prompt.User,
		Config:     o.genCfg,
		Credential: credential,
	})
	if err != nil {
		msg := "generate failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "timed out after " + o.timeout.String()
		}
		log.Error("analysis failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return domain.AnalysisResult{}, &domain.AnalysisServiceError{Message: msg, Err: err}
	}

	result := o.parser.Parse(raw)

	serialized, _ := json.Marshal(result)
	o.conv.Append(domain.RoleUser, strings.TrimSpace(req.Transcript))
	o.conv.Append(domain.RoleAssistant, string(serialized))

	log.Info("analysis completed",
		"overall_score", result.OverallScore,
		"fallback", result.Fallback,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// InFlight reports whether an analysis is outstanding for sessionID.
func (o *Orchestrator) InFlight(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight[sessionID]
}

// HasCredential reports whether Analyze would pass its credential check.
func (o *Orchestrator) HasCredential(ctx context.Context) bool {
	return o.creds != nil && o.creds.Credential(ctx) != ""
}

// Context exposes the rolling exchange history (read-only use).
func (o *Orchestrator) Context() []domain.ConversationEntry {
	return o.conv.Snapshot()
}

func (o *Orchestrator) ResetContext() {
	o.conv.Clear()
}

func (o *Orchestrator) acquire(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight[sessionID] {
		return false
	}
	o.inFlight[sessionID] = true
	return true
}

func (o *Orchestrator) release(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, sessionID)
}
