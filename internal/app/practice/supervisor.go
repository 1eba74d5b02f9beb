// Package practice drives a practice session from first word to stored record.
package practice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/PabloGalante/speech-coach/internal/app/metrics"
	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

const (
	DefaultMinAnalysisSeconds = 10.0

	// typedWPM estimates a duration for typed practice when none is given.
	typedWPM = 150.0
)

// Analyzer is the analysis orchestrator as seen by the supervisor.
type Analyzer interface {
	Analyze(ctx context.Context, sessionID string, req domain.AnalysisRequest) (domain.AnalysisResult, error)
	InFlight(sessionID string) bool
	HasCredential(ctx context.Context) bool
}

// Recorder is the session history as seen by the supervisor.
type Recorder interface {
	Record(ctx context.Context, in domain.SessionInput) (*domain.SessionRecord, error)
	History(ctx context.Context) []domain.SessionRecord
	Clear(ctx context.Context) error
}

type Options struct {
	MinAnalysisSeconds float64
	Notifier           Notifier
	Now                func() time.Time
}

// Outcome describes how a session ended.
type Outcome struct {
	SessionID  string                 `json:"session_id"`
	Scenario   domain.Scenario        `json:"scenario"`
	Transcript string                 `json:"transcript"`
	Metrics    domain.SpeechMetrics   `json:"metrics"`
	Analysis   *domain.AnalysisResult `json:"analysis,omitempty"`
	Record     *domain.SessionRecord  `json:"record,omitempty"`
	SkipReason string                 `json:"skip_reason,omitempty"`
}

// Snapshot is the live view of the current session.
type Snapshot struct {
	State      State                `json:"state"`
	SessionID  string               `json:"session_id,omitempty"`
	Scenario   domain.Scenario      `json:"scenario,omitempty"`
	Transcript string               `json:"transcript"`
	Interim    string               `json:"interim,omitempty"`
	Metrics    domain.SpeechMetrics `json:"metrics"`
}

// Supervisor owns the session lifecycle:
// idle -> recording -> stopping -> analyzing -> idle, with error reachable
// from analyzing. Its state is guarded by mu, which is never held across the
// analysis call.
type Supervisor struct {
	engine      *metrics.Engine
	analyzer    Analyzer
	store       Recorder
	notify      Notifier
	minAnalysis float64
	now         func() time.Time

	mu        sync.Mutex
	state     State
	sessionID string
	scenario  domain.Scenario
	startedAt time.Time
	segments  []string
	interim   string
	elapsed   float64
	metrics   domain.SpeechMetrics
}

func NewSupervisor(engine *metrics.Engine, analyzer Analyzer, store Recorder, opts Options) *Supervisor {
	if opts.MinAnalysisSeconds <= 0 {
		opts.MinAnalysisSeconds = DefaultMinAnalysisSeconds
	}
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Supervisor{
		engine:      engine,
		analyzer:    analyzer,
		store:       store,
		notify:      opts.Notifier,
		minAnalysis: opts.MinAnalysisSeconds,
		now:         opts.Now,
		state:       StateIdle,
	}
}

// Start opens a fresh session scope and begins accepting transcript events.
func (s *Supervisor) Start(ctx context.Context, scenario domain.Scenario) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return "", fmt.Errorf("start while %s: %w", s.state, domain.ErrInvalidTransition)
	}

	s.sessionID = ulid.Make().String()
	s.scenario = scenario
	s.startedAt = s.now()
	s.segments = nil
	s.interim = ""
	s.elapsed = 0
	s.metrics = s.engine.Compute("", 0)

	observability.LoggerFromContext(ctx).Info("practice session started",
		"session_id", s.sessionID,
		"scenario", scenario,
	)

	s.setStateLocked(StateRecording)
	s.emitLocked(Event{Kind: EventMetrics, Metrics: s.metrics})
	return s.sessionID, nil
}

// HandleTranscript applies one event. Final text is committed; interim text
// only replaces the display tail and never reaches the metrics.
func (s *Supervisor) HandleTranscript(ev domain.TranscriptEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("transcript while %s: %w", s.state, domain.ErrInvalidTransition)
	}

	s.elapsed = math.Max(s.elapsed, s.eventElapsedLocked(ev))

	if ev.IsFinal {
		if text := strings.TrimSpace(ev.Text); text != "" {
			s.segments = append(s.segments, text)
		}
		s.interim = ""
	} else {
		s.interim = ev.Text
	}

	s.metrics = s.engine.Compute(s.transcriptLocked(), s.elapsed)
	s.emitLocked(Event{Kind: EventMetrics, Metrics: s.metrics, Interim: s.interim})
	return nil
}

// Listen starts src and applies its events in arrival order until the stream
// ends or ctx is done.
func (s *Supervisor) Listen(ctx context.Context, src domain.TranscriptSource) error {
	events, err := src.Start(ctx)
	if err != nil {
		return fmt.Errorf("start speech source: %w", err)
	}
	defer func() {
		if err := src.Stop(); err != nil {
			observability.LoggerFromContext(ctx).Warn("stop speech source", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.HandleTranscript(ev); err != nil {
				observability.LoggerFromContext(ctx).Debug("transcript event ignored", "error", err)
			}
		}
	}
}

// Stop finalizes the session, runs the analysis when the session qualifies
// and hands the result to the history store. It always ends in idle. The
// returned error is the analysis service failure, if any; the outcome is
// still filled in.
func (s *Supervisor) Stop(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		st := s.state
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("stop while %s: %w", st, domain.ErrInvalidTransition)
	}
	s.setStateLocked(StateStopping)

	duration := math.Max(s.elapsed, s.now().Sub(s.startedAt).Seconds())
	out := Outcome{
		SessionID:  s.sessionID,
		Scenario:   s.scenario,
		Transcript: s.transcriptLocked(),
	}
	out.Metrics = s.engine.Compute(out.Transcript, duration)
	s.metrics = out.Metrics
	s.interim = ""
	s.emitLocked(Event{Kind: EventMetrics, Metrics: out.Metrics})

	ctx = observability.WithSessionID(ctx, out.SessionID)
	log := observability.LoggerFromContext(ctx)

	switch {
	case duration <= s.minAnalysis:
		out.SkipReason = fmt.Sprintf("session shorter than %.0f seconds", s.minAnalysis)
	case strings.TrimSpace(out.Transcript) == "":
		out.SkipReason = "empty transcript"
	case s.analyzer.InFlight(out.SessionID):
		out.SkipReason = "analysis already in progress"
	case !s.analyzer.HasCredential(ctx):
		out.SkipReason = "no analysis credential configured"
		s.emitLocked(Event{Kind: EventError, Err: domain.ErrMissingCredential})
	default:
		s.setStateLocked(StateAnalyzing)
	}
	analyze := s.state == StateAnalyzing
	s.mu.Unlock()

	var analysisErr error
	if analyze {
		res, err := s.analyzer.Analyze(ctx, out.SessionID, domain.AnalysisRequest{
			Transcript: out.Transcript,
			Metrics:    out.Metrics,
			Scenario:   out.Scenario,
		})
		s.mu.Lock()
		if err != nil {
			analysisErr = err
			log.Error("session analysis failed", "error", err)
			s.setStateLocked(StateError)
			s.emitLocked(Event{Kind: EventError, Err: err})
		} else {
			out.Analysis = &res
			s.emitLocked(Event{Kind: EventAnalysis, Analysis: out.Analysis})
		}
		s.mu.Unlock()
	} else {
		log.Info("analysis skipped", "reason", out.SkipReason, "duration", duration)
	}

	out.Record = s.record(ctx, out.SessionID, domain.SessionInput{
		Transcript: out.Transcript,
		Scenario:   out.Scenario,
		Metrics:    out.Metrics,
		Analysis:   out.Analysis,
		Duration:   duration,
	})

	s.mu.Lock()
	s.setStateLocked(StateIdle)
	s.mu.Unlock()

	return out, analysisErr
}

// PracticeText analyzes typed text right away. It runs outside the recording
// lifecycle under its own session id. durationSeconds <= 0 means "estimate
// from the word count".
func (s *Supervisor) PracticeText(ctx context.Context, text string, scenario domain.Scenario, durationSeconds float64) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, domain.ErrEmptyInput
	}

	out := Outcome{
		SessionID:  ulid.Make().String(),
		Scenario:   scenario,
		Transcript: strings.TrimSpace(text),
	}
	if durationSeconds <= 0 {
		durationSeconds = float64(len(strings.Fields(out.Transcript))) / typedWPM * 60
	}
	out.Metrics = s.engine.Compute(out.Transcript, durationSeconds)

	ctx = observability.WithSessionID(ctx, out.SessionID)

	res, err := s.analyzer.Analyze(ctx, out.SessionID, domain.AnalysisRequest{
		Transcript: out.Transcript,
		Metrics:    out.Metrics,
		Scenario:   scenario,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("typed practice analysis failed", "error", err)
		s.emit(Event{Kind: EventError, SessionID: out.SessionID, Err: err})
		if errors.Is(err, domain.ErrAnalysisInFlight) {
			return out, err
		}
		out.SkipReason = err.Error()
	} else {
		out.Analysis = &res
		s.emit(Event{Kind: EventAnalysis, SessionID: out.SessionID, Analysis: out.Analysis})
	}

	out.Record = s.record(ctx, out.SessionID, domain.SessionInput{
		Transcript: out.Transcript,
		Scenario:   scenario,
		Metrics:    out.Metrics,
		Analysis:   out.Analysis,
		Duration:   durationSeconds,
	})
	return out, err
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:      s.state,
		SessionID:  s.sessionID,
		Scenario:   s.scenario,
		Transcript: s.transcriptLocked(),
		Interim:    s.interim,
		Metrics:    s.metrics,
	}
}

func (s *Supervisor) History(ctx context.Context) []domain.SessionRecord {
	return s.store.History(ctx)
}

func (s *Supervisor) ClearHistory(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.emit(Event{Kind: EventHistoryCleared})
	return nil
}

func (s *Supervisor) record(ctx context.Context, sessionID string, in domain.SessionInput) *domain.SessionRecord {
	rec, err := s.store.Record(ctx, in)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("session record failed", "error", err)
		return nil
	}
	if rec != nil {
		s.emit(Event{Kind: EventRecordAdded, SessionID: sessionID, Record: rec})
	}
	return rec
}

func (s *Supervisor) eventElapsedLocked(ev domain.TranscriptEvent) float64 {
	if ev.TimestampMs <= 0 {
		return s.now().Sub(s.startedAt).Seconds()
	}
	return math.Max(0, float64(ev.TimestampMs-s.startedAt.UnixMilli())/1000)
}

func (s *Supervisor) transcriptLocked() string {
	return strings.Join(s.segments, " ")
}

func (s *Supervisor) setStateLocked(st State) {
	s.state = st
	s.emitLocked(Event{Kind: EventStateChanged})
}

func (s *Supervisor) emitLocked(e Event) {
	if e.SessionID == "" {
		e.SessionID = s.sessionID
	}
	e.State = s.state
	s.notify.Notify(e)
}

func (s *Supervisor) emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.State == "" {
		e.State = s.state
	}
	s.notify.Notify(e)
}
