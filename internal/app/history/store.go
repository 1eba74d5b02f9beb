// Package history keeps the bounded, newest-first list of past sessions.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

const (
	DefaultCapacity   = 20
	DefaultMinSeconds = 5.0
)

// isoLayout matches the millisecond ISO-8601 form used for record dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	Capacity   int
	MinSeconds float64 // sessions must last longer than this to be stored
	Now        func() time.Time
}

// Store owns the session history. All writes go through Record and Clear,
// and every write persists the whole history as one JSON blob.
type Store struct {
	kv         domain.KeyValueStore
	capacity   int
	minSeconds float64
	now        func() time.Time
	log        *slog.Logger

	mu      sync.RWMutex
	history []domain.SessionRecord
	loaded  bool
}

func NewStore(kv domain.KeyValueStore, opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MinSeconds <= 0 {
		opts.MinSeconds = DefaultMinSeconds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		kv:         kv,
		capacity:   opts.Capacity,
		minSeconds: opts.MinSeconds,
		now:        opts.Now,
		log:        observability.WithFields("component", "history_store"),
	}
}

// Load re-reads the persisted history. Missing or corrupt data yields an
// empty history; it never fails.
func (s *Store) Load(ctx context.Context) []domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
	return cloneAll(s.history)
}

// History returns the current history, newest first.
func (s *Store) History(ctx context.Context) []domain.SessionRecord {
	s.mu.RLock()
	loaded := s.loaded
	out := cloneAll(s.history)
	s.mu.RUnlock()

	if loaded {
		return out
	}
	return s.Load(ctx)
}

// Record stores a finished session. It returns nil, nil when the session is
// too short or has no transcript. Persistence failures are logged and the
// record is kept in memory.
func (s *Store) Record(ctx context.Context, in domain.SessionInput) (*domain.SessionRecord, error) {
	log := observability.LoggerFromContext(ctx)

	if strings.TrimSpace(in.Transcript) == "" || in.Duration <= s.minSeconds {
		log.Info("session not stored",
			"duration", in.Duration,
			"min_seconds", s.minSeconds,
			"empty_transcript", strings.TrimSpace(in.Transcript) == "",
		)
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.loadLocked(ctx)
	}

	now := s.now()
	id := now.UnixMilli()
	if len(s.history) > 0 && id <= s.history[0].ID {
		id = s.history[0].ID + 1
	}

	rec := domain.SessionRecord{
		ID:         id,
		Date:       now.UTC().Format(isoLayout),
		Duration:   in.Duration,
		Scenario:   in.Scenario,
		Transcript: in.Transcript,
		Metrics:    in.Metrics,
		Analysis:   cloneAnalysis(in.Analysis),
	}

	next := make([]domain.SessionRecord, 0, min(len(s.history)+1, s.capacity))
	next = append(next, rec)
	next = append(next, s.history...)
	if len(next) > s.capacity {
		next = next[:s.capacity]
	}
	s.history = next

	if err := s.persistLocked(ctx, next); err != nil {
		log.Warn("history not persisted, kept in memory", "error", err)
	}

	log.Info("session stored", "record_id", rec.ID, "history_len", len(next))
	out := cloneRecord(rec)
	return &out, nil
}

// Clear empties the history. The persisted copy is written first; if that
// fails the old history stays in place and the error is returned.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(ctx, []domain.SessionRecord{}); err != nil {
		return err
	}
	s.history = nil
	s.loaded = true
	observability.LoggerFromContext(ctx).Info("history cleared")
	return nil
}

func (s *Store) loadLocked(ctx context.Context) {
	s.loaded = true
	s.history = nil

	raw, ok, err := s.kv.Get(ctx, domain.KeyHistory)
	if err != nil {
		s.log.Warn("history unavailable, starting empty",
			"error", &domain.PersistenceError{Op: "get", Key: domain.KeyHistory, Err: err})
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	var records []domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.Warn("history corrupt, starting empty", "error", err)
		return
	}
	if len(records) > s.capacity {
		records = records[:s.capacity]
	}
	s.history = records
}

func (s *Store) persistLocked(ctx context.Context, records []domain.SessionRecord) error {
	b, err := json.Marshal(records)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Key: domain.KeyHistory, Err: err}
	}
	if err := s.kv.Set(ctx, domain.KeyHistory, string(b)); err != nil {
		return &domain.PersistenceError{Op: "set", Key: domain.KeyHistory, Err: err}
	}
	return nil
}

func cloneAll(in []domain.SessionRecord) []domain.SessionRecord {
	out := make([]domain.SessionRecord, len(in))
	for i, r := range in {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r domain.SessionRecord) domain.SessionRecord {
	r.Analysis = cloneAnalysis(r.Analysis)
	return r
}

func cloneAnalysis(a *domain.AnalysisResult) *domain.AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	c.Corrections = slices.Clone(a.Corrections)
	c.Improvements = slices.Clone(a.Improvements)
	c.Strengths = slices.Clone(a.Strengths)
	return &c
}
