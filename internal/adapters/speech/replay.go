package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

// ReplayLine is one line of a replay file. OffsetMs is relative to the start
// of the recording.
type ReplayLine struct {
	Text     string `json:"text"`
	IsFinal  bool   `json:"is_final"`
	OffsetMs int64  `json:"offset_ms"`
}

type ReplayOptions struct {
	// Paced waits for each line's offset before emitting it.
	Paced bool
	Now   func() time.Time
}

// ReplaySource implements domain.TranscriptSource from an NDJSON stream of
// ReplayLine values. Offsets are rebased onto the time Start is called.
type ReplaySource struct {
	r    io.Reader
	opts ReplayOptions

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewReplaySource(r io.Reader, opts ReplayOptions) *ReplaySource {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReplaySource{r: r, opts: opts}
}

func (s *ReplaySource) Start(ctx context.Context) (<-chan domain.TranscriptEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return nil, fmt.Errorf("replay already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	out := make(chan domain.TranscriptEvent)
	go s.run(ctx, s.opts.Now(), out)
	return out, nil
}

func (s *ReplaySource) run(ctx context.Context, base time.Time, out chan<- domain.TranscriptEvent) {
	defer close(s.done)
	defer close(out)

	log := observability.LoggerFromContext(ctx)
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var line ReplayLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			log.Warn("skipping malformed replay line", "line", lineNo, "error", err)
			continue
		}

		at := base.Add(time.Duration(line.OffsetMs) * time.Millisecond)
		if s.opts.Paced {
			if wait := at.Sub(s.opts.Now()); wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
					return
				}
			}
		}

		select {
		case out <- domain.TranscriptEvent{Text: line.Text, IsFinal: line.IsFinal, TimestampMs: at.UnixMilli()}:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		s.err = fmt.Errorf("read replay: %w", err)
		s.mu.Unlock()
	}
}

// Stop cancels the replay and reports any read error.
func (s *ReplaySource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
