package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

type DaemonOptions struct {
	Locale string
	Device string
	Now    func() time.Time
}

// DaemonSource implements domain.TranscriptSource on top of the recognizer
// daemon. It holds two connections: one for commands and one subscribed to
// the event stream.
type DaemonSource struct {
	socket string
	opts   DaemonOptions

	mu   sync.Mutex
	ctl  *Client
	ev   *Client
	done chan struct{}
}

func NewDaemonSource(socketPath string, opts DaemonOptions) *DaemonSource {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DaemonSource{socket: socketPath, opts: opts}
}

// Start subscribes to events and asks the daemon to begin recognition.
func (d *DaemonSource) Start(ctx context.Context) (<-chan domain.TranscriptEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctl != nil {
		return nil, errors.New("speech source already started")
	}

	ev, err := Connect(d.socket)
	if err != nil {
		return nil, err
	}
	if _, err := ev.SendCommand(Command{Cmd: "subscribe"}); err != nil {
		ev.Close()
		return nil, err
	}

	ctl, err := Connect(d.socket)
	if err != nil {
		ev.Close()
		return nil, err
	}
	if _, err := ctl.SendCommand(Command{Cmd: "start", Locale: d.opts.Locale, Device: d.opts.Device}); err != nil {
		ctl.Close()
		ev.Close()
		return nil, err
	}

	d.ctl, d.ev = ctl, ev
	d.done = make(chan struct{})

	out := make(chan domain.TranscriptEvent, 64)
	go d.pump(ctx, ev, out, d.done)
	go func(done chan struct{}) {
		select {
		case <-ctx.Done():
			ev.Close()
		case <-done:
		}
	}(d.done)

	return out, nil
}

func (d *DaemonSource) pump(ctx context.Context, c *Client, out chan<- domain.TranscriptEvent, done chan struct{}) {
	defer close(done)
	defer close(out)

	log := observability.LoggerFromContext(ctx)
	for {
		ev, err := c.ReadEvent()
		if err != nil {
			log.Debug("speech event stream ended", "error", err)
			return
		}

		var te domain.TranscriptEvent
		switch ev.Event {
		case eventPartial:
			te = domain.TranscriptEvent{Text: ev.Text}
		case eventSegment:
			te = domain.TranscriptEvent{Text: ev.Text, IsFinal: true}
		case eventError:
			log.Warn("speech daemon error", "message", ev.Message)
			continue
		default:
			continue
		}
		te.TimestampMs = d.opts.Now().UnixMilli()

		select {
		case out <- te:
		case <-ctx.Done():
			return
		}
	}
}

// Stop asks the daemon to end recognition and waits for the event stream to
// drain. It is safe to call more than once.
func (d *DaemonSource) Stop() error {
	d.mu.Lock()
	ctl, ev, done := d.ctl, d.ev, d.done
	d.ctl, d.ev, d.done = nil, nil, nil
	d.mu.Unlock()

	if ctl == nil {
		return nil
	}

	_, err := ctl.SendCommand(Command{Cmd: "stop"})
	if err != nil {
		err = fmt.Errorf("stop recognition: %w", err)
	}
	ctl.Close()
	ev.Close()
	<-done
	return err
}
