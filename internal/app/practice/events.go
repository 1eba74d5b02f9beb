package practice

import "github.com/PabloGalante/speech-coach/internal/domain"

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateAnalyzing State = "analyzing"
	StateError     State = "error"
)

// EventKind identifies what changed.
type EventKind string

const (
	EventStateChanged   EventKind = "state"
	EventMetrics        EventKind = "metrics"
	EventAnalysis       EventKind = "analysis"
	EventRecordAdded    EventKind = "record_added"
	EventHistoryCleared EventKind = "history_cleared"
	EventError          EventKind = "error"
)

// Event is what the supervisor reports to the presentation layer.
type Event struct {
	Kind      EventKind
	SessionID string
	State     State
	Metrics   domain.SpeechMetrics
	Interim   string
	Analysis  *domain.AnalysisResult
	Record    *domain.SessionRecord
	Err       error
}

// Notifier receives supervisor events in order. Implementations must not
// call back into the Supervisor.
type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type discard struct{}

func (discard) Notify(Event) {}
