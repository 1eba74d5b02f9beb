// Package speech turns external speech-to-text streams into transcript events.
// DaemonSource talks to a recognizer daemon over a unix socket using NDJSON;
// ReplaySource reads a recorded event file.
package speech

// Command is sent from a client to the daemon.
type Command struct {
	Cmd    string `json:"cmd"`
	Locale string `json:"locale,omitempty"`
	Device string `json:"device,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event     string `json:"event"`
	Text      string `json:"text,omitempty"`
	Source    string `json:"source,omitempty"`
	Message   string `json:"message,omitempty"`
	Transient *bool  `json:"transient,omitempty"`
}

const (
	eventPartial = "partial"
	eventSegment = "segment"
	eventError   = "error"
)
