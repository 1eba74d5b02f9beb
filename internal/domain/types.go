package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Scenario is the practice context that shapes the analysis instructions.
type Scenario string

const (
	ScenarioInterview Scenario = "interview"
	ScenarioSocial    Scenario = "social"
	ScenarioPublic    Scenario = "public"
	ScenarioGeneral   Scenario = "general"
)

// ParseScenario maps free text to a Scenario. Unknown values become general.
func ParseScenario(s string) Scenario {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interview", "job_interview":
		return ScenarioInterview
	case "social", "conversation":
		return ScenarioSocial
	case "public", "public_speaking", "presentation":
		return ScenarioPublic
	default:
		return ScenarioGeneral
	}
}

// TranscriptEvent is produced by the speech collaborator. Final events are
// committed text; interim events are a transient tail for display.
type TranscriptEvent struct {
	Text        string `json:"text"`
	IsFinal     bool   `json:"is_final"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// SpeechMetrics is an immutable snapshot of delivery metrics.
type SpeechMetrics struct {
	WPM                 float64 `json:"wpm"`
	FillerWordCount     int     `json:"filler_word_count"`
	VocabularyDiversity float64 `json:"vocabulary_diversity"`
	WordCount           int     `json:"word_count"`
	Duration            float64 `json:"duration"` // seconds
}

type AnalysisRequest struct {
	Transcript string
	Metrics    SpeechMetrics
	Scenario   Scenario
}

type Correction struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

// AnalysisResult is the structured content analysis of a session.
type AnalysisResult struct {
	OverallScore int          `json:"overallScore"`
	ToneFeedback string       `json:"toneFeedback"`
	Corrections  []Correction `json:"corrections"`
	Feedback     string       `json:"feedback"`
	Improvements []string     `json:"improvements"`
	Strengths    []string     `json:"strengths,omitempty"`

	// Fallback is set when the service response could not be used and the
	// neutral default was substituted.
	Fallback bool `json:"fallback,omitempty"`
}

type ConversationEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionInput is what a finished session hands to the history store.
type SessionInput struct {
	Transcript string
	Scenario   Scenario
	Metrics    SpeechMetrics
	Analysis   *AnalysisResult
	Duration   float64 // seconds
}

// SessionRecord is a stored session. It is never mutated after creation.
type SessionRecord struct {
	ID         int64           `json:"id"`
	Date       string          `json:"date"`
	Duration   float64         `json:"duration"`
	Scenario   Scenario        `json:"scenario,omitempty"`
	Transcript string          `json:"transcript"`
	Metrics    SpeechMetrics   `json:"metrics"`
	Analysis   *AnalysisResult `json:"analysis"`
}

// CreatedAt parses Date back into a time value.
func (r SessionRecord) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Date)
	if err != nil {
		return time.UnixMilli(r.ID)
	}
	return t
}
