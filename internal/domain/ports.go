package domain

import "context"

// GenerationConfig carries the sampling options understood by the
// text-generation collaborator.
type GenerationConfig struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// GenerationRequest is a single instruction sent to the text-generation
// collaborator.
type GenerationRequest struct {
	System     string
	Prompt     string
	Config     GenerationConfig
	Credential string
}

// TextGenerator defines how the core talks to the language-analysis service.
// It returns free text; any structure inside it is the parser's concern.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// KeyValueStore is the persistent key-value collaborator. Get reports
// ok=false for absent keys instead of an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TranscriptSource is the speech-to-text collaborator. The returned channel
// is closed when the stream ends; Start may be called again for a new session.
type TranscriptSource interface {
	Start(ctx context.Context) (<-chan TranscriptEvent, error)
	Stop() error
}

// CredentialProvider yields the opaque credential for the analysis service,
// or "" when none is configured.
type CredentialProvider interface {
	Credential(ctx context.Context) string
}

// Storage keys used in the key-value collaborator.
const (
	KeyCredential = "speech_coach_api_key"
	KeyHistory    = "speech_coach_history"
)
