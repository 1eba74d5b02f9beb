package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

// MockLLM answers every request with a fenced JSON analysis, the way real
// models tend to. Useful for local runs without a credential.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	score := 8
	if strings.Contains(req.Prompt, "filler words: 0\n") {
		score = 9
	}

	return fmt.Sprintf("Here is my analysis:\n```json\n"+
		`{"overallScore": %d, "toneFeedback": "Friendly and clear", "corrections": [], `+
		`"feedback": "Good structure overall.", "improvements": ["Pause instead of using filler words", "Vary your pace"], `+
		`"strengths": ["Clear main point"]}`+
		"\n```", score), nil
}
