package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/adapters/llm"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func TestHTTPClientGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"text": `{"overallScore": 8}`})
	}))
	defer srv.Close()

	c := llm.NewHTTPClient(srv.URL+"/", 0)
	text, err := c.Generate(context.Background(), domain.GenerationRequest{
		System:     "sys",
		Prompt:     "hello",
		Credential: "tok",
		Config:     domain.GenerationConfig{Temperature: 0.5, TopK: 40, TopP: 0.9, MaxOutputTokens: 256},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"overallScore": 8}`, text)
	assert.Equal(t, "hello", got["prompt"])
	assert.Equal(t, float64(256), got["maxOutputTokens"])
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := llm.NewHTTPClient(srv.URL, 0).Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestMockLLMReturnsParsableAnalysis(t *testing.T) {
	text, err := llm.NewMockLLM().Generate(context.Background(), domain.GenerationRequest{Prompt: "filler words: 0\n"})

	require.NoError(t, err)
	assert.Contains(t, text, `"overallScore": 9`)
}
