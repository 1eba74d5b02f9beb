package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

// --- Generic REST generation backend (POST {endpoint}/generate) ---
type generateReq struct {
	System          string  `json:"system"`
	Prompt          string  `json:"prompt"`
	Temperature     float32 `json:"temperature"`
	TopK            float32 `json:"topK"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int32   `json:"maxOutputTokens"`
}

type generateResp struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HTTPClient implements domain.TextGenerator against a self-hosted service.
// The credential travels as a bearer token.
type HTTPClient struct {
	c        *http.Client
	endpoint string
}

func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		c:        &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

func (h *HTTPClient) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	b, err := json.Marshal(generateReq{
		System:          req.System,
		Prompt:          req.Prompt,
		Temperature:     req.Config.Temperature,
		TopK:            req.Config.TopK,
		TopP:            req.Config.TopP,
		MaxOutputTokens: req.Config.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate encode: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", "application/json")
	if req.Credential != "" {
		r.Header.Set("Authorization", "Bearer "+req.Credential)
	}

	resp, err := h.c.Do(r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generate %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out generateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("generate decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("generate: %s", out.Error)
	}
	return out.Text, nil
}
