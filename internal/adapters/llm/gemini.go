package llm

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

const DefaultModel = "gemini-2.5-flash"

type GeminiConfig struct {
	Model string

	// When both are set the Vertex AI backend is used with application
	// default credentials; otherwise the Gemini API with the request credential.
	Project  string
	Location string
}

// GeminiClient implements domain.TextGenerator on top of genai. Clients are
// created lazily, one per credential.
type GeminiClient struct {
	cfg GeminiConfig

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &GeminiClient{
		cfg:     cfg,
		clients: make(map[string]*genai.Client),
	}
}

func (g *GeminiClient) vertex() bool {
	return g.cfg.Project != "" && g.cfg.Location != ""
}

func (g *GeminiClient) client(ctx context.Context, credential string) (*genai.Client, error) {
	key := credential
	if g.vertex() {
		key = "vertex"
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[key]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	}
	if g.vertex() {
		cc = &genai.ClientConfig{
			Project:  g.cfg.Project,
			Location: g.cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	g.clients[key] = c
	return c, nil
}

// Generate implements domain.TextGenerator.
func (g *GeminiClient) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	c, err := g.client(ctx, req.Credential)
	if err != nil {
		return "", err
	}

	// Model config (without genai.Ptr to avoid generic issues)
	temp := req.Config.Temperature
	topK := req.Config.TopK
	topP := req.Config.TopP

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		TopK:              &topK,
		TopP:              &topP,
		MaxOutputTokens:   req.Config.MaxOutputTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	res, err := c.Models.GenerateContent(ctx, g.cfg.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
