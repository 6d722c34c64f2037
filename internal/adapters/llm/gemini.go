package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// GeminiConfig selects the backend: Vertex AI when Project is set,
// otherwise the Gemini API with APIKey.
type GeminiConfig struct {
	Project  string
	Location string
	APIKey   string
}

type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates an LLMClient backed by Gemini. The model is chosen
// per call, so one client serves every entry of the fallback chain.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	var cc *genai.ClientConfig
	switch {
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, fmt.Errorf("gcp location is required for Vertex AI")
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	case cfg.APIKey != "":
		cc = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	default:
		return nil, fmt.Errorf("either a gcp project or an api key must be set")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// GenerateReply implements domain.LLMClient.
func (g *GeminiClient) GenerateReply(ctx context.Context, modelID string, req domain.GenerationRequest) (string, error) {
	contents := buildContents(req)

	// Model config
	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: int32(8192),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	res, err := g.client.Models.GenerateContent(ctx, modelID, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content (%s): %w", modelID, err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text (%s)", modelID)
	}

	return text, nil
}

// buildContents maps the stored history plus the current message to the
// backend's user/model turns.
func buildContents(req domain.GenerationRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))
}
