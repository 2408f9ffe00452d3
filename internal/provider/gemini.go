package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/soyeahso/interviewd/internal/domain"
)

// defaultGeminiModel is used when no model is configured.
const defaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator produces agent utterances through the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generation provider.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate submits the system instructions plus the materialized window and
// returns the model's text. Provider failures are normalized to *Error so
// the failover layer can classify them.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == domain.RoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Instructions != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", g.normalize(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &Error{Provider: g.Name(), Code: 500, Message: "empty completion"}
	}
	return text, nil
}

func (g *GeminiGenerator) normalize(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Provider: g.Name(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return &Error{Provider: g.Name(), Message: err.Error()}
}
