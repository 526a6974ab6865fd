package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/newsnest/nest-agent/internal/domain"
)

const maxAttempts = 3

type GeminiClient struct {
	client    *genai.Client
	modelName string
	sleep     func(time.Duration)
}

// NewGeminiClient creates a CompletionClient backed by the Gemini API
// (API-key backend, not Vertex).
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		sleep:     time.Sleep,
	}, nil
}

// Generate implements domain.CompletionClient. Transient failures (429, 5xx)
// are retried with exponential backoff up to maxAttempts; auth failures are
// never retried.
func (g *GeminiClient) Generate(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var contents []*genai.Content
	for _, turn := range req.Turns {
		contents = append(contents, genai.NewContentFromText(turn.Text, genaiRole(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
		if err == nil {
			text := res.Text()
			if text == "" {
				return "", fmt.Errorf("gemini returned empty text: %w", domain.ErrUnavailable)
			}
			return text, nil
		}

		lastErr = classifyGeminiError(err)
		if errors.Is(lastErr, domain.ErrUpstreamAuth) {
			return "", lastErr
		}
		if attempt < maxAttempts {
			g.sleep(500 * time.Millisecond * (1 << (attempt - 1)))
		}
	}
	return "", lastErr
}

// genaiRole maps a transcript role onto the wire role. Anything that is not
// an assistant turn is sent as the user.
func genaiRole(r domain.Role) genai.Role {
	if r == domain.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("gemini: %w: %s", domain.ErrRateLimited, apiErr.Message)
		case apiErr.Code == 401 || apiErr.Code == 403:
			return fmt.Errorf("gemini: %w: %s", domain.ErrUpstreamAuth, apiErr.Message)
		}
	}
	return fmt.Errorf("gemini generate content: %w: %v", domain.ErrUnavailable, err)
}
