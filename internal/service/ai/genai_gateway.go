package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
)

// contentGenerator is the slice of *genai.Models the gateway relies on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIGateway talks to Gemini through Vertex AI or the Gemini API.
type GenAIGateway struct {
	models   contentGenerator
	provider string
	model    string
	timeout  time.Duration
	log      *logger.Logger
}

// NewGenAIGateway wraps a genai models client.
func NewGenAIGateway(models contentGenerator, provider, model string, timeout time.Duration, log *logger.Logger) *GenAIGateway {
	if log == nil {
		log = logger.NewNop()
	}
	return &GenAIGateway{
		models:   models,
		provider: provider,
		model:    model,
		timeout:  timeout,
		log:      log.With("component", "gateway", "provider", provider),
	}
}

// Generate sends the full history with the system instruction and returns
// the concatenated text of the first candidate.
func (g *GenAIGateway) Generate(ctx context.Context, req Request) (string, error) {
	contents := toGenaiContents(req.Turns)
	if len(contents) == 0 {
		return "", &GatewayError{Provider: g.provider, Cause: fmt.Errorf("no turns to send")}
	}

	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, contents, g.generateConfig(req))
	if err != nil {
		return "", &GatewayError{Provider: g.provider, Cause: err}
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", &GatewayError{Provider: g.provider, Cause: err}
	}

	g.log.Debug("generated response", "model", g.model, "turns", len(contents), "length", len(text))
	return text, nil
}

func (g *GenAIGateway) generateConfig(req Request) *genai.GenerateContentConfig {
	temperature := req.Options.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemInstruction)},
		}
	}
	if req.Options.EnableSearchGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// toGenaiContents maps turns onto genai roles ("user" / "model"), dropping
// turns with nothing to send.
func toGenaiContents(turns []chat.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		if !sendable(turn) {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if turn.Role == chat.RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}

		parts := make([]*genai.Part, 0, 2)
		if turn.HasImage() {
			parts = append(parts, genai.NewPartFromBytes(turn.Image.Data, turn.Image.MIMEType))
		}
		if text := strings.TrimSpace(turn.Content); text != "" {
			parts = append(parts, genai.NewPartFromText(turn.Content))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("malformed response: nil")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("malformed response: no candidates")
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		builder.WriteString(part.Text)
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
