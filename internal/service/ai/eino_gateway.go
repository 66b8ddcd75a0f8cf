package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
)

const providerArk = "ark"

// EinoGateway runs the tutor prompt through an eino chain ending in any
// eino chat model (Ark in production).
type EinoGateway struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
	log     *logger.Logger

	groundingWarn sync.Once
}

// NewEinoGateway compiles the system + history chain around chatModel.
func NewEinoGateway(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration, log *logger.Logger) (*EinoGateway, error) {
	if log == nil {
		log = logger.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tutor chain: %w", err)
	}

	return &EinoGateway{
		chain:   runnable,
		timeout: timeout,
		log:     log.With("component", "gateway", "provider", providerArk),
	}, nil
}

// Generate invokes the chain once. Search grounding has no Ark equivalent and
// is ignored.
func (g *EinoGateway) Generate(ctx context.Context, req Request) (string, error) {
	history := toSchemaMessages(req.Turns)
	if len(history) == 0 {
		return "", &GatewayError{Provider: providerArk, Cause: fmt.Errorf("no turns to send")}
	}

	if req.Options.EnableSearchGrounding {
		g.groundingWarn.Do(func() {
			g.log.Warn("search grounding requested but not supported by this provider; continuing without it")
		})
	}

	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	input := map[string]any{
		"system":  req.SystemInstruction,
		"history": history,
	}

	response, err := g.chain.Invoke(ctx, input, compose.WithChatModelOption(model.WithTemperature(req.Options.Temperature)))
	if err != nil {
		return "", &GatewayError{Provider: providerArk, Cause: err}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &GatewayError{Provider: providerArk, Cause: ErrEmptyResponse}
	}

	g.log.Debug("generated response", "turns", len(history), "length", len(response.Content))
	return response.Content, nil
}

func toSchemaMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		if !sendable(turn) {
			continue
		}

		switch turn.Role {
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		case chat.RoleUser:
			if !turn.HasImage() {
				history = append(history, schema.UserMessage(turn.Content))
				continue
			}
			msg := &schema.Message{Role: schema.User, Content: turn.Content}
			msg.MultiContent = []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL: dataURL(turn.Image),
					},
				},
			}
			if strings.TrimSpace(turn.Content) != "" {
				msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeText,
					Text: turn.Content,
				})
			}
			history = append(history, msg)
		}
	}
	return history
}

func dataURL(image *chat.Attachment) string {
	return "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}
