package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduai/tutor/backend/internal/config"
	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
)

// ErrEmptyResponse is the cause recorded when the model answers without text.
var ErrEmptyResponse = errors.New("model returned no text")

// Options are the per-call generation settings.
type Options struct {
	EnableSearchGrounding bool
	Temperature           float32
}

// Request is one complete, self-contained generation call. Turns are sent in
// order and already exclude the welcome turn.
type Request struct {
	SystemInstruction string
	Turns             []chat.Turn
	Options           Options
}

// Gateway performs a single blocking round trip to a hosted model.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GatewayError wraps every failure of a remote model call.
type GatewayError struct {
	Provider string
	Cause    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway: %v", e.Provider, e.Cause)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewGateway builds the gateway for the configured provider, wrapped with
// tracing. Credential problems surface as *config.ConfigurationError.
func NewGateway(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (Gateway, error) {
	var gateway Gateway
	switch cfg.Provider {
	case config.ProviderVertex, config.ProviderGemini:
		client, err := cfg.NewGenAIClient(ctx)
		if err != nil {
			return nil, err
		}
		gateway = NewGenAIGateway(client.Models, cfg.Provider, cfg.Model, cfg.Timeout, log)
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		gateway, err = NewEinoGateway(ctx, chatModel, cfg.Timeout, log)
		if err != nil {
			return nil, err
		}
	default:
		return nil, cfg.Validate()
	}

	return WithTracing(gateway, cfg.Provider, nil), nil
}

// sendable reports whether a turn carries anything worth sending.
func sendable(turn chat.Turn) bool {
	return strings.TrimSpace(turn.Content) != "" || turn.HasImage()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
