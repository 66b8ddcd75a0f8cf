package ai

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/eduai/tutor/backend/internal/service/ai"

type tracedGateway struct {
	next     Gateway
	provider string
	tracer   trace.Tracer
}

// WithTracing records one span per Generate call. A nil tracer uses the
// global provider, which is a no-op unless tracing was initialised.
func WithTracing(next Gateway, provider string, tracer trace.Tracer) Gateway {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &tracedGateway{next: next, provider: provider, tracer: tracer}
}

func (g *tracedGateway) Generate(ctx context.Context, req Request) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.generate", trace.WithAttributes(
		attribute.String("gateway.provider", g.provider),
		attribute.Int("gateway.turns", len(req.Turns)),
		attribute.Bool("gateway.grounding", req.Options.EnableSearchGrounding),
		attribute.Float64("gateway.temperature", float64(req.Options.Temperature)),
	))
	defer span.End()

	text, err := g.next.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("gateway.response_length", len(text)))
	return text, nil
}
