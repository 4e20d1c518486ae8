package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/providers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Invoker sends a prompt to the reasoning oracle and returns its raw reply
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f(ctx, prompt)
func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ProviderInvoker invokes a chat-completion provider with a fixed model
type ProviderInvoker struct {
	provider    providers.Provider
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	jsonMode    bool
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewProviderInvoker creates an invoker bound to the configured model
func NewProviderInvoker(provider providers.Provider, cfg config.OracleConfig, logger *zap.Logger) *ProviderInvoker {
	return &ProviderInvoker{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		jsonMode:    cfg.JSONMode,
		tracer:      observability.Tracer("github.com/amulyarudresh/CorpCard-Sentinel/services/oracle"),
		logger:      logger,
	}
}

// Invoke sends prompt as a single user message. The configured timeout
// bounds the whole call including provider retries.
func (p *ProviderInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ctx, span := p.tracer.Start(ctx, "oracle.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("oracle.provider", p.provider.Name()),
			attribute.String("oracle.model", p.model),
		))
	defer span.End()

	resp, err := p.provider.ChatCompletion(ctx, &providers.ChatRequest{
		Model:       p.model,
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		JSONMode:    p.jsonMode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", fmt.Errorf("%s chat completion: %w", p.provider.Name(), err)
	}

	content, err := resp.Content()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("oracle.total_tokens", resp.Usage.TotalTokens))

	p.logger.Debug("oracle responded",
		zap.String("provider", resp.Provider),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", resp.Latency),
	)
	return content, nil
}
