// Package llm produces free-form chat replies from a language model. The
// Generator never fails: provider errors come back as an apology reply.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadbot-backend/internal/metrics"
)

// ErrNoContent is returned by providers when the model answered with no text.
var ErrNoContent = errors.New("model returned no content")

const apologyPrefix = "Sorry, I encountered an error: "

// Provider is a single text-in, text-out model call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Reply is what the user sees. Err keeps the underlying failure, if any, for
// logging; Text is always safe to send.
type Reply struct {
	Text string
	Err  error
}

func (r Reply) Failed() bool { return r.Err != nil }

type Generator struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewGenerator(p Provider, timeout time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{provider: p, timeout: timeout, logger: logger}
}

func (g *Generator) Provider() string { return g.provider.Name() }

// Generate asks the provider for a reply to message.
func (g *Generator) Generate(ctx context.Context, message string) Reply {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.complete(ctx, message)
	metrics.LLMDuration.WithLabelValues(g.provider.Name()).Observe(time.Since(start).Seconds())
	metrics.LLMCalls.WithLabelValues(g.provider.Name(), metrics.Outcome(err)).Inc()

	if err != nil {
		g.logger.Warn("reply generation failed",
			zap.String("provider", g.provider.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return Reply{Text: apologyPrefix + err.Error(), Err: err}
	}
	return Reply{Text: text}
}

func (g *Generator) complete(ctx context.Context, message string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("provider panicked", zap.Any("panic", r))
			err = errors.New("model call aborted")
		}
	}()
	text, err = g.provider.Complete(ctx, message)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}
	return text, nil
}
