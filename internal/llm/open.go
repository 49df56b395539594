package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"leadbot-backend/internal/config"
)

// Open builds the Generator for cfg. fallback is the text the static
// provider answers with.
func Open(ctx context.Context, cfg config.LLMConfig, fallback string, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	prompt, err := LoadPrompt(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("load prompt %s: %w", cfg.PromptFile, err)
	}

	temperature := cfg.Temperature
	if prompt.Style.Temperature > 0 {
		temperature = prompt.Style.Temperature
	}
	maxTokens := cfg.MaxOutputTokens
	if prompt.Style.MaxTokens > 0 {
		maxTokens = prompt.Style.MaxTokens
	}

	var p Provider
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider needs GEMINI_API_KEY")
		}
		p, err = NewGemini(ctx, cfg.GeminiAPIKey, GeminiOptions{
			Model:            cfg.Model,
			Temperature:      temperature,
			MaxOutputTokens:  maxTokens,
			System:           prompt.Instruction(),
			SafetyThresholds: cfg.SafetyThresholds,
		})
		if err != nil {
			return nil, err
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider needs OPENAI_API_KEY")
		}
		model := cfg.Model
		if strings.HasPrefix(model, "gemini") {
			model = ""
		}
		p = NewOpenAI(cfg.OpenAIAPIKey, OpenAIOptions{
			Model:       model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			System:      prompt.Instruction(),
		})
	case "static":
		p = Static{Text: fallback}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	logger.Info("reply generator ready",
		zap.String("provider", p.Name()),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return NewGenerator(p, cfg.Timeout, logger), nil
}
