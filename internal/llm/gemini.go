package llm

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the provider needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiOptions struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
	System          string
	// Harm category name -> block threshold name, e.g.
	// HARM_CATEGORY_HARASSMENT -> BLOCK_MEDIUM_AND_ABOVE.
	SafetyThresholds map[string]string
}

type Gemini struct {
	models contentGenerator
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini API client for apiKey.
func NewGemini(ctx context.Context, apiKey string, opts GeminiOptions) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGemini(client.Models, opts), nil
}

func newGemini(models contentGenerator, opts GeminiOptions) *Gemini {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxOutputTokens),
		SafetySettings:  safetySettings(opts.SafetyThresholds),
	}
	if opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	return &Gemini{models: models, model: opts.Model, config: cfg}
}

func safetySettings(thresholds map[string]string) []*genai.SafetySetting {
	categories := make([]string, 0, len(thresholds))
	for c, t := range thresholds {
		if t != "" {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)

	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  genai.HarmCategory(c),
			Threshold: genai.HarmBlockThreshold(thresholds[c]),
		})
	}
	return out
}

func (*Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrNoContent
	}
	return resp.Text(), nil
}
