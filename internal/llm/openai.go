package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	System      string
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

func NewOpenAI(apiKey string, opts OpenAIOptions) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: opts}
}

func (*OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if o.opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.opts.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.opts.Model,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoContent
	}
	return resp.Choices[0].Message.Content, nil
}
