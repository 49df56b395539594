package llm

import "context"

// Static answers every message with the same text. It is used when no model
// API key is configured.
type Static struct {
	Text string
}

func (Static) Name() string { return "static" }

func (s Static) Complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}
