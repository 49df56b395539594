package llm

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptSpec is the assistant persona file.
type PromptSpec struct {
	System string `yaml:"system"`
	Style  struct {
		Temperature float32 `yaml:"temperature"`
		Language    string  `yaml:"language"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// LoadPrompt reads the persona file at path. A missing file yields an empty
// spec: the model then sees the raw user message only.
func LoadPrompt(path string) (PromptSpec, error) {
	var spec PromptSpec
	if path == "" {
		return spec, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return spec, nil
	}
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return spec, err
	}
	return spec, nil
}

// Instruction is the system text sent alongside each message.
func (p PromptSpec) Instruction() string {
	if p.Style.Language == "" || p.System == "" {
		return p.System
	}
	return p.System + "\n\nAlways answer in " + p.Style.Language + "."
}
