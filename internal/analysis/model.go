package analysis

import (
	"context"
	"errors"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// ErrModelNotConfigured is returned by the placeholder model.
var ErrModelNotConfigured = errors.New("analysis: language model not configured")

// Model generates a text completion for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Unconfigured is the Model used when no provider credentials exist.
type Unconfigured struct{}

// Generate always fails with ErrModelNotConfigured.
func (Unconfigured) Generate(context.Context, string) (string, error) {
	return "", ErrModelNotConfigured
}
