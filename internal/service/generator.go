package service

import (
	"context"

	"github.com/Harshitk-cp/augur/internal/llm"
)

// Generator is the slice of the generation gateway the engines use.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts ...llm.Option) (string, error)
	GenerateStructuredOutput(ctx context.Context, prompt string, schema map[string]any, opts ...llm.Option) (map[string]any, error)
	DefaultProvider() string
	Available() []string
}

var _ Generator = (*llm.Gateway)(nil)
