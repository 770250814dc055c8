package llm

import (
	"context"

	"github.com/Veraticus/binwise/internal/model"
)

// Client defines the interface for vision-language model providers.
// Generate sends a prompt, optionally with an image, and returns the model's
// text answer.
type Client interface {
	Generate(ctx context.Context, prompt string, image *model.ScanImage) (string, error)
}

// closableClient is implemented by providers holding connections.
type closableClient interface {
	Close() error
}
