package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewClient creates a raw model client based on the provided configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return newGeminiClient(cfg)
	case "vertex":
		return newVertexClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
