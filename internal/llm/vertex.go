package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/Veraticus/binwise/internal/model"
)

const defaultVertexLocation = "us-central1"

// vertexClient implements the Client interface on Vertex AI.
type vertexClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// newVertexClient creates a Vertex AI client authenticated with application
// default credentials or an explicit credentials file.
func newVertexClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("vertex project ID is required")
	}

	location := cfg.Location
	if location == "" {
		location = defaultVertexLocation
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	gm := client.GenerativeModel(modelName)
	gm.SetTemperature(float32(cfg.temperature()))
	gm.SetTopK(int32(defaultTopK))
	gm.SetTopP(float32(defaultTopP))
	gm.SetMaxOutputTokens(int32(cfg.maxTokens())) // #nosec G115 -- bounded by config defaults

	return &vertexClient{client: client, model: gm}, nil
}

// Generate calls GenerateContent with the prompt and optional image.
func (c *vertexClient) Generate(ctx context.Context, prompt string, image *model.ScanImage) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if image != nil {
		parts = append(parts, genai.Blob{MIMEType: image.MIMEType, Data: image.Data})
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}
	return collectText(resp)
}

// Close releases the underlying connection.
func (c *vertexClient) Close() error {
	return c.client.Close()
}

// collectText joins the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}
