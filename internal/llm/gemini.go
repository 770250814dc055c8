package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// geminiClient implements the Client interface for the Gemini REST API.
type geminiClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &geminiClient{
		apiKey:      cfg.APIKey,
		model:       modelName,
		baseURL:     baseURL,
		temperature: cfg.temperature(),
		maxTokens:   cfg.maxTokens(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Generate sends a generateContent request.
func (c *geminiClient) Generate(ctx context.Context, prompt string, image *model.ScanImage) (string, error) {
	parts := []map[string]any{
		{"text": prompt},
	}
	if image != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]string{
				"mime_type": image.MIMEType,
				"data":      base64.StdEncoding.EncodeToString(image.Data),
			},
		})
	}

	requestBody := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"topK":            defaultTopK,
			"topP":            defaultTopP,
			"maxOutputTokens": c.maxTokens,
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: ctx.Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if err := statusError("Gemini", resp.StatusCode, body); err != nil {
		return "", err
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return response.text()
}

// geminiResponse is the subset of the generateContent response we read.
type geminiResponse struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Candidates []struct {
		FinishReason string `json:"finishReason"`
		Content      struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r geminiResponse) text() (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("prompt blocked: %s", r.PromptFeedback.BlockReason),
			Retryable: false,
		}
	}
	if len(r.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("empty response (finish reason %q)", r.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

// statusError maps an HTTP status to an error. 429 is a rate limit, other
// 4xx responses will not improve on retry.
func statusError(provider string, status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s API error (status %d): %w", provider, status, common.ErrRateLimit)
	case status >= 400 && status < 500:
		return &common.RetryableError{
			Err:       fmt.Errorf("%s API error (status %d): %s", provider, status, string(body)),
			Retryable: false,
		}
	default:
		return fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))
	}
}
