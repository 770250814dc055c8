package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiBody(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{
				"finishReason": "STOP",
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGeminiClientGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiBody("hello"))
	}))
	defer server.Close()

	client, err := newGeminiClient(Config{APIKey: "test-key", Model: "gemini-test", BaseURL: server.URL})
	require.NoError(t, err)

	image := &model.ScanImage{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	text, err := client.Generate(context.Background(), "what is this?", image)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	contents := captured["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "what is this?", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(image.Data), inline["data"])

	gen := captured["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.4, gen["temperature"], 1e-9)
	assert.InDelta(t, 32, gen["topK"], 1e-9)
	assert.InDelta(t, 1, gen["topP"], 1e-9)
	assert.InDelta(t, 2048, gen["maxOutputTokens"], 1e-9)
}

func TestGeminiClientErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRateLimit bool
		wantRetryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantRateLimit: true, wantRetryable: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantRetryable: true},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantRetryable: true},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client, err := newGeminiClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "p", nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, common.ErrRateLimit))

			var retryErr *common.RetryableError
			nonRetryable := errors.As(err, &retryErr) && !retryErr.Retryable
			assert.Equal(t, tt.wantRetryable, !nonRetryable)
		})
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Provider: "gemini"})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{Provider: "vertex"})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{Provider: "openai", APIKey: "x"})
	assert.Error(t, err)
}
