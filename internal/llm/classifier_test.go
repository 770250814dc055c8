package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test implementation of the Client interface.
type mockClient struct {
	responses []string
	errors    []error
	prompts   []string
	images    []*model.ScanImage
	calls     int
	mu        sync.Mutex
}

func (m *mockClient) Generate(_ context.Context, prompt string, image *model.ScanImage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	callIdx := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.images = append(m.images, image)

	if callIdx < len(m.errors) && m.errors[callIdx] != nil {
		return "", m.errors[callIdx]
	}
	if callIdx < len(m.responses) {
		return m.responses[callIdx], nil
	}
	if len(m.responses) > 0 {
		return m.responses[len(m.responses)-1], nil
	}
	return "", fmt.Errorf("no more mock responses (call %d)", callIdx)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClassifier(client Client) *Classifier {
	return newClassifierWithClient(client, Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  6000,
	}, testLogger())
}

var testImage = model.ScanImage{MIMEType: "image/jpeg", Data: []byte("fake-jpeg-bytes")}

func TestClassifier_ClassifyImage(t *testing.T) {
	t.Run("successful classification", func(t *testing.T) {
		mock := &mockClient{responses: []string{plasticBottleAnswer}}
		c := testClassifier(mock)

		result, err := c.ClassifyImage(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, model.CategoryPlastic, result.Category)
		assert.Equal(t, "Botol plastik PET", result.ItemName)
		assert.InDelta(t, 92, result.ConfidenceScore, 1e-9)
		require.Len(t, mock.images, 1)
		assert.Equal(t, &testImage, mock.images[0])
	})

	t.Run("cache hit skips the model", func(t *testing.T) {
		mock := &mockClient{responses: []string{plasticBottleAnswer}}
		c := testClassifier(mock)

		_, err := c.ClassifyImage(context.Background(), testImage)
		require.NoError(t, err)
		_, err = c.ClassifyImage(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, 1, mock.callCount())
	})

	t.Run("retries transient errors and malformed answers", func(t *testing.T) {
		mock := &mockClient{
			errors:    []error{errors.New("connection reset"), nil, nil},
			responses: []string{"", "not json", plasticBottleAnswer},
		}
		c := testClassifier(mock)

		result, err := c.ClassifyImage(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, model.CategoryPlastic, result.Category)
		assert.Equal(t, 3, mock.callCount())
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		mock := &mockClient{
			errors: []error{&common.RetryableError{Err: errors.New("invalid key"), Retryable: false}},
		}
		c := testClassifier(mock)

		_, err := c.ClassifyImage(context.Background(), testImage)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrClassificationFailed)
		assert.Equal(t, 1, mock.callCount())
	})

	t.Run("exhausted retries", func(t *testing.T) {
		mock := &mockClient{responses: []string{"still not json"}}
		c := testClassifier(mock)

		_, err := c.ClassifyImage(context.Background(), testImage)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrClassificationFailed)
		assert.ErrorIs(t, err, common.ErrMaxRetries)
		assert.Equal(t, 3, mock.callCount())
	})

	t.Run("empty image", func(t *testing.T) {
		mock := &mockClient{}
		c := testClassifier(mock)

		_, err := c.ClassifyImage(context.Background(), model.ScanImage{})
		assert.ErrorIs(t, err, common.ErrClassificationFailed)
		assert.ErrorIs(t, err, ErrEmptyImage)
		assert.Equal(t, 0, mock.callCount())
	})

	t.Run("canceled context", func(t *testing.T) {
		mock := &mockClient{responses: []string{plasticBottleAnswer}}
		c := testClassifier(mock)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.ClassifyImage(ctx, testImage)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClassifier_ExpandSuggestion(t *testing.T) {
	mock := &mockClient{responses: []string{"  1. Bilas botol.\n2. Pipihkan.\n3. Setor ke bank sampah.\n4. Catat beratnya.  "}}
	c := testClassifier(mock)

	entry := model.ScanHistoryEntry{
		ID:     "entry-1",
		Result: model.ScanResult{Category: model.CategoryPlastic, ItemName: "Botol plastik"},
	}
	text, err := c.ExpandSuggestion(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "1. Bilas botol.\n2. Pipihkan.\n3. Setor ke bank sampah.\n4. Catat beratnya.", text)
	require.Len(t, mock.images, 1)
	assert.Nil(t, mock.images[0])
	assert.Contains(t, mock.prompts[0], "Botol plastik")
}

func TestClassifier_ClassifyBatch(t *testing.T) {
	mock := &mockClient{responses: []string{plasticBottleAnswer}}
	c := testClassifier(mock)

	images := []model.ScanImage{
		{MIMEType: "image/jpeg", Data: []byte("a")},
		{MIMEType: "image/jpeg", Data: []byte("b")},
		{},
		{MIMEType: "image/jpeg", Data: []byte("c")},
	}

	var mu sync.Mutex
	var seen []int
	results := c.ClassifyBatch(context.Background(), images, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(images), total)
		seen = append(seen, done)
	})

	require.Len(t, results, len(images))
	for i, r := range results {
		if i == 2 {
			assert.ErrorIs(t, r.Err, ErrEmptyImage)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, model.CategoryPlastic, r.Result.Category)
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seen)
}
