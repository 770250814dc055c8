package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

const (
	defaultTemperature = 0.4
	defaultTopK        = 32
	defaultTopP        = 1.0
	defaultMaxTokens   = 2048
)

// ErrEmptyImage is returned when there are no image bytes to classify.
var ErrEmptyImage = errors.New("image is empty")

// Classifier implements the engine.Classifier interface on a vision model.
type Classifier struct {
	client      Client
	cache       *resultCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	language    string
	retryOpts   service.RetryOptions
}

// Config holds configuration for the classifier.
type Config struct {
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	ProjectID       string
	Location        string
	CredentialsFile string
	Language        string
	MaxRetries      int
	RetryDelay      time.Duration
	CacheTTL        time.Duration
	Timeout         time.Duration
	RateLimit       int
	Temperature     float64
	MaxTokens       int
}

func (c Config) temperature() float64 {
	if c.Temperature <= 0 {
		return defaultTemperature
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

// NewClassifier creates a new model-backed classifier.
func NewClassifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newClassifierWithClient(client, cfg, logger), nil
}

func newClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		cache:       newResultCache(cfg.CacheTTL),
		logger:      logger,
		language:    cfg.Language,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// ClassifyImage asks the model what the photographed item is. Any failure is
// wrapped in common.ErrClassificationFailed.
func (c *Classifier) ClassifyImage(ctx context.Context, image model.ScanImage) (model.ScanResult, error) {
	if len(image.Data) == 0 {
		return model.ScanResult{}, fmt.Errorf("%w: %w", common.ErrClassificationFailed, ErrEmptyImage)
	}
	if image.MIMEType == "" {
		image.MIMEType = "image/jpeg"
	}

	key := imageKey(image)
	if result, found := c.cache.get(key); found {
		c.logger.Debug("Cache hit for image", "key", key[:12])
		return result, nil
	}

	prompt := buildClassificationPrompt(c.language)

	var result model.ScanResult
	err := common.WithRetry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		content, err := c.client.Generate(ctx, prompt, &image)
		if err != nil {
			return err
		}

		parsed, err := parseScanResult(content)
		if err != nil {
			c.logger.Warn("Unparseable classifier answer", "error", err, "preview", preview(content))
			return err
		}
		// The caller may have given up while the model was answering.
		if err := ctx.Err(); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		result = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	c.cache.set(key, result)

	c.logger.Info("Image classified",
		"item", result.ItemName,
		"category", result.Category,
		"confidence", result.ConfidenceScore,
		"is_waste", result.IsWaste)

	return result, nil
}

// ExpandSuggestion asks for a detailed step-by-step handling guide for a
// saved entry.
func (c *Classifier) ExpandSuggestion(ctx context.Context, entry model.ScanHistoryEntry) (string, error) {
	prompt, err := buildEnrichmentPrompt(entry, c.language)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	var text string
	err = common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		content, err := c.client.Generate(ctx, prompt, nil)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(content)
		return nil
	}, c.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
	}

	c.logger.Info("Suggestion expanded", "entry_id", entry.ID, "length", len(text))
	return text, nil
}

// BatchResult is the outcome for one image of a batch.
type BatchResult struct {
	Err    error
	Result model.ScanResult
}

// ClassifyBatch classifies images concurrently. Results keep the input order
// and a failure on one image does not stop the others. progress, if not nil,
// is called after each image completes, possibly from several goroutines.
func (c *Classifier) ClassifyBatch(ctx context.Context, images []model.ScanImage, progress func(done, total int)) []BatchResult {
	results := make([]BatchResult, len(images))

	const maxWorkers = 5
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for i, img := range images {
		wg.Add(1)
		go func(idx int, image model.ScanImage) {
			defer wg.Done()
			defer func() {
				done := completed.Add(1)
				if progress != nil {
					progress(int(done), len(images))
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Err = ctx.Err()
				return
			}

			result, err := c.ClassifyImage(ctx, image)
			results[idx] = BatchResult{Result: result, Err: err}
		}(i, img)
	}

	wg.Wait()
	return results
}

// Close releases the model client.
func (c *Classifier) Close() error {
	c.cache.clear()
	if closer, ok := c.client.(closableClient); ok {
		return closer.Close()
	}
	return nil
}

func preview(s string) string {
	const limit = 120
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
