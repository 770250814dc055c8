package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/binwise/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialSaveError(t *testing.T) {
	cause := errors.New("disk full")
	var err error = &PartialSaveError{EntryID: "scan-1", Err: cause}

	assert.True(t, errors.Is(err, ErrPartialSave))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrPersistenceFailed))

	wrapped := fmt.Errorf("persist: %w", err)
	var partial *PartialSaveError
	require.True(t, errors.As(wrapped, &partial))
	assert.Equal(t, "scan-1", partial.EntryID)
	assert.Contains(t, err.Error(), "scan-1")
}

func TestUserError(t *testing.T) {
	err := NewUserError("Could not save scan", ErrPersistenceFailed)
	assert.Equal(t, "Could not save scan: persistence failed", err.Error())
	assert.True(t, errors.Is(err, ErrPersistenceFailed))

	bare := NewUserError("nothing to do", nil)
	assert.Equal(t, "nothing to do", bare.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("503"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("400"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, opts)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error {
			return errors.New("always")
		}, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})

	t.Run("honors canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error {
			return errors.New("transient")
		}, opts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	h, err := NewHandler(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)
	slog.New(h).Info("scan saved", "points", 25)
	assert.Contains(t, buf.String(), `"points":25`)

	_, err = NewHandler(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
