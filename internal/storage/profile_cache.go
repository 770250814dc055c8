package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

// ProfileSource says where a profile read was served from.
type ProfileSource string

// Profile sources.
const (
	SourcePrimary ProfileSource = "primary"
	SourceCache   ProfileSource = "cache"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ProfileCache keeps the last profile read from primary storage on local disk,
// one JSON file per user.
type ProfileCache struct {
	dir string
	mu  sync.RWMutex
}

// NewProfileCache creates a cache rooted at dir, creating it if needed.
func NewProfileCache(dir string) (*ProfileCache, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create profile cache directory: %w", err)
	}
	return &ProfileCache{dir: dir}, nil
}

func (c *ProfileCache) path(userID string) string {
	return filepath.Join(c.dir, unsafeFileChars.ReplaceAllString(userID, "_")+".json")
}

// Put stores a profile snapshot.
func (c *ProfileCache) Put(profile model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	final := c.path(profile.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile cache: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("failed to replace profile cache: %w", err)
	}
	return nil
}

// Get returns the cached snapshot for a user, or common.ErrNotFound.
func (c *ProfileCache) Get(userID string) (*model.UserProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(userID)) // #nosec G304 -- file name is sanitized above
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no cached profile for %s", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile cache: %w", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &p, nil
}

// Remove deletes a cached snapshot. Missing entries are not an error.
func (c *ProfileCache) Remove(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(userID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cached profile: %w", err)
	}
	return nil
}

// FallbackProfileReader reads profiles from primary storage and falls back
// to the local cache when primary storage is unreachable.
//
// Precedence: a successful primary read always wins and refreshes the cache.
// A primary not-found is authoritative and is returned as is. Any other
// primary failure is answered from the cache if a snapshot exists, otherwise
// it surfaces as common.ErrPersistenceFailed.
type FallbackProfileReader struct {
	primary service.ProfileReader
	cache   *ProfileCache
	logger  *slog.Logger
}

// NewFallbackProfileReader wires a primary reader to a cache.
func NewFallbackProfileReader(primary service.ProfileReader, cache *ProfileCache, logger *slog.Logger) *FallbackProfileReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackProfileReader{primary: primary, cache: cache, logger: logger}
}

// GetProfile implements service.ProfileReader.
func (r *FallbackProfileReader) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, _, err := r.GetProfileWithSource(ctx, userID)
	return p, err
}

// GetProfileWithSource is GetProfile that also reports which tier answered.
func (r *FallbackProfileReader) GetProfileWithSource(ctx context.Context, userID string) (*model.UserProfile, ProfileSource, error) {
	profile, err := r.primary.GetProfile(ctx, userID)
	if err == nil {
		if cacheErr := r.cache.Put(*profile); cacheErr != nil {
			r.logger.Warn("Failed to refresh profile cache", "user_id", userID, "error", cacheErr)
		}
		return profile, SourcePrimary, nil
	}

	if errors.Is(err, common.ErrNotFound) || ctx.Err() != nil {
		return nil, "", err
	}

	cached, cacheErr := r.cache.Get(userID)
	if cacheErr != nil {
		return nil, "", fmt.Errorf("%w: %w", common.ErrPersistenceFailed, err)
	}

	r.logger.Warn("Serving cached profile, primary storage unavailable",
		"user_id", userID,
		"error", err)
	return cached, SourceCache, nil
}
