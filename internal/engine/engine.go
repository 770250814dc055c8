// Package engine coordinates the scan lifecycle: classification, weight
// confirmation, persistence, enrichment and the history and profile views
// built on top of them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/scoring"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/storage"
)

// Engine orchestrates scans against a Classifier and a Storage.
type Engine struct {
	storage    service.Storage
	classifier Classifier
	profiles   service.ProfileReader
	logger     *slog.Logger
	now        func() time.Time
	policy     scoring.Policy
}

// Config holds configuration options for the engine.
type Config struct {
	// Profiles serves profile reads for display. Defaults to the storage.
	Profiles service.ProfileReader
	Logger   *slog.Logger
	Clock    func() time.Time
	Policy   scoring.Policy
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Policy: scoring.DefaultPolicy(),
		Clock:  func() time.Time { return time.Now().UTC() },
	}
}

// New creates a new engine with the default policy.
func New(store service.Storage, classifier Classifier) *Engine {
	return NewWithConfig(store, classifier, DefaultConfig())
}

// NewWithConfig creates a new engine with custom configuration.
func NewWithConfig(store service.Storage, classifier Classifier, config Config) *Engine {
	defaults := DefaultConfig()
	if config.Policy.Formula == "" {
		config.Policy = defaults.Policy
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Profiles == nil {
		config.Profiles = store
	}

	return &Engine{
		storage:    store,
		classifier: classifier,
		profiles:   config.Profiles,
		logger:     config.Logger,
		now:        config.Clock,
		policy:     config.Policy,
	}
}

// Policy returns the scoring policy in effect.
func (e *Engine) Policy() scoring.Policy {
	return e.policy
}

// Classifier returns the classifier the engine was built with.
func (e *Engine) Classifier() Classifier {
	return e.classifier
}

// Register creates a profile with zero totals at the lowest tier.
func (e *Engine) Register(ctx context.Context, profile model.UserProfile) (*model.UserProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := e.now()
	profile.JoinedAt = now
	profile.LastActiveAt = now
	profile.Level = model.TierBronze
	profile.TotalPoints = 0
	profile.TotalScanCount = 0
	profile.TotalWasteKg = 0

	if err := e.storage.CreateProfile(ctx, &profile); err != nil {
		return nil, fmt.Errorf("failed to register user %s: %w", profile.ID, err)
	}

	e.logger.Info("User registered", "user_id", profile.ID)
	return &profile, nil
}

// ProfileView is a profile with its derived level and impact.
type ProfileView struct {
	Profile      model.UserProfile `json:"profile"`
	Source       string            `json:"source"`
	Level        scoring.Level     `json:"level"`
	Impact       scoring.Impact    `json:"impact"`
	PointsToNext int               `json:"points_to_next"`
}

type sourcedProfileReader interface {
	GetProfileWithSource(ctx context.Context, userID string) (*model.UserProfile, storage.ProfileSource, error)
}

// Profile reads a profile and derives its level progress and impact.
func (e *Engine) Profile(ctx context.Context, userID string) (ProfileView, error) {
	var (
		profile *model.UserProfile
		source  = storage.SourcePrimary
		err     error
	)
	if sourced, ok := e.profiles.(sourcedProfileReader); ok {
		profile, source, err = sourced.GetProfileWithSource(ctx, userID)
	} else {
		profile, err = e.profiles.GetProfile(ctx, userID)
	}
	if err != nil {
		return ProfileView{}, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}

	level := e.policy.ComputeLevel(profile.TotalPoints)
	return ProfileView{
		Profile:      *profile,
		Source:       string(source),
		Level:        level,
		PointsToNext: level.PointsToNext(profile.TotalPoints),
		Impact:       scoring.EstimateImpact(profile.TotalWasteKg),
	}, nil
}

// Ledger returns a user's point transactions, newest first.
func (e *Engine) Ledger(ctx context.Context, userID string) ([]model.PointTransaction, error) {
	txns, err := e.storage.GetPointTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", userID, err)
	}
	return txns, nil
}

// History loads a user's entries and applies the filter.
func (e *Engine) History(ctx context.Context, userID string, filter history.Filter) (history.Summary, error) {
	entries, err := e.storage.GetHistory(ctx, userID)
	if err != nil {
		return history.Summary{}, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}
	return history.FilterAndSummarize(entries, filter), nil
}

// Entry returns one of the user's entries. Entries owned by someone else
// are reported as not found.
func (e *Engine) Entry(ctx context.Context, userID, entryID string) (*model.ScanHistoryEntry, error) {
	entry, err := e.storage.GetHistoryEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}
	if entry.UserID != userID {
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, common.ErrNotFound)
	}
	return entry, nil
}

// UpdateEntry changes the status, note or expanded suggestion of an entry.
// Point totals are not touched.
func (e *Engine) UpdateEntry(ctx context.Context, userID, entryID string, update model.HistoryUpdate) (*model.ScanHistoryEntry, error) {
	if _, err := e.Entry(ctx, userID, entryID); err != nil {
		return nil, err
	}
	if !update.IsEmpty() {
		if err := e.storage.UpdateHistoryEntry(ctx, entryID, update); err != nil {
			return nil, fmt.Errorf("failed to update entry %s: %w", entryID, err)
		}
	}
	return e.Entry(ctx, userID, entryID)
}

// DeleteEntry removes an entry. Points already awarded stay on the profile.
func (e *Engine) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if _, err := e.Entry(ctx, userID, entryID); err != nil {
		return err
	}
	if err := e.storage.DeleteHistoryEntry(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}
	e.logger.Info("History entry deleted", "user_id", userID, "entry_id", entryID)
	return nil
}

// asClassificationFailure makes sure err matches common.ErrClassificationFailed.
func asClassificationFailure(err error) error {
	if errors.Is(err, common.ErrClassificationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrClassificationFailed, err)
}
