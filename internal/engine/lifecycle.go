package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/scoring"
	"github.com/Veraticus/binwise/internal/service"
)

// Stage names a step of the scan lifecycle. Stages only move forward:
// captured, classified, weight confirmed, persisted and optionally enriched.
type Stage string

// Lifecycle stages.
const (
	StageCaptured        Stage = "captured"
	StageClassified      Stage = "classified"
	StageWeightConfirmed Stage = "weight_confirmed"
	StagePersisted       Stage = "persisted"
	StageEnriched        Stage = "enriched"
)

// Classify sends the image to the classifier. If ctx ends while the
// classifier is running the result is dropped and the context error returned.
func (e *Engine) Classify(ctx context.Context, image model.ScanImage) (model.ScanResult, error) {
	e.logger.Debug("Scan stage", "stage", StageCaptured, "bytes", len(image.Data))

	result, err := e.classifier.ClassifyImage(ctx, image)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.ScanResult{}, ctxErr
	}
	if err != nil {
		return model.ScanResult{}, asClassificationFailure(err)
	}

	e.logger.Debug("Scan stage", "stage", StageClassified,
		"category", result.Category,
		"item", result.ItemName)
	return result, nil
}

// ScanInput is a classified item the user has weighed.
type ScanInput struct {
	Location *model.Location
	UserID   string
	ImageRef string
	Note     string
	Result   model.ScanResult
	WeightKg float64
}

// PendingScan is a weighed scan with its points and new totals computed but
// not yet stored.
type PendingScan struct {
	Entry        model.ScanHistoryEntry
	Profile      model.UserProfile
	Ledger       model.PointTransaction
	PreviousTier model.Tier
	Level        scoring.Level
}

// LeveledUp reports whether the scan moves the user into a higher tier.
func (p PendingScan) LeveledUp() bool {
	return p.Profile.Level.Rank() > p.PreviousTier.Rank()
}

// ProfileUpdate is the change to store alongside the entry.
func (p PendingScan) ProfileUpdate() model.ProfileUpdate {
	points := p.Profile.TotalPoints
	scans := p.Profile.TotalScanCount
	waste := p.Profile.TotalWasteKg
	level := p.Profile.Level
	active := p.Profile.LastActiveAt
	return model.ProfileUpdate{
		TotalPoints:    &points,
		TotalScanCount: &scans,
		TotalWasteKg:   &waste,
		Level:          &level,
		LastActiveAt:   &active,
	}
}

// ConfirmWeight computes the points for a weighed item and the profile
// totals that result from it. It has no side effects.
func ConfirmWeight(profile model.UserProfile, result model.ScanResult, weightKg float64, policy scoring.Policy, now time.Time) (PendingScan, error) {
	points, err := policy.ComputePoints(weightKg)
	if err != nil {
		return PendingScan{}, err
	}

	before := profile.TotalPoints
	if before < 0 {
		before = 0
	}

	updated := profile
	updated.TotalPoints = before + points
	updated.TotalScanCount = max(profile.TotalScanCount, 0) + 1
	updated.TotalWasteKg = max(profile.TotalWasteKg, 0) + weightKg
	updated.LastActiveAt = now

	level := policy.ComputeLevel(updated.TotalPoints)
	updated.Level = level.Tier

	entry := model.ScanHistoryEntry{
		UserID:           profile.ID,
		Timestamp:        now,
		Result:           result,
		WeightKg:         weightKg,
		PointsEarned:     points,
		ProcessingStatus: model.StatusPending,
	}

	ledger := model.PointTransaction{
		UserID:       profile.ID,
		Timestamp:    now,
		Kind:         model.PointsScan,
		Description:  fmt.Sprintf("Scan %s (%.2f kg)", describeItem(result), weightKg),
		PointsBefore: before,
		PointsChange: points,
		PointsAfter:  updated.TotalPoints,
	}

	return PendingScan{
		Entry:        entry,
		Profile:      updated,
		Ledger:       ledger,
		PreviousTier: profile.Level,
		Level:        level,
	}, nil
}

func describeItem(result model.ScanResult) string {
	if result.ItemName != "" {
		return result.ItemName
	}
	return result.Category.String()
}

// Prepare loads the user's current totals and confirms the weight against
// them. Results the classifier flagged as not waste are scored like any
// other; the flag is kept on the entry for the caller to present.
func (e *Engine) Prepare(ctx context.Context, in ScanInput) (PendingScan, error) {
	if err := scoring.ValidateWeight(in.WeightKg); err != nil {
		return PendingScan{}, err
	}

	profile, err := e.storage.GetProfile(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return PendingScan{}, fmt.Errorf("failed to load profile %s: %w", in.UserID, err)
		}
		return PendingScan{}, fmt.Errorf("%w: failed to load profile %s: %w", common.ErrPersistenceFailed, in.UserID, err)
	}

	in.Result.Category = model.NormalizeCategory(in.Result.Category.String())
	pending, err := ConfirmWeight(*profile, in.Result, in.WeightKg, e.policy, e.now())
	if err != nil {
		return PendingScan{}, err
	}
	pending.Entry.Location = in.Location
	pending.Entry.ImageRef = in.ImageRef
	pending.Entry.Note = in.Note

	e.logger.Debug("Scan stage", "stage", StageWeightConfirmed,
		"user_id", in.UserID,
		"weight_kg", in.WeightKg,
		"points", pending.Entry.PointsEarned)
	return pending, nil
}

// Save stores a pending scan. Storages implementing service.ScanRecorder
// write the entry, totals and ledger line atomically. Otherwise the entry is
// appended first and a failed profile update returns a
// *common.PartialSaveError naming the stored entry.
func (e *Engine) Save(ctx context.Context, pending PendingScan) (model.ScanHistoryEntry, error) {
	entry := pending.Entry

	if recorder, ok := e.storage.(service.ScanRecorder); ok {
		id, err := recorder.RecordScan(ctx, service.ScanRecord{
			Entry:         entry,
			ProfileUpdate: pending.ProfileUpdate(),
			Ledger:        pending.Ledger,
		})
		if err != nil {
			return model.ScanHistoryEntry{}, fmt.Errorf("%w: %w", common.ErrPersistenceFailed, err)
		}
		entry.ID = id
		e.logSaved(entry, pending)
		return entry, nil
	}

	id, err := e.storage.AppendHistory(ctx, &entry)
	if err != nil {
		return model.ScanHistoryEntry{}, fmt.Errorf("%w: %w", common.ErrPersistenceFailed, err)
	}
	entry.ID = id

	if err := e.storage.UpdateProfile(ctx, entry.UserID, pending.ProfileUpdate()); err != nil {
		e.logger.Error("Profile update failed after history append",
			"user_id", entry.UserID,
			"entry_id", id,
			"error", err)
		return entry, &common.PartialSaveError{EntryID: id, Err: err}
	}

	ledger := pending.Ledger
	ledger.ScanID = id
	if err := e.storage.RecordPointTransaction(ctx, &ledger); err != nil {
		// Totals are already correct; the ledger line is informational.
		e.logger.Warn("Failed to record point transaction", "entry_id", id, "error", err)
	}

	e.logSaved(entry, pending)
	return entry, nil
}

func (e *Engine) logSaved(entry model.ScanHistoryEntry, pending PendingScan) {
	e.logger.Info("Scan saved",
		"stage", StagePersisted,
		"user_id", entry.UserID,
		"entry_id", entry.ID,
		"category", entry.Result.Category,
		"points", entry.PointsEarned,
		"total_points", pending.Profile.TotalPoints,
		"level", pending.Profile.Level)
	if pending.LeveledUp() {
		e.logger.Info("User leveled up",
			"user_id", entry.UserID,
			"from", pending.PreviousTier,
			"to", pending.Profile.Level)
	}
}

// Record prepares and saves a weighed scan in one call.
func (e *Engine) Record(ctx context.Context, in ScanInput) (model.ScanHistoryEntry, PendingScan, error) {
	pending, err := e.Prepare(ctx, in)
	if err != nil {
		return model.ScanHistoryEntry{}, PendingScan{}, err
	}
	entry, err := e.Save(ctx, pending)
	return entry, pending, err
}

// Enrich asks the classifier for a detailed handling guide and stores it on
// the entry, replacing any earlier one.
func (e *Engine) Enrich(ctx context.Context, userID, entryID string) (*model.ScanHistoryEntry, error) {
	entry, err := e.Entry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	text, err := e.classifier.ExpandSuggestion(ctx, *entry)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, asClassificationFailure(err)
	}

	updated, err := e.UpdateEntry(ctx, userID, entryID, model.HistoryUpdate{ExpandedSuggestion: &text})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Scan stage", "stage", StageEnriched, "entry_id", entryID)
	return updated, nil
}
