package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
)

// CreateProfile inserts a new user profile.
func (s *SQLiteStorage) CreateProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	now := time.Now().UTC()
	if profile.JoinedAt.IsZero() {
		profile.JoinedAt = now
	}
	if profile.LastActiveAt.IsZero() {
		profile.LastActiveAt = profile.JoinedAt
	}
	if profile.Level == "" {
		profile.Level = model.TierBronze
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, photo_ref, total_points, level,
			total_scan_count, total_waste_kg, joined_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, profile.ID, profile.Email, profile.DisplayName, profile.PhotoRef, profile.TotalPoints,
		string(profile.Level), profile.TotalScanCount, profile.TotalWasteKg,
		profile.JoinedAt.UTC(), profile.LastActiveAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: user %s", common.ErrAlreadyExists, profile.ID)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfile retrieves a user profile by id.
func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return s.getProfileTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) getProfileTx(ctx context.Context, q queryable, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	var level string

	err := q.QueryRowContext(ctx, `
		SELECT id, email, display_name, photo_ref, total_points, level,
			total_scan_count, total_waste_kg, joined_at, last_active_at
		FROM users
		WHERE id = ?
	`, userID).Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.PhotoRef,
		&p.TotalPoints,
		&level,
		&p.TotalScanCount,
		&p.TotalWasteKg,
		&p.JoinedAt,
		&p.LastActiveAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.Level = model.Tier(level)
	return &p, nil
}

// UpdateProfile applies a partial update to a profile.
func (s *SQLiteStorage) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateProfileUpdate(update); err != nil {
		return err
	}
	return s.updateProfileTx(ctx, s.db, userID, update)
}

func (s *SQLiteStorage) updateProfileTx(ctx context.Context, q queryable, userID string, update model.ProfileUpdate) error {
	var sets []string
	var args []any

	if update.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *update.DisplayName)
	}
	if update.PhotoRef != nil {
		sets = append(sets, "photo_ref = ?")
		args = append(args, *update.PhotoRef)
	}
	if update.TotalPoints != nil {
		sets = append(sets, "total_points = ?")
		args = append(args, *update.TotalPoints)
	}
	if update.Level != nil {
		sets = append(sets, "level = ?")
		args = append(args, string(*update.Level))
	}
	if update.TotalScanCount != nil {
		sets = append(sets, "total_scan_count = ?")
		args = append(args, *update.TotalScanCount)
	}
	if update.TotalWasteKg != nil {
		sets = append(sets, "total_waste_kg = ?")
		args = append(args, *update.TotalWasteKg)
	}
	if update.LastActiveAt != nil {
		sets = append(sets, "last_active_at = ?")
		args = append(args, update.LastActiveAt.UTC())
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	// #nosec G202 - column names come from the fixed list above
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}

	return nil
}
