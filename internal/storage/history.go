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
	"github.com/Veraticus/binwise/internal/service"
	"github.com/google/uuid"
)

const historyColumns = `id, user_id, scanned_at, is_waste, category, item_name, price_per_kg,
	handling_suggestion, confidence_score, analysis_detail, weight_kg,
	location_address, location_city, location_province, latitude, longitude,
	image_ref, processing_status, note, expanded_suggestion, points_earned`

// AppendHistory stores a new scan entry and returns its id. A missing id is
// generated; a missing timestamp or status gets a default.
func (s *SQLiteStorage) AppendHistory(ctx context.Context, entry *model.ScanHistoryEntry) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateEntry(entry); err != nil {
		return "", err
	}
	if err := s.appendHistoryTx(ctx, s.db, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *SQLiteStorage) appendHistoryTx(ctx context.Context, q queryable, entry *model.ScanHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ProcessingStatus == "" {
		entry.ProcessingStatus = model.StatusPending
	}

	var address, city, province sql.NullString
	var lat, lng sql.NullFloat64
	if loc := entry.Location; loc != nil {
		address = nullString(loc.Address)
		city = nullString(loc.City)
		province = nullString(loc.Province)
		if loc.Coordinates != nil {
			lat = sql.NullFloat64{Float64: loc.Coordinates.Latitude, Valid: true}
			lng = sql.NullFloat64{Float64: loc.Coordinates.Longitude, Valid: true}
		}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO scan_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.UserID, entry.Timestamp.UTC(), entry.Result.IsWaste,
		string(entry.Result.Category), entry.Result.ItemName, entry.Result.EstimatedPricePerKg,
		entry.Result.HandlingSuggestion, entry.Result.ConfidenceScore, entry.Result.AnalysisDetail,
		entry.WeightKg, address, city, province, lat, lng,
		entry.ImageRef, string(entry.ProcessingStatus), entry.Note, entry.ExpandedSuggestion,
		entry.PointsEarned,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: user %s", common.ErrNotFound, entry.UserID)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: scan %s", common.ErrAlreadyExists, entry.ID)
		}
		return fmt.Errorf("failed to append history: %w", err)
	}

	return nil
}

// GetHistory returns all scans for a user, newest first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, userID string) ([]model.ScanHistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM scan_history
		WHERE user_id = ?
		ORDER BY scanned_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ScanHistoryEntry
	for rows.Next() {
		entry, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// GetHistoryEntry returns one scan by id.
func (s *SQLiteStorage) GetHistoryEntry(ctx context.Context, entryID string) (*model.ScanHistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM scan_history WHERE id = ?`, entryID)
	entry, err := scanHistoryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scan %s", common.ErrNotFound, entryID)
	}
	return entry, err
}

// UpdateHistoryEntry applies a partial update to the user-editable fields.
func (s *SQLiteStorage) UpdateHistoryEntry(ctx context.Context, entryID string, update model.HistoryUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return err
	}
	if err := validateHistoryUpdate(update); err != nil {
		return err
	}
	if update.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if update.ProcessingStatus != nil {
		status, _ := model.ParseProcessingStatus(string(*update.ProcessingStatus))
		sets = append(sets, "processing_status = ?")
		args = append(args, string(status))
	}
	if update.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *update.Note)
	}
	if update.ExpandedSuggestion != nil {
		sets = append(sets, "expanded_suggestion = ?")
		args = append(args, *update.ExpandedSuggestion)
	}
	args = append(args, entryID)

	// #nosec G202 - column names come from the fixed list above
	result, err := s.db.ExecContext(ctx, "UPDATE scan_history SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}
	return requireRow(result, "scan", entryID)
}

// DeleteHistoryEntry removes a scan. Profile totals are not adjusted.
func (s *SQLiteStorage) DeleteHistoryEntry(ctx context.Context, entryID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM scan_history WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return requireRow(result, "scan", entryID)
}

// RecordScan writes the history entry, the profile totals and the ledger line
// in a single transaction.
func (s *SQLiteStorage) RecordScan(ctx context.Context, record service.ScanRecord) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	entry := record.Entry
	if err := validateEntry(&entry); err != nil {
		return "", err
	}
	if err := validateProfileUpdate(record.ProfileUpdate); err != nil {
		return "", err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.appendHistoryTx(ctx, tx, &entry); err != nil {
			return err
		}
		if err := s.updateProfileTx(ctx, tx, entry.UserID, record.ProfileUpdate); err != nil {
			return err
		}

		ledger := record.Ledger
		ledger.ScanID = entry.ID
		if ledger.UserID == "" {
			ledger.UserID = entry.UserID
		}
		if err := validateLedger(&ledger); err != nil {
			return err
		}
		return s.recordPointTransactionTx(ctx, tx, &ledger)
	})
	if err != nil {
		return "", err
	}

	return entry.ID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryRow(row rowScanner) (*model.ScanHistoryEntry, error) {
	var e model.ScanHistoryEntry
	var category, status string
	var address, city, province sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Timestamp,
		&e.Result.IsWaste,
		&category,
		&e.Result.ItemName,
		&e.Result.EstimatedPricePerKg,
		&e.Result.HandlingSuggestion,
		&e.Result.ConfidenceScore,
		&e.Result.AnalysisDetail,
		&e.WeightKg,
		&address,
		&city,
		&province,
		&lat,
		&lng,
		&e.ImageRef,
		&status,
		&e.Note,
		&e.ExpandedSuggestion,
		&e.PointsEarned,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history row: %w", err)
	}

	e.Result.Category = model.NormalizeCategory(category)
	e.ProcessingStatus = model.ProcessingStatus(status)

	if address.Valid || city.Valid || province.Valid || lat.Valid {
		e.Location = &model.Location{
			Address:  address.String,
			City:     city.String,
			Province: province.String,
		}
		if lat.Valid && lng.Valid {
			e.Location.Coordinates = &model.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
		}
	}

	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, kind, id)
	}
	return nil
}
