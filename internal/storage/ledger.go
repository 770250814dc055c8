package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/google/uuid"
)

// RecordPointTransaction appends a line to a user's point ledger.
func (s *SQLiteStorage) RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLedger(txn); err != nil {
		return err
	}
	return s.recordPointTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) recordPointTransactionTx(ctx context.Context, q queryable, txn *model.PointTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}
	if txn.Kind == "" {
		txn.Kind = model.PointsScan
	}

	var scanID sql.NullString
	if txn.ScanID != "" {
		scanID = sql.NullString{String: txn.ScanID, Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO point_transactions (id, user_id, scan_id, created_at, kind, description,
			points_before, points_change, points_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, scanID, txn.Timestamp.UTC(), string(txn.Kind), txn.Description,
		txn.PointsBefore, txn.PointsChange, txn.PointsAfter)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("%w: user %s", common.ErrNotFound, txn.UserID)
		}
		return fmt.Errorf("failed to record point transaction: %w", err)
	}
	return nil
}

// GetPointTransactions returns a user's ledger, newest first.
func (s *SQLiteStorage) GetPointTransactions(ctx context.Context, userID string) ([]model.PointTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, scan_id, created_at, kind, description,
			points_before, points_change, points_after
		FROM point_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.PointTransaction
	for rows.Next() {
		var txn model.PointTransaction
		var scanID sql.NullString
		var kind string
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&scanID,
			&txn.Timestamp,
			&kind,
			&txn.Description,
			&txn.PointsBefore,
			&txn.PointsChange,
			&txn.PointsAfter,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		txn.ScanID = scanID.String
		txn.Kind = model.PointTransactionKind(kind)
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
