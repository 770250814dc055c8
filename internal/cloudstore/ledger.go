package cloudstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/storage"
)

// RecordPointTransaction stores a ledger line on its own.
func (s *FirestoreStorage) RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) error {
	if txn != nil && txn.Kind == "" {
		txn.Kind = model.PointsScan
	}
	if err := storage.ValidateLedger(txn); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}

	if _, err := s.client.Collection(transactionsCollection).Doc(txn.ID).Set(ctx, toTransactionDoc(*txn)); err != nil {
		return fmt.Errorf("failed to record point transaction: %w", err)
	}
	return nil
}

// GetPointTransactions returns a user's ledger, newest first.
func (s *FirestoreStorage) GetPointTransactions(ctx context.Context, userID string) ([]model.PointTransaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID", storage.ErrEmptyString)
	}

	snaps, err := s.client.Collection(transactionsCollection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query point transactions: %w", err)
	}

	txns := make([]model.PointTransaction, 0, len(snaps))
	for _, snap := range snaps {
		var doc transactionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode point transaction %s: %w", snap.Ref.ID, err)
		}
		txns = append(txns, doc.toModel(snap.Ref.ID))
	}

	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Timestamp.After(txns[j].Timestamp)
	})
	return txns, nil
}
