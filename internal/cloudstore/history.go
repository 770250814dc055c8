package cloudstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/storage"
)

func prepareEntry(entry *model.ScanHistoryEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ProcessingStatus == "" {
		entry.ProcessingStatus = model.StatusPending
	}
}

// AppendHistory creates a scan document. The owning user must exist.
func (s *FirestoreStorage) AppendHistory(ctx context.Context, entry *model.ScanHistoryEntry) (string, error) {
	if err := storage.ValidateEntry(entry); err != nil {
		return "", err
	}
	prepareEntry(entry)

	if _, err := s.GetProfile(ctx, entry.UserID); err != nil {
		return "", err
	}

	_, err := s.client.Collection(historyCollection).Doc(entry.ID).Create(ctx, toHistoryDoc(*entry))
	if err != nil {
		if isAlreadyExists(err) {
			return "", fmt.Errorf("%w: scan %s", common.ErrAlreadyExists, entry.ID)
		}
		return "", fmt.Errorf("failed to append history: %w", err)
	}
	return entry.ID, nil
}

// GetHistory returns a user's scans, newest first. Sorting happens here so
// no composite index is needed.
func (s *FirestoreStorage) GetHistory(ctx context.Context, userID string) ([]model.ScanHistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID", storage.ErrEmptyString)
	}

	iter := s.client.Collection(historyCollection).Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	var entries []model.ScanHistoryEntry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query history: %w", err)
		}

		var doc historyDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode scan %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, doc.toModel(snap.Ref.ID))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// GetHistoryEntry reads one scan.
func (s *FirestoreStorage) GetHistoryEntry(ctx context.Context, entryID string) (*model.ScanHistoryEntry, error) {
	if entryID == "" {
		return nil, fmt.Errorf("%w: entryID", storage.ErrEmptyString)
	}

	snap, err := s.client.Collection(historyCollection).Doc(entryID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: scan %s", common.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	var doc historyDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode scan %s: %w", entryID, err)
	}
	entry := doc.toModel(entryID)
	return &entry, nil
}

// UpdateHistoryEntry applies a partial update to the user-editable fields.
func (s *FirestoreStorage) UpdateHistoryEntry(ctx context.Context, entryID string, update model.HistoryUpdate) error {
	if entryID == "" {
		return fmt.Errorf("%w: entryID", storage.ErrEmptyString)
	}
	if err := storage.ValidateHistoryUpdate(update); err != nil {
		return err
	}
	fields := historyUpdates(update)
	if len(fields) == 0 {
		return nil
	}

	_, err := s.client.Collection(historyCollection).Doc(entryID).Update(ctx, toFirestoreUpdates(fields))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: scan %s", common.ErrNotFound, entryID)
		}
		return fmt.Errorf("failed to update scan: %w", err)
	}
	return nil
}

// DeleteHistoryEntry removes a scan. Profile totals are not adjusted.
func (s *FirestoreStorage) DeleteHistoryEntry(ctx context.Context, entryID string) error {
	if entryID == "" {
		return fmt.Errorf("%w: entryID", storage.ErrEmptyString)
	}

	_, err := s.client.Collection(historyCollection).Doc(entryID).Delete(ctx, firestore.Exists)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: scan %s", common.ErrNotFound, entryID)
		}
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	return nil
}

// RecordScan writes the scan, the profile totals and the ledger line in one
// transaction. The user document is read first so a missing user aborts the
// transaction before anything is written.
func (s *FirestoreStorage) RecordScan(ctx context.Context, record service.ScanRecord) (string, error) {
	entry := record.Entry
	if err := storage.ValidateEntry(&entry); err != nil {
		return "", err
	}
	if err := storage.ValidateProfileUpdate(record.ProfileUpdate); err != nil {
		return "", err
	}
	prepareEntry(&entry)

	ledger := record.Ledger
	ledger.ScanID = entry.ID
	if ledger.UserID == "" {
		ledger.UserID = entry.UserID
	}
	if ledger.ID == "" {
		ledger.ID = uuid.NewString()
	}
	if ledger.Timestamp.IsZero() {
		ledger.Timestamp = entry.Timestamp
	}
	if ledger.Kind == "" {
		ledger.Kind = model.PointsScan
	}
	if err := storage.ValidateLedger(&ledger); err != nil {
		return "", err
	}

	userRef := s.client.Collection(usersCollection).Doc(entry.UserID)
	scanRef := s.client.Collection(historyCollection).Doc(entry.ID)
	txnRef := s.client.Collection(transactionsCollection).Doc(ledger.ID)

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(userRef); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: user %s", common.ErrNotFound, entry.UserID)
			}
			return err
		}
		if err := tx.Create(scanRef, toHistoryDoc(entry)); err != nil {
			return err
		}
		if fields := profileUpdates(record.ProfileUpdate); len(fields) > 0 {
			if err := tx.Update(userRef, toFirestoreUpdates(fields)); err != nil {
				return err
			}
		}
		return tx.Create(txnRef, toTransactionDoc(ledger))
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to record scan: %w", err)
	}

	return entry.ID, nil
}
