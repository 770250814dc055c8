package cloudstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/service"
)

// emulatorStorage connects to a local Firestore emulator. Tests using it are
// skipped unless FIRESTORE_EMULATOR_HOST is set.
func emulatorStorage(t *testing.T) *FirestoreStorage {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	store, err := NewFirestoreStorage(context.Background(), Config{ProjectID: "binwise-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEmulatorRecordScan(t *testing.T) {
	store := emulatorStorage(t)
	ctx := context.Background()
	userID := "user-" + uuid.NewString()

	require.NoError(t, store.CreateProfile(ctx, &model.UserProfile{ID: userID, Email: "a@example.com"}))
	err := store.CreateProfile(ctx, &model.UserProfile{ID: userID, Email: "a@example.com"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	points, scans, kg := 25, 1, 2.5
	entryID, err := store.RecordScan(ctx, service.ScanRecord{
		Entry: model.ScanHistoryEntry{
			UserID:       userID,
			Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
			WeightKg:     2.5,
			PointsEarned: 25,
			Result: model.ScanResult{
				IsWaste:  true,
				Category: model.CategoryPlastic,
				ItemName: "bottle",
			},
		},
		ProfileUpdate: model.ProfileUpdate{TotalPoints: &points, TotalScanCount: &scans, TotalWasteKg: &kg},
		Ledger:        model.PointTransaction{PointsChange: 25, PointsAfter: 25, Description: "Scan bottle"},
	})
	require.NoError(t, err)

	profile, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, profile.TotalPoints)
	assert.Equal(t, 1, profile.TotalScanCount)

	history, err := store.GetHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entryID, history[0].ID)

	ledger, err := store.GetPointTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, entryID, ledger[0].ScanID)

	require.NoError(t, store.DeleteHistoryEntry(ctx, entryID))
	_, err = store.GetHistoryEntry(ctx, entryID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestEmulatorRecordScanUnknownUser(t *testing.T) {
	store := emulatorStorage(t)

	_, err := store.RecordScan(context.Background(), service.ScanRecord{
		Entry: model.ScanHistoryEntry{
			UserID:   "missing-" + uuid.NewString(),
			WeightKg: 1,
			Result:   model.ScanResult{IsWaste: true, Category: model.CategoryPaper, ItemName: "box"},
		},
		Ledger: model.PointTransaction{PointsChange: 10, PointsAfter: 10},
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
