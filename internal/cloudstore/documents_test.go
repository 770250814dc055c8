package cloudstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/binwise/internal/model"
)

func TestHistoryDocRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	entry := model.ScanHistoryEntry{
		ID:               "scan-1",
		Timestamp:        ts,
		UserID:           "user-1",
		ImageRef:         "gs://bucket/scan-1.jpg",
		ProcessingStatus: model.StatusDone,
		Note:             "dropped at bank",
		WeightKg:         2.5,
		PointsEarned:     25,
		Location: &model.Location{
			City:        "Bandung",
			Coordinates: &model.Coordinates{Latitude: -6.9, Longitude: 107.6},
		},
		Result: model.ScanResult{
			IsWaste:             true,
			Category:            model.CategoryPlastic,
			ItemName:            "PET bottle",
			EstimatedPricePerKg: 3500,
			ConfidenceScore:     92,
		},
	}

	got := toHistoryDoc(entry).toModel("scan-1")
	assert.Equal(t, entry, got)
}

func TestHistoryDocAcceptsLegacyLabels(t *testing.T) {
	doc := historyDoc{
		UserID:           "user-1",
		ProcessingStatus: "Selesai",
		Analysis:         analysisDoc{IsWaste: true, Category: "Plastik", ItemName: "botol"},
	}

	got := doc.toModel("legacy")
	assert.Equal(t, model.StatusDone, got.ProcessingStatus)
	assert.Equal(t, model.CategoryPlastic, got.Result.Category)
	assert.Nil(t, got.Location)

	doc.ProcessingStatus = "whatever"
	doc.Analysis.Category = "kaca"
	got = doc.toModel("legacy")
	assert.Equal(t, model.StatusPending, got.ProcessingStatus)
	assert.Equal(t, model.CategoryResidual, got.Result.Category)
}

func TestUserDocDefaultsUnknownLevel(t *testing.T) {
	got := userDoc{Level: "Diamond", TotalPoints: 42}.toModel("u")
	assert.Equal(t, model.TierBronze, got.Level)
	assert.Equal(t, 42, got.TotalPoints)
	assert.Equal(t, "u", got.ID)
}

func TestProfileUpdatesOnlySetFields(t *testing.T) {
	assert.Empty(t, profileUpdates(model.ProfileUpdate{}))

	points := 1200
	level := model.TierSilver
	fields := profileUpdates(model.ProfileUpdate{TotalPoints: &points, Level: &level})
	require.Len(t, fields, 2)
	assert.Equal(t, updateField{"level", "Silver"}, fields[0])
	assert.Equal(t, updateField{"totalPoin", 1200}, fields[1])

	updates := toFirestoreUpdates(fields)
	require.Len(t, updates, 2)
	assert.Equal(t, "totalPoin", updates[1].Path)
}

func TestHistoryUpdatesCanonicalizeStatus(t *testing.T) {
	status := model.ProcessingStatus("in-progress")
	note := "later"
	fields := historyUpdates(model.HistoryUpdate{ProcessingStatus: &status, Note: &note})
	require.Len(t, fields, 2)
	assert.Equal(t, updateField{"statusPengolahan", "InProgress"}, fields[0])
	assert.Equal(t, updateField{"catatan", "later"}, fields[1])
}

func TestTransactionKindNormalization(t *testing.T) {
	got := transactionDoc{Kind: "Scan", PointsChange: 10, PointsAfter: 10}.toModel("t1")
	assert.Equal(t, model.PointsScan, got.Kind)

	got = transactionDoc{Kind: "cashback"}.toModel("t2")
	assert.Equal(t, model.PointTransactionKind("cashback"), got.Kind)
}

func TestBankDocID(t *testing.T) {
	assert.Equal(t, "bank-sampah-induk-gesit", bankDocID("Bank Sampah Induk Gesit"))
	assert.Equal(t, "rw-05-melati", bankDocID("  RW 05 / Melati! "))
	assert.Empty(t, bankDocID("!!!"))
}
