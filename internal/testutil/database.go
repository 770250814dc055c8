// Package testutil provides shared fixtures for tests that need a real
// database: a migrated in-memory SQLite store seeded with users and scans.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Users          []model.UserProfile
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database holding the given users.
// It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.User("alice"))
func SetupTestDB(t *testing.T, users ...model.UserProfile) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Users: users})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for i := range opts.Users {
		if err := store.CreateProfile(ctx, &opts.Users[i]); err != nil {
			t.Fatalf("failed to seed user %q: %v", opts.Users[i].ID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustGetProfile returns the stored profile or fails the test.
func (db *TestDB) MustGetProfile(userID string) *model.UserProfile {
	db.t.Helper()
	p, err := db.Storage.GetProfile(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to get profile %q: %v", userID, err)
	}
	return p
}

// MustAddScan appends a history entry and returns its id.
func (db *TestDB) MustAddScan(entry model.ScanHistoryEntry) string {
	db.t.Helper()
	id, err := db.Storage.AppendHistory(context.Background(), &entry)
	if err != nil {
		db.t.Fatalf("failed to add scan: %v", err)
	}
	return id
}

// User returns a fresh Bronze profile with zero totals.
func User(id string) model.UserProfile {
	joined := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return model.UserProfile{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "Test " + id,
		Level:        model.TierBronze,
		JoinedAt:     joined,
		LastActiveAt: joined,
	}
}

// Scan returns a history entry for a waste item. The price is Rp 3500/kg.
func Scan(userID, item string, category model.WasteCategory, weightKg float64, at time.Time) model.ScanHistoryEntry {
	return model.ScanHistoryEntry{
		UserID:           userID,
		Timestamp:        at,
		WeightKg:         weightKg,
		PointsEarned:     int(weightKg * 10),
		ProcessingStatus: model.StatusPending,
		Result: model.ScanResult{
			IsWaste:             true,
			Category:            category,
			ItemName:            item,
			EstimatedPricePerKg: 3500,
			HandlingSuggestion:  "Pisahkan sesuai jenisnya.",
			ConfidenceScore:     90,
			AnalysisDetail:      "fixture",
		},
	}
}
