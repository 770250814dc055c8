// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/binwise/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Profile operations
	CreateProfile(ctx context.Context, profile *model.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) error

	// History operations
	AppendHistory(ctx context.Context, entry *model.ScanHistoryEntry) (string, error)
	GetHistory(ctx context.Context, userID string) ([]model.ScanHistoryEntry, error)
	GetHistoryEntry(ctx context.Context, entryID string) (*model.ScanHistoryEntry, error)
	UpdateHistoryEntry(ctx context.Context, entryID string, update model.HistoryUpdate) error
	DeleteHistoryEntry(ctx context.Context, entryID string) error

	// Point ledger operations
	RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) error
	GetPointTransactions(ctx context.Context, userID string) ([]model.PointTransaction, error)

	// Waste bank directory
	SaveWasteBanks(ctx context.Context, banks []model.WasteBank) error
	GetWasteBanks(ctx context.Context) ([]model.WasteBank, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Close() error
}

// ScanRecord is everything written when a confirmed scan is saved.
type ScanRecord struct {
	Entry         model.ScanHistoryEntry
	ProfileUpdate model.ProfileUpdate
	Ledger        model.PointTransaction
}

// ScanRecorder is implemented by storages that can write a scan, its profile
// totals and its ledger line as one unit of work.
type ScanRecorder interface {
	RecordScan(ctx context.Context, record ScanRecord) (string, error)
}

// ProfileReader reads profiles. It is the seam used by the offline cache.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
