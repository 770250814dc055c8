// Package cloudstore implements service.Storage on Cloud Firestore so that
// several devices can share one user's profile and history.
package cloudstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Veraticus/binwise/internal/service"
)

// Collection names shared with the other clients of the same project.
const (
	usersCollection        = "users"
	historyCollection      = "riwayatScan"
	transactionsCollection = "transaksiPoin"
	banksCollection        = "bankSampah"
)

// Config selects the Firestore project.
type Config struct {
	ProjectID       string
	CredentialsFile string
	// DatabaseID selects a named database. Empty means the default one.
	DatabaseID string
}

// FirestoreStorage implements service.Storage on Firestore.
type FirestoreStorage struct {
	client *firestore.Client
}

// Compile-time checks.
var (
	_ service.Storage      = (*FirestoreStorage)(nil)
	_ service.ScanRecorder = (*FirestoreStorage)(nil)
)

// NewFirestoreStorage connects to Firestore. FIRESTORE_EMULATOR_HOST is
// honored by the client library.
func NewFirestoreStorage(ctx context.Context, cfg Config) (*FirestoreStorage, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project ID is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var (
		client *firestore.Client
		err    error
	)
	if cfg.DatabaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStorage{client: client}, nil
}

// Migrate is a no-op; Firestore collections are schemaless.
func (s *FirestoreStorage) Migrate(_ context.Context) error {
	return nil
}

// Close releases the client.
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
