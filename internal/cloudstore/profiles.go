package cloudstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/storage"
)

func toFirestoreUpdates(fields []updateField) []firestore.Update {
	updates := make([]firestore.Update, len(fields))
	for i, f := range fields {
		updates[i] = firestore.Update{Path: f.Path, Value: f.Value}
	}
	return updates
}

// CreateProfile creates the user document. An existing document is an error.
func (s *FirestoreStorage) CreateProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := storage.ValidateProfile(profile); err != nil {
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

	_, err := s.client.Collection(usersCollection).Doc(profile.ID).Create(ctx, toUserDoc(*profile))
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("%w: user %s", common.ErrAlreadyExists, profile.ID)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfile reads a user document.
func (s *FirestoreStorage) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID", storage.ErrEmptyString)
	}

	snap, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", userID, err)
	}
	profile := doc.toModel(userID)
	return &profile, nil
}

// UpdateProfile applies a partial update. Writes are last-writer-wins.
func (s *FirestoreStorage) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) error {
	if userID == "" {
		return fmt.Errorf("%w: userID", storage.ErrEmptyString)
	}
	if err := storage.ValidateProfileUpdate(update); err != nil {
		return err
	}
	fields := profileUpdates(update)
	if len(fields) == 0 {
		return nil
	}

	_, err := s.client.Collection(usersCollection).Doc(userID).Update(ctx, toFirestoreUpdates(fields))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
