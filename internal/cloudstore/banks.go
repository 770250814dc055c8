package cloudstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/storage"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// bankDocID keys banks by name so re-seeding replaces rather than duplicates.
func bankDocID(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// SaveWasteBanks upserts banks keyed by name.
func (s *FirestoreStorage) SaveWasteBanks(ctx context.Context, banks []model.WasteBank) error {
	for i := range banks {
		if err := storage.ValidateWasteBank(&banks[i]); err != nil {
			return err
		}
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(banks))
	for i := range banks {
		if id := bankDocID(banks[i].Name); id != "" {
			banks[i].ID = id
		} else if banks[i].ID == "" {
			banks[i].ID = uuid.NewString()
		}
		job, err := bw.Set(s.client.Collection(banksCollection).Doc(banks[i].ID), toBankDoc(banks[i]))
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue bank %s: %w", banks[i].Name, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to save bank %s: %w", banks[i].Name, err)
		}
	}
	return nil
}

// GetWasteBanks returns all banks ordered by name.
func (s *FirestoreStorage) GetWasteBanks(ctx context.Context) ([]model.WasteBank, error) {
	snaps, err := s.client.Collection(banksCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query waste banks: %w", err)
	}

	banks := make([]model.WasteBank, 0, len(snaps))
	for _, snap := range snaps {
		var doc bankDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode waste bank %s: %w", snap.Ref.ID, err)
		}
		banks = append(banks, doc.toModel(snap.Ref.ID))
	}

	sort.Slice(banks, func(i, j int) bool { return banks[i].Name < banks[j].Name })
	return banks, nil
}
