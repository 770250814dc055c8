package engine

import (
	"context"

	"github.com/Veraticus/binwise/internal/model"
)

// Classifier defines the contract for identifying a photographed item.
type Classifier interface {
	ClassifyImage(ctx context.Context, image model.ScanImage) (model.ScanResult, error)
	ExpandSuggestion(ctx context.Context, entry model.ScanHistoryEntry) (string, error)
}
