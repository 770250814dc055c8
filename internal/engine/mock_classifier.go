package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/binwise/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface.
// It derives a deterministic result from the image bytes so tests and demos
// can run without a model.
type MockClassifier struct {
	// Err, if set, is returned from every call.
	Err   error
	calls []MockCall
	mu    sync.Mutex
}

// MockCall records one classifier request.
type MockCall struct {
	Image   *model.ScanImage
	EntryID string
}

// NewMockClassifier creates a new mock classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{calls: make([]MockCall, 0)}
}

// ClassifyImage picks a result from keywords found in the image data.
func (m *MockClassifier) ClassifyImage(_ context.Context, image model.ScanImage) (model.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	img := image
	m.calls = append(m.calls, MockCall{Image: &img})
	if m.Err != nil {
		return model.ScanResult{}, m.Err
	}

	content := strings.ToLower(string(image.Data))
	switch {
	case strings.Contains(content, "bottle"):
		return mockResult(model.CategoryPlastic, "Botol plastik PET", 3500, 92), nil
	case strings.Contains(content, "banana"):
		return mockResult(model.CategoryOrganic, "Kulit pisang", 500, 88), nil
	case strings.Contains(content, "cardboard"):
		return mockResult(model.CategoryPaper, "Kardus bekas", 2000, 90), nil
	case strings.Contains(content, "can"):
		return mockResult(model.CategoryMetal, "Kaleng aluminium", 8000, 85), nil
	case strings.Contains(content, "battery"):
		return mockResult(model.CategoryHazardous, "Baterai bekas", 0, 80), nil
	case strings.Contains(content, "selfie"):
		result := mockResult(model.CategoryResidual, "Wajah", 0, 95)
		result.IsWaste = false
		return result, nil
	default:
		return mockResult(model.CategoryResidual, "Sampah campuran", 0, 55), nil
	}
}

// ExpandSuggestion returns a guide naming the item. The heading carries a
// revision number that grows with every request for the same entry, so
// repeated enrichment yields a different text each time.
func (m *MockClassifier) ExpandSuggestion(_ context.Context, entry model.ScanHistoryEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{EntryID: entry.ID})
	if m.Err != nil {
		return "", m.Err
	}

	revision := 0
	for _, c := range m.calls {
		if c.EntryID == entry.ID {
			revision++
		}
	}
	return MockSuggestion(entry.Result.ItemName, revision), nil
}

// MockSuggestion is the text ExpandSuggestion returns for the given item on
// its revision-th request.
func MockSuggestion(item string, revision int) string {
	return fmt.Sprintf("Panduan %s (revisi %d)\n1. Pisahkan %s dari sampah lain.\n2. Bersihkan bila perlu.\n3. Simpan di wadah kering.\n4. Setor ke bank sampah terdekat.",
		item, revision, item)
}

// SetError makes every later call fail with err. Use it instead of
// assigning Err while another goroutine may be calling the mock.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// GetCalls returns all recorded calls for verification in tests.
func (m *MockClassifier) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of recorded calls.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func mockResult(category model.WasteCategory, item string, price, confidence float64) model.ScanResult {
	return model.ScanResult{
		IsWaste:             true,
		Category:            category,
		ItemName:            item,
		EstimatedPricePerKg: price,
		HandlingSuggestion:  "Pisahkan sesuai jenisnya.",
		ConfidenceScore:     confidence,
		AnalysisDetail:      "mock classification",
	}
}
