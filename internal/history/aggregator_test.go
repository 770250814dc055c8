package history

import (
	"testing"
	"time"

	"github.com/Veraticus/binwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id, item string, cat model.WasteCategory, weight, price float64, ts time.Time) model.ScanHistoryEntry {
	return model.ScanHistoryEntry{
		ID:        id,
		UserID:    "user-1",
		Timestamp: ts,
		WeightKg:  weight,
		Result: model.ScanResult{
			IsWaste:             true,
			Category:            cat,
			ItemName:            item,
			EstimatedPricePerKg: price,
		},
	}
}

func fixtures() []model.ScanHistoryEntry {
	base := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)
	return []model.ScanHistoryEntry{
		entry("scan-3", "Kaleng Aluminium", model.CategoryMetal, 0.3, 8000, base.Add(24*time.Hour)),
		entry("scan-1", "Botol PET", model.CategoryPlastic, 0.5, 3500, base.Add(9*24*time.Hour)),
		entry("scan-2", "Kardus Bekas", model.CategoryPaper, 2.0, 2000, base.Add(7*24*time.Hour)),
		entry("scan-4", "Botol Kecap", model.CategoryPlastic, 0.2, 3000, base.Add(3*24*time.Hour)),
	}
}

func TestFilterAndSummarizeSingleEntryValue(t *testing.T) {
	entries := []model.ScanHistoryEntry{
		entry("a", "Botol PET", model.CategoryPlastic, 2.5, 3500, time.Now()),
	}

	got := FilterAndSummarize(entries, Filter{})

	assert.Equal(t, 1, got.Count)
	assert.InDelta(t, 2.5, got.TotalWeightKg, 1e-9)
	assert.InDelta(t, 8750, got.TotalValue, 1e-9)
}

func TestFilterAndSummarizeSortsNewestFirst(t *testing.T) {
	got := FilterAndSummarize(fixtures(), Filter{})

	require.Len(t, got.Entries, 4)
	ids := []string{got.Entries[0].ID, got.Entries[1].ID, got.Entries[2].ID, got.Entries[3].ID}
	assert.Equal(t, []string{"scan-1", "scan-2", "scan-4", "scan-3"}, ids)
	for i := 1; i < len(got.Entries); i++ {
		assert.False(t, got.Entries[i].Timestamp.After(got.Entries[i-1].Timestamp))
	}
}

func TestFilterAndSummarizeKeepsOrderForEqualTimestamps(t *testing.T) {
	at := time.Date(2024, 12, 5, 8, 0, 0, 0, time.UTC)
	entries := []model.ScanHistoryEntry{
		entry("first", "Botol PET", model.CategoryPlastic, 1, 3500, at),
		entry("older", "Kardus", model.CategoryPaper, 1, 2000, at.Add(-time.Hour)),
		entry("second", "Kaleng", model.CategoryMetal, 1, 8000, at),
		entry("third", "Koran", model.CategoryPaper, 1, 1500, at),
	}

	got := FilterAndSummarize(entries, Filter{})

	ids := make([]string, 0, len(got.Entries))
	for _, e := range got.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"first", "second", "third", "older"}, ids)
}

func TestFilterAndSummarizeSearch(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "case insensitive", search: "BOTOL", want: []string{"scan-1", "scan-4"}},
		{name: "substring", search: "kard", want: []string{"scan-2"}},
		{name: "no match", search: "kaca", want: []string{}},
		{name: "empty matches all", search: "", want: []string{"scan-1", "scan-2", "scan-4", "scan-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndSummarize(fixtures(), Filter{Search: tt.search})
			ids := make([]string, 0, len(got.Entries))
			for _, e := range got.Entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), got.Count)
		})
	}
}

func TestFilterAndSummarizeCategory(t *testing.T) {
	plastic := model.CategoryPlastic
	got := FilterAndSummarize(fixtures(), Filter{Category: &plastic})

	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 0.7, got.TotalWeightKg, 1e-9)
	assert.InDelta(t, 0.5*3500+0.2*3000, got.TotalValue, 1e-9)
	require.Len(t, got.ByCategory, 1)
	assert.Equal(t, model.CategoryPlastic, got.ByCategory[0].Category)
}

func TestFilterAndSummarizeTimeWindow(t *testing.T) {
	since := time.Date(2024, 12, 4, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 12, 10, 9, 0, 0, 0, time.UTC)

	got := FilterAndSummarize(fixtures(), Filter{Since: since, Until: until})

	require.Equal(t, 2, got.Count)
	assert.Equal(t, "scan-2", got.Entries[0].ID)
	assert.Equal(t, "scan-4", got.Entries[1].ID)
}

func TestFilterAndSummarizeSumsMatchEntries(t *testing.T) {
	got := FilterAndSummarize(fixtures(), Filter{Search: "o"})

	weight, value := 0.0, 0.0
	for _, e := range got.Entries {
		weight += e.WeightKg
		value += e.WeightKg * e.Result.EstimatedPricePerKg
	}
	assert.Equal(t, len(got.Entries), got.Count)
	assert.InDelta(t, weight, got.TotalWeightKg, 1e-9)
	assert.InDelta(t, value, got.TotalValue, 1e-9)

	catCount := 0
	for _, c := range got.ByCategory {
		catCount += c.Count
	}
	assert.Equal(t, got.Count, catCount)
}

func TestFilterAndSummarizeDoesNotReorderInput(t *testing.T) {
	in := fixtures()
	_ = FilterAndSummarize(in, Filter{})
	assert.Equal(t, "scan-3", in[0].ID)
}

func TestFilterAndSummarizeEmpty(t *testing.T) {
	got := FilterAndSummarize(nil, Filter{})
	assert.Equal(t, 0, got.Count)
	assert.Empty(t, got.Entries)
	assert.Zero(t, got.TotalValue)
}

func TestParseCategoryFilter(t *testing.T) {
	c, ok := ParseCategoryFilter("all")
	assert.True(t, ok)
	assert.Nil(t, c)

	c, ok = ParseCategoryFilter("Kertas")
	require.True(t, ok)
	assert.Equal(t, model.CategoryPaper, *c)

	_, ok = ParseCategoryFilter("glass")
	assert.False(t, ok)
}
