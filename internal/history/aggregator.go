// Package history filters and summarizes a user's scan history.
package history

import (
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/binwise/internal/model"
)

// Filter selects history entries. The zero value matches everything.
type Filter struct {
	// Since and Until bound the timestamp as [Since, Until). Zero means unbounded.
	Since    time.Time
	Until    time.Time
	Category *model.WasteCategory
	Search   string
}

// CategoryTotals aggregates the entries of one category.
type CategoryTotals struct {
	Category      model.WasteCategory `json:"category"`
	Count         int                 `json:"count"`
	TotalWeightKg float64             `json:"total_weight_kg"`
	TotalValue    float64             `json:"total_value"`
}

// Summary is the result of filtering a history.
type Summary struct {
	Entries       []model.ScanHistoryEntry `json:"entries"`
	ByCategory    []CategoryTotals         `json:"by_category"`
	Count         int                      `json:"count"`
	TotalWeightKg float64                  `json:"total_weight_kg"`
	TotalValue    float64                  `json:"total_value"`
}

// Matches reports whether a single entry passes the filter.
func (f Filter) Matches(e model.ScanHistoryEntry) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Result.ItemName), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != nil && e.Result.Category != *f.Category {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

// FilterAndSummarize returns the matching entries newest first together
// with their count, weight and estimated value. The input is not modified.
func FilterAndSummarize(entries []model.ScanHistoryEntry, f Filter) Summary {
	filtered := make([]model.ScanHistoryEntry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			filtered = append(filtered, e)
		}
	}

	slices.SortStableFunc(filtered, func(a, b model.ScanHistoryEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	summary := Summary{Entries: filtered, Count: len(filtered)}
	perCategory := make(map[model.WasteCategory]*CategoryTotals)

	for _, e := range filtered {
		value := e.EstimatedValue()
		summary.TotalWeightKg += e.WeightKg
		summary.TotalValue += value

		totals, ok := perCategory[e.Result.Category]
		if !ok {
			totals = &CategoryTotals{Category: e.Result.Category}
			perCategory[e.Result.Category] = totals
		}
		totals.Count++
		totals.TotalWeightKg += e.WeightKg
		totals.TotalValue += value
	}

	for _, c := range model.AllCategories() {
		if totals, ok := perCategory[c]; ok {
			summary.ByCategory = append(summary.ByCategory, *totals)
			delete(perCategory, c)
		}
	}
	// Entries stored by other clients may carry categories outside the set.
	leftovers := make([]CategoryTotals, 0, len(perCategory))
	for _, totals := range perCategory {
		leftovers = append(leftovers, *totals)
	}
	slices.SortFunc(leftovers, func(a, b CategoryTotals) int { return strings.Compare(string(a.Category), string(b.Category)) })
	summary.ByCategory = append(summary.ByCategory, leftovers...)

	return summary
}

// ParseCategoryFilter turns user input into a category filter. Empty input
// and "all" mean no filter.
func ParseCategoryFilter(s string) (*model.WasteCategory, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return nil, true
	}
	c, ok := model.LookupCategory(trimmed)
	if !ok {
		return nil, false
	}
	return &c, true
}
