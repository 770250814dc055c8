package model

import (
	"testing"
	"time"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want WasteCategory
	}{
		{"Plastik", CategoryPlastic},
		{"plastic", CategoryPlastic},
		{" KERTAS ", CategoryPaper},
		{"Organik", CategoryOrganic},
		{"Logam", CategoryMetal},
		{"B3", CategoryHazardous},
		{"hazardous", CategoryHazardous},
		{"Residu", CategoryResidual},
		{"Kaca", CategoryResidual},
		{"", CategoryResidual},
		{"styrofoam", CategoryResidual},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeCategory(tt.in); got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCategoryPresentationIsTotal(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
		if c.Color() == "" || c.Icon() == "" {
			t.Errorf("%s has no presentation", c)
		}
	}

	unknown := WasteCategory("Glass")
	if unknown.Valid() {
		t.Error("Glass should not be a valid category")
	}
	if unknown.Color() != CategoryResidual.Color() || unknown.Icon() != CategoryResidual.Icon() {
		t.Error("unknown categories should render like Residual")
	}
	if CategoryPlastic.Color() != "#3b82f6" || CategoryPlastic.Icon() != "bottle-soda" {
		t.Errorf("unexpected plastic presentation %s %s", CategoryPlastic.Color(), CategoryPlastic.Icon())
	}
}

func TestParseProcessingStatus(t *testing.T) {
	tests := map[string]ProcessingStatus{
		"pending":     StatusPending,
		"Belum":       StatusPending,
		"in-progress": StatusInProgress,
		"Sedang":      StatusInProgress,
		"done":        StatusDone,
		"Selesai":     StatusDone,
	}
	for in, want := range tests {
		got, ok := ParseProcessingStatus(in)
		if !ok || got != want {
			t.Errorf("ParseProcessingStatus(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseProcessingStatus("archived"); ok {
		t.Error("archived should not parse")
	}
}

func TestTierRank(t *testing.T) {
	order := []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if Tier("Diamond").Rank() != -1 {
		t.Error("unknown tier should rank -1")
	}
	if tier, ok := ParseTier("gold"); !ok || tier != TierGold {
		t.Errorf("ParseTier(gold) = %q, %v", tier, ok)
	}
}

func TestProfileUpdateApply(t *testing.T) {
	now := time.Date(2024, 12, 10, 10, 30, 0, 0, time.UTC)
	points := 475
	level := TierSilver
	profile := UserProfile{ID: "u1", DisplayName: "Demo", TotalPoints: 450, Level: TierBronze}

	got := ProfileUpdate{TotalPoints: &points, Level: &level, LastActiveAt: &now}.Apply(profile)

	if got.TotalPoints != 475 || got.Level != TierSilver || !got.LastActiveAt.Equal(now) {
		t.Errorf("unexpected profile after update: %+v", got)
	}
	if got.DisplayName != "Demo" {
		t.Error("untouched fields should be preserved")
	}
	if profile.TotalPoints != 450 {
		t.Error("Apply must not mutate its input")
	}
}

func TestEstimatedValue(t *testing.T) {
	e := ScanHistoryEntry{WeightKg: 2.5, Result: ScanResult{EstimatedPricePerKg: 3500}}
	if got := e.EstimatedValue(); got != 8750 {
		t.Errorf("EstimatedValue() = %v, want 8750", got)
	}
}

func TestWasteBankAccepts(t *testing.T) {
	bank := WasteBank{
		Materials:      []string{"Plastik", "Kertas", "Kaca"},
		PurchasePrices: map[string]float64{"Plastik": 3500, "Kaca": 1500},
	}

	if !bank.Accepts(CategoryPlastic) || !bank.Accepts(CategoryPaper) {
		t.Error("bank should accept plastic and paper")
	}
	if bank.Accepts(CategoryResidual) {
		t.Error("glass must not be treated as residual")
	}
	if price, ok := bank.PriceFor(CategoryPlastic); !ok || price != 3500 {
		t.Errorf("PriceFor(plastic) = %v, %v", price, ok)
	}
	if _, ok := bank.PriceFor(CategoryPaper); ok {
		t.Error("no paper price was listed")
	}
}
