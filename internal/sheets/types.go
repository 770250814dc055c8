package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/scoring"
)

// ScanRow is one line of the scan details section.
type ScanRow struct {
	Date       time.Time
	Item       string
	Category   string
	Status     string
	Note       string
	PricePerKg decimal.Decimal
	Value      decimal.Decimal
	WeightKg   float64
	Points     int
	Confidence float64
}

// CategoryRow is one line of the category breakdown.
type CategoryRow struct {
	Category string
	Value    decimal.Decimal
	WeightKg float64
	Count    int
}

// Report holds everything written to the spreadsheet.
type Report struct {
	DateRange   DateRange
	UserID      string
	DisplayName string
	Tier        model.Tier
	TotalValue  decimal.Decimal
	Scans       []ScanRow
	Categories  []CategoryRow
	Impact      scoring.Impact
	TotalPoints int
	TotalKg     float64
}

// DateRange represents the time period covered by the report.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// rupiah rounds a float amount to whole rupiah.
func rupiah(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(0)
}

// entryValue multiplies weight by price in decimal so per-row values add up
// exactly to the total.
func entryValue(e model.ScanHistoryEntry) decimal.Decimal {
	return decimal.NewFromFloat(e.WeightKg).Mul(decimal.NewFromFloat(e.Result.EstimatedPricePerKg)).Round(0)
}

// BuildReport turns a filtered history summary and the owner's profile into
// report rows. The date range spans the oldest to the newest entry.
func BuildReport(profile model.UserProfile, summary history.Summary) Report {
	report := Report{
		UserID:      profile.ID,
		DisplayName: profile.DisplayName,
		Tier:        profile.Level,
		TotalPoints: profile.TotalPoints,
		TotalKg:     summary.TotalWeightKg,
		Impact:      scoring.EstimateImpact(profile.TotalWasteKg),
		TotalValue:  decimal.Zero,
		Scans:       make([]ScanRow, 0, len(summary.Entries)),
		Categories:  make([]CategoryRow, 0, len(summary.ByCategory)),
	}

	for _, e := range summary.Entries {
		value := entryValue(e)
		report.TotalValue = report.TotalValue.Add(value)
		report.Scans = append(report.Scans, ScanRow{
			Date:       e.Timestamp,
			Item:       e.Result.ItemName,
			Category:   e.Result.Category.String(),
			Status:     string(e.ProcessingStatus),
			Note:       e.Note,
			PricePerKg: rupiah(e.Result.EstimatedPricePerKg),
			Value:      value,
			WeightKg:   e.WeightKg,
			Points:     e.PointsEarned,
			Confidence: e.Result.ConfidenceScore,
		})

		if report.DateRange.Start.IsZero() || e.Timestamp.Before(report.DateRange.Start) {
			report.DateRange.Start = e.Timestamp
		}
		if e.Timestamp.After(report.DateRange.End) {
			report.DateRange.End = e.Timestamp
		}
	}

	for _, c := range summary.ByCategory {
		report.Categories = append(report.Categories, CategoryRow{
			Category: c.Category.String(),
			Count:    c.Count,
			WeightKg: c.TotalWeightKg,
			Value:    rupiah(c.TotalValue),
		})
	}

	return report
}
