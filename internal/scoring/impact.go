package scoring

import "math"

// Conversion factors per kilogram of diverted waste.
const (
	CO2KgPerKg       = 2.5
	WaterLitersPerKg = 15.0
	KgPerTree        = 10.0
)

// Impact is the estimated environmental benefit of diverted waste.
type Impact struct {
	CO2Kg       float64 `json:"co2_kg"`
	WaterLiters float64 `json:"water_liters"`
	TreesSaved  int     `json:"trees_saved"`
}

// EstimateImpact converts a cumulative waste weight into an impact estimate.
// Non-finite and non-positive totals have no impact; the tree count
// saturates at math.MaxInt32.
func EstimateImpact(totalWasteKg float64) Impact {
	if totalWasteKg <= 0 || math.IsNaN(totalWasteKg) || math.IsInf(totalWasteKg, 0) {
		return Impact{}
	}
	trees := math.Min(math.Floor(totalWasteKg/KgPerTree), math.MaxInt32)
	return Impact{
		CO2Kg:       totalWasteKg * CO2KgPerKg,
		WaterLiters: totalWasteKg * WaterLitersPerKg,
		TreesSaved:  int(trees),
	}
}
