package scoring

import (
	"fmt"
	"math"

	"github.com/Veraticus/binwise/internal/common"
)

// MaxWeightKg is the heaviest single scan accepted. Anything above it is a
// typo or a bulk delivery, not one photographed item.
const MaxWeightKg = 1000.0

// ValidateWeight rejects weights that cannot describe a physical item.
func ValidateWeight(weightKg float64) error {
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return fmt.Errorf("%w: got %v", common.ErrInvalidWeight, weightKg)
	}
	if weightKg > MaxWeightKg {
		return fmt.Errorf("%w: %v kg exceeds the %v kg limit", common.ErrInvalidWeight, weightKg, MaxWeightKg)
	}
	return nil
}

// ComputePoints converts a confirmed weight into points under the policy.
func (p Policy) ComputePoints(weightKg float64) (int, error) {
	if err := ValidateWeight(weightKg); err != nil {
		return 0, err
	}

	switch p.Formula {
	case FormulaPerKilogram:
		return int(math.Round(weightKg * p.PointsPerKg)), nil
	case FormulaParticipation:
		return p.ParticipationBonus + int(math.Floor(weightKg*p.PointsPerKg)), nil
	default:
		return 0, fmt.Errorf("%w: unknown points formula %q", common.ErrInvalidConfig, p.Formula)
	}
}
