// Package scoring turns confirmed scan weights into points, levels and
// environmental impact estimates. Everything here is pure; the active rules
// are carried in a Policy value rather than baked into code.
package scoring

import (
	"fmt"
	"strings"

	"github.com/Veraticus/binwise/internal/common"
)

// Formula selects how a confirmed weight is converted into points.
type Formula string

const (
	// FormulaPerKilogram awards round(weight * PointsPerKg).
	FormulaPerKilogram Formula = "per_kg"
	// FormulaParticipation awards a flat bonus plus floor(weight * PointsPerKg).
	FormulaParticipation Formula = "participation"
)

// Preset names accepted by PolicyByName.
const (
	PresetMobile = "mobile"
	PresetWeb    = "web"
)

// Thresholds are the minimum point totals for each tier above Bronze.
// Bronze always starts at zero.
type Thresholds struct {
	Silver   int `json:"silver" yaml:"silver"`
	Gold     int `json:"gold" yaml:"gold"`
	Platinum int `json:"platinum" yaml:"platinum"`
}

// Validate checks the thresholds are positive and strictly increasing.
func (t Thresholds) Validate() error {
	if t.Silver <= 0 {
		return fmt.Errorf("%w: silver threshold must be positive, got %d", common.ErrInvalidConfig, t.Silver)
	}
	if t.Gold <= t.Silver || t.Platinum <= t.Gold {
		return fmt.Errorf("%w: thresholds must increase strictly (silver %d, gold %d, platinum %d)",
			common.ErrInvalidConfig, t.Silver, t.Gold, t.Platinum)
	}
	return nil
}

// Coefficient ceilings. With MaxWeightKg they keep a single award well
// inside int32.
const (
	MaxPointsPerKg        = 10_000.0
	MaxParticipationBonus = 10_000
)

// Policy is the complete set of scoring rules.
type Policy struct {
	Formula            Formula    `json:"formula" yaml:"formula"`
	Thresholds         Thresholds `json:"thresholds" yaml:"thresholds"`
	PointsPerKg        float64    `json:"points_per_kg" yaml:"points_per_kg"`
	ParticipationBonus int        `json:"participation_bonus" yaml:"participation_bonus"`
}

// MobilePolicy awards 10 points per kilogram and uses the wider tier bands.
func MobilePolicy() Policy {
	return Policy{
		Formula:     FormulaPerKilogram,
		PointsPerKg: 10,
		Thresholds:  Thresholds{Silver: 1000, Gold: 2500, Platinum: 5000},
	}
}

// WebPolicy rewards every scan with 10 points plus 5 per kilogram and uses
// the narrower tier bands.
func WebPolicy() Policy {
	return Policy{
		Formula:            FormulaParticipation,
		PointsPerKg:        5,
		ParticipationBonus: 10,
		Thresholds:         Thresholds{Silver: 200, Gold: 500, Platinum: 1000},
	}
}

// DefaultPolicy is the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return MobilePolicy()
}

// PolicyByName returns a named preset.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetMobile:
		return MobilePolicy(), nil
	case PresetWeb:
		return WebPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("%w: unknown scoring preset %q", common.ErrInvalidConfig, name)
	}
}

// Validate checks the policy can score weights and place totals into tiers.
func (p Policy) Validate() error {
	switch p.Formula {
	case FormulaPerKilogram, FormulaParticipation:
	default:
		return fmt.Errorf("%w: unknown points formula %q", common.ErrInvalidConfig, p.Formula)
	}
	if p.PointsPerKg <= 0 || p.PointsPerKg > MaxPointsPerKg {
		return fmt.Errorf("%w: points per kg must be within (0, %v], got %v", common.ErrInvalidConfig, MaxPointsPerKg, p.PointsPerKg)
	}
	if p.ParticipationBonus < 0 || p.ParticipationBonus > MaxParticipationBonus {
		return fmt.Errorf("%w: participation bonus must be within [0, %d], got %d",
			common.ErrInvalidConfig, MaxParticipationBonus, p.ParticipationBonus)
	}
	return p.Thresholds.Validate()
}
