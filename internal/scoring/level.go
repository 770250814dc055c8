package scoring

import "github.com/Veraticus/binwise/internal/model"

// Level places a point total within the tier ladder.
type Level struct {
	Tier model.Tier `json:"tier"`
	// NextTier is empty at the top tier.
	NextTier model.Tier `json:"next_tier,omitempty"`
	// Floor is the first total belonging to Tier.
	Floor int `json:"floor"`
	// Ceiling is the first total belonging to NextTier, zero at the top tier.
	Ceiling int `json:"ceiling,omitempty"`
	// Progress is how far through the current band the total is, in [0,1].
	Progress float64 `json:"progress"`
}

// PointsToNext is the number of points still needed for the next tier.
func (l Level) PointsToNext(totalPoints int) int {
	if l.NextTier == "" {
		return 0
	}
	if remaining := l.Ceiling - totalPoints; remaining > 0 {
		return remaining
	}
	return 0
}

// ComputeLevel finds the tier for a point total. Bands are closed below and
// open above, so reaching a threshold exactly promotes with zero progress.
func (t Thresholds) ComputeLevel(totalPoints int) Level {
	if totalPoints < 0 {
		totalPoints = 0
	}

	switch {
	case totalPoints >= t.Platinum:
		return Level{Tier: model.TierPlatinum, Floor: t.Platinum, Progress: 1}
	case totalPoints >= t.Gold:
		return band(model.TierGold, model.TierPlatinum, t.Gold, t.Platinum, totalPoints)
	case totalPoints >= t.Silver:
		return band(model.TierSilver, model.TierGold, t.Silver, t.Gold, totalPoints)
	default:
		return band(model.TierBronze, model.TierSilver, 0, t.Silver, totalPoints)
	}
}

// ComputeLevel finds the tier for a point total under the policy's thresholds.
func (p Policy) ComputeLevel(totalPoints int) Level {
	return p.Thresholds.ComputeLevel(totalPoints)
}

func band(tier, next model.Tier, lower, upper, points int) Level {
	progress := 0.0
	if upper > lower {
		progress = float64(points-lower) / float64(upper-lower)
	}
	if progress > 1 {
		progress = 1
	}
	return Level{
		Tier:     tier,
		NextTier: next,
		Floor:    lower,
		Ceiling:  upper,
		Progress: progress,
	}
}
