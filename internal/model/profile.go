package model

import (
	"strings"
	"time"
)

// Tier is a user's level. Tiers are ordered Bronze < Silver < Gold < Platinum.
type Tier string

// Tier constants.
const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// Rank returns the tier's position in the ordering, or -1 for unknown tiers.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 0
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	default:
		return -1
	}
}

// ParseTier resolves a tier name case-insensitively.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bronze":
		return TierBronze, true
	case "silver":
		return TierSilver, true
	case "gold":
		return TierGold, true
	case "platinum":
		return TierPlatinum, true
	default:
		return "", false
	}
}

// UserProfile holds a user's identity and cumulative progress.
type UserProfile struct {
	JoinedAt       time.Time `json:"joined_at"`
	LastActiveAt   time.Time `json:"last_active_at"`
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	PhotoRef       string    `json:"photo_ref,omitempty"`
	Level          Tier      `json:"level"`
	TotalPoints    int       `json:"total_points"`
	TotalScanCount int       `json:"total_scan_count"`
	TotalWasteKg   float64   `json:"total_waste_kg"`
}

// ProfileUpdate is a partial profile update. Nil fields are left untouched.
type ProfileUpdate struct {
	LastActiveAt   *time.Time
	DisplayName    *string
	PhotoRef       *string
	Level          *Tier
	TotalPoints    *int
	TotalScanCount *int
	TotalWasteKg   *float64
}

// Apply returns a copy of p with the update applied.
func (u ProfileUpdate) Apply(p UserProfile) UserProfile {
	if u.LastActiveAt != nil {
		p.LastActiveAt = *u.LastActiveAt
	}
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.PhotoRef != nil {
		p.PhotoRef = *u.PhotoRef
	}
	if u.Level != nil {
		p.Level = *u.Level
	}
	if u.TotalPoints != nil {
		p.TotalPoints = *u.TotalPoints
	}
	if u.TotalScanCount != nil {
		p.TotalScanCount = *u.TotalScanCount
	}
	if u.TotalWasteKg != nil {
		p.TotalWasteKg = *u.TotalWasteKg
	}
	return p
}
