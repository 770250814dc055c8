package model

import "time"

// PointTransactionKind says why a user's point balance changed.
type PointTransactionKind string

// Point transaction kinds. Only scan awards are produced by this module;
// the others exist so ledgers written by other clients can be read.
const (
	PointsScan     PointTransactionKind = "scan"
	PointsRedeem   PointTransactionKind = "redeem"
	PointsBonus    PointTransactionKind = "bonus"
	PointsReferral PointTransactionKind = "referral"
)

// PointTransaction is one line of a user's point ledger.
type PointTransaction struct {
	Timestamp    time.Time            `json:"timestamp"`
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	ScanID       string               `json:"scan_id,omitempty"`
	Kind         PointTransactionKind `json:"kind"`
	Description  string               `json:"description"`
	PointsBefore int                  `json:"points_before"`
	PointsChange int                  `json:"points_change"`
	PointsAfter  int                  `json:"points_after"`
}
