// Package storage provides the data persistence layer for binwise.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidStatus    = errors.New("invalid processing status")
	ErrInvalidEntry     = errors.New("invalid history entry")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrInvalidLedger    = errors.New("invalid point transaction")
	ErrInvalidWasteBank = errors.New("invalid waste bank")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateProfile(p *model.UserProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	}
	if p.TotalPoints < 0 || p.TotalScanCount < 0 || p.TotalWasteKg < 0 {
		return fmt.Errorf("%w: totals cannot be negative", ErrInvalidProfile)
	}
	if p.Level != "" && p.Level.Rank() < 0 {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidProfile, p.Level)
	}
	return nil
}

func validateProfileUpdate(u model.ProfileUpdate) error {
	if u.TotalPoints != nil && *u.TotalPoints < 0 {
		return fmt.Errorf("%w: total points cannot be negative", ErrInvalidProfile)
	}
	if u.TotalScanCount != nil && *u.TotalScanCount < 0 {
		return fmt.Errorf("%w: scan count cannot be negative", ErrInvalidProfile)
	}
	if u.TotalWasteKg != nil && *u.TotalWasteKg < 0 {
		return fmt.Errorf("%w: waste total cannot be negative", ErrInvalidProfile)
	}
	if u.Level != nil && u.Level.Rank() < 0 {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidProfile, *u.Level)
	}
	return nil
}

func validateEntry(e *model.ScanHistoryEntry) error {
	if e == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.Result.ItemName) == "" {
		return fmt.Errorf("%w: missing item name", ErrInvalidEntry)
	}
	if math.IsNaN(e.WeightKg) || math.IsInf(e.WeightKg, 0) || e.WeightKg <= 0 {
		return fmt.Errorf("%w: %v", common.ErrInvalidWeight, e.WeightKg)
	}
	if price := e.Result.EstimatedPricePerKg; math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return fmt.Errorf("%w: price %v is not a non-negative number", ErrInvalidEntry, price)
	}
	if c := e.Result.ConfidenceScore; math.IsNaN(c) || c < 0 || c > 100 {
		return fmt.Errorf("%w: confidence %v outside 0-100", ErrInvalidEntry, e.Result.ConfidenceScore)
	}
	if e.ProcessingStatus != "" {
		if _, ok := model.ParseProcessingStatus(string(e.ProcessingStatus)); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, e.ProcessingStatus)
		}
	}
	return nil
}

func validateHistoryUpdate(u model.HistoryUpdate) error {
	if u.ProcessingStatus != nil {
		if _, ok := model.ParseProcessingStatus(string(*u.ProcessingStatus)); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, *u.ProcessingStatus)
		}
	}
	return nil
}

func validateLedger(t *model.PointTransaction) error {
	if t == nil {
		return fmt.Errorf("%w: point transaction", ErrNilParameter)
	}
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidLedger)
	}
	if t.PointsBefore+t.PointsChange != t.PointsAfter {
		return fmt.Errorf("%w: %d + %d != %d", ErrInvalidLedger, t.PointsBefore, t.PointsChange, t.PointsAfter)
	}
	return nil
}

func validateWasteBank(b *model.WasteBank) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidWasteBank)
	}
	if b.Coordinates.Latitude < -90 || b.Coordinates.Latitude > 90 ||
		b.Coordinates.Longitude < -180 || b.Coordinates.Longitude > 180 {
		return fmt.Errorf("%w: %s has invalid coordinates", ErrInvalidWasteBank, b.Name)
	}
	return nil
}

// ValidateEntry checks an entry before it is written by any backend.
func ValidateEntry(e *model.ScanHistoryEntry) error { return validateEntry(e) }

// ValidateProfile checks a profile before it is created by any backend.
func ValidateProfile(p *model.UserProfile) error { return validateProfile(p) }

// ValidateProfileUpdate checks a partial profile update.
func ValidateProfileUpdate(u model.ProfileUpdate) error { return validateProfileUpdate(u) }

// ValidateHistoryUpdate checks a partial history update.
func ValidateHistoryUpdate(u model.HistoryUpdate) error { return validateHistoryUpdate(u) }

// ValidateLedger checks that a point transaction balances.
func ValidateLedger(t *model.PointTransaction) error { return validateLedger(t) }

// ValidateWasteBank checks a bank's name and coordinates.
func ValidateWasteBank(b *model.WasteBank) error { return validateWasteBank(b) }
