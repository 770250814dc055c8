// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// ScanImage is an encoded photo submitted for classification.
type ScanImage struct {
	MIMEType string
	Data     []byte
}

// ScanResult is the structured answer the classifier gives for one image.
type ScanResult struct {
	Category            WasteCategory `json:"category"`
	ItemName            string        `json:"item_name"`
	HandlingSuggestion  string        `json:"handling_suggestion"`
	AnalysisDetail      string        `json:"analysis_detail"`
	EstimatedPricePerKg float64       `json:"estimated_price_per_kg"`
	ConfidenceScore     float64       `json:"confidence_score"`
	IsWaste             bool          `json:"is_waste"`
}

// ProcessingStatus tracks what the user has done with a scanned item.
type ProcessingStatus string

// Processing status constants.
const (
	StatusPending    ProcessingStatus = "Pending"
	StatusInProgress ProcessingStatus = "InProgress"
	StatusDone       ProcessingStatus = "Done"
)

// ParseProcessingStatus accepts the canonical names, a few spellings users
// type on the command line, and the labels older clients stored.
func ParseProcessingStatus(s string) (ProcessingStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "belum":
		return StatusPending, true
	case "inprogress", "in-progress", "in_progress", "sedang":
		return StatusInProgress, true
	case "done", "selesai":
		return StatusDone, true
	default:
		return "", false
	}
}

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Location describes where a scan was made.
type Location struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Address     string       `json:"address,omitempty"`
	City        string       `json:"city,omitempty"`
	Province    string       `json:"province,omitempty"`
}

// ScanHistoryEntry is a persisted scan.
type ScanHistoryEntry struct {
	Timestamp          time.Time        `json:"timestamp"`
	Location           *Location        `json:"location,omitempty"`
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	ImageRef           string           `json:"image_ref,omitempty"`
	ProcessingStatus   ProcessingStatus `json:"processing_status"`
	Note               string           `json:"note,omitempty"`
	ExpandedSuggestion string           `json:"expanded_suggestion,omitempty"`
	Result             ScanResult       `json:"result"`
	WeightKg           float64          `json:"weight_kg"`
	PointsEarned       int              `json:"points_earned"`
}

// EstimatedValue is weight times the estimated resale price.
func (e ScanHistoryEntry) EstimatedValue() float64 {
	return e.WeightKg * e.Result.EstimatedPricePerKg
}

// HistoryUpdate is a partial update of user-editable entry fields. Nil
// fields are left untouched.
type HistoryUpdate struct {
	ProcessingStatus   *ProcessingStatus
	Note               *string
	ExpandedSuggestion *string
}

// IsEmpty reports whether the update changes nothing.
func (u HistoryUpdate) IsEmpty() bool {
	return u.ProcessingStatus == nil && u.Note == nil && u.ExpandedSuggestion == nil
}
