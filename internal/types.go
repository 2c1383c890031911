package internal

import (
	"time"

	"reorderflow/internal/sheet"
)

// ReorderItem is one SKU selected for restocking in a run. Immutable after
// extraction.
type ReorderItem struct {
	ProductCode    string
	VendorCategory string
	ReorderQty     float64
	Raw            []sheet.Value
}

type ExclusionReason string

const (
	ExcludedByGrade    ExclusionReason = "GRADE"
	ExcludedByDiscount ExclusionReason = "RECENT_DISCOUNT"
)

// ExclusionRecord is the most recent price-down history record that keeps
// a product key out of the reorder set. Rebuilt every run, never persisted.
type ExclusionRecord struct {
	ProductKey   string
	Grade        string
	DiscountRate *float64
	DecisionDate *time.Time
	Reason       ExclusionReason
}

// FailedVendor records which dispatch categories failed for a vendor.
// Persisted as JSON so a later retry run can target only what failed.
type FailedVendor struct {
	Name     string `json:"name"`
	Today    bool   `json:"today"`
	Previous bool   `json:"previous"`
}

// DispatchProgress is the checkpoint written when the dispatch loop hits
// its execution-time ceiling. LastIndex is the index of the last vendor
// that completed.
type DispatchProgress struct {
	LastIndex     int            `json:"lastIndex"`
	SuccessCount  int            `json:"successCount"`
	FailCount     int            `json:"failCount"`
	FailedVendors []FailedVendor `json:"failedVendors"`
	TotalVendors  int            `json:"totalVendors"`
	SavedAt       time.Time      `json:"savedAt"`
}

// QueryDateInfo is the freshness verdict for the computed source rows.
type QueryDateInfo struct {
	IsToday      bool
	DateStr      string
	FullDateTime string
}
