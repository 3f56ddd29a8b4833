package billing

import (
	"time"

	"github.com/google/uuid"
)

// BillLineItem is one billed medical charge extracted from a case's records.
// Sequence preserves ingestion order; duplicate tie-breaks depend on it.
type BillLineItem struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	CaseID        uuid.UUID  `db:"case_id" json:"case_id"`
	DocumentID    *uuid.UUID `db:"document_id" json:"document_id,omitempty"`
	Sequence      int        `db:"sequence" json:"sequence"`
	ProviderName  string     `db:"provider_name" json:"provider_name"`
	ServiceType   string     `db:"service_type" json:"service_type"`
	EncounterType string     `db:"encounter_type" json:"encounter_type"`
	ServiceCode   string     `db:"service_code" json:"service_code"`
	Description   string     `db:"description" json:"description"`
	ServiceDate   *time.Time `db:"service_date" json:"service_date,omitempty"`
	BilledAmount  float64    `db:"billed_amount" json:"billed_amount"`
	PaidAmount    *float64   `db:"paid_amount" json:"paid_amount,omitempty"`
	Outstanding   *float64   `db:"outstanding_balance" json:"outstanding_balance,omitempty"`
	Status        string     `db:"status" json:"status,omitempty"`
	IsDuplicate   bool       `db:"is_duplicate" json:"is_duplicate"`
	Assessment    string     `db:"assessment" json:"assessment,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Payment statuses reported by the billing source. Items may arrive with no
// status at all.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusDenied  = "denied"
)

func validItemStatus(s string) bool {
	switch s {
	case "", StatusPaid, StatusPending, StatusDenied:
		return true
	}
	return false
}

// Assessment buckets for a billed charge relative to the reasonable rate.
const (
	AssessmentReasonable = "reasonable"
	AssessmentHigh       = "high"
	AssessmentExcessive  = "excessive"
)

// ReasonablenessRow is the per-item output of rate analysis. Only items with
// a service code produce a row.
type ReasonablenessRow struct {
	ItemID               uuid.UUID `json:"item_id"`
	ServiceCode          string    `json:"service_code"`
	ProviderName         string    `json:"provider_name"`
	BilledAmount         float64   `json:"billed_amount"`
	BenchmarkRate        float64   `json:"benchmark_rate"`
	ReasonableRate       float64   `json:"reasonable_rate"`
	VariancePct          float64   `json:"variance_pct"`
	Assessment           string    `json:"assessment"`
	OverchargeAmount     float64   `json:"overcharge_amount"`
	OverchargePercentage int       `json:"overcharge_percentage"`
}

// Match types, from most to least specific.
const (
	MatchExact      = "exact"
	MatchNear       = "near"
	MatchUnbundling = "unbundling"
	MatchUpcoding   = "upcoding"
)

// DuplicateMatch pairs a canonical line item with a flagged one. The
// canonical side is the earliest occurrence and is never itself flagged.
type DuplicateMatch struct {
	CanonicalItemID     uuid.UUID `json:"canonical_item_id"`
	FlaggedItemID       uuid.UUID `json:"flagged_item_id"`
	MatchType           string    `json:"match_type"`
	Similarity          float64   `json:"similarity"`
	PotentialOvercharge float64   `json:"potential_overcharge"`
}

// RateAnalysis is the case-level fold over all reasonableness rows.
type RateAnalysis struct {
	TotalBilled        float64 `json:"total_billed"`
	TotalBenchmark     float64 `json:"total_benchmark"`
	OverallVariancePct float64 `json:"overall_variance_pct"`
	ReasonableCount    int     `json:"reasonable_count"`
	HighCount          int     `json:"high_count"`
	ExcessiveCount     int     `json:"excessive_count"`
	AverageVariance    float64 `json:"average_variance"`
	MedianVariance     float64 `json:"median_variance"`
	TotalOvercharge    float64 `json:"total_overcharge"`
}

// Rollup is a per-provider or per-service-type grouping of billed charges.
type Rollup struct {
	Name           string  `json:"name"`
	ItemCount      int     `json:"item_count"`
	TotalBilled    float64 `json:"total_billed"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// BillingSummary is the full report for a case. It is derived on demand from
// the stored line items and the static fee schedule; it is never the source
// of truth.
type BillingSummary struct {
	CaseID           uuid.UUID           `json:"case_id"`
	ItemCount        int                 `json:"item_count"`
	SkippedItemCount int                 `json:"skipped_item_count"`
	TotalBilled      float64             `json:"total_billed"`
	EarliestService  *time.Time          `json:"earliest_service,omitempty"`
	LatestService    *time.Time          `json:"latest_service,omitempty"`
	ByProvider       []Rollup            `json:"by_provider"`
	ByServiceType    []Rollup            `json:"by_service_type"`
	RateAnalysis     RateAnalysis        `json:"rate_analysis"`
	OverchargedRows  []ReasonablenessRow `json:"overcharged_rows"`
	Rows             []ReasonablenessRow `json:"rows"`
	DuplicateMatches []DuplicateMatch    `json:"duplicate_matches"`
}
