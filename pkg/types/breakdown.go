package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FactorName identifies one trust score factor inside a breakdown.
type FactorName string

const (
	FactorIdentityVerified   FactorName = "identity_verified"
	FactorTenureThreeMonths  FactorName = "tenure_3_months"
	FactorTenureTwelveMonths FactorName = "tenure_12_months"
	FactorReviewQuality      FactorName = "review_quality"
	FactorActiveListings     FactorName = "active_listings"
	FactorCompleteProfile    FactorName = "complete_profile"
	FactorVerifiedReports    FactorName = "verified_reports"
	FactorRejectedListings   FactorName = "rejected_listings"
	FactorSuspensions        FactorName = "suspensions"
	FactorWarnings           FactorName = "warnings"
)

// FactorNames lists every factor in canonical order. A breakdown always
// carries all of them, including zero-point factors.
var FactorNames = []FactorName{
	FactorIdentityVerified,
	FactorTenureThreeMonths,
	FactorTenureTwelveMonths,
	FactorReviewQuality,
	FactorActiveListings,
	FactorCompleteProfile,
	FactorVerifiedReports,
	FactorRejectedListings,
	FactorSuspensions,
	FactorWarnings,
}

// Factor holds the contribution of a single breakdown factor.
type Factor struct {
	Points    int                `json:"points"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Rationale string             `json:"rationale"`
	SchemaGap bool               `json:"schemaGap,omitempty"`
}

// Breakdown is the per-factor explanation of a trust score, persisted as
// JSONB alongside every score history entry.
type Breakdown map[FactorName]Factor

// Total sums every factor's points without clamping.
func (b Breakdown) Total() int {
	total := 0
	for _, factor := range b {
		total += factor.Points
	}
	return total
}

// Value marshals the map into JSON for Postgres.
func (b Breakdown) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the map.
func (b *Breakdown) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("breakdown: unsupported scan type %T", value)
	}

	result := make(Breakdown)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*b = result
	return nil
}
