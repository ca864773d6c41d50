package trustscore

import (
	"fmt"
	"math"
	"time"

	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

// Factor weights and caps. The positive ceiling is 50; the [0,100] clamp is
// a safety bound, never reached by positive factors alone.
const (
	identityVerifiedPoints   = 15
	tenureThreeMonthsPoints  = 10
	tenureTwelveMonthsPoints = 10
	reviewQualityMax         = 5
	activeListingsPoints     = 5
	activeListingsThreshold  = 10
	completeProfilePoints    = 5

	verifiedReportPenalty  = -5
	verifiedReportFloor    = -20
	rejectedListingPenalty = -3
	rejectedListingFloor   = -15
	suspensionPenalty      = -25

	minScore = 0
	maxScore = 100
)

// Result pairs the clamped score with its full factor breakdown.
type Result struct {
	Score     int
	Breakdown types.Breakdown
}

// Calculate derives the trust score from a signal snapshot. It is a pure
// function: identical snapshots always produce identical results.
func Calculate(sig signals.Signals) Result {
	breakdown := types.Breakdown{}

	breakdown[types.FactorIdentityVerified] = identityFactor(sig)
	threeMonths, twelveMonths := tenureFactors(sig)
	breakdown[types.FactorTenureThreeMonths] = threeMonths
	breakdown[types.FactorTenureTwelveMonths] = twelveMonths
	breakdown[types.FactorReviewQuality] = reviewQualityFactor(sig)
	breakdown[types.FactorActiveListings] = listingsFactor(sig)
	breakdown[types.FactorCompleteProfile] = profileFactor(sig)
	breakdown[types.FactorVerifiedReports] = reportsFactor(sig)
	breakdown[types.FactorRejectedListings] = rejectedListingsFactor(sig)
	breakdown[types.FactorSuspensions] = suspensionsFactor(sig)
	breakdown[types.FactorWarnings] = warningsFactor(sig)

	score := breakdown.Total()
	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	return Result{Score: score, Breakdown: breakdown}
}

func identityFactor(sig signals.Signals) types.Factor {
	if sig.KYCStatus == enums.KYCStatusApproved {
		return types.Factor{
			Points:    identityVerifiedPoints,
			Rationale: "identity verification approved",
		}
	}
	return types.Factor{
		Rationale: fmt.Sprintf("identity not verified (status %s)", sig.KYCStatus),
	}
}

func tenureFactors(sig signals.Signals) (types.Factor, types.Factor) {
	months := monthsBetween(sig.AccountCreatedAt, sig.CollectedAt)

	three := types.Factor{
		Metrics:   map[string]float64{"tenure_months": float64(months)},
		Rationale: "account younger than 3 months",
	}
	twelve := types.Factor{
		Metrics:   map[string]float64{"tenure_months": float64(months)},
		Rationale: "account younger than 12 months",
	}
	if months >= 3 {
		three.Points = tenureThreeMonthsPoints
		three.Rationale = "account at least 3 months old"
	}
	if months >= 12 {
		twelve.Points = tenureTwelveMonthsPoints
		twelve.Rationale = "account at least 12 months old"
	}
	return three, twelve
}

// reviewQualityFactor scores valid+verified reviews from identity-verified
// reviewers. When no review passes, the filter relaxes in two steps (drop
// the verified-reviewer requirement, then the validity requirement) so a
// schema-limited deployment is not zero-scored. Points use floor rounding.
func reviewQualityFactor(sig signals.Signals) types.Factor {
	filters := []struct {
		level string
		match func(signals.ReviewSample) bool
	}{
		{"strict", func(s signals.ReviewSample) bool { return s.IsValid && s.IsVerified && s.ReviewerVerified }},
		{"any_reviewer", func(s signals.ReviewSample) bool { return s.IsValid && s.IsVerified }},
		{"verified_only", func(s signals.ReviewSample) bool { return s.IsVerified }},
	}

	var n int
	var sum int
	level := filters[len(filters)-1].level
	for _, filter := range filters {
		n, sum = 0, 0
		for _, sample := range sig.Reviews {
			if filter.match(sample) {
				n++
				sum += sample.Rating
			}
		}
		if n > 0 {
			level = filter.level
			break
		}
	}

	factor := types.Factor{
		Metrics: map[string]float64{
			"review_count": float64(n),
			"filter_level": float64(filterLevelIndex(level)),
		},
		SchemaGap: sig.Gaps[types.FactorReviewQuality],
	}
	if n == 0 {
		factor.Rationale = "no qualifying reviews"
		return factor
	}

	avg := float64(sum) / float64(n)
	weight := float64(min(n, 10)) / 10
	raw := (avg / 5) * weight * reviewQualityMax

	points := int(math.Floor(raw))
	if points > reviewQualityMax {
		points = reviewQualityMax
	}

	factor.Points = points
	factor.Metrics["average_rating"] = avg
	factor.Rationale = fmt.Sprintf("%d qualifying reviews averaging %.2f (%s filter)", n, avg, level)
	return factor
}

func filterLevelIndex(level string) int {
	switch level {
	case "strict":
		return 0
	case "any_reviewer":
		return 1
	default:
		return 2
	}
}

func listingsFactor(sig signals.Signals) types.Factor {
	factor := types.Factor{
		Metrics:   map[string]float64{"approved_active_listings": float64(sig.ApprovedActiveListings)},
		Rationale: fmt.Sprintf("%d approved active listings (threshold %d)", sig.ApprovedActiveListings, activeListingsThreshold),
		SchemaGap: sig.Gaps[types.FactorActiveListings],
	}
	if sig.ApprovedActiveListings >= activeListingsThreshold {
		factor.Points = activeListingsPoints
	}
	return factor
}

func profileFactor(sig signals.Signals) types.Factor {
	if sig.ProfileComplete {
		return types.Factor{
			Points:    completeProfilePoints,
			Rationale: "profile complete",
		}
	}
	return types.Factor{Rationale: "profile incomplete"}
}

func reportsFactor(sig signals.Signals) types.Factor {
	points := sig.VerifiedReports * verifiedReportPenalty
	if points < verifiedReportFloor {
		points = verifiedReportFloor
	}
	return types.Factor{
		Points:    points,
		Metrics:   map[string]float64{"verified_reports": float64(sig.VerifiedReports)},
		Rationale: fmt.Sprintf("%d verified reports", sig.VerifiedReports),
		SchemaGap: sig.Gaps[types.FactorVerifiedReports],
	}
}

func rejectedListingsFactor(sig signals.Signals) types.Factor {
	points := sig.RejectedListings * rejectedListingPenalty
	if points < rejectedListingFloor {
		points = rejectedListingFloor
	}
	return types.Factor{
		Points:    points,
		Metrics:   map[string]float64{"rejected_listings": float64(sig.RejectedListings)},
		Rationale: fmt.Sprintf("%d rejected listings", sig.RejectedListings),
		SchemaGap: sig.Gaps[types.FactorRejectedListings],
	}
}

func suspensionsFactor(sig signals.Signals) types.Factor {
	return types.Factor{
		Points:    sig.Suspensions * suspensionPenalty,
		Metrics:   map[string]float64{"suspensions": float64(sig.Suspensions)},
		Rationale: fmt.Sprintf("%d suspensions", sig.Suspensions),
		SchemaGap: sig.Gaps[types.FactorSuspensions],
	}
}

func warningsFactor(sig signals.Signals) types.Factor {
	return types.Factor{
		Points:    -sig.ActiveWarningPoints,
		Metrics:   map[string]float64{"active_warning_points": float64(sig.ActiveWarningPoints)},
		Rationale: fmt.Sprintf("%d active warning points", sig.ActiveWarningPoints),
		SchemaGap: sig.Gaps[types.FactorWarnings],
	}
}

func monthsBetween(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
