package trustscore

import (
	"reflect"
	"testing"
	"time"

	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

var collectedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func baseSignals() signals.Signals {
	return signals.Signals{
		KYCStatus:        enums.KYCStatusUnverified,
		AccountCreatedAt: collectedAt,
		CollectedAt:      collectedAt,
		Gaps:             map[types.FactorName]bool{},
	}
}

func verifiedReviews(n, rating int) []signals.ReviewSample {
	samples := make([]signals.ReviewSample, n)
	for i := range samples {
		samples[i] = signals.ReviewSample{
			Rating:           rating,
			IsValid:          true,
			IsVerified:       true,
			ReviewerVerified: true,
		}
	}
	return samples
}

func TestCalculateBrandNewAccount(t *testing.T) {
	result := Calculate(baseSignals())

	if result.Score != 0 {
		t.Fatalf("score = %d, want 0", result.Score)
	}
	for _, name := range types.FactorNames {
		factor, ok := result.Breakdown[name]
		if !ok {
			t.Fatalf("breakdown missing factor %s", name)
		}
		if factor.Points != 0 {
			t.Errorf("factor %s = %d points, want 0", name, factor.Points)
		}
	}
}

func TestCalculateEstablishedSeller(t *testing.T) {
	sig := baseSignals()
	sig.KYCStatus = enums.KYCStatusApproved
	sig.AccountCreatedAt = collectedAt.AddDate(0, -15, 0)
	sig.Reviews = verifiedReviews(12, 5)
	sig.ApprovedActiveListings = 11
	sig.ProfileComplete = true

	result := Calculate(sig)

	if result.Score != 50 {
		t.Fatalf("score = %d, want 50", result.Score)
	}

	want := map[types.FactorName]int{
		types.FactorIdentityVerified:   15,
		types.FactorTenureThreeMonths:  10,
		types.FactorTenureTwelveMonths: 10,
		types.FactorReviewQuality:      5,
		types.FactorActiveListings:     5,
		types.FactorCompleteProfile:    5,
	}
	for name, points := range want {
		if got := result.Breakdown[name].Points; got != points {
			t.Errorf("factor %s = %d points, want %d", name, got, points)
		}
	}
}

func TestCalculateClampsAtZero(t *testing.T) {
	sig := baseSignals()
	sig.AccountCreatedAt = collectedAt.AddDate(0, -1, 0)
	sig.VerifiedReports = 3

	result := Calculate(sig)

	if result.Score != 0 {
		t.Fatalf("score = %d, want 0 after clamp", result.Score)
	}
	if got := result.Breakdown[types.FactorVerifiedReports].Points; got != -15 {
		t.Errorf("verified reports factor = %d, want -15", got)
	}
	if total := result.Breakdown.Total(); total != -15 {
		t.Errorf("raw total = %d, want -15", total)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	sig := baseSignals()
	sig.KYCStatus = enums.KYCStatusApproved
	sig.AccountCreatedAt = collectedAt.AddDate(0, -6, 0)
	sig.Reviews = verifiedReviews(4, 4)
	sig.VerifiedReports = 1

	first := Calculate(sig)
	second := Calculate(sig)

	if first.Score != second.Score {
		t.Fatalf("scores diverged: %d vs %d", first.Score, second.Score)
	}
	if !reflect.DeepEqual(first.Breakdown, second.Breakdown) {
		t.Fatal("breakdowns diverged on identical input")
	}
}

// Review-quality points round down. An average of 4.7 over 10 reviews is
// floor(4.7) = 4, never 5.
func TestReviewQualityFloor(t *testing.T) {
	sig := baseSignals()
	sig.Reviews = append(verifiedReviews(7, 5), verifiedReviews(3, 4)...)

	result := Calculate(sig)

	if got := result.Breakdown[types.FactorReviewQuality].Points; got != 4 {
		t.Fatalf("review quality = %d points, want 4 (floor of 4.7)", got)
	}
}

func TestReviewQualityCappedAtFive(t *testing.T) {
	sig := baseSignals()
	sig.Reviews = verifiedReviews(50, 5)

	result := Calculate(sig)

	if got := result.Breakdown[types.FactorReviewQuality].Points; got != reviewQualityMax {
		t.Fatalf("review quality = %d points, want %d", got, reviewQualityMax)
	}
}

func TestReviewQualityVolumeWeight(t *testing.T) {
	sig := baseSignals()
	sig.Reviews = verifiedReviews(2, 5)

	// avg 5.0 but only 2 reviews: (5/5) * (2/10) * 5 = 1.
	result := Calculate(sig)

	if got := result.Breakdown[types.FactorReviewQuality].Points; got != 1 {
		t.Fatalf("review quality = %d points, want 1", got)
	}
}

func TestReviewQualityFilterRelaxation(t *testing.T) {
	tests := []struct {
		name       string
		samples    []signals.ReviewSample
		wantPoints int
		wantLevel  float64
	}{
		{
			name: "strict matches win",
			samples: []signals.ReviewSample{
				{Rating: 5, IsValid: true, IsVerified: true, ReviewerVerified: true},
				{Rating: 1, IsValid: true, IsVerified: true},
			},
			// Only the strict sample counts: (5/5)*(1/10)*5 = 0.5 -> 0.
			wantPoints: 0,
			wantLevel:  0,
		},
		{
			name: "falls back to unverified reviewers",
			samples: []signals.ReviewSample{
				{Rating: 5, IsValid: true, IsVerified: true},
				{Rating: 5, IsValid: true, IsVerified: true},
			},
			wantPoints: 1,
			wantLevel:  1,
		},
		{
			name: "falls back past validity",
			samples: []signals.ReviewSample{
				{Rating: 5, IsVerified: true},
				{Rating: 5, IsVerified: true},
			},
			wantPoints: 1,
			wantLevel:  2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := baseSignals()
			sig.Reviews = tc.samples

			factor := Calculate(sig).Breakdown[types.FactorReviewQuality]
			if factor.Points != tc.wantPoints {
				t.Errorf("points = %d, want %d", factor.Points, tc.wantPoints)
			}
			if got := factor.Metrics["filter_level"]; got != tc.wantLevel {
				t.Errorf("filter level = %v, want %v", got, tc.wantLevel)
			}
		})
	}
}

func TestPenaltyCaps(t *testing.T) {
	sig := baseSignals()
	sig.VerifiedReports = 10
	sig.RejectedListings = 10

	result := Calculate(sig)

	if got := result.Breakdown[types.FactorVerifiedReports].Points; got != verifiedReportFloor {
		t.Errorf("verified reports = %d, want capped %d", got, verifiedReportFloor)
	}
	if got := result.Breakdown[types.FactorRejectedListings].Points; got != rejectedListingFloor {
		t.Errorf("rejected listings = %d, want capped %d", got, rejectedListingFloor)
	}
}

func TestSuspensionsAndWarningsUncapped(t *testing.T) {
	sig := baseSignals()
	sig.Suspensions = 3
	sig.ActiveWarningPoints = 40

	result := Calculate(sig)

	if got := result.Breakdown[types.FactorSuspensions].Points; got != -75 {
		t.Errorf("suspensions = %d, want -75", got)
	}
	if got := result.Breakdown[types.FactorWarnings].Points; got != -40 {
		t.Errorf("warnings = %d, want -40", got)
	}
}

func TestScoreNeverExceedsBounds(t *testing.T) {
	sig := baseSignals()
	sig.KYCStatus = enums.KYCStatusApproved
	sig.AccountCreatedAt = collectedAt.AddDate(-5, 0, 0)
	sig.Reviews = verifiedReviews(100, 5)
	sig.ApprovedActiveListings = 100
	sig.ProfileComplete = true

	high := Calculate(sig)
	if high.Score < 0 || high.Score > 100 {
		t.Fatalf("score %d out of [0,100]", high.Score)
	}

	sig.Suspensions = 10
	low := Calculate(sig)
	if low.Score < 0 || low.Score > 100 {
		t.Fatalf("score %d out of [0,100]", low.Score)
	}
}

func TestSchemaGapMarksFactor(t *testing.T) {
	sig := baseSignals()
	sig.Gaps[types.FactorVerifiedReports] = true
	sig.Gaps[types.FactorSuspensions] = true

	result := Calculate(sig)

	if !result.Breakdown[types.FactorVerifiedReports].SchemaGap {
		t.Error("verified reports factor should carry the schema gap marker")
	}
	if !result.Breakdown[types.FactorSuspensions].SchemaGap {
		t.Error("suspensions factor should carry the schema gap marker")
	}
	if result.Breakdown[types.FactorWarnings].SchemaGap {
		t.Error("warnings factor should not carry the schema gap marker")
	}
}

func TestTenureBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		createdAt  time.Time
		wantThree  int
		wantTwelve int
	}{
		{"one day old", collectedAt.AddDate(0, 0, -1), 0, 0},
		{"exactly three months", collectedAt.AddDate(0, -3, 0), 10, 0},
		{"just under three months", collectedAt.AddDate(0, -3, 1), 0, 0},
		{"exactly twelve months", collectedAt.AddDate(-1, 0, 0), 10, 10},
		{"several years", collectedAt.AddDate(-3, 0, 0), 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := baseSignals()
			sig.AccountCreatedAt = tc.createdAt

			result := Calculate(sig)
			if got := result.Breakdown[types.FactorTenureThreeMonths].Points; got != tc.wantThree {
				t.Errorf("3-month factor = %d, want %d", got, tc.wantThree)
			}
			if got := result.Breakdown[types.FactorTenureTwelveMonths].Points; got != tc.wantTwelve {
				t.Errorf("12-month factor = %d, want %d", got, tc.wantTwelve)
			}
		})
	}
}
