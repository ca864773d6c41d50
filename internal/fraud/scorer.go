package fraud

import (
	"time"

	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// Indicator weights. Correlated-device reuse outweighs a shared IP since
// NAT makes IP collisions common on residential networks.
const (
	sharedIPPoints     = 30
	sharedDevicePoints = 40
	velocityPoints     = 25
	newAccountPoints   = 15
	singleTargetPoints = 20

	velocityThreshold    = 5
	newAccountWindow     = 7 * 24 * time.Hour
	singleTargetMinTotal = 3

	minFraudScore = 0
	maxFraudScore = 100
)

// Signal is one triggered indicator with its contribution, persisted
// alongside the review for moderator context.
type Signal struct {
	Flag   enums.FraudFlag
	Points int
}

// Result is the fraud assessment for a single review submission.
type Result struct {
	Score   int
	Signals []Signal
	// AutoVerify is true only when the score is under the threshold AND
	// every indicator was collected. Missing indicators fail closed.
	AutoVerify bool
}

// Scorer evaluates review submissions against correlated history.
type Scorer struct {
	threshold int
}

// NewScorer builds a scorer with the auto-verify threshold. Scores at or
// above the threshold route the review to the moderation queue.
func NewScorer(threshold int) *Scorer {
	if threshold <= 0 {
		threshold = 25
	}
	return &Scorer{threshold: threshold}
}

// Score is a pure function of the collected signals: identical inputs
// always produce identical results. Indicators whose collection failed are
// skipped rather than evaluated on zero values; their absence alone blocks
// auto-verification.
func (s *Scorer) Score(sig signals.ReviewSignals) Result {
	failed := map[enums.FraudFlag]bool{}
	for _, flag := range sig.Incomplete {
		failed[flag] = true
	}

	var triggered []Signal

	if !failed[enums.FraudFlagSharedIP] && sig.SameIPOtherReviewer {
		triggered = append(triggered, Signal{enums.FraudFlagSharedIP, sharedIPPoints})
	}
	if !failed[enums.FraudFlagSharedDevice] && sig.SameDeviceOtherReviewer {
		triggered = append(triggered, Signal{enums.FraudFlagSharedDevice, sharedDevicePoints})
	}
	if !failed[enums.FraudFlagReviewVelocity] && sig.ReviewsLast24h >= velocityThreshold {
		triggered = append(triggered, Signal{enums.FraudFlagReviewVelocity, velocityPoints})
	}
	if !failed[enums.FraudFlagNewAccount] && sig.ReviewerAccountAge < newAccountWindow {
		triggered = append(triggered, Signal{enums.FraudFlagNewAccount, newAccountPoints})
	}
	if !failed[enums.FraudFlagSingleTarget] &&
		sig.ReviewerTotalReviews >= singleTargetMinTotal && sig.ReviewerDistinctTargets == 1 {
		triggered = append(triggered, Signal{enums.FraudFlagSingleTarget, singleTargetPoints})
	}

	score := 0
	for _, signal := range triggered {
		score += signal.Points
	}
	if score < minFraudScore {
		score = minFraudScore
	}
	if score > maxFraudScore {
		score = maxFraudScore
	}

	result := Result{
		Score:      score,
		Signals:    triggered,
		AutoVerify: score < s.threshold,
	}

	if len(sig.Incomplete) > 0 {
		result.AutoVerify = false
		result.Signals = append(result.Signals, Signal{enums.FraudFlagScoringIncomplete, 0})
	}

	return result
}
