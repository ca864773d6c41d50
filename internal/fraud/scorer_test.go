package fraud

import (
	"testing"
	"time"

	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

func cleanSignals() signals.ReviewSignals {
	return signals.ReviewSignals{
		ReviewerAccountAge:      90 * 24 * time.Hour,
		ReviewsLast24h:          1,
		ReviewerTotalReviews:    8,
		ReviewerDistinctTargets: 6,
	}
}

func hasFlag(result Result, flag enums.FraudFlag) bool {
	for _, signal := range result.Signals {
		if signal.Flag == flag {
			return true
		}
	}
	return false
}

func TestScoreCleanSubmission(t *testing.T) {
	result := NewScorer(25).Score(cleanSignals())

	if result.Score != 0 {
		t.Fatalf("score = %d, want 0", result.Score)
	}
	if !result.AutoVerify {
		t.Fatal("clean submission should auto-verify")
	}
	if len(result.Signals) != 0 {
		t.Fatalf("signals = %v, want none", result.Signals)
	}
}

func TestScoreNewAccountWithVelocity(t *testing.T) {
	sig := cleanSignals()
	sig.ReviewerAccountAge = 3 * 24 * time.Hour
	sig.ReviewsLast24h = 6

	result := NewScorer(25).Score(sig)

	if result.Score != 40 {
		t.Fatalf("score = %d, want 40", result.Score)
	}
	if result.AutoVerify {
		t.Fatal("score 40 must not auto-verify at threshold 25")
	}
	if !hasFlag(result, enums.FraudFlagNewAccount) || !hasFlag(result, enums.FraudFlagReviewVelocity) {
		t.Fatalf("signals = %v, want new_account and review_velocity", result.Signals)
	}
}

func TestScoreIndicatorWeights(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*signals.ReviewSignals)
		wantScore int
		wantFlag  enums.FraudFlag
	}{
		{
			name:      "shared ip",
			mutate:    func(s *signals.ReviewSignals) { s.SameIPOtherReviewer = true },
			wantScore: 30,
			wantFlag:  enums.FraudFlagSharedIP,
		},
		{
			name:      "shared device",
			mutate:    func(s *signals.ReviewSignals) { s.SameDeviceOtherReviewer = true },
			wantScore: 40,
			wantFlag:  enums.FraudFlagSharedDevice,
		},
		{
			name:      "velocity at threshold",
			mutate:    func(s *signals.ReviewSignals) { s.ReviewsLast24h = 5 },
			wantScore: 25,
			wantFlag:  enums.FraudFlagReviewVelocity,
		},
		{
			name:      "new account",
			mutate:    func(s *signals.ReviewSignals) { s.ReviewerAccountAge = 6 * 24 * time.Hour },
			wantScore: 15,
			wantFlag:  enums.FraudFlagNewAccount,
		},
		{
			name: "single target",
			mutate: func(s *signals.ReviewSignals) {
				s.ReviewerTotalReviews = 3
				s.ReviewerDistinctTargets = 1
			},
			wantScore: 20,
			wantFlag:  enums.FraudFlagSingleTarget,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := cleanSignals()
			tc.mutate(&sig)

			result := NewScorer(25).Score(sig)
			if result.Score != tc.wantScore {
				t.Errorf("score = %d, want %d", result.Score, tc.wantScore)
			}
			if !hasFlag(result, tc.wantFlag) {
				t.Errorf("signals = %v, want %s", result.Signals, tc.wantFlag)
			}
		})
	}
}

func TestScoreBelowThresholdAutoVerifies(t *testing.T) {
	sig := cleanSignals()
	sig.ReviewerAccountAge = 2 * 24 * time.Hour

	result := NewScorer(25).Score(sig)

	if result.Score != 15 {
		t.Fatalf("score = %d, want 15", result.Score)
	}
	if !result.AutoVerify {
		t.Fatal("score 15 should auto-verify at threshold 25")
	}
}

func TestScoreAtThresholdBlocks(t *testing.T) {
	sig := cleanSignals()
	sig.ReviewsLast24h = 5

	result := NewScorer(25).Score(sig)

	if result.Score != 25 {
		t.Fatalf("score = %d, want 25", result.Score)
	}
	if result.AutoVerify {
		t.Fatal("a score equal to the threshold must not auto-verify")
	}
}

func TestScoreClampsAtHundred(t *testing.T) {
	sig := signals.ReviewSignals{
		SameIPOtherReviewer:     true,
		SameDeviceOtherReviewer: true,
		ReviewsLast24h:          9,
		ReviewerAccountAge:      time.Hour,
		ReviewerTotalReviews:    9,
		ReviewerDistinctTargets: 1,
	}

	result := NewScorer(25).Score(sig)

	if result.Score != 100 {
		t.Fatalf("score = %d, want clamp at 100", result.Score)
	}
}

func TestIncompleteSignalsFailClosed(t *testing.T) {
	sig := cleanSignals()
	sig.Incomplete = []enums.FraudFlag{enums.FraudFlagSharedIP}

	result := NewScorer(25).Score(sig)

	if result.Score != 0 {
		t.Fatalf("score = %d, want 0", result.Score)
	}
	if result.AutoVerify {
		t.Fatal("incomplete collection must block auto-verification")
	}
	if !hasFlag(result, enums.FraudFlagScoringIncomplete) {
		t.Fatalf("signals = %v, want scoring_incomplete", result.Signals)
	}
}

func TestIncompleteIndicatorNotEvaluatedOnZeroValues(t *testing.T) {
	sig := cleanSignals()
	// The reviewer lookup failed, so age holds its zero value. That must
	// not register as a new account.
	sig.ReviewerAccountAge = 0
	sig.Incomplete = []enums.FraudFlag{enums.FraudFlagNewAccount}

	result := NewScorer(25).Score(sig)

	if hasFlag(result, enums.FraudFlagNewAccount) {
		t.Fatal("failed indicator must not trigger on its zero value")
	}
	if result.AutoVerify {
		t.Fatal("incomplete collection must block auto-verification")
	}
}

func TestNewScorerDefaultThreshold(t *testing.T) {
	sig := cleanSignals()
	sig.ReviewerAccountAge = 24 * time.Hour

	result := NewScorer(0).Score(sig)
	if !result.AutoVerify {
		t.Fatal("score 15 should auto-verify under the default threshold of 25")
	}
}
