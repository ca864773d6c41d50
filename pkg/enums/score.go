package enums

import "fmt"

// ScoreReason maps to the score_reason enum in Postgres. It records why a
// trust score recompute was triggered.
type ScoreReason string

const (
	ScoreReasonIdentityChanged  ScoreReason = "identity_changed"
	ScoreReasonReviewActivity   ScoreReason = "review_activity"
	ScoreReasonListingModerated ScoreReason = "listing_moderated"
	ScoreReasonWarningIssued    ScoreReason = "warning_issued"
	ScoreReasonBackfill         ScoreReason = "backfill"
	ScoreReasonManual           ScoreReason = "manual"
)

var validScoreReasons = []ScoreReason{
	ScoreReasonIdentityChanged,
	ScoreReasonReviewActivity,
	ScoreReasonListingModerated,
	ScoreReasonWarningIssued,
	ScoreReasonBackfill,
	ScoreReasonManual,
}

// IsValid reports whether the value matches the canonical score_reason enum.
func (r ScoreReason) IsValid() bool {
	for _, candidate := range validScoreReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseScoreReason converts raw input into ScoreReason.
func ParseScoreReason(value string) (ScoreReason, error) {
	for _, candidate := range validScoreReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid score reason %q", value)
}

// ScoreActor maps to the score_actor enum in Postgres. It classifies who
// caused a score history entry.
type ScoreActor string

const (
	ScoreActorSystem ScoreActor = "system"
	ScoreActorAdmin  ScoreActor = "admin"
	ScoreActorReview ScoreActor = "review"
)

var validScoreActors = []ScoreActor{
	ScoreActorSystem,
	ScoreActorAdmin,
	ScoreActorReview,
}

// IsValid reports whether the value matches the canonical score_actor enum.
func (a ScoreActor) IsValid() bool {
	for _, candidate := range validScoreActors {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseScoreActor converts raw input into ScoreActor.
func ParseScoreActor(value string) (ScoreActor, error) {
	for _, candidate := range validScoreActors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid score actor %q", value)
}
