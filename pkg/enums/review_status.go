package enums

import "fmt"

// ReviewStatus maps to the review_status enum in Postgres.
type ReviewStatus string

const (
	ReviewStatusPendingReview ReviewStatus = "pending_review"
	ReviewStatusPublished     ReviewStatus = "published"
	ReviewStatusRemoved       ReviewStatus = "removed"
)

var validReviewStatuses = []ReviewStatus{
	ReviewStatusPendingReview,
	ReviewStatusPublished,
	ReviewStatusRemoved,
}

// IsValid reports whether the value matches the canonical review_status enum.
func (s ReviewStatus) IsValid() bool {
	for _, candidate := range validReviewStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReviewStatus converts raw input into ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	for _, candidate := range validReviewStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review status %q", value)
}
