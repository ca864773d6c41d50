package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateAccount OutboxAggregateType = "account"
	AggregateReview  OutboxAggregateType = "review"
	AggregateListing OutboxAggregateType = "listing"
	AggregateWarning OutboxAggregateType = "warning"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateAccount,
	AggregateReview,
	AggregateListing,
	AggregateWarning,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventIdentityStatusChanged OutboxEventType = "identity_status_changed"
	EventReviewCreated         OutboxEventType = "review_created"
	EventReviewUpdated         OutboxEventType = "review_updated"
	EventReviewDeleted         OutboxEventType = "review_deleted"
	EventListingStatusChanged  OutboxEventType = "listing_status_changed"
	EventWarningIssued         OutboxEventType = "warning_issued"
	EventAccountScoreUpdated   OutboxEventType = "account_score_updated"
	EventScoreNotification     OutboxEventType = "score_notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventIdentityStatusChanged,
	EventReviewCreated,
	EventReviewUpdated,
	EventReviewDeleted,
	EventListingStatusChanged,
	EventWarningIssued,
	EventAccountScoreUpdated,
	EventScoreNotification,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// RecomputeTriggers lists the event types that feed the recompute
// dispatcher. account_score_updated is deliberately absent so the ledger's
// own write never re-enters the pipeline.
var RecomputeTriggers = []OutboxEventType{
	EventIdentityStatusChanged,
	EventReviewCreated,
	EventReviewUpdated,
	EventReviewDeleted,
	EventListingStatusChanged,
	EventWarningIssued,
}

// IsRecomputeTrigger reports whether the event type enqueues a recompute.
func (e OutboxEventType) IsRecomputeTrigger() bool {
	for _, candidate := range RecomputeTriggers {
		if candidate == e {
			return true
		}
	}
	return false
}
