package payloads

import (
	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// IdentityStatusChangedEvent signals a KYC state transition.
type IdentityStatusChangedEvent struct {
	AccountID uuid.UUID       `json:"accountId"`
	OldStatus enums.KYCStatus `json:"oldStatus"`
	NewStatus enums.KYCStatus `json:"newStatus"`
}

// ReviewEvent signals a review insert, update or delete. The reviewed
// account is the one whose trust score it affects.
type ReviewEvent struct {
	ReviewID          uuid.UUID `json:"reviewId"`
	ReviewerID        uuid.UUID `json:"reviewerId"`
	ReviewedAccountID uuid.UUID `json:"reviewedAccountId"`
	Rating            int       `json:"rating"`
}

// ListingStatusChangedEvent signals a moderation transition on a listing.
type ListingStatusChangedEvent struct {
	ListingID uuid.UUID           `json:"listingId"`
	AccountID uuid.UUID           `json:"accountId"`
	OldStatus enums.ListingStatus `json:"oldStatus"`
	NewStatus enums.ListingStatus `json:"newStatus"`
}

// WarningIssuedEvent signals a new admin warning against an account.
type WarningIssuedEvent struct {
	WarningID uuid.UUID `json:"warningId"`
	AccountID uuid.UUID `json:"accountId"`
	Points    int       `json:"points"`
}

// AccountScoreUpdatedEvent is emitted by the score ledger after a non-zero
// delta. It is not a recompute trigger.
type AccountScoreUpdatedEvent struct {
	AccountID uuid.UUID         `json:"accountId"`
	OldScore  int               `json:"oldScore"`
	NewScore  int               `json:"newScore"`
	Delta     int               `json:"delta"`
	Reason    enums.ScoreReason `json:"reason"`
}

// ScoreNotificationEvent asks the notification collaborator to tell the
// account owner about a significant score change.
type ScoreNotificationEvent struct {
	AccountID uuid.UUID `json:"accountId"`
	OldScore  int       `json:"oldScore"`
	NewScore  int       `json:"newScore"`
	Delta     int       `json:"delta"`
}
