package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// SubmitReviewRequest is the submission payload. Submitter network
// attributes come from the transport layer, not the client body.
type SubmitReviewRequest struct {
	ReviewedAccountID uuid.UUID  `json:"reviewedAccountId" validate:"required"`
	Rating            int        `json:"rating" validate:"required,gte=1,lte=5"`
	Comment           *string    `json:"comment" validate:"omitempty,max=2000"`
	TransactionID     *uuid.UUID `json:"transactionId"`
	ListingID         *uuid.UUID `json:"listingId"`

	ReviewerID        uuid.UUID `json:"-"`
	SubmitterIP       string    `json:"-"`
	DeviceFingerprint string    `json:"-"`
}

// ReviewResponse is the API shape of a stored review.
type ReviewResponse struct {
	ID                uuid.UUID          `json:"id"`
	ReviewerID        uuid.UUID          `json:"reviewerId"`
	ReviewedAccountID uuid.UUID          `json:"reviewedAccountId"`
	Rating            int                `json:"rating"`
	Comment           *string            `json:"comment,omitempty"`
	Status            enums.ReviewStatus `json:"status"`
	IsVerified        bool               `json:"isVerified"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// ToReviewResponse maps the stored row to its API shape. The fraud score
// and raised signals stay internal.
func ToReviewResponse(review *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:                review.ID,
		ReviewerID:        review.ReviewerID,
		ReviewedAccountID: review.ReviewedAccountID,
		Rating:            review.Rating,
		Comment:           review.Comment,
		Status:            review.Status,
		IsVerified:        review.IsVerified,
		CreatedAt:         review.CreatedAt,
	}
}
