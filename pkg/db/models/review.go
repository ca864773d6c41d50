package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// Review is a rating one account leaves for another. Unique indexes keep a
// reviewer to a single review per transaction and per listing against the
// same account.
type Review struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewerID        uuid.UUID          `gorm:"column:reviewer_id;type:uuid;not null;uniqueIndex:ux_reviews_reviewer_target_txn,priority:1;uniqueIndex:ux_reviews_reviewer_target_listing,priority:1"`
	ReviewedAccountID uuid.UUID          `gorm:"column:reviewed_account_id;type:uuid;not null;uniqueIndex:ux_reviews_reviewer_target_txn,priority:2;uniqueIndex:ux_reviews_reviewer_target_listing,priority:2"`
	TransactionID     *uuid.UUID         `gorm:"column:transaction_id;type:uuid;uniqueIndex:ux_reviews_reviewer_target_txn,priority:3"`
	ListingID         *uuid.UUID         `gorm:"column:listing_id;type:uuid;uniqueIndex:ux_reviews_reviewer_target_listing,priority:3"`
	Rating            int                `gorm:"column:rating;not null"`
	Comment           *string            `gorm:"column:comment"`
	Status            enums.ReviewStatus `gorm:"column:status;type:review_status_enum;not null;default:'pending_review'"`
	IsValid           bool               `gorm:"column:is_valid;not null;default:true"`
	IsVerified        bool               `gorm:"column:is_verified;not null;default:false"`
	FraudScore        int                `gorm:"column:fraud_score;not null;default:0"`
	SubmitterIP       string             `gorm:"column:submitter_ip;not null;default:''"`
	DeviceFingerprint string             `gorm:"column:device_fingerprint;not null;default:''"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
