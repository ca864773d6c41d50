package signals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// AccountReader is the read-only surface consumed from the account CRUD layer.
type AccountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetKYCStatuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]enums.KYCStatus, error)
	GetAccountsBatch(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Account, error)
}

// ReviewReader is the read-only surface consumed from the review layer.
type ReviewReader interface {
	GetReviewsFor(ctx context.Context, accountID uuid.UUID) ([]models.Review, error)
	// GetReviewsBy returns the reviewer's reviews created at or after since;
	// a zero since returns all of them.
	GetReviewsBy(ctx context.Context, reviewerID uuid.UUID, since time.Time) ([]models.Review, error)
}

// ViolationReader is the read-only surface over moderation outcomes.
type ViolationReader interface {
	GetVerifiedReportCount(ctx context.Context, accountID uuid.UUID) (int, error)
	GetSuspensionCount(ctx context.Context, accountID uuid.UUID) (int, error)
	GetActiveWarnings(ctx context.Context, accountID uuid.UUID) ([]models.Warning, error)
}

// ListingReader is the read-only surface consumed from the listing layer.
type ListingReader interface {
	GetApprovedActiveListingCount(ctx context.Context, accountID uuid.UUID) (int, error)
	GetRejectedListingCount(ctx context.Context, accountID uuid.UUID) (int, error)
}

// Repository bundles every consumed read surface behind one gorm connection.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed read repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetKYCStatuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]enums.KYCStatus, error) {
	statuses := make(map[uuid.UUID]enums.KYCStatus, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}
	var rows []struct {
		ID        uuid.UUID
		KYCStatus enums.KYCStatus
	}
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Select("id", "kyc_status").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		statuses[row.ID] = row.KYCStatus
	}
	return statuses, nil
}

func (r *Repository) GetAccountsBatch(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Account, error) {
	query := r.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}
	var accounts []models.Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Repository) GetReviewsFor(ctx context.Context, accountID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("reviewed_account_id = ?", accountID).
		Where("status <> ?", enums.ReviewStatusRemoved).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *Repository) GetReviewsBy(ctx context.Context, reviewerID uuid.UUID, since time.Time) ([]models.Review, error) {
	query := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Where("status <> ?", enums.ReviewStatusRemoved)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	var reviews []models.Review
	if err := query.Order("created_at ASC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *Repository) GetVerifiedReportCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("reported_account_id = ? AND verified", accountID).
		Count(&count).Error
	return int(count), err
}

func (r *Repository) GetSuspensionCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Suspension{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return int(count), err
}

func (r *Repository) GetActiveWarnings(ctx context.Context, accountID uuid.UUID) ([]models.Warning, error) {
	var warnings []models.Warning
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Find(&warnings).Error
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

func (r *Repository) GetApprovedActiveListingCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("account_id = ? AND status = ? AND active", accountID, enums.ListingStatusApproved).
		Count(&count).Error
	return int(count), err
}

func (r *Repository) GetRejectedListingCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("account_id = ? AND status = ?", accountID, enums.ListingStatusRejected).
		Count(&count).Error
	return int(count), err
}
