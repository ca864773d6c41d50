package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// ReviewRepository is the write surface for review submissions.
type ReviewRepository interface {
	CreateReviewTx(tx *gorm.DB, review *models.Review) error
	CreateFraudSignalsTx(tx *gorm.DB, signals []models.ReviewFraudSignal) error
	RefreshAccountAggregatesTx(tx *gorm.DB, accountID uuid.UUID) error
}

// Repository is the gorm-backed implementation.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed review repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateReviewTx(tx *gorm.DB, review *models.Review) error {
	return tx.Create(review).Error
}

func (r *Repository) CreateFraudSignalsTx(tx *gorm.DB, signals []models.ReviewFraudSignal) error {
	if len(signals) == 0 {
		return nil
	}
	return tx.Create(&signals).Error
}

// RefreshAccountAggregatesTx recomputes the denormalized review counters on
// the account row from the published reviews that currently exist.
func (r *Repository) RefreshAccountAggregatesTx(tx *gorm.DB, accountID uuid.UUID) error {
	var agg struct {
		Total   int64
		Average *float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS total", "AVG(rating) AS average").
		Where("reviewed_account_id = ?", accountID).
		Where("status = ?", enums.ReviewStatusPublished).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	average := 0.0
	if agg.Average != nil {
		average = *agg.Average
	}
	return tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"total_reviews":  agg.Total,
			"average_rating": average,
		}).Error
}

// RefreshAccountAggregates runs the aggregate refresh in its own transaction.
func (r *Repository) RefreshAccountAggregates(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.RefreshAccountAggregatesTx(tx, accountID)
	})
}

// GetReview loads one review by id.
func (r *Repository) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}
