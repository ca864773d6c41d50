package scoreledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/pagination"
)

// LedgerRepository is the persistence surface for trust scores and their
// append-only history.
type LedgerRepository interface {
	GetAccountForUpdateTx(tx *gorm.DB, accountID uuid.UUID) (*models.Account, error)
	UpdateScoreTx(tx *gorm.DB, accountID uuid.UUID, score int, at time.Time) error
	InsertHistoryTx(tx *gorm.DB, entry *models.ScoreHistory) error

	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	GetLatestHistory(ctx context.Context, accountID uuid.UUID) (*models.ScoreHistory, error)
	ListHistory(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ScoreHistory, error)
}

// Repository is the gorm-backed implementation.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAccountForUpdateTx locks the account row for the recompute write.
func (r *Repository) GetAccountForUpdateTx(tx *gorm.DB, accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", accountID).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) UpdateScoreTx(tx *gorm.DB, accountID uuid.UUID, score int, at time.Time) error {
	return tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"trust_score":      score,
			"score_updated_at": at,
		}).Error
}

func (r *Repository) InsertHistoryTx(tx *gorm.DB, entry *models.ScoreHistory) error {
	return tx.Create(entry).Error
}

func (r *Repository) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetLatestHistory(ctx context.Context, accountID uuid.UUID) (*models.ScoreHistory, error) {
	var entry models.ScoreHistory
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListHistory pages the ledger newest-first with a keyset cursor.
func (r *Repository) ListHistory(ctx context.Context, accountID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ScoreHistory, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID,
		)
	}
	var entries []models.ScoreHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
