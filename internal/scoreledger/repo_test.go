package scoreledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/pagination"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  kyc_status TEXT NOT NULL DEFAULT 'unverified',
  display_name TEXT NOT NULL,
  photo_url TEXT,
  country TEXT,
  phone TEXT,
  bio TEXT,
  total_reviews INTEGER NOT NULL DEFAULT 0,
  average_rating TEXT NOT NULL DEFAULT '0',
  trust_score INTEGER NOT NULL DEFAULT 0,
  score_updated_at DATETIME,
  warning_count INTEGER NOT NULL DEFAULT 0,
  report_count INTEGER NOT NULL DEFAULT 0,
  suspended INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	scoreHistory := `
CREATE TABLE IF NOT EXISTS score_history (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  old_score INTEGER NOT NULL,
  new_score INTEGER NOT NULL,
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  actor TEXT NOT NULL,
  breakdown TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)
	require.NoError(t, db.Exec(scoreHistory).Error)
	return db
}

func newLedgerAccount(t *testing.T, db *gorm.DB, score int) *models.Account {
	t.Helper()

	account := &models.Account{
		ID:          uuid.New(),
		DisplayName: "Ledger Account",
		TrustScore:  score,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func newHistoryEntry(t *testing.T, db *gorm.DB, accountID uuid.UUID, oldScore, newScore int, created time.Time) *models.ScoreHistory {
	t.Helper()

	entry := &models.ScoreHistory{
		ID:        uuid.New(),
		AccountID: accountID,
		OldScore:  oldScore,
		NewScore:  newScore,
		Delta:     newScore - oldScore,
		Reason:    enums.ScoreReasonManual,
		Actor:     enums.ScoreActorAdmin,
		Breakdown: types.Breakdown{
			types.FactorIdentityVerified: {Points: newScore, Rationale: "test"},
		},
		CreatedAt: created,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestRepositoryUpdateScore(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	account := newLedgerAccount(t, db, 10)
	at := time.Now().UTC().Truncate(time.Second)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.UpdateScoreTx(tx, account.ID, 64, at)
	})
	require.NoError(t, err)

	got, err := repo.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, 64, got.TrustScore)
	require.NotNil(t, got.ScoreUpdatedAt)
	assert.True(t, got.ScoreUpdatedAt.Equal(at))
}

func TestRepositoryGetLatestHistory(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	account := newLedgerAccount(t, db, 0)
	now := time.Now().UTC()
	newHistoryEntry(t, db, account.ID, 0, 20, now.Add(-2*time.Hour))
	latest := newHistoryEntry(t, db, account.ID, 20, 35, now)

	got, err := repo.GetLatestHistory(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)
	assert.Equal(t, 35, got.NewScore)
	assert.Equal(t, 15, got.Delta)

	_, err = repo.GetLatestHistory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListHistory_pagination(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	account := newLedgerAccount(t, db, 0)
	other := newLedgerAccount(t, db, 0)

	now := time.Now().UTC()
	oldest := newHistoryEntry(t, db, account.ID, 0, 10, now.Add(-2*time.Hour))
	middle := newHistoryEntry(t, db, account.ID, 10, 25, now.Add(-time.Hour))
	newest := newHistoryEntry(t, db, account.ID, 25, 40, now)
	newHistoryEntry(t, db, other.ID, 0, 50, now)

	first, err := repo.ListHistory(context.Background(), account.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, newest.ID, first[0].ID)
	assert.Equal(t, middle.ID, first[1].ID)

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.ListHistory(context.Background(), account.ID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
}
