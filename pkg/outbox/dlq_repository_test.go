package outbox

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
)

func setupDLQTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	dlq := `
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  outbox_event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  failure_reason TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(dlq).Error)
	return db
}

func TestDLQRepositoryInsert(t *testing.T) {
	db := setupDLQTestDB(t)
	repo := NewDLQRepository(db)

	eventID := uuid.New()
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		OutboxEventID: eventID,
		EventType:     "review_created",
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"reviewId":"abc"}`),
		FailureReason: "max_attempts: publish timed out",
		AttemptCount:  10,
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, entry)
	}))

	var got models.OutboxDLQ
	require.NoError(t, db.First(&got, "outbox_event_id = ?", eventID).Error)
	assert.Equal(t, entry.EventType, got.EventType)
	assert.Equal(t, entry.FailureReason, got.FailureReason)
	assert.Equal(t, 10, got.AttemptCount)
	assert.JSONEq(t, string(entry.Payload), string(got.Payload))
}

func TestDLQRepositoryInsertDuplicateEvent(t *testing.T) {
	db := setupDLQTestDB(t)
	repo := NewDLQRepository(db)

	eventID := uuid.New()
	entry := models.OutboxDLQ{
		ID:            uuid.New(),
		OutboxEventID: eventID,
		EventType:     "warning_issued",
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		FailureReason: "non_retryable: unknown event type",
		AttemptCount:  1,
	}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, entry)
	}))

	entry.ID = uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, entry)
	})
	assert.Error(t, err)
}

func TestDLQRepositoryInsertRequiresTx(t *testing.T) {
	repo := NewDLQRepository(setupDLQTestDB(t))
	assert.Error(t, repo.InsertTx(nil, models.OutboxDLQ{}))
}
