package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxDLQ holds outbox rows that exhausted their publish attempts.
type OutboxDLQ struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OutboxEventID uuid.UUID       `gorm:"column:outbox_event_id;type:uuid;not null;uniqueIndex"`
	EventType     string          `gorm:"column:event_type;not null"`
	AggregateID   uuid.UUID       `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	FailureReason string          `gorm:"column:failure_reason;not null"`
	AttemptCount  int             `gorm:"column:attempt_count;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the singular table the migrations create.
func (OutboxDLQ) TableName() string {
	return "outbox_dlq"
}
