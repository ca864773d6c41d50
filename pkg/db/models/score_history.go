package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

// ScoreHistory is the append-only trust score ledger. Rows are created by
// the score ledger service and never updated or deleted.
type ScoreHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID         `gorm:"column:account_id;type:uuid;not null;index:ix_score_history_account_created,priority:1"`
	OldScore  int               `gorm:"column:old_score;not null"`
	NewScore  int               `gorm:"column:new_score;not null"`
	Delta     int               `gorm:"column:delta;not null"`
	Reason    enums.ScoreReason `gorm:"column:reason;type:score_reason_enum;not null"`
	Actor     enums.ScoreActor  `gorm:"column:actor;type:score_actor_enum;not null"`
	Breakdown types.Breakdown   `gorm:"column:breakdown;type:jsonb;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index:ix_score_history_account_created,priority:2"`
}

// TableName pins the singular table the migrations create.
func (ScoreHistory) TableName() string {
	return "score_history"
}
