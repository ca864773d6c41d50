package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// ReviewFraudSignal persists one weighted fraud indicator raised while a
// review was scored. Rows are immutable once the review is accepted.
type ReviewFraudSignal struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewID  uuid.UUID       `gorm:"column:review_id;type:uuid;not null;index"`
	Flag      enums.FraudFlag `gorm:"column:flag;type:fraud_flag_enum;not null"`
	Weight    int             `gorm:"column:weight;not null"`
	Message   string          `gorm:"column:message;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
