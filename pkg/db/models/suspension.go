package models

import (
	"time"

	"github.com/google/uuid"
)

// Suspension records one account suspension episode. Every row deducts from
// the trust score regardless of whether the suspension has been lifted.
type Suspension struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	Reason    string     `gorm:"column:reason;not null"`
	LiftedAt  *time.Time `gorm:"column:lifted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
