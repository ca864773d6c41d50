package models

import (
	"time"

	"github.com/google/uuid"
)

// Warning is an admin-issued point deduction. Expired warnings stop counting
// against the score but are never deleted.
type Warning struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	IssuedBy  uuid.UUID  `gorm:"column:issued_by;type:uuid;not null"`
	Points    int        `gorm:"column:points;not null"`
	Reason    string     `gorm:"column:reason;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// ActiveAt reports whether the warning still deducts points at the given time.
func (w Warning) ActiveAt(now time.Time) bool {
	return w.ExpiresAt == nil || w.ExpiresAt.After(now)
}
