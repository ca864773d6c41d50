package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// Listing is owned by the excluded CRUD layer; the scoring engine reads the
// moderation status and active flag only.
type Listing struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID           `gorm:"column:account_id;type:uuid;not null;index"`
	Title     string              `gorm:"column:title;not null"`
	Status    enums.ListingStatus `gorm:"column:status;type:listing_status_enum;not null;default:'draft'"`
	Active    bool                `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
