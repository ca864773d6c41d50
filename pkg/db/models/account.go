package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

// Account represents the canonical identity entity. The scoring engine only
// reads profile/KYC fields and writes the cached score aggregates; row
// ownership stays with the account CRUD layer.
type Account struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	KYCStatus   enums.KYCStatus `gorm:"column:kyc_status;type:kyc_status_enum;not null;default:'unverified'"`
	DisplayName string          `gorm:"column:display_name;not null"`
	PhotoURL    *string         `gorm:"column:photo_url"`
	Country     *string         `gorm:"column:country"`
	Phone       *string         `gorm:"column:phone"`
	Bio         *string         `gorm:"column:bio"`

	TotalReviews   int             `gorm:"column:total_reviews;not null;default:0"`
	AverageRating  decimal.Decimal `gorm:"column:average_rating;type:numeric(3,2);not null;default:0"`
	TrustScore     int             `gorm:"column:trust_score;not null;default:0"`
	ScoreUpdatedAt *time.Time      `gorm:"column:score_updated_at"`

	WarningCount int  `gorm:"column:warning_count;not null;default:0"`
	ReportCount  int  `gorm:"column:report_count;not null;default:0"`
	Suspended    bool `gorm:"column:suspended;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProfileComplete reports whether every profile field carries a value.
func (a Account) ProfileComplete() bool {
	has := func(s *string) bool { return s != nil && *s != "" }
	return a.DisplayName != "" && has(a.PhotoURL) && has(a.Country) && has(a.Phone) && has(a.Bio)
}
