package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a user-filed complaint against an account. Only verified reports
// count against the trust score.
type Report struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReportedAccountID uuid.UUID `gorm:"column:reported_account_id;type:uuid;not null;index"`
	ReporterID        uuid.UUID `gorm:"column:reporter_id;type:uuid;not null"`
	Reason            string    `gorm:"column:reason;not null"`
	Verified          bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}
