package scoreledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/internal/trustscore"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

// ScoreResponse is the public score view.
type ScoreResponse struct {
	AccountID uuid.UUID       `json:"accountId"`
	Score     int             `json:"score"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	Breakdown types.Breakdown `json:"breakdown,omitempty"`
}

// OwnScoreResponse is the owner-only score view with the full factor
// breakdown and improvement tips.
type OwnScoreResponse struct {
	AccountID uuid.UUID        `json:"accountId"`
	Score     int              `json:"score"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
	Breakdown types.Breakdown  `json:"breakdown,omitempty"`
	Tips      []trustscore.Tip `json:"tips"`
}

// HistoryEntryResponse is one ledger row in the owner's history view.
type HistoryEntryResponse struct {
	ID        uuid.UUID         `json:"id"`
	OldScore  int               `json:"oldScore"`
	NewScore  int               `json:"newScore"`
	Delta     int               `json:"delta"`
	Reason    enums.ScoreReason `json:"reason"`
	Actor     enums.ScoreActor  `json:"actor"`
	Breakdown types.Breakdown   `json:"breakdown,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// HistoryPage is one cursor page of ledger entries.
type HistoryPage struct {
	Entries    []HistoryEntryResponse `json:"entries"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}
