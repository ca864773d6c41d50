package scoreledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/internal/signals"
	"github.com/mirandavel/tradepost-backend/internal/trustscore"
	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/metrics"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/payloads"
	"github.com/mirandavel/tradepost-backend/pkg/pagination"
)

// TxRunner executes work inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SignalSource assembles the scoring input snapshot.
type SignalSource interface {
	Collect(ctx context.Context, accountID uuid.UUID) (*signals.Signals, error)
}

// Emitter queues a domain event inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RecomputeResult reports one completed recompute.
type RecomputeResult struct {
	AccountID uuid.UUID
	OldScore  int
	NewScore  int
	Delta     int
}

// Service owns the trust score ledger.
type Service interface {
	// Recompute collects signals, recalculates the score, persists the new
	// value with a ledger entry, and emits follow-up events. Zero-delta
	// recomputes still append a ledger row.
	Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*RecomputeResult, error)

	GetScore(ctx context.Context, accountID uuid.UUID) (*ScoreResponse, error)
	GetOwnScore(ctx context.Context, accountID uuid.UUID) (*OwnScoreResponse, error)
	ListHistory(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	tx             TxRunner
	repo           LedgerRepository
	source         SignalSource
	emitter        Emitter
	metrics        *metrics.ScoringMetrics
	logg           *logger.Logger
	locks          *keyedMutex
	notifyDeltaMin int
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Tx             TxRunner
	Repo           LedgerRepository
	Source         SignalSource
	Emitter        Emitter
	Metrics        *metrics.ScoringMetrics
	Logger         *logger.Logger
	NotifyDeltaMin int
}

// NewService validates dependencies and builds the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "signal source required")
	}
	if params.Emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	notifyDeltaMin := params.NotifyDeltaMin
	if notifyDeltaMin <= 0 {
		notifyDeltaMin = 5
	}
	return &service{
		tx:             params.Tx,
		repo:           params.Repo,
		source:         params.Source,
		emitter:        params.Emitter,
		metrics:        params.Metrics,
		logg:           params.Logger,
		locks:          newKeyedMutex(),
		notifyDeltaMin: notifyDeltaMin,
	}, nil
}

func (s *service) Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*RecomputeResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid score reason")
	}
	if !actor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid score actor")
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	started := time.Now()
	result, err := s.recompute(ctx, accountID, reason, actor)
	s.metrics.ObserveRecompute(string(reason), time.Since(started))
	if err != nil {
		s.metrics.IncFailure(string(reason))
		return nil, err
	}
	s.metrics.IncSuccess(string(reason))
	return result, nil
}

func (s *service) recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*RecomputeResult, error) {
	collected, err := s.source.Collect(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated := trustscore.Calculate(*collected)

	var result *RecomputeResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		account, err := s.repo.GetAccountForUpdateTx(tx, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock account row")
		}

		oldScore := account.TrustScore
		newScore := calculated.Score
		delta := newScore - oldScore
		now := time.Now().UTC()

		if err := s.repo.UpdateScoreTx(tx, accountID, newScore, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update trust score")
		}

		entry := &models.ScoreHistory{
			AccountID: accountID,
			OldScore:  oldScore,
			NewScore:  newScore,
			Delta:     delta,
			Reason:    reason,
			Actor:     actor,
			Breakdown: calculated.Breakdown,
		}
		if err := s.repo.InsertHistoryTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append score history")
		}

		if delta != 0 {
			err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAccountScoreUpdated,
				AggregateType: enums.AggregateAccount,
				AggregateID:   accountID,
				Data: payloads.AccountScoreUpdatedEvent{
					AccountID: accountID,
					OldScore:  oldScore,
					NewScore:  newScore,
					Delta:     delta,
					Reason:    reason,
				},
				Version: 1,
			})
			if err != nil {
				return err
			}
		}

		if abs(delta) >= s.notifyDeltaMin {
			err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventScoreNotification,
				AggregateType: enums.AggregateAccount,
				AggregateID:   accountID,
				Data: payloads.ScoreNotificationEvent{
					AccountID: accountID,
					OldScore:  oldScore,
					NewScore:  newScore,
					Delta:     delta,
				},
				Version: 1,
			})
			if err != nil {
				return err
			}
		}

		result = &RecomputeResult{
			AccountID: accountID,
			OldScore:  oldScore,
			NewScore:  newScore,
			Delta:     delta,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"account_id": accountID.String(),
			"reason":     string(reason),
			"old_score":  result.OldScore,
			"new_score":  result.NewScore,
			"delta":      result.Delta,
		})
		s.logg.Info(logCtx, "trust score recomputed")
	}

	return result, nil
}

// GetScore returns the public score view from the persisted value. It never
// triggers a recompute.
func (s *service) GetScore(ctx context.Context, accountID uuid.UUID) (*ScoreResponse, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	response := &ScoreResponse{
		AccountID: account.ID,
		Score:     account.TrustScore,
		UpdatedAt: account.ScoreUpdatedAt,
	}

	latest, err := s.repo.GetLatestHistory(ctx, accountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read latest score entry")
		}
		return response, nil
	}
	response.Breakdown = latest.Breakdown
	return response, nil
}

// GetOwnScore returns the owner view with the latest persisted breakdown
// and the derived improvement tips.
func (s *service) GetOwnScore(ctx context.Context, accountID uuid.UUID) (*OwnScoreResponse, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	response := &OwnScoreResponse{
		AccountID: account.ID,
		Score:     account.TrustScore,
		UpdatedAt: account.ScoreUpdatedAt,
		Tips:      []trustscore.Tip{},
	}

	latest, err := s.repo.GetLatestHistory(ctx, accountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read latest score entry")
		}
		return response, nil
	}

	response.Breakdown = latest.Breakdown
	response.Tips = trustscore.Tips(latest.Breakdown)
	return response, nil
}

func (s *service) ListHistory(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListHistory(ctx, accountID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list score history")
	}

	page := &HistoryPage{Entries: make([]HistoryEntryResponse, 0, len(entries))}
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	for _, entry := range entries {
		page.Entries = append(page.Entries, HistoryEntryResponse{
			ID:        entry.ID,
			OldScore:  entry.OldScore,
			NewScore:  entry.NewScore,
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			Actor:     entry.Actor,
			Breakdown: entry.Breakdown,
			CreatedAt: entry.CreatedAt,
		})
	}
	if hasMore && len(entries) > 0 {
		last := entries[len(entries)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) getAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read account")
	}
	return account, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
