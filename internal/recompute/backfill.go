package recompute

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
)

const defaultBackfillBatchSize = 200

// accountIterator pages accounts by ascending id.
type accountIterator interface {
	GetAccountsBatch(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Account, error)
}

// Backfill walks every account and recomputes its score synchronously. A
// redis lock keeps concurrent runs (manual plus scheduled) exclusive.
type Backfill struct {
	accounts  accountIterator
	ledger    Recomputer
	lock      JobLock
	logg      *logger.Logger
	batchSize int
}

// BackfillParams wires the backfill job.
type BackfillParams struct {
	Accounts  accountIterator
	Ledger    Recomputer
	Lock      JobLock
	Logger    *logger.Logger
	BatchSize int
}

// BackfillSummary reports one finished run.
type BackfillSummary struct {
	Processed int
	Failed    int
	Changed   int
}

// NewBackfill validates and builds the backfill job.
func NewBackfill(params BackfillParams) (*Backfill, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account iterator required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("job lock required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBackfillBatchSize
	}
	return &Backfill{
		accounts:  params.Accounts,
		ledger:    params.Ledger,
		lock:      params.Lock,
		logg:      params.Logger,
		batchSize: batchSize,
	}, nil
}

// Run recomputes every account's score. Per-account failures are collected
// and do not stop the walk; the run fails only when the lock is held
// elsewhere or a batch read fails.
func (b *Backfill) Run(ctx context.Context) (*BackfillSummary, error) {
	acquired, err := b.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire backfill lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("backfill already running")
	}
	defer func() {
		if releaseErr := b.lock.Release(ctx); releaseErr != nil && b.logg != nil {
			b.logg.Error(ctx, "failed to release backfill lock", releaseErr)
		}
	}()

	summary := &BackfillSummary{}
	var accountErrs error
	afterID := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch, err := b.accounts.GetAccountsBatch(ctx, afterID, b.batchSize)
		if err != nil {
			return summary, fmt.Errorf("read account batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, account := range batch {
			result, err := b.ledger.Recompute(ctx, account.ID, enums.ScoreReasonBackfill, enums.ScoreActorSystem)
			if err != nil {
				summary.Failed++
				accountErrs = multierr.Append(accountErrs, fmt.Errorf("account %s: %w", account.ID, err))
				continue
			}
			summary.Processed++
			if result.Delta != 0 {
				summary.Changed++
			}
		}

		afterID = batch[len(batch)-1].ID
	}

	if b.logg != nil {
		logCtx := b.logg.WithFields(ctx, map[string]any{
			"processed": summary.Processed,
			"failed":    summary.Failed,
			"changed":   summary.Changed,
		})
		b.logg.Info(logCtx, "score backfill finished")
	}

	return summary, accountErrs
}
