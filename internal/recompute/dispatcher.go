package recompute

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/metrics"
)

const (
	defaultWorkers       = 4
	defaultQueueCapacity = 1024
	maxAttempts          = 3
	retryBackoff         = 500 * time.Millisecond
)

// Request asks for one account's score to be recomputed.
type Request struct {
	AccountID uuid.UUID
	Reason    enums.ScoreReason
	Actor     enums.ScoreActor
}

type queueKey struct {
	accountID uuid.UUID
	reason    enums.ScoreReason
}

// Recomputer is the ledger surface the dispatcher drives.
type Recomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*scoreledger.RecomputeResult, error)
}

// Dispatcher fans recompute requests out to a bounded worker pool. Requests
// for the same account and reason coalesce only while queued; once a
// request is picked up, later triggers queue again.
type Dispatcher struct {
	ledger  Recomputer
	metrics *metrics.ScoringMetrics
	logg    *logger.Logger

	workers int
	queue   chan Request

	mu      sync.Mutex
	pending map[queueKey]bool

	wg      sync.WaitGroup
	started bool
}

// DispatcherParams wires the dispatcher.
type DispatcherParams struct {
	Ledger        Recomputer
	Metrics       *metrics.ScoringMetrics
	Logger        *logger.Logger
	Workers       int
	QueueCapacity int
}

// NewDispatcher validates and builds a stopped dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger required")
	}
	workers := params.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	capacity := params.QueueCapacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &Dispatcher{
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logg:    params.Logger,
		workers: workers,
		queue:   make(chan Request, capacity),
		pending: map[queueKey]bool{},
	}, nil
}

// Start launches the worker pool. Workers exit when ctx is cancelled and
// the queue has drained.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue queues a recompute request. A request already queued for the same
// account and reason is dropped; a full queue returns a retryable error so
// the caller can nack and redeliver.
func (d *Dispatcher) Enqueue(req Request) error {
	if req.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if req.Actor == "" {
		req.Actor = enums.ScoreActorSystem
	}

	key := queueKey{accountID: req.AccountID, reason: req.Reason}
	d.mu.Lock()
	if d.pending[key] {
		d.mu.Unlock()
		return nil
	}
	d.pending[key] = true
	d.mu.Unlock()

	select {
	case d.queue <- req:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		d.clearPending(key)
		return pkgerrors.New(pkgerrors.CodeDependency, "recompute queue full")
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued before exiting.
			for {
				select {
				case req := <-d.queue:
					d.process(context.WithoutCancel(ctx), req)
				default:
					return
				}
			}
		case req := <-d.queue:
			d.process(ctx, req)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, req Request) {
	// Clear the de-dup key before running, not after. A trigger that lands
	// while this run is in flight was written after the run's signal
	// snapshot, so it must queue a fresh recompute rather than coalesce.
	d.clearPending(queueKey{accountID: req.AccountID, reason: req.Reason})
	defer d.metrics.SetQueueDepth(len(d.queue))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := d.ledger.Recompute(ctx, req.AccountID, req.Reason, req.Actor)
		if err == nil {
			return
		}
		lastErr = err

		typed := pkgerrors.As(err)
		if typed == nil || !pkgerrors.MetadataFor(typed.Code()).Retryable {
			break
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				attempt = maxAttempts
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
	}

	if d.logg != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"account_id": req.AccountID.String(),
			"reason":     string(req.Reason),
		})
		d.logg.Error(logCtx, "recompute abandoned", lastErr)
	}
}

func (d *Dispatcher) clearPending(key queueKey) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()
}

// QueueDepth reports how many requests are currently buffered.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}
