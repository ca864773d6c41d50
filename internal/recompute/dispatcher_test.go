package recompute

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
)

type fakeLedger struct {
	mu       sync.Mutex
	calls    []Request
	errs     map[uuid.UUID]error
	failOnce map[uuid.UUID]bool
	done     chan struct{}
}

func newFakeLedger(expected int) *fakeLedger {
	return &fakeLedger{
		errs:     map[uuid.UUID]error{},
		failOnce: map[uuid.UUID]bool{},
		done:     make(chan struct{}, expected),
	}
}

func (f *fakeLedger) Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*scoreledger.RecomputeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Request{AccountID: accountID, Reason: reason, Actor: actor})
	err := f.errs[accountID]
	if err != nil && f.failOnce[accountID] {
		delete(f.errs, accountID)
	}
	f.mu.Unlock()

	select {
	case f.done <- struct{}{}:
	default:
	}
	if err != nil {
		return nil, err
	}
	return &scoreledger.RecomputeResult{AccountID: accountID}, nil
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, f *fakeLedger, calls int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < calls; i++ {
		select {
		case <-f.done:
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, saw %d", calls, f.callCount())
		}
	}
}

func newTestDispatcher(t *testing.T, ledger Recomputer, capacity int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(DispatcherParams{
		Ledger:        ledger,
		Workers:       2,
		QueueCapacity: capacity,
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestDispatcherProcessesRequests(t *testing.T) {
	ledger := newFakeLedger(2)
	d := newTestDispatcher(t, ledger, 16)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	first := Request{AccountID: uuid.New(), Reason: enums.ScoreReasonReviewActivity, Actor: enums.ScoreActorReview}
	second := Request{AccountID: uuid.New(), Reason: enums.ScoreReasonWarningIssued, Actor: enums.ScoreActorAdmin}
	if err := d.Enqueue(first); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := d.Enqueue(second); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, ledger, 2)
	cancel()
	d.Wait()

	if got := ledger.callCount(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestDispatcherDefaultsActorToSystem(t *testing.T) {
	ledger := newFakeLedger(1)
	d := newTestDispatcher(t, ledger, 16)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue(Request{AccountID: uuid.New(), Reason: enums.ScoreReasonManual}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, ledger, 1)
	cancel()
	d.Wait()

	if ledger.calls[0].Actor != enums.ScoreActorSystem {
		t.Errorf("actor = %s, want system", ledger.calls[0].Actor)
	}
}

func TestDispatcherRejectsNilAccount(t *testing.T) {
	d := newTestDispatcher(t, newFakeLedger(0), 16)
	err := d.Enqueue(Request{Reason: enums.ScoreReasonManual})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDispatcherCoalescesPendingDuplicates(t *testing.T) {
	ledger := newFakeLedger(1)
	d := newTestDispatcher(t, ledger, 16)
	accountID := uuid.New()
	req := Request{AccountID: accountID, Reason: enums.ScoreReasonReviewActivity, Actor: enums.ScoreActorReview}

	// Not started yet, so both enqueues race only with each other.
	if err := d.Enqueue(req); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := d.Enqueue(req); err != nil {
		t.Fatalf("duplicate Enqueue: %v", err)
	}
	if depth := d.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth = %d, want 1 after coalescing", depth)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	waitFor(t, ledger, 1)
	cancel()
	d.Wait()

	if got := ledger.callCount(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

type gatedLedger struct {
	mu      sync.Mutex
	calls   []Request
	started chan struct{}
	release chan struct{}
	done    chan struct{}
}

func newGatedLedger() *gatedLedger {
	return &gatedLedger{
		started: make(chan struct{}),
		release: make(chan struct{}),
		done:    make(chan struct{}, 4),
	}
}

func (g *gatedLedger) Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*scoreledger.RecomputeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, Request{AccountID: accountID, Reason: reason, Actor: actor})
	first := len(g.calls) == 1
	g.mu.Unlock()

	if first {
		close(g.started)
		<-g.release
	}
	g.done <- struct{}{}
	return &scoreledger.RecomputeResult{AccountID: accountID}, nil
}

func (g *gatedLedger) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestDispatcherAcceptsTriggerDuringInFlightRun(t *testing.T) {
	ledger := newGatedLedger()
	d, err := NewDispatcher(DispatcherParams{
		Ledger:        ledger,
		Workers:       1,
		QueueCapacity: 16,
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	req := Request{AccountID: uuid.New(), Reason: enums.ScoreReasonReviewActivity, Actor: enums.ScoreActorReview}
	if err := d.Enqueue(req); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}

	select {
	case <-ledger.started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first recompute to start")
	}

	// This trigger reflects a write the in-flight run's snapshot cannot
	// see, so it must queue a second run instead of coalescing away.
	if err := d.Enqueue(req); err != nil {
		t.Fatalf("in-flight Enqueue: %v", err)
	}
	if depth := d.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth = %d, want 1 for the re-queued trigger", depth)
	}

	close(ledger.release)
	deadline := time.After(5 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-ledger.done:
		case <-deadline:
			t.Fatalf("timed out waiting for 2 recomputes, saw %d", ledger.callCount())
		}
	}
	cancel()
	d.Wait()

	if got := ledger.callCount(); got != 2 {
		t.Fatalf("calls = %d, want 2 (in-flight trigger must not be dropped)", got)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := newTestDispatcher(t, newFakeLedger(0), 1)

	if err := d.Enqueue(Request{AccountID: uuid.New(), Reason: enums.ScoreReasonManual}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	err := d.Enqueue(Request{AccountID: uuid.New(), Reason: enums.ScoreReasonManual})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("err = %v, want dependency error", err)
	}
	if !pkgerrors.MetadataFor(typed.Code()).Retryable {
		t.Error("queue-full error should be retryable")
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	ledger := newFakeLedger(2)
	accountID := uuid.New()
	ledger.errs[accountID] = pkgerrors.New(pkgerrors.CodeDependency, "db unavailable")
	ledger.failOnce[accountID] = true

	d := newTestDispatcher(t, ledger, 16)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue(Request{AccountID: accountID, Reason: enums.ScoreReasonManual, Actor: enums.ScoreActorAdmin}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, ledger, 2)
	cancel()
	d.Wait()

	if got := ledger.callCount(); got != 2 {
		t.Fatalf("calls = %d, want 2 (initial + one retry)", got)
	}
}

func TestDispatcherDoesNotRetryValidationFailures(t *testing.T) {
	ledger := newFakeLedger(1)
	accountID := uuid.New()
	ledger.errs[accountID] = pkgerrors.New(pkgerrors.CodeNotFound, "account missing")

	d := newTestDispatcher(t, ledger, 16)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue(Request{AccountID: accountID, Reason: enums.ScoreReasonManual, Actor: enums.ScoreActorAdmin}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, ledger, 1)
	// Wait past the first retry backoff before asserting.
	time.Sleep(retryBackoff + 100*time.Millisecond)
	cancel()
	d.Wait()

	if got := ledger.callCount(); got != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on not-found)", got)
	}
}
