package recompute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/internal/scoreledger"
	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
)

type fakeAccounts struct {
	accounts []models.Account
	err      error
}

func (f *fakeAccounts) GetAccountsBatch(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	start := 0
	if afterID != uuid.Nil {
		for i, account := range f.accounts {
			if account.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.accounts) {
		end = len(f.accounts)
	}
	return f.accounts[start:end], nil
}

type fakeBackfillLedger struct {
	calls  []uuid.UUID
	fail   map[uuid.UUID]error
	deltas map[uuid.UUID]int
}

func (f *fakeBackfillLedger) Recompute(ctx context.Context, accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*scoreledger.RecomputeResult, error) {
	f.calls = append(f.calls, accountID)
	if err := f.fail[accountID]; err != nil {
		return nil, err
	}
	return &scoreledger.RecomputeResult{AccountID: accountID, Delta: f.deltas[accountID]}, nil
}

type memoryLock struct {
	held     bool
	acquires int
	releases int
}

func (m *memoryLock) Acquire(ctx context.Context) (bool, error) {
	m.acquires++
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *memoryLock) Release(ctx context.Context) error {
	m.releases++
	m.held = false
	return nil
}

func sortedAccounts(n int) []models.Account {
	accounts := make([]models.Account, n)
	for i := range accounts {
		accounts[i] = models.Account{ID: uuid.New()}
	}
	return accounts
}

func TestBackfillWalksAllAccounts(t *testing.T) {
	accounts := sortedAccounts(5)
	ledger := &fakeBackfillLedger{deltas: map[uuid.UUID]int{accounts[1].ID: 7}}
	lock := &memoryLock{}

	job, err := NewBackfill(BackfillParams{
		Accounts:  &fakeAccounts{accounts: accounts},
		Ledger:    ledger,
		Lock:      lock,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("NewBackfill: %v", err)
	}

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 5 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 5 processed 0 failed", summary)
	}
	if summary.Changed != 1 {
		t.Errorf("changed = %d, want 1", summary.Changed)
	}
	if len(ledger.calls) != 5 {
		t.Errorf("recompute calls = %d, want 5", len(ledger.calls))
	}
	if lock.releases != 1 {
		t.Errorf("lock releases = %d, want 1", lock.releases)
	}
}

func TestBackfillContinuesPastAccountFailures(t *testing.T) {
	accounts := sortedAccounts(3)
	ledger := &fakeBackfillLedger{
		fail: map[uuid.UUID]error{accounts[1].ID: errors.New("collect failed")},
	}

	job, err := NewBackfill(BackfillParams{
		Accounts: &fakeAccounts{accounts: accounts},
		Ledger:   ledger,
		Lock:     &memoryLock{},
	})
	if err != nil {
		t.Fatalf("NewBackfill: %v", err)
	}

	summary, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated account errors")
	}
	if summary.Processed != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 2 processed 1 failed", summary)
	}
	if len(ledger.calls) != 3 {
		t.Errorf("recompute calls = %d, want 3", len(ledger.calls))
	}
}

func TestBackfillRefusesWhenLockHeld(t *testing.T) {
	lock := &memoryLock{held: true}
	job, err := NewBackfill(BackfillParams{
		Accounts: &fakeAccounts{},
		Ledger:   &fakeBackfillLedger{},
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewBackfill: %v", err)
	}

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected an error when the lock is held")
	}
	if lock.releases != 0 {
		t.Errorf("lock releases = %d, want 0 when never acquired", lock.releases)
	}
}

func TestBackfillStopsOnBatchReadFailure(t *testing.T) {
	job, err := NewBackfill(BackfillParams{
		Accounts: &fakeAccounts{err: errors.New("db down")},
		Ledger:   &fakeBackfillLedger{},
		Lock:     &memoryLock{},
	})
	if err != nil {
		t.Fatalf("NewBackfill: %v", err)
	}

	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected batch read failure")
	}
}

type fakeLockStore struct {
	values map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeLockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := newFakeLockStore()
	first, err := NewRedisLock(store, "tp:lock:score_backfill", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, err := NewRedisLock(store, "tp:lock:score_backfill", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ok, err := first.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("first acquire = %v %v, want true", ok, err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil || ok {
		t.Fatalf("second acquire = %v %v, want false", ok, err)
	}

	if err := first.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire after release = %v %v, want true", ok, err)
	}
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "tp:lock:score_backfill", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire failed")
	}
	// Simulate TTL expiry plus takeover by another process.
	store.values["tp:lock:score_backfill"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.values["tp:lock:score_backfill"] != "someone-else" {
		t.Fatal("release must not delete a lock it no longer owns")
	}
}
