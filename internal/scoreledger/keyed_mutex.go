package scoreledger

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes recomputes per account within one process. Cross
// process writers are ordered by the row lock the recompute transaction
// takes; this keeps concurrent in-process recomputes from racing on the
// same account's collect phase.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[uuid.UUID]*accountLock{}}
}

// Lock blocks until the account's lock is held and returns the unlock func.
func (k *keyedMutex) Lock(accountID uuid.UUID) func() {
	k.mu.Lock()
	lock, ok := k.locks[accountID]
	if !ok {
		lock = &accountLock{}
		k.locks[accountID] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, accountID)
		}
		k.mu.Unlock()
	}
}
