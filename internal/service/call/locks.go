package call

import (
	"sync"

	"github.com/google/uuid"
)

// lockTable serializes event handling per call id. Entries are reference
// counted so the table does not grow with the number of calls ever made.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*callLock
}

type callLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]*callLock)}
}

// acquire locks the given call id and returns the release function
func (t *lockTable) acquire(callID uuid.UUID) func() {
	t.mu.Lock()
	l, exists := t.locks[callID]
	if !exists {
		l = &callLock{}
		t.locks[callID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, callID)
		}
		t.mu.Unlock()
	}
}
