package engine

import (
	"sync"
)

// leaseTable provides per-automation mutual exclusion. Two concurrent
// invocations must never double-fire the same schedule or double-consume
// the same feed item, so a run holds the automation's lease end to end.
type leaseTable struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLeaseTable() *leaseTable {
	return &leaseTable{held: make(map[string]bool)}
}

func (l *leaseTable) TryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[id] {
		return false
	}
	l.held[id] = true
	return true
}

func (l *leaseTable) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}
