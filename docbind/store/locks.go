package store

import "sync"

// operationType defines whether an operation only reads the in-memory data
// or modifies it.
type operationType int

const (
	readOperation operationType = iota
	writeOperation
)

// lockManager serializes access to the in-memory data. Reads share the
// lock, writes hold it exclusively.
type lockManager struct {
	mu sync.RWMutex
}

// execute runs fn under the lock matching opType.
func (lm *lockManager) execute(opType operationType, fn func() error) error {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
