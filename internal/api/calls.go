package api

import (
	"strings"
	"sync"
)

// callTracker remembers the most recently placed call so that clients can
// poll without passing its id.
type callTracker struct {
	mu sync.RWMutex
	id string
}

func (t *callTracker) set(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = id
}

func (t *callTracker) active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

// resolve prefers an explicit id over the active call.
func (t *callTracker) resolve(explicit string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	return t.active()
}
