package state

import (
	"sync"
	"time"
)

type memoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[S]
	now      func() time.Time
}

// NewMemoryStore constructs an in-memory Store. now may be nil.
func NewMemoryStore[S any](now func() time.Time) Store[S] {
	if now == nil {
		now = time.Now
	}
	return &memoryStore[S]{
		sessions: make(map[int64]Session[S]),
		now:      now,
	}
}

// Get returns the chat's session state if one exists.
func (m *memoryStore[S]) Get(chatID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[chatID]
	return sess.State, ok
}

// Put stores st for the chat and refreshes its touch time.
func (m *memoryStore[S]) Put(chatID int64, st S) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[chatID] = Session[S]{State: st, UpdatedAt: m.now()}
}

// Clear removes the chat's session.
func (m *memoryStore[S]) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
}

// Len reports the number of stored sessions.
func (m *memoryStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryStore[S]) Sweep(maxIdle time.Duration, busy func(chatID int64) bool) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) && (busy == nil || !busy(id)) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
