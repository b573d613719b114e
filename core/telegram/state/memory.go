package state

import (
	"sync"
	"time"
)

type memoryManager[T any] struct {
	mu       sync.Mutex
	sessions map[int64]Session[T]
	now      func() time.Time
}

// NewMemoryManager returns a Manager backed by a mutex-guarded map.
func NewMemoryManager[T any]() Manager[T] {
	return &memoryManager[T]{
		sessions: make(map[int64]Session[T]),
		now:      time.Now,
	}
}

func (m *memoryManager[T]) Get(userID int64) Session[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return Session[T]{State: StateIdle}
}

func (m *memoryManager[T]) Set(userID int64, s Session[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(userID, s)
}

func (m *memoryManager[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryManager[T]) InProgress(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return ok && s.Active()
}

func (m *memoryManager[T]) Update(userID int64, fn func(Session[T]) Session[T]) Session[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[userID]
	if !ok {
		cur = Session[T]{State: StateIdle}
	}
	next := fn(cur)
	m.store(userID, next)
	return next
}

// store must be called with mu held.
func (m *memoryManager[T]) store(userID int64, s Session[T]) {
	if !s.Active() {
		delete(m.sessions, userID)
		return
	}
	s.UpdatedAt = m.now()
	m.sessions[userID] = s
}
