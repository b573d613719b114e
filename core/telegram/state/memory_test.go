package state

import (
	"sync"
	"testing"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager[[]string]()
	if m.InProgress(1) {
		t.Fatal("fresh user must be idle")
	}
	if s := m.Get(1); s.State != StateIdle || s.Data != nil {
		t.Fatalf("Get on empty = %+v", s)
	}

	m.Set(1, Session[[]string]{State: "collecting", Data: []string{"a"}})
	if !m.InProgress(1) || m.InProgress(2) {
		t.Fatal("sessions must be per user")
	}
	s := m.Get(1)
	if s.UpdatedAt.IsZero() || len(s.Data) != 1 {
		t.Fatalf("stored session = %+v", s)
	}

	m.Update(1, func(Session[[]string]) Session[[]string] { return Session[[]string]{State: StateIdle} })
	if m.InProgress(1) {
		t.Fatal("idle update must remove the session")
	}
}

func TestMemoryManagerUpdateIsAtomic(t *testing.T) {
	m := NewMemoryManager[int]()
	m.Set(7, Session[int]{State: "count"})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update(7, func(s Session[int]) Session[int] {
				s.Data++
				return s
			})
		}()
	}
	wg.Wait()
	if got := m.Get(7).Data; got != 100 {
		t.Fatalf("counter = %d, want 100", got)
	}
}
