package sender

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/avtobot/core/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(logger.Background(), "send.text", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "read", Err: timeoutErr{}}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if calls.Load() != 3 || d.Failed() != 0 {
		t.Fatalf("calls = %d failed = %d", calls.Load(), d.Failed())
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	var failures atomic.Int32
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond,
		OnFailure: func(string, error) { failures.Add(1) }})
	var calls atomic.Int32
	_ = d.Enqueue(logger.Background(), "send.text", func() error {
		calls.Add(1)
		return errors.New("telegram: chat not found (400)")
	})
	d.Close()
	if calls.Load() != 1 || d.Failed() != 1 || failures.Load() != 1 {
		t.Fatalf("calls = %d failed = %d hooks = %d", calls.Load(), d.Failed(), failures.Load())
	}
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 256})
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		i := i
		if err := d.EnqueueTo(logger.Background(), 12345, "send.text", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()
	for i, v := range got {
		if v != i {
			t.Fatalf("order broken at %d: %v", i, got)
		}
	}
	if err := d.Enqueue(logger.Background(), "late", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("enqueue after close = %v", err)
	}
}

func TestRedactToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AA-bb_c/sendMessage": timeout`)
	if got := redact(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("redact = %s", got)
	}
}
