package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/avtobot/core/telegram/sender"
)

type recorder struct {
	mu   sync.Mutex
	sent map[int64]string
	fail map[int64]bool
}

func newRecorder() *recorder {
	return &recorder{sent: map[int64]string{}, fail: map[int64]bool{}}
}

func (r *recorder) SendDirect(_ context.Context, id int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[id] {
		return errors.New("blocked by user")
	}
	r.sent[id] = text
	return nil
}

type fullQueue struct{}

func (fullQueue) EnqueueTo(context.Context, int64, string, func() error) error {
	return sender.ErrQueueFull
}

func TestAdminsReportsPerRecipient(t *testing.T) {
	rec := newRecorder()
	rec.fail[2] = true
	n := New(rec, nil, []int64{1, 2, 3})

	res := n.Admins(context.Background(), "notify_admin", "hi")
	require.Len(t, res, 3)
	require.True(t, res[0].OK())
	require.False(t, res[1].OK())
	require.Equal(t, int64(2), res[1].Target)
	require.True(t, res[2].OK())
	require.Equal(t, "hi", rec.sent[3])

	require.Equal(t, 1, Report(context.Background(), "service.sale", 7, res...))
}

func TestDirectFallsBackWhenQueueFull(t *testing.T) {
	rec := newRecorder()
	n := New(rec, fullQueue{}, nil)
	res := n.Direct(context.Background(), "notify_owner", 9, "sold")
	require.True(t, res.OK())
	require.Equal(t, "sold", rec.sent[9])
}

func TestDirectThroughDispatcher(t *testing.T) {
	rec := newRecorder()
	d := sender.NewDispatcher(sender.Options{QueueSize: 8, Workers: 2})
	n := New(rec, d, []int64{5})

	res := n.Admins(context.Background(), "notify_admin", "queued")
	require.True(t, res[0].OK())
	d.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, "queued", rec.sent[5])
}

func TestDirectWithoutRecipient(t *testing.T) {
	res := New(newRecorder(), nil, nil).Direct(context.Background(), "x", 0, "t")
	require.Error(t, res.Err)
}
