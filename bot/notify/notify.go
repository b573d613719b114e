// Package notify delivers best-effort direct messages to owners and admins.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/avtobot/bot/metrics"
	"github.com/m3rciful/avtobot/core/logger"
	"github.com/m3rciful/avtobot/core/telegram/sender"
)

// EffectResult is the outcome of one best-effort side effect.
type EffectResult struct {
	Name string
	// Target is the chat or message the effect addressed.
	Target int64
	Err    error
}

// OK reports success.
func (r EffectResult) OK() bool { return r.Err == nil }

// Sender delivers a message synchronously.
type Sender interface {
	SendDirect(ctx context.Context, userID int64, text string) error
}

// Queue schedules a send on the per-chat dispatcher.
type Queue interface {
	EnqueueTo(ctx context.Context, chatID int64, action string, run func() error) error
}

// Notifier fans messages out to users. With a Queue, sends are retried in
// the background and a result only reflects whether the send was accepted.
type Notifier struct {
	send   Sender
	queue  Queue
	admins []int64
}

// New builds a Notifier. queue may be nil for synchronous delivery.
func New(s Sender, queue Queue, admins []int64) *Notifier {
	return &Notifier{send: s, queue: queue, admins: append([]int64(nil), admins...)}
}

// Direct messages one user.
func (n *Notifier) Direct(ctx context.Context, effect string, userID int64, text string) EffectResult {
	res := EffectResult{Name: effect, Target: userID}
	if userID == 0 {
		res.Err = errors.New("notify: no recipient")
		return res
	}
	run := func() error { return n.send.SendDirect(context.WithoutCancel(ctx), userID, text) }
	if n.queue == nil {
		res.Err = run()
		return res
	}
	err := n.queue.EnqueueTo(ctx, userID, "notify."+effect, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		err = run()
	}
	res.Err = err
	return res
}

// Admins messages every admin; one result per admin.
func (n *Notifier) Admins(ctx context.Context, effect, text string) []EffectResult {
	out := make([]EffectResult, 0, len(n.admins))
	for _, id := range n.admins {
		out = append(out, n.Direct(ctx, effect, id, text))
	}
	return out
}

// Report logs and counts failed effects. It returns the number of failures.
func Report(ctx context.Context, component string, listingID int64, results ...EffectResult) int {
	failed := 0
	for _, r := range results {
		if r.OK() {
			continue
		}
		failed++
		metrics.EffectFailed(r.Name)
		logger.Warn(ctx, component, "effect.failed",
			slog.String("effect", r.Name),
			slog.Int64("listing_id", listingID),
			slog.Int64("chat_id", r.Target),
			logger.Err(r.Err),
		)
	}
	return failed
}
