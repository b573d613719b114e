package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middleware touches.
type fakeContext struct {
	tele.Context
	update tele.Update
	sender *tele.User
	store  map[string]any
}

func newFakeContext(userID int64, upd tele.Update) *fakeContext {
	return &fakeContext{update: upd, sender: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update    { return f.update }
func (f *fakeContext) Sender() *tele.User     { return f.sender }
func (f *fakeContext) Chat() *tele.Chat       { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Get(k string) any       { return f.store[k] }
func (f *fakeContext) Set(k string, v any)    { f.store[k] = v }
func (f *fakeContext) Send(any, ...any) error { return nil }

func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func TestUserLimiterBucket(t *testing.T) {
	l := &userLimiter{
		opts:    RateLimitOptions{Interval: time.Second, Burst: 2, IdleTTL: time.Minute},
		buckets: map[int64]*bucket{},
	}
	now := time.Now()
	if !l.allow(1, now) || !l.allow(1, now) {
		t.Fatal("burst of two must pass")
	}
	if l.allow(1, now) {
		t.Fatal("third call within the interval must be limited")
	}
	if !l.allow(2, now) {
		t.Fatal("other users have their own bucket")
	}
	if !l.allow(1, now.Add(1100*time.Millisecond)) {
		t.Fatal("token must refill after the interval")
	}
}

func TestRateLimitMiddlewareExcludesCallbacks(t *testing.T) {
	var limited, handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	msg := newFakeContext(5, tele.Update{ID: 1, Message: &tele.Message{Text: "hi"}})
	_ = h(msg)
	_ = h(msg)
	cb := newFakeContext(5, tele.Update{ID: 2, Callback: &tele.Callback{Data: "sold:1:5:0"}})
	_ = h(cb)
	_ = h(cb)

	if handled != 3 || limited != 1 {
		t.Fatalf("handled = %d limited = %d", handled, limited)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	admins := NewAdminSet([]int64{10, 0, 10, 20})
	if got := admins.IDs(); len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("IDs = %v", got)
	}
	var nilSet *AdminSet
	if nilSet.Has(10) {
		t.Fatal("nil set has no admins")
	}

	rejected := errors.New("rejected")
	h := AdminOnlyMiddleware(AdminOptions{Admins: admins, OnReject: func(tele.Context) error { return rejected }})(
		func(tele.Context) error { return nil },
	)
	if err := h(newFakeContext(20, tele.Update{})); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := h(newFakeContext(30, tele.Update{})); !errors.Is(err, rejected) {
		t.Fatalf("non-admin err = %v", err)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(newFakeContext(1, tele.Update{ID: 3})); err == nil {
		t.Fatal("panic must surface as error")
	}
}

func TestMessageMetricsCountsReplies(t *testing.T) {
	c := newFakeContext(1, tele.Update{ID: 4, Message: &tele.Message{Text: "x"}})
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("a")
		return c.Send("b", &tele.ReplyMarkup{})
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	n, kb := GetCounters(c)
	if n != 2 || !kb {
		t.Fatalf("counters = %d, %v", n, kb)
	}
}
