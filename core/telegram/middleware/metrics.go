package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	tele "gopkg.in/telebot.v4"
)

var (
	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avtobot",
		Name:      "telegram_updates_total",
		Help:      "Inbound Telegram updates by kind and handler outcome.",
	}, []string{"kind", "outcome"})

	updateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "avtobot",
		Name:      "telegram_update_duration_seconds",
		Help:      "Time spent handling one update.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"kind"})

	repliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "avtobot",
		Name:      "telegram_replies_total",
		Help:      "Messages sent or edited in reply to updates.",
	})
)

// Collectors returns the update collectors for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{updatesTotal, updateDuration, repliesTotal}
}

// metricsContext counts replies sent through the context.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	repliesTotal.Inc()
	n, _ := m.Get("messages").(int)
	m.Set("messages", n+1)
	if hasKeyboard(opts) {
		m.Set("kb", true)
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m metricsContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func (m metricsContext) EditCaption(caption string, opts ...any) error {
	return m.count(m.Context.EditCaption(caption, opts...), opts)
}

// MessageMetricsMiddleware records update counters and per-update reply counts.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set("messages", 0)
		c.Set("kb", false)
		kind := updateKind(c.Update())
		start := time.Now()
		err := next(metricsContext{Context: c})
		outcome := "ok"
		if err != nil {
			outcome = "fail"
		}
		updatesTotal.WithLabelValues(kind, outcome).Inc()
		updateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		return err
	}
}

// GetCounters reads the reply count and keyboard flag for the current update.
func GetCounters(c tele.Context) (int, bool) {
	n, _ := c.Get("messages").(int)
	kb, _ := c.Get("kb").(bool)
	return n, kb
}
