package router

import (
	"log/slog"
	"sync/atomic"

	tg "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// respondOnce tracks whether the handler answered the callback query.
type respondOnce struct {
	tele.Context
	done *atomic.Bool
}

func (r respondOnce) Respond(resp ...*tele.CallbackResponse) error {
	r.done.Store(true)
	return r.Context.Respond(resp...)
}

func (r respondOnce) RespondText(text string) error {
	return r.Respond(&tele.CallbackResponse{Text: text})
}

func (r respondOnce) RespondAlert(text string) error {
	return r.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

// CallbackRoute dispatches every callback query by its routing key. Queries
// the handler left unanswered are acknowledged silently so the client stops
// its spinner.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		h, ok := reg.GetCallback(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("outcome", "not_found"))
		}

		var answered atomic.Bool
		wrapped := respondOnce{Context: c, done: &answered}
		err := handleWithSummary(wrapped, handlerName("callback.", key), h, extras...)
		if !answered.Load() {
			_ = c.Respond()
		}
		return err
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
