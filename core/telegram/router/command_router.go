package router

import (
	"log/slog"

	"github.com/m3rciful/avtobot/core/logger"
	tg "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/commands"
	"github.com/m3rciful/avtobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures admin gating of commands.
type CommandRouteOptions struct {
	Admins        *middleware.AdminSet
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered slash command.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	all := reg.Commands()
	routes := make([]tg.Route, 0, len(all))
	for name, def := range all {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  commandHandler(name, def, opts),
		})
	}
	logger.TWire.Info("routes wired",
		slog.String("event", "tg.wire.commands"),
		slog.Int("count", len(all)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func commandHandler(name string, def commands.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			Admins:   opts.Admins,
			OnReject: opts.OnAdminReject,
		})(h)
	}
	label := handlerName("cmd.", name)
	return func(c tele.Context) error {
		return handleWithSummary(c, label, h)
	}
}
