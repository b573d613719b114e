package router

import (
	tg "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Flow is a multi-step conversation that claims a user's messages while active.
type Flow interface {
	Name() string
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// MessageOptions controls routing of non-command messages.
type MessageOptions struct {
	Commands CommandRouteOptions
	// Flows are consulted in order; the first one in progress wins.
	Flows []Flow
	// OnContact handles shared contacts (registration).
	OnContact tele.HandlerFunc
	// Unknown answers anything no flow or alias claimed.
	Unknown tele.HandlerFunc
}

// MessageRoutes builds handlers for text, photo, other media and contacts.
//
// Text resolution order: preempting menu aliases, the active flow, remaining
// aliases, the registry text fallback, then Unknown.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	activeFlow := func(c tele.Context) Flow {
		u := c.Sender()
		if u == nil {
			return nil
		}
		for _, f := range opts.Flows {
			if f != nil && f.InProgress(u.ID) {
				return f
			}
		}
		return nil
	}
	unknown := func(c tele.Context) error {
		if reg != nil && reg.TextFallback() != nil {
			return handleWithSummary(c, "fallback", reg.TextFallback())
		}
		if opts.Unknown != nil {
			return handleWithSummary(c, "unknown", opts.Unknown)
		}
		return nil
	}

	text := func(c tele.Context) error {
		var (
			name    string
			cmd     commands.Command
			isAlias bool
		)
		if reg != nil {
			name, cmd, isAlias = reg.LookupCommand(c.Text())
			isAlias = isAlias && cmd.Handler != nil
		}
		if isAlias && cmd.Preempt {
			return commandHandler(name, cmd, opts.Commands)(c)
		}
		if f := activeFlow(c); f != nil {
			return handleWithSummary(c, "flow."+f.Name(), f.Handle)
		}
		if isAlias {
			return commandHandler(name, cmd, opts.Commands)(c)
		}
		return unknown(c)
	}

	media := func(c tele.Context) error {
		if f := activeFlow(c); f != nil {
			return handleWithSummary(c, "flow."+f.Name(), f.Handle)
		}
		return unknown(c)
	}

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnPhoto, Handler: media},
		{Endpoint: tele.OnMedia, Handler: media},
	}
	if opts.OnContact != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnContact, Handler: func(c tele.Context) error {
			return handleWithSummary(c, "contact", opts.OnContact)
		}})
	}
	return routes
}
