package commands

import tele "gopkg.in/telebot.v4"

// Command describes a slash command and the plain-text aliases that trigger it.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are exact message texts (reply keyboard labels) routed to Handler.
	Aliases []string
	// Preempt lets aliases win over an active conversation flow, so menu
	// buttons keep working mid-flow.
	Preempt bool
}
