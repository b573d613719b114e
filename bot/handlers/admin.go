package handlers

import (
	"log/slog"

	"github.com/m3rciful/avtobot/core/logger"
	"github.com/m3rciful/avtobot/core/telegram/callbacks"
	"github.com/m3rciful/avtobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Admin shows the admin panel.
func (h *Handlers) Admin(c tele.Context) error {
	return helpers.SendText(c, TextAdminPanel, AdminMarkup(h.deps.RecentLimit))
}

// AdminDenied answers non-admins reaching an admin entry point.
func (h *Handlers) AdminDenied(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: TextAdminDenied, ShowAlert: true})
	}
	return helpers.SendText(c, TextAdminDenied)
}

// AdminCallback serves the admin panel buttons.
func (h *Handlers) AdminCallback(c tele.Context) error {
	u := c.Sender()
	if u == nil || !h.deps.Admins.Has(u.ID) {
		return h.AdminDenied(c)
	}
	_ = c.Respond()
	ctx := helpers.BuildContext(c)

	switch section := callbacks.Payload(c); section {
	case AdminStats:
		stats, err := h.deps.Store.Stats(ctx, h.deps.DayStart(h.deps.Now()))
		if err != nil {
			logger.Error(ctx, "service.store", "admin.stats", logger.Err(err))
			return helpers.SendText(c, TextFailed)
		}
		return helpers.SendHTML(c, StatsText(stats))
	case AdminRecent:
		recent, err := h.deps.Store.Recent(ctx, h.deps.RecentLimit)
		if err != nil {
			logger.Error(ctx, "service.store", "admin.recent", logger.Err(err))
			return helpers.SendText(c, TextFailed)
		}
		return helpers.SendHTML(c, RecentText(h.deps.RecentLimit, recent))
	default:
		logger.Debug(ctx, "tg", "admin.unknown_section", slog.String("section", section))
		return nil
	}
}
