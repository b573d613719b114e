// Package handlers adapts Telegram updates to the avtobot services.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/bot/publish"
	"github.com/m3rciful/avtobot/bot/sale"
	"github.com/m3rciful/avtobot/bot/search"
	"github.com/m3rciful/avtobot/bot/submission"
	"github.com/m3rciful/avtobot/core/logger"
	tg "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/callbacks"
	"github.com/m3rciful/avtobot/core/telegram/commands"
	"github.com/m3rciful/avtobot/core/telegram/helpers"
	"github.com/m3rciful/avtobot/core/telegram/keyboard"
	"github.com/m3rciful/avtobot/core/telegram/middleware"
	"github.com/m3rciful/avtobot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Store is the part of the Listing Store used directly by handlers.
type Store interface {
	UpsertUser(ctx context.Context, u listing.User) error
	GetListing(ctx context.Context, id int64) (listing.Listing, error)
	SetChannelReference(ctx context.Context, id, ref int64) error
	Recent(ctx context.Context, limit int) ([]listing.Listing, error)
	Stats(ctx context.Context, since time.Time) (listing.Stats, error)
}

// Publisher posts listings to the channel.
type Publisher interface {
	Publish(ctx context.Context, l listing.Listing) (publish.Result, error)
}

// SaleCloser runs the sale-closing protocol.
type SaleCloser interface {
	Close(ctx context.Context, req sale.Request) (sale.Result, error)
}

// Deps wires the handlers.
type Deps struct {
	Store      Store
	Publisher  Publisher
	Sale       SaleCloser
	Submission *submission.Flow
	Search     *search.Flow
	Admins     *middleware.AdminSet

	RecentLimit int
	// DayStart maps now to the start of the statistics day.
	DayStart func(now time.Time) time.Time
	Now      func() time.Time
}

// Handlers holds the Telegram entry points.
type Handlers struct {
	deps Deps
	menu *tele.ReplyMarkup
}

// New builds Handlers, filling clock defaults.
func New(d Deps) *Handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DayStart == nil {
		d.DayStart = func(t time.Time) time.Time { return t.Truncate(24 * time.Hour) }
	}
	if d.RecentLimit <= 0 {
		d.RecentLimit = 5
	}
	return &Handlers{deps: d, menu: MainMenu()}
}

// Menu returns the main menu keyboard.
func (h *Handlers) Menu() *tele.ReplyMarkup { return h.menu }

// Register adds commands, menu aliases and callbacks to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start":     {Handler: h.Start, Description: "Botni ishga tushirish"},
		"/search":    {Handler: h.Search, Description: "Mashina qidirish", Aliases: []string{BtnSearch}, Preempt: true},
		"/sell":      {Handler: h.Sell, Description: "E’lon berish", Aliases: []string{BtnSell}, Preempt: true},
		"/cancel":    {Handler: h.Cancel, Description: "Jarayonni bekor qilish", Aliases: []string{submission.BtnCancel}},
		"/admin":     {Handler: h.Admin, AdminOnly: true},
		"/republish": {Handler: h.Republish, AdminOnly: true, Hidden: true},
	}
	var errs []error
	for name, cmd := range cmds {
		errs = append(errs, reg.RegisterCommand(name, cmd))
	}
	errs = append(errs,
		reg.RegisterCallback(publish.SoldTag, h.Sold),
		reg.RegisterCallback(AdminKey, h.AdminCallback),
		reg.RegisterCallback(submission.ConfirmKey, h.deps.Submission.Confirm),
		reg.RegisterCallback(submission.CancelKey, h.deps.Submission.Cancel),
	)
	reg.SetTextFallback(h.Unknown)
	return errors.Join(errs...)
}

// Routes builds every route for the registered handlers.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	cmdOpts := router.CommandRouteOptions{Admins: h.deps.Admins, OnAdminReject: h.AdminDenied}
	routes := router.CommandRoutes(reg, cmdOpts)
	routes = append(routes, router.CallbackRoute(reg))
	return append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Commands:  cmdOpts,
		Flows:     []router.Flow{h.deps.Submission, h.deps.Search},
		OnContact: h.Contact,
		Unknown:   h.Unknown,
	})...)
}

func (h *Handlers) resetFlows(userID int64) bool {
	a := h.deps.Submission.Reset(userID)
	b := h.deps.Search.Reset(userID)
	return a || b
}

// Start greets the user and asks for the phone number. It drops any
// conversation in progress.
func (h *Handlers) Start(c tele.Context) error {
	if u := c.Sender(); u != nil {
		h.resetFlows(u.ID)
	}
	return helpers.SendText(c, TextWelcome, contactKeyboard())
}

// Contact registers the sender from a shared contact.
func (h *Handlers) Contact(c tele.Context) error {
	u := c.Sender()
	msg := c.Message()
	if u == nil || msg == nil || msg.Contact == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	contact := msg.Contact
	if contact.UserID != 0 && contact.UserID != u.ID {
		logger.Info(ctx, "service.register", "user.register",
			slog.String("status", "rejected"),
			slog.Int64("contact_user_id", contact.UserID),
		)
		return helpers.SendText(c, TextForeignContact, contactKeyboard())
	}
	phone := strings.TrimSpace(contact.PhoneNumber)
	if phone == "" {
		return helpers.SendText(c, TextForeignContact, contactKeyboard())
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	err := h.deps.Store.UpsertUser(ctx, listing.User{ID: u.ID, Phone: phone, Handle: u.Username})
	logger.Info(ctx, "service.register", "user.register", slog.String("status", logger.Status(err)), logger.Err(err))
	if err != nil {
		return helpers.SendText(c, TextFailed, contactKeyboard())
	}
	return helpers.SendText(c, TextRegistered, h.menu)
}

// Search starts the search conversation.
func (h *Handlers) Search(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	h.deps.Submission.Reset(u.ID)
	return h.deps.Search.Start(helpers.BuildContext(c), u.ID, search.ContextChat(c))
}

// Sell starts a new submission, replacing any unfinished one.
func (h *Handlers) Sell(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	h.deps.Search.Reset(u.ID)
	return h.deps.Submission.Start(helpers.BuildContext(c), u.ID, submission.ContextChat(c))
}

// Cancel drops every conversation of the sender.
func (h *Handlers) Cancel(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	if !h.resetFlows(u.ID) {
		return helpers.SendText(c, TextNothingActive, h.menu)
	}
	return helpers.SendText(c, TextCancelled, h.menu)
}

// Unknown answers text nothing else claimed.
func (h *Handlers) Unknown(c tele.Context) error {
	return helpers.SendText(c, TextUnknown, h.menu)
}

// RateLimited answers updates dropped by the rate limiter.
func RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: TextRateLimited})
	}
	return helpers.SendText(c, TextRateLimited)
}

// Sold handles the channel "sold" button.
func (h *Handlers) Sold(c tele.Context) error {
	cb := c.Callback()
	u := c.Sender()
	if cb == nil || u == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	action, err := publish.DecodeSoldPayload(callbacks.Payload(c))
	if err != nil {
		logger.Warn(ctx, "service.sale", "action.decode", slog.String("data", callbacks.Raw(c)), logger.Err(err))
		return c.Respond(&tele.CallbackResponse{Text: sale.AckNotFound, ShowAlert: true})
	}

	req := sale.Request{Action: action, ActorID: u.ID}
	if m := cb.Message; m != nil {
		req.Origin = sale.Origin{MessageID: int64(m.ID), HasCaption: m.Caption != ""}
		if m.Chat != nil {
			req.Origin.ChatID = m.Chat.ID
		}
	}
	res, err := h.deps.Sale.Close(ctx, req)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: sale.AckFailed, ShowAlert: true})
	}
	switch res.Outcome {
	case sale.OutcomeSold:
		return c.Respond(&tele.CallbackResponse{Text: sale.AckSold})
	case sale.OutcomeDenied:
		return c.Respond(&tele.CallbackResponse{Text: sale.AckDenied, ShowAlert: true})
	default:
		return c.Respond(&tele.CallbackResponse{Text: sale.AckNotFound, ShowAlert: true})
	}
}

// Republish posts a stored listing that never reached the channel.
func (h *Handlers) Republish(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return helpers.SendText(c, TextRepublishUsage)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return helpers.SendText(c, TextRepublishUsage)
	}
	ctx := helpers.BuildContext(c)
	outcome := h.republish(ctx, id)
	logger.Info(ctx, "service.publish", "listing.republish",
		slog.Int64("listing_id", id),
		slog.String("outcome", outcome),
	)
	return helpers.SendText(c, republishText(id, outcome))
}

func (h *Handlers) republish(ctx context.Context, id int64) string {
	l, err := h.deps.Store.GetListing(ctx, id)
	switch {
	case errors.Is(err, listing.ErrNotFound):
		return "not_found"
	case err != nil:
		logger.Error(ctx, "service.publish", "listing.get", slog.Int64("listing_id", id), logger.Err(err))
		return "fail"
	case l.Sold():
		return "sold"
	case l.Published():
		return "already"
	}
	res, err := h.deps.Publisher.Publish(ctx, l)
	if err != nil {
		return "fail"
	}
	err = h.deps.Store.SetChannelReference(ctx, id, res.CaptionRef)
	if errors.Is(err, listing.ErrAlreadyPublished) {
		// Another republish won the race; the channel now has a duplicate post.
		logger.Warn(ctx, "service.publish", "listing.republish", slog.Int64("listing_id", id), logger.Err(err))
		return "already"
	}
	if err != nil {
		logger.Error(ctx, "service.publish", "listing.channel_ref", slog.Int64("listing_id", id), logger.Err(err))
	}
	return "ok"
}

func contactKeyboard() *tele.ReplyMarkup {
	return keyboard.ContactRequest(BtnSharePhone)
}
