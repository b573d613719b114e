// Package search runs the model and price-range search conversation.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/bot/metrics"
	"github.com/m3rciful/avtobot/core/logger"
	"github.com/m3rciful/avtobot/core/telegram/helpers"
	"github.com/m3rciful/avtobot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const component = "service.search"

// Unbounded is the upper price used when the user skips the maximum.
const Unbounded int64 = 999_999_999

const maxModelLen = 100

// Conversation steps.
const (
	StateModel state.State = "search_model"
	StateMin   state.State = "search_min"
	StateMax   state.State = "search_max"
)

var (
	cancelWords = listing.NewKeywords("bekor", "/cancel", "cancel", "❌ bekor qilish")
	skipWords   = listing.NewKeywords("skip", "o‘tkazish")
)

// Query accumulates the search criteria.
type Query struct {
	Model string
	Min   int64
	Max   int64
}

// Store is the read side of the Listing Store used by search.
type Store interface {
	GetUser(ctx context.Context, id int64) (listing.User, error)
	SearchActive(ctx context.Context, f listing.SearchFilter) ([]listing.Listing, error)
}

// Chat answers the searching user.
type Chat interface {
	Reply(text string, markup *tele.ReplyMarkup) error
	Photo(fileID, caption string, markup *tele.ReplyMarkup) error
}

// Flow runs search conversations.
type Flow struct {
	sessions state.Manager[Query]
	store    Store
	limit    int
	menu     *tele.ReplyMarkup
}

// New builds a Flow returning at most limit results (0 means unbounded).
func New(sessions state.Manager[Query], store Store, limit int, menu *tele.ReplyMarkup) *Flow {
	if sessions == nil {
		sessions = state.NewMemoryManager[Query]()
	}
	return &Flow{sessions: sessions, store: store, limit: limit, menu: menu}
}

func (f *Flow) Name() string { return "search" }

func (f *Flow) InProgress(userID int64) bool { return f.sessions.InProgress(userID) }

// Reset drops the user's search. It reports whether one was active.
func (f *Flow) Reset(userID int64) bool {
	was := f.sessions.InProgress(userID)
	f.sessions.Clear(userID)
	return was
}

// Start asks for the model. Only registered users may search.
func (f *Flow) Start(ctx context.Context, userID int64, chat Chat) error {
	if _, err := f.store.GetUser(ctx, userID); err != nil {
		if !errors.Is(err, listing.ErrNotFound) {
			logger.Error(ctx, component, "user.lookup", slog.Int64("user_id", userID), logger.Err(err))
			return chat.Reply(TextFailed, f.menu)
		}
		return chat.Reply(TextNotRegistered, nil)
	}
	f.sessions.Set(userID, state.Session[Query]{State: StateModel})
	return chat.Reply(TextAskModel, nil)
}

// Handle adapts a Telegram message.
func (f *Flow) Handle(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	msg := c.Message()
	isText := msg != nil && msg.Text != "" && msg.Photo == nil
	txt := ""
	if isText {
		txt = msg.Text
	}
	return f.Process(helpers.BuildContext(c), u.ID, txt, isText, ContextChat(c))
}

// Process advances the search by one message. isText is false for media.
func (f *Flow) Process(ctx context.Context, userID int64, text string, isText bool, chat Chat) error {
	if !isText {
		return chat.Reply(TextWantText, nil)
	}
	if cancelWords.Match(text) {
		f.sessions.Clear(userID)
		return chat.Reply(TextCancelled, f.menu)
	}

	var (
		reply string
		done  bool
		q     Query
	)
	f.sessions.Update(userID, func(s state.Session[Query]) state.Session[Query] {
		switch s.State {
		case StateModel:
			m := strings.TrimSpace(text)
			if m == "" || utf8.RuneCountInString(m) > maxModelLen {
				reply = TextWantText
				return s
			}
			s.Data.Model = m
			s.State = StateMin
			reply = TextAskMin
		case StateMin:
			n, ok := parsePrice(text, 0)
			if !ok {
				reply = TextBadPrice
				return s
			}
			s.Data.Min = n
			s.State = StateMax
			reply = TextAskMax
		case StateMax:
			n, ok := parsePrice(text, Unbounded)
			if !ok {
				reply = TextBadPrice
				return s
			}
			if n < s.Data.Min {
				reply = TextMaxBelowMin
				return s
			}
			s.Data.Max = n
			q = s.Data
			done = true
			return state.Session[Query]{State: state.StateIdle}
		default:
			reply = TextStale
		}
		return s
	})
	if !done {
		return chat.Reply(reply, nil)
	}
	return f.run(ctx, userID, q, chat)
}

func parsePrice(text string, skipped int64) (int64, bool) {
	if skipWords.Match(text) {
		return skipped, true
	}
	return listing.ParseAmount(text)
}

func (f *Flow) run(ctx context.Context, userID int64, q Query, chat Chat) error {
	found, err := f.store.SearchActive(ctx, listing.SearchFilter{
		Model:    q.Model,
		PriceMin: q.Min,
		PriceMax: q.Max,
		Limit:    f.limit,
	})
	if err != nil {
		logger.Error(ctx, component, "search.run", slog.Int64("user_id", userID), logger.Err(err))
		return chat.Reply(TextFailed, f.menu)
	}
	metrics.SearchResults(len(found))
	logger.Info(ctx, component, "search.run",
		slog.Int64("user_id", userID),
		slog.String("model", logger.SanitizeLimit(q.Model, 64)),
		slog.Int64("price_min", q.Min),
		slog.Int64("price_max", q.Max),
		slog.Int("results", len(found)),
	)
	if len(found) == 0 {
		return chat.Reply(NotFoundText(q), f.menu)
	}

	errs := []error{chat.Reply(FoundText(len(found)), nil)}
	for _, l := range found {
		caption := fmt.Sprintf("🆔 #%d\n%s", l.ID, listing.Caption(l))
		if cover := l.Cover(); cover != "" {
			errs = append(errs, chat.Photo(cover, caption, nil))
			continue
		}
		errs = append(errs, chat.Reply(caption, nil))
	}
	errs = append(errs, chat.Reply(TextDone, f.menu))
	return errors.Join(errs...)
}

type contextChat struct{ c tele.Context }

// ContextChat answers through the reply helpers of c.
func ContextChat(c tele.Context) Chat { return contextChat{c: c} }

func (ch contextChat) Reply(text string, markup *tele.ReplyMarkup) error {
	return helpers.SendHTML(ch.c, text, markup)
}

func (ch contextChat) Photo(fileID, caption string, markup *tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
	return helpers.SendQueued(ch.c, "send.photo", photo, opts)
}
