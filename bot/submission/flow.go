package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/bot/metrics"
	"github.com/m3rciful/avtobot/bot/notify"
	"github.com/m3rciful/avtobot/bot/publish"
	"github.com/m3rciful/avtobot/core/logger"
	"github.com/m3rciful/avtobot/core/telegram/helpers"
	"github.com/m3rciful/avtobot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const component = "service.submission"

// maxAttempts bounds retries when the session moves between read and update.
const maxAttempts = 3

// Store is the subset of the Listing Store the flow needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (listing.User, error)
	CreateListing(ctx context.Context, d listing.Draft) (int64, error)
	SetChannelReference(ctx context.Context, id, ref int64) error
}

// Publisher posts a stored listing to the channel.
type Publisher interface {
	Publish(ctx context.Context, l listing.Listing) (publish.Result, error)
}

// Notifier delivers the admin summary.
type Notifier interface {
	Admins(ctx context.Context, effect, text string) []notify.EffectResult
}

// Chat answers the submitter.
type Chat interface {
	Reply(text string, markup *tele.ReplyMarkup) error
	Photo(fileID, caption string, markup *tele.ReplyMarkup) error
	Album(fileIDs []string) error
}

// Flow runs submission conversations, one session per user.
type Flow struct {
	sessions  state.Manager[listing.Draft]
	store     Store
	publisher Publisher
	notifier  Notifier
	menu      *tele.ReplyMarkup
}

// New builds a Flow. menu is restored when a conversation ends.
func New(sessions state.Manager[listing.Draft], store Store, publisher Publisher, notifier Notifier, menu *tele.ReplyMarkup) *Flow {
	if sessions == nil {
		sessions = state.NewMemoryManager[listing.Draft]()
	}
	return &Flow{sessions: sessions, store: store, publisher: publisher, notifier: notifier, menu: menu}
}

func (f *Flow) Name() string { return "submission" }

func (f *Flow) InProgress(userID int64) bool { return f.sessions.InProgress(userID) }

// Session exposes the current session of a user.
func (f *Flow) Session(userID int64) state.Session[listing.Draft] { return f.sessions.Get(userID) }

// Start opens a fresh conversation, discarding any previous draft. A
// submission being published is not interrupted.
func (f *Flow) Start(ctx context.Context, userID int64, chat Chat) error {
	res := Start(userID)
	busy := false
	f.sessions.Update(userID, func(s state.Session[listing.Draft]) state.Session[listing.Draft] {
		if s.State == StatePublishing {
			busy = true
			return s
		}
		return state.Session[listing.Draft]{State: res.State, Data: res.Draft}
	})
	if busy {
		return chat.Reply(textWait, nil)
	}
	logger.Info(ctx, component, "submission.start", slog.Int64("user_id", userID))
	return f.apply(ctx, userID, res, chat)
}

// Reset drops the user's conversation. It reports whether one was active.
// A submission already being published is left alone.
func (f *Flow) Reset(userID int64) bool {
	was := false
	f.sessions.Update(userID, func(s state.Session[listing.Draft]) state.Session[listing.Draft] {
		if s.State == StatePublishing {
			return s
		}
		was = s.Active()
		return state.Session[listing.Draft]{State: StateIdle}
	})
	return was
}

// Handle adapts a Telegram update into an Event.
func (f *Flow) Handle(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	return f.Process(helpers.BuildContext(c), u.ID, EventFrom(c), ContextChat(c))
}

// Confirm handles the preview's confirm button.
func (f *Flow) Confirm(c tele.Context) error {
	return f.callback(c, EventConfirm)
}

// Cancel handles the preview's cancel button.
func (f *Flow) Cancel(c tele.Context) error {
	return f.callback(c, EventCancel)
}

func (f *Flow) callback(c tele.Context, kind EventKind) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	_ = c.Respond()
	return f.Process(helpers.BuildContext(c), u.ID, Event{Kind: kind}, ContextChat(c))
}

// EventFrom classifies the message in c.
func EventFrom(c tele.Context) Event {
	msg := c.Message()
	if msg == nil {
		return Event{Kind: EventOther}
	}
	switch {
	case msg.Photo != nil && msg.Photo.FileID != "":
		return Event{Kind: EventPhoto, Photo: msg.Photo.FileID}
	case msg.Text != "":
		return Event{Kind: EventText, Text: msg.Text}
	}
	return Event{Kind: EventOther}
}

// Process feeds one event through the state machine and executes its effects.
func (f *Flow) Process(ctx context.Context, userID int64, ev Event, chat Chat) error {
	for attempt := 1; ; attempt++ {
		cur := f.sessions.Get(userID)

		if cur.State == StateRegion && ev.Kind == EventText && !CancelWords.Match(ev.Text) {
			u, err := f.store.GetUser(ctx, userID)
			if err != nil && !errors.Is(err, listing.ErrNotFound) {
				logger.Error(ctx, component, "user.lookup", slog.Int64("user_id", userID), logger.Err(err))
				return chat.Reply(textLookupFailed, nil)
			}
			if err == nil {
				ev.User = &u
			}
		}

		var (
			res     Result
			applied bool
		)
		f.sessions.Update(userID, func(s state.Session[listing.Draft]) state.Session[listing.Draft] {
			if s.State != cur.State {
				return s
			}
			applied = true
			res = Transition(s.State, ev, s.Data)
			if !res.Changed {
				return s
			}
			if Terminal(res.State) {
				return state.Session[listing.Draft]{State: StateIdle}
			}
			return state.Session[listing.Draft]{State: res.State, Data: res.Draft}
		})
		if applied {
			if res.Changed && res.State != cur.State {
				logger.Debug(ctx, component, "state.transition",
					slog.Int64("user_id", userID),
					slog.String("from", string(cur.State)),
					slog.String("to", string(res.State)),
				)
			}
			if res.State == StateCancelled {
				metrics.Submission("cancelled")
			}
			return f.apply(ctx, userID, res, chat)
		}
		if attempt >= maxAttempts {
			return chat.Reply(textWait, nil)
		}
	}
}

func (f *Flow) apply(ctx context.Context, userID int64, res Result, chat Chat) error {
	var errs []error
	for _, e := range res.Effects {
		switch e.Kind {
		case EffectNotice:
			errs = append(errs, chat.Reply(NoticeText(e), stepKeyboard(res.State, f.menu)))
		case EffectPreview:
			errs = append(errs, f.preview(e.Draft, chat))
		case EffectCommit:
			errs = append(errs, f.commit(ctx, userID, e.Draft, chat))
		}
	}
	return errors.Join(errs...)
}

func (f *Flow) preview(d listing.Draft, chat Chat) error {
	l := d.Listing()
	caption := listing.Caption(l)
	switch len(l.Photos) {
	case 0:
		return chat.Reply(caption, PreviewMarkup())
	case 1:
		return chat.Photo(l.Photos[0], caption, PreviewMarkup())
	}
	// Media groups cannot carry inline buttons, so the caption follows the album.
	if err := chat.Album(l.Photos); err != nil {
		return err
	}
	return chat.Reply(caption, PreviewMarkup())
}

// commit persists and publishes d. It runs outside the session lock while
// the session sits in StatePublishing.
func (f *Flow) commit(ctx context.Context, userID int64, d listing.Draft, chat Chat) error {
	start := time.Now()
	id, err := f.store.CreateListing(ctx, d)
	if err != nil {
		f.sessions.Update(userID, func(s state.Session[listing.Draft]) state.Session[listing.Draft] {
			if s.State == StatePublishing {
				s.State = StateConfirm
			}
			return s
		})
		metrics.Submission("store_failed")
		logger.Error(ctx, component, "listing.create",
			slog.Int64("user_id", userID),
			slog.Duration("duration", logger.Took(start)),
			logger.Err(err),
		)
		return chat.Reply(textSaveFailed, PreviewMarkup())
	}

	l := d.Listing()
	l.ID = id
	var effects []notify.EffectResult

	res, perr := f.publisher.Publish(ctx, l)
	published := perr == nil
	if published {
		l.ChannelRef = res.CaptionRef
		if err := f.store.SetChannelReference(ctx, id, res.CaptionRef); err != nil {
			effects = append(effects, notify.EffectResult{Name: "channel_ref", Target: res.CaptionRef, Err: err})
		}
	}

	f.sessions.Update(userID, func(s state.Session[listing.Draft]) state.Session[listing.Draft] {
		if s.State == StatePublishing {
			return state.Session[listing.Draft]{State: StateIdle}
		}
		return s
	})

	var replyErr error
	if published {
		metrics.Submission("published")
		replyErr = chat.Reply(PublishedText(id), f.menu)
	} else {
		metrics.Submission("publish_failed")
		replyErr = chat.Reply(UnpublishedText(id), f.menu)
	}

	effects = append(effects, f.notifier.Admins(ctx, "admin_new_listing", AdminSummary(l, published))...)
	failed := notify.Report(ctx, component, id, effects...)

	attrs := []slog.Attr{
		slog.Int64("user_id", userID),
		slog.Int64("listing_id", id),
		slog.Int("photos", len(l.Photos)),
		slog.Bool("published", published),
		slog.Int("effects_failed", failed),
		slog.Duration("duration", logger.Took(start)),
	}
	if !published {
		logger.Warn(ctx, component, "submission.commit", append(attrs, logger.Err(perr))...)
	} else {
		logger.Info(ctx, component, "submission.commit", attrs...)
	}
	if replyErr != nil {
		return fmt.Errorf("submission: reply: %w", replyErr)
	}
	return nil
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

func (ch contextChat) Album(fileIDs []string) error {
	return helpers.SendAlbum(ch.c, fileIDs)
}
