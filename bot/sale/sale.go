// Package sale closes listings from the channel "sold" button.
package sale

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

	tele "gopkg.in/telebot.v4"
)

// Outcome of a sold action.
type Outcome string

const (
	OutcomeSold     Outcome = "sold"
	OutcomeDenied   Outcome = "denied"
	OutcomeNotFound Outcome = "not_found"
)

// Store is the subset of the Listing Store the protocol mutates.
type Store interface {
	MarkSold(ctx context.Context, id, ownerID int64) (listing.Listing, error)
	GetListing(ctx context.Context, id int64) (listing.Listing, error)
}

// Editor edits previously published channel messages. A nil markup removes
// the inline keyboard.
type Editor interface {
	EditCaption(ctx context.Context, chatID, msgID int64, caption string, markup *tele.ReplyMarkup) error
	EditText(ctx context.Context, chatID, msgID int64, text string, markup *tele.ReplyMarkup) error
}

// Notifier delivers owner and admin notices.
type Notifier interface {
	Direct(ctx context.Context, effect string, userID int64, text string) notify.EffectResult
	Admins(ctx context.Context, effect, text string) []notify.EffectResult
}

// Admins answers admin membership.
type Admins interface {
	Has(userID int64) bool
}

// Origin is the channel message the button was pressed on.
type Origin struct {
	ChatID     int64
	MessageID  int64
	HasCaption bool
}

// Request is one press of the sold button.
type Request struct {
	Action  publish.SoldAction
	ActorID int64
	Origin  Origin
}

// Result reports what happened. Effects lists every edit and notification
// attempted after the listing was closed.
type Result struct {
	Outcome Outcome
	Listing listing.Listing
	ByAdmin bool
	Effects []notify.EffectResult
}

// Closer runs the sale-closing protocol.
type Closer struct {
	store    Store
	editor   Editor
	notifier Notifier
	admins   Admins
}

// New wires a Closer.
func New(store Store, editor Editor, notifier Notifier, admins Admins) *Closer {
	return &Closer{store: store, editor: editor, notifier: notifier, admins: admins}
}

// Close authorizes the actor, marks the listing sold and updates the channel
// post. Only store failures other than "not found" are returned as errors.
func (c *Closer) Close(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	a := req.Action
	isAdmin := c.admins != nil && c.admins.Has(req.ActorID)
	attrs := []slog.Attr{
		slog.Int64("listing_id", a.ListingID),
		slog.Int64("owner_id", a.OwnerID),
		slog.Int64("actor_id", req.ActorID),
		slog.Int64("caption_ref", a.CaptionRef),
	}

	if req.ActorID != a.OwnerID && !isAdmin {
		metrics.Sale(string(OutcomeDenied))
		logger.Info(ctx, "service.sale", "listing.sold", append(attrs,
			slog.String("status", "denied"),
			slog.String("outcome", string(OutcomeDenied)),
		)...)
		return Result{Outcome: OutcomeDenied}, nil
	}

	l, err := c.resolve(ctx, a, isAdmin)
	if errors.Is(err, listing.ErrNotFound) {
		metrics.Sale(string(OutcomeNotFound))
		logger.Info(ctx, "service.sale", "listing.sold", append(attrs,
			slog.String("status", "not_found"),
			slog.String("outcome", string(OutcomeNotFound)),
		)...)
		return Result{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		logger.Error(ctx, "service.sale", "listing.sold", append(attrs,
			slog.String("status", "fail"),
			logger.Err(err),
		)...)
		return Result{}, fmt.Errorf("sale: close listing %d: %w", a.ListingID, err)
	}

	res := Result{Outcome: OutcomeSold, Listing: l, ByAdmin: req.ActorID != l.OwnerID}
	res.Effects = append(res.Effects, c.editPost(ctx, l, req)...)
	res.Effects = append(res.Effects, c.notifier.Direct(ctx, "notify_owner", l.OwnerID, OwnerNotice(l)))
	res.Effects = append(res.Effects, c.notifier.Admins(ctx, "notify_admin", AdminNotice(l))...)
	failed := notify.Report(ctx, "service.sale", l.ID, res.Effects...)

	metrics.Sale(string(OutcomeSold))
	logger.Info(ctx, "service.sale", "listing.sold", append(attrs,
		slog.String("status", "ok"),
		slog.String("outcome", string(OutcomeSold)),
		slog.Bool("by_admin", res.ByAdmin),
		slog.Int("count", len(res.Effects)),
		slog.Int("failed", failed),
		slog.Duration("duration", logger.Took(start)),
	)...)
	return res, nil
}

// resolve marks the listing sold for the payload owner. Admins get one retry
// with the stored owner, covering payloads whose owner field does not match
// the record.
func (c *Closer) resolve(ctx context.Context, a publish.SoldAction, isAdmin bool) (listing.Listing, error) {
	l, err := c.store.MarkSold(ctx, a.ListingID, a.OwnerID)
	if err == nil || !errors.Is(err, listing.ErrNotFound) || !isAdmin {
		return l, err
	}
	stored, err := c.store.GetListing(ctx, a.ListingID)
	if err != nil {
		return listing.Listing{}, err
	}
	if stored.OwnerID == a.OwnerID {
		return listing.Listing{}, listing.ErrNotFound
	}
	return c.store.MarkSold(ctx, a.ListingID, stored.OwnerID)
}

func (c *Closer) editPost(ctx context.Context, l listing.Listing, req Request) []notify.EffectResult {
	o := req.Origin
	caption := listing.SoldCaption(l)
	if req.Action.Album() {
		ref := req.Action.CaptionRef
		return []notify.EffectResult{
			{Name: "edit_caption", Target: ref, Err: c.editor.EditCaption(ctx, o.ChatID, ref, caption, nil)},
			{Name: "edit_action", Target: o.MessageID, Err: c.editor.EditText(ctx, o.ChatID, o.MessageID, AlbumSoldText(l.ID), nil)},
		}
	}
	if o.HasCaption {
		return []notify.EffectResult{
			{Name: "edit_caption", Target: o.MessageID, Err: c.editor.EditCaption(ctx, o.ChatID, o.MessageID, caption, nil)},
		}
	}
	return []notify.EffectResult{
		{Name: "edit_text", Target: o.MessageID, Err: c.editor.EditText(ctx, o.ChatID, o.MessageID, caption, nil)},
	}
}
