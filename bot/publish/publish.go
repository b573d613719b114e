// Package publish renders listings into channel posts.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/bot/metrics"
	"github.com/m3rciful/avtobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Shape is the channel layout chosen by photo count.
type Shape string

const (
	ShapeText  Shape = "text"
	ShapePhoto Shape = "photo"
	ShapeAlbum Shape = "album"
)

// ShapeFor picks the layout for n photos.
func ShapeFor(n int) Shape {
	switch {
	case n == 0:
		return ShapeText
	case n == 1:
		return ShapePhoto
	default:
		return ShapeAlbum
	}
}

// Gateway is the outbound messaging surface used for channel posts.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int64, error)
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, markup *tele.ReplyMarkup) (int64, error)
	// SendAlbum returns the message ids in item order; caption goes on the first item.
	SendAlbum(ctx context.Context, chatID int64, fileIDs []string, caption string) ([]int64, error)
}

// Result describes a completed publication.
type Result struct {
	Shape Shape
	// CaptionRef is the message carrying the caption; stored on the listing.
	CaptionRef int64
	// ActionRef is the message carrying the sold button.
	ActionRef int64
	// ActionErr is set when an album was posted but its follow-up action
	// message failed. The post itself stands.
	ActionErr error
}

// Publisher posts listings to one channel.
type Publisher struct {
	gw      Gateway
	channel int64
}

// New returns a Publisher targeting channelID.
func New(gw Gateway, channelID int64) *Publisher {
	return &Publisher{gw: gw, channel: channelID}
}

// Publish posts l, which must already be persisted.
func (p *Publisher) Publish(ctx context.Context, l listing.Listing) (Result, error) {
	if l.ID <= 0 {
		return Result{}, fmt.Errorf("publish: listing has no id")
	}
	if len(l.Photos) > listing.MaxPhotos {
		return Result{}, fmt.Errorf("publish: %d photos exceed limit %d", len(l.Photos), listing.MaxPhotos)
	}
	start := time.Now()
	res, err := p.publish(ctx, l)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int64("listing_id", l.ID),
		slog.String("shape", string(ShapeFor(len(l.Photos)))),
		slog.Int("photos", len(l.Photos)),
		slog.Int64("caption_ref", res.CaptionRef),
		slog.Int64("action_ref", res.ActionRef),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		metrics.PublishFailed()
		logger.Warn(ctx, "service.publish", "listing.publish", append(attrs, logger.Err(err))...)
		return Result{}, err
	}
	metrics.Published(string(res.Shape))
	if res.ActionErr != nil {
		metrics.EffectFailed("album_action")
		logger.Warn(ctx, "service.publish", "listing.publish", append(attrs,
			slog.String("effect", "album_action"),
			logger.Err(res.ActionErr),
		)...)
		return res, nil
	}
	logger.Info(ctx, "service.publish", "listing.publish", attrs...)
	return res, nil
}

func (p *Publisher) publish(ctx context.Context, l listing.Listing) (Result, error) {
	caption := listing.Caption(l)
	single := SoldAction{ListingID: l.ID, OwnerID: l.OwnerID}

	switch shape := ShapeFor(len(l.Photos)); shape {
	case ShapeText:
		id, err := p.gw.SendText(ctx, p.channel, caption, ActionMarkup(l, single))
		if err != nil {
			return Result{}, fmt.Errorf("publish: send text: %w", err)
		}
		return Result{Shape: shape, CaptionRef: id, ActionRef: id}, nil

	case ShapePhoto:
		id, err := p.gw.SendPhoto(ctx, p.channel, l.Photos[0], caption, ActionMarkup(l, single))
		if err != nil {
			return Result{}, fmt.Errorf("publish: send photo: %w", err)
		}
		return Result{Shape: shape, CaptionRef: id, ActionRef: id}, nil

	default:
		ids, err := p.gw.SendAlbum(ctx, p.channel, l.Photos, caption)
		if err != nil {
			return Result{}, fmt.Errorf("publish: send album: %w", err)
		}
		if len(ids) == 0 || ids[0] == 0 {
			return Result{}, fmt.Errorf("publish: album returned no message ids")
		}
		res := Result{Shape: shape, CaptionRef: ids[0]}
		action := SoldAction{ListingID: l.ID, OwnerID: l.OwnerID, CaptionRef: ids[0]}
		id, err := p.gw.SendText(ctx, p.channel, FollowUpText(l.ID), ActionMarkup(l, action))
		if err != nil {
			res.ActionErr = fmt.Errorf("publish: send album action: %w", err)
			return res, nil
		}
		res.ActionRef = id
		return res, nil
	}
}

// FollowUpText is the body of the action message under an album.
func FollowUpText(id int64) string {
	return fmt.Sprintf("⬆️ E’lon #%d", id)
}
