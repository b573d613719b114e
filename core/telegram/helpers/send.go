package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/avtobot/core/logger"
	"github.com/m3rciful/avtobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by the reply helpers.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			logger.Err(err),
		)
		return run()
	}
	return err
}

// SendText queues a plain text reply to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return sendAsync(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}

// SendHTML queues an HTML-formatted reply to the current chat.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return sendAsync(c, "send.html", func() error {
		return c.Send(text, opts)
	})
}

// SendAlbum queues a media group of photos to the current chat.
func SendAlbum(c tele.Context, fileIDs []string) error {
	album := make(tele.Album, 0, len(fileIDs))
	for _, id := range fileIDs {
		album = append(album, &tele.Photo{File: tele.File{FileID: id}})
	}
	return sendAsync(c, "send.album", func() error {
		return c.SendAlbum(album)
	})
}

// SendQueued queues an arbitrary sendable (photo, album item, text) to the
// current chat, keeping order with the other queued replies.
func SendQueued(c tele.Context, action string, what any, opts ...any) error {
	return sendAsync(c, action, func() error {
		return c.Send(what, opts...)
	})
}
