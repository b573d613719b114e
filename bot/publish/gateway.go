package publish

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// BotGateway implements Gateway and the edit operations over a telebot Bot.
type BotGateway struct {
	Bot *tele.Bot
}

// NewBotGateway wraps b.
func NewBotGateway(b *tele.Bot) *BotGateway {
	return &BotGateway{Bot: b}
}

func htmlOpts(markup *tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	return opts
}

func (g *BotGateway) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int64, error) {
	msg, err := g.Bot.Send(tele.ChatID(chatID), text, htmlOpts(markup))
	if err != nil {
		return 0, err
	}
	return int64(msg.ID), nil
}

func (g *BotGateway) SendPhoto(_ context.Context, chatID int64, fileID, caption string, markup *tele.ReplyMarkup) (int64, error) {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	msg, err := g.Bot.Send(tele.ChatID(chatID), photo, htmlOpts(markup))
	if err != nil {
		return 0, err
	}
	return int64(msg.ID), nil
}

func (g *BotGateway) SendAlbum(_ context.Context, chatID int64, fileIDs []string, caption string) ([]int64, error) {
	album := make(tele.Album, 0, len(fileIDs))
	for i, id := range fileIDs {
		p := &tele.Photo{File: tele.File{FileID: id}}
		if i == 0 {
			p.Caption = caption
		}
		album = append(album, p)
	}
	msgs, err := g.Bot.SendAlbum(tele.ChatID(chatID), album, &tele.SendOptions{ParseMode: tele.ModeHTML})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = int64(m.ID)
	}
	return ids, nil
}

func (g *BotGateway) EditCaption(_ context.Context, chatID, msgID int64, caption string, markup *tele.ReplyMarkup) error {
	_, err := g.Bot.EditCaption(stored(chatID, msgID), caption, htmlOpts(markup))
	return wrapEdit("caption", msgID, err)
}

func (g *BotGateway) EditText(_ context.Context, chatID, msgID int64, text string, markup *tele.ReplyMarkup) error {
	_, err := g.Bot.Edit(stored(chatID, msgID), text, htmlOpts(markup))
	return wrapEdit("text", msgID, err)
}

func (g *BotGateway) SendDirect(_ context.Context, userID int64, text string) error {
	_, err := g.Bot.Send(tele.ChatID(userID), text, htmlOpts(nil))
	return err
}

func stored(chatID, msgID int64) tele.StoredMessage {
	return tele.StoredMessage{ChatID: chatID, MessageID: strconv.FormatInt(msgID, 10)}
}

func wrapEdit(kind string, msgID int64, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("edit %s %d: %w", kind, msgID, err)
}
