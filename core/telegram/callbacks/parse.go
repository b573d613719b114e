// Package callbacks decodes inline button data.
//
// Two encodings reach the bot: telebot's own "\f<unique>|<payload>" form, used by
// buttons built with ReplyMarkup.Data, and the raw "<tag>:<payload>" form used by
// buttons whose data must stay stable across releases (channel posts live
// forever, so their payload is a wire contract).
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits callback data into a routing key and payload.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}

// ParseData splits raw callback data. Data without a separator is its own key.
func ParseData(data string) (key, payload string) {
	// The telebot marker is a form feed, which TrimSpace would eat.
	if rest, ok := strings.CutPrefix(data, "\f"); ok {
		key, payload, _ = strings.Cut(rest, "|")
		return strings.TrimSpace(key), payload
	}
	key, payload, _ = strings.Cut(strings.TrimSpace(data), ":")
	return strings.TrimSpace(key), payload
}

// Payload returns the payload of the callback in c.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}

// Raw returns the full callback data as sent by Telegram.
func Raw(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return "\f" + cb.Unique
		}
		return "\f" + cb.Unique + "|" + cb.Data
	}
	return cb.Data
}
