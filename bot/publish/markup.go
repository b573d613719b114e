package publish

import (
	"strings"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	writeSellerLabel = "💬 Sotuvchiga yozish"
	soldLabel        = "✅ Sotildi"
)

// ActionMarkup builds the channel post keyboard: an optional link to the
// seller and the sold button carrying action.
func ActionMarkup(l listing.Listing, action SoldAction) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn
	if h := strings.TrimPrefix(strings.TrimSpace(l.Handle), "@"); h != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: writeSellerLabel, URL: "https://t.me/" + h}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: soldLabel, Data: action.Encode()}})
	return keyboard.InlineRows(rows...)
}
