package listing

import (
	"fmt"
	"strings"

	"github.com/m3rciful/avtobot/core/telegram/format"
)

const soldMarker = "\n\n✅ <b>SOTILDI</b>"

// Caption renders the HTML caption shared by previews, channel posts and search results.
func Caption(l Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚗 %s\n", format.Bold(orDefault(l.Model, "Noma’lum")))
	fmt.Fprintf(&b, "💰 Narx: <b>%d$</b>\n", l.Price)
	fmt.Fprintf(&b, "⚙️ Holati: %s\n", format.EscapeHTML(format.OrDash(l.Condition)))
	fmt.Fprintf(&b, "🔧 Uzatma: %s\n", format.EscapeHTML(format.OrDash(l.Transmission)))
	fmt.Fprintf(&b, "🎨 Rang: %s\n", format.EscapeHTML(format.OrDash(l.Color)))
	fmt.Fprintf(&b, "📏 Probeg: %d km\n", l.Mileage)
	fmt.Fprintf(&b, "📍 Hudud: %s\n\n", format.EscapeHTML(format.OrDash(l.Region)))
	fmt.Fprintf(&b, "📞 Aloqa: %s\n", format.EscapeHTML(format.OrDash(l.Phone)))
	if h := strings.TrimSpace(l.Handle); h != "" {
		fmt.Fprintf(&b, "👤 Telegram: @%s\n", format.EscapeHTML(h))
	}
	fmt.Fprintf(&b, "📷 Rasmlar soni: %d", len(l.Photos))
	return b.String()
}

// SoldCaption is Caption with the sold marker appended.
func SoldCaption(l Listing) string {
	return Caption(l) + soldMarker
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
