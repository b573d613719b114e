package sale

import (
	"fmt"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/format"
)

// Replies to the actor, shown as callback answers.
const (
	AckSold     = "✅ E’lon sotildi deb belgilandi."
	AckDenied   = "❌ Bu e’lonni faqat egasi yoki admin yopishi mumkin."
	AckNotFound = "❌ E’lon topilmadi yoki allaqachon sotilgan."
	AckFailed   = "⚠️ Xatolik yuz berdi. Keyinroq urinib ko‘ring."
)

// AlbumSoldText replaces the action message under a sold album.
func AlbumSoldText(id int64) string {
	return fmt.Sprintf("✅ <b>SOTILDI</b> — E’lon #%d", id)
}

// OwnerNotice tells the owner the listing was closed.
func OwnerNotice(l listing.Listing) string {
	return fmt.Sprintf("✅ Sizning #%d raqamli e’loningiz (%s) sotildi deb belgilandi.",
		l.ID, format.EscapeHTML(l.Model))
}

// AdminNotice summarizes a sale for admins.
func AdminNotice(l listing.Listing) string {
	return fmt.Sprintf("✅ <b>E’lon sotildi</b>\n\n#%d — %s — %d$\n👤 Egasi: <code>%d</code>",
		l.ID, format.EscapeHTML(l.Model), l.Price, l.OwnerID)
}
