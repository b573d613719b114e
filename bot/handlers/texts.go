package handlers

import (
	"fmt"
	"strings"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/format"
	"github.com/m3rciful/avtobot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Main menu labels.
const (
	BtnSearch     = "🔍 Mashina qidirish"
	BtnSell       = "📢 Mashina reklama berish"
	BtnSharePhone = "📞 Telefon raqamni yuborish"
)

const (
	TextWelcome = "🚗 Avto botga xush kelibsiz!\n\n" +
		"🔍 Mashina qidirish\n📢 Mashina reklama berish\n\n" +
		"Davom etish uchun telefon raqamingizni yuboring 👇"
	TextRegistered     = "✅ Rahmat! Endi foydalanishingiz mumkin."
	TextForeignContact = "❌ Iltimos, o‘zingizning telefon raqamingizni yuboring."
	TextUnknown        = "❌ Buyruq tushunilmadi.\n\nIltimos, menyudagi tugmalardan birini tanlang:"
	TextCancelled      = "❌ Jarayon bekor qilindi!"
	TextNothingActive  = "ℹ️ Faol jarayon yo‘q."
	TextFailed         = "⚠️ Xatolik yuz berdi. Keyinroq urinib ko‘ring."
	TextRateLimited    = "⏳ Juda tez! Iltimos biroz kuting."
	TextAdminDenied    = "❌ Bu bo‘lim faqat adminlar uchun."
	TextAdminPanel     = "🛠 Admin panel\n\nKerakli bo‘limni tanlang:"
	TextNoListings     = "ℹ️ Hali e’lonlar yo‘q."
	TextRepublishUsage = "ℹ️ Foydalanish: /republish <e’lon raqami>"
)

// Admin panel callback routing.
const (
	AdminKey     = "admin"
	AdminStats   = "stats"
	AdminRecent  = "recent"
	adminPayload = AdminKey + ":"
)

// MainMenu is the reply keyboard shown outside conversations.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{BtnSearch}, []string{BtnSell})
}

// AdminMarkup is the admin panel keyboard.
func AdminMarkup(recentLimit int) *tele.ReplyMarkup {
	return keyboard.InlineColumn(
		keyboard.InlineBtn{Text: "📊 Statistika", Data: adminPayload + AdminStats},
		keyboard.InlineBtn{Text: fmt.Sprintf("🕒 Oxirgi %d e’lon", recentLimit), Data: adminPayload + AdminRecent},
	)
}

// StatsText renders the admin statistics.
func StatsText(s listing.Stats) string {
	return fmt.Sprintf("📊 <b>Bot statistikasi</b>\n\n"+
		"👥 Userlar: <b>%d</b>\n"+
		"📢 Jami e’lonlar: <b>%d</b>\n"+
		"🟢 Aktiv e’lonlar: <b>%d</b>\n"+
		"✅ Sotilganlar: <b>%d</b>\n"+
		"🗓 Bugungi e’lonlar: <b>%d</b>\n"+
		"📍 Eng faol hudud: <b>%s</b> (%d)",
		s.Users, s.Listings, s.Active, s.Sold, s.Today,
		format.EscapeHTML(format.OrDash(s.TopRegion)), s.TopRegionCount)
}

// RecentText lists the newest listings.
func RecentText(limit int, ls []listing.Listing) string {
	if len(ls) == 0 {
		return TextNoListings
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕒 <b>Oxirgi %d ta e’lon</b>\n", limit)
	for _, l := range ls {
		status := "🟢 aktiv"
		if l.Sold() {
			status = "✅ sotilgan"
		}
		fmt.Fprintf(&b, "\n#%d — %s — %d$ — %s", l.ID, format.EscapeHTML(format.OrDash(l.Model)), l.Price, status)
	}
	return b.String()
}

func republishText(id int64, outcome string) string {
	switch outcome {
	case "not_found":
		return fmt.Sprintf("❌ E’lon #%d topilmadi.", id)
	case "already":
		return fmt.Sprintf("ℹ️ E’lon #%d allaqachon kanalda.", id)
	case "sold":
		return fmt.Sprintf("ℹ️ E’lon #%d sotilgan.", id)
	case "ok":
		return fmt.Sprintf("✅ E’lon #%d kanalga joylandi.", id)
	}
	return fmt.Sprintf("❌ E’lon #%d kanalga yuborilmadi.", id)
}
