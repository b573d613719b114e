package search

import (
	"fmt"

	"github.com/m3rciful/avtobot/core/telegram/format"
)

const (
	TextNotRegistered = "❌ Avval /start bosing va telefon raqamingizni yuboring."
	TextAskModel      = "🔍 Mashina qidirish\n\nQaysi modelni qidiryapsiz?\n(Masalan: Toyota, Chevrolet, Hyundai)\n\nBekor qilish uchun: bekor"
	TextAskMin        = "💰 Minimal narxni kiriting\n(Masalan: 5000)\nYoki SKIP deb yozing."
	TextAskMax        = "💰 Maksimal narxni kiriting\n(Masalan: 50000)\nYoki SKIP deb yozing."
	TextBadPrice      = "❌ Faqat raqam kiriting yoki SKIP deb yozing."
	TextMaxBelowMin   = "❌ Maksimal narx minimal narxdan kichik bo‘lmasin."
	TextCancelled     = "❌ Qidiruv bekor qilindi."
	TextWantText      = "⚠️ Iltimos matn yuboring."
	TextStale         = "ℹ️ Qidiruv faol emas."
	TextFailed        = "❌ Xatolik yuz berdi. Keyinroq urinib ko‘ring."
	TextDone          = "🔎 Qidiruv yakunlandi."
)

// NotFoundText echoes the criteria of an empty search.
func NotFoundText(q Query) string {
	upper := "cheksiz"
	if q.Max != Unbounded {
		upper = format.Int(q.Max)
	}
	return fmt.Sprintf("❌ Hech narsa topilmadi.\n\nModel: %s\nNarx oralig‘i: %d$ - %s$",
		format.EscapeHTML(q.Model), q.Min, upper)
}

// FoundText heads a result list.
func FoundText(n int) string {
	return fmt.Sprintf("✅ %d ta mashina topildi.", n)
}
