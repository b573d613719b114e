package submission

import (
	"fmt"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/keyboard"
	"github.com/m3rciful/avtobot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels and inline callback keys.
const (
	BtnFinish = "✅ Tayyor"
	BtnCancel = "❌ Bekor qilish"

	ConfirmKey = "confirm_send"
	CancelKey  = "cancel"
)

const (
	textIntro = "📸 Mashina rasmlarini yuboring (1 tadan 10 tagacha).\n\n" +
		"Keyin quyidagilar so‘raladi:\n" +
		"🚗 Model\n💰 Narx\n⚙️ Holati\n🔧 Uzatma\n🎨 Rang\n📏 Probeg\n📍 Hudud\n\n" +
		"Rasmlar tugagach «✅ Tayyor» tugmasini bosing."
	textMaxPhotos    = "⚠️ Ko‘pi bilan 10 ta rasm yuborish mumkin. «✅ Tayyor» tugmasini bosing."
	textNeedPhoto    = "⚠️ Kamida bitta rasm yuboring!"
	textWantPhoto    = "⚠️ Iltimos mashina RASMINI yuboring!"
	textAskModel     = "🚗 Mashina modeli? (Masalan: Toyota Camry)"
	textAskPrice     = "💰 Narxi nechada? (Faqat raqam, masalan: 15000)"
	textAskCondition = "⚙️ Holati?\n1️⃣ Yangi\n2️⃣ Ishlatilgan\n\nJavobni yuboring"
	textAskGearbox   = "🔧 Uzatma turini tanlang:\n\n1️⃣ Mexanika\n2️⃣ Avtomat\n\nJavobni yuboring"
	textAskColor     = "🎨 Mashina rangi nima? (Masalan: Qora, Oq, Qizil)"
	textAskMileage   = "📏 Probeg nechada (km)? (Masalan: 125000)"
	textAskRegion    = "📍 Qaysi viloyatda?\n\nToshkent, Samarqand, Buxoro va boshqalar"
	textWantText     = "⚠️ Iltimos MATN ko'rinishida yuboring!"
	textTooLong      = "⚠️ Juda uzun. Ko‘pi bilan 100 ta belgi."
	textNotNumber    = "❌ Iltimos faqat raqam kiriting! (Masalan: 15000)"
	textWantNumber   = "⚠️ Iltimos RAQAM ko'rinishida yuboring!"
	textRegister     = "❌ Xatolik! Iltimos /start buyrug'ini bosing"
	textUseButtons   = "👇 Iltimos e’lon ostidagi tugmalardan birini tanlang."
	textCancelled    = "❌ Jarayon bekor qilindi!"
	textWait         = "⏳ E’lon yuborilmoqda, iltimos kuting..."
	textStale        = "ℹ️ Bu amal endi faol emas."
	textLookupFailed = "❌ Xatolik yuz berdi. Iltimos qaytadan yuboring."
	textSaveFailed   = "❌ E’lonni saqlab bo‘lmadi. Iltimos qaytadan urinib ko‘ring."
)

var noticeTexts = map[NoticeKind]string{
	NoticeIntro:           textIntro,
	NoticeMaxPhotos:       textMaxPhotos,
	NoticeNeedPhoto:       textNeedPhoto,
	NoticeWantPhoto:       textWantPhoto,
	NoticeAskModel:        textAskModel,
	NoticeAskPrice:        textAskPrice,
	NoticeAskCondition:    textAskCondition,
	NoticeAskTransmission: textAskGearbox,
	NoticeAskColor:        textAskColor,
	NoticeAskMileage:      textAskMileage,
	NoticeAskRegion:       textAskRegion,
	NoticeWantText:        textWantText,
	NoticeTooLong:         textTooLong,
	NoticeNotNumber:       textNotNumber,
	NoticeWantNumber:      textWantNumber,
	NoticeRegisterFirst:   textRegister,
	NoticeUseButtons:      textUseButtons,
	NoticeCancelled:       textCancelled,
	NoticeWait:            textWait,
	NoticeStale:           textStale,
}

// NoticeText renders a notice effect.
func NoticeText(e Effect) string {
	if e.Notice == NoticePhotoAdded {
		return fmt.Sprintf("✅ Rasm qabul qilindi (%d/%d). Yana yuboring yoki «✅ Tayyor» tugmasini bosing.", e.Count, listing.MaxPhotos)
	}
	return noticeTexts[e.Notice]
}

// PublishedText confirms a successful submission.
func PublishedText(id int64) string {
	return fmt.Sprintf("✅ E’lon kanalga yuborildi!\n\n🆔 E’lon raqami: #%d", id)
}

// UnpublishedText tells the submitter the listing was saved but not posted.
func UnpublishedText(id int64) string {
	return fmt.Sprintf("⚠️ E’lon #%d saqlandi, lekin kanalga yuborilmadi. Admin tez orada joylaydi.", id)
}

// AdminSummary is sent to admins after each submission.
func AdminSummary(l listing.Listing, published bool) string {
	s := fmt.Sprintf("🆕 Yangi e’lon #%d\n👤 User ID: <code>%d</code>\n\n%s", l.ID, l.OwnerID, listing.Caption(l))
	if !published {
		s += fmt.Sprintf("\n\n⚠️ Kanalga yuborilmadi: /republish %d", l.ID)
	}
	return s
}

// PreviewMarkup carries the confirm and cancel buttons under the preview.
func PreviewMarkup() *tele.ReplyMarkup {
	return keyboard.InlineRows([]keyboard.InlineBtn{
		{Text: "✅ Kanalga yuborish", Data: ConfirmKey},
		{Text: BtnCancel, Data: CancelKey},
	})
}

// stepKeyboard is the reply keyboard shown while in s; nil keeps the current one.
func stepKeyboard(s state.State, menu *tele.ReplyMarkup) *tele.ReplyMarkup {
	switch s {
	case StatePhotos:
		return keyboard.ReplyButtons([]string{BtnFinish}, []string{BtnCancel})
	case StateModel:
		return keyboard.ReplyButtons([]string{BtnCancel})
	case StateConfirm, StatePublishing:
		return nil
	}
	if Terminal(s) {
		return menu
	}
	return nil
}
