// Package submission drives the multi-step listing submission conversation.
//
// The conversation is an explicit state machine: Transition is a pure
// function from (state, event, draft) to the next state, draft and a list of
// effects. Flow owns the per-user sessions and executes effects.
package submission

import (
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/state"
)

// MaxTextLen bounds free-text fields, counted in runes.
const MaxTextLen = 100

// Conversation states. Published and Cancelled are terminal and never stored.
const (
	StateIdle         = state.StateIdle
	StatePhotos       state.State = "collecting_photos"
	StateModel        state.State = "model"
	StatePrice        state.State = "price"
	StateCondition    state.State = "condition"
	StateTransmission state.State = "transmission"
	StateColor        state.State = "color"
	StateMileage      state.State = "mileage"
	StateRegion       state.State = "region"
	StateConfirm      state.State = "confirm"
	StatePublishing   state.State = "publishing"
	StatePublished    state.State = "published"
	StateCancelled    state.State = "cancelled"
)

// Terminal reports whether s ends the conversation.
func Terminal(s state.State) bool {
	return s == StatePublished || s == StateCancelled || s == StateIdle || s == ""
}

var (
	// CancelWords abort the flow at any step.
	CancelWords = listing.NewKeywords("cancel", "bekor", "/cancel", "❌ bekor qilish")
	// FinishWords end photo collection.
	FinishWords = listing.NewKeywords("tayyor", "done", "/done", "✅ tayyor")
)

// EventKind classifies user input.
type EventKind int

const (
	EventText EventKind = iota
	EventPhoto
	EventConfirm
	EventCancel
	EventOther
)

// Event is one user input.
type Event struct {
	Kind EventKind
	Text string
	// Photo is the file id of the largest photo size.
	Photo string
	// User is the registered submitter, resolved by the caller before a
	// region step. Nil means the submitter is not registered.
	User *listing.User
}

// NoticeKind enumerates messages shown to the submitter.
type NoticeKind int

const (
	NoticeIntro NoticeKind = iota
	NoticePhotoAdded
	NoticeMaxPhotos
	NoticeNeedPhoto
	NoticeWantPhoto
	NoticeAskModel
	NoticeAskPrice
	NoticeAskCondition
	NoticeAskTransmission
	NoticeAskColor
	NoticeAskMileage
	NoticeAskRegion
	NoticeWantText
	NoticeTooLong
	NoticeNotNumber
	NoticeWantNumber
	NoticeRegisterFirst
	NoticeUseButtons
	NoticeCancelled
	NoticeWait
	NoticeStale
)

// EffectKind enumerates effects requested by a transition.
type EffectKind int

const (
	// EffectNotice sends a text notice.
	EffectNotice EffectKind = iota
	// EffectPreview renders the draft with confirm and cancel buttons.
	EffectPreview
	// EffectCommit persists and publishes the draft.
	EffectCommit
)

// Effect is a side effect requested by Transition.
type Effect struct {
	Kind   EffectKind
	Notice NoticeKind
	// Count accompanies NoticePhotoAdded.
	Count int
	Draft listing.Draft
}

// Result is the outcome of a transition.
type Result struct {
	State   state.State
	Draft   listing.Draft
	Effects []Effect
	// Changed is false when the input was rejected and nothing moved.
	Changed bool
}

func notice(k NoticeKind) Effect { return Effect{Kind: EffectNotice, Notice: k} }

func stay(s state.State, d listing.Draft, k NoticeKind) Result {
	return Result{State: s, Draft: d, Effects: []Effect{notice(k)}}
}

func advance(s state.State, d listing.Draft, effects ...Effect) Result {
	return Result{State: s, Draft: d, Effects: effects, Changed: true}
}

// Start opens a fresh conversation for owner.
func Start(owner int64) Result {
	return advance(StatePhotos, listing.Draft{OwnerID: owner}, notice(NoticeIntro))
}

// textSteps maps each free-text step to its field setter, next state and prompt.
var textSteps = map[state.State]struct {
	set  func(*listing.Draft, string)
	next state.State
	ask  NoticeKind
}{
	StateModel:        {func(d *listing.Draft, v string) { d.Model = v }, StatePrice, NoticeAskPrice},
	StateCondition:    {func(d *listing.Draft, v string) { d.Condition = v }, StateTransmission, NoticeAskTransmission},
	StateTransmission: {func(d *listing.Draft, v string) { d.Transmission = v }, StateColor, NoticeAskColor},
	StateColor:        {func(d *listing.Draft, v string) { d.Color = v }, StateMileage, NoticeAskMileage},
}

// Transition computes the next step. It never mutates d.
func Transition(s state.State, ev Event, d listing.Draft) Result {
	d = d.Clone()

	if Terminal(s) {
		return Result{State: s, Draft: d, Effects: []Effect{notice(NoticeStale)}}
	}
	if s == StatePublishing {
		return stay(s, d, NoticeWait)
	}
	if ev.Kind == EventCancel || (ev.Kind == EventText && CancelWords.Match(ev.Text)) {
		return advance(StateCancelled, listing.Draft{}, notice(NoticeCancelled))
	}
	if ev.Kind == EventConfirm && s != StateConfirm {
		return stay(s, d, NoticeStale)
	}

	switch s {
	case StatePhotos:
		return collectPhoto(d, ev)

	case StatePrice, StateMileage:
		if ev.Kind != EventText {
			return stay(s, d, NoticeWantNumber)
		}
		n, ok := listing.ParseAmount(ev.Text)
		if !ok {
			return stay(s, d, NoticeNotNumber)
		}
		if s == StatePrice {
			d.Price = n
			return advance(StateCondition, d, notice(NoticeAskCondition))
		}
		d.Mileage = n
		return advance(StateRegion, d, notice(NoticeAskRegion))

	case StateRegion:
		v, bad, ok := freeText(ev)
		if !ok {
			return stay(s, d, bad)
		}
		if ev.User == nil {
			return advance(StateCancelled, listing.Draft{}, notice(NoticeRegisterFirst))
		}
		d.Region = v
		d.Phone = ev.User.Phone
		d.Handle = ev.User.Handle
		return advance(StateConfirm, d, Effect{Kind: EffectPreview, Draft: d.Clone()})

	case StateConfirm:
		if ev.Kind == EventConfirm {
			return advance(StatePublishing, d, Effect{Kind: EffectCommit, Draft: d.Clone()})
		}
		return stay(s, d, NoticeUseButtons)
	}

	step, known := textSteps[s]
	if !known {
		return stay(s, d, NoticeStale)
	}
	v, bad, ok := freeText(ev)
	if !ok {
		return stay(s, d, bad)
	}
	step.set(&d, v)
	return advance(step.next, d, notice(step.ask))
}

func collectPhoto(d listing.Draft, ev Event) Result {
	switch {
	case ev.Kind == EventPhoto && ev.Photo != "":
		if len(d.Photos) >= listing.MaxPhotos {
			return stay(StatePhotos, d, NoticeMaxPhotos)
		}
		d.Photos = append(d.Photos, ev.Photo)
		return advance(StatePhotos, d, Effect{Kind: EffectNotice, Notice: NoticePhotoAdded, Count: len(d.Photos)})
	case ev.Kind == EventText && FinishWords.Match(ev.Text):
		if len(d.Photos) == 0 {
			return stay(StatePhotos, d, NoticeNeedPhoto)
		}
		return advance(StateModel, d, notice(NoticeAskModel))
	}
	return stay(StatePhotos, d, NoticeWantPhoto)
}

// freeText validates a free-text answer. On rejection it returns the notice to show.
func freeText(ev Event) (string, NoticeKind, bool) {
	if ev.Kind != EventText {
		return "", NoticeWantText, false
	}
	v := strings.TrimSpace(ev.Text)
	if v == "" {
		return "", NoticeWantText, false
	}
	if utf8.RuneCountInString(v) > MaxTextLen {
		return "", NoticeTooLong, false
	}
	return v, 0, true
}
