package submission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/telegram/state"
)

func text(s string) Event   { return Event{Kind: EventText, Text: s} }
func photo(id string) Event { return Event{Kind: EventPhoto, Photo: id} }

func notices(res Result) []NoticeKind {
	var out []NoticeKind
	for _, e := range res.Effects {
		if e.Kind == EffectNotice {
			out = append(out, e.Notice)
		}
	}
	return out
}

func TestStartOpensPhotoStep(t *testing.T) {
	res := Start(42)
	require.Equal(t, StatePhotos, res.State)
	require.Equal(t, int64(42), res.Draft.OwnerID)
	require.Equal(t, []NoticeKind{NoticeIntro}, notices(res))
}

func TestCancelFromEveryStep(t *testing.T) {
	steps := []state.State{
		StatePhotos, StateModel, StatePrice, StateCondition, StateTransmission,
		StateColor, StateMileage, StateRegion, StateConfirm,
	}
	draft := listing.Draft{OwnerID: 1, Photos: []string{"a"}, Model: "Nexia"}
	for _, s := range steps {
		for _, ev := range []Event{text(" BEKOR "), text("/cancel"), text("❌ Bekor qilish"), {Kind: EventCancel}} {
			res := Transition(s, ev, draft)
			require.Equal(t, StateCancelled, res.State, "state %s event %+v", s, ev)
			require.Empty(t, res.Draft.Photos)
			require.Equal(t, []NoticeKind{NoticeCancelled}, notices(res))
		}
	}
}

func TestPublishingAnswersWait(t *testing.T) {
	for _, ev := range []Event{text("bekor"), {Kind: EventConfirm}, photo("x"), {Kind: EventCancel}} {
		res := Transition(StatePublishing, ev, listing.Draft{})
		require.Equal(t, StatePublishing, res.State)
		require.False(t, res.Changed)
		require.Equal(t, []NoticeKind{NoticeWait}, notices(res))
	}
}

func TestPhotoCap(t *testing.T) {
	d := listing.Draft{OwnerID: 1}
	for i := 0; i < listing.MaxPhotos; i++ {
		res := Transition(StatePhotos, photo(string(rune('a'+i))), d)
		require.True(t, res.Changed)
		require.Equal(t, i+1, res.Effects[0].Count)
		d = res.Draft
	}
	res := Transition(StatePhotos, photo("overflow"), d)
	require.False(t, res.Changed)
	require.Len(t, res.Draft.Photos, listing.MaxPhotos)
	require.Equal(t, []NoticeKind{NoticeMaxPhotos}, notices(res))

	res = Transition(StatePhotos, text("Tayyor"), d)
	require.Equal(t, StateModel, res.State)
}

func TestFinishWithoutPhotos(t *testing.T) {
	res := Transition(StatePhotos, text("done"), listing.Draft{})
	require.Equal(t, StatePhotos, res.State)
	require.Equal(t, []NoticeKind{NoticeNeedPhoto}, notices(res))

	res = Transition(StatePhotos, text("Toyota"), listing.Draft{})
	require.Equal(t, []NoticeKind{NoticeWantPhoto}, notices(res))
}

func TestNumericSteps(t *testing.T) {
	for _, in := range []string{"15k", "-5", "1 500", "", "１２"} {
		res := Transition(StatePrice, text(in), listing.Draft{})
		require.Equal(t, StatePrice, res.State, in)
		require.NotEmpty(t, notices(res))
	}
	res := Transition(StatePrice, photo("p"), listing.Draft{})
	require.Equal(t, []NoticeKind{NoticeWantNumber}, notices(res))

	res = Transition(StatePrice, text(" 15000 "), listing.Draft{})
	require.Equal(t, StateCondition, res.State)
	require.Equal(t, int64(15000), res.Draft.Price)

	res = Transition(StateMileage, text("abc"), listing.Draft{})
	require.Equal(t, []NoticeKind{NoticeNotNumber}, notices(res))
	res = Transition(StateMileage, text("0"), listing.Draft{})
	require.Equal(t, StateRegion, res.State)
}

func TestTextSteps(t *testing.T) {
	d := listing.Draft{}
	chain := []struct {
		from, to state.State
		input    string
	}{
		{StateModel, StatePrice, "Chevrolet Gentra"},
		{StateCondition, StateTransmission, "Ishlatilgan"},
		{StateTransmission, StateColor, "Avtomat"},
		{StateColor, StateMileage, "Oq"},
	}
	for _, step := range chain {
		res := Transition(step.from, text("  "+step.input+" "), d)
		require.Equal(t, step.to, res.State)
		d = res.Draft
	}
	require.Equal(t, "Chevrolet Gentra", d.Model)
	require.Equal(t, "Ishlatilgan", d.Condition)
	require.Equal(t, "Avtomat", d.Transmission)
	require.Equal(t, "Oq", d.Color)

	res := Transition(StateModel, text(strings.Repeat("я", MaxTextLen+1)), d)
	require.Equal(t, []NoticeKind{NoticeTooLong}, notices(res))
	res = Transition(StateModel, text(strings.Repeat("я", MaxTextLen)), d)
	require.Equal(t, StatePrice, res.State)

	res = Transition(StateColor, photo("p"), d)
	require.Equal(t, []NoticeKind{NoticeWantText}, notices(res))
	res = Transition(StateColor, text("   "), d)
	require.Equal(t, []NoticeKind{NoticeWantText}, notices(res))
}

func TestRegionRequiresRegisteredUser(t *testing.T) {
	d := listing.Draft{OwnerID: 5, Model: "Spark"}
	res := Transition(StateRegion, text("Toshkent"), d)
	require.Equal(t, StateCancelled, res.State)
	require.Equal(t, []NoticeKind{NoticeRegisterFirst}, notices(res))

	ev := text("Toshkent")
	ev.User = &listing.User{ID: 5, Phone: "+998901234567", Handle: "seller"}
	res = Transition(StateRegion, ev, d)
	require.Equal(t, StateConfirm, res.State)
	require.Equal(t, "Toshkent", res.Draft.Region)
	require.Equal(t, "+998901234567", res.Draft.Phone)
	require.Equal(t, "seller", res.Draft.Handle)
	require.Len(t, res.Effects, 1)
	require.Equal(t, EffectPreview, res.Effects[0].Kind)
	require.Equal(t, res.Draft, res.Effects[0].Draft)
}

func TestConfirmStep(t *testing.T) {
	d := listing.Draft{OwnerID: 5, Model: "Spark"}
	res := Transition(StateConfirm, Event{Kind: EventConfirm}, d)
	require.Equal(t, StatePublishing, res.State)
	require.Equal(t, EffectCommit, res.Effects[0].Kind)

	res = Transition(StateConfirm, text("ha"), d)
	require.Equal(t, []NoticeKind{NoticeUseButtons}, notices(res))

	res = Transition(StateModel, Event{Kind: EventConfirm}, d)
	require.Equal(t, StateModel, res.State)
	require.Equal(t, []NoticeKind{NoticeStale}, notices(res))

	res = Transition(StateIdle, Event{Kind: EventConfirm}, d)
	require.False(t, res.Changed)
	require.Equal(t, []NoticeKind{NoticeStale}, notices(res))
}

func TestTransitionDoesNotAliasDraft(t *testing.T) {
	photos := make([]string, 1, 4)
	photos[0] = "a"
	d := listing.Draft{Photos: photos}
	res := Transition(StatePhotos, photo("b"), d)
	res.Draft.Photos[0] = "changed"
	require.Equal(t, []string{"a"}, d.Photos)
	require.Equal(t, "a", photos[0])
}
