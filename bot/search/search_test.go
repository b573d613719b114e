package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/avtobot/bot/listing"

	tele "gopkg.in/telebot.v4"
)

type fakeStore struct {
	registered map[int64]bool
	listings   []listing.Listing
	filters    []listing.SearchFilter
	err        error
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (listing.User, error) {
	if !s.registered[id] {
		return listing.User{}, listing.ErrNotFound
	}
	return listing.User{ID: id}, nil
}

func (s *fakeStore) SearchActive(_ context.Context, f listing.SearchFilter) ([]listing.Listing, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

type fakeChat struct {
	replies []string
	photos  []string
}

func (c *fakeChat) Reply(text string, _ *tele.ReplyMarkup) error {
	c.replies = append(c.replies, text)
	return nil
}

func (c *fakeChat) Photo(fileID, caption string, _ *tele.ReplyMarkup) error {
	c.photos = append(c.photos, fileID)
	c.replies = append(c.replies, caption)
	return nil
}

func (c *fakeChat) last() string { return c.replies[len(c.replies)-1] }

const user = int64(5)

func newFlow(store *fakeStore) *Flow {
	return New(nil, store, 20, nil)
}

func run(t *testing.T, f *Flow, chat *fakeChat, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		require.NoError(t, f.Process(context.Background(), user, in, true, chat))
	}
}

func TestSearchRequiresRegistration(t *testing.T) {
	f := newFlow(&fakeStore{})
	chat := &fakeChat{}
	require.NoError(t, f.Start(context.Background(), user, chat))
	require.Equal(t, TextNotRegistered, chat.last())
	require.False(t, f.InProgress(user))
}

func TestSearchFullRange(t *testing.T) {
	store := &fakeStore{
		registered: map[int64]bool{user: true},
		listings: []listing.Listing{
			{ID: 9, Model: "Toyota Camry", Price: 20000, Photos: []string{"c9"}},
			{ID: 4, Model: "Toyota Corolla", Price: 12000},
		},
	}
	f := newFlow(store)
	chat := &fakeChat{}
	require.NoError(t, f.Start(context.Background(), user, chat))
	require.Equal(t, TextAskModel, chat.last())

	run(t, f, chat, " toyota ", "10000", "25000")

	require.False(t, f.InProgress(user))
	require.Equal(t, []listing.SearchFilter{{Model: "toyota", PriceMin: 10000, PriceMax: 25000, Limit: 20}}, store.filters)
	require.Equal(t, FoundText(2), chat.replies[len(chat.replies)-4])
	require.Equal(t, []string{"c9"}, chat.photos)
	require.Contains(t, chat.replies[len(chat.replies)-3], "🆔 #9")
	require.Contains(t, chat.replies[len(chat.replies)-2], "Toyota Corolla")
	require.Equal(t, TextDone, chat.last())
}

func TestSearchSkipBothBounds(t *testing.T) {
	store := &fakeStore{registered: map[int64]bool{user: true}}
	f := newFlow(store)
	chat := &fakeChat{}
	require.NoError(t, f.Start(context.Background(), user, chat))
	run(t, f, chat, "Nexia", "SKIP", "skip")

	require.Equal(t, int64(0), store.filters[0].PriceMin)
	require.Equal(t, Unbounded, store.filters[0].PriceMax)
	require.Equal(t, NotFoundText(Query{Model: "Nexia", Max: Unbounded}), chat.last())
	require.Contains(t, chat.last(), "0$ - cheksiz$")
}

func TestSearchRejectsBadPrices(t *testing.T) {
	store := &fakeStore{registered: map[int64]bool{user: true}}
	f := newFlow(store)
	chat := &fakeChat{}
	require.NoError(t, f.Start(context.Background(), user, chat))
	run(t, f, chat, "Spark", "besh ming")
	require.Equal(t, TextBadPrice, chat.last())

	run(t, f, chat, "5000", "4000")
	require.Equal(t, TextMaxBelowMin, chat.last())
	require.True(t, f.InProgress(user))

	require.NoError(t, f.Process(context.Background(), user, "", false, chat))
	require.Equal(t, TextWantText, chat.last())

	run(t, f, chat, "Bekor")
	require.Equal(t, TextCancelled, chat.last())
	require.False(t, f.InProgress(user))
	require.Empty(t, store.filters)
}

func TestSearchStoreFailure(t *testing.T) {
	store := &fakeStore{registered: map[int64]bool{user: true}, err: errors.New("db gone")}
	f := newFlow(store)
	chat := &fakeChat{}
	require.NoError(t, f.Start(context.Background(), user, chat))
	run(t, f, chat, "Cobalt", "skip", "skip")
	require.Equal(t, TextFailed, chat.last())
	require.False(t, f.InProgress(user))
}

func TestNotFoundEscapesModel(t *testing.T) {
	s := NotFoundText(Query{Model: "<b>", Min: 100, Max: 200})
	require.Contains(t, s, "&lt;b&gt;")
	require.Contains(t, s, "100$ - 200$")
}
