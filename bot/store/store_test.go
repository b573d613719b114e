package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/avtobot/bot/listing"
)

// testSchema is the SQLite rendition of migrations/ applied in order.
const testSchema = `
CREATE TABLE users (
	user_id  INTEGER PRIMARY KEY,
	phone    TEXT NOT NULL,
	username TEXT
);
CREATE TABLE listings (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id            INTEGER NOT NULL,
	model              TEXT,
	price              INTEGER,
	condition          TEXT,
	transmission       TEXT,
	color              TEXT,
	mileage            INTEGER,
	region             TEXT,
	photo              TEXT,
	phone              TEXT,
	username           TEXT,
	created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	photos             TEXT,
	status             TEXT NOT NULL DEFAULT 'active',
	channel_message_id INTEGER,
	sold_at            TIMESTAMP
);`

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	now := baseTime
	s := New(db).WithClock(func() time.Time { return now })
	return s, db
}

func draft(owner int64, model string, price int64, photos ...string) listing.Draft {
	return listing.Draft{
		OwnerID:      owner,
		Photos:       photos,
		Model:        model,
		Price:        price,
		Condition:    "Ishlatilgan",
		Transmission: "Avtomat",
		Color:        "Oq",
		Mileage:      120000,
		Region:       "Toshkent",
		Phone:        "+998900000000",
		Handle:       "seller",
	}
}

func TestUpsertUserOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, listing.User{ID: 1, Phone: "111", Handle: "old"}))
	require.NoError(t, s.UpsertUser(ctx, listing.User{ID: 1, Phone: "222"}))

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, listing.User{ID: 1, Phone: "222"}, u)

	_, err = s.GetUser(ctx, 2)
	require.ErrorIs(t, err, listing.ErrNotFound)
}

func TestCreateListingRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	photos := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10"}
	id, err := s.CreateListing(ctx, draft(7, "Toyota Camry", 15000, photos...))
	require.NoError(t, err)

	l, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	require.Equal(t, photos, l.Photos)
	require.Equal(t, "p1", l.Cover())
	require.Equal(t, listing.StatusActive, l.Status)
	require.False(t, l.Published())
	require.Nil(t, l.SoldAt)
	require.True(t, l.CreatedAt.Equal(baseTime))
	require.Equal(t, "seller", l.Handle)

	_, err = s.CreateListing(ctx, draft(7, "x", 1, append(photos, "p11")...))
	require.Error(t, err)
	_, err = s.CreateListing(ctx, draft(7, "x", -1))
	require.Error(t, err)
}

func TestCreateListingWithoutPhotos(t *testing.T) {
	s, _ := newTestStore(t)
	id, err := s.CreateListing(context.Background(), draft(7, "Nexia", 5000))
	require.NoError(t, err)
	l, err := s.GetListing(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, l.Photos)
}

func TestSetChannelReferenceOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateListing(ctx, draft(7, "Spark", 7000, "p"))
	require.NoError(t, err)

	require.NoError(t, s.SetChannelReference(ctx, id, 555))
	require.ErrorIs(t, s.SetChannelReference(ctx, id, 556), listing.ErrAlreadyPublished)
	require.ErrorIs(t, s.SetChannelReference(ctx, id+100, 1), listing.ErrNotFound)
	require.Error(t, s.SetChannelReference(ctx, id, 0))

	l, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 555, l.ChannelRef)
}

func TestMarkSoldGuards(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateListing(ctx, draft(7, "Cobalt", 11000))
	require.NoError(t, err)

	_, err = s.MarkSold(ctx, id, 8)
	require.ErrorIs(t, err, listing.ErrNotFound)
	_, err = s.MarkSold(ctx, id+1, 7)
	require.ErrorIs(t, err, listing.ErrNotFound)

	sold, err := s.MarkSold(ctx, id, 7)
	require.NoError(t, err)
	require.True(t, sold.Sold())
	require.NotNil(t, sold.SoldAt)
	require.Equal(t, "Cobalt", sold.Model)

	_, err = s.MarkSold(ctx, id, 7)
	require.ErrorIs(t, err, listing.ErrNotFound)

	l, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	require.Equal(t, listing.StatusSold, l.Status)
}

func TestMarkSoldConcurrentSingleWinner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.CreateListing(ctx, draft(7, "Malibu", 25000))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.MarkSold(ctx, id, 7); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestSearchActive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustCreate := func(d listing.Draft) int64 {
		id, err := s.CreateListing(ctx, d)
		require.NoError(t, err)
		return id
	}
	cheap := mustCreate(draft(1, "Toyota Corolla", 4000))
	inRange := mustCreate(draft(1, "TOYOTA Camry", 15000))
	other := mustCreate(draft(2, "Chevrolet Gentra", 12000))
	sold := mustCreate(draft(3, "Toyota Prado", 18000))
	newest := mustCreate(draft(4, "toyota rav4", 20000))
	_, err := s.MarkSold(ctx, sold, 3)
	require.NoError(t, err)

	got, err := s.SearchActive(ctx, listing.SearchFilter{Model: "Toyota", PriceMin: 5000, PriceMax: 20000})
	require.NoError(t, err)
	require.Equal(t, []int64{newest, inRange}, ids(got))

	all, err := s.SearchActive(ctx, listing.SearchFilter{PriceMax: 999_999_999})
	require.NoError(t, err)
	require.Equal(t, []int64{newest, other, inRange, cheap}, ids(all))

	limited, err := s.SearchActive(ctx, listing.SearchFilter{PriceMax: 999_999_999, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []int64{newest, other}, ids(limited))
}

func TestSearchEscapesWildcards(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateListing(ctx, draft(1, "Damas", 3000))
	require.NoError(t, err)
	pct, err := s.CreateListing(ctx, draft(1, "Damas 100%", 3000))
	require.NoError(t, err)

	got, err := s.SearchActive(ctx, listing.SearchFilter{Model: "%", PriceMax: 10000})
	require.NoError(t, err)
	require.Equal(t, []int64{pct}, ids(got))

	got, err = s.SearchActive(ctx, listing.SearchFilter{Model: "_", PriceMax: 10000})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStatsAndRecent(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, listing.User{ID: 1, Phone: "1"}))
	require.NoError(t, s.UpsertUser(ctx, listing.User{ID: 2, Phone: "2"}))

	yesterday := draft(1, "Old", 1000)
	yesterday.Region = "Samarqand"
	now := baseTime.Add(-24 * time.Hour)
	s.WithClock(func() time.Time { return now })
	_, err := s.CreateListing(ctx, yesterday)
	require.NoError(t, err)

	now = baseTime
	for _, region := range []string{"Buxoro", "Toshkent", ""} {
		d := draft(2, "New", 2000)
		d.Region = region
		_, err := s.CreateListing(ctx, d)
		require.NoError(t, err)
	}
	id, err := s.CreateListing(ctx, draft(2, "Sold", 3000))
	require.NoError(t, err)
	_, err = s.MarkSold(ctx, id, 2)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE listings SET region = 'Buxoro' WHERE model = 'Old'`)
	require.NoError(t, err)

	st, err := s.Stats(ctx, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, listing.Stats{
		Users:          2,
		Listings:       5,
		Active:         4,
		Sold:           1,
		Today:          4,
		TopRegion:      "Buxoro",
		TopRegionCount: 2,
	}, st)

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, id, recent[0].ID)
	require.True(t, recent[0].Sold())

	none, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStatsTopRegionTieBreaksByName(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, region := range []string{"Xorazm", "Andijon", "", ""} {
		d := draft(1, "m", 1)
		d.Region = region
		_, err := s.CreateListing(ctx, d)
		require.NoError(t, err)
	}
	st, err := s.Stats(ctx, baseTime)
	require.NoError(t, err)
	require.Equal(t, "Andijon", st.TopRegion)
	require.EqualValues(t, 1, st.TopRegionCount)
}

func TestLegacyRowsReadBack(t *testing.T) {
	s, db := newTestStore(t)
	_, err := db.Exec(`INSERT INTO listings (user_id, model, price, photo) VALUES (9, 'Tico', 900, 'cover')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO listings (user_id, model, photos) VALUES (9, 'Matiz', 'not json')`)
	require.NoError(t, err)

	legacy, err := s.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, legacy, 2)
	require.Empty(t, legacy[0].Photos)
	require.Equal(t, []string{"cover"}, legacy[1].Photos)
	require.Equal(t, listing.StatusActive, legacy[1].Status)
	require.Zero(t, legacy[1].Mileage)
}

func ids(ls []listing.Listing) []int64 {
	out := make([]int64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
