// Package store persists users and listings through sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/avtobot/bot/listing"
	"github.com/m3rciful/avtobot/core/logger"
)

const listingColumns = `id, user_id, model, price, condition, transmission, color, mileage,
	region, photo, photos, phone, username, status, channel_message_id, created_at, sold_at`

// Store is the Listing Store. Every mutation is a single SQL statement, so
// concurrent callers are serialized by the database row lock.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// UpsertUser creates the user or overwrites phone and handle.
func (s *Store) UpsertUser(ctx context.Context, u listing.User) error {
	q := s.db.Rebind(`INSERT INTO users (user_id, phone, username) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET phone = excluded.phone, username = excluded.username`)
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.Phone, nullString(u.Handle)); err != nil {
		return fmt.Errorf("store: upsert user %d: %w", u.ID, err)
	}
	logger.Debug(ctx, "service.store", "user.upsert", slog.Int64("owner_id", u.ID))
	return nil
}

// GetUser loads a registered user or returns listing.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (listing.User, error) {
	var row struct {
		ID       int64          `db:"user_id"`
		Phone    string         `db:"phone"`
		Username sql.NullString `db:"username"`
	}
	q := s.db.Rebind(`SELECT user_id, phone, username FROM users WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.User{}, listing.ErrNotFound
		}
		return listing.User{}, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return listing.User{ID: row.ID, Phone: row.Phone, Handle: row.Username.String}, nil
}

// CreateListing persists d as an active listing without a channel reference.
func (s *Store) CreateListing(ctx context.Context, d listing.Draft) (int64, error) {
	if len(d.Photos) > listing.MaxPhotos {
		return 0, fmt.Errorf("store: %d photos exceed limit %d", len(d.Photos), listing.MaxPhotos)
	}
	if d.Price < 0 || d.Mileage < 0 {
		return 0, fmt.Errorf("store: negative price or mileage")
	}
	photos, err := encodePhotos(d.Photos)
	if err != nil {
		return 0, fmt.Errorf("store: encode photos: %w", err)
	}
	cover := ""
	if len(d.Photos) > 0 {
		cover = d.Photos[0]
	}

	q := s.db.Rebind(`INSERT INTO listings (
			user_id, model, price, condition, transmission, color, mileage,
			region, photo, photos, phone, username, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	var id int64
	err = s.db.QueryRowxContext(ctx, q,
		d.OwnerID, d.Model, d.Price, d.Condition, d.Transmission, d.Color, d.Mileage,
		d.Region, nullString(cover), photos, d.Phone, nullString(d.Handle),
		string(listing.StatusActive), s.timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: create listing: %w", err)
	}
	logger.Debug(ctx, "service.store", "listing.create",
		slog.Int64("listing_id", id),
		slog.Int("photos", len(d.Photos)),
	)
	return id, nil
}

// SetChannelReference records the published caption message id. It only
// succeeds while no reference is stored.
func (s *Store) SetChannelReference(ctx context.Context, id, ref int64) error {
	if ref <= 0 {
		return fmt.Errorf("store: invalid channel reference %d", ref)
	}
	q := s.db.Rebind(`UPDATE listings SET channel_message_id = ? WHERE id = ? AND channel_message_id IS NULL`)
	res, err := s.db.ExecContext(ctx, q, ref, id)
	if err != nil {
		return fmt.Errorf("store: set channel reference %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}
	if _, err := s.GetListing(ctx, id); err != nil {
		return err
	}
	return listing.ErrAlreadyPublished
}

// GetListing loads one listing by id.
func (s *Store) GetListing(ctx context.Context, id int64) (listing.Listing, error) {
	var row listingRow
	q := s.db.Rebind(`SELECT ` + listingColumns + ` FROM listings WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, fmt.Errorf("store: get listing %d: %w", id, err)
	}
	return row.toListing(), nil
}

// MarkSold closes an active listing owned by ownerID and returns the updated
// record. Missing, foreign and already sold listings all yield listing.ErrNotFound.
func (s *Store) MarkSold(ctx context.Context, id, ownerID int64) (listing.Listing, error) {
	var row listingRow
	q := s.db.Rebind(`UPDATE listings SET status = ?, sold_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
		RETURNING ` + listingColumns)
	err := s.db.QueryRowxContext(ctx, q,
		string(listing.StatusSold), s.timestamp(), id, ownerID, string(listing.StatusActive),
	).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, fmt.Errorf("store: mark sold %d: %w", id, err)
	}
	return row.toListing(), nil
}

// SearchActive returns active listings matching f, newest first.
func (s *Store) SearchActive(ctx context.Context, f listing.SearchFilter) ([]listing.Listing, error) {
	var (
		where = []string{"status = ?", "price BETWEEN ? AND ?"}
		args  = []any{string(listing.StatusActive), f.PriceMin, f.PriceMax}
	)
	if m := strings.TrimSpace(f.Model); m != "" {
		where = append(where, `LOWER(model) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(m))+"%")
	}
	q := `SELECT ` + listingColumns + ` FROM listings WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.selectListings(ctx, "search", q, args...)
}

// Recent returns the newest listings regardless of status.
func (s *Store) Recent(ctx context.Context, limit int) ([]listing.Listing, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := `SELECT ` + listingColumns + ` FROM listings ORDER BY id DESC LIMIT ?`
	return s.selectListings(ctx, "recent", q, limit)
}

func (s *Store) selectListings(ctx context.Context, op, q string, args ...any) ([]listing.Listing, error) {
	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	out := make([]listing.Listing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toListing())
	}
	return out, nil
}

// Stats aggregates counters; Today counts listings created at or after since.
func (s *Store) Stats(ctx context.Context, since time.Time) (listing.Stats, error) {
	var st listing.Stats
	scalars := []struct {
		dst  *int64
		q    string
		args []any
	}{
		{&st.Users, `SELECT COUNT(*) FROM users`, nil},
		{&st.Listings, `SELECT COUNT(*) FROM listings`, nil},
		{&st.Active, `SELECT COUNT(*) FROM listings WHERE status = ?`, []any{string(listing.StatusActive)}},
		{&st.Sold, `SELECT COUNT(*) FROM listings WHERE status = ?`, []any{string(listing.StatusSold)}},
		{&st.Today, `SELECT COUNT(*) FROM listings WHERE created_at >= ?`, []any{since.UTC()}},
	}
	for _, sc := range scalars {
		if err := s.db.GetContext(ctx, sc.dst, s.db.Rebind(sc.q), sc.args...); err != nil {
			return listing.Stats{}, fmt.Errorf("store: stats: %w", err)
		}
	}

	var top []struct {
		Region string `db:"region"`
		Count  int64  `db:"cnt"`
	}
	err := s.db.SelectContext(ctx, &top, `SELECT region, COUNT(*) AS cnt FROM listings
		WHERE region IS NOT NULL AND region <> ''
		GROUP BY region ORDER BY cnt DESC, region ASC LIMIT 1`)
	if err != nil {
		return listing.Stats{}, fmt.Errorf("store: stats top region: %w", err)
	}
	if len(top) == 1 {
		st.TopRegion, st.TopRegionCount = top[0].Region, top[0].Count
	}
	return st, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
