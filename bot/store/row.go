package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m3rciful/avtobot/bot/listing"
)

// listingRow mirrors the listings table; legacy rows may hold NULL in any
// column added after the first schema version.
type listingRow struct {
	ID           int64          `db:"id"`
	OwnerID      int64          `db:"user_id"`
	Model        sql.NullString `db:"model"`
	Price        sql.NullInt64  `db:"price"`
	Condition    sql.NullString `db:"condition"`
	Transmission sql.NullString `db:"transmission"`
	Color        sql.NullString `db:"color"`
	Mileage      sql.NullInt64  `db:"mileage"`
	Region       sql.NullString `db:"region"`
	Photo        sql.NullString `db:"photo"`
	Photos       sql.NullString `db:"photos"`
	Phone        sql.NullString `db:"phone"`
	Username     sql.NullString `db:"username"`
	Status       sql.NullString `db:"status"`
	ChannelRef   sql.NullInt64  `db:"channel_message_id"`
	CreatedAt    dbTime         `db:"created_at"`
	SoldAt       dbTime         `db:"sold_at"`
}

func (r listingRow) toListing() listing.Listing {
	l := listing.Listing{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Model:        r.Model.String,
		Price:        r.Price.Int64,
		Condition:    r.Condition.String,
		Transmission: r.Transmission.String,
		Color:        r.Color.String,
		Mileage:      r.Mileage.Int64,
		Region:       r.Region.String,
		Photos:       decodePhotos(r.Photos, r.Photo),
		Phone:        r.Phone.String,
		Handle:       r.Username.String,
		Status:       listing.StatusActive,
		ChannelRef:   r.ChannelRef.Int64,
		CreatedAt:    r.CreatedAt.Time,
	}
	if r.Status.Valid && r.Status.String == string(listing.StatusSold) {
		l.Status = listing.StatusSold
	}
	if r.SoldAt.Valid {
		t := r.SoldAt.Time
		l.SoldAt = &t
	}
	return l
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	return string(b), err
}

// decodePhotos reads the JSON photo list, falling back to the cover column
// for rows written before the list existed or holding malformed JSON.
func decodePhotos(raw, cover sql.NullString) []string {
	if raw.Valid && raw.String != "" {
		var photos []string
		if err := json.Unmarshal([]byte(raw.String), &photos); err == nil {
			return photos
		}
	}
	if cover.Valid && cover.String != "" {
		return []string{cover.String}
	}
	return []string{}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps from drivers that return either time.Time or text.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = dbTime{}
		return nil
	case time.Time:
		*t = dbTime{Time: v, Valid: true}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("store: unsupported time value %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = dbTime{Time: v, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("store: unparseable time %q", s)
}
