// Package listing defines the vehicle classifieds domain model.
package listing

import (
	"errors"
	"time"
)

// MaxPhotos caps the photo sequence of a listing.
const MaxPhotos = 10

var (
	// ErrNotFound reports a missing listing or a failed mutation guard.
	ErrNotFound = errors.New("listing: not found")
	// ErrAlreadyPublished reports a second attempt to set the channel reference.
	ErrAlreadyPublished = errors.New("listing: channel reference already set")
)

// Status of a listing. Transitions only go from active to sold.
type Status string

const (
	StatusActive Status = "active"
	StatusSold   Status = "sold"
)

// User is a registered bot user.
type User struct {
	ID     int64
	Phone  string
	Handle string
}

// Listing is a durable vehicle-for-sale record.
type Listing struct {
	ID           int64
	OwnerID      int64
	Model        string
	Price        int64
	Condition    string
	Transmission string
	Color        string
	Mileage      int64
	Region       string
	// Photos are Telegram file ids; the first one is the cover.
	Photos []string
	Phone  string
	Handle string
	Status Status
	// ChannelRef is the channel message id carrying the caption; 0 until published.
	ChannelRef int64
	CreatedAt  time.Time
	SoldAt     *time.Time
}

// Cover returns the first photo or "".
func (l Listing) Cover() string {
	if len(l.Photos) == 0 {
		return ""
	}
	return l.Photos[0]
}

// Sold reports whether the listing is closed.
func (l Listing) Sold() bool { return l.Status == StatusSold }

// Published reports whether a channel reference was recorded.
func (l Listing) Published() bool { return l.ChannelRef != 0 }

// Draft is the per-user listing under construction.
type Draft struct {
	OwnerID      int64
	Photos       []string
	Model        string
	Price        int64
	Condition    string
	Transmission string
	Color        string
	Mileage      int64
	Region       string
	Phone        string
	Handle       string
}

// Clone returns a copy that shares no slices with d.
func (d Draft) Clone() Draft {
	d.Photos = append([]string(nil), d.Photos...)
	return d
}

// Listing renders the draft as an unsaved active listing.
func (d Draft) Listing() Listing {
	return Listing{
		OwnerID:      d.OwnerID,
		Model:        d.Model,
		Price:        d.Price,
		Condition:    d.Condition,
		Transmission: d.Transmission,
		Color:        d.Color,
		Mileage:      d.Mileage,
		Region:       d.Region,
		Photos:       append([]string(nil), d.Photos...),
		Phone:        d.Phone,
		Handle:       d.Handle,
		Status:       StatusActive,
	}
}

// Stats aggregates store counters for the admin panel.
type Stats struct {
	Users          int64
	Listings       int64
	Active         int64
	Sold           int64
	Today          int64
	TopRegion      string
	TopRegionCount int64
}

// SearchFilter selects active listings.
type SearchFilter struct {
	// Model is matched as a case-insensitive substring; empty matches all.
	Model    string
	PriceMin int64
	PriceMax int64
	// Limit caps the result size; 0 means unbounded.
	Limit int
}
