package publish

import (
	"errors"
	"fmt"

	"github.com/m3rciful/avtobot/core/telegram/callbacks"
)

// SoldTag is the routing key of the sold button.
const SoldTag = "sold"

// ErrBadAction reports callback data that is not a sold action.
var ErrBadAction = errors.New("publish: malformed sold action")

// SoldAction is the payload of the "sold" button. CaptionRef is the channel
// message carrying the caption of an album post; 0 means the button sits on
// the captioned message itself.
type SoldAction struct {
	ListingID  int64
	OwnerID    int64
	CaptionRef int64
}

// Album reports whether the action belongs to an album follow-up message.
func (a SoldAction) Album() bool { return a.CaptionRef != 0 }

// Encode renders the four-field wire form.
func (a SoldAction) Encode() string {
	return fmt.Sprintf("%s:%d:%d:%d", SoldTag, a.ListingID, a.OwnerID, a.CaptionRef)
}

// DecodeSoldAction parses "sold:<id>:<owner>[:<ref>]". The three-field form
// predates album posts and implies CaptionRef 0.
func DecodeSoldAction(data string) (SoldAction, error) {
	key, payload := callbacks.ParseData(data)
	if key != SoldTag {
		return SoldAction{}, ErrBadAction
	}
	return DecodeSoldPayload(payload)
}

// DecodeSoldPayload parses the fields after the tag.
func DecodeSoldPayload(payload string) (SoldAction, error) {
	f, err := callbacks.Int64Fields(payload, ":", 2, 3)
	if err != nil {
		return SoldAction{}, fmt.Errorf("%w: %v", ErrBadAction, err)
	}
	a := SoldAction{ListingID: f[0], OwnerID: f[1]}
	if len(f) == 3 {
		a.CaptionRef = f[2]
	}
	if a.ListingID <= 0 || a.OwnerID <= 0 || a.CaptionRef < 0 {
		return SoldAction{}, ErrBadAction
	}
	return a, nil
}
