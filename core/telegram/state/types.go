package state

import "time"

// State identifies a conversation step.
type State string

// StateIdle means the user has no active conversation.
const StateIdle State = "idle"

// Session is the conversation state of one user.
type Session[T any] struct {
	State     State
	Data      T
	UpdatedAt time.Time
}

// Active reports whether the session is in a non-idle state.
func (s Session[T]) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Manager stores sessions keyed by Telegram user id.
type Manager[T any] interface {
	// Get returns the session or an idle zero session.
	Get(userID int64) Session[T]
	Set(userID int64, s Session[T])
	Clear(userID int64)
	InProgress(userID int64) bool
	// Update applies fn atomically with respect to other calls for the same
	// user. Returning a session with StateIdle removes it.
	Update(userID int64, fn func(Session[T]) Session[T]) Session[T]
}
