package state

import "time"

// Session is the stored value for a chat together with its last touch time.
type Session[S any] struct {
	State     S
	UpdatedAt time.Time
}

// Store holds one session per chat.
type Store[S any] interface {
	Get(chatID int64) (S, bool)
	Put(chatID int64, st S)
	Clear(chatID int64)
	Len() int
	// Sweep drops sessions untouched for longer than maxIdle, except those
	// for which busy reports true, and returns how many went. busy may be nil.
	Sweep(maxIdle time.Duration, busy func(chatID int64) bool) int
}
