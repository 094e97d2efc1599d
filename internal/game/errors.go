// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotStarted        = errors.New("game has not started")
	ErrAlreadyStarted    = errors.New("game has already started")
	ErrGameOver          = errors.New("game is over")
	ErrUnknownSeat       = errors.New("seat is not part of this game")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrInvalidCardIndex  = errors.New("invalid card index")
	ErrIllegalMove       = errors.New("card cannot be played now")
	ErrColorRequired     = errors.New("a color must be chosen for a wild card")
	ErrInvalidColor      = errors.New("chosen color must be red, blue, green or yellow")
	ErrLowHandNotAllowed = errors.New("low hand can only be declared holding exactly one card")
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrInvalidRoster     = errors.New("invalid roster")
	ErrNoOpeningCard     = errors.New("no number card left to open the discard pile")

	// ErrDegenerateReshuffle and ErrCascadeLimit are assertion failures, never user-facing.
	ErrDegenerateReshuffle = errors.New("reshuffle needs at least two discarded cards")
	ErrCascadeLimit        = errors.New("bot cascade did not settle")
)

// Rejection is returned for an intent that was refused. The state is left untouched.
type Rejection struct {
	SeatID string
	Intent IntentType
	Reason error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s by %q rejected: %v", r.Intent, r.SeatID, r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Reason }

func reject(in Intent, reason error) *Rejection {
	return &Rejection{SeatID: in.SeatID, Intent: in.Type, Reason: reason}
}
