// internal/game/state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// SessionState is the complete table of one game. It is a value: Apply never
// mutates the state it is given, it returns a new one.
type SessionState struct {
	GameID uuid.UUID `json:"gameId"`
	RoomID string    `json:"roomId"`

	Seats       []models.Seat `json:"seats"`
	Deck        []models.Card `json:"deck"`    // top of deck is index 0
	DiscardPile []models.Card `json:"discard"` // top card is the last element
	Burned      []models.Card `json:"burned,omitempty"`

	CurrentSeatIndex int          `json:"currentSeatIndex"`
	Direction        int          `json:"direction"`
	CurrentColor     models.Color `json:"currentColor"`
	PendingDrawCount int          `json:"pendingDrawCount"`

	Started    bool   `json:"started"`
	Over       bool   `json:"over"`
	WinnerID   string `json:"winnerId,omitempty"`
	LastAction string `json:"lastAction"`

	Rules HouseRules `json:"rules"`

	// Seed and Shuffles select the random stream of the next shuffle.
	Seed     int64 `json:"seed"`
	Shuffles int   `json:"shuffles"`

	// Version increments on every accepted intent.
	Version int64 `json:"version"`
}

// Clone returns a deep copy that shares no slices with s.
func (s SessionState) Clone() SessionState {
	c := s
	c.Seats = make([]models.Seat, len(s.Seats))
	for i, seat := range s.Seats {
		seat.Hand = append([]models.Card(nil), seat.Hand...)
		c.Seats[i] = seat
	}
	c.Deck = append([]models.Card(nil), s.Deck...)
	c.DiscardPile = append([]models.Card(nil), s.DiscardPile...)
	c.Burned = append([]models.Card(nil), s.Burned...)
	return c
}

// SeatIndex returns the index of the seat with id, or -1.
func (s SessionState) SeatIndex(id string) int {
	for i, seat := range s.Seats {
		if seat.ID == id {
			return i
		}
	}
	return -1
}

// CurrentSeat returns the seat whose turn it is.
func (s SessionState) CurrentSeat() models.Seat {
	return s.Seats[s.CurrentSeatIndex]
}

// TopCard returns the top of the discard pile.
func (s SessionState) TopCard() (models.Card, bool) {
	if len(s.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// CardCount counts every card in play, burned cards included. It is DeckSize once dealing is done.
func (s SessionState) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile) + len(s.Burned)
	for _, seat := range s.Seats {
		n += len(seat.Hand)
	}
	return n
}

// seatAt returns the index steps seats away from the current one in the direction of play.
func (s SessionState) seatAt(steps int) int {
	n := len(s.Seats)
	return ((s.CurrentSeatIndex+steps*s.Direction)%n + n) % n
}

func (s *SessionState) advance(steps int) {
	s.CurrentSeatIndex = s.seatAt(steps)
}

// clearStaleLowHand drops every low-hand declaration whose seat no longer holds exactly one card.
func (s *SessionState) clearStaleLowHand() {
	for i := range s.Seats {
		if len(s.Seats[i].Hand) != 1 {
			s.Seats[i].HasDeclaredLowHand = false
		}
	}
}

// drawCards moves up to n cards from the deck to the hand at seatIdx, reshuffling the
// discard pile whenever the deck runs out. It stops early when nothing is left to reshuffle.
func (s *SessionState) drawCards(seatIdx, n int) (drawn []models.Card, reshuffles int) {
	for len(drawn) < n {
		if len(s.Deck) == 0 {
			deck, discard, err := Reshuffle(s.Deck, s.DiscardPile, NewRNG(s.Seed+int64(s.Shuffles)))
			if err != nil {
				break
			}
			s.Deck, s.DiscardPile = deck, discard
			s.Shuffles++
			reshuffles++
		}
		card := s.Deck[0]
		s.Deck = s.Deck[1:]
		drawn = append(drawn, card)
	}
	s.Seats[seatIdx].Hand = append(s.Seats[seatIdx].Hand, drawn...)
	return drawn, reshuffles
}
