package models

// Seat is one participant in a game session, human or bot.
type Seat struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Hand  []Card `json:"hand"`
	IsBot bool   `json:"isBot"`

	// HasDeclaredLowHand is only ever true while the hand holds exactly one card.
	HasDeclaredLowHand bool `json:"hasDeclaredLowHand"`
}

// SeatSpec describes a seat for a new session, before any cards are dealt.
type SeatSpec struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot"`
}
