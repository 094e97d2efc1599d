// internal/game/resolver.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/uno/internal/models"
)

// resolve applies the effect of a card that was just played by the current seat
// (and did not win the game), then moves the turn on. It returns the text appended
// to the play description.
func (s *SessionState) resolve(card models.Card, chosen models.Color, out *Outcome) string {
	steps := 1
	var note string

	switch card.Face {
	case models.FaceWild:
		s.CurrentColor = chosen
		note = fmt.Sprintf(" - Color: %s", chosen)
	case models.FaceWildDrawFour:
		s.CurrentColor = chosen
		s.PendingDrawCount += 4
		note = fmt.Sprintf(" - Next player must draw %d! Color: %s", s.PendingDrawCount, chosen)
	case models.FaceSkip:
		steps = 2
		out.SkippedID = s.Seats[s.seatAt(1)].ID
		note = " - Next player skipped!"
	case models.FaceReverse:
		if len(s.Seats) == 2 {
			// two seats: reverse is a skip
			steps = 2
			out.SkippedID = s.Seats[s.seatAt(1)].ID
			note = " - Next player skipped!"
		} else {
			s.Direction = -s.Direction
			out.Reversed = true
			note = " - Direction reversed!"
		}
	case models.FaceDrawTwo:
		s.PendingDrawCount += 2
		note = fmt.Sprintf(" - Next player must draw %d!", s.PendingDrawCount)
	}

	if !card.IsWild() {
		s.CurrentColor = card.Color
	}
	s.advance(steps)
	return note
}
