// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PublicSeatView is one seat as seen by a particular viewer.
type PublicSeatView struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	IsBot              bool          `json:"isBot"`
	HandSize           int           `json:"handSize"`
	HasDeclaredLowHand bool          `json:"hasDeclaredLowHand"`
	IsCurrentTurn      bool          `json:"isCurrentTurn"`
	Hand               []models.Card `json:"hand,omitempty"` // only for the viewer's own seat
}

// PublicSessionView is the table from one seat's perspective. Other seats' hands
// are reduced to their sizes.
type PublicSessionView struct {
	GameID           uuid.UUID        `json:"gameId"`
	RoomID           string           `json:"roomId"`
	ViewerSeatID     string           `json:"viewerSeatId,omitempty"`
	Started          bool             `json:"started"`
	Over             bool             `json:"over"`
	WinnerID         string           `json:"winnerId,omitempty"`
	CurrentSeatID    string           `json:"currentSeatId"`
	Direction        int              `json:"direction"`
	CurrentColor     models.Color     `json:"currentColor"`
	PendingDrawCount int              `json:"pendingDrawCount"`
	TopCard          *models.Card     `json:"topCard,omitempty"`
	DeckCount        int              `json:"deckCount"`
	DiscardCount     int              `json:"discardCount"`
	LastAction       string           `json:"lastAction"`
	Version          int64            `json:"version"`
	Seats            []PublicSeatView `json:"seats"`
}

// View builds the snapshot of s for viewer. An unknown viewer sees no hand at all.
func (s SessionState) View(viewer string) PublicSessionView {
	v := PublicSessionView{
		GameID:           s.GameID,
		RoomID:           s.RoomID,
		ViewerSeatID:     viewer,
		Started:          s.Started,
		Over:             s.Over,
		WinnerID:         s.WinnerID,
		Direction:        s.Direction,
		CurrentColor:     s.CurrentColor,
		PendingDrawCount: s.PendingDrawCount,
		DeckCount:        len(s.Deck),
		DiscardCount:     len(s.DiscardPile),
		LastAction:       s.LastAction,
		Version:          s.Version,
		Seats:            make([]PublicSeatView, 0, len(s.Seats)),
	}
	if len(s.Seats) > 0 {
		v.CurrentSeatID = s.CurrentSeat().ID
	}
	if top, ok := s.TopCard(); ok {
		v.TopCard = &top
	}

	for i, seat := range s.Seats {
		ps := PublicSeatView{
			ID:                 seat.ID,
			Name:               seat.Name,
			IsBot:              seat.IsBot,
			HandSize:           len(seat.Hand),
			HasDeclaredLowHand: seat.HasDeclaredLowHand,
			IsCurrentTurn:      i == s.CurrentSeatIndex,
		}
		if viewer != "" && seat.ID == viewer {
			ps.Hand = append([]models.Card{}, seat.Hand...)
		}
		v.Seats = append(v.Seats, ps)
	}
	return v
}

// Snapshot returns the latest committed table as seen by viewerSeatID. It does not
// take the game lock and may trail an in-flight move by one version.
func (g *Game) Snapshot(viewerSeatID string) PublicSessionView {
	return g.current().View(viewerSeatID)
}
