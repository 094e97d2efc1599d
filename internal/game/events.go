// internal/game/events.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventGameStart        GameEventType = "game_start"
	EventPlayerPlay       GameEventType = "player_play"
	EventPlayerDraw       GameEventType = "player_draw"             // public: count only
	EventPrivateDraw      GameEventType = "private_draw"            // drawer only: the cards
	EventPlayerLowHand    GameEventType = "player_low_hand"         // a seat declared its last card
	EventGameReshuffle    GameEventType = "game_reshuffle_deck"     // discard pile turned into the deck
	EventGamePlayerTurn   GameEventType = "game_player_turn"        // whose turn it is
	EventPrivateSyncState GameEventType = "private_sync_state"      // full view for one seat
	EventPrivateRejected  GameEventType = "private_action_rejected" // intent refused
	EventGameEnd          GameEventType = "game_end"
)

// EventUser identifies the seat an event is about.
type EventUser struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Card    *models.Card           `json:"card,omitempty"`
	Cards   []models.Card          `json:"cards,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *PublicSessionView     `json:"state,omitempty"`
}

// dispatch is an event addressed to one seat, or to everyone when SeatID is empty.
type dispatch struct {
	SeatID string
	Event  GameEvent
}

func eventUser(seat models.Seat) *EventUser {
	return &EventUser{ID: seat.ID, Name: seat.Name}
}

// stepEvents lists the events for one accepted intent, given the state it produced.
func stepEvents(out Outcome, s SessionState) []dispatch {
	actor := s.Seats[out.SeatIndex]
	var evs []dispatch
	public := func(ev GameEvent) { evs = append(evs, dispatch{Event: ev}) }

	switch out.Intent.Type {
	case IntentPlay:
		payload := map[string]interface{}{
			"handSize":   len(actor.Hand),
			"lastAction": s.LastAction,
		}
		if out.Color != "" {
			payload["color"] = out.Color
		}
		if out.SkippedID != "" {
			payload["skipped"] = out.SkippedID
		}
		if out.Reversed {
			payload["direction"] = s.Direction
		}
		if s.PendingDrawCount > 0 {
			payload["pendingDrawCount"] = s.PendingDrawCount
		}
		public(GameEvent{Type: EventPlayerPlay, User: eventUser(actor), Card: out.Card, Payload: payload})

	case IntentDraw:
		for i := 0; i < out.Reshuffles; i++ {
			public(GameEvent{Type: EventGameReshuffle, Payload: map[string]interface{}{"deckCount": len(s.Deck)}})
		}
		payload := map[string]interface{}{
			"count":      len(out.Drawn),
			"handSize":   len(actor.Hand),
			"lastAction": s.LastAction,
		}
		if out.Shortfall > 0 {
			payload["shortfall"] = out.Shortfall
		}
		public(GameEvent{Type: EventPlayerDraw, User: eventUser(actor), Payload: payload})
		if !actor.IsBot {
			evs = append(evs, dispatch{SeatID: actor.ID, Event: GameEvent{
				Type:  EventPrivateDraw,
				User:  eventUser(actor),
				Cards: append([]models.Card(nil), out.Drawn...),
			}})
		}

	case IntentDeclareLowHand:
		public(GameEvent{Type: EventPlayerLowHand, User: eventUser(actor), Payload: map[string]interface{}{"lastAction": s.LastAction}})
	}

	if s.Over {
		public(gameEndEvent(s))
	} else if out.Intent.Type != IntentDeclareLowHand {
		public(GameEvent{Type: EventGamePlayerTurn, User: eventUser(s.CurrentSeat())})
	}
	return append(evs, syncEvents(s)...)
}

// syncEvents gives every human seat its own view of s.
func syncEvents(s SessionState) []dispatch {
	var evs []dispatch
	for _, seat := range s.Seats {
		if seat.IsBot {
			continue
		}
		view := s.View(seat.ID)
		evs = append(evs, dispatch{SeatID: seat.ID, Event: GameEvent{Type: EventPrivateSyncState, State: &view}})
	}
	return evs
}

func gameEndEvent(s SessionState) GameEvent {
	handSizes := make(map[string]int, len(s.Seats))
	var winner *EventUser
	for _, seat := range s.Seats {
		handSizes[seat.ID] = len(seat.Hand)
		if seat.ID == s.WinnerID {
			winner = eventUser(seat)
		}
	}
	return GameEvent{
		Type: EventGameEnd,
		User: winner,
		Payload: map[string]interface{}{
			"winner":     s.WinnerID,
			"handSizes":  handSizes,
			"lastAction": s.LastAction,
		},
	}
}

// startEvents announces a freshly dealt table.
func startEvents(s SessionState) []dispatch {
	top, _ := s.TopCard()
	evs := []dispatch{
		{Event: GameEvent{Type: EventGameStart, Card: &top, Payload: map[string]interface{}{
			"color":      s.CurrentColor,
			"lastAction": s.LastAction,
		}}},
		{Event: GameEvent{Type: EventGamePlayerTurn, User: eventUser(s.CurrentSeat())}},
	}
	return append(evs, syncEvents(s)...)
}
