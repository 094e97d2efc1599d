package game

import (
	"fmt"

	"github.com/jason-s-yu/uno/internal/models"
)

// IntentType names a move a seat can submit. The values double as wire action types.
type IntentType string

const (
	IntentPlay           IntentType = "action_play"
	IntentDraw           IntentType = "action_draw"
	IntentDeclareLowHand IntentType = "action_declare_low_hand"
)

// Intent is one submitted move.
type Intent struct {
	Type        IntentType   `json:"type"`
	SeatID      string       `json:"seatId"`
	HandIndex   int          `json:"handIndex,omitempty"`
	ChosenColor models.Color `json:"chosenColor,omitempty"`
}

func PlayIntent(seatID string, handIndex int, color models.Color) Intent {
	return Intent{Type: IntentPlay, SeatID: seatID, HandIndex: handIndex, ChosenColor: color}
}

func DrawIntent(seatID string) Intent {
	return Intent{Type: IntentDraw, SeatID: seatID}
}

func DeclareIntent(seatID string) Intent {
	return Intent{Type: IntentDeclareLowHand, SeatID: seatID}
}

// IntentFromAction converts a wire action into an intent for seatID.
// Payload fields: "handIndex" (number) and "color" (string) for plays.
func IntentFromAction(seatID string, action models.GameAction) (Intent, error) {
	switch IntentType(action.ActionType) {
	case IntentPlay:
		idx, ok := action.PayloadInt("handIndex")
		if !ok {
			return Intent{}, fmt.Errorf("%w: handIndex missing or not an integer", ErrInvalidCardIndex)
		}
		return PlayIntent(seatID, idx, models.Color(action.PayloadString("color"))), nil
	case IntentDraw:
		return DrawIntent(seatID), nil
	case IntentDeclareLowHand:
		return DeclareIntent(seatID), nil
	}
	return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, action.ActionType)
}
