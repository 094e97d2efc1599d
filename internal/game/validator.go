package game

import "github.com/jason-s-yu/uno/internal/models"

// IsLegal reports whether card may be played under the default rules.
func IsLegal(card, top models.Card, currentColor models.Color, pendingDrawCount int) bool {
	return DefaultHouseRules().CanPlay(card, top, currentColor, pendingDrawCount)
}

// CanPlay reports whether card may be played onto top with currentColor in force.
// While a draw penalty is pending only stacking cards are playable.
func (rules HouseRules) CanPlay(card, top models.Card, currentColor models.Color, pendingDrawCount int) bool {
	if pendingDrawCount > 0 {
		if !card.IsDrawStack() {
			return false
		}
		if rules.Stacking == StackingSameFace {
			return card.Face == top.Face
		}
		return true
	}
	return card.IsWild() || card.Color == currentColor || card.Face == top.Face
}

// LegalMoves returns the indexes of every card in hand that CanPlay accepts, in hand order.
func (rules HouseRules) LegalMoves(hand []models.Card, top models.Card, currentColor models.Color, pendingDrawCount int) []int {
	var idx []int
	for i, c := range hand {
		if rules.CanPlay(c, top, currentColor, pendingDrawCount) {
			idx = append(idx, i)
		}
	}
	return idx
}
