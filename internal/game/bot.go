// internal/game/bot.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// BotTurn decides the intents for the bot whose turn it is in s. The result is a
// draw, a play, or a play followed by a low-hand declaration when the play leaves
// the bot holding a single card.
func BotTurn(s SessionState) []Intent {
	seat := s.CurrentSeat()
	top, _ := s.TopCard()

	legal := s.Rules.LegalMoves(seat.Hand, top, s.CurrentColor, s.PendingDrawCount)
	if len(legal) == 0 {
		return []Intent{DrawIntent(seat.ID)}
	}

	pick := pickBotCard(seat.Hand, legal)
	play := PlayIntent(seat.ID, pick, "")
	if seat.Hand[pick].IsWild() {
		play.ChosenColor = botWildColor(seat.Hand, pick)
	}

	if len(seat.Hand) == 2 {
		return []Intent{play, DeclareIntent(seat.ID)}
	}
	return []Intent{play}
}

// pickBotCard prefers wild cards, then action cards, then anything else; ties go
// to the card earliest in hand.
func pickBotCard(hand []models.Card, legal []int) int {
	for _, want := range []models.Kind{models.KindWild, models.KindAction} {
		for _, i := range legal {
			if hand[i].Kind == want {
				return i
			}
		}
	}
	return legal[0]
}

// botWildColor names the color held most often among the non-wild cards left once
// hand[played] is gone. Ties resolve red, blue, green, yellow.
func botWildColor(hand []models.Card, played int) models.Color {
	counts := make(map[models.Color]int, len(models.PlayableColors))
	for i, c := range hand {
		if i == played || c.IsWild() {
			continue
		}
		counts[c.Color]++
	}
	best := models.PlayableColors[0]
	for _, color := range models.PlayableColors[1:] {
		if counts[color] > counts[best] {
			best = color
		}
	}
	return best
}
