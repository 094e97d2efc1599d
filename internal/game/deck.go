// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/uno/internal/models"
)

// RNG is the randomness a shuffle needs. *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewDeck builds the 108-card deck in a fixed order.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, color := range models.PlayableColors {
		deck = append(deck, models.NumberCard(color, models.Face0))
		for _, face := range models.NumberFaces[1:] {
			deck = append(deck, models.NumberCard(color, face), models.NumberCard(color, face))
		}
		for _, face := range models.ActionFaces {
			deck = append(deck, models.ActionCard(color, face), models.ActionCard(color, face))
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, models.WildCard(models.FaceWild), models.WildCard(models.FaceWildDrawFour))
	}
	return deck
}

// Shuffle permutes cards in place (Fisher-Yates).
func Shuffle(cards []models.Card, rng RNG) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Reshuffle turns every discard except the top one into a new, shuffled deck.
// The deck is expected to be empty; any cards still in it are kept underneath.
func Reshuffle(deck, discard []models.Card, rng RNG) ([]models.Card, []models.Card, error) {
	if len(discard) < 2 {
		return deck, discard, ErrDegenerateReshuffle
	}
	top := discard[len(discard)-1]
	fresh := make([]models.Card, 0, len(deck)+len(discard)-1)
	fresh = append(fresh, discard[:len(discard)-1]...)
	Shuffle(fresh, rng)
	fresh = append(fresh, deck...)
	return fresh, []models.Card{top}, nil
}
