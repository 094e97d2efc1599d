// internal/game/engine.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Outcome describes what an accepted intent did to the table.
type Outcome struct {
	Intent     Intent        `json:"intent"`
	SeatIndex  int           `json:"seatIndex"`
	Card       *models.Card  `json:"card,omitempty"`      // card played
	Color      models.Color  `json:"color,omitempty"`     // color in force after the play
	Drawn      []models.Card `json:"drawn,omitempty"`     // cards drawn, private to the drawer
	Shortfall  int           `json:"shortfall,omitempty"` // cards owed but not drawable
	Reshuffles int           `json:"reshuffles,omitempty"`
	SkippedID  string        `json:"skippedId,omitempty"`
	Reversed   bool          `json:"reversed,omitempty"`
	GameOver   bool          `json:"gameOver,omitempty"`
	WinnerID   string        `json:"winnerId,omitempty"`
}

// Start validates the roster, shuffles a fresh deck with seed, deals each seat in
// seat order and opens the discard pile with the first number card turned up.
func Start(gameID uuid.UUID, roomID string, seats []models.SeatSpec, rules HouseRules, seed int64) (SessionState, error) {
	if rules.MaxPlayers < 2 {
		return SessionState{}, fmt.Errorf("%w: maxPlayers %d leaves no room for 2 seats", ErrInvalidRoster, rules.MaxPlayers)
	}
	if err := rules.Validate(); err != nil {
		return SessionState{}, fmt.Errorf("house rules: %w", err)
	}
	n := len(seats)
	if n < 2 || n > rules.MaxPlayers {
		return SessionState{}, fmt.Errorf("%w: %d seats, need 2 to %d", ErrInvalidRoster, n, rules.MaxPlayers)
	}
	if n*rules.InitialHandSize >= DeckSize {
		return SessionState{}, fmt.Errorf("%w: %d seats cannot be dealt %d cards each", ErrInvalidRoster, n, rules.InitialHandSize)
	}
	seen := make(map[string]bool, n)
	for _, spec := range seats {
		if spec.ID == "" || seen[spec.ID] {
			return SessionState{}, fmt.Errorf("%w: seat ids must be unique and non-empty", ErrInvalidRoster)
		}
		seen[spec.ID] = true
	}

	deck := NewDeck()
	Shuffle(deck, NewRNG(seed))

	s := SessionState{
		GameID:    gameID,
		RoomID:    roomID,
		Seats:     make([]models.Seat, n),
		Direction: 1,
		Rules:     rules,
		Seed:      seed,
		Shuffles:  1,
	}
	for i, spec := range seats {
		hand := make([]models.Card, rules.InitialHandSize)
		copy(hand, deck[:rules.InitialHandSize])
		deck = deck[rules.InitialHandSize:]
		s.Seats[i] = models.Seat{ID: spec.ID, Name: spec.Name, IsBot: spec.IsBot, Hand: hand}
	}

	var opening *models.Card
	for tries := len(deck); tries > 0; tries-- {
		c := deck[0]
		deck = deck[1:]
		if c.IsNumber() {
			opening = &c
			break
		}
		if rules.OpeningDiscard == OpeningBurn {
			s.Burned = append(s.Burned, c)
		} else {
			deck = append(deck, c)
		}
	}
	if opening == nil {
		return SessionState{}, ErrNoOpeningCard
	}

	s.Deck = append([]models.Card(nil), deck...)
	s.DiscardPile = []models.Card{*opening}
	s.CurrentColor = opening.Color
	s.Started = true
	s.LastAction = "Game started!"
	s.Version = 1
	return s, nil
}

// Apply validates in against s and returns the resulting state. A rejected intent
// returns s unchanged together with a *Rejection.
func Apply(s SessionState, in Intent) (SessionState, Outcome, error) {
	switch in.Type {
	case IntentPlay, IntentDraw, IntentDeclareLowHand:
	default:
		return s, Outcome{}, reject(in, ErrUnknownIntent)
	}
	if !s.Started {
		return s, Outcome{}, reject(in, ErrNotStarted)
	}
	if s.Over {
		return s, Outcome{}, reject(in, ErrGameOver)
	}
	idx := s.SeatIndex(in.SeatID)
	if idx < 0 {
		return s, Outcome{}, reject(in, ErrUnknownSeat)
	}

	next := s.Clone()
	out := Outcome{Intent: in, SeatIndex: idx}
	var err error
	switch in.Type {
	case IntentPlay:
		err = next.play(idx, in, &out)
	case IntentDraw:
		err = next.draw(idx, &out)
	case IntentDeclareLowHand:
		err = next.declareLowHand(idx)
	}
	if err != nil {
		return s, Outcome{}, reject(in, err)
	}

	next.clearStaleLowHand()
	next.Version++
	return next, out, nil
}

func (s *SessionState) play(idx int, in Intent, out *Outcome) error {
	if idx != s.CurrentSeatIndex {
		return ErrNotYourTurn
	}
	seat := &s.Seats[idx]
	if in.HandIndex < 0 || in.HandIndex >= len(seat.Hand) {
		return ErrInvalidCardIndex
	}
	card := seat.Hand[in.HandIndex]
	top, _ := s.TopCard()
	if !s.Rules.CanPlay(card, top, s.CurrentColor, s.PendingDrawCount) {
		return ErrIllegalMove
	}

	color := in.ChosenColor
	if card.IsWild() {
		switch {
		case color == "" && !seat.IsBot && s.Rules.RequireChosenColor:
			return ErrColorRequired
		case color == "":
			color = s.Rules.DefaultWildColor
		case !color.Valid():
			return ErrInvalidColor
		}
	}

	seat.Hand = append(seat.Hand[:in.HandIndex], seat.Hand[in.HandIndex+1:]...)
	s.DiscardPile = append(s.DiscardPile, card)
	out.Card = &card

	if len(seat.Hand) == 0 {
		s.Over = true
		s.WinnerID = seat.ID
		s.LastAction = fmt.Sprintf("%s wins!", seat.Name)
		out.GameOver = true
		out.WinnerID = seat.ID
		return nil
	}

	desc := fmt.Sprintf("%s played %s", seat.Name, card)
	desc += s.resolve(card, color, out)
	s.LastAction = desc
	out.Color = s.CurrentColor
	return nil
}

func (s *SessionState) draw(idx int, out *Outcome) error {
	if idx != s.CurrentSeatIndex {
		return ErrNotYourTurn
	}
	n := 1
	if s.PendingDrawCount > 0 {
		n = s.PendingDrawCount
		s.PendingDrawCount = 0
	}
	drawn, reshuffles := s.drawCards(idx, n)
	out.Drawn = drawn
	out.Reshuffles = reshuffles
	out.Shortfall = n - len(drawn)

	name := s.Seats[idx].Name
	if n == 1 {
		s.LastAction = fmt.Sprintf("%s drew a card", name)
	} else {
		s.LastAction = fmt.Sprintf("%s drew %d cards", name, len(drawn))
	}
	s.advance(1)
	return nil
}

func (s *SessionState) declareLowHand(idx int) error {
	seat := &s.Seats[idx]
	if len(seat.Hand) != 1 {
		return ErrLowHandNotAllowed
	}
	seat.HasDeclaredLowHand = true
	s.LastAction = fmt.Sprintf("%s called UNO!", seat.Name)
	return nil
}
