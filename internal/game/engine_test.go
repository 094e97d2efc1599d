package game

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red3   = models.NumberCard(models.Red, models.Face3)
	red5   = models.NumberCard(models.Red, models.Face5)
	blue5  = models.NumberCard(models.Blue, models.Face5)
	green7 = models.NumberCard(models.Green, models.Face7)
	redSkp = models.ActionCard(models.Red, models.FaceSkip)
	redRev = models.ActionCard(models.Red, models.FaceReverse)
	redD2  = models.ActionCard(models.Red, models.FaceDrawTwo)
	wild   = models.WildCard(models.FaceWild)
	wild4  = models.WildCard(models.FaceWildDrawFour)
)

func seatSpecs(n int) []models.SeatSpec {
	specs := make([]models.SeatSpec, n)
	for i := range specs {
		specs[i] = models.SeatSpec{ID: fmt.Sprintf("player_%d", i), Name: fmt.Sprintf("Player %d", i+1)}
	}
	return specs
}

// tableState builds a started table with top on the discard pile and one seat per hand.
func tableState(top models.Card, hands ...[]models.Card) SessionState {
	s := SessionState{
		GameID:       uuid.New(),
		RoomID:       "room",
		DiscardPile:  []models.Card{top},
		Direction:    1,
		CurrentColor: top.Color,
		Started:      true,
		Rules:        DefaultHouseRules(),
		Seed:         1,
		Shuffles:     1,
		Version:      1,
	}
	for i, h := range hands {
		s.Seats = append(s.Seats, models.Seat{
			ID:   fmt.Sprintf("player_%d", i),
			Name: fmt.Sprintf("P%d", i),
			Hand: append([]models.Card(nil), h...),
		})
	}
	return s
}

func TestStartDealsAndOpens(t *testing.T) {
	s, err := Start(uuid.New(), "room", seatSpecs(4), DefaultHouseRules(), 42)
	require.NoError(t, err)

	assert.True(t, s.Started)
	assert.False(t, s.Over)
	assert.Equal(t, 0, s.CurrentSeatIndex)
	assert.Equal(t, 1, s.Direction)
	assert.Equal(t, 0, s.PendingDrawCount)
	assert.Equal(t, "Game started!", s.LastAction)
	for _, seat := range s.Seats {
		assert.Len(t, seat.Hand, 7)
		assert.False(t, seat.HasDeclaredLowHand)
	}
	require.Len(t, s.DiscardPile, 1)
	top := s.DiscardPile[0]
	assert.True(t, top.IsNumber())
	assert.Equal(t, top.Color, s.CurrentColor)
	assert.Empty(t, s.Burned)
	assert.Len(t, s.Deck, DeckSize-28-1)
	assert.Equal(t, DeckSize, s.CardCount())
}

func TestStartIsDeterministic(t *testing.T) {
	a, err := Start(uuid.Nil, "room", seatSpecs(3), DefaultHouseRules(), 5)
	require.NoError(t, err)
	b, err := Start(uuid.Nil, "room", seatSpecs(3), DefaultHouseRules(), 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStartBurnPolicy(t *testing.T) {
	rules := DefaultHouseRules()
	rules.OpeningDiscard = OpeningBurn
	for seed := int64(1); seed <= 40; seed++ {
		s, err := Start(uuid.New(), "room", seatSpecs(4), rules, seed)
		require.NoError(t, err)
		assert.True(t, s.DiscardPile[0].IsNumber())
		assert.Equal(t, DeckSize-28-1, len(s.Deck)+len(s.Burned), "seed %d", seed)
		assert.Equal(t, DeckSize, s.CardCount())
		for _, c := range s.Burned {
			assert.False(t, c.IsNumber())
		}
	}
}

func TestStartRosterBounds(t *testing.T) {
	rules := DefaultHouseRules()

	_, err := Start(uuid.New(), "room", seatSpecs(1), rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)
	_, err = Start(uuid.New(), "room", seatSpecs(11), rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)
	_, err = Start(uuid.New(), "room", nil, rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	_, err = Start(uuid.New(), "room", seatSpecs(2), rules, 1)
	assert.NoError(t, err)
	_, err = Start(uuid.New(), "room", seatSpecs(10), rules, 1)
	assert.NoError(t, err)

	rules.MaxPlayers = 4
	_, err = Start(uuid.New(), "room", seatSpecs(5), rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	dup := seatSpecs(3)
	dup[2].ID = dup[0].ID
	_, err = Start(uuid.New(), "room", dup, DefaultHouseRules(), 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	rules = DefaultHouseRules()
	rules.MaxPlayers = 1
	_, err = Start(uuid.New(), "room", seatSpecs(2), rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	rules = DefaultHouseRules()
	rules.MaxPlayers = 20
	_, err = Start(uuid.New(), "room", seatSpecs(16), rules, 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)
}

func TestPlayMatchingColor(t *testing.T) {
	s := tableState(red3, []models.Card{red5, blue5}, []models.Card{green7})
	s.Deck = []models.Card{green7}

	next, out, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)

	top, _ := next.TopCard()
	assert.Equal(t, red5, top)
	assert.Equal(t, models.Red, next.CurrentColor)
	assert.Equal(t, 1, next.CurrentSeatIndex)
	assert.Equal(t, []models.Card{blue5}, next.Seats[0].Hand)
	assert.Equal(t, "P0 played red 5", next.LastAction)
	assert.Equal(t, int64(2), next.Version)
	require.NotNil(t, out.Card)
	assert.Equal(t, red5, *out.Card)

	// the input state is untouched
	assert.Equal(t, []models.Card{red5, blue5}, s.Seats[0].Hand)
	assert.Len(t, s.DiscardPile, 1)
}

func TestPendingDrawStacking(t *testing.T) {
	s := tableState(redD2, []models.Card{wild4, green7}, []models.Card{red5})
	s.PendingDrawCount = 2

	next, _, err := Apply(s, PlayIntent("player_0", 0, models.Blue))
	require.NoError(t, err)
	assert.Equal(t, 6, next.PendingDrawCount)
	assert.Equal(t, models.Blue, next.CurrentColor)
	assert.Equal(t, 1, next.CurrentSeatIndex)

	same, _, err := Apply(s, PlayIntent("player_0", 1, ""))
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Equal(t, s, same)
	assert.Equal(t, 2, s.PendingDrawCount)
}

func TestDrawResolvesPending(t *testing.T) {
	s := tableState(redD2, []models.Card{green7}, []models.Card{red5}, []models.Card{blue5})
	s.PendingDrawCount = 4
	s.Deck = []models.Card{red3, red5, blue5, green7, wild}

	next, out, err := Apply(s, DrawIntent("player_0"))
	require.NoError(t, err)
	assert.Len(t, next.Seats[0].Hand, 5)
	assert.Equal(t, []models.Card{red3, red5, blue5, green7}, out.Drawn)
	assert.Equal(t, 0, next.PendingDrawCount)
	assert.Equal(t, 1, next.CurrentSeatIndex)
	assert.Equal(t, []models.Card{wild}, next.Deck)
	assert.Equal(t, "P0 drew 4 cards", next.LastAction)
}

func TestDrawSingleCard(t *testing.T) {
	s := tableState(red3, []models.Card{green7}, []models.Card{blue5})
	s.Deck = []models.Card{wild, red5}

	next, out, err := Apply(s, DrawIntent("player_0"))
	require.NoError(t, err)
	assert.Equal(t, []models.Card{green7, wild}, next.Seats[0].Hand)
	assert.Len(t, out.Drawn, 1)
	assert.Equal(t, 1, next.CurrentSeatIndex)
	assert.Equal(t, "P0 drew a card", next.LastAction)
}

func TestDrawReshufflesEmptyDeck(t *testing.T) {
	s := tableState(red3, []models.Card{green7}, []models.Card{blue5})
	s.DiscardPile = []models.Card{red5, blue5, wild, redSkp, red3}

	next, out, err := Apply(s, DrawIntent("player_0"))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Reshuffles)
	assert.Len(t, next.Deck, 3)
	assert.Equal(t, []models.Card{red3}, next.DiscardPile)
	assert.Len(t, next.Seats[0].Hand, 2)
	assert.Equal(t, 2, next.Shuffles)
	assert.Equal(t, s.CardCount(), next.CardCount())
}

func TestDrawWithNothingLeftFallsShort(t *testing.T) {
	s := tableState(red3, []models.Card{green7}, []models.Card{blue5})
	s.PendingDrawCount = 2

	next, out, err := Apply(s, DrawIntent("player_0"))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Shortfall)
	assert.Empty(t, out.Drawn)
	assert.Equal(t, 0, next.PendingDrawCount)
	assert.Equal(t, 1, next.CurrentSeatIndex)
	assert.Equal(t, []models.Card{green7}, next.Seats[0].Hand)
}

func TestSkipAdvancesTwo(t *testing.T) {
	s := tableState(red3, []models.Card{redSkp, red5}, []models.Card{blue5}, []models.Card{green7})

	next, out, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, next.CurrentSeatIndex)
	assert.Equal(t, "player_1", out.SkippedID)
	assert.Equal(t, "P0 played red skip - Next player skipped!", next.LastAction)
}

func TestReverseFlipsDirection(t *testing.T) {
	s := tableState(red3, []models.Card{redRev, red5}, []models.Card{blue5}, []models.Card{green7})

	next, out, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.True(t, out.Reversed)
	assert.Equal(t, -1, next.Direction)
	assert.Equal(t, 2, next.CurrentSeatIndex)
}

func TestReverseWithTwoSeatsActsAsSkip(t *testing.T) {
	s := tableState(red3, []models.Card{redRev, red5}, []models.Card{blue5})

	next, out, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Direction)
	assert.Equal(t, 0, next.CurrentSeatIndex)
	assert.Equal(t, "player_1", out.SkippedID)
	assert.False(t, out.Reversed)
}

func TestDrawTwoAddsPending(t *testing.T) {
	s := tableState(red3, []models.Card{redD2, red5}, []models.Card{blue5})
	next, _, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, next.PendingDrawCount)
	assert.Equal(t, 1, next.CurrentSeatIndex)
	assert.Equal(t, "P0 played red draw-two - Next player must draw 2!", next.LastAction)
}

func TestWinSkipsCardEffects(t *testing.T) {
	s := tableState(red3, []models.Card{redD2}, []models.Card{blue5}, []models.Card{green7})

	next, out, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.True(t, next.Over)
	assert.True(t, out.GameOver)
	assert.Equal(t, "player_0", next.WinnerID)
	assert.Equal(t, 0, next.PendingDrawCount)
	assert.Equal(t, 0, next.CurrentSeatIndex)
	assert.Equal(t, "P0 wins!", next.LastAction)

	_, _, err = Apply(next, DrawIntent("player_1"))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestWildColorChoice(t *testing.T) {
	s := tableState(red3, []models.Card{wild, red5}, []models.Card{blue5})

	_, _, err := Apply(s, PlayIntent("player_0", 0, ""))
	assert.ErrorIs(t, err, ErrColorRequired)

	_, _, err = Apply(s, PlayIntent("player_0", 0, models.Wild))
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, _, err = Apply(s, PlayIntent("player_0", 0, "purple"))
	assert.ErrorIs(t, err, ErrInvalidColor)

	next, _, err := Apply(s, PlayIntent("player_0", 0, models.Yellow))
	require.NoError(t, err)
	assert.Equal(t, models.Yellow, next.CurrentColor)
	assert.Equal(t, "P0 played wild - Color: yellow", next.LastAction)

	s.Seats[0].IsBot = true
	next, _, err = Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.Equal(t, models.Red, next.CurrentColor)

	s.Seats[0].IsBot = false
	s.Rules.RequireChosenColor = false
	s.Rules.DefaultWildColor = models.Green
	next, _, err = Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.Equal(t, models.Green, next.CurrentColor)
}

func TestRejections(t *testing.T) {
	s := tableState(red3, []models.Card{red5, blue5}, []models.Card{green7, red5})

	tests := []struct {
		name string
		in   Intent
		want error
	}{
		{"not your turn play", PlayIntent("player_1", 0, ""), ErrNotYourTurn},
		{"not your turn draw", DrawIntent("player_1"), ErrNotYourTurn},
		{"negative index", PlayIntent("player_0", -1, ""), ErrInvalidCardIndex},
		{"index past hand", PlayIntent("player_0", 2, ""), ErrInvalidCardIndex},
		{"illegal card", PlayIntent("player_0", 1, ""), ErrIllegalMove},
		{"unknown seat", DrawIntent("nobody"), ErrUnknownSeat},
		{"declare with two cards", DeclareIntent("player_0"), ErrLowHandNotAllowed},
		{"unknown intent", Intent{Type: "action_snap", SeatID: "player_0"}, ErrUnknownIntent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(s, tt.in)
			assert.ErrorIs(t, err, tt.want)
			var rej *Rejection
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.in.SeatID, rej.SeatID)
			assert.Equal(t, s, next)
		})
	}

	notStarted := s
	notStarted.Started = false
	_, _, err := Apply(notStarted, DrawIntent("player_0"))
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDeclareLowHand(t *testing.T) {
	s := tableState(red3, []models.Card{red5, blue5}, []models.Card{green7})
	s.Deck = []models.Card{wild, wild4}

	// any seat may declare, turn does not move
	next, _, err := Apply(s, DeclareIntent("player_1"))
	require.NoError(t, err)
	assert.True(t, next.Seats[1].HasDeclaredLowHand)
	assert.Equal(t, 0, next.CurrentSeatIndex)
	assert.Equal(t, "P1 called UNO!", next.LastAction)

	// drawing back up clears the declaration
	next.CurrentSeatIndex = 1
	next, _, err = Apply(next, DrawIntent("player_1"))
	require.NoError(t, err)
	assert.Len(t, next.Seats[1].Hand, 2)
	assert.False(t, next.Seats[1].HasDeclaredLowHand)
}

func TestLowHandFlagOnlyWithOneCard(t *testing.T) {
	s := tableState(red3, []models.Card{red5, blue5}, []models.Card{green7, wild})
	// a stale flag on a two-card hand is dropped by the next accepted intent
	s.Seats[1].HasDeclaredLowHand = true

	next, _, err := Apply(s, PlayIntent("player_0", 0, ""))
	require.NoError(t, err)
	assert.False(t, next.Seats[1].HasDeclaredLowHand)

	next, _, err = Apply(next, DeclareIntent("player_0"))
	require.NoError(t, err)
	assert.True(t, next.Seats[0].HasDeclaredLowHand)
}

// TestBotGamesHoldInvariants plays whole bot-only games and checks every step.
func TestBotGamesHoldInvariants(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		specs := seatSpecs(2 + int(seed%5))
		for i := range specs {
			specs[i].IsBot = true
		}
		s, err := Start(uuid.New(), "sim", specs, DefaultHouseRules(), seed)
		require.NoError(t, err)

		for steps := 0; !s.Over; steps++ {
			require.Less(t, steps, 20000, "seed %d did not finish", seed)
			for _, in := range BotTurn(s) {
				prev := s
				next, out, err := Apply(prev, in)
				require.NoError(t, err, "seed %d step %d", seed, steps)
				require.Equal(t, DeckSize, next.CardCount())
				require.Equal(t, prev.Version+1, next.Version)

				for _, seat := range next.Seats {
					if seat.HasDeclaredLowHand {
						require.Len(t, seat.Hand, 1)
					}
				}
				if next.PendingDrawCount > prev.PendingDrawCount {
					require.NotNil(t, out.Card)
					require.True(t, out.Card.IsDrawStack())
				}
				if prev.PendingDrawCount > 0 && out.Card != nil {
					require.True(t, out.Card.IsDrawStack())
				}

				switch {
				case in.Type == IntentDeclareLowHand || next.Over:
					require.Equal(t, prev.CurrentSeatIndex, next.CurrentSeatIndex)
				case out.SkippedID != "":
					require.Equal(t, prev.seatAt(2), next.CurrentSeatIndex)
				default:
					n := len(next.Seats)
					want := ((prev.CurrentSeatIndex+next.Direction)%n + n) % n
					require.Equal(t, want, next.CurrentSeatIndex)
				}
				s = next
				if s.Over {
					break
				}
			}
		}
		assert.Empty(t, s.Seats[s.SeatIndex(s.WinnerID)].Hand)
	}
}
