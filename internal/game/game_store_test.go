package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStoreStartSession(t *testing.T) {
	rules := DefaultHouseRules()
	rules.BotDelayMs = 0
	store := NewGameStore(Options{Rules: rules, Logger: quietLogger()})

	var created []*Game
	store.OnCreate = func(g *Game) {
		created = append(created, g)
		g.PublishAction = noPublish
	}

	g, err := store.StartSession(context.Background(), "room-a", seatSpecs(3), 0)
	require.NoError(t, err)
	defer store.DeleteGame(g.ID)

	assert.Equal(t, []*Game{g}, created)
	assert.Equal(t, 1, store.Len())

	got, ok := store.GetGame(g.ID)
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Same(t, g, store.GetGameByRoomID("room-a"))
	assert.Nil(t, store.GetGameByRoomID("room-b"))
	assert.True(t, g.Snapshot("").Started)
}

func TestGameStoreRejectsOversizedRoster(t *testing.T) {
	store := NewGameStore(Options{Logger: quietLogger()})
	store.OnCreate = func(g *Game) { g.PublishAction = noPublish }

	_, err := store.StartSession(context.Background(), "room", seatSpecs(5), 4)
	assert.ErrorIs(t, err, ErrInvalidRoster)
	assert.Equal(t, 0, store.Len())

	_, err = store.StartSession(context.Background(), "room", []models.SeatSpec{{ID: "solo"}}, 0)
	assert.ErrorIs(t, err, ErrInvalidRoster)
	assert.Equal(t, 0, store.Len())

	_, err = store.StartSession(context.Background(), "room", seatSpecs(2), 1)
	assert.ErrorIs(t, err, ErrInvalidRoster)
	assert.Equal(t, 0, store.Len())
}

func TestGameStoreDeleteUnknownIsNoop(t *testing.T) {
	store := NewGameStore(Options{})
	store.DeleteGame(uuid.New())
	assert.Equal(t, 0, store.Len())
}

func TestGameStoreEvictOnlyDropsSameInstance(t *testing.T) {
	store := NewGameStore(Options{Logger: quietLogger()})
	g, _ := setupTestGame(t, 2, 0, 4)
	store.AddGame(g)

	replacement := RestoreGame(g.current(), store.Defaults)
	t.Cleanup(replacement.Close)
	store.AddGame(replacement)

	assert.False(t, store.EvictGame(g), "an older instance must not drop its replacement")
	live, ok := store.GetGame(g.ID)
	require.True(t, ok)
	assert.Same(t, replacement, live)

	assert.True(t, store.EvictGame(replacement))
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.EvictGame(replacement))
}
