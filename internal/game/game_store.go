// internal/game/game_store.go
package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// GameStore keeps every live game of this process.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Game

	// Defaults seeds the options of games created by StartSession.
	Defaults Options

	// OnCreate runs on every new game before it starts, to install hooks.
	OnCreate func(g *Game)
}

func NewGameStore(defaults Options) *GameStore {
	return &GameStore{
		games:    make(map[uuid.UUID]*Game),
		Defaults: defaults,
	}
}

// StartSession deals a new game for seats and registers it. maxPlayers <= 0 keeps
// the store default.
func (s *GameStore) StartSession(ctx context.Context, roomID string, seats []models.SeatSpec, maxPlayers int) (*Game, error) {
	opts := s.Defaults
	if opts.Rules == (HouseRules{}) {
		opts.Rules = DefaultHouseRules()
	}
	if maxPlayers > 0 {
		opts.Rules.MaxPlayers = maxPlayers
	}
	return s.Launch(ctx, NewGame(roomID, seats, opts))
}

// Launch registers g and starts it. A game that fails to start is closed and dropped.
func (s *GameStore) Launch(ctx context.Context, g *Game) (*Game, error) {
	if s.OnCreate != nil {
		s.OnCreate(g)
	}
	s.AddGame(g)
	if _, err := g.Start(ctx); err != nil {
		s.DeleteGame(g.ID)
		return nil, err
	}
	return g, nil
}

func (s *GameStore) AddGame(g *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

func (s *GameStore) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// DeleteGame removes the game and stops its event delivery.
func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	g, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if ok {
		g.Close()
	}
}

// EvictGame drops g only if it is still the live game for its id, and stops it.
// It reports whether g was dropped.
func (s *GameStore) EvictGame(g *Game) bool {
	s.mu.Lock()
	cur, ok := s.games[g.ID]
	live := ok && cur == g
	if live {
		delete(s.games, g.ID)
	}
	s.mu.Unlock()
	if live {
		g.Close()
	}
	return live
}

// GetGameByRoomID returns the live game started for roomID, or nil if none is found.
func (s *GameStore) GetGameByRoomID(roomID string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.RoomID == roomID {
			return g
		}
	}
	return nil
}

// CloseAll drops every game and stops its event delivery.
func (s *GameStore) CloseAll() {
	s.mu.Lock()
	games := s.games
	s.games = make(map[uuid.UUID]*Game)
	s.mu.Unlock()
	for _, g := range games {
		g.Close()
	}
}

func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
