// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// ErrGameNotFound is returned when a game is neither live nor restorable.
var ErrGameNotFound = errors.New("game not found")

// DefaultEvictAfter is how long a finished game stays in memory for late readers.
const DefaultEvictAfter = 5 * time.Minute

// GameServer is a high-level struct that holds the live games and wires each of
// them to websockets, Redis and Postgres.
type GameServer struct {
	GameStore *game.GameStore
	Sessions  *cache.SessionRepo // nil keeps games in memory only
	Logger    *logrus.Logger

	// RecordResults writes start and end rows to Postgres. Off when no database is connected.
	RecordResults bool
	EvictAfter    time.Duration

	hub       *connHub
	restoreMu sync.Mutex
}

func NewGameServer(logger *logrus.Logger, defaults game.Options, sessions *cache.SessionRepo) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	defaults.Logger = logger
	gs := &GameServer{
		GameStore:     game.NewGameStore(defaults),
		Sessions:      sessions,
		Logger:        logger,
		RecordResults: database.DB != nil,
		EvictAfter:    DefaultEvictAfter,
		hub:           newConnHub(logger),
	}
	gs.GameStore.OnCreate = gs.wire
	return gs
}

// wire installs the broadcast, persistence and result hooks on g.
func (gs *GameServer) wire(g *game.Game) {
	id := g.ID
	g.SetBroadcasters(
		func(ev game.GameEvent) { gs.hub.broadcast(id, ev) },
		func(seatID string, ev game.GameEvent) { gs.hub.send(id, seatID, ev) },
	)

	if gs.Sessions != nil {
		g.Persist = func(ctx context.Context, prevVersion int64, next game.SessionState) error {
			data, err := game.EncodeState(next)
			if err != nil {
				return err
			}
			err = gs.Sessions.Save(ctx, next.GameID, prevVersion, next.Version, data)
			if errors.Is(err, cache.ErrVersionConflict) {
				// another writer owns the session now; the next Lookup reloads it
				gs.Logger.WithFields(logrus.Fields{"game_id": id, "version": prevVersion}).Warn("dropping stale game")
				gs.GameStore.EvictGame(g)
			}
			return err
		}
	}

	if gs.RecordResults {
		g.OnGameStart = func(gameID uuid.UUID, initial game.SessionState) {
			data, err := game.EncodeState(initial)
			if err != nil {
				gs.Logger.WithError(err).Warn("could not encode initial state")
				return
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := database.StartGame(ctx, gameID, initial.RoomID, initial.Seed, data); err != nil {
					gs.Logger.WithError(err).WithField("game_id", gameID).Error("could not record game start")
				}
			}()
		}
	}

	g.OnGameEnd = func(gameID uuid.UUID, roomID string, final game.SessionState) {
		if gs.RecordResults {
			go gs.recordResult(final)
		}
		gs.evictLater(g)
	}
}

// evictLater drops a finished game after EvictAfter.
func (gs *GameServer) evictLater(g *game.Game) {
	time.AfterFunc(gs.EvictAfter, func() {
		if gs.GameStore.EvictGame(g) {
			gs.hub.closeGame(g.ID)
		}
	})
}

func (gs *GameServer) recordResult(final game.SessionState) {
	results := make([]database.SeatResult, 0, len(final.Seats))
	for _, seat := range final.Seats {
		results = append(results, database.SeatResult{
			SeatID:   seat.ID,
			Name:     seat.Name,
			IsBot:    seat.IsBot,
			HandSize: len(seat.Hand),
			DidWin:   seat.ID == final.WinnerID,
		})
	}
	data, err := game.EncodeState(final)
	if err != nil {
		gs.Logger.WithError(err).Warn("could not encode final state")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.RecordGameResult(ctx, final.GameID, final.WinnerID, results, data); err != nil {
		gs.Logger.WithError(err).WithField("game_id", final.GameID).Error("could not record game result")
	}
}

// Lookup returns the live game id, restoring it from Redis when it is not in memory.
func (gs *GameServer) Lookup(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	if g, ok := gs.GameStore.GetGame(id); ok {
		return g, nil
	}
	if gs.Sessions == nil {
		return nil, ErrGameNotFound
	}

	gs.restoreMu.Lock()
	defer gs.restoreMu.Unlock()
	if g, ok := gs.GameStore.GetGame(id); ok {
		return g, nil
	}

	data, _, err := gs.Sessions.Load(ctx, id)
	if errors.Is(err, cache.ErrSessionNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	s, err := game.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	g := game.RestoreGame(s, gs.GameStore.Defaults)
	gs.wire(g)
	gs.GameStore.AddGame(g)
	if s.Over {
		// OnGameEnd already fired in the process that finished it
		gs.evictLater(g)
	}
	gs.Logger.WithFields(logrus.Fields{"game_id": id, "version": s.Version}).Info("restored game from redis")
	return g, nil
}

// Close stops every live game and drops all connections.
func (gs *GameServer) Close() {
	gs.GameStore.CloseAll()
	gs.hub.closeAll()
}
