// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// CreateGameRequest is the body of POST /api/games.
type CreateGameRequest struct {
	RoomID     string                 `json:"roomId"`
	Seats      []models.SeatSpec      `json:"seats"`
	MaxPlayers int                    `json:"maxPlayers"`
	HouseRules map[string]interface{} `json:"houseRules"`
	Seed       *int64                 `json:"seed"`
	AddBots    int                    `json:"addBots"`
}

// MoveRequest is the body of the play, draw and declare endpoints.
type MoveRequest struct {
	SeatID    string       `json:"seatId"`
	HandIndex *int         `json:"handIndex"`
	Color     models.Color `json:"color"`
}

// MoveResponse reports the outcome of a move and the mover's view of the table after it.
type MoveResponse struct {
	game.Result
	State game.PublicSessionView `json:"state"`
}

// addBots appends n bot seats named "Bot N", stopping at maxPlayers.
func addBots(seats []models.SeatSpec, n, maxPlayers int) []models.SeatSpec {
	bots := 0
	for _, s := range seats {
		if s.IsBot {
			bots++
		}
	}
	for i := 0; i < n && len(seats) < maxPlayers; i++ {
		bots++
		seats = append(seats, models.SeatSpec{
			ID:    "bot-" + uuid.NewString()[:8],
			Name:  fmt.Sprintf("Bot %d", bots),
			IsBot: true,
		})
	}
	return seats
}

// CreateGameHandler deals a new game: POST /api/games.
func CreateGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		opts := gs.GameStore.Defaults
		if opts.Rules == (game.HouseRules{}) {
			opts.Rules = game.DefaultHouseRules()
		}
		rules, err := game.ParseRules(req.HouseRules, opts.Rules)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.MaxPlayers > 0 {
			rules.MaxPlayers = req.MaxPlayers
		}
		opts.Rules = rules
		opts.Seed = time.Now().UnixNano()
		if req.Seed != nil {
			opts.Seed = *req.Seed
		}

		seats := addBots(req.Seats, req.AddBots, rules.MaxPlayers)
		g, err := gs.GameStore.Launch(r.Context(), game.NewGame(req.RoomID, seats, opts))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		gs.Logger.WithFields(logrus.Fields{"game_id": g.ID, "room_id": req.RoomID, "seats": len(seats)}).Info("game created")
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"gameId": g.ID,
			"state":  g.Snapshot(""),
		})
	}
}

// GameStateHandler returns a seat's view: GET /api/games/{gameID}/state?seatId=.
func GameStateHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := gs.gameFromRequest(w, r)
		if !ok {
			return
		}
		seatID := r.URL.Query().Get("seatId")
		if seatID != "" && !g.HasSeat(seatID) {
			writeError(w, http.StatusNotFound, game.ErrUnknownSeat.Error())
			return
		}
		writeJSON(w, http.StatusOK, g.Snapshot(seatID))
	}
}

// MoveHandler submits one intent type for the seat named in the body.
func MoveHandler(gs *GameServer, intent game.IntentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ok := gs.gameFromRequest(w, r)
		if !ok {
			return
		}
		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var in game.Intent
		switch intent {
		case game.IntentPlay:
			if req.HandIndex == nil {
				writeError(w, http.StatusBadRequest, "handIndex is required")
				return
			}
			in = game.PlayIntent(req.SeatID, *req.HandIndex, req.Color)
		case game.IntentDraw:
			in = game.DrawIntent(req.SeatID)
		default:
			in = game.DeclareIntent(req.SeatID)
		}

		res, err := g.Submit(r.Context(), in)
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		writeJSON(w, status, MoveResponse{Result: res, State: g.Snapshot(req.SeatID)})
	}
}

func (gs *GameServer) gameFromRequest(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return nil, false
	}
	g, err := gs.Lookup(r.Context(), gameID)
	if err != nil {
		writeLookupError(w, err)
		return nil, false
	}
	return g, true
}
