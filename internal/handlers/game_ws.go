// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

const wsWriteTimeout = 3 * time.Second

// GameMessage is an incoming websocket message. Payload carries "handIndex" and
// "color" for action_play.
type GameMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// connHub tracks one websocket per seat per game.
type connHub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]map[string]*websocket.Conn
	log   *logrus.Logger
}

func newConnHub(logger *logrus.Logger) *connHub {
	return &connHub{conns: make(map[uuid.UUID]map[string]*websocket.Conn), log: logger}
}

// register stores c for the seat and closes any connection it replaces.
func (h *connHub) register(gameID uuid.UUID, seatID string, c *websocket.Conn) {
	h.mu.Lock()
	seats, ok := h.conns[gameID]
	if !ok {
		seats = make(map[string]*websocket.Conn)
		h.conns[gameID] = seats
	}
	old := seats[seatID]
	seats[seatID] = c
	h.mu.Unlock()

	if old != nil {
		old.Close(websocket.StatusPolicyViolation, "Replaced by a newer connection.")
	}
}

// unregister drops c unless it has already been replaced.
func (h *connHub) unregister(gameID uuid.UUID, seatID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seats, ok := h.conns[gameID]; ok && seats[seatID] == c {
		delete(seats, seatID)
		if len(seats) == 0 {
			delete(h.conns, gameID)
		}
	}
}

func (h *connHub) conn(gameID uuid.UUID, seatID string) *websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns[gameID][seatID]
}

// broadcast writes ev to every seat connected to the game. Writes happen on the
// game's delivery goroutine, so events reach each seat in order.
func (h *connHub) broadcast(gameID uuid.UUID, ev game.GameEvent) {
	h.mu.Lock()
	targets := make(map[string]*websocket.Conn, len(h.conns[gameID]))
	for seatID, c := range h.conns[gameID] {
		targets[seatID] = c
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}
	data := game.EncodeEvent(ev)
	for seatID, c := range targets {
		h.write(gameID, seatID, c, data)
	}
}

func (h *connHub) send(gameID uuid.UUID, seatID string, ev game.GameEvent) {
	c := h.conn(gameID, seatID)
	if c == nil {
		return
	}
	h.write(gameID, seatID, c, game.EncodeEvent(ev))
}

func (h *connHub) write(gameID uuid.UUID, seatID string, c *websocket.Conn, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		h.log.WithFields(logrus.Fields{"game_id": gameID, "seat": seatID}).WithError(err).Debug("websocket write failed")
	}
}

func (h *connHub) closeGame(gameID uuid.UUID) {
	h.mu.Lock()
	seats := h.conns[gameID]
	delete(h.conns, gameID)
	h.mu.Unlock()
	for _, c := range seats {
		c.Close(websocket.StatusNormalClosure, "Game closed.")
	}
}

func (h *connHub) closeAll() {
	h.mu.Lock()
	all := h.conns
	h.conns = make(map[uuid.UUID]map[string]*websocket.Conn)
	h.mu.Unlock()
	for _, seats := range all {
		for _, c := range seats {
			c.Close(websocket.StatusGoingAway, "Server shutting down.")
		}
	}
}

// GameWSHandler upgrades GET /api/games/{gameID}/ws?seatId= to a websocket for
// one human seat, sends it its view of the table and then reads intents.
func GameWSHandler(gs *GameServer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := gs.Logger
		gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}
		g, err := gs.Lookup(r.Context(), gameID)
		if err != nil {
			writeLookupError(w, err)
			return
		}

		seatID := r.URL.Query().Get("seatId")
		view := g.Snapshot(seatID)
		if view.Over {
			writeError(w, http.StatusGone, "game has already ended")
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.WithError(err).Warnf("websocket accept error for game %s", gameID)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		if !isHumanSeat(view, seatID) {
			c.Close(InvalidSeatError, "Seat is not a human player in this game.")
			return
		}

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		gs.hub.register(gameID, seatID, c)
		g.SyncSeat(seatID)

		err = readGameMessages(r.Context(), c, g, seatID, logger)
		gs.hub.unregister(gameID, seatID, c)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

func isHumanSeat(view game.PublicSessionView, seatID string) bool {
	if seatID == "" {
		return false
	}
	for _, seat := range view.Seats {
		if seat.ID == seatID {
			return !seat.IsBot
		}
	}
	return false
}

// readGameMessages routes intents from the seat's socket until it closes. A nil
// error means a normal closure.
func readGameMessages(ctx context.Context, c *websocket.Conn, g *game.Game, seatID string, logger *logrus.Logger) error {
	log := logger.WithFields(logrus.Fields{"game_id": g.ID, "seat": seatID})
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(c, "Invalid JSON format.")
			continue
		}

		if msg.Type == "ping" {
			sendWsMessage(c, map[string]string{"type": "pong"})
			continue
		}

		log.Debugf("received %s", msg.Type)
		// Rejections reach the seat as private_action_rejected events.
		_, err = g.HandleAction(ctx, seatID, models.GameAction{ActionType: msg.Type, Payload: msg.Payload})
		var rej *game.Rejection
		if err != nil && !errors.As(err, &rej) {
			log.WithError(err).Error("could not apply action")
			sendWsError(c, "Action could not be saved, please retry.")
		}
	}
}

func sendWsMessage(c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	_ = c.Write(ctx, websocket.MessageText, data)
}

// sendWsError sends a structured error message to the client.
func sendWsError(c *websocket.Conn, errorMsg string) {
	sendWsMessage(c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
