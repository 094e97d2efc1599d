package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrGameNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "could not load game")
}

// statusFor maps a failed submit to an HTTP status.
func statusFor(err error) int {
	var rej *game.Rejection
	switch {
	case errors.Is(err, cache.ErrVersionConflict):
		return http.StatusConflict
	case !errors.As(err, &rej):
		return http.StatusInternalServerError
	case errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, game.ErrUnknownSeat):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameOver):
		return http.StatusGone
	}
	return http.StatusBadRequest
}
