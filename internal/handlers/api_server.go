// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
)

// NewRouter mounts the game API on a chi router. allowedOrigins feeds both CORS
// and the websocket origin check.
func NewRouter(gs *GameServer, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(gs.Logger))
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "games": gs.GameStore.Len()})
		})

		r.Post("/games", CreateGameHandler(gs))
		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/state", GameStateHandler(gs))
			r.Post("/play", MoveHandler(gs, game.IntentPlay))
			r.Post("/draw", MoveHandler(gs, game.IntentDraw))
			r.Post("/declare", MoveHandler(gs, game.IntentDeclareLowHand))
			r.Get("/ws", GameWSHandler(gs, wsOrigins(allowedOrigins)))
		})
	})
	return r
}

// wsOrigins converts CORS origins ("https://host") into websocket host patterns.
func wsOrigins(allowed []string) []string {
	var out []string
	for _, o := range allowed {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(o, "https://")
		out = append(out, strings.TrimPrefix(o, "http://"))
	}
	return out
}
