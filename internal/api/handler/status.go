package handler

import (
	"net/http"

	"github.com/mcoot/tichu/internal/api/response"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/session"
)

// StatusHandler reports server health and live counts
type StatusHandler struct {
	games    *game.Controller
	sessions *session.Registry
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(games *game.Controller, sessions *session.Registry) *StatusHandler {
	return &StatusHandler{
		games:    games,
		sessions: sessions,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, response.Health{Status: "ok"})
}

// Stats handles GET /api/v1/stats
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, connected := h.sessions.Counts()
	response.OK(w, response.Stats{
		Connections: total,
		Connected:   connected,
		Games:       h.games.GameCount(),
	})
}
