package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/session"
	"github.com/mcoot/tichu/internal/storage"
	"github.com/mcoot/tichu/internal/web/pages"
)

// recentGamesShown is how many completed games the index page lists
const recentGamesShown = 5

// HomeHandler handles the index page
type HomeHandler struct {
	games      *game.Controller
	sessions   *session.Registry
	storage    storage.Storage
	socketPath string
	logger     *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(games *game.Controller, sessions *session.Registry, storage storage.Storage, socketPath string, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		games:      games,
		sessions:   sessions,
		storage:    storage,
		socketPath: socketPath,
		logger:     logger,
	}
}

// Home renders the index page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	recent, err := h.storage.ListRecentSummaries(r.Context(), recentGamesShown)
	if err != nil {
		// The page is still useful without history
		h.logger.Warn("failed to list recent games", slog.Any("error", err))
	}
	_, connected := h.sessions.Counts()

	data := pages.IndexData{
		SocketPath:  h.socketPath,
		Connections: connected,
		Games:       h.games.GameCount(),
		Recent:      recent,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Index(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
