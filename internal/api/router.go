package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tichu/internal/api/apierr"
	"github.com/mcoot/tichu/internal/api/handler"
	"github.com/mcoot/tichu/internal/middleware"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/session"
	"github.com/mcoot/tichu/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	Sessions       *session.Registry
	Storage        storage.Storage
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.GameController, cfg.Sessions)
	gamesHandler := handler.NewGamesHandler(cfg.Storage)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, jsonPanicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", statusHandler.Stats).Methods(http.MethodGet)

	// Completed games
	api.HandleFunc("/games/recent", gamesHandler.Recent).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gamesHandler.Get).Methods(http.MethodGet)

	return r
}

func jsonPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
