package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tichu/internal/middleware"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/session"
	"github.com/mcoot/tichu/internal/storage"
	"github.com/mcoot/tichu/internal/web/handler"
)

// SocketPath is where game connections are upgraded
const SocketPath = "/ws"

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	Sessions       *session.Registry
	Storage        storage.Storage
	Socket         http.Handler
}

// NewRouter creates a new web router serving the index page and the game socket
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger, htmlPanicHandler))
	r.Use(middleware.Logging(cfg.Logger))

	homeHandler := handler.NewHomeHandler(cfg.GameController, cfg.Sessions, cfg.Storage, SocketPath, cfg.Logger)

	r.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	r.Handle(SocketPath, cfg.Socket).Methods(http.MethodGet)

	return r
}

func htmlPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body>
<h1>Internal Server Error</h1>
<p><a href="/">Return to home</a></p>
</body>
</html>`))
}
