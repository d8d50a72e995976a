package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tichu/internal/api"
	"github.com/mcoot/tichu/internal/dependencies/clock"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/dispatch"
	"github.com/mcoot/tichu/internal/services/bot"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/services/scoring"
	"github.com/mcoot/tichu/internal/session"
	"github.com/mcoot/tichu/internal/storage"
	"github.com/mcoot/tichu/internal/storage/memory"
	redisstorage "github.com/mcoot/tichu/internal/storage/redis"
	"github.com/mcoot/tichu/internal/transport/ws"
	"github.com/mcoot/tichu/internal/web"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	GameController *game.Controller
	Bots           *bot.Service
	Sessions       *session.Registry
	Heartbeat      *session.Supervisor
	Dispatcher     *dispatch.Dispatcher
	Socket         *ws.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HeartbeatInterval is the time between pings (optional)
	// If zero, session.DefaultHeartbeatInterval is used
	HeartbeatInterval time.Duration
	// WebSocket holds websocket settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WebSocket ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	wsCfg := cfg.WebSocket
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.HeartbeatInterval, wsCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	heartbeatInterval time.Duration,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	sessions := session.NewRegistry(logger)
	gameController := game.NewController(game.NewRegistry(), store, scoring.New(), clk, rnd, logger)
	bots := bot.NewService(gameController, bot.DefaultStrategies(rnd), rnd, logger)
	dispatcher := dispatch.New(gameController, sessions, bots, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		GameController: gameController,
		Bots:           bots,
		Sessions:       sessions,
		Heartbeat:      session.NewSupervisor(sessions, clk, heartbeatInterval, logger),
		Dispatcher:     dispatcher,
		Socket:         ws.NewHandler(wsCfg, sessions, dispatcher, clk, rnd, logger),
		logger:         logger,
	}
}

// HTTPHandler combines the API and the web routers
func (a *App) HTTPHandler() http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         a.logger,
		GameController: a.GameController,
		Sessions:       a.Sessions,
		Storage:        a.Storage,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         a.logger,
		GameController: a.GameController,
		Sessions:       a.Sessions,
		Storage:        a.Storage,
		Socket:         a.Socket,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}
