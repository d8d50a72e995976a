// Package ws serves game connections over websockets. Each connection gets
// a receive loop feeding the dispatcher and a forwarding loop draining its
// outbound queue.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tichu/internal/dependencies/clock"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/dispatch"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/protocol"
	"github.com/mcoot/tichu/internal/session"
)

// UnassignedUserID is what a client sends before it has been given an id
const UnassignedUserID = "no_id"

// Config holds websocket settings
type Config struct {
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	WriteBufferSize   int           `yaml:"write_buffer_size"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	OutboundQueueSize int           `yaml:"outbound_queue_size"`
}

// DefaultConfig returns default websocket settings
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    64 * 1024,
		WriteTimeout:      10 * time.Second,
		OutboundQueueSize: 256,
	}
}

// Handler upgrades requests on the game endpoint
type Handler struct {
	config     Config
	upgrader   websocket.Upgrader
	sessions   *session.Registry
	dispatcher *dispatch.Dispatcher
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
}

// NewHandler creates a new websocket Handler
func NewHandler(
	config Config,
	sessions *session.Registry,
	dispatcher *dispatch.Dispatcher,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions:   sessions,
		dispatcher: dispatcher,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// ServeHTTP runs one connection until its stream closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	assigned := userID == "" || userID == UnassignedUserID
	if assigned {
		userID = h.random.ID()
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	ws.SetReadLimit(h.config.MaxMessageSize)

	conn := session.NewConnection(model.UserID(userID), h.config.OutboundQueueSize, h.clock.Now())
	if assigned {
		// Queued before registration so it is the first frame the client sees
		if err := conn.Send(protocol.MustEncode(&protocol.UserIDAssigned{UserID: userID})); err != nil {
			h.logger.Error("failed to queue assigned user id",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}
	h.sessions.Register(conn)

	// Game mutations started by this connection must outlive its request
	ctx := context.WithoutCancel(r.Context())
	handler := h.dispatcher.Handler(conn)
	handler.Attach(ctx)

	go h.writePump(ws, conn)
	h.readPump(ctx, ws, handler)
	handler.Detach(ctx)
}

// readPump feeds inbound frames to the dispatcher in order
func (h *Handler) readPump(ctx context.Context, ws *websocket.Conn, handler *dispatch.Handler) {
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("unexpected close", slog.Any("error", err))
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			h.logger.Warn("ignoring non-binary frame", slog.Int("type", msgType))
			continue
		}
		if err := handler.HandleFrame(ctx, data); err != nil {
			h.logger.Warn("dropping connection", slog.Any("error", err))
			return
		}
	}
}

// writePump drains the outbound queue to the stream. It owns all writes.
func (h *Handler) writePump(ws *websocket.Conn, conn *session.Connection) {
	defer ws.Close()

	for {
		select {
		case <-conn.Done():
			h.writeClose(ws, "connection closed")
			return

		case f := <-conn.Outbound():
			if f.IsCloseInstruction() {
				h.writeClose(ws, "closed by server")
				conn.Close()
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout)); err != nil {
				conn.Close()
				return
			}
			if err := ws.WriteMessage(websocket.BinaryMessage, f.Data); err != nil {
				h.logger.Warn("write failed",
					slog.String("user_id", string(conn.UserID())),
					slog.Any("error", err))
				conn.Close()
				return
			}
		}
	}
}

func (h *Handler) writeClose(ws *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(h.config.WriteTimeout))
}
