// Package dispatch turns inbound client messages into game mutations and
// fans the resulting state out to every participant.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/protocol"
	"github.com/mcoot/tichu/internal/services/bot"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/session"
)

// Dispatcher is shared by every connection
type Dispatcher struct {
	games    *game.Controller
	sessions *session.Registry
	bots     *bot.Service
	logger   *slog.Logger
}

// New creates a new Dispatcher
func New(games *game.Controller, sessions *session.Registry, bots *bot.Service, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		games:    games,
		sessions: sessions,
		bots:     bots,
		logger:   logger.With(slog.String("component", "dispatch")),
	}
}

// Handler serves a single connection. It is driven by that connection's
// receive loop only, so its messages are handled in the order received.
type Handler struct {
	d      *Dispatcher
	conn   *session.Connection
	logger *slog.Logger
}

var _ protocol.ClientHandler = (*Handler)(nil)

// Handler returns the handler for conn
func (d *Dispatcher) Handler(conn *session.Connection) *Handler {
	return &Handler{
		d:      d,
		conn:   conn,
		logger: d.logger.With(slog.String("user_id", string(conn.UserID()))),
	}
}

// HandleFrame decodes and handles one inbound frame. The only error
// returned is a malformed frame, which is fatal to the connection.
func (h *Handler) HandleFrame(ctx context.Context, data []byte) error {
	msg, err := protocol.DecodeClient(data)
	switch {
	case errors.Is(err, protocol.ErrUnknownKind):
		h.logger.Warn("unknown message kind", slog.Any("error", err))
		h.reply(&protocol.UnexpectedMessageReceived{Message: err.Error()})
		return nil
	case err != nil:
		return err
	}

	h.logger.Debug("message received", slog.String("kind", msg.Kind()))
	msg.Dispatch(ctx, h)
	return nil
}

// Attach runs once the connection is registered. A user returning to a
// game gets a snapshot, and the other players see them reconnected.
func (h *Handler) Attach(ctx context.Context) {
	id := h.conn.GameID()
	if id == "" {
		return
	}
	g, err := h.d.games.GetGame(ctx, id)
	if err != nil {
		h.logger.Info("previous game is gone", slog.String("game_id", string(id)))
		h.conn.SetGameID("")
		return
	}
	h.d.broadcast(g)
}

// Detach runs when the stream ends. The other players of the user's game
// see them disconnected unless a newer connection has already taken over.
func (h *Handler) Detach(ctx context.Context) {
	h.d.sessions.Disconnect(h.conn)

	id := h.conn.GameID()
	if id == "" {
		return
	}
	if current, ok := h.d.sessions.Get(h.conn.UserID()); ok && current != h.conn {
		return
	}
	g, err := h.d.games.GetGame(ctx, id)
	if err != nil {
		return
	}
	h.d.broadcast(g)
}

func (h *Handler) HandlePing(ctx context.Context, msg *protocol.ClientPing) {
	h.reply(&protocol.ServerPong{})
}

func (h *Handler) HandlePong(ctx context.Context, msg *protocol.ClientPong) {
	h.conn.MarkAlive()
}

func (h *Handler) HandleTest(ctx context.Context, msg *protocol.ClientTest) {
	h.reply(&protocol.ServerTest{Text: msg.Text})
}

func (h *Handler) HandleCreateGame(ctx context.Context, msg *protocol.CreateGame) {
	if !h.ownsUserID(msg.UserID) {
		h.unexpected(msg)
		return
	}
	if h.conn.GameID() != "" {
		h.reject(msg, model.ErrAlreadyInGame)
		return
	}

	g, err := h.d.games.CreateGame(ctx, h.conn.UserID(), msg.DisplayName)
	if err != nil {
		h.reject(msg, err)
		return
	}
	h.conn.SetGameID(g.ID)
	h.reply(&protocol.GameCreated{GameCode: string(g.Code)})
	h.d.broadcast(g)
}

func (h *Handler) HandleJoinGameWithGameCode(ctx context.Context, msg *protocol.JoinGameWithGameCode) {
	if !h.ownsUserID(msg.UserID) {
		h.unexpected(msg)
		return
	}
	if h.conn.GameID() != "" {
		h.reject(msg, model.ErrAlreadyInGame)
		return
	}

	code := model.GameCode(strings.ToUpper(strings.TrimSpace(msg.GameCode)))
	g, err := h.d.games.JoinGame(ctx, code, h.conn.UserID(), msg.DisplayName)
	if err != nil {
		h.reject(msg, err)
		return
	}
	h.conn.SetGameID(g.ID)
	h.d.broadcast(g)
	h.d.runBots(ctx, g)
}

func (h *Handler) HandleCallGrandTichu(ctx context.Context, msg *protocol.CallGrandTichu) {
	h.inGame(ctx, msg, func(id model.GameID, user model.UserID) (*model.Game, error) {
		return h.d.games.CallGrandTichu(ctx, id, user, msg.Call)
	})
}

func (h *Handler) HandleSubmitTrade(ctx context.Context, msg *protocol.SubmitTrade) {
	trade := model.Trade{Left: msg.Left, Partner: msg.Partner, Right: msg.Right}
	h.inGame(ctx, msg, func(id model.GameID, user model.UserID) (*model.Game, error) {
		return h.d.games.SubmitTrade(ctx, id, user, trade)
	})
}

func (h *Handler) HandlePlayCards(ctx context.Context, msg *protocol.PlayCards) {
	h.inGame(ctx, msg, func(id model.GameID, user model.UserID) (*model.Game, error) {
		return h.d.games.PlayCards(ctx, id, user, msg.Cards)
	})
}

func (h *Handler) HandlePass(ctx context.Context, msg *protocol.Pass) {
	h.inGame(ctx, msg, func(id model.GameID, user model.UserID) (*model.Game, error) {
		return h.d.games.Pass(ctx, id, user)
	})
}

func (h *Handler) HandleAddBot(ctx context.Context, msg *protocol.AddBot) {
	h.inGame(ctx, msg, func(id model.GameID, user model.UserID) (*model.Game, error) {
		return h.d.bots.AddBot(ctx, id, msg.Strategy)
	})
}

func (h *Handler) HandleLeaveGame(ctx context.Context, msg *protocol.LeaveGame) {
	id := h.conn.GameID()
	if id == "" {
		h.unexpected(msg)
		return
	}

	g, err := h.d.games.LeaveGame(ctx, id, h.conn.UserID())
	if err != nil && !isStale(err) {
		h.reject(msg, err)
		return
	}

	// A stale leave still detaches the connection from the game
	h.conn.SetGameID("")
	h.d.sessions.ClearGame(h.conn.UserID())
	h.reply(&protocol.LeftGame{GameID: string(id)})
	if g == nil {
		return
	}

	// Bots left on their own are removed with the game
	g, err = h.d.bots.Disband(ctx, g)
	if err != nil {
		h.logger.Error("failed to disband bots", slog.String("game_id", string(id)), slog.Any("error", err))
		return
	}
	if g != nil {
		h.d.broadcast(g)
	}
}

// inGame runs a game action for the sender's current game and broadcasts the result
func (h *Handler) inGame(ctx context.Context, msg protocol.Message, action func(id model.GameID, user model.UserID) (*model.Game, error)) {
	id := h.conn.GameID()
	if id == "" {
		h.unexpected(msg)
		return
	}

	g, err := action(id, h.conn.UserID())
	if err != nil {
		if isStale(err) {
			if !errors.Is(err, model.ErrWrongStage) {
				h.conn.SetGameID("")
			}
			h.unexpected(msg)
			return
		}
		h.reject(msg, err)
		return
	}
	h.d.broadcast(g)
	h.d.runBots(ctx, g)
}

// ownsUserID reports whether a user id carried in a message is absent or
// matches the connection's
func (h *Handler) ownsUserID(id string) bool {
	return id == "" || model.UserID(id) == h.conn.UserID()
}

func (h *Handler) reject(msg protocol.Message, err error) {
	rejection := toRejection(err)
	if rejection.Code == CodeInternalError {
		h.logger.Error("request failed",
			slog.String("kind", msg.Kind()),
			slog.Any("error", err))
	} else {
		h.logger.Info("request rejected",
			slog.String("kind", msg.Kind()),
			slog.String("code", rejection.Code))
	}
	h.reply(rejection)
}

func (h *Handler) unexpected(msg protocol.Message) {
	described := protocol.Describe(msg)
	h.logger.Warn("unexpected message", slog.String("message", described))
	h.reply(&protocol.UnexpectedMessageReceived{Message: described})
}

// reply queues a message for this connection only. A full or closed queue
// drops the connection.
func (h *Handler) reply(msg protocol.ServerMessage) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("failed to encode reply", slog.Any("error", err))
		return
	}
	if err := h.conn.Send(data); err != nil {
		h.logger.Warn("reply dropped, closing connection", slog.Any("error", err))
		h.d.sessions.Disconnect(h.conn)
	}
}

// runBots makes the bot moves that follow a change to g, broadcasting the
// game after each one
func (d *Dispatcher) runBots(ctx context.Context, g *model.Game) {
	if !g.HasBots() {
		return
	}

	actions, err := d.bots.ProcessBotActions(ctx, g.ID)
	for _, action := range actions {
		d.broadcast(action.Game)
	}
	if err != nil {
		d.logger.Error("bot actions stopped",
			slog.String("game_id", string(g.ID)),
			slog.Int("actions", len(actions)),
			slog.Any("error", err))
	}
}

// broadcast sends every human participant their own view of g. g is a
// copy, so no game lock is held while sending.
func (d *Dispatcher) broadcast(g *model.Game) {
	humans := lo.Reject(g.UserIDs(), func(id model.UserID, _ int) bool { return g.Player(id).IsBot() })
	connected := lo.SliceToMap(g.Players, func(p *model.Player) (string, bool) {
		if p.IsBot() {
			return string(p.UserID), true
		}
		conn, ok := d.sessions.Get(p.UserID)
		return string(p.UserID), ok && conn.IsConnected()
	})

	for _, id := range humans {
		view := protocol.GameViewFor(g, id)
		for i := range view.Players {
			view.Players[i].Connected = connected[view.Players[i].UserID]
		}

		data, err := protocol.Encode(&protocol.GameState{Game: view})
		if err != nil {
			d.logger.Error("failed to encode game state", slog.Any("error", err))
			return
		}
		if err := d.sessions.Send(id, data); err != nil {
			d.logger.Debug("game state not delivered",
				slog.String("game_id", string(g.ID)),
				slog.String("user_id", string(id)),
				slog.Any("error", err))
		}
	}
}
