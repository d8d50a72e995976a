package session

import (
	"log/slog"
	"sync"

	"github.com/mcoot/tichu/internal/model"
)

// Registry maps user IDs to their connection records
type Registry struct {
	mu     sync.RWMutex
	conns  map[model.UserID]*Connection
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[model.UserID]*Connection),
		logger: logger.With(slog.String("component", "sessions")),
	}
}

// Register inserts conn for its user. A previous record for the same user
// is replaced: its game association carries over and, if its stream is
// still open, that stream is told to close. The previous record is returned.
func (r *Registry) Register(conn *Connection) *Connection {
	r.mu.Lock()
	prev := r.conns[conn.UserID()]
	r.conns[conn.UserID()] = conn
	total := len(r.conns)
	r.mu.Unlock()

	if prev != nil {
		conn.SetGameID(prev.GameID())
		if prev.IsConnected() {
			prev.SendClose()
		}
	}

	r.logger.Info("connection registered",
		slog.String("user_id", string(conn.UserID())),
		slog.Bool("replaced", prev != nil),
		slog.Int("total_connections", total))
	return prev
}

// Get returns the record for a user
func (r *Registry) Get(userID model.UserID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Snapshot returns every record at the time of the call
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Counts returns the number of records and how many of them are connected
func (r *Registry) Counts() (total, connected int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		if conn.IsConnected() {
			connected++
		}
	}
	return len(r.conns), connected
}

// Disconnect closes conn. A record belonging to a game is kept, flagged
// disconnected, so the user can reconnect to it; otherwise it is removed.
// Nothing happens to the registry if conn has already been replaced.
func (r *Registry) Disconnect(conn *Connection) {
	conn.Close()

	r.mu.Lock()
	current, ok := r.conns[conn.UserID()]
	if !ok || current != conn {
		r.mu.Unlock()
		return
	}
	kept := conn.GameID() != ""
	if !kept {
		delete(r.conns, conn.UserID())
	}
	r.mu.Unlock()

	r.logger.Info("connection closed",
		slog.String("user_id", string(conn.UserID())),
		slog.Bool("kept_for_reconnect", kept))
}

// ClearGame drops the game association of a user, removing the record if
// its stream has already closed.
func (r *Registry) ClearGame(userID model.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[userID]
	if !ok {
		return
	}
	conn.SetGameID("")
	if !conn.IsConnected() {
		delete(r.conns, userID)
	}
}

// Send queues data for a user. A failed send is fatal for that connection
// only: it is closed and disconnected.
func (r *Registry) Send(userID model.UserID, data []byte) error {
	conn, ok := r.Get(userID)
	if !ok {
		return model.ErrConnectionNotFound
	}
	if !conn.IsConnected() {
		return model.ErrConnectionClosed
	}
	if err := conn.Send(data); err != nil {
		r.logger.Warn("outbound send failed, dropping connection",
			slog.String("user_id", string(userID)),
			slog.Any("error", err))
		r.Disconnect(conn)
		return err
	}
	return nil
}

// CloseAll tells every open stream to close
func (r *Registry) CloseAll() {
	conns := r.Snapshot()
	for _, conn := range conns {
		if conn.IsConnected() {
			conn.SendClose()
		}
	}
	r.logger.Info("closing all connections", slog.Int("count", len(conns)))
}
