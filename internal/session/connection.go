package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/tichu/internal/model"
)

// CloseInstruction is the reserved text frame telling a forwarding loop to
// close its stream. Clients never produce it.
const CloseInstruction = "CLOSE_WEBSOCKET"

// FrameKind distinguishes protocol frames from internal instructions
type FrameKind uint8

const (
	FrameBinary FrameKind = iota
	FrameText
)

// Frame is one item on a connection's outbound queue
type Frame struct {
	Kind FrameKind
	Data []byte
}

// IsCloseInstruction reports whether the frame asks the forwarder to close the stream
func (f Frame) IsCloseInstruction() bool {
	return f.Kind == FrameText && string(f.Data) == CloseInstruction
}

// Connection is the registry record for one participant's stream
type Connection struct {
	userID      model.UserID
	connectedAt time.Time

	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once

	alive     atomic.Bool
	connected atomic.Bool

	mu     sync.RWMutex
	gameID model.GameID
}

// NewConnection creates an open, live connection record
func NewConnection(userID model.UserID, queueSize int, now time.Time) *Connection {
	c := &Connection{
		userID:      userID,
		connectedAt: now,
		send:        make(chan Frame, queueSize),
		done:        make(chan struct{}),
	}
	c.alive.Store(true)
	c.connected.Store(true)
	return c
}

// UserID returns the participant this connection belongs to
func (c *Connection) UserID() model.UserID {
	return c.userID
}

// ConnectedAt returns when the stream was opened
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// GameID returns the game the user belongs to, or ""
func (c *Connection) GameID() model.GameID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

// SetGameID associates the connection with a game ("" to clear)
func (c *Connection) SetGameID(id model.GameID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = id
}

// IsAlive reports whether the last ping was answered
func (c *Connection) IsAlive() bool {
	return c.alive.Load()
}

// MarkAlive records a pong
func (c *Connection) MarkAlive() {
	c.alive.Store(true)
}

// IsConnected reports whether the stream is still open
func (c *Connection) IsConnected() bool {
	return c.connected.Load()
}

// Outbound returns the queue drained by the forwarding loop
func (c *Connection) Outbound() <-chan Frame {
	return c.send
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Send queues a protocol frame without blocking
func (c *Connection) Send(data []byte) error {
	return c.enqueue(Frame{Kind: FrameBinary, Data: data})
}

// SendClose queues the close instruction. If the queue is full the
// connection is closed directly.
func (c *Connection) SendClose() {
	if err := c.enqueue(Frame{Kind: FrameText, Data: []byte(CloseInstruction)}); err != nil {
		c.Close()
	}
}

func (c *Connection) enqueue(f Frame) error {
	select {
	case <-c.done:
		return model.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- f:
		return nil
	default:
		return model.ErrOutboundFull
	}
}

// Close marks the connection disconnected and stops its forwarding loop.
// Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		close(c.done)
	})
}
