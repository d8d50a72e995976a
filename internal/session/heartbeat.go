package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/tichu/internal/dependencies/clock"
	"github.com/mcoot/tichu/internal/protocol"
)

// DefaultHeartbeatInterval is the time between pings
const DefaultHeartbeatInterval = 5 * time.Second

// Supervisor pings every open connection on a fixed period and closes
// connections that did not answer the previous ping.
type Supervisor struct {
	registry *Registry
	clock    clock.Clock
	interval time.Duration
	ping     []byte
	logger   *slog.Logger
}

// NewSupervisor creates a heartbeat supervisor over registry
func NewSupervisor(registry *Registry, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Supervisor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Supervisor{
		registry: registry,
		clock:    clk,
		interval: interval,
		ping:     protocol.MustEncode(&protocol.ServerPing{}),
		logger:   logger.With(slog.String("component", "heartbeat")),
	}
}

// Run ticks until ctx is cancelled
func (s *Supervisor) Run(ctx context.Context) error {
	ticks, stop := s.clock.NewTicker(s.interval)
	defer stop()

	s.logger.Info("heartbeat started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("heartbeat stopped")
			return nil
		case <-ticks:
			s.Tick()
		}
	}
}

// Tick runs one heartbeat cycle
func (s *Supervisor) Tick() {
	for _, conn := range s.registry.Snapshot() {
		if !conn.IsConnected() {
			continue
		}

		// Alive since the last tick: reset and ping again
		if conn.alive.CompareAndSwap(true, false) {
			if err := conn.Send(s.ping); err != nil {
				s.logger.Warn("ping failed",
					slog.String("user_id", string(conn.UserID())),
					slog.Any("error", err))
				s.registry.Disconnect(conn)
			}
			continue
		}

		s.logger.Info("closing unresponsive connection",
			slog.String("user_id", string(conn.UserID())))
		conn.SendClose()
	}
}
