package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tichu/internal/protocol"
)

// gameSession is the client end of a game connection
type gameSession struct {
	conn    *websocket.Conn
	out     *Output
	verbose bool

	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func dialGame(ctx context.Context, url string, out *Output) (*gameSession, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	_ = resp.Body.Close()
	return &gameSession{conn: conn, out: out, verbose: cfg != nil && cfg.Verbose}, nil
}

func (s *gameSession) send(m protocol.ClientMessage) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// receive prints server messages until the stream closes. Heartbeat pings
// are answered without being shown.
func (s *gameSession) receive() error {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		msg, err := protocol.DecodeServer(data)
		if err != nil {
			s.out.PrintError(err)
			continue
		}
		if _, ok := msg.(*protocol.ServerPing); ok {
			if err := s.send(&protocol.ClientPong{}); err != nil {
				return err
			}
			if !s.verbose {
				continue
			}
		}
		s.out.PrintServerMessage(msg)
	}
}

func (s *gameSession) close() {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	_ = s.conn.Close()
}

// runGame sends first, then forwards commands read from in until the input
// ends, the user quits or the server closes the stream.
func runGame(ctx context.Context, url string, first protocol.ClientMessage, in io.Reader, out *Output) error {
	s, err := dialGame(ctx, url, out)
	if err != nil {
		return err
	}

	received := make(chan error, 1)
	go func() { received <- s.receive() }()

	stop := make(chan struct{})
	defer close(stop)
	lines := scanLines(in, stop)

	err = s.send(first)
	for err == nil {
		select {
		case err = <-received:
			s.close()
			return err
		case <-ctx.Done():
			err = ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err = errQuit
				break
			}
			var msg protocol.ClientMessage
			msg, err = parseCommand(line)
			switch {
			case errors.Is(err, errQuit):
			case err != nil:
				out.PrintError(err)
				err = nil
			case msg != nil:
				err = s.send(msg)
			}
		}
	}

	s.close()
	<-received
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func scanLines(in io.Reader, stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()
	return lines
}
