package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec errors
var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownKind    = errors.New("unknown message kind")
)

// Envelope is the outer frame of every message
type Envelope struct {
	Kind string             `msgpack:"kind"`
	Body msgpack.RawMessage `msgpack:"body"`
}

var clientKinds = map[string]func() ClientMessage{
	KindPing:                 func() ClientMessage { return &ClientPing{} },
	KindPong:                 func() ClientMessage { return &ClientPong{} },
	KindTest:                 func() ClientMessage { return &ClientTest{} },
	KindCreateGame:           func() ClientMessage { return &CreateGame{} },
	KindJoinGameWithGameCode: func() ClientMessage { return &JoinGameWithGameCode{} },
	KindCallGrandTichu:       func() ClientMessage { return &CallGrandTichu{} },
	KindSubmitTrade:          func() ClientMessage { return &SubmitTrade{} },
	KindPlayCards:            func() ClientMessage { return &PlayCards{} },
	KindPass:                 func() ClientMessage { return &Pass{} },
	KindLeaveGame:            func() ClientMessage { return &LeaveGame{} },
	KindAddBot:               func() ClientMessage { return &AddBot{} },
}

var serverKinds = map[string]func() ServerMessage{
	KindPing:                      func() ServerMessage { return &ServerPing{} },
	KindPong:                      func() ServerMessage { return &ServerPong{} },
	KindTest:                      func() ServerMessage { return &ServerTest{} },
	KindUserIDAssigned:            func() ServerMessage { return &UserIDAssigned{} },
	KindGameCreated:               func() ServerMessage { return &GameCreated{} },
	KindGameState:                 func() ServerMessage { return &GameState{} },
	KindLeftGame:                  func() ServerMessage { return &LeftGame{} },
	KindUnexpectedMessageReceived: func() ServerMessage { return &UnexpectedMessageReceived{} },
	KindRejected:                  func() ServerMessage { return &Rejected{} },
}

// Encode wraps a message in an envelope and serializes it
func Encode(m Message) ([]byte, error) {
	body, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return msgpack.Marshal(&Envelope{Kind: m.Kind(), Body: body})
}

// MustEncode is Encode for messages that cannot fail to serialize
func MustEncode(m Message) []byte {
	data, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodeClient parses a frame sent by a client
func DecodeClient(data []byte) (ClientMessage, error) {
	return decode(data, clientKinds)
}

// DecodeServer parses a frame sent by the server
func DecodeServer(data []byte) (ServerMessage, error) {
	return decode(data, serverKinds)
}

func decode[M Message](data []byte, kinds map[string]func() M) (M, error) {
	var zero M

	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	newMsg, ok := kinds[env.Kind]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	msg := newMsg()
	if len(env.Body) > 0 {
		if err := msgpack.Unmarshal(env.Body, msg); err != nil {
			return zero, fmt.Errorf("%w: %s body: %v", ErrMalformedFrame, env.Kind, err)
		}
	}
	return msg, nil
}

// Describe renders a message for logs and UnexpectedMessageReceived notices
func Describe(m Message) string {
	return fmt.Sprintf("%s %+v", m.Kind(), m)
}
