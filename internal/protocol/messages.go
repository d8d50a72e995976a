// Package protocol defines the messages exchanged over a game connection.
//
// Every frame is a msgpack encoded Envelope whose Kind names the message and
// whose Body holds the msgpack encoded message itself. Client and server
// kinds are separate namespaces, so "Ping" is valid in both directions.
package protocol

import (
	"context"

	"github.com/mcoot/tichu/internal/cards"
)

// Message kinds
const (
	KindPing = "Ping"
	KindPong = "Pong"
	KindTest = "Test"

	// Client -> Server
	KindCreateGame           = "CreateGame"
	KindJoinGameWithGameCode = "JoinGameWithGameCode"
	KindCallGrandTichu       = "CallGrandTichu"
	KindSubmitTrade          = "SubmitTrade"
	KindPlayCards            = "PlayCards"
	KindPass                 = "Pass"
	KindLeaveGame            = "LeaveGame"
	KindAddBot               = "AddBot"

	// Server -> Client
	KindUserIDAssigned            = "UserIdAssigned"
	KindGameCreated               = "GameCreated"
	KindGameState                 = "GameState"
	KindLeftGame                  = "LeftGame"
	KindUnexpectedMessageReceived = "UnexpectedMessageReceived"
	KindRejected                  = "Rejected"
)

// Message is anything that can be put in an envelope
type Message interface {
	Kind() string
}

// ClientHandler handles every client message kind. Adding a client message
// means adding a method here, so an implementation cannot silently miss one.
type ClientHandler interface {
	HandlePing(ctx context.Context, msg *ClientPing)
	HandlePong(ctx context.Context, msg *ClientPong)
	HandleTest(ctx context.Context, msg *ClientTest)
	HandleCreateGame(ctx context.Context, msg *CreateGame)
	HandleJoinGameWithGameCode(ctx context.Context, msg *JoinGameWithGameCode)
	HandleCallGrandTichu(ctx context.Context, msg *CallGrandTichu)
	HandleSubmitTrade(ctx context.Context, msg *SubmitTrade)
	HandlePlayCards(ctx context.Context, msg *PlayCards)
	HandlePass(ctx context.Context, msg *Pass)
	HandleLeaveGame(ctx context.Context, msg *LeaveGame)
	HandleAddBot(ctx context.Context, msg *AddBot)
}

// ClientMessage is a message sent by a client
type ClientMessage interface {
	Message
	Dispatch(ctx context.Context, h ClientHandler)
}

// ServerMessage is a message sent by the server
type ServerMessage interface {
	Message
	serverMessage()
}

// Client -> Server

type ClientPing struct{}

type ClientPong struct{}

type ClientTest struct {
	Text string `msgpack:"text"`
}

type CreateGame struct {
	UserID      string `msgpack:"user_id"`
	DisplayName string `msgpack:"display_name"`
}

type JoinGameWithGameCode struct {
	GameCode    string `msgpack:"game_code"`
	DisplayName string `msgpack:"display_name"`
	UserID      string `msgpack:"user_id"`
}

type CallGrandTichu struct {
	Call bool `msgpack:"call"`
}

// SubmitTrade gives one card to each other player
type SubmitTrade struct {
	Left    cards.Card `msgpack:"left"`
	Partner cards.Card `msgpack:"partner"`
	Right   cards.Card `msgpack:"right"`
}

type PlayCards struct {
	Cards []cards.Card `msgpack:"cards"`
}

type Pass struct{}

type LeaveGame struct{}

// AddBot seats a server-played player in the sender's game. An empty
// strategy picks the default.
type AddBot struct {
	Strategy string `msgpack:"strategy"`
}

func (*ClientPing) Kind() string           { return KindPing }
func (*ClientPong) Kind() string           { return KindPong }
func (*ClientTest) Kind() string           { return KindTest }
func (*CreateGame) Kind() string           { return KindCreateGame }
func (*JoinGameWithGameCode) Kind() string { return KindJoinGameWithGameCode }
func (*CallGrandTichu) Kind() string       { return KindCallGrandTichu }
func (*SubmitTrade) Kind() string          { return KindSubmitTrade }
func (*PlayCards) Kind() string            { return KindPlayCards }
func (*Pass) Kind() string                 { return KindPass }
func (*LeaveGame) Kind() string            { return KindLeaveGame }
func (*AddBot) Kind() string               { return KindAddBot }

func (m *ClientPing) Dispatch(ctx context.Context, h ClientHandler) { h.HandlePing(ctx, m) }
func (m *ClientPong) Dispatch(ctx context.Context, h ClientHandler) { h.HandlePong(ctx, m) }
func (m *ClientTest) Dispatch(ctx context.Context, h ClientHandler) { h.HandleTest(ctx, m) }
func (m *CreateGame) Dispatch(ctx context.Context, h ClientHandler) { h.HandleCreateGame(ctx, m) }
func (m *JoinGameWithGameCode) Dispatch(ctx context.Context, h ClientHandler) {
	h.HandleJoinGameWithGameCode(ctx, m)
}
func (m *CallGrandTichu) Dispatch(ctx context.Context, h ClientHandler) {
	h.HandleCallGrandTichu(ctx, m)
}
func (m *SubmitTrade) Dispatch(ctx context.Context, h ClientHandler) { h.HandleSubmitTrade(ctx, m) }
func (m *PlayCards) Dispatch(ctx context.Context, h ClientHandler)   { h.HandlePlayCards(ctx, m) }
func (m *Pass) Dispatch(ctx context.Context, h ClientHandler)        { h.HandlePass(ctx, m) }
func (m *LeaveGame) Dispatch(ctx context.Context, h ClientHandler)   { h.HandleLeaveGame(ctx, m) }
func (m *AddBot) Dispatch(ctx context.Context, h ClientHandler)      { h.HandleAddBot(ctx, m) }

// Server -> Client

type ServerPing struct{}

type ServerPong struct{}

type ServerTest struct {
	Text string `msgpack:"text"`
}

type UserIDAssigned struct {
	UserID string `msgpack:"user_id"`
}

type GameCreated struct {
	GameCode string `msgpack:"game_code"`
}

// GameState carries the recipient's view of a game
type GameState struct {
	Game GameView `msgpack:"game"`
}

type LeftGame struct {
	GameID string `msgpack:"game_id"`
}

// UnexpectedMessageReceived reports a message that did not fit the current state
type UnexpectedMessageReceived struct {
	Message string `msgpack:"message"`
}

// Rejected reports a game rule violation
type Rejected struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

func (*ServerPing) Kind() string                { return KindPing }
func (*ServerPong) Kind() string                { return KindPong }
func (*ServerTest) Kind() string                { return KindTest }
func (*UserIDAssigned) Kind() string            { return KindUserIDAssigned }
func (*GameCreated) Kind() string               { return KindGameCreated }
func (*GameState) Kind() string                 { return KindGameState }
func (*LeftGame) Kind() string                  { return KindLeftGame }
func (*UnexpectedMessageReceived) Kind() string { return KindUnexpectedMessageReceived }
func (*Rejected) Kind() string                  { return KindRejected }

func (*ServerPing) serverMessage()                {}
func (*ServerPong) serverMessage()                {}
func (*ServerTest) serverMessage()                {}
func (*UserIDAssigned) serverMessage()            {}
func (*GameCreated) serverMessage()               {}
func (*GameState) serverMessage()                 {}
func (*LeftGame) serverMessage()                  {}
func (*UnexpectedMessageReceived) serverMessage() {}
func (*Rejected) serverMessage()                  {}
