package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/dependencies/mocks"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/protocol"
	"github.com/mcoot/tichu/internal/services/bot"
	"github.com/mcoot/tichu/internal/services/game"
	"github.com/mcoot/tichu/internal/services/scoring"
	"github.com/mcoot/tichu/internal/session"
	"github.com/mcoot/tichu/internal/storage/memory"
	"github.com/mcoot/tichu/internal/testutil"
)

type DispatchSuite struct {
	suite.Suite
	ctx        context.Context
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	sessions   *session.Registry
	games      *game.Controller
	dispatcher *Dispatcher

	conns    map[model.UserID]*session.Connection
	handlers map[model.UserID]*Handler
}

func TestDispatchSuite(t *testing.T) {
	suite.Run(t, new(DispatchSuite))
}

func (s *DispatchSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.sessions = session.NewRegistry(testutil.NopLogger())
	s.games = game.NewController(game.NewRegistry(), memory.New(), scoring.New(), s.clock, s.random, testutil.NopLogger())
	bots := bot.NewService(s.games, bot.DefaultStrategies(s.random), s.random, testutil.NopLogger())
	s.dispatcher = New(s.games, s.sessions, bots, testutil.NopLogger())
	s.conns = make(map[model.UserID]*session.Connection)
	s.handlers = make(map[model.UserID]*Handler)
}

func (s *DispatchSuite) connect(id model.UserID) {
	conn := session.NewConnection(id, 256, s.clock.Now())
	s.sessions.Register(conn)
	s.conns[id] = conn
	s.handlers[id] = s.dispatcher.Handler(conn)
	s.handlers[id].Attach(s.ctx)
}

func (s *DispatchSuite) send(id model.UserID, msg protocol.ClientMessage) {
	s.Require().NoError(s.handlers[id].HandleFrame(s.ctx, protocol.MustEncode(msg)))
}

// next returns the next queued server message for a user
func (s *DispatchSuite) next(id model.UserID) protocol.ServerMessage {
	select {
	case f := <-s.conns[id].Outbound():
		msg, err := protocol.DecodeServer(f.Data)
		s.Require().NoError(err)
		return msg
	case <-time.After(time.Second):
		s.FailNow("no message queued", "user %s", id)
		return nil
	}
}

func (s *DispatchSuite) requireEmpty(id model.UserID) {
	select {
	case f := <-s.conns[id].Outbound():
		msg, _ := protocol.DecodeServer(f.Data)
		s.FailNow("unexpected message", "user %s got %v", id, msg)
	default:
	}
}

// latestState drains a user's queue and returns the last game state
func (s *DispatchSuite) latestState(id model.UserID) protocol.GameView {
	var latest *protocol.GameState
	for {
		select {
		case f := <-s.conns[id].Outbound():
			msg, err := protocol.DecodeServer(f.Data)
			s.Require().NoError(err)
			if gs, ok := msg.(*protocol.GameState); ok {
				latest = gs
			}
			continue
		default:
		}
		break
	}
	s.Require().NotNil(latest, "no game state for %s", id)
	return latest.Game
}

func expect[M protocol.ServerMessage](s *DispatchSuite, id model.UserID) M {
	msg := s.next(id)
	typed, ok := msg.(M)
	s.Require().True(ok, "expected %T, got %#v", *new(M), msg)
	return typed
}

// seat connects n players and puts them in one game with code ABCD
func (s *DispatchSuite) seat(n int) []model.UserID {
	ids := make([]model.UserID, n)
	for i := range ids {
		ids[i] = model.UserID(fmt.Sprintf("u%d", i))
		s.connect(ids[i])
	}

	s.random.QueueString("ABCD")
	s.send(ids[0], &protocol.CreateGame{UserID: string(ids[0]), DisplayName: "P0"})
	for i, id := range ids[1:] {
		s.send(id, &protocol.JoinGameWithGameCode{GameCode: "ABCD", UserID: string(id), DisplayName: fmt.Sprintf("P%d", i+1)})
	}
	return ids
}

// Liveness and echo

func (s *DispatchSuite) TestPingGetsPong() {
	s.connect("u0")
	s.send("u0", &protocol.ClientPing{})
	expect[*protocol.ServerPong](s, "u0")
}

func (s *DispatchSuite) TestPongMarksAlive() {
	s.connect("u0")
	session.NewSupervisor(s.sessions, s.clock, time.Second, testutil.NopLogger()).Tick()
	s.False(s.conns["u0"].IsAlive())
	expect[*protocol.ServerPing](s, "u0")

	s.send("u0", &protocol.ClientPong{})
	s.True(s.conns["u0"].IsAlive())
	s.requireEmpty("u0")
}

func (s *DispatchSuite) TestTestIsEchoed() {
	s.connect("u0")
	s.send("u0", &protocol.ClientTest{Text: "hello"})
	s.Equal("hello", expect[*protocol.ServerTest](s, "u0").Text)
}

// Framing

func (s *DispatchSuite) TestUnknownKindIsReportedNotFatal() {
	s.connect("u0")
	data, err := msgpack.Marshal(&protocol.Envelope{Kind: "Bogus"})
	s.Require().NoError(err)

	s.Require().NoError(s.handlers["u0"].HandleFrame(s.ctx, data))
	s.Contains(expect[*protocol.UnexpectedMessageReceived](s, "u0").Message, "Bogus")
	s.True(s.conns["u0"].IsConnected())
}

func (s *DispatchSuite) TestMalformedFrameIsFatal() {
	s.connect("u0")
	err := s.handlers["u0"].HandleFrame(s.ctx, []byte{0xc1})
	s.ErrorIs(err, protocol.ErrMalformedFrame)
}

// Create and join

func (s *DispatchSuite) TestCreateGame() {
	s.connect("u0")
	s.random.QueueString("ABCD")

	s.send("u0", &protocol.CreateGame{UserID: "u0", DisplayName: "Alice"})

	s.Equal("ABCD", expect[*protocol.GameCreated](s, "u0").GameCode)
	state := expect[*protocol.GameState](s, "u0").Game
	s.Equal(string(model.StageLobby), state.Stage)
	s.Equal("ABCD", state.GameCode)
	s.Equal(0, state.Seat)
	s.EqualValues(1, state.Version)
	s.Require().Len(state.Players, 1)
	s.Equal("Alice", state.Players[0].DisplayName)
	s.True(state.Players[0].Connected)
	s.Equal(model.GameID(state.GameID), s.conns["u0"].GameID())
}

func (s *DispatchSuite) TestCreateGameWithOtherUserIDIsUnexpected() {
	s.connect("u0")
	s.send("u0", &protocol.CreateGame{UserID: "someone-else", DisplayName: "Alice"})

	s.Contains(expect[*protocol.UnexpectedMessageReceived](s, "u0").Message, protocol.KindCreateGame)
	s.Zero(s.games.GameCount())
}

func (s *DispatchSuite) TestCreateWhileInGameIsRejected() {
	ids := s.seat(1)
	s.latestState(ids[0])

	s.send(ids[0], &protocol.CreateGame{DisplayName: "again"})
	s.Equal(CodeAlreadyInGame, expect[*protocol.Rejected](s, ids[0]).Code)
	s.Equal(1, s.games.GameCount())
}

func (s *DispatchSuite) TestJoinUnknownCodeIsRejected() {
	s.connect("u0")
	s.send("u0", &protocol.JoinGameWithGameCode{GameCode: "ZZZZ", UserID: "u0"})
	s.Equal(CodeGameNotFound, expect[*protocol.Rejected](s, "u0").Code)
	s.Empty(s.conns["u0"].GameID())
}

func (s *DispatchSuite) TestJoinBroadcastsLobbyStateToEveryone() {
	s.connect("u0")
	s.connect("u1")
	s.random.QueueString("ABCD")
	s.send("u0", &protocol.CreateGame{UserID: "u0", DisplayName: "P0"})
	s.latestState("u0")

	// Codes are matched case-insensitively
	s.send("u1", &protocol.JoinGameWithGameCode{GameCode: " abcd ", UserID: "u1", DisplayName: "P1"})

	for seat, id := range []model.UserID{"u0", "u1"} {
		state := expect[*protocol.GameState](s, id).Game
		s.Equal(string(model.StageLobby), state.Stage)
		s.Equal(seat, state.Seat)
		s.Len(state.Players, 2)
		s.Empty(state.Hand)
	}
}

func (s *DispatchSuite) TestFourthPlayerMovesEveryoneToGrandTichuCall() {
	ids := s.seat(4)

	for seat, id := range ids {
		state := s.latestState(id)
		s.Equal(string(model.StageGrandTichuCall), state.Stage)
		s.Equal(seat, state.Seat)
		s.Len(state.Hand, model.FirstDealSize)
		for _, p := range state.Players {
			s.Equal(model.FirstDealSize, p.HandCount)
			s.True(p.Connected)
		}
	}
}

func (s *DispatchSuite) TestFifthPlayerIsRejected() {
	ids := s.seat(4)
	for _, id := range ids {
		s.latestState(id)
	}

	s.connect("late")
	s.send("late", &protocol.JoinGameWithGameCode{GameCode: "ABCD", UserID: "late"})
	s.Equal(CodeGameFull, expect[*protocol.Rejected](s, "late").Code)
	for _, id := range ids {
		s.requireEmpty(id)
	}
}

// Game actions

func (s *DispatchSuite) TestActionWithoutGameIsUnexpected() {
	s.connect("u0")
	s.send("u0", &protocol.PlayCards{Cards: []cards.Card{{Suit: cards.SuitJade, Value: 7}}})
	s.Contains(expect[*protocol.UnexpectedMessageReceived](s, "u0").Message, protocol.KindPlayCards)
}

func (s *DispatchSuite) TestActionInWrongStageIsUnexpected() {
	ids := s.seat(2)
	s.latestState(ids[0])

	s.send(ids[0], &protocol.CallGrandTichu{Call: true})
	s.Contains(expect[*protocol.UnexpectedMessageReceived](s, ids[0]).Message, protocol.KindCallGrandTichu)
	s.NotEmpty(s.conns[ids[0]].GameID())
}

func (s *DispatchSuite) TestActionOnVanishedGameClearsAssociation() {
	s.connect("u0")
	s.conns["u0"].SetGameID("gone")

	s.send("u0", &protocol.Pass{})
	expect[*protocol.UnexpectedMessageReceived](s, "u0")
	s.Empty(s.conns["u0"].GameID())
}

func (s *DispatchSuite) TestRepeatedDecisionIsRejectedAndNotBroadcast() {
	ids := s.seat(4)
	for _, id := range ids {
		s.latestState(id)
	}

	s.send(ids[0], &protocol.CallGrandTichu{Call: false})
	for _, id := range ids {
		s.Equal(string(model.CallDeclined), s.latestState(id).Players[0].GrandTichu)
	}

	s.send(ids[0], &protocol.CallGrandTichu{Call: true})
	s.Equal(CodeAlreadyDecided, expect[*protocol.Rejected](s, ids[0]).Code)
	for _, id := range ids {
		s.requireEmpty(id)
	}
}

func (s *DispatchSuite) TestRoundSetupThroughMessages() {
	ids := s.seat(4)
	for _, id := range ids {
		s.send(id, &protocol.CallGrandTichu{Call: false})
	}

	for _, id := range ids {
		state := s.latestState(id)
		s.Require().Equal(string(model.StageTrading), state.Stage)
		s.Require().Len(state.Hand, model.HandSize)
		s.send(id, &protocol.SubmitTrade{Left: state.Hand[0], Partner: state.Hand[1], Right: state.Hand[2]})
	}

	states := make(map[model.UserID]protocol.GameView)
	for _, id := range ids {
		states[id] = s.latestState(id)
		s.Equal(string(model.StagePlaying), states[id].Stage)
		s.Len(states[id].Hand, model.HandSize)
	}
	turn := states[ids[0]].Turn
	s.Require().GreaterOrEqual(turn, 0)

	leader := ids[turn]
	other := ids[(turn+1)%len(ids)]

	s.send(leader, &protocol.Pass{})
	s.Equal(CodeCannotPass, expect[*protocol.Rejected](s, leader).Code)

	hand := states[other].Hand
	s.send(other, &protocol.PlayCards{Cards: []cards.Card{hand[len(hand)-1]}})
	s.Equal(CodeNotYourTurn, expect[*protocol.Rejected](s, other).Code)
}

// Leaving and reconnecting

func (s *DispatchSuite) TestLeaveGame() {
	ids := s.seat(2)
	s.latestState(ids[0])
	s.latestState(ids[1])
	gameID := s.conns[ids[1]].GameID()

	s.send(ids[1], &protocol.LeaveGame{})

	s.Equal(string(gameID), expect[*protocol.LeftGame](s, ids[1]).GameID)
	s.Empty(s.conns[ids[1]].GameID())
	state := expect[*protocol.GameState](s, ids[0]).Game
	s.Len(state.Players, 1)
}

func (s *DispatchSuite) TestLastPlayerLeavingTearsGameDown() {
	ids := s.seat(1)
	s.latestState(ids[0])

	s.send(ids[0], &protocol.LeaveGame{})
	expect[*protocol.LeftGame](s, ids[0])
	s.requireEmpty(ids[0])
	s.Zero(s.games.GameCount())
}

func (s *DispatchSuite) TestLeaveDuringPlayIsRejected() {
	ids := s.seat(4)
	for _, id := range ids {
		s.latestState(id)
	}

	s.send(ids[0], &protocol.LeaveGame{})
	s.Equal(CodeGameInProgress, expect[*protocol.Rejected](s, ids[0]).Code)
	s.NotEmpty(s.conns[ids[0]].GameID())
}

func (s *DispatchSuite) TestDisconnectAndReconnect() {
	ids := s.seat(2)
	s.latestState(ids[0])
	s.latestState(ids[1])

	s.handlers[ids[1]].Detach(s.ctx)
	state := expect[*protocol.GameState](s, ids[0]).Game
	s.False(state.Players[1].Connected)

	record, ok := s.sessions.Get(ids[1])
	s.Require().True(ok, "in-game record is kept for reconnect")
	s.False(record.IsConnected())

	s.connect(ids[1])
	rejoined := expect[*protocol.GameState](s, ids[1]).Game
	s.Equal(1, rejoined.Seat)
	s.True(rejoined.Players[1].Connected)
	s.True(expect[*protocol.GameState](s, ids[0]).Game.Players[1].Connected)
}

func (s *DispatchSuite) TestDetachOfReplacedConnectionIsQuiet() {
	ids := s.seat(2)
	s.latestState(ids[0])
	old := s.handlers[ids[1]]

	s.connect(ids[1])
	s.latestState(ids[0])
	s.latestState(ids[1])

	old.Detach(s.ctx)
	s.requireEmpty(ids[0])
	current, ok := s.sessions.Get(ids[1])
	s.Require().True(ok)
	s.True(current.IsConnected())
}

// Bots

func (s *DispatchSuite) TestAddBotsStartsGameAndBotsDecide() {
	ids := s.seat(1)
	for range 3 {
		s.send(ids[0], &protocol.AddBot{})
	}

	state := s.latestState(ids[0])
	s.Equal(string(model.StageGrandTichuCall), state.Stage)
	s.Len(state.Hand, model.FirstDealSize)
	s.Require().Len(state.Players, 4)
	s.False(state.Players[0].Bot)
	for _, p := range state.Players[1:] {
		s.True(p.Bot)
		s.True(p.Connected)
		s.Equal(string(model.CallDeclined), p.GrandTichu)
	}
	s.Equal(string(model.CallUndecided), state.Players[0].GrandTichu)
}

func (s *DispatchSuite) TestAddBotUnknownStrategyIsRejected() {
	ids := s.seat(1)
	s.latestState(ids[0])

	s.send(ids[0], &protocol.AddBot{Strategy: "clever"})
	s.Equal(CodeUnknownStrategy, expect[*protocol.Rejected](s, ids[0]).Code)
	s.requireEmpty(ids[0])
}

func (s *DispatchSuite) TestAddBotWithoutGameIsUnexpected() {
	s.connect("u0")
	s.send("u0", &protocol.AddBot{})
	s.Contains(expect[*protocol.UnexpectedMessageReceived](s, "u0").Message, protocol.KindAddBot)
}

func (s *DispatchSuite) TestLastHumanLeavingRemovesBots() {
	ids := s.seat(1)
	s.send(ids[0], &protocol.AddBot{})
	s.send(ids[0], &protocol.AddBot{})
	s.latestState(ids[0])

	s.send(ids[0], &protocol.LeaveGame{})
	expect[*protocol.LeftGame](s, ids[0])
	s.Zero(s.games.GameCount())
}

func (s *DispatchSuite) TestRoundWithBotsPlaysToTheEnd() {
	ids := s.seat(1)
	for range 3 {
		s.send(ids[0], &protocol.AddBot{})
	}
	s.send(ids[0], &protocol.CallGrandTichu{Call: false})
	state := s.latestState(ids[0])
	s.Require().Equal(string(model.StageTrading), state.Stage)
	s.Require().Len(state.Hand, model.HandSize)

	s.send(ids[0], &protocol.SubmitTrade{Left: state.Hand[0], Partner: state.Hand[1], Right: state.Hand[2]})
	id := model.GameID(state.GameID)

	for range 500 {
		if s.latestState(ids[0]).Stage == string(model.StageEnded) {
			break
		}
		g, err := s.games.GetGame(s.ctx, id)
		s.Require().NoError(err)
		s.Require().Equal(model.StagePlaying, g.Stage)
		s.Require().Equal(0, g.Turn)

		candidates := bot.Candidates(g.Player(ids[0]).Hand, g.Trick.Top())
		if len(candidates) > 0 {
			s.send(ids[0], &protocol.PlayCards{Cards: candidates[0].Cards()})
		} else {
			s.send(ids[0], &protocol.Pass{})
		}
	}

	g, err := s.games.GetGame(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(model.StageEnded, g.Stage)
	s.Contains([]int{100, 200}, g.TeamScores[0]+g.TeamScores[1])
}
