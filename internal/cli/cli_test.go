package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/factory"
	"github.com/mcoot/tichu/internal/protocol"
)

// lockedBuffer is a bytes.Buffer that can be read while a session writes to it
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want protocol.ClientMessage
	}{
		{"call", &protocol.CallGrandTichu{Call: true}},
		{"  Decline ", &protocol.CallGrandTichu{Call: false}},
		{"trade sword2 jadeA dog", &protocol.SubmitTrade{
			Left:    cards.Card{Suit: cards.SuitSword, Value: 2},
			Partner: cards.Card{Suit: cards.SuitJade, Value: cards.Ace},
			Right:   cards.NewSpecial(cards.SuitDog),
		}},
		{"play star5 pagoda5", &protocol.PlayCards{Cards: []cards.Card{
			{Suit: cards.SuitStar, Value: 5},
			{Suit: cards.SuitPagoda, Value: 5},
		}}},
		{"pass", &protocol.Pass{}},
		{"leave", &protocol.LeaveGame{}},
		{"bot", &protocol.AddBot{}},
		{"bot random", &protocol.AddBot{Strategy: "random"}},
		{"ping", &protocol.ClientPing{}},
		{"say hello there", &protocol.ClientTest{Text: "hello there"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandEdgeCases(t *testing.T) {
	msg, err := parseCommand("   ")
	assert.NoError(t, err)
	assert.Nil(t, msg)

	_, err = parseCommand("quit")
	assert.ErrorIs(t, err, errQuit)

	for _, line := range []string{"trade sword2 jade3", "play", "play sword99", "bot a b", "shuffle"} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws?user_id=no_id", NewClient("http://localhost:8080/").SocketURL(""))
	assert.Equal(t, "wss://tichu.example/ws?user_id=alice", NewClient("https://tichu.example").SocketURL("alice"))
}

func TestClassifyCommand(t *testing.T) {
	out, err := runCLI(t, "classify", "sword5", "jade5", "star5", "pagoda5")
	require.NoError(t, err)
	assert.Contains(t, out, "Kind: BombOf4")
	assert.Contains(t, out, "Bomb: yes")
	assert.Contains(t, out, "Points: 20")
}

func TestClassifyCommandJSON(t *testing.T) {
	out, err := runCLI(t, "classify", "-o", "json", "sword2,jade3,star4,pagoda5,sword6")
	require.NoError(t, err)

	var result ClassifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, "Sequence", result.Kind)
	assert.Equal(t, 5, result.Length)
	assert.Equal(t, []string{"sword2", "jade3", "star4", "pagoda5", "sword6"}, result.Cards)
}

func TestClassifyInvalidSet(t *testing.T) {
	out, err := runCLI(t, "classify", "sword2", "jade3")
	require.NoError(t, err)
	assert.Contains(t, out, "Not a valid combination")

	_, err = runCLI(t, "classify", "club9")
	assert.Error(t, err)
}

func TestHealthAndStatsCommands(t *testing.T) {
	server := httptest.NewServer(factory.NewTestApp().HTTPHandler())
	defer server.Close()

	out, err := runCLI(t, "--server", server.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "Status: ok\n", out)

	out, err = runCLI(t, "--server", server.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Connections: 0 (0 connected)")
	assert.Contains(t, out, "Games: 0")
}

func TestPrintGameState(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput("text", &buf)

	out.PrintServerMessage(&protocol.GameState{Game: protocol.GameView{
		GameCode: "ABCD",
		Version:  3,
		Stage:    "playing",
		Seat:     0,
		Turn:     1,
		Hand:     []cards.Card{cards.NewSpecial(cards.SuitMahJong), {Suit: cards.SuitJade, Value: cards.Queen}},
		Players: []protocol.PlayerView{
			{DisplayName: "Alice", Seat: 0, Team: 0, HandCount: 2, Connected: true},
			{DisplayName: "Bob", Seat: 1, Team: 1, HandCount: 14, Connected: false},
			{DisplayName: "Bot 1", Seat: 2, Team: 0, HandCount: 9, Connected: true, Bot: true},
		},
		TeamScores: [2]int{10, 20},
	}})

	text := buf.String()
	assert.Contains(t, text, "Game ABCD (v3): playing")
	assert.Contains(t, text, "[0] Alice (team 0, 2 cards, you)")
	assert.Contains(t, text, "[1] Bob (team 1, 14 cards, to play, disconnected)")
	assert.Contains(t, text, "[2] Bot 1 (team 0, 9 cards, bot)")
	assert.Contains(t, text, "hand: mahjong jadeQ")
	assert.Contains(t, text, "scores: 10 - 20")
}

func TestRunGameCreatesAndEchoes(t *testing.T) {
	app := factory.NewTestApp()
	app.MockRandom.QueueID("fresh")
	app.MockRandom.QueueString("WXYZ")
	server := httptest.NewServer(app.HTTPHandler())
	defer server.Close()

	in, input := io.Pipe()
	var buf lockedBuffer
	done := make(chan error, 1)
	go func() {
		url := NewClient(server.URL).SocketURL("")
		done <- runGame(t.Context(), url, &protocol.CreateGame{DisplayName: "Alice"}, in, NewOutput("text", &buf))
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Game created: WXYZ")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, buf.String(), "Assigned user id: fresh")

	_, err := io.WriteString(input, "say hi\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Test: hi")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(input, "bogus\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), `Error: unknown command "bogus"`)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, input.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after input closed")
	}
}
