package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/protocol"
)

// Output handles formatting output based on the configured format.
// It is safe for concurrent use.
type Output struct {
	format string
	mu     sync.Mutex
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		o.printJSON(map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		})
	} else {
		o.printf("Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		o.printf("%s\n", msg)
	}
}

// PrintServerMessage outputs a message received on a game connection
func (o *Output) PrintServerMessage(m protocol.ServerMessage) {
	if o.format == "json" {
		o.printJSON(map[string]any{"kind": m.Kind(), "message": m})
		return
	}

	switch v := m.(type) {
	case *protocol.UserIDAssigned:
		o.printf("Assigned user id: %s\n", v.UserID)
	case *protocol.GameCreated:
		o.printf("Game created: %s\n", v.GameCode)
	case *protocol.GameState:
		o.printGameView(v.Game)
	case *protocol.LeftGame:
		o.printf("Left game %s\n", v.GameID)
	case *protocol.Rejected:
		o.printf("Rejected: %s (%s)\n", v.Message, v.Code)
	case *protocol.UnexpectedMessageReceived:
		o.printf("Unexpected: %s\n", v.Message)
	case *protocol.ServerTest:
		o.printf("Test: %s\n", v.Text)
	default:
		o.printf("%s\n", protocol.Describe(m))
	}
}

func (o *Output) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printJSON(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	case StatsResult:
		o.printf("Connections: %d (%d connected)\n", v.Connections, v.Connected)
		o.printf("Games: %d\n", v.Games)
	case ClassifyResult:
		o.printClassifyResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatsResult response type
type StatsResult struct {
	Connections int `json:"connections"`
	Connected   int `json:"connected"`
	Games       int `json:"games"`
}

// ClassifyResult describes the combination a set of cards forms
type ClassifyResult struct {
	Cards  []string `json:"cards"`
	Valid  bool     `json:"valid"`
	Kind   string   `json:"kind,omitempty"`
	Value  int      `json:"value,omitempty"`
	Length int      `json:"length,omitempty"`
	Bomb   bool     `json:"bomb,omitempty"`
	Points int      `json:"points"`
}

func (o *Output) printClassifyResult(r ClassifyResult) {
	o.printf("Cards: %s\n", strings.Join(r.Cards, ", "))
	if !r.Valid {
		o.printf("Not a valid combination\n")
		return
	}
	o.printf("Kind: %s\n", r.Kind)
	o.printf("Value: %d\n", r.Value)
	o.printf("Length: %d\n", r.Length)
	if r.Bomb {
		o.printf("Bomb: yes\n")
	}
	o.printf("Points: %d\n", r.Points)
}

func (o *Output) printGameView(g protocol.GameView) {
	o.printf("Game %s (v%d): %s\n", g.GameCode, g.Version, g.Stage)
	for _, p := range g.Players {
		marks := []string{fmt.Sprintf("team %d", p.Team), fmt.Sprintf("%d cards", p.HandCount)}
		if p.Seat == g.Seat {
			marks = append(marks, "you")
		}
		if p.Bot {
			marks = append(marks, "bot")
		}
		if p.Seat == g.Turn {
			marks = append(marks, "to play")
		}
		if p.Passed {
			marks = append(marks, "passed")
		}
		if p.FinishedPosition > 0 {
			marks = append(marks, fmt.Sprintf("finished #%d", p.FinishedPosition))
		}
		if !p.Connected {
			marks = append(marks, "disconnected")
		}
		o.printf("  [%d] %s (%s)\n", p.Seat, p.DisplayName, strings.Join(marks, ", "))
	}
	for _, play := range g.Trick {
		o.printf("  trick: seat %d played %s %s\n", play.Seat, play.Kind, formatCards(play.Cards))
	}
	if len(g.Hand) > 0 {
		o.printf("  hand: %s\n", formatCards(g.Hand))
	}
	o.printf("  scores: %d - %d\n", g.TeamScores[0], g.TeamScores[1])
}

// formatCards writes cards in the form ParseCards reads back
func formatCards(cs []cards.Card) string {
	return strings.Join(lo.Map(cs, func(c cards.Card, _ int) string {
		return cardToken(c)
	}), " ")
}

func cardToken(c cards.Card) string {
	if c.IsSpecial() {
		return strings.ToLower(c.Suit.String())
	}
	rank := fmt.Sprint(int(c.Value))
	switch c.Value {
	case cards.Jack:
		rank = "J"
	case cards.Queen:
		rank = "Q"
	case cards.King:
		rank = "K"
	case cards.Ace:
		rank = "A"
	}
	return strings.ToLower(c.Suit.String()) + rank
}
