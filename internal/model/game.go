package model

import (
	"slices"
	"time"

	"github.com/mcoot/tichu/internal/cards"
)

// UserID identifies a participant. It is opaque to the server.
type UserID string

// GameID uniquely identifies a game
type GameID string

// GameCode is a short human-entered code for joining a game
type GameCode string

// Stage represents the current phase of a game
type Stage string

const (
	StageLobby          Stage = "lobby"            // Waiting for four players
	StageGrandTichuCall Stage = "grand_tichu_call" // Players have 8 cards and decide on a grand tichu
	StageTrading        Stage = "trading"          // Players pass one card to each other player
	StagePlaying        Stage = "playing"          // Trick play
	StageEnded          Stage = "ended"            // Round scored
)

// TichuCallStatus tracks a player's grand tichu decision and its outcome
type TichuCallStatus string

const (
	CallUndecided TichuCallStatus = "undecided"
	CallCalled    TichuCallStatus = "called"
	CallDeclined  TichuCallStatus = "declined"
	CallAchieved  TichuCallStatus = "achieved"
	CallFailed    TichuCallStatus = "failed"
)

const (
	// MaxPlayers is the number of seats; the game starts once all are taken
	MaxPlayers = 4
	// FirstDealSize is the number of cards seen before the grand tichu call
	FirstDealSize = 8
	// HandSize is the full hand after the second deal
	HandSize = 14
)

// Team returns 0 or 1. Partners sit opposite each other.
func Team(seat int) int {
	return seat % 2
}

// PartnerSeat returns the seat opposite
func PartnerSeat(seat int) int {
	return (seat + 2) % MaxPlayers
}

// NextSeat returns the seat after seat in turn order
func NextSeat(seat int) int {
	return (seat + 1) % MaxPlayers
}

// Trade is the set of cards a player gives away during the trading stage.
// Left is the next seat in turn order, Right the previous one.
type Trade struct {
	Left    cards.Card
	Partner cards.Card
	Right   cards.Card
}

// Cards returns the three traded cards
func (t Trade) Cards() []cards.Card {
	return []cards.Card{t.Left, t.Partner, t.Right}
}

// Player is a seated participant of a game
type Player struct {
	UserID      UserID
	DisplayName string
	Seat        int
	BotStrategy string // empty for human players

	Hand     []cards.Card
	Reserved []cards.Card // second deal, hidden until the grand tichu call completes

	GrandTichu TichuCallStatus
	Trade      *Trade // nil until submitted

	Won              []cards.Card // cards from tricks taken this round
	FinishedPosition int          // 0 while still holding cards
	Passed           bool         // passed on the current trick
}

// IsBot reports whether the server plays this seat
func (p *Player) IsBot() bool {
	return p.BotStrategy != ""
}

// IsOut reports whether the player has played all their cards
func (p *Player) IsOut() bool {
	return p.FinishedPosition > 0
}

// Play is one combination laid on a trick
type Play struct {
	Seat        int
	Combination cards.Combination
}

// Trick is the trick in progress
type Trick struct {
	Plays []Play
}

// IsEmpty reports whether the next play is a lead
func (t *Trick) IsEmpty() bool {
	return len(t.Plays) == 0
}

// Top returns the combination to beat, or nil when leading
func (t *Trick) Top() *cards.Combination {
	if t.IsEmpty() {
		return nil
	}
	return &t.Plays[len(t.Plays)-1].Combination
}

// TopSeat returns the seat of the current highest play, or -1
func (t *Trick) TopSeat() int {
	if t.IsEmpty() {
		return -1
	}
	return t.Plays[len(t.Plays)-1].Seat
}

// Cards returns every card laid on the trick
func (t *Trick) Cards() []cards.Card {
	var out []cards.Card
	for _, p := range t.Plays {
		out = append(out, p.Combination.Cards()...)
	}
	return out
}

// Game is the authoritative state of a single game
type Game struct {
	ID    GameID
	Code  GameCode
	Stage Stage

	// Version increases with every applied mutation
	Version int64

	// Players in seat order
	Players []*Player

	// Trick play
	Turn          int // seat to act while playing
	Trick         Trick
	FinishedCount int

	// Round result, set when the game ends
	TeamScores [2]int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGame returns an empty game in the lobby stage
func NewGame(id GameID, code GameCode, now time.Time) *Game {
	return &Game{
		ID:        id,
		Code:      code,
		Stage:     StageLobby,
		Players:   make([]*Player, 0, MaxPlayers),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFull returns true when every seat is taken
func (g *Game) IsFull() bool {
	return len(g.Players) >= MaxPlayers
}

// Player returns the player with the given user ID, or nil
func (g *Game) Player(userID UserID) *Player {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// PlayerAt returns the player in the given seat, or nil
func (g *Game) PlayerAt(seat int) *Player {
	if seat < 0 || seat >= len(g.Players) {
		return nil
	}
	return g.Players[seat]
}

// HasHumans reports whether any seat is held by a human
func (g *Game) HasHumans() bool {
	return slices.ContainsFunc(g.Players, func(p *Player) bool { return !p.IsBot() })
}

// HasBots reports whether any seat is played by the server
func (g *Game) HasBots() bool {
	return slices.ContainsFunc(g.Players, (*Player).IsBot)
}

// UserIDs returns the participants in seat order
func (g *Game) UserIDs() []UserID {
	ids := make([]UserID, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.UserID
	}
	return ids
}

// Clone returns a deep copy safe to read outside the registry lock
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp := *p
		cp.Hand = slices.Clone(p.Hand)
		cp.Reserved = slices.Clone(p.Reserved)
		cp.Won = slices.Clone(p.Won)
		if p.Trade != nil {
			t := *p.Trade
			cp.Trade = &t
		}
		c.Players[i] = &cp
	}
	c.Trick.Plays = slices.Clone(g.Trick.Plays)
	return &c
}

// SummaryPlayer is a participant entry in a game summary
type SummaryPlayer struct {
	UserID           UserID          `json:"user_id"`
	DisplayName      string          `json:"display_name"`
	Seat             int             `json:"seat"`
	GrandTichu       TichuCallStatus `json:"grand_tichu"`
	FinishedPosition int             `json:"finished_position"`
	Bot              bool            `json:"bot,omitempty"`
}

// GameSummary is a lightweight record of a completed round
type GameSummary struct {
	ID          GameID          `json:"id"`
	Code        GameCode        `json:"code"`
	Players     []SummaryPlayer `json:"players"`
	TeamScores  [2]int          `json:"team_scores"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewGameSummary builds a summary from an ended game
func NewGameSummary(g *Game, completedAt time.Time) *GameSummary {
	players := make([]SummaryPlayer, len(g.Players))
	for i, p := range g.Players {
		players[i] = SummaryPlayer{
			UserID:           p.UserID,
			DisplayName:      p.DisplayName,
			Seat:             p.Seat,
			GrandTichu:       p.GrandTichu,
			FinishedPosition: p.FinishedPosition,
			Bot:              p.IsBot(),
		}
	}
	return &GameSummary{
		ID:          g.ID,
		Code:        g.Code,
		Players:     players,
		TeamScores:  g.TeamScores,
		CompletedAt: completedAt,
	}
}
