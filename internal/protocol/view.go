package protocol

import (
	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

// PlayerView is what every participant may see about a player
type PlayerView struct {
	UserID           string `msgpack:"user_id"`
	DisplayName      string `msgpack:"display_name"`
	Seat             int    `msgpack:"seat"`
	Team             int    `msgpack:"team"`
	HandCount        int    `msgpack:"hand_count"`
	GrandTichu       string `msgpack:"grand_tichu"`
	HasTraded        bool   `msgpack:"has_traded"`
	Passed           bool   `msgpack:"passed"`
	FinishedPosition int    `msgpack:"finished_position"`
	TrickPoints      int    `msgpack:"trick_points"`
	Connected        bool   `msgpack:"connected"`
	Bot              bool   `msgpack:"bot"`
}

// PlayView is one combination on the current trick
type PlayView struct {
	Seat  int          `msgpack:"seat"`
	Kind  string       `msgpack:"kind"`
	Cards []cards.Card `msgpack:"cards"`
}

// GameView is a per-recipient projection of a game. Only the recipient's
// own hand is included.
type GameView struct {
	GameID     string       `msgpack:"game_id"`
	GameCode   string       `msgpack:"game_code"`
	Version    int64        `msgpack:"version"`
	Stage      string       `msgpack:"stage"`
	Seat       int          `msgpack:"seat"` // recipient's seat, -1 if not seated
	Hand       []cards.Card `msgpack:"hand"`
	Players    []PlayerView `msgpack:"players"`
	Turn       int          `msgpack:"turn"`
	Trick      []PlayView   `msgpack:"trick"`
	TeamScores [2]int       `msgpack:"team_scores"`
}

// GameViewFor projects a game for one recipient. Connected is left for the
// caller to fill in from the session registry.
func GameViewFor(g *model.Game, recipient model.UserID) GameView {
	view := GameView{
		GameID:     string(g.ID),
		GameCode:   string(g.Code),
		Version:    g.Version,
		Stage:      string(g.Stage),
		Seat:       -1,
		Hand:       []cards.Card{},
		Players:    make([]PlayerView, len(g.Players)),
		Turn:       -1,
		Trick:      make([]PlayView, len(g.Trick.Plays)),
		TeamScores: g.TeamScores,
	}

	if g.Stage == model.StagePlaying {
		view.Turn = g.Turn
	}

	for i, p := range g.Players {
		view.Players[i] = PlayerView{
			UserID:           string(p.UserID),
			DisplayName:      p.DisplayName,
			Seat:             p.Seat,
			Team:             model.Team(p.Seat),
			HandCount:        len(p.Hand),
			GrandTichu:       string(p.GrandTichu),
			HasTraded:        p.Trade != nil,
			Passed:           p.Passed,
			FinishedPosition: p.FinishedPosition,
			TrickPoints:      lo.SumBy(p.Won, cards.Card.Points),
			Bot:              p.IsBot(),
		}
		if p.UserID == recipient {
			view.Seat = p.Seat
			view.Hand = cards.SortedCopy(p.Hand)
		}
	}

	for i, play := range g.Trick.Plays {
		view.Trick[i] = PlayView{
			Seat:  play.Seat,
			Kind:  play.Combination.Kind().String(),
			Cards: play.Combination.Cards(),
		}
	}

	return view
}
