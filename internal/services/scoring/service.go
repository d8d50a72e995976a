package scoring

import (
	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

// Round bonuses
const (
	DoubleVictoryPoints = 200
	GrandTichuPoints    = 200
)

// TeamScore is one team's result for a round
type TeamScore struct {
	Cards         int // points in captured tricks and the last player's hand
	DoubleVictory int
	GrandTichu    int // bonuses and penalties for grand tichu calls
}

// Total returns the round score
func (t TeamScore) Total() int {
	return t.Cards + t.DoubleVictory + t.GrandTichu
}

// Service scores ended rounds
type Service struct{}

// New creates a new scoring Service
func New() *Service {
	return &Service{}
}

// ScoreRound scores a round that has just ended. The last player's tricks
// must already have gone to the winner; their hand still counts for the
// opponents here. g is not modified.
func (s *Service) ScoreRound(g *model.Game) [2]TeamScore {
	var scores [2]TeamScore

	if team, ok := doubleVictory(g); ok {
		scores[team].DoubleVictory = DoubleVictoryPoints
	} else {
		for _, p := range g.Players {
			team := model.Team(p.Seat)
			scores[team].Cards += lo.SumBy(p.Won, cards.Card.Points)
			if !p.IsOut() {
				scores[1-team].Cards += lo.SumBy(p.Hand, cards.Card.Points)
			}
		}
	}

	for _, p := range g.Players {
		if !calledGrandTichu(p) {
			continue
		}
		team := model.Team(p.Seat)
		if p.FinishedPosition == 1 {
			scores[team].GrandTichu += GrandTichuPoints
		} else {
			scores[team].GrandTichu -= GrandTichuPoints
		}
	}

	return scores
}

// Winner returns the team with the higher total, or -1 on a tie
func (s *Service) Winner(scores [2]TeamScore) int {
	switch a, b := scores[0].Total(), scores[1].Total(); {
	case a > b:
		return 0
	case b > a:
		return 1
	default:
		return -1
	}
}

// doubleVictory reports whether one team took first and second place
func doubleVictory(g *model.Game) (int, bool) {
	first, ok1 := lo.Find(g.Players, func(p *model.Player) bool { return p.FinishedPosition == 1 })
	second, ok2 := lo.Find(g.Players, func(p *model.Player) bool { return p.FinishedPosition == 2 })
	if !ok1 || !ok2 || model.Team(first.Seat) != model.Team(second.Seat) {
		return 0, false
	}
	return model.Team(first.Seat), true
}

// calledGrandTichu is true for a call whether or not it has been settled yet
func calledGrandTichu(p *model.Player) bool {
	switch p.GrandTichu {
	case model.CallCalled, model.CallAchieved, model.CallFailed:
		return true
	default:
		return false
	}
}

// Interface for dependency injection
type ServiceInterface interface {
	ScoreRound(g *model.Game) [2]TeamScore
	Winner(scores [2]TeamScore) int
}

var _ ServiceInterface = (*Service)(nil)
