package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func card(suit cards.Suit, v cards.Value) cards.Card { return cards.Card{Suit: suit, Value: v} }

// endedGame builds a four player game where finished[i] is seat i's
// finishing position (0 for the player left holding cards)
func (s *ServiceSuite) endedGame(finished [4]int) *model.Game {
	g := model.NewGame("game-1", "ABCD", time.Time{})
	for seat := range model.MaxPlayers {
		g.Players = append(g.Players, &model.Player{
			UserID:           model.UserID(string(rune('a' + seat))),
			Seat:             seat,
			GrandTichu:       model.CallDeclined,
			FinishedPosition: finished[seat],
		})
	}
	g.Stage = model.StageEnded
	return g
}

func (s *ServiceSuite) TestCardPointsPerTeam() {
	g := s.endedGame([4]int{1, 2, 3, 0})
	g.Players[0].Won = []cards.Card{card(cards.SuitSword, 5), card(cards.SuitJade, cards.King)}
	g.Players[1].Won = []cards.Card{cards.NewSpecial(cards.SuitDragon)}
	g.Players[2].Won = []cards.Card{cards.NewSpecial(cards.SuitPhoenix), card(cards.SuitStar, 10)}
	g.Players[3].Hand = []cards.Card{card(cards.SuitPagoda, 10), card(cards.SuitPagoda, 3)}

	scores := s.service.ScoreRound(g)

	// team 0: 5 + 10 - 25 + 10, plus 10 from seat 3's hand
	s.Equal(TeamScore{Cards: 10}, scores[0])
	s.Equal(TeamScore{Cards: 25}, scores[1])
	s.Equal(1, s.service.Winner(scores))
}

func (s *ServiceSuite) TestDoubleVictoryIgnoresCards() {
	g := s.endedGame([4]int{2, 0, 1, 0})
	g.Players[1].Won = []cards.Card{cards.NewSpecial(cards.SuitDragon)}
	g.Players[3].Hand = []cards.Card{card(cards.SuitPagoda, 10)}

	scores := s.service.ScoreRound(g)

	s.Equal(TeamScore{DoubleVictory: DoubleVictoryPoints}, scores[0])
	s.Equal(TeamScore{}, scores[1])
	s.Equal(0, s.service.Winner(scores))
}

func (s *ServiceSuite) TestGrandTichu() {
	tests := []struct {
		name     string
		call     model.TichuCallStatus
		finished [4]int
		want     int
	}{
		{"called and went out first", model.CallCalled, [4]int{1, 2, 3, 0}, GrandTichuPoints},
		{"called and went out later", model.CallCalled, [4]int{2, 1, 3, 0}, -GrandTichuPoints},
		{"already settled counts the same", model.CallAchieved, [4]int{1, 2, 3, 0}, GrandTichuPoints},
		{"declined", model.CallDeclined, [4]int{1, 2, 3, 0}, 0},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			g := s.endedGame(tt.finished)
			g.Players[0].GrandTichu = tt.call

			scores := s.service.ScoreRound(g)
			s.Equal(tt.want, scores[0].GrandTichu)
			s.Zero(scores[1].GrandTichu)
		})
	}
}

func (s *ServiceSuite) TestTotalAndTie() {
	scores := [2]TeamScore{
		{Cards: 50, GrandTichu: GrandTichuPoints},
		{Cards: 50, GrandTichu: 200},
	}
	s.Equal(250, scores[0].Total())
	s.Equal(-1, s.service.Winner(scores))
}

func (s *ServiceSuite) TestScoreRoundDoesNotModifyGame() {
	g := s.endedGame([4]int{1, 2, 3, 0})
	g.Players[0].GrandTichu = model.CallCalled
	g.Players[3].Hand = []cards.Card{card(cards.SuitPagoda, 10)}

	s.service.ScoreRound(g)
	s.Equal(model.CallCalled, g.Players[0].GrandTichu)
	s.Len(g.Players[3].Hand, 1)
}
