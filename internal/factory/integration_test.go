package factory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

var users = []model.UserID{"north", "east", "south", "west"}

// seatFour creates a game and fills every seat
func (s *IntegrationSuite) seatFour() *model.Game {
	s.app.MockRandom.QueueString("TICH")

	game, err := s.app.GameController.CreateGame(s.ctx, users[0], "North")
	s.Require().NoError(err)
	for i, id := range users[1:] {
		game, err = s.app.GameController.JoinGame(s.ctx, game.Code, id, fmt.Sprintf("Player %d", i+1))
		s.Require().NoError(err)
	}
	return game
}

// playOut drives a round to the end: whoever holds the turn plays the first
// single that is accepted, otherwise passes.
func (s *IntegrationSuite) playOut(id model.GameID) *model.Game {
	game, err := s.app.GameController.GetGame(s.ctx, id)
	s.Require().NoError(err)

	for step := 0; game.Stage == model.StagePlaying; step++ {
		s.Require().Less(step, 1000, "round did not finish")

		player := game.Players[game.Turn]
		played := false
		for _, c := range player.Hand {
			next, err := s.app.GameController.PlayCards(s.ctx, id, player.UserID, []cards.Card{c})
			if err == nil {
				game, played = next, true
				break
			}
		}
		if !played {
			game, err = s.app.GameController.Pass(s.ctx, id, player.UserID)
			s.Require().NoError(err)
		}
	}
	return game
}

// Test: Complete round from creation to the stored summary
func (s *IntegrationSuite) TestCompleteRoundFlow() {
	game := s.seatFour()
	s.Equal(model.StageGrandTichuCall, game.Stage)
	for _, p := range game.Players {
		s.Len(p.Hand, 8)
	}

	for _, id := range users {
		game, _ = s.app.GameController.CallGrandTichu(s.ctx, game.ID, id, false)
	}
	s.Require().Equal(model.StageTrading, game.Stage)
	for _, p := range game.Players {
		s.Len(p.Hand, 14)
	}

	for _, p := range game.Players {
		trade := model.Trade{Left: p.Hand[0], Partner: p.Hand[1], Right: p.Hand[2]}
		var err error
		game, err = s.app.GameController.SubmitTrade(s.ctx, game.ID, p.UserID, trade)
		s.Require().NoError(err)
	}
	s.Require().Equal(model.StagePlaying, game.Stage)

	// The MahJong holder leads
	leader := game.Players[game.Turn]
	s.Contains(leader.Hand, cards.NewSpecial(cards.SuitMahJong))

	game = s.playOut(game.ID)
	s.Equal(model.StageEnded, game.Stage)

	total := game.TeamScores[0] + game.TeamScores[1]
	s.Contains([]int{100, 200}, total)

	recent, err := s.app.Storage.ListRecentSummaries(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(game.Code, recent[0].Code)
	s.Equal(game.TeamScores, recent[0].TeamScores)
}

// Test: Game codes are released once everyone leaves
func (s *IntegrationSuite) TestLeavingReleasesCode() {
	s.app.MockRandom.QueueString("LEAV")
	game, err := s.app.GameController.CreateGame(s.ctx, users[0], "North")
	s.Require().NoError(err)
	s.Equal(1, s.app.GameController.GameCount())

	left, err := s.app.GameController.LeaveGame(s.ctx, game.ID, users[0])
	s.Require().NoError(err)
	s.Nil(left)
	s.Equal(0, s.app.GameController.GameCount())

	_, err = s.app.Storage.ResolveCode(s.ctx, "LEAV")
	s.ErrorIs(err, model.ErrCodeNotFound)

	// The code can be handed out again
	s.app.MockRandom.QueueString("LEAV")
	again, err := s.app.GameController.CreateGame(s.ctx, users[1], "East")
	s.Require().NoError(err)
	s.Equal(model.GameCode("LEAV"), again.Code)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "sqlite"})
	if err == nil {
		t.Fatal("expected an error for an unknown storage type")
	}
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	if err == nil {
		t.Fatal("expected an error without redis config")
	}
}
