package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/dependencies/clock"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/services/scoring"
	"github.com/mcoot/tichu/internal/storage"
)

const (
	// GameCodeLength is the length of generated game codes
	GameCodeLength = 4
	// GameCodeAlphabet is the characters used in game codes (avoid confusing chars)
	GameCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// maxCodeAttempts bounds the search for an unused code
	maxCodeAttempts = 32
)

// Controller manages the game state machine. Every mutation goes through
// the registry's per-game lock.
type Controller struct {
	registry *Registry
	storage  storage.Storage
	scoring  scoring.ServiceInterface
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	registry *Registry,
	storage storage.Storage,
	scoring scoring.ServiceInterface,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry: registry,
		storage:  storage,
		scoring:  scoring,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "game")),
	}
}

// CreateGame opens a new game in the lobby stage with the owner seated
func (c *Controller) CreateGame(ctx context.Context, owner model.UserID, displayName string) (*model.Game, error) {
	id := model.GameID(c.random.ID())

	code, err := c.claimCode(ctx, id)
	if err != nil {
		return nil, err
	}

	game := model.NewGame(id, code, c.clock.Now())
	game.Version = 1
	if err := addPlayer(game, &model.Player{UserID: owner, DisplayName: displayName}, c.random); err != nil {
		_ = c.storage.ReleaseCode(ctx, code, id)
		return nil, err
	}
	c.registry.Insert(game)

	c.logger.Info("game created",
		slog.String("game_id", string(id)),
		slog.String("game_code", string(code)),
		slog.String("owner", string(owner)),
	)

	return game.Clone(), nil
}

// claimCode generates codes until one is free in the index
func (c *Controller) claimCode(ctx context.Context, id model.GameID) (model.GameCode, error) {
	for range maxCodeAttempts {
		code := model.GameCode(c.random.String(GameCodeLength, GameCodeAlphabet))
		err := c.storage.ClaimCode(ctx, code, id)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, model.ErrCodeTaken) {
			return "", err
		}
	}
	return "", model.ErrCodeExhausted
}

// JoinGame seats a player in the game with the given code
func (c *Controller) JoinGame(ctx context.Context, code model.GameCode, userID model.UserID, displayName string) (*model.Game, error) {
	id, err := c.storage.ResolveCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrCodeNotFound) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	game, err := c.mutate(ctx, id, func(g *model.Game) error {
		return addPlayer(g, &model.Player{UserID: userID, DisplayName: displayName}, c.random)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("game_id", string(id)),
		slog.String("user_id", string(userID)),
		slog.Int("player_count", len(game.Players)),
		slog.String("stage", string(game.Stage)),
	)
	return game, nil
}

// AddBot seats a server-played player in a game still in the lobby
func (c *Controller) AddBot(ctx context.Context, id model.GameID, botID model.UserID, displayName, strategy string) (*model.Game, error) {
	bot := &model.Player{UserID: botID, DisplayName: displayName, BotStrategy: strategy}
	game, err := c.mutate(ctx, id, func(g *model.Game) error {
		return addPlayer(g, bot, c.random)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("bot joined",
		slog.String("game_id", string(id)),
		slog.String("user_id", string(botID)),
		slog.String("strategy", strategy),
		slog.Int("player_count", len(game.Players)),
	)
	return game, nil
}

// GetGame returns a copy of a game
func (c *Controller) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return c.registry.Get(id)
}

// CallGrandTichu records a player's grand tichu decision
func (c *Controller) CallGrandTichu(ctx context.Context, id model.GameID, userID model.UserID, call bool) (*model.Game, error) {
	return c.mutate(ctx, id, func(g *model.Game) error {
		return callGrandTichu(g, userID, call)
	})
}

// SubmitTrade records the cards a player passes on
func (c *Controller) SubmitTrade(ctx context.Context, id model.GameID, userID model.UserID, trade model.Trade) (*model.Game, error) {
	return c.mutate(ctx, id, func(g *model.Game) error {
		return submitTrade(g, userID, trade)
	})
}

// PlayCards lays a combination on the current trick
func (c *Controller) PlayCards(ctx context.Context, id model.GameID, userID model.UserID, played []cards.Card) (*model.Game, error) {
	return c.mutate(ctx, id, func(g *model.Game) error {
		return playCards(g, userID, played)
	})
}

// Pass declines to play on the current trick
func (c *Controller) Pass(ctx context.Context, id model.GameID, userID model.UserID) (*model.Game, error) {
	return c.mutate(ctx, id, func(g *model.Game) error {
		return pass(g, userID)
	})
}

// LeaveGame unseats a player. The returned game is nil once the last
// player has left and the game is torn down.
func (c *Controller) LeaveGame(ctx context.Context, id model.GameID, userID model.UserID) (*model.Game, error) {
	game, err := c.mutate(ctx, id, func(g *model.Game) error {
		return removePlayer(g, userID)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player left",
		slog.String("game_id", string(id)),
		slog.String("user_id", string(userID)),
	)

	if len(game.Players) == 0 && c.registry.RemoveIfEmpty(id) {
		if err := c.storage.ReleaseCode(ctx, game.Code, id); err != nil {
			c.logger.Error("failed to release game code",
				slog.String("game_code", string(game.Code)),
				slog.Any("error", err),
			)
		}
		c.logger.Info("game torn down", slog.String("game_id", string(id)))
		return nil, nil
	}
	return game, nil
}

// GameCount returns the number of live games
func (c *Controller) GameCount() int {
	return c.registry.Count()
}

// mutate applies fn under the game's lock. A round that ends is scored
// under the same lock and its summary recorded.
func (c *Controller) mutate(ctx context.Context, id model.GameID, fn func(g *model.Game) error) (*model.Game, error) {
	var scores *[2]scoring.TeamScore
	game, err := c.registry.Update(id, func(g *model.Game) error {
		before := g.Stage
		if err := fn(g); err != nil {
			return err
		}
		g.Version++
		g.UpdatedAt = c.clock.Now()
		if before != model.StageEnded && g.Stage == model.StageEnded {
			result := c.scoreRound(g)
			scores = &result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if scores != nil {
		c.logger.Info("game ended",
			slog.String("game_id", string(id)),
			slog.Int("team_0", game.TeamScores[0]),
			slog.Int("team_1", game.TeamScores[1]),
			slog.Int("winner", c.scoring.Winner(*scores)),
		)
		if err := c.storage.SaveSummary(ctx, model.NewGameSummary(game, game.UpdatedAt)); err != nil {
			c.logger.Error("failed to save game summary",
				slog.String("game_id", string(id)),
				slog.Any("error", err),
			)
		}
	}
	return game, nil
}

// scoreRound sets the team scores and settles the grand tichu calls
func (c *Controller) scoreRound(g *model.Game) [2]scoring.TeamScore {
	scores := c.scoring.ScoreRound(g)
	g.TeamScores = [2]int{scores[0].Total(), scores[1].Total()}
	for _, p := range g.Players {
		if p.GrandTichu == model.CallCalled {
			p.GrandTichu = lo.Ternary(p.FinishedPosition == 1, model.CallAchieved, model.CallFailed)
		}
	}
	return scores
}
