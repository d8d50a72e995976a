// Package bot plays seats on the server. Bots have no connection: their
// moves are made right after the human action that gives them a turn.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/services/game"
)

const (
	// IDPrefix starts every bot user id
	IDPrefix = "bot-"
	// DefaultStrategy is used when AddBot names none
	DefaultStrategy = "lowest"
	// MaxBotIterations is a safety limit for the ProcessBotActions loop
	MaxBotIterations = 1000
)

// BotActionType represents the type of action a bot took
type BotActionType string

const (
	ActionCall    BotActionType = "call"
	ActionDecline BotActionType = "decline"
	ActionTrade   BotActionType = "trade"
	ActionPlay    BotActionType = "play"
	ActionPass    BotActionType = "pass"
)

// BotAction is a single move made during ProcessBotActions, with the game
// as it stood afterwards
type BotAction struct {
	Type   BotActionType
	UserID model.UserID
	Cards  []cards.Card
	Game   *model.Game
}

// DefaultStrategies returns every built-in strategy by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		DefaultStrategy: NewLowestStrategy(),
		"random":        NewRandomStrategy(rnd),
	}
}

// Service manages bot players in games
type Service struct {
	games      *game.Controller
	strategies map[string]Strategy
	random     random.Random
	logger     *slog.Logger
}

// NewService creates a new bot Service
func NewService(games *game.Controller, strategies map[string]Strategy, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		games:      games,
		strategies: strategies,
		random:     rnd,
		logger:     logger.With(slog.String("component", "bot")),
	}
}

// AddBot seats a bot in a game that is still in the lobby. An empty
// strategy means DefaultStrategy.
func (s *Service) AddBot(ctx context.Context, id model.GameID, strategy string) (*model.Game, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if _, ok := s.strategies[strategy]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownStrategy, strategy)
	}

	g, err := s.games.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	bots := lo.CountBy(g.Players, (*model.Player).IsBot)

	botID := model.UserID(IDPrefix + s.random.ID())
	return s.games.AddBot(ctx, id, botID, fmt.Sprintf("Bot %d", bots+1), strategy)
}

// Disband removes the bots from a game no human is seated in any more, so
// the game is torn down. It returns the game unchanged when a human remains,
// and nil once the game is gone.
func (s *Service) Disband(ctx context.Context, g *model.Game) (*model.Game, error) {
	if g.HasHumans() {
		return g, nil
	}

	id := g.ID
	for _, p := range g.Players {
		var err error
		g, err = s.games.LeaveGame(ctx, id, p.UserID)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("bots disbanded", slog.String("game_id", string(id)))
	return g, nil
}

// ProcessBotActions makes bot moves until a human has to act or the round
// is over. It returns every action taken so callers can broadcast them.
func (s *Service) ProcessBotActions(ctx context.Context, id model.GameID) ([]BotAction, error) {
	var actions []BotAction

	for range MaxBotIterations {
		g, err := s.games.GetGame(ctx, id)
		if err != nil {
			return actions, err
		}

		action, err := s.step(ctx, g)
		if err != nil {
			if s.lostRace(ctx, g, err) {
				// Another loop moved this bot first
				break
			}
			return actions, err
		}
		if action == nil {
			break
		}
		actions = append(actions, *action)
	}

	return actions, nil
}

// step makes the next pending bot move, or returns nil when there is none
func (s *Service) step(ctx context.Context, g *model.Game) (*BotAction, error) {
	switch g.Stage {
	case model.StageGrandTichuCall:
		p, ok := lo.Find(g.Players, func(p *model.Player) bool {
			return p.IsBot() && p.GrandTichu == model.CallUndecided
		})
		if !ok {
			return nil, nil
		}
		call := s.strategyFor(p).CallGrandTichu(g, p)
		next, err := s.games.CallGrandTichu(ctx, g.ID, p.UserID, call)
		if err != nil {
			return nil, err
		}
		return &BotAction{Type: lo.Ternary(call, ActionCall, ActionDecline), UserID: p.UserID, Game: next}, nil

	case model.StageTrading:
		p, ok := lo.Find(g.Players, func(p *model.Player) bool {
			return p.IsBot() && p.Trade == nil
		})
		if !ok {
			return nil, nil
		}
		trade := s.strategyFor(p).ChooseTrade(g, p)
		next, err := s.games.SubmitTrade(ctx, g.ID, p.UserID, trade)
		if err != nil {
			return nil, err
		}
		return &BotAction{Type: ActionTrade, UserID: p.UserID, Cards: trade.Cards(), Game: next}, nil

	case model.StagePlaying:
		p := g.PlayerAt(g.Turn)
		if p == nil || !p.IsBot() {
			return nil, nil
		}
		return s.play(ctx, g, p)
	}

	return nil, nil
}

// play makes the bot's move on the current trick. A lead is never passed:
// the lowest candidate is played if the strategy declines.
func (s *Service) play(ctx context.Context, g *model.Game, p *model.Player) (*BotAction, error) {
	played := s.strategyFor(p).ChoosePlay(g, p)
	if played == nil && g.Trick.IsEmpty() {
		candidates := Candidates(p.Hand, nil)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("bot %s has nothing to lead", p.UserID)
		}
		played = candidates[0].Cards()
	}

	if played == nil {
		next, err := s.games.Pass(ctx, g.ID, p.UserID)
		if err != nil {
			return nil, err
		}
		return &BotAction{Type: ActionPass, UserID: p.UserID, Game: next}, nil
	}

	next, err := s.games.PlayCards(ctx, g.ID, p.UserID, played)
	if err != nil {
		return nil, err
	}
	return &BotAction{Type: ActionPlay, UserID: p.UserID, Cards: played, Game: next}, nil
}

// strategyFor returns the bot's strategy, falling back to DefaultStrategy
func (s *Service) strategyFor(p *model.Player) Strategy {
	if st, ok := s.strategies[p.BotStrategy]; ok {
		return st
	}
	return s.strategies[DefaultStrategy]
}

// lostRace reports whether err came from acting on a stale read: the game
// moved on or was torn down after read was taken. Another runner has
// already made the move in that case.
func (s *Service) lostRace(ctx context.Context, read *model.Game, err error) bool {
	if errors.Is(err, model.ErrNotYourTurn) ||
		errors.Is(err, model.ErrAlreadyDecided) ||
		errors.Is(err, model.ErrAlreadyTraded) ||
		errors.Is(err, model.ErrWrongStage) {
		return true
	}

	current, getErr := s.games.GetGame(ctx, read.ID)
	if getErr != nil {
		return errors.Is(getErr, model.ErrGameNotFound)
	}
	return current.Version != read.Version
}
