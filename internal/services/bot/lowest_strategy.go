package bot

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

// LowestStrategy plays its lowest cards first and holds bombs back. It
// never calls grand tichu.
type LowestStrategy struct{}

// NewLowestStrategy creates a new LowestStrategy
func NewLowestStrategy() *LowestStrategy {
	return &LowestStrategy{}
}

func (s *LowestStrategy) CallGrandTichu(g *model.Game, p *model.Player) bool {
	return false
}

// ChooseTrade gives the two lowest cards to the opponents and the highest
// to the partner
func (s *LowestStrategy) ChooseTrade(g *model.Game, p *model.Player) model.Trade {
	hand := slices.Clone(p.Hand)
	slices.SortFunc(hand, func(a, b cards.Card) int {
		return cmp.Or(cmp.Compare(strength(a), strength(b)), a.Compare(b))
	})
	return model.Trade{
		Left:    hand[0],
		Right:   hand[1],
		Partner: hand[len(hand)-1],
	}
}

func (s *LowestStrategy) ChoosePlay(g *model.Game, p *model.Player) []cards.Card {
	candidates := Candidates(p.Hand, g.Trick.Top())
	if !g.Trick.IsEmpty() {
		candidates = lo.Reject(candidates, func(c cards.Combination, _ int) bool { return c.IsBomb() })
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0].Cards()
}

// strength ranks a card for trading: the dog lowest and the dragon highest
func strength(c cards.Card) int {
	switch c.Suit {
	case cards.SuitDog:
		return 0
	case cards.SuitMahJong:
		return 1
	case cards.SuitPhoenix:
		return int(cards.AboveAce)
	case cards.SuitDragon:
		return int(cards.AboveAce) + 1
	default:
		return int(c.Value)
	}
}
