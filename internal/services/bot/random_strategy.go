package bot

import (
	"slices"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/dependencies/random"
	"github.com/mcoot/tichu/internal/model"
)

// grandTichuOdds is one in how many hands the random strategy calls
const grandTichuOdds = 20

// RandomStrategy picks uniformly among its legal moves
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

func (s *RandomStrategy) CallGrandTichu(g *model.Game, p *model.Player) bool {
	return s.random.Intn(grandTichuOdds) == 0
}

// ChooseTrade gives away three random cards
func (s *RandomStrategy) ChooseTrade(g *model.Game, p *model.Player) model.Trade {
	hand := slices.Clone(p.Hand)
	for i := range 3 {
		j := i + s.random.Intn(len(hand)-i)
		hand[i], hand[j] = hand[j], hand[i]
	}
	return model.Trade{Left: hand[0], Partner: hand[1], Right: hand[2]}
}

// ChoosePlay picks a random candidate. Passing counts as one more option
// when following.
func (s *RandomStrategy) ChoosePlay(g *model.Game, p *model.Player) []cards.Card {
	candidates := Candidates(p.Hand, g.Trick.Top())
	options := len(candidates)
	if !g.Trick.IsEmpty() {
		options++
	}
	if options == 0 {
		return nil
	}
	i := s.random.Intn(options)
	if i >= len(candidates) {
		return nil
	}
	return candidates[i].Cards()
}
