package bot

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
)

// Strategy decides a bot's moves. The game passed in is a copy.
type Strategy interface {
	// CallGrandTichu decides the grand tichu call on the first eight cards
	CallGrandTichu(g *model.Game, p *model.Player) bool
	// ChooseTrade picks three different cards from the hand to give away
	ChooseTrade(g *model.Game, p *model.Player) model.Trade
	// ChoosePlay returns the cards to play on the current trick, or nil to pass
	ChoosePlay(g *model.Game, p *model.Player) []cards.Card
}

// Candidates lists the singles, pairs, trios and four-of-a-kind bombs in a
// hand that may be played on top, lowest first. The phoenix comes after the
// other non-bombs and bombs come last. top is nil when leading.
func Candidates(hand []cards.Card, top *cards.Combination) []cards.Combination {
	groups := lo.GroupBy(lo.Filter(hand, func(c cards.Card, _ int) bool { return !c.IsSpecial() }),
		func(c cards.Card) cards.Value { return c.Value })

	var sets [][]cards.Card
	for _, group := range groups {
		group = cards.SortedCopy(group)
		for n := 1; n <= len(group); n++ {
			sets = append(sets, group[:n])
		}
	}
	for _, c := range hand {
		if c.IsSpecial() {
			sets = append(sets, []cards.Card{c})
		}
	}

	var out []cards.Combination
	for _, set := range sets {
		combo, ok := cards.Classify(set)
		if !ok {
			continue
		}
		if _, err := cards.Follow(top, combo); err != nil {
			continue
		}
		out = append(out, combo)
	}

	slices.SortFunc(out, func(a, b cards.Combination) int {
		return cmp.Or(
			compareBool(a.IsBomb(), b.IsBomb()),
			compareBool(a.IsPhoenix(), b.IsPhoenix()),
			cmp.Compare(a.Key(), b.Key()),
			cmp.Compare(b.Len(), a.Len()),
			a.Cards()[0].Compare(b.Cards()[0]),
		)
	})
	return out
}

// compareBool orders false before true
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
