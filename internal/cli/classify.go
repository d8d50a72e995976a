package cli

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mcoot/tichu/internal/cards"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <card>...",
		Short: "Name the combination a set of cards forms",
		Long: `Classify a set of cards without contacting a server.

Cards are written as a suit name followed by a rank, e.g. sword10, jadeK,
star2. Special cards are written by name: mahjong, dog, phoenix, dragon.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hand, err := cards.ParseCards(strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(classify(hand))
			return nil
		},
	}
}

func classify(hand []cards.Card) ClassifyResult {
	result := ClassifyResult{
		Cards: lo.Map(cards.SortedCopy(hand), func(c cards.Card, _ int) string { return cardToken(c) }),
	}
	combo, ok := cards.Classify(hand)
	if !ok {
		return result
	}
	result.Valid = true
	result.Kind = combo.Kind().String()
	result.Value = int(combo.Value())
	result.Length = combo.Len()
	result.Bomb = combo.IsBomb()
	result.Points = combo.Points()
	return result
}
