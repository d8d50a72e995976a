package cards

import (
	"fmt"
	"strconv"
	"strings"
)

var rankNames = map[string]Value{"J": Jack, "Q": Queen, "K": King, "A": Ace}

// ParseCard reads a card written as a suit name followed by its rank, such
// as "sword10", "JadeK" or "star2". Special cards are written by name alone.
// Matching is case-insensitive.
func ParseCard(s string) (Card, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for i, name := range suitNames {
		suit := Suit(i)
		rest, ok := strings.CutPrefix(lower, strings.ToLower(name))
		if !ok {
			continue
		}
		if suit.IsSpecial() {
			if rest != "" {
				return Card{}, fmt.Errorf("card %q: %s takes no rank", s, suit)
			}
			return NewSpecial(suit), nil
		}
		value, err := parseRank(rest)
		if err != nil {
			return Card{}, fmt.Errorf("card %q: %w", s, err)
		}
		return Card{Suit: suit, Value: value}, nil
	}
	return Card{}, fmt.Errorf("card %q: unknown suit", s)
}

// ParseCards reads a comma or space separated list of cards
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseRank(s string) (Value, error) {
	if v, ok := rankNames[strings.ToUpper(s)]; ok {
		return v, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(MinRank) || n > int(Ace) {
		return NoValue, fmt.Errorf("invalid rank %q", s)
	}
	return Value(n), nil
}
