package cards

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Combination errors
var (
	ErrInvalidCombination  = errors.New("cards do not form a valid combination")
	ErrDogMustLead         = errors.New("the dog can only be played as a lead")
	ErrCombinationMismatch = errors.New("combination does not match the current trick")
	ErrDoesNotBeat         = errors.New("combination does not beat the current trick")
)

// Kind identifies the shape of a combination
type Kind uint8

const (
	KindSingle Kind = iota + 1
	KindPair
	KindTrio
	KindBombOf4
	KindFullHouse
	KindSequence
	KindSequenceBomb
	KindSequenceOfPairs
)

var kindNames = map[Kind]string{
	KindSingle:          "Single",
	KindPair:            "Pair",
	KindTrio:            "Trio",
	KindBombOf4:         "BombOf4",
	KindFullHouse:       "FullHouse",
	KindSequence:        "Sequence",
	KindSequenceBomb:    "SequenceBomb",
	KindSequenceOfPairs: "SequenceOfPairs",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Single-card keys for the special cards
const (
	mahJongKey = 1
	phoenixLed = 1
	dragonKey  = int(AboveAce) + 1
)

// minSequenceLen is the shortest plain or bomb sequence
const minSequenceLen = 5

// Combination is a set of cards forming one legal shape. Values are only
// produced by Classify, so the shape always matches the cards.
type Combination struct {
	kind   Kind
	cards  []Card
	value  Value
	suit   Suit
	length int
	key    int
}

// Kind returns the combination shape
func (c Combination) Kind() Kind { return c.kind }

// Cards returns a copy of the contributing cards in hand order
func (c Combination) Cards() []Card { return slices.Clone(c.cards) }

// Len returns the number of cards
func (c Combination) Len() int { return c.length }

// Value is the rank the combination is compared on: the card value for
// singles, pairs, trios and four-of-a-kind bombs, the trio value for a full
// house and the starting value for sequences.
func (c Combination) Value() Value { return c.value }

// Suit is the shared suit of a sequence bomb
func (c Combination) Suit() Suit { return c.suit }

// Key is the comparison key between two combinations of the same kind and length
func (c Combination) Key() int { return c.key }

// IsBomb reports whether the combination outranks all non-bombs
func (c Combination) IsBomb() bool {
	return c.kind == KindBombOf4 || c.kind == KindSequenceBomb
}

// Pairs returns the number of pairs in a sequence of pairs
func (c Combination) Pairs() int {
	if c.kind != KindSequenceOfPairs {
		return 0
	}
	return c.length / 2
}

// Points sums the trick points of the cards
func (c Combination) Points() int {
	return lo.SumBy(c.cards, Card.Points)
}

func (c Combination) isSingleOf(suit Suit) bool {
	return c.kind == KindSingle && c.cards[0].Suit == suit
}

// IsDog reports whether this is the dog played alone
func (c Combination) IsDog() bool { return c.isSingleOf(SuitDog) }

// IsDragon reports whether this is the dragon played alone
func (c Combination) IsDragon() bool { return c.isSingleOf(SuitDragon) }

// IsPhoenix reports whether this is the phoenix played alone
func (c Combination) IsPhoenix() bool { return c.isSingleOf(SuitPhoenix) }

func (c Combination) String() string {
	return fmt.Sprintf("%s(value=%d, len=%d)", c.kind, c.value, c.length)
}

// Classify maps a card set to a combination. The second result is false when
// the cards form no legal shape. The result does not depend on input order.
func Classify(cards []Card) (Combination, bool) {
	sorted := SortedCopy(cards)
	n := len(sorted)

	if n == 0 {
		return Combination{}, false
	}
	if n == 1 {
		return newSingle(sorted[0]), true
	}

	// Special cards only play alone; the phoenix wildcard is not supported
	if lo.SomeBy(sorted, Card.IsSpecial) {
		return Combination{}, false
	}

	switch n {
	case 2:
		if sorted[0].Value == sorted[1].Value {
			return build(KindPair, sorted, sorted[0].Value), true
		}
		return Combination{}, false

	case 3:
		if allSameValue(sorted) {
			return build(KindTrio, sorted, sorted[0].Value), true
		}
		return Combination{}, false

	case 4:
		if allSameValue(sorted) {
			return build(KindBombOf4, sorted, sorted[0].Value), true
		}
		if start, ok := pairSequenceStart(sorted); ok {
			return build(KindSequenceOfPairs, sorted, start), true
		}
		return Combination{}, false

	case 5:
		// leading triple, trailing pair
		if allSameValue(sorted[:3]) && allSameValue(sorted[3:]) {
			return build(KindFullHouse, sorted, sorted[0].Value), true
		}
		// leading pair, trailing triple
		if allSameValue(sorted[:2]) && allSameValue(sorted[2:]) {
			return build(KindFullHouse, sorted, sorted[2].Value), true
		}
		return classifySequence(sorted)

	default:
		if c, ok := classifySequence(sorted); ok {
			return c, true
		}
		if start, ok := pairSequenceStart(sorted); ok {
			return build(KindSequenceOfPairs, sorted, start), true
		}
		return Combination{}, false
	}
}

// classifySequence recognises n >= 5 cards of distinct consecutive values
func classifySequence(sorted []Card) (Combination, bool) {
	if len(sorted) < minSequenceLen || !isConsecutive(sorted) {
		return Combination{}, false
	}
	first := sorted[0]
	if lo.EveryBy(sorted, func(c Card) bool { return c.Suit == first.Suit }) {
		c := build(KindSequenceBomb, sorted, first.Value)
		c.suit = first.Suit
		return c, true
	}
	return build(KindSequence, sorted, first.Value), true
}

func newSingle(card Card) Combination {
	c := build(KindSingle, []Card{card}, card.Value)
	switch card.Suit {
	case SuitMahJong:
		c.key = mahJongKey
	case SuitPhoenix:
		c.key = phoenixLed
	case SuitDragon:
		c.key = dragonKey
	}
	return c
}

func build(kind Kind, sorted []Card, value Value) Combination {
	return Combination{
		kind:   kind,
		cards:  sorted,
		value:  value,
		length: len(sorted),
		key:    int(value),
	}
}

func allSameValue(cards []Card) bool {
	return lo.EveryBy(cards, func(c Card) bool { return c.Value == cards[0].Value })
}

// isConsecutive reports whether each sorted card is exactly one rank above the previous
func isConsecutive(sorted []Card) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Value.Next() != sorted[i].Value {
			return false
		}
	}
	return true
}

// pairSequenceStart checks for k >= 2 distinct consecutive values, each
// appearing exactly twice, and returns the lowest value.
func pairSequenceStart(sorted []Card) (Value, bool) {
	if len(sorted) < 4 || len(sorted)%2 != 0 {
		return NoValue, false
	}
	counts := lo.CountValuesBy(sorted, func(c Card) Value { return c.Value })
	values := lo.Keys(counts)
	slices.Sort(values)
	if len(values) != len(sorted)/2 {
		return NoValue, false
	}
	for i, v := range values {
		if counts[v] != 2 {
			return NoValue, false
		}
		if i > 0 && values[i-1].Next() != v {
			return NoValue, false
		}
	}
	return values[0], true
}

// Follow checks that next may be played on top of the current trick and
// returns the combination as it now sits on the trick. top is nil when
// leading. A phoenix single takes the key of the single it beats.
func Follow(top *Combination, next Combination) (Combination, error) {
	if top == nil {
		return next, nil
	}
	if next.IsDog() {
		return Combination{}, ErrDogMustLead
	}

	if next.IsBomb() {
		if !top.IsBomb() || bombBeats(next, *top) {
			return next, nil
		}
		return Combination{}, ErrDoesNotBeat
	}
	if top.IsBomb() {
		return Combination{}, ErrDoesNotBeat
	}

	if next.kind != top.kind || next.length != top.length {
		return Combination{}, fmt.Errorf("%w: %s on %s", ErrCombinationMismatch, next.kind, top.kind)
	}

	if next.IsPhoenix() {
		if top.IsDragon() {
			return Combination{}, ErrDoesNotBeat
		}
		next.key = top.key
		return next, nil
	}

	if next.key > top.key {
		return next, nil
	}
	return Combination{}, ErrDoesNotBeat
}

func bombBeats(next, top Combination) bool {
	switch {
	case next.kind == KindSequenceBomb && top.kind == KindBombOf4:
		return true
	case next.kind == KindBombOf4 && top.kind == KindSequenceBomb:
		return false
	case next.kind == KindSequenceBomb && next.length != top.length:
		return next.length > top.length
	default:
		return next.key > top.key
	}
}
