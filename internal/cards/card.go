package cards

import (
	"fmt"
	"slices"
)

// Suit identifies the suit of a card. The declaration order is the total
// order used to break ties between cards of equal value.
type Suit uint8

const (
	SuitSword Suit = iota
	SuitJade
	SuitPagoda
	SuitStar
	SuitMahJong
	SuitDog
	SuitPhoenix
	SuitDragon
)

var suitNames = [...]string{"Sword", "Jade", "Pagoda", "Star", "MahJong", "Dog", "Phoenix", "Dragon"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return fmt.Sprintf("Suit(%d)", s)
}

// IsSpecial reports whether the suit is one of the four single special cards
func (s Suit) IsSpecial() bool {
	return s >= SuitMahJong && s <= SuitDragon
}

// StandardSuits lists the four ranked suits
var StandardSuits = []Suit{SuitSword, SuitJade, SuitPagoda, SuitStar}

// SpecialSuits lists the four special cards in hand order
var SpecialSuits = []Suit{SuitMahJong, SuitDog, SuitPhoenix, SuitDragon}

// Value is the rank of a card
type Value uint8

const (
	// NoValue is carried by the special cards
	NoValue Value = 0
	MinRank Value = 2
	Jack    Value = 11
	Queen   Value = 12
	King    Value = 13
	Ace     Value = 14
	// AboveAce is reserved for ordering above the Ace
	AboveAce Value = 15
)

// Next returns the value one rank higher
func (v Value) Next() Value {
	return v + 1
}

// Card is an immutable playing card
type Card struct {
	Suit  Suit  `msgpack:"suit" json:"suit" yaml:"suit"`
	Value Value `msgpack:"value" json:"value" yaml:"value"`
}

// NewSpecial returns the special card for the given suit
func NewSpecial(suit Suit) Card {
	return Card{Suit: suit, Value: NoValue}
}

// IsSpecial reports whether this is MahJong, Dog, Phoenix or Dragon
func (c Card) IsSpecial() bool {
	return c.Suit.IsSpecial()
}

// IsValid reports whether the card exists in a standard deck
func (c Card) IsValid() bool {
	if c.Suit.IsSpecial() {
		return c.Value == NoValue
	}
	return c.Suit <= SuitStar && c.Value >= MinRank && c.Value <= Ace
}

// Points returns the scoring value of a card when captured in a trick
func (c Card) Points() int {
	switch {
	case c.Suit == SuitDragon:
		return 25
	case c.Suit == SuitPhoenix:
		return -25
	case c.Value == 5:
		return 5
	case c.Value == 10, c.Value == King:
		return 10
	default:
		return 0
	}
}

func (c Card) String() string {
	if c.IsSpecial() {
		return c.Suit.String()
	}
	return fmt.Sprintf("%s %d", c.Suit, c.Value)
}

// Compare orders cards by value, then suit
func (c Card) Compare(other Card) int {
	if c.Value != other.Value {
		if c.Value < other.Value {
			return -1
		}
		return 1
	}
	switch {
	case c.Suit < other.Suit:
		return -1
	case c.Suit > other.Suit:
		return 1
	default:
		return 0
	}
}

// SortForHand sorts cards in place for display: special cards first
// (MahJong, Dog, Phoenix, Dragon), then ascending value with the suit tiebreak.
func SortForHand(cards []Card) {
	slices.SortFunc(cards, Card.Compare)
}

// SortedCopy returns a sorted copy without touching the input
func SortedCopy(cards []Card) []Card {
	out := slices.Clone(cards)
	SortForHand(out)
	return out
}

// NewDeck returns the 56-card deck in hand order
func NewDeck() []Card {
	deck := make([]Card, 0, 56)
	for _, suit := range SpecialSuits {
		deck = append(deck, NewSpecial(suit))
	}
	for v := MinRank; v <= Ace; v++ {
		for _, suit := range StandardSuits {
			deck = append(deck, Card{Suit: suit, Value: v})
		}
	}
	return deck
}

// ContainsAll reports whether hand holds every card in cards, counting duplicates
func ContainsAll(hand, cards []Card) bool {
	remaining := slices.Clone(hand)
	for _, c := range cards {
		idx := slices.Index(remaining, c)
		if idx < 0 {
			return false
		}
		remaining = slices.Delete(remaining, idx, idx+1)
	}
	return true
}

// RemoveCards returns hand without the given cards. The caller must have
// checked ContainsAll first.
func RemoveCards(hand, cards []Card) []Card {
	out := slices.Clone(hand)
	for _, c := range cards {
		if idx := slices.Index(out, c); idx >= 0 {
			out = slices.Delete(out, idx, idx+1)
		}
	}
	return out
}
