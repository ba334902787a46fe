package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// Suit identifies one of the four color suits or one of the two joker identities.
type Suit string

const (
	SuitHeart   Suit = "HEART"
	SuitDiamond Suit = "DIAMOND"
	SuitClub    Suit = "CLUB"
	SuitSpade   Suit = "SPADE"
	// Jokers are identified by suit, not value.
	SuitJokerRed   Suit = "JOKER_RED"
	SuitJokerBlack Suit = "JOKER_BLACK"
)

// JokerValue is the sentinel value carried by joker cards.
const JokerValue int32 = 0

// Card is a single card in the double Remi deck. Immutable once created.
// ID is the card's index in the unshuffled round deck (0..107), which keeps
// the two copies of each suit+value distinguishable.
type Card struct {
	ID    int16 `json:"id"`
	Suit  Suit  `json:"suit"`
	Value int32 `json:"value"` // 1..13; ace is 1; jokers carry JokerValue
}

// IsJoker reports whether the card is one of the four jokers.
func (c Card) IsJoker() bool {
	return c.Suit == SuitJokerRed || c.Suit == SuitJokerBlack
}

// Key returns the value-suit key used by the opponent model, e.g. "7-HEART".
func (c Card) Key() string {
	return CardKey(c.Value, c.Suit)
}

// CardKey builds the canonical value-suit key for a card identity.
func CardKey(value int32, suit Suit) string {
	return fmt.Sprintf("%d-%s", value, suit)
}

// CardPoints returns the point value of a card. Ace and face cards count 10,
// pip cards count face value, jokers count 0. The same table is used for meld
// scores and deadwood.
func CardPoints(c Card) int32 {
	switch {
	case c.IsJoker():
		return 0
	case c.Value == 1 || c.Value > 10:
		return 10
	default:
		return c.Value
	}
}

// Deadwood sums the point values of unmelded cards.
func Deadwood(cards []Card) int32 {
	var total int32
	for _, c := range cards {
		total += CardPoints(c)
	}
	return total
}

// colorSuits is the fixed suit precedence used for canonical set ordering.
var colorSuits = []Suit{SuitSpade, SuitHeart, SuitDiamond, SuitClub}

var suitOrder = map[Suit]int{
	SuitSpade:      0,
	SuitHeart:      1,
	SuitDiamond:    2,
	SuitClub:       3,
	SuitJokerRed:   4,
	SuitJokerBlack: 5,
}

// NewRoundDeck returns an ordered round deck: two standard 52-card decks plus
// two red and two black jokers, 108 cards total. Card IDs equal deck indexes.
func NewRoundDeck() []Card {
	deck := make([]Card, 0, 108)
	id := int16(0)
	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		for _, s := range colorSuits {
			for v := int32(1); v <= 13; v++ {
				deck = append(deck, Card{ID: id, Suit: s, Value: v})
				id++
			}
		}
	}
	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		deck = append(deck, Card{ID: id, Suit: SuitJokerRed, Value: JokerValue})
		id++
		deck = append(deck, Card{ID: id, Suit: SuitJokerBlack, Value: JokerValue})
		id++
	}
	return deck
}

// ShuffleDeck shuffles the deck in place using the provided source.
func ShuffleDeck(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// SortByValue orders cards ascending by value, suit precedence breaking ties.
// Jokers sort last.
func SortByValue(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].IsJoker() != cards[j].IsJoker() {
			return !cards[i].IsJoker()
		}
		if cards[i].Value != cards[j].Value {
			return cards[i].Value < cards[j].Value
		}
		return suitOrder[cards[i].Suit] < suitOrder[cards[j].Suit]
	})
}

// RemoveCards returns hand minus the given cards, matching by ID.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	removeIDs := make(map[int16]bool, len(toRemove))
	for _, c := range toRemove {
		removeIDs[c.ID] = true
	}

	updated := make([]Card, 0, len(hand))
	for _, c := range hand {
		if removeIDs[c.ID] {
			continue
		}
		updated = append(updated, c)
	}
	return updated
}

// FindCard returns the card with the given ID from the slice.
func FindCard(cards []Card, id int16) (Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
