package brain

import (
	"remi/internal/domain"
)

// copiesPerCard is how many physical copies of each value+suit exist in the
// double deck.
const copiesPerCard = 2

// CardMemory is the bot's private view of which cards have left circulation:
// its own hand, everything discarded, and every meld on the table.
type CardMemory struct {
	seen   map[int16]bool
	copies map[string]int
}

func NewCardMemory() *CardMemory {
	return &CardMemory{
		seen:   make(map[int16]bool),
		copies: make(map[string]int),
	}
}

// Reset clears the memory for a new round.
func (m *CardMemory) Reset() {
	m.seen = make(map[int16]bool)
	m.copies = make(map[string]int)
}

// MarkSeen records cards that became visible to the bot. Marking the same
// physical card twice is a no-op.
func (m *CardMemory) MarkSeen(cards ...domain.Card) {
	for _, c := range cards {
		if m.seen[c.ID] {
			continue
		}
		m.seen[c.ID] = true
		m.copies[c.Key()]++
	}
}

// Seen reports whether a specific physical card has been observed.
func (m *CardMemory) Seen(id int16) bool {
	return m.seen[id]
}

// CopiesSeen returns how many of a card's physical copies have been observed.
func (m *CardMemory) CopiesSeen(value int32, suit domain.Suit) int {
	return m.copies[domain.CardKey(value, suit)]
}

// OutstandingCopies returns how many copies of a card could still be held by
// opponents or buried in the deck.
func (m *CardMemory) OutstandingCopies(value int32, suit domain.Suit) int {
	out := copiesPerCard - m.CopiesSeen(value, suit)
	if out < 0 {
		out = 0
	}
	return out
}

// SupportSeen counts, for a hand card, how many of the cards that could
// still extend it into a meld have already been observed. A fully seen
// neighborhood makes the card safe to discard: nobody can be collecting
// toward it.
func (m *CardMemory) SupportSeen(c domain.Card) int {
	if c.IsJoker() {
		return 0
	}
	seen := 0
	for _, suit := range needSuits {
		if suit == c.Suit {
			continue
		}
		seen += m.CopiesSeen(c.Value, suit)
	}
	for _, dv := range []int32{-2, -1, 1, 2} {
		v := c.Value + dv
		if v < 1 || v > 13 {
			continue
		}
		seen += m.CopiesSeen(v, c.Suit)
	}
	return seen
}
