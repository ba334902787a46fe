package brain

import (
	"testing"

	"remi/internal/domain"
)

func TestCardMemory(t *testing.T) {
	m := NewCardMemory()

	sevenHearts := card(10, 7, domain.SuitHeart)
	m.MarkSeen(sevenHearts)
	m.MarkSeen(sevenHearts) // same physical card twice

	if !m.Seen(10) {
		t.Error("card 10 should be seen")
	}
	if got := m.CopiesSeen(7, domain.SuitHeart); got != 1 {
		t.Errorf("copies seen = %d, want 1 (double-marking is a no-op)", got)
	}
	if got := m.OutstandingCopies(7, domain.SuitHeart); got != 1 {
		t.Errorf("outstanding copies = %d, want 1", got)
	}

	// The second physical copy exhausts the card.
	m.MarkSeen(card(64, 7, domain.SuitHeart))
	if got := m.OutstandingCopies(7, domain.SuitHeart); got != 0 {
		t.Errorf("outstanding copies = %d, want 0", got)
	}

	m.Reset()
	if m.Seen(10) {
		t.Error("reset should clear the memory")
	}
}

func TestCardMemorySupportSeen(t *testing.T) {
	m := NewCardMemory()
	target := card(1, 7, domain.SuitClub)

	if got := m.SupportSeen(target); got != 0 {
		t.Fatalf("fresh memory support = %d, want 0", got)
	}

	// One 7 in another suit, one neighbor in the same suit.
	m.MarkSeen(card(2, 7, domain.SuitHeart), card(3, 8, domain.SuitClub))
	if got := m.SupportSeen(target); got != 2 {
		t.Errorf("support seen = %d, want 2", got)
	}

	if got := m.SupportSeen(domain.Card{ID: 9, Suit: domain.SuitJokerBlack}); got != 0 {
		t.Errorf("joker support = %d, want 0", got)
	}
}
