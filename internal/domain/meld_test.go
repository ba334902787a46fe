package domain

import (
	"testing"
)

func card(id int16, value int32, suit Suit) Card {
	return Card{ID: id, Suit: suit, Value: value}
}

func joker(id int16) Card {
	return Card{ID: id, Suit: SuitJokerRed, Value: JokerValue}
}

func TestIsValidSet(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  bool
	}{
		{
			name:  "three distinct suits same value",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitDiamond), card(3, 7, SuitClub)},
			want:  true,
		},
		{
			name:  "four distinct suits same value",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitDiamond), card(3, 7, SuitClub), card(4, 7, SuitHeart)},
			want:  true,
		},
		{
			name:  "two cards never a meld",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitDiamond)},
			want:  false,
		},
		{
			name:  "duplicate suit rejected",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitSpade), card(3, 7, SuitClub)},
			want:  false,
		},
		{
			name:  "mixed values rejected",
			cards: []Card{card(1, 7, SuitSpade), card(2, 8, SuitDiamond), card(3, 7, SuitClub)},
			want:  false,
		},
		{
			name: "never more than four members",
			cards: []Card{
				card(1, 7, SuitSpade), card(2, 7, SuitDiamond), card(3, 7, SuitClub),
				card(4, 7, SuitHeart), joker(5),
			},
			want: false,
		},
		{
			name:  "joker completes a set",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitDiamond), joker(3)},
			want:  true,
		},
		{
			name:  "jokers alone have no value",
			cards: []Card{joker(1), joker(2), {ID: 3, Suit: SuitJokerBlack}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidSet(tt.cards); got != tt.want {
				t.Errorf("IsValidSet(%v) = %v, want %v", tt.cards, got, tt.want)
			}
			// Invariant under permutation.
			rotated := append(append([]Card{}, tt.cards[1:]...), tt.cards[0])
			if got := IsValidSet(rotated); got != tt.want {
				t.Errorf("IsValidSet permuted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidRun(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  bool
	}{
		{
			name:  "simple ascending run",
			cards: []Card{card(1, 2, SuitHeart), card(2, 3, SuitHeart), card(3, 4, SuitHeart)},
			want:  true,
		},
		{
			name:  "two cards never a run",
			cards: []Card{card(1, 2, SuitHeart), card(2, 3, SuitHeart)},
			want:  false,
		},
		{
			name:  "mixed suits rejected",
			cards: []Card{card(1, 2, SuitHeart), card(2, 3, SuitSpade), card(3, 4, SuitHeart)},
			want:  false,
		},
		{
			name:  "joker fills interior gap",
			cards: []Card{card(1, 3, SuitClub), joker(2), card(3, 5, SuitClub)},
			want:  true,
		},
		{
			name:  "gap too wide for one joker",
			cards: []Card{card(1, 3, SuitClub), joker(2), card(3, 6, SuitClub)},
			want:  false,
		},
		{
			name:  "duplicate value rejected",
			cards: []Card{card(1, 3, SuitClub), card(2, 3, SuitClub), card(3, 4, SuitClub)},
			want:  false,
		},
		{
			name:  "ace low",
			cards: []Card{card(1, 1, SuitDiamond), card(2, 2, SuitDiamond), card(3, 3, SuitDiamond)},
			want:  true,
		},
		{
			name:  "ace high",
			cards: []Card{card(1, 12, SuitDiamond), card(2, 13, SuitDiamond), card(3, 1, SuitDiamond)},
			want:  true,
		},
		{
			name:  "ace cannot wrap around",
			cards: []Card{card(1, 13, SuitDiamond), card(2, 1, SuitDiamond), card(3, 2, SuitDiamond)},
			want:  false,
		},
		{
			name:  "spare jokers extend the ends",
			cards: []Card{card(1, 5, SuitSpade), card(2, 6, SuitSpade), joker(3), joker(4)},
			want:  true,
		},
		{
			name:  "spare joker past the king becomes the ace",
			cards: []Card{card(1, 12, SuitSpade), card(2, 13, SuitSpade), joker(3)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRun(tt.cards); got != tt.want {
				t.Errorf("IsValidRun(%v) = %v, want %v", tt.cards, got, tt.want)
			}
			rotated := append(append([]Card{}, tt.cards[1:]...), tt.cards[0])
			if got := IsValidRun(rotated); got != tt.want {
				t.Errorf("IsValidRun permuted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeldScore(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  int32
	}{
		{
			name:  "pip run",
			cards: []Card{card(1, 2, SuitHeart), card(2, 3, SuitHeart), card(3, 4, SuitHeart)},
			want:  9,
		},
		{
			name:  "set of sevens",
			cards: []Card{card(1, 7, SuitSpade), card(2, 7, SuitDiamond), card(3, 7, SuitClub)},
			want:  21,
		},
		{
			name:  "ace and faces count ten",
			cards: []Card{card(1, 12, SuitDiamond), card(2, 13, SuitDiamond), card(3, 1, SuitDiamond)},
			want:  30,
		},
		{
			name:  "joker contributes nothing",
			cards: []Card{card(1, 9, SuitClub), joker(2), card(3, 11, SuitClub)},
			want:  19,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeldScore(tt.cards); got != tt.want {
				t.Errorf("MeldScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCanReplaceJoker_Run(t *testing.T) {
	// In RUN [3C, JOKER, 5C] the joker must resolve to the 4 of clubs.
	m, err := NewMeld([]Card{card(1, 3, SuitClub), joker(2), card(3, 5, SuitClub)})
	if err != nil {
		t.Fatalf("NewMeld failed: %v", err)
	}
	if m.Type != MeldRun {
		t.Fatalf("expected RUN, got %s", m.Type)
	}

	if !CanReplaceJoker(card(10, 4, SuitClub), 2, m) {
		t.Error("4C should replace the joker")
	}
	for _, c := range []Card{
		card(11, 4, SuitHeart),
		card(12, 5, SuitClub),
		card(13, 6, SuitClub),
		joker(14),
	} {
		if CanReplaceJoker(c, 2, m) {
			t.Errorf("%v should not replace the joker", c)
		}
	}
}

func TestCanReplaceJoker_Set(t *testing.T) {
	m, err := NewMeld([]Card{card(1, 9, SuitSpade), card(2, 9, SuitHeart), card(3, 9, SuitDiamond), joker(4)})
	if err != nil {
		t.Fatalf("NewMeld failed: %v", err)
	}
	if m.Type != MeldSet {
		t.Fatalf("expected SET, got %s", m.Type)
	}

	if !CanReplaceJoker(card(10, 9, SuitClub), 4, m) {
		t.Error("the missing fourth suit should replace the joker")
	}
	if CanReplaceJoker(card(11, 9, SuitSpade), 4, m) {
		t.Error("an already-present suit must not replace the joker")
	}
	if CanReplaceJoker(card(12, 8, SuitClub), 4, m) {
		t.Error("a different value must not replace the joker")
	}

	// A 3-member set with a joker has only two regulars; no replacement.
	small, err := NewMeld([]Card{card(20, 9, SuitSpade), card(21, 9, SuitHeart), joker(22)})
	if err != nil {
		t.Fatalf("NewMeld failed: %v", err)
	}
	if CanReplaceJoker(card(23, 9, SuitClub), 22, small) {
		t.Error("joker replacement requires exactly three regulars")
	}
}

func TestSortForDisplay(t *testing.T) {
	m, err := NewMeld([]Card{card(3, 5, SuitClub), card(1, 3, SuitClub), joker(2)})
	if err != nil {
		t.Fatalf("NewMeld failed: %v", err)
	}
	wantIDs := []int16{1, 2, 3} // 3C, joker-as-4C, 5C
	for i, c := range m.Cards {
		if c.ID != wantIDs[i] {
			t.Fatalf("run display order = %v", m.Cards)
		}
	}

	s, err := NewMeld([]Card{joker(4), card(5, 9, SuitDiamond), card(6, 9, SuitSpade), card(7, 9, SuitHeart)})
	if err != nil {
		t.Fatalf("NewMeld failed: %v", err)
	}
	if !s.Cards[len(s.Cards)-1].IsJoker() {
		t.Errorf("set display order should put jokers last: %v", s.Cards)
	}
	if s.Cards[0].Suit != SuitSpade || s.Cards[1].Suit != SuitHeart || s.Cards[2].Suit != SuitDiamond {
		t.Errorf("set regulars not in suit precedence order: %v", s.Cards)
	}
}

func TestSplitIntoMeldGroups(t *testing.T) {
	cards := []Card{
		card(1, 2, SuitHeart), card(2, 3, SuitHeart), card(3, 4, SuitHeart),
		card(4, 7, SuitSpade), card(5, 7, SuitDiamond), card(6, 7, SuitClub),
		card(7, 9, SuitClub),
	}

	melds, leftover := SplitIntoMeldGroups(cards)
	if len(melds) != 2 {
		t.Fatalf("expected 2 melds, got %d", len(melds))
	}
	if len(leftover) != 1 || leftover[0].ID != 7 {
		t.Fatalf("expected 9C leftover, got %v", leftover)
	}

	// Disjointness: no card ID in two returned melds.
	seen := make(map[int16]bool)
	for _, m := range melds {
		for _, c := range m.Cards {
			if seen[c.ID] {
				t.Fatalf("card %d assigned to two melds", c.ID)
			}
			seen[c.ID] = true
		}
	}
}

func TestSplitIntoMeldGroupsPrefersCoverage(t *testing.T) {
	// 4H 5H 6H 7H plus 7S 7D: the seven must go to the set only if that
	// covers more cards; here run of four + leftover pair beats run of three
	// + set of three? Both cover six. Either is acceptable, but no overlap.
	cards := []Card{
		card(1, 4, SuitHeart), card(2, 5, SuitHeart), card(3, 6, SuitHeart), card(4, 7, SuitHeart),
		card(5, 7, SuitSpade), card(6, 7, SuitDiamond),
	}
	melds, leftover := SplitIntoMeldGroups(cards)
	covered := 0
	seen := make(map[int16]bool)
	for _, m := range melds {
		for _, c := range m.Cards {
			if seen[c.ID] {
				t.Fatalf("card %d assigned to two melds", c.ID)
			}
			seen[c.ID] = true
			covered++
		}
	}
	if covered+len(leftover) != len(cards) {
		t.Fatalf("cards lost: covered %d leftover %d", covered, len(leftover))
	}
	if covered < 6 {
		t.Errorf("expected full coverage, covered only %d", covered)
	}
}

func TestCardPoints(t *testing.T) {
	tests := []struct {
		card Card
		want int32
	}{
		{card(1, 1, SuitHeart), 10},  // ace
		{card(2, 5, SuitHeart), 5},   // pip
		{card(3, 10, SuitHeart), 10}, // ten
		{card(4, 11, SuitHeart), 10}, // jack
		{card(5, 13, SuitHeart), 10}, // king
		{joker(6), 0},
	}
	for _, tt := range tests {
		if got := CardPoints(tt.card); got != tt.want {
			t.Errorf("CardPoints(%v) = %d, want %d", tt.card, got, tt.want)
		}
	}
}
