package domain

import "sort"

// MeldType classifies a laid meld.
type MeldType string

const (
	MeldSet MeldType = "SET" // same value, pairwise-distinct suits
	MeldRun MeldType = "RUN" // same suit, consecutive values
)

// Meld is an ordered sequence of at least three cards, tagged SET or RUN,
// carrying its computed score. Cards are kept in canonical display order.
type Meld struct {
	Type  MeldType `json:"type"`
	Cards []Card   `json:"cards"`
	Score int32    `json:"score"`
}

// aceHigh is the positional value of an ace resolved high. A resolved run is
// a walk over positions 1..14; position 14 is occupied by an ace.
const aceHigh int32 = 14

// IsValidSet reports whether the cards form a legal set: every non-joker
// shares one value, non-joker suits are pairwise distinct, and total members
// do not exceed four. Invariant under permutation of the input.
func IsValidSet(cards []Card) bool {
	if len(cards) < 3 || len(cards) > 4 {
		return false
	}

	var value int32 = -1
	seenSuits := make(map[Suit]bool, 4)
	regulars := 0
	for _, c := range cards {
		if c.IsJoker() {
			continue
		}
		regulars++
		if value == -1 {
			value = c.Value
		} else if c.Value != value {
			return false
		}
		if seenSuits[c.Suit] {
			return false
		}
		seenSuits[c.Suit] = true
	}

	// A set of jokers alone has no determined value.
	return regulars > 0
}

// IsValidRun reports whether the cards form a legal run: all non-jokers share
// one suit and the values form a single consecutive walk in one direction once
// jokers fill exactly their positional gaps. The ace may resolve low or high,
// but only one resolution is used per meld. Invariant under permutation.
func IsValidRun(cards []Card) bool {
	_, _, ok := resolveRun(cards)
	return ok
}

// ClassifyMeld returns the meld type for the cards, or false if they form
// neither. Rare one-regular-plus-jokers groups satisfy both readings; runs
// win the tie so the group stays extendable.
func ClassifyMeld(cards []Card) (MeldType, bool) {
	if IsValidRun(cards) {
		return MeldRun, true
	}
	if IsValidSet(cards) {
		return MeldSet, true
	}
	return "", false
}

// NewMeld validates and classifies the cards, returning a display-ordered
// meld with its score.
func NewMeld(cards []Card) (Meld, error) {
	meldType, ok := ClassifyMeld(cards)
	if !ok {
		return Meld{}, ErrInvalidMeldShape
	}
	m := Meld{Type: meldType, Cards: append([]Card{}, cards...), Score: MeldScore(cards)}
	SortForDisplay(&m)
	return m, nil
}

// MeldScore sums the per-card point values of a meld. Jokers contribute zero.
func MeldScore(cards []Card) int32 {
	var total int32
	for _, c := range cards {
		total += CardPoints(c)
	}
	return total
}

// SortForDisplay reorders the meld's cards canonically in place.
// RUN: ascending by resolved value, jokers sitting at their computed gap
// positions. SET: regulars by fixed suit precedence, jokers last.
func SortForDisplay(m *Meld) {
	if m.Type == MeldRun {
		if arranged, _, ok := resolveRun(m.Cards); ok {
			m.Cards = arranged
		}
		return
	}

	sort.SliceStable(m.Cards, func(i, j int) bool {
		ci, cj := m.Cards[i], m.Cards[j]
		if ci.IsJoker() != cj.IsJoker() {
			return !ci.IsJoker()
		}
		return suitOrder[ci.Suit] < suitOrder[cj.Suit]
	})
}

// CanReplaceJoker reports whether card may legally replace the joker with the
// given card ID inside the meld. For a set, the three regulars must already
// cover three distinct suits at the value and the candidate must supply the
// fourth. For a run, the candidate must match the exact suit and value the
// joker's position represents.
func CanReplaceJoker(card Card, jokerID int16, m Meld) bool {
	if card.IsJoker() {
		return false
	}

	joker, found := FindCard(m.Cards, jokerID)
	if !found || !joker.IsJoker() {
		return false
	}

	switch m.Type {
	case MeldSet:
		var value int32 = -1
		usedSuits := make(map[Suit]bool, 4)
		regulars := 0
		for _, c := range m.Cards {
			if c.IsJoker() {
				continue
			}
			regulars++
			value = c.Value
			usedSuits[c.Suit] = true
		}
		if regulars != 3 || len(usedSuits) != 3 {
			return false
		}
		return card.Value == value && !usedSuits[card.Suit]

	case MeldRun:
		arranged, values, ok := resolveRun(m.Cards)
		if !ok {
			return false
		}
		runSuit := runSuitOf(arranged)
		for i, c := range arranged {
			if c.ID != jokerID {
				continue
			}
			want := values[i]
			if want == aceHigh {
				want = 1
			}
			return card.Suit == runSuit && card.Value == want
		}
	}
	return false
}

// splitBudget bounds the disjoint-cover search for arbitrary selections.
const splitBudget = 20000

// SplitIntoMeldGroups partitions an arbitrary card selection into the maximal
// set of pairwise-disjoint valid melds, covering as many cards as possible.
// Cards that fit no meld are returned as leftover. No card ID ever appears in
// two returned melds.
func SplitIntoMeldGroups(cards []Card) ([]Meld, []Card) {
	candidates := enumerateMelds(cards, len(cards))

	// Bigger melds first so the greedy prefix of the search is already strong.
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].Cards) != len(candidates[j].Cards) {
			return len(candidates[i].Cards) > len(candidates[j].Cards)
		}
		return candidates[i].Score > candidates[j].Score
	})

	search := coverSearch{candidates: candidates, budget: splitBudget}
	search.run(0, nil, make(map[int16]bool), 0, 0)

	used := make(map[int16]bool)
	for _, m := range search.bestMelds {
		for _, c := range m.Cards {
			used[c.ID] = true
		}
	}
	leftover := make([]Card, 0, len(cards))
	for _, c := range cards {
		if !used[c.ID] {
			leftover = append(leftover, c)
		}
	}
	return search.bestMelds, leftover
}

type coverSearch struct {
	candidates []Meld
	budget     int

	bestMelds   []Meld
	bestCovered int
	bestScore   int32
}

func (s *coverSearch) run(idx int, chosen []Meld, used map[int16]bool, covered int, score int32) {
	if s.budget <= 0 {
		return
	}
	s.budget--

	if covered > s.bestCovered || (covered == s.bestCovered && score > s.bestScore) {
		s.bestCovered = covered
		s.bestScore = score
		s.bestMelds = append([]Meld{}, chosen...)
	}

	for i := idx; i < len(s.candidates); i++ {
		cand := s.candidates[i]
		if overlaps(cand.Cards, used) {
			continue
		}
		for _, c := range cand.Cards {
			used[c.ID] = true
		}
		s.run(i+1, append(chosen, cand), used, covered+len(cand.Cards), score+cand.Score)
		for _, c := range cand.Cards {
			delete(used, c.ID)
		}
	}
}

func overlaps(cards []Card, used map[int16]bool) bool {
	for _, c := range cards {
		if used[c.ID] {
			return true
		}
	}
	return false
}

// enumerateMelds returns every valid meld formable from sub-combinations of
// the cards, sizes 3..maxSize, deduplicated by card-ID set.
func enumerateMelds(cards []Card, maxSize int) []Meld {
	if maxSize > len(cards) {
		maxSize = len(cards)
	}

	var melds []Meld
	seen := make(map[string]bool)
	combo := make([]Card, 0, maxSize)

	var walk func(start int)
	walk = func(start int) {
		if len(combo) >= 3 {
			if m, err := NewMeld(combo); err == nil {
				key := idSetKey(m.Cards)
				if !seen[key] {
					seen[key] = true
					melds = append(melds, m)
				}
			}
		}
		if len(combo) == maxSize {
			return
		}
		for i := start; i < len(cards); i++ {
			combo = append(combo, cards[i])
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
	return melds
}

func idSetKey(cards []Card) string {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = int(c.ID)
	}
	sort.Ints(ids)
	key := make([]byte, 0, len(ids)*3)
	for _, id := range ids {
		key = append(key, byte(id), byte(id>>8), ',')
	}
	return string(key)
}

// resolveRun attempts to arrange the cards into a single ascending run,
// trying the low-ace interpretation first, then high-ace. It returns the
// arranged cards and the positional value each occupies (14 meaning ace
// high), or ok=false if no arrangement exists.
func resolveRun(cards []Card) ([]Card, []int32, bool) {
	if len(cards) < 3 {
		return nil, nil, false
	}

	var regulars, jokers []Card
	var runSuit Suit
	for _, c := range cards {
		if c.IsJoker() {
			jokers = append(jokers, c)
			continue
		}
		if runSuit == "" {
			runSuit = c.Suit
		} else if c.Suit != runSuit {
			return nil, nil, false
		}
		regulars = append(regulars, c)
	}
	if len(regulars) == 0 {
		return nil, nil, false
	}

	for _, highAce := range []bool{false, true} {
		if arranged, values, ok := tryRunResolution(regulars, jokers, highAce); ok {
			return arranged, values, true
		}
		// Without an ace both interpretations coincide.
		if !containsAce(regulars) {
			break
		}
	}
	return nil, nil, false
}

func containsAce(cards []Card) bool {
	for _, c := range cards {
		if c.Value == 1 {
			return true
		}
	}
	return false
}

func tryRunResolution(regulars, jokers []Card, highAce bool) ([]Card, []int32, bool) {
	type positioned struct {
		card  Card
		value int32
	}

	regs := make([]positioned, len(regulars))
	for i, c := range regulars {
		v := c.Value
		if v == 1 && highAce {
			v = aceHigh
		}
		regs[i] = positioned{card: c, value: v}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].value < regs[j].value })

	// Interior gaps must be filled by exactly gap-1 jokers; duplicates kill
	// the run outright.
	interior := 0
	for i := 1; i < len(regs); i++ {
		gap := regs[i].value - regs[i-1].value
		if gap == 0 {
			return nil, nil, false
		}
		interior += int(gap) - 1
	}
	if interior > len(jokers) {
		return nil, nil, false
	}
	spare := len(jokers) - interior

	low := regs[0].value
	high := regs[len(regs)-1].value

	// Spare jokers extend the ends, preferring upward. A position of 1 and a
	// position of 14 in one meld would mean two ace resolutions.
	bound := aceHigh
	if low == 1 {
		bound = 13
	}
	extendUp := int32(spare)
	if high+extendUp > bound {
		extendUp = bound - high
	}
	extendDown := int32(spare) - extendUp
	floor := int32(1)
	if high == aceHigh || high+extendUp == aceHigh {
		floor = 2
	}
	if low-extendDown < floor {
		return nil, nil, false
	}

	first := low - extendDown
	last := high + extendUp

	arranged := make([]Card, 0, int(last-first)+1)
	values := make([]int32, 0, int(last-first)+1)
	regIdx := 0
	jokerIdx := 0
	for v := first; v <= last; v++ {
		if regIdx < len(regs) && regs[regIdx].value == v {
			arranged = append(arranged, regs[regIdx].card)
			regIdx++
		} else {
			arranged = append(arranged, jokers[jokerIdx])
			jokerIdx++
		}
		values = append(values, v)
	}
	return arranged, values, true
}

func runSuitOf(cards []Card) Suit {
	for _, c := range cards {
		if !c.IsJoker() {
			return c.Suit
		}
	}
	return ""
}
