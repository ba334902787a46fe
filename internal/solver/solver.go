package solver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"remi/internal/domain"
)

const (
	// Candidate melds are capped in size; anything longer is reachable by
	// extending a laid meld later and only bloats the search space.
	maxCandidateSize = 8
	maxSearchDepth   = 15
)

// Candidate is a valid meld drawn from a hand, annotated with the metrics
// the decomposition search uses to order its branches.
type Candidate struct {
	Cards       []domain.Card
	Type        domain.MeldType
	Score       int32
	Efficiency  float64
	Priority    float64
	Flexibility float64
}

// Solution is the best decomposition found for a hand.
type Solution struct {
	Melds      []domain.Meld
	Remainder  []domain.Card
	TotalScore int32
	Deadwood   int32
	CanGoOut   bool
	TurnsToWin int
}

// Solver memoizes decompositions by hand content. Safe for concurrent use;
// the bots share one instance per match.
type Solver struct {
	mu    sync.Mutex
	cache map[string]Solution
}

func New() *Solver {
	return &Solver{cache: make(map[string]Solution)}
}

// ResetCache drops every memoized decomposition. Called on a fixed cadence
// so long matches do not accumulate entries for hands that will never recur.
func (s *Solver) ResetCache() {
	s.mu.Lock()
	s.cache = make(map[string]Solution)
	s.mu.Unlock()
}

// Solve returns the best meld decomposition of the hand under the comparison
// policy: a go-out decomposition always wins, a clearly higher score wins,
// and close scores are broken by lower deadwood.
func (s *Solver) Solve(hand []domain.Card) Solution {
	key := handKey(hand)
	s.mu.Lock()
	if sol, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return sol
	}
	s.mu.Unlock()

	candidates := GenerateCandidates(hand)
	best := assemble(hand, nil)
	used := make(map[int16]bool, len(hand))
	search(hand, candidates, 0, nil, used, 0, &best)

	s.mu.Lock()
	s.cache[key] = best
	s.mu.Unlock()
	return best
}

func search(hand []domain.Card, cands []Candidate, start int, chosen []domain.Meld, used map[int16]bool, depth int, best *Solution) {
	cur := assemble(hand, chosen)
	if Better(cur, *best) {
		*best = cur
	}
	if depth >= maxSearchDepth {
		return
	}
	for i := start; i < len(cands); i++ {
		if overlapsUsed(cands[i].Cards, used) {
			continue
		}
		for _, c := range cands[i].Cards {
			used[c.ID] = true
		}
		meld := domain.Meld{
			Type:  cands[i].Type,
			Cards: cands[i].Cards,
			Score: cands[i].Score,
		}
		search(hand, cands, i+1, append(chosen, meld), used, depth+1, best)
		for _, c := range cands[i].Cards {
			delete(used, c.ID)
		}
	}
}

// Better reports whether solution a beats solution b.
func Better(a, b Solution) bool {
	if a.CanGoOut != b.CanGoOut {
		return a.CanGoOut
	}
	gap := a.TotalScore - b.TotalScore
	if gap > 5 {
		return true
	}
	if gap < -5 {
		return false
	}
	if a.Deadwood != b.Deadwood {
		return a.Deadwood < b.Deadwood
	}
	return a.TotalScore > b.TotalScore
}

func assemble(hand []domain.Card, melds []domain.Meld) Solution {
	used := make(map[int16]bool)
	var total int32
	out := make([]domain.Meld, len(melds))
	for i, m := range melds {
		out[i] = m
		total += m.Score
		for _, c := range m.Cards {
			used[c.ID] = true
		}
	}
	remainder := make([]domain.Card, 0, len(hand))
	for _, c := range hand {
		if !used[c.ID] {
			remainder = append(remainder, c)
		}
	}
	return Solution{
		Melds:      out,
		Remainder:  remainder,
		TotalScore: total,
		Deadwood:   domain.Deadwood(remainder),
		CanGoOut:   len(remainder) == 1,
		TurnsToWin: (len(remainder) + 1) / 2,
	}
}

// GenerateCandidates enumerates every valid meld of 3..8 cards inside the
// hand, deduplicated by card-id set and ordered efficiency desc, then
// priority desc, then score desc.
func GenerateCandidates(hand []domain.Card) []Candidate {
	cards := append([]domain.Card(nil), hand...)
	domain.SortByValue(cards)

	maxSize := len(cards)
	if maxSize > maxCandidateSize {
		maxSize = maxCandidateSize
	}

	seen := make(map[string]bool)
	var out []Candidate
	combo := make([]domain.Card, 0, maxSize)

	var walk func(start int)
	walk = func(start int) {
		if len(combo) >= 3 {
			if mt, ok := domain.ClassifyMeld(combo); ok {
				key := idKey(combo)
				if !seen[key] {
					seen[key] = true
					out = append(out, newCandidate(combo, mt, cards))
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

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Efficiency != out[j].Efficiency {
			return out[i].Efficiency > out[j].Efficiency
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Score > out[j].Score
	})
	return out
}

func newCandidate(combo []domain.Card, mt domain.MeldType, hand []domain.Card) Candidate {
	cards := append([]domain.Card(nil), combo...)
	score := domain.MeldScore(cards)

	jokers := 0
	high := 0
	for _, c := range cards {
		if c.IsJoker() {
			jokers++
		} else if c.Value == 1 || c.Value >= 10 {
			high++
		}
	}
	priority := float64(len(cards))*2 + float64(jokers)*3 + float64(high)
	if mt == domain.MeldRun {
		priority += 4
	}

	return Candidate{
		Cards:       cards,
		Type:        mt,
		Score:       score,
		Efficiency:  float64(score) / float64(len(cards)),
		Priority:    priority,
		Flexibility: flexibility(cards, hand),
	}
}

// flexibility counts, for each meld card, the other hand cards that could
// combine with it (same value, or within two steps in the same suit). Higher
// means the meld consumes well-connected cards, which the bots weigh when
// deciding whether to hold back.
func flexibility(combo []domain.Card, hand []domain.Card) float64 {
	inCombo := make(map[int16]bool, len(combo))
	for _, c := range combo {
		inCombo[c.ID] = true
	}
	adj := 0
	for _, c := range combo {
		if c.IsJoker() {
			continue
		}
		for _, h := range hand {
			if h.ID == c.ID || inCombo[h.ID] || h.IsJoker() {
				continue
			}
			if h.Value == c.Value {
				adj++
				continue
			}
			if h.Suit == c.Suit {
				d := h.Value - c.Value
				if d < 0 {
					d = -d
				}
				if d <= 2 {
					adj++
				}
			}
		}
	}
	return float64(adj)
}

func overlapsUsed(cards []domain.Card, used map[int16]bool) bool {
	for _, c := range cards {
		if used[c.ID] {
			return true
		}
	}
	return false
}

func idKey(cards []domain.Card) string {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = int(c.ID)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func handKey(cards []domain.Card) string {
	return idKey(cards)
}
