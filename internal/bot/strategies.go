package bot

import (
	"math/rand"
	"sort"

	"remi/internal/config"
	"remi/internal/domain"
	"remi/internal/solver"
)

// baseBrain carries the machinery every difficulty tier shares. Tiers differ
// by tuning and by the pieces they override in their own files.
type baseBrain struct {
	tune       Tuning
	solver     *solver.Solver
	rng        *rand.Rand
	cacheEvery int
	lastReset  int
}

func newBaseBrain(tune Tuning, rng *rand.Rand) baseBrain {
	// Operators can tighten or loosen the hold-back rate for every tier that
	// uses it without touching the per-tier tuning tables.
	if c := config.GetHoldBackNearWinChance(); c > 0 && tune.HoldBackChance > 0 {
		tune.HoldBackChance = c
	}
	return baseBrain{
		tune:       tune,
		solver:     solver.New(),
		rng:        rng,
		cacheEvery: config.GetSolverCacheResetTurns(),
	}
}

// decideLay applies the opened/unopened lay policy to a solved hand.
func (b *baseBrain) decideLay(view *View, sol solver.Solution) bool {
	if len(sol.Melds) == 0 {
		return false
	}
	if view.HasOpened {
		if sol.CanGoOut {
			return true
		}
		if len(sol.Remainder) <= b.tune.NearWinRemainder && sol.Deadwood <= b.tune.NearWinDeadwood {
			return true
		}
		return sol.TotalScore >= b.tune.MinLayScore
	}
	if sol.TotalScore < domain.OpeningThreshold {
		return false
	}
	// Occasionally sit on a qualifying hand that is close but not winning,
	// so observers cannot read the exact opening turn.
	if !sol.CanGoOut && len(sol.Remainder) <= b.tune.NearWinRemainder+1 &&
		b.rng.Float64() < b.tune.HoldBackChance {
		return false
	}
	return true
}

func (b *baseBrain) shouldDrawFromDiscard(view *View) bool {
	if view.DiscardTop == nil {
		return false
	}
	top := *view.DiscardTop
	sim := append(append([]domain.Card{}, view.Hand...), top)
	sol := b.solver.Solve(sim)

	if !b.decideLay(view, sol) {
		return false
	}
	// The card must do work: melded, or the single card a winning
	// decomposition leaves for the final discard.
	if !meldsUse(sol.Melds, top.ID) {
		if !sol.CanGoOut || sol.Remainder[0].ID != top.ID {
			return false
		}
	}

	if sol.CanGoOut && b.tune.AcceptImmediateWin {
		return true
	}
	if b.tune.DenyWantedCard && view.Tracker != nil {
		if opp := view.Tracker.MostDangerous(); opp != nil && opp.NeedFor(top) > b.tune.WantedCardThreshold {
			return false
		}
	}
	baseline := b.solver.Solve(view.Hand)
	return sol.TotalScore-baseline.TotalScore >= b.tune.MinScoreGain
}

func (b *baseBrain) shouldTakeFinishingCard(view *View) bool {
	if view.FinishingCard == nil || view.FinishingTaken || view.HasOpened {
		return false
	}
	if len(view.Hand) != view.HandCapacity {
		return false
	}
	fc := *view.FinishingCard
	sim := append(append([]domain.Card{}, view.Hand...), fc)
	sol := b.solver.Solve(sim)

	if !sol.CanGoOut || sol.TotalScore < domain.OpeningThreshold {
		return false
	}
	if meldsUse(sol.Melds, fc.ID) {
		return true
	}
	return sol.Remainder[0].ID == fc.ID
}

func (b *baseBrain) planTurn(view *View) TurnPlan {
	// Memoized decompositions stop paying off once the hand has churned, so
	// drop them on a fixed turn cadence to keep the memo table bounded.
	if b.cacheEvery > 0 && view.TurnCount-b.lastReset >= b.cacheEvery {
		b.solver.ResetCache()
		b.lastReset = view.TurnCount
	}
	sol := b.solver.Solve(view.Hand)
	var plan TurnPlan
	leftovers := append([]domain.Card{}, view.Hand...)

	if b.decideLay(view, sol) {
		for _, m := range sol.Melds {
			group := make([]int16, len(m.Cards))
			for i, c := range m.Cards {
				group[i] = c.ID
			}
			plan.MeldGroups = append(plan.MeldGroups, group)
			leftovers = domain.RemoveCards(leftovers, m.Cards)
		}
	}

	if view.HasOpened || len(plan.MeldGroups) > 0 {
		plan.Extensions, leftovers = b.planExtensions(view, leftovers)
	}

	plan.DiscardID = b.chooseDiscard(view, leftovers)
	return plan
}

// planExtensions greedily places leftover cards onto existing table melds,
// keeping at least one card back for the mandatory discard. A swapped-out
// joker comes back into the leftovers.
func (b *baseBrain) planExtensions(view *View, leftovers []domain.Card) ([]Extension, []domain.Card) {
	melds := make([]TableMeld, len(view.TableMelds))
	copy(melds, view.TableMelds)

	var exts []Extension
	for len(leftovers) > 1 {
		bestValue := 0.0
		bestIdx := -1
		var bestExt Extension
		var bestMeld domain.Meld
		var bestJoker *domain.Card

		for _, c := range leftovers {
			if c.IsJoker() {
				continue
			}
			for mi, tm := range melds {
				value, newMeld, freedJoker, ok := b.valueExtension(view, c, tm)
				if !ok || value <= bestValue {
					continue
				}
				bestValue = value
				bestIdx = mi
				bestExt = Extension{CardID: c.ID, OwnerID: tm.OwnerID, MeldIndex: tm.Index}
				bestMeld = newMeld
				bestJoker = freedJoker
			}
		}
		if bestIdx < 0 {
			break
		}

		exts = append(exts, bestExt)
		melds[bestIdx].Meld = bestMeld
		placed, _ := domain.FindCard(leftovers, bestExt.CardID)
		leftovers = domain.RemoveCards(leftovers, []domain.Card{placed})
		if bestJoker != nil {
			leftovers = append(leftovers, *bestJoker)
		}
	}
	return exts, leftovers
}

// valueExtension scores placing one card on one meld; joker substitution is
// tried before plain extension.
func (b *baseBrain) valueExtension(view *View, c domain.Card, tm TableMeld) (float64, domain.Meld, *domain.Card, bool) {
	value := float64(domain.CardPoints(c))
	if tm.OwnerID == view.UserID {
		value += b.tune.OwnMeldBonus
	}
	if b.tune.LateGameTurn > 0 && view.TurnCount >= b.tune.LateGameTurn {
		value += b.tune.LateGameBonus
	}

	for _, mc := range tm.Meld.Cards {
		if mc.IsJoker() && domain.CanReplaceJoker(c, mc.ID, tm.Meld) {
			swapped := make([]domain.Card, 0, len(tm.Meld.Cards))
			for _, existing := range tm.Meld.Cards {
				if existing.ID == mc.ID {
					swapped = append(swapped, c)
				} else {
					swapped = append(swapped, existing)
				}
			}
			newMeld, err := domain.NewMeld(swapped)
			if err != nil {
				continue
			}
			freed := mc
			return value + b.tune.JokerSwapBonus, newMeld, &freed, true
		}
	}

	extended, err := domain.NewMeld(append(append([]domain.Card{}, tm.Meld.Cards...), c))
	if err != nil || extended.Type != tm.Meld.Type {
		return 0, domain.Meld{}, nil, false
	}
	return value, extended, nil, true
}

// chooseDiscard scores every discardable non-joker card and throws the
// lowest, with a small randomized alternate pick. A joker is only ever
// discarded when nothing else is left.
func (b *baseBrain) chooseDiscard(view *View, leftovers []domain.Card) int16 {
	if len(leftovers) == 0 {
		return -1
	}
	candidates := make([]domain.Card, 0, len(leftovers))
	for _, c := range leftovers {
		if !c.IsJoker() {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = leftovers
	}
	if len(candidates) == 1 {
		return candidates[0].ID
	}

	type scoredCard struct {
		card  domain.Card
		score float64
	}
	scored := make([]scoredCard, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoredCard{card: c, score: b.scoreDiscard(view, c, leftovers)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score < scored[j].score
		}
		return scored[i].card.ID < scored[j].card.ID
	})

	pick := 0
	if len(scored) > 1 && b.rng.Float64() < b.tune.AlternateDiscardChance {
		pick = 1
	}
	return scored[pick].card.ID
}

func (b *baseBrain) scoreDiscard(view *View, c domain.Card, leftovers []domain.Card) float64 {
	score := -float64(domain.CardPoints(c)) * 2
	score += float64(support(c, leftovers)) * 2
	score += float64(support(c, view.Hand)) * 2

	if b.tune.UseDangerAvoidance && view.Tracker != nil {
		need := 0
		for _, p := range view.Tracker.Profiles {
			if n := p.NeedFor(c); n > need {
				need = n
			}
		}
		score += float64(need) / 25.0 * 4
	}
	if b.tune.UseDiscardSafety && view.Tracker != nil {
		score -= float64(view.Tracker.Memory.SupportSeen(c)) * 2
	}
	if b.tune.DeadCardPenalty > 0 && b.isStructurallyDead(view, c) {
		score -= b.tune.DeadCardPenalty
	}
	if b.tune.IsolationPenalty > 0 && support(c, view.Hand) == 0 {
		score -= b.tune.IsolationPenalty
	}
	return score
}

// isStructurallyDead reports whether no set or run through this card is
// still completable: its whole support neighborhood has been seen and the
// hand offers nothing either.
func (b *baseBrain) isStructurallyDead(view *View, c domain.Card) bool {
	if view.Tracker == nil || support(c, view.Hand) > 0 {
		return false
	}
	mem := view.Tracker.Memory
	for _, suit := range []domain.Suit{domain.SuitHeart, domain.SuitDiamond, domain.SuitClub, domain.SuitSpade} {
		if suit == c.Suit {
			continue
		}
		if mem.OutstandingCopies(c.Value, suit) > 0 {
			return false
		}
	}
	for _, dv := range []int32{-1, 1} {
		v := c.Value + dv
		if v < 1 || v > 13 {
			continue
		}
		if mem.OutstandingCopies(v, c.Suit) > 0 {
			return false
		}
	}
	return true
}

// support counts cards (other than the target itself) that could combine
// with it: same value in another suit, or within two steps in its suit.
func support(c domain.Card, cards []domain.Card) int {
	if c.IsJoker() {
		return 0
	}
	n := 0
	for _, h := range cards {
		if h.ID == c.ID || h.IsJoker() {
			continue
		}
		if h.Value == c.Value && h.Suit != c.Suit {
			n++
			continue
		}
		if h.Suit == c.Suit {
			d := h.Value - c.Value
			if d < 0 {
				d = -d
			}
			if d != 0 && d <= 2 {
				n++
			}
		}
	}
	return n
}

func meldsUse(melds []domain.Meld, cardID int16) bool {
	for _, m := range melds {
		for _, c := range m.Cards {
			if c.ID == cardID {
				return true
			}
		}
	}
	return false
}
