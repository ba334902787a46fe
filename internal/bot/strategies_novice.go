package bot

import (
	"math/rand"
	"sort"

	"remi/internal/domain"
)

// NoviceBrain is the easy tier. It lays whatever the solver finds once the
// threshold is met, never extends table melds, ignores opponents entirely,
// and discards its most expensive loose card.
type NoviceBrain struct {
	core baseBrain
}

func NewNoviceBrain(rng *rand.Rand) *NoviceBrain {
	return &NoviceBrain{core: newBaseBrain(NoviceTuning, rng)}
}

func (b *NoviceBrain) ShouldDrawFromDiscard(view *View) bool {
	return b.core.shouldDrawFromDiscard(view)
}

func (b *NoviceBrain) ShouldTakeFinishingCard(view *View) bool {
	return b.core.shouldTakeFinishingCard(view)
}

func (b *NoviceBrain) PlanTurn(view *View) TurnPlan {
	sol := b.core.solver.Solve(view.Hand)
	var plan TurnPlan
	leftovers := append([]domain.Card{}, view.Hand...)

	if b.core.decideLay(view, sol) {
		for _, m := range sol.Melds {
			group := make([]int16, len(m.Cards))
			for i, c := range m.Cards {
				group[i] = c.ID
			}
			plan.MeldGroups = append(plan.MeldGroups, group)
			leftovers = domain.RemoveCards(leftovers, m.Cards)
		}
	}

	plan.DiscardID = b.discardMostExpensive(leftovers)
	return plan
}

func (b *NoviceBrain) discardMostExpensive(leftovers []domain.Card) int16 {
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
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := domain.CardPoints(candidates[i]), domain.CardPoints(candidates[j])
		if pi != pj {
			return pi > pj
		}
		return candidates[i].ID < candidates[j].ID
	})

	pick := 0
	if len(candidates) > 1 && b.core.rng.Float64() < b.core.tune.AlternateDiscardChance {
		pick = 1
	}
	return candidates[pick].ID
}
