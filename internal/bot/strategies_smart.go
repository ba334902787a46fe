package bot

import (
	"math/rand"
)

// SmartBrain is the medium tier: full solver-driven play with meld
// extensions and the weighted discard scorer, but no card counting and no
// opponent modeling.
type SmartBrain struct {
	core baseBrain
}

func NewSmartBrain(rng *rand.Rand) *SmartBrain {
	return &SmartBrain{core: newBaseBrain(SmartTuning, rng)}
}

func (b *SmartBrain) ShouldDrawFromDiscard(view *View) bool {
	return b.core.shouldDrawFromDiscard(view)
}

func (b *SmartBrain) ShouldTakeFinishingCard(view *View) bool {
	return b.core.shouldTakeFinishingCard(view)
}

func (b *SmartBrain) PlanTurn(view *View) TurnPlan {
	// The shared planner sees no tracker influence at this tier because the
	// tuning switches danger avoidance and discard safety off.
	return b.core.planTurn(view)
}
