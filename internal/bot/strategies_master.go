package bot

import (
	"math/rand"
)

// dangerousOwnerLevel is the danger level above which MasterBrain stops
// feeding an opponent's melds with extensions before the late game.
const dangerousOwnerLevel = 70

// MasterBrain is the hard tier: everything SmartBrain does plus the opponent
// model. It denies wanted cards, protects cards opponents chase, discards
// into burned-out neighborhoods, and avoids growing a runaway opponent's
// table early.
type MasterBrain struct {
	core baseBrain
}

func NewMasterBrain(rng *rand.Rand) *MasterBrain {
	return &MasterBrain{core: newBaseBrain(MasterTuning, rng)}
}

func (b *MasterBrain) ShouldDrawFromDiscard(view *View) bool {
	return b.core.shouldDrawFromDiscard(view)
}

func (b *MasterBrain) ShouldTakeFinishingCard(view *View) bool {
	return b.core.shouldTakeFinishingCard(view)
}

func (b *MasterBrain) PlanTurn(view *View) TurnPlan {
	return b.core.planTurn(b.guardedView(view))
}

// guardedView hides melds owned by a high-danger opponent from the extension
// planner until the late game. Extending those melds sheds our points onto a
// table that is about to win anyway.
func (b *MasterBrain) guardedView(view *View) *View {
	if view.Tracker == nil || view.TurnCount >= b.core.tune.LateGameTurn {
		return view
	}
	filtered := make([]TableMeld, 0, len(view.TableMelds))
	for _, tm := range view.TableMelds {
		if tm.OwnerID != view.UserID {
			if p, ok := view.Tracker.Profiles[tm.OwnerID]; ok && p.DangerLevel >= dangerousOwnerLevel {
				continue
			}
		}
		filtered = append(filtered, tm)
	}
	if len(filtered) == len(view.TableMelds) {
		return view
	}
	guarded := *view
	guarded.TableMelds = filtered
	return &guarded
}
