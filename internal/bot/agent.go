package bot

import (
	"math/rand"

	"remi/internal/bot/brain"
	"remi/internal/domain"
)

// DrawChoice is which pile the agent wants to draw from this turn.
type DrawChoice int

const (
	DrawDeck DrawChoice = iota
	DrawDiscard
	DrawFinishing
)

// Agent is one autonomous bot seat: a strategy brain plus the opponent
// tracker it feeds from observed play. A fault inside the brain never
// escapes; the agent degrades to the safe default move instead.
type Agent struct {
	ID         string
	Name       string
	Difficulty string
	Strategy   Brain
	Tracker    *brain.Tracker
}

// NewAgent builds an agent seated among the given players.
func NewAgent(id, name, difficulty string, seats []string, handCapacity int, rng *rand.Rand) (*Agent, error) {
	strategy, err := NewBrain(difficulty, rng)
	if err != nil {
		return nil, err
	}
	return &Agent{
		ID:         id,
		Name:       name,
		Difficulty: difficulty,
		Strategy:   strategy,
		Tracker:    brain.NewTracker(id, seats, handCapacity),
	}, nil
}

// Observe feeds one public action into the agent's tracker.
func (a *Agent) Observe(actorID string, action brain.Action, card *domain.Card, melds []domain.Meld) {
	a.Tracker.Observe(actorID, action, card, melds)
}

// ChooseDraw decides where to draw from. Defaults to the deck on any
// internal fault.
func (a *Agent) ChooseDraw(view *View) (choice DrawChoice) {
	defer func() {
		if recover() != nil {
			choice = DrawDeck
		}
	}()
	view.Tracker = a.Tracker
	if a.Strategy.ShouldTakeFinishingCard(view) {
		return DrawFinishing
	}
	if a.Strategy.ShouldDrawFromDiscard(view) {
		return DrawDiscard
	}
	return DrawDeck
}

// PlanTurn decides melds, extensions, and the discard. On any internal
// fault it lays nothing and discards the lowest-value non-joker card.
func (a *Agent) PlanTurn(view *View) (plan TurnPlan) {
	defer func() {
		if recover() != nil {
			plan = safePlan(view.Hand)
		}
	}()
	view.Tracker = a.Tracker
	plan = a.Strategy.PlanTurn(view)
	if plan.DiscardID < 0 && len(plan.MeldGroups) == 0 && len(plan.Extensions) == 0 {
		plan = safePlan(view.Hand)
	}
	return plan
}

// safePlan is the degraded move: no melds, throw the cheapest non-joker.
func safePlan(hand []domain.Card) TurnPlan {
	best := int16(-1)
	var bestPoints int32
	for _, c := range hand {
		if c.IsJoker() {
			continue
		}
		if best < 0 || domain.CardPoints(c) < bestPoints {
			best = c.ID
			bestPoints = domain.CardPoints(c)
		}
	}
	if best < 0 && len(hand) > 0 {
		best = hand[0].ID
	}
	return TurnPlan{DiscardID: best}
}
