package brain

import (
	"remi/internal/domain"
)

// Action is the kind of publicly observable move a tracker consumes.
type Action string

const (
	ActionDrawDeck      Action = "draw_deck"
	ActionPickDiscard   Action = "pick_discard"
	ActionTakeFinishing Action = "take_finishing"
	ActionDiscard       Action = "discard"
	ActionLayMelds      Action = "lay_melds"
	ActionOpen          Action = "open"
)

// Tracker is one observer's view of everyone else: a profile per opponent
// plus a shared memory of every card that has become visible.
type Tracker struct {
	SelfID   string
	Profiles map[string]*OpponentProfile
	Memory   *CardMemory
}

// NewTracker builds profiles for every seat except the observer's own.
func NewTracker(selfID string, seats []string, handCapacity int) *Tracker {
	t := &Tracker{
		SelfID:   selfID,
		Profiles: make(map[string]*OpponentProfile, len(seats)),
		Memory:   NewCardMemory(),
	}
	for _, userID := range seats {
		if userID == selfID {
			continue
		}
		t.Profiles[userID] = NewOpponentProfile(userID, handCapacity)
	}
	return t
}

// Observe routes one public action into the actor's profile and the shared
// card memory. Actions by the observer itself only feed the memory.
func (t *Tracker) Observe(actorID string, action Action, card *domain.Card, melds []domain.Meld) {
	switch action {
	case ActionDiscard:
		if card != nil {
			t.Memory.MarkSeen(*card)
		}
	case ActionLayMelds:
		for _, m := range melds {
			t.Memory.MarkSeen(m.Cards...)
		}
	}

	p, ok := t.Profiles[actorID]
	if !ok {
		return
	}
	switch action {
	case ActionDrawDeck:
		p.DrawFromDeck()
	case ActionPickDiscard, ActionTakeFinishing:
		if card != nil {
			p.PickFromDiscard(*card)
		}
	case ActionDiscard:
		if card != nil {
			p.Discard(*card)
		}
	case ActionLayMelds:
		p.LayMelds(melds)
	case ActionOpen:
		p.Open()
	}
}

// MostDangerous returns the opponent with the highest danger level, or nil
// when there are no profiles.
func (t *Tracker) MostDangerous() *OpponentProfile {
	var best *OpponentProfile
	for _, p := range t.Profiles {
		if best == nil || p.DangerLevel > best.DangerLevel ||
			(p.DangerLevel == best.DangerLevel && p.UserID < best.UserID) {
			best = p
		}
	}
	return best
}
