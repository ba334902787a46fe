package bot

import (
	"remi/internal/bot/brain"
	"remi/internal/domain"
)

// TableMeld is a meld visible on the table, addressed by owner and index.
type TableMeld struct {
	OwnerID string
	Index   int
	Meld    domain.Meld
}

// View is everything a bot may legally see when deciding: its own hand plus
// the public table state and its opponent tracker. Other hands never appear
// here.
type View struct {
	UserID         string
	Hand           []domain.Card
	HasOpened      bool
	DiscardTop     *domain.Card
	FinishingCard  *domain.Card
	FinishingTaken bool
	HandCapacity   int
	TurnCount      int
	DeckSize       int
	TableMelds     []TableMeld
	Tracker        *brain.Tracker
}

// Extension places one hand card onto an existing table meld.
type Extension struct {
	CardID    int16
	OwnerID   string
	MeldIndex int
}

// TurnPlan is a bot's full meld-phase decision: groups to lay as new melds,
// extensions to existing melds, and the mandatory discard.
type TurnPlan struct {
	MeldGroups [][]int16
	Extensions []Extension
	DiscardID  int16
}

// Brain is the decision surface every bot difficulty implements.
type Brain interface {
	ShouldDrawFromDiscard(view *View) bool
	ShouldTakeFinishingCard(view *View) bool
	PlanTurn(view *View) TurnPlan
}
