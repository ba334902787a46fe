package domain

import (
	"math/rand"

	"github.com/google/uuid"
)

// Phase represents the turn stage of a Remi round.
type Phase string

const (
	// PhaseDraw is the start of a turn; the current player must draw.
	PhaseDraw Phase = "draw"
	// PhaseMeld follows a draw; the player may lay or extend melds.
	PhaseMeld Phase = "meld"
	// PhaseDiscard is entered after the first lay; melding stays legal until
	// the mandatory discard.
	PhaseDiscard Phase = "discard"
	// PhaseGameOver is terminal for the round.
	PhaseGameOver Phase = "game_over"
)

// Obligation marks a forced-use rule pending on the current player.
type Obligation string

const (
	ObligationNone Obligation = ""
	// ObligationUseDrawnCard: the discard-pile card just taken must end up
	// inside a laid meld before discarding.
	ObligationUseDrawnCard Obligation = "use_drawn_card"
	// ObligationGoOut: the finishing card was taken; the hand must empty this
	// turn.
	ObligationGoOut Obligation = "go_out"
)

// PlayerState holds per-player round state. The hand is owner-private; melds,
// the opened flag, connection status and score are visible to all.
type PlayerState struct {
	UserID    string
	Seat      int // 0-based seat index
	Hand      []Card
	Melds     []Meld
	HasOpened bool // monotonic false -> true
	Connected bool
	Score     int64 // cumulative across rounds
}

// turnSnapshot captures the state restored by UndoSpecialDraw.
type turnSnapshot struct {
	hand           []Card
	melds          []Meld
	discardPile    []Card
	finishingCard  *Card
	finishingTaken bool
	hasOpened      bool
	phase          Phase
}

// Round is the authoritative state of one Remi round. All mutations go
// through the turn-machine methods in turns.go; callers must serialize access
// per round.
type Round struct {
	ID    uuid.UUID
	Phase Phase

	Seats   []string
	Players map[string]*PlayerState

	Turn      int // seat index of the current player
	TurnCount int

	DrawPile    []Card
	DiscardPile []Card // top card (last element) is public

	// FinishingCard is a non-joker card revealed at round start and removable
	// once per round.
	FinishingCard      *Card
	FinishingCardTaken bool

	WinnerUserID string

	obligation     Obligation
	obligationCard int16 // card ID bound to ObligationUseDrawnCard
	openThreshold  int32 // zero means the standard OpeningThreshold
	snapshot       *turnSnapshot
	rng            *rand.Rand
}

// DefaultHandSize is the number of cards dealt to each player.
const DefaultHandSize = 14

// OpeningThreshold is the combined meld score required for a player's first
// qualifying lay.
const OpeningThreshold int32 = 51

// NewRound initializes a round: builds and shuffles the double deck, deals
// handSize cards per seat, and reserves a non-joker finishing card.
func NewRound(seats []string, handSize int, rng *rand.Rand) (*Round, error) {
	if handSize <= 0 {
		handSize = DefaultHandSize
	}

	deck := NewRoundDeck()
	ShuffleDeck(deck, rng)

	r := &Round{
		ID:      uuid.New(),
		Phase:   PhaseDraw,
		Seats:   append([]string{}, seats...),
		Players: make(map[string]*PlayerState, len(seats)),
		rng:     rng,
	}

	idx := 0
	for seat, userID := range seats {
		hand := append([]Card{}, deck[idx:idx+handSize]...)
		idx += handSize
		r.Players[userID] = &PlayerState{
			UserID:    userID,
			Seat:      seat,
			Hand:      hand,
			Connected: true,
		}
	}

	// Reserve the first non-joker card from the remainder as finishing card.
	rest := deck[idx:]
	for i, c := range rest {
		if !c.IsJoker() {
			fc := c
			r.FinishingCard = &fc
			rest = append(append([]Card{}, rest[:i]...), rest[i+1:]...)
			break
		}
	}
	r.DrawPile = rest

	return r, nil
}

// OpenRequirement returns the combined meld score a player's first lay must
// reach in this round.
func (r *Round) OpenRequirement() int32 {
	if r.openThreshold > 0 {
		return r.openThreshold
	}
	return OpeningThreshold
}

// SetOpenRequirement overrides the standard opening score, for tables that
// configure their own. Non-positive values are ignored.
func (r *Round) SetOpenRequirement(v int32) {
	if v > 0 {
		r.openThreshold = v
	}
}

// CurrentUserID returns the user whose turn it is.
func (r *Round) CurrentUserID() string {
	if r.Turn < 0 || r.Turn >= len(r.Seats) {
		return ""
	}
	return r.Seats[r.Turn]
}

// DiscardTop returns the public top of the discard pile.
func (r *Round) DiscardTop() (Card, bool) {
	if len(r.DiscardPile) == 0 {
		return Card{}, false
	}
	return r.DiscardPile[len(r.DiscardPile)-1], true
}

// PendingObligation exposes the current forced-use rule, if any.
func (r *Round) PendingObligation() (Obligation, int16) {
	return r.obligation, r.obligationCard
}

// Player returns the state for a user ID.
func (r *Round) Player(userID string) (*PlayerState, bool) {
	p, ok := r.Players[userID]
	return p, ok
}

// verifyLocationUniqueness checks the global invariant that every card sits
// in exactly one location. Returns ErrCardConflict on a breach.
func (r *Round) verifyLocationUniqueness() error {
	seen := make(map[int16]bool, 108)
	mark := func(cards []Card) error {
		for _, c := range cards {
			if seen[c.ID] {
				return ErrCardConflict
			}
			seen[c.ID] = true
		}
		return nil
	}

	if err := mark(r.DrawPile); err != nil {
		return err
	}
	if err := mark(r.DiscardPile); err != nil {
		return err
	}
	if r.FinishingCard != nil && !r.FinishingCardTaken {
		if err := mark([]Card{*r.FinishingCard}); err != nil {
			return err
		}
	}
	for _, p := range r.Players {
		if err := mark(p.Hand); err != nil {
			return err
		}
		for _, m := range p.Melds {
			if err := mark(m.Cards); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Round) takeSnapshot(p *PlayerState) {
	snap := &turnSnapshot{
		hand:           append([]Card{}, p.Hand...),
		melds:          cloneMelds(p.Melds),
		discardPile:    append([]Card{}, r.DiscardPile...),
		finishingTaken: r.FinishingCardTaken,
		hasOpened:      p.HasOpened,
		phase:          r.Phase,
	}
	if r.FinishingCard != nil {
		fc := *r.FinishingCard
		snap.finishingCard = &fc
	}
	r.snapshot = snap
}

func cloneMelds(melds []Meld) []Meld {
	out := make([]Meld, len(melds))
	for i, m := range melds {
		out[i] = Meld{Type: m.Type, Cards: append([]Card{}, m.Cards...), Score: m.Score}
	}
	return out
}

func (r *Round) clearTurnState() {
	r.obligation = ObligationNone
	r.obligationCard = 0
	r.snapshot = nil
}
