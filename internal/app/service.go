package app

import (
	"errors"
	"math/rand"
	"time"

	"remi/internal/domain"
)

// Service contains the round use-cases operating on domain state. Every
// command returns the events the transport layer should dispatch.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer = errors.New("player not found")
)

// StartRound deals a fresh round to the given seats and emits the private
// hand events plus the public round-started event.
func (s *Service) StartRound(playerIDs []string, handSize int) (*domain.Round, []Event, error) {
	seats := make([]string, 0, len(playerIDs))
	for _, userID := range playerIDs {
		if userID != "" {
			seats = append(seats, userID)
		}
	}
	if len(seats) < MinPlayersToStartRound {
		return nil, nil, ErrTooFewPlayers
	}
	if handSize <= 0 {
		handSize = domain.DefaultHandSize
	}

	round, err := domain.NewRound(seats, handSize, s.rng)
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0, len(seats)+1)
	for _, userID := range seats {
		p, _ := round.Player(userID)
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: userID, Hand: p.Hand},
			Recipients: []string{userID},
		})
	}

	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			RoundID:         round.ID.String(),
			FirstTurnUserID: round.CurrentUserID(),
			Seats:           round.Seats,
			HandSize:        handSize,
			FinishingCard:   round.FinishingCard,
		},
	})
	return round, events, nil
}

// DrawFromDeck draws face down. The card is private to the drawer; everyone
// else only learns that a deck draw happened.
func (s *Service) DrawFromDeck(r *domain.Round, userID string) ([]Event, error) {
	card, err := r.DrawFromDeck(userID)
	if err != nil {
		return nil, err
	}
	return []Event{
		{
			Kind:       EventCardDrawn,
			Payload:    CardDrawnPayload{UserID: userID, Card: card},
			Recipients: []string{userID},
		},
		{
			Kind:    EventDrawMade,
			Payload: DrawMadePayload{UserID: userID, Source: DrawSourceDeck, DeckSize: len(r.DrawPile)},
		},
	}, nil
}

// DrawFromDiscard takes the public discard top, which obligates melding it
// this turn.
func (s *Service) DrawFromDiscard(r *domain.Round, userID string) ([]Event, error) {
	card, err := r.DrawFromDiscard(userID)
	if err != nil {
		return nil, err
	}
	c := card
	return []Event{{
		Kind:    EventDrawMade,
		Payload: DrawMadePayload{UserID: userID, Source: DrawSourceDiscard, Card: &c, DeckSize: len(r.DrawPile)},
	}}, nil
}

// TakeFinishingCard takes the face-up finishing card, which obligates going
// out this turn.
func (s *Service) TakeFinishingCard(r *domain.Round, userID string) ([]Event, error) {
	card, err := r.TakeFinishingCard(userID)
	if err != nil {
		return nil, err
	}
	c := card
	return []Event{{
		Kind:    EventDrawMade,
		Payload: DrawMadePayload{UserID: userID, Source: DrawSourceFinishing, Card: &c, DeckSize: len(r.DrawPile)},
	}}, nil
}

// LayMelds lays card groups as new melds in front of the actor.
func (s *Service) LayMelds(r *domain.Round, userID string, groups [][]int16) ([]Event, error) {
	p, ok := r.Player(userID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	wasOpened := p.HasOpened

	melds, err := r.LayMelds(userID, groups)
	if err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventMeldsLaid,
		Payload: MeldsLaidPayload{UserID: userID, Melds: melds, Opened: !wasOpened && p.HasOpened},
	}}, nil
}

// AddToMeld extends an existing table meld with one hand card or swaps out a
// joker with the exact card it stands for.
func (s *Service) AddToMeld(r *domain.Round, userID string, cardID int16, ownerID string, meldIndex int) ([]Event, error) {
	p, ok := r.Player(userID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	before := make(map[int16]bool, len(p.Hand))
	for _, c := range p.Hand {
		before[c.ID] = true
	}

	if err := r.AddToMeld(userID, cardID, ownerID, meldIndex); err != nil {
		return nil, err
	}

	owner, _ := r.Player(ownerID)
	payload := MeldExtendedPayload{
		UserID:    userID,
		OwnerID:   ownerID,
		MeldIndex: meldIndex,
		Meld:      owner.Melds[meldIndex],
	}
	// A card the actor did not hold before is the joker freed by a swap.
	for _, c := range p.Hand {
		if !before[c.ID] {
			freed := c
			payload.FreedJoker = &freed
			break
		}
	}
	return []Event{{Kind: EventMeldExtended, Payload: payload}}, nil
}

// Discard throws one card and either advances the turn or ends the round.
func (s *Service) Discard(r *domain.Round, userID string, cardID int16) ([]Event, error) {
	p, ok := r.Player(userID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	card, inHand := domain.FindCard(p.Hand, cardID)
	if !inHand {
		return nil, domain.ErrCardNotInHand
	}

	if err := r.Discard(userID, cardID); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind:    EventDiscarded,
		Payload: DiscardedPayload{UserID: userID, Card: card, NextTurnUserID: r.CurrentUserID()},
	}}

	if r.Phase == domain.PhaseGameOver {
		events = append(events, Event{
			Kind: EventRoundEnded,
			Payload: RoundEndedPayload{
				WinnerUserID: r.WinnerUserID,
				TurnCount:    r.TurnCount,
				Settlements:  SettleRound(r),
			},
		})
	}
	return events, nil
}

// UndoSpecialDraw rolls back an unmet forced-use draw and draws from the
// deck instead.
func (s *Service) UndoSpecialDraw(r *domain.Round, userID string) ([]Event, error) {
	card, err := r.UndoSpecialDraw(userID)
	if err != nil {
		return nil, err
	}

	var top *domain.Card
	if t, ok := r.DiscardTop(); ok {
		restored := t
		top = &restored
	}
	return []Event{
		{
			Kind:    EventSpecialDrawUndone,
			Payload: SpecialDrawUndonePayload{UserID: userID, DiscardTop: top},
		},
		{
			Kind:       EventCardDrawn,
			Payload:    CardDrawnPayload{UserID: userID, Card: card},
			Recipients: []string{userID},
		},
		{
			Kind:    EventDrawMade,
			Payload: DrawMadePayload{UserID: userID, Source: DrawSourceDeck, DeckSize: len(r.DrawPile)},
		},
	}, nil
}

// ReorderHand is cosmetic and emits nothing.
func (s *Service) ReorderHand(r *domain.Round, userID string, from, to int) ([]Event, error) {
	if err := r.ReorderHand(userID, from, to); err != nil {
		return nil, err
	}
	return nil, nil
}

// SettleRound computes end-of-round wallet deltas: each loser pays their
// remaining deadwood, the winner collects the sum.
func SettleRound(r *domain.Round) []Settlement {
	settlements := make([]Settlement, 0, len(r.Seats))
	var pot int64
	for _, userID := range r.Seats {
		if userID == r.WinnerUserID {
			continue
		}
		p, ok := r.Player(userID)
		if !ok {
			continue
		}
		deadwood := domain.Deadwood(p.Hand)
		pot += int64(deadwood)
		settlements = append(settlements, Settlement{
			UserID:   userID,
			Delta:    -int64(deadwood),
			Deadwood: deadwood,
		})
	}
	if r.WinnerUserID != "" {
		settlements = append(settlements, Settlement{UserID: r.WinnerUserID, Delta: pot})
	}
	return settlements
}
