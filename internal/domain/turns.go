package domain

// Turn machine: DRAW -> MELD -> DISCARD -> next player's DRAW, or
// -> GAME_OVER when a discard empties the hand. Laying melds never advances
// the turn by itself; only the mandatory discard does.

func (r *Round) guardTurn(userID string, phases ...Phase) (*PlayerState, error) {
	if r.Phase == PhaseGameOver {
		return nil, ErrRoundOver
	}
	p, ok := r.Players[userID]
	if !ok {
		return nil, ErrNotYourTurn
	}
	if r.CurrentUserID() != userID {
		return nil, ErrNotYourTurn
	}
	for _, ph := range phases {
		if r.Phase == ph {
			return p, nil
		}
	}
	return nil, ErrWrongPhase
}

// DrawFromDeck draws the top card of the draw pile into the actor's hand,
// reshuffling the discard pile (minus its top card) first if the pile is
// empty. Moves the turn to the meld phase.
func (r *Round) DrawFromDeck(userID string) (Card, error) {
	p, err := r.guardTurn(userID, PhaseDraw)
	if err != nil {
		return Card{}, err
	}

	if len(r.DrawPile) == 0 {
		if err := r.refillDrawPile(); err != nil {
			return Card{}, err
		}
	}

	card := r.DrawPile[len(r.DrawPile)-1]
	r.DrawPile = r.DrawPile[:len(r.DrawPile)-1]
	p.Hand = append(p.Hand, card)
	r.Phase = PhaseMeld
	return card, nil
}

// DrawFromDiscard takes the discard pile's top card. The card must be used
// inside a laid meld before discarding; a pre-draw snapshot backs the undo
// path.
func (r *Round) DrawFromDiscard(userID string) (Card, error) {
	p, err := r.guardTurn(userID, PhaseDraw)
	if err != nil {
		return Card{}, err
	}

	top, ok := r.DiscardTop()
	if !ok {
		return Card{}, ErrWrongPhase
	}

	r.takeSnapshot(p)
	r.DiscardPile = r.DiscardPile[:len(r.DiscardPile)-1]
	p.Hand = append(p.Hand, top)
	r.Phase = PhaseMeld
	r.obligation = ObligationUseDrawnCard
	r.obligationCard = top.ID
	return top, nil
}

// TakeFinishingCard removes the round's finishing card into the actor's hand.
// The actor must go out (discard to zero cards) this same turn; a pre-draw
// snapshot backs the undo path.
func (r *Round) TakeFinishingCard(userID string) (Card, error) {
	p, err := r.guardTurn(userID, PhaseDraw)
	if err != nil {
		return Card{}, err
	}
	if r.FinishingCard == nil || r.FinishingCardTaken {
		return Card{}, ErrFinishingCardTaken
	}

	r.takeSnapshot(p)
	card := *r.FinishingCard
	r.FinishingCardTaken = true
	p.Hand = append(p.Hand, card)
	r.Phase = PhaseMeld
	r.obligation = ObligationGoOut
	return card, nil
}

// LayMelds validates and lays the given card groups as new melds in front of
// the actor. Every group must independently be a valid meld, every card must
// be in the actor's hand, and an unopened player's combined lay must reach
// the opening threshold. The phase stays in the meld window.
func (r *Round) LayMelds(userID string, groups [][]int16) ([]Meld, error) {
	p, err := r.guardTurn(userID, PhaseMeld, PhaseDiscard)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrInvalidMeldShape
	}

	usedIDs := make(map[int16]bool)
	melds := make([]Meld, 0, len(groups))
	var total int32
	for _, group := range groups {
		cards := make([]Card, 0, len(group))
		for _, id := range group {
			card, inHand := FindCard(p.Hand, id)
			if !inHand {
				return nil, ErrCardNotInHand
			}
			if usedIDs[id] {
				return nil, ErrCardConflict
			}
			usedIDs[id] = true
			cards = append(cards, card)
		}
		m, err := NewMeld(cards)
		if err != nil {
			return nil, err
		}
		melds = append(melds, m)
		total += m.Score
	}

	if !p.HasOpened && total < r.OpenRequirement() {
		return nil, ErrOpeningRequirementNotMet
	}

	// Commit. Apply to copies first so an invariant breach leaves the last
	// committed state untouched.
	newHand := p.Hand
	for _, m := range melds {
		newHand = RemoveCards(newHand, m.Cards)
	}
	oldHand, oldMelds := p.Hand, p.Melds
	p.Hand = newHand
	p.Melds = append(cloneMelds(p.Melds), melds...)
	if err := r.verifyLocationUniqueness(); err != nil {
		p.Hand, p.Melds = oldHand, oldMelds
		return nil, err
	}

	p.HasOpened = true

	if r.obligation == ObligationUseDrawnCard && usedIDs[r.obligationCard] {
		r.obligation = ObligationNone
		r.obligationCard = 0
	}
	r.Phase = PhaseDiscard
	return melds, nil
}

// AddToMeld extends a laid meld (the actor's own or an opponent's) with one
// hand card, or swaps out a joker for the exact card it represents. A swapped
// joker returns to the actor's hand. Only legal once the actor has opened.
func (r *Round) AddToMeld(userID string, cardID int16, meldOwnerID string, meldIndex int) error {
	p, err := r.guardTurn(userID, PhaseMeld, PhaseDiscard)
	if err != nil {
		return err
	}
	if !p.HasOpened {
		return ErrNotOpened
	}

	card, inHand := FindCard(p.Hand, cardID)
	if !inHand {
		return ErrCardNotInHand
	}

	owner, ok := r.Players[meldOwnerID]
	if !ok || meldIndex < 0 || meldIndex >= len(owner.Melds) {
		return ErrMeldNotFound
	}
	target := owner.Melds[meldIndex]

	// Joker substitution first: the candidate frees the joker it replaces.
	for _, mc := range target.Cards {
		if mc.IsJoker() && CanReplaceJoker(card, mc.ID, target) {
			swapped := make([]Card, 0, len(target.Cards))
			for _, existing := range target.Cards {
				if existing.ID == mc.ID {
					swapped = append(swapped, card)
				} else {
					swapped = append(swapped, existing)
				}
			}
			newMeld, err := NewMeld(swapped)
			if err != nil {
				return err
			}
			owner.Melds[meldIndex] = newMeld
			p.Hand = RemoveCards(p.Hand, []Card{card})
			p.Hand = append(p.Hand, mc)
			r.satisfyDrawnCardObligation(cardID)
			r.Phase = PhaseDiscard
			return nil
		}
	}

	extended, err := NewMeld(append(append([]Card{}, target.Cards...), card))
	if err != nil {
		return err
	}
	if extended.Type != target.Type {
		return ErrInvalidMeldShape
	}

	owner.Melds[meldIndex] = extended
	p.Hand = RemoveCards(p.Hand, []Card{card})
	if err := r.verifyLocationUniqueness(); err != nil {
		owner.Melds[meldIndex] = target
		p.Hand = append(p.Hand, card)
		return err
	}
	r.satisfyDrawnCardObligation(cardID)
	r.Phase = PhaseDiscard
	return nil
}

func (r *Round) satisfyDrawnCardObligation(cardID int16) {
	if r.obligation == ObligationUseDrawnCard && r.obligationCard == cardID {
		r.obligation = ObligationNone
		r.obligationCard = 0
	}
}

// Discard moves one hand card to the discard pile. Unmet forced-use rules
// block it. An emptied hand ends the round with the actor as winner;
// otherwise the turn advances to the next seat.
func (r *Round) Discard(userID string, cardID int16) error {
	p, err := r.guardTurn(userID, PhaseMeld, PhaseDiscard)
	if err != nil {
		return err
	}

	card, inHand := FindCard(p.Hand, cardID)
	if !inHand {
		return ErrCardNotInHand
	}

	if r.obligation == ObligationUseDrawnCard {
		return ErrMustUseDrawnCard
	}
	if r.obligation == ObligationGoOut && len(p.Hand) > 1 {
		return ErrMustGoOutWithFinishingCard
	}

	p.Hand = RemoveCards(p.Hand, []Card{card})
	r.DiscardPile = append(r.DiscardPile, card)
	r.clearTurnState()

	if len(p.Hand) == 0 {
		r.Phase = PhaseGameOver
		r.WinnerUserID = userID
		return nil
	}

	r.Turn = (r.Turn + 1) % len(r.Seats)
	r.TurnCount++
	r.Phase = PhaseDraw
	return nil
}

// UndoSpecialDraw rolls back an unmet forced-use draw: the pre-draw snapshot
// (hand, melds, discard pile, finishing-card state) is restored and the actor
// draws from the deck instead.
func (r *Round) UndoSpecialDraw(userID string) (Card, error) {
	p, err := r.guardTurn(userID, PhaseMeld, PhaseDiscard)
	if err != nil {
		return Card{}, err
	}
	if r.snapshot == nil || r.obligation == ObligationNone {
		return Card{}, ErrInvalidUndo
	}

	snap := r.snapshot
	p.Hand = snap.hand
	p.Melds = snap.melds
	p.HasOpened = snap.hasOpened
	r.DiscardPile = snap.discardPile
	r.FinishingCard = snap.finishingCard
	r.FinishingCardTaken = snap.finishingTaken
	r.Phase = PhaseDraw
	r.clearTurnState()

	return r.DrawFromDeck(userID)
}

// ReorderHand moves a hand card from one index to another. Cosmetic only; no
// rule validation beyond bounds.
func (r *Round) ReorderHand(userID string, from, to int) error {
	p, ok := r.Players[userID]
	if !ok {
		return ErrNotYourTurn
	}
	if from < 0 || from >= len(p.Hand) || to < 0 || to >= len(p.Hand) {
		return ErrCardNotInHand
	}
	card := p.Hand[from]
	p.Hand = append(p.Hand[:from], p.Hand[from+1:]...)
	rest := append([]Card{}, p.Hand[to:]...)
	p.Hand = append(append(p.Hand[:to], card), rest...)
	return nil
}

// refillDrawPile reshuffles the discard pile, excluding its current top card,
// back into the draw pile. Fails when both piles are exhausted.
func (r *Round) refillDrawPile() error {
	if len(r.DiscardPile) <= 1 {
		return ErrEmptyDeckUnrecoverable
	}
	top := r.DiscardPile[len(r.DiscardPile)-1]
	recycled := append([]Card{}, r.DiscardPile[:len(r.DiscardPile)-1]...)
	ShuffleDeck(recycled, r.rng)
	r.DrawPile = recycled
	r.DiscardPile = []Card{top}
	return nil
}
