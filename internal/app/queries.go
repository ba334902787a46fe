package app

import (
	"remi/internal/domain"
)

// MeldValidation is the result of dry-running a set of hand cards through
// the meld splitter, used by clients for pre-lay feedback.
type MeldValidation struct {
	ValidMelds           []domain.Meld `json:"validMelds"`
	InvalidCards         []domain.Card `json:"invalidCards"`
	TotalScore           int32         `json:"totalScore"`
	MeldScores           []int32       `json:"meldScores"`
	MeetsOpenRequirement bool          `json:"meetsOpenRequirement"`
	MinimumNeeded        int32         `json:"minimumNeeded"`
}

// ValidateMelds splits the given hand cards into the best disjoint melds
// without mutating any state.
func (s *Service) ValidateMelds(r *domain.Round, userID string, cardIDs []int16) (MeldValidation, error) {
	p, ok := r.Player(userID)
	if !ok {
		return MeldValidation{}, ErrUnknownPlayer
	}

	cards := make([]domain.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		card, inHand := domain.FindCard(p.Hand, id)
		if !inHand {
			return MeldValidation{}, domain.ErrCardNotInHand
		}
		cards = append(cards, card)
	}

	melds, leftover := domain.SplitIntoMeldGroups(cards)

	out := MeldValidation{
		ValidMelds:   melds,
		InvalidCards: leftover,
		MeldScores:   make([]int32, len(melds)),
	}
	for i, m := range melds {
		out.MeldScores[i] = m.Score
		out.TotalScore += m.Score
	}

	if p.HasOpened {
		out.MeetsOpenRequirement = true
	} else {
		out.MeetsOpenRequirement = out.TotalScore >= r.OpenRequirement()
		if !out.MeetsOpenRequirement {
			out.MinimumNeeded = r.OpenRequirement() - out.TotalScore
		}
	}
	return out, nil
}

// PublicPlayer is what everyone may know about a seat: never the hand
// contents, only its size.
type PublicPlayer struct {
	UserID    string        `json:"userId"`
	Seat      int           `json:"seat"`
	HandSize  int           `json:"handSize"`
	Melds     []domain.Meld `json:"melds"`
	HasOpened bool          `json:"hasOpened"`
	Connected bool          `json:"connected"`
	Score     int64         `json:"score"`
}

// Projection is one player's full view of the round, safe to send on
// reconnect.
type Projection struct {
	RoundID        string            `json:"roundId"`
	Phase          domain.Phase      `json:"phase"`
	TurnUserID     string            `json:"turnUserId"`
	TurnCount      int               `json:"turnCount"`
	DeckSize       int               `json:"deckSize"`
	DiscardTop     *domain.Card      `json:"discardTop,omitempty"`
	DiscardCount   int               `json:"discardCount"`
	FinishingCard  *domain.Card      `json:"finishingCard,omitempty"`
	FinishingTaken bool              `json:"finishingTaken"`
	Hand           []domain.Card     `json:"hand"`
	Obligation     domain.Obligation `json:"obligation,omitempty"`
	ObligationCard int16             `json:"obligationCard,omitempty"`
	Players        []PublicPlayer    `json:"players"`
	WinnerUserID   string            `json:"winnerUserId,omitempty"`
}

// StateFor derives the per-player projection: the viewer's own hand plus
// public information about everyone else.
func (s *Service) StateFor(r *domain.Round, userID string) (Projection, error) {
	viewer, ok := r.Player(userID)
	if !ok {
		return Projection{}, ErrUnknownPlayer
	}

	proj := Projection{
		RoundID:        r.ID.String(),
		Phase:          r.Phase,
		TurnUserID:     r.CurrentUserID(),
		TurnCount:      r.TurnCount,
		DeckSize:       len(r.DrawPile),
		DiscardCount:   len(r.DiscardPile),
		FinishingCard:  r.FinishingCard,
		FinishingTaken: r.FinishingCardTaken,
		Hand:           append([]domain.Card{}, viewer.Hand...),
		WinnerUserID:   r.WinnerUserID,
	}
	if top, ok := r.DiscardTop(); ok {
		t := top
		proj.DiscardTop = &t
	}
	if r.CurrentUserID() == userID {
		proj.Obligation, proj.ObligationCard = r.PendingObligation()
	}

	for _, seatUser := range r.Seats {
		p, ok := r.Player(seatUser)
		if !ok {
			continue
		}
		proj.Players = append(proj.Players, PublicPlayer{
			UserID:    p.UserID,
			Seat:      p.Seat,
			HandSize:  len(p.Hand),
			Melds:     p.Melds,
			HasOpened: p.HasOpened,
			Connected: p.Connected,
			Score:     p.Score,
		})
	}
	return proj, nil
}
