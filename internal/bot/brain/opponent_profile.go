package brain

import (
	"remi/internal/domain"
)

// PlayStyle is a coarse behavioral classification of an opponent.
type PlayStyle string

const (
	StyleAggressive PlayStyle = "aggressive"
	StyleDefensive  PlayStyle = "defensive"
	StyleBalanced   PlayStyle = "balanced"
)

var needSuits = []domain.Suit{
	domain.SuitHeart, domain.SuitDiamond, domain.SuitClub, domain.SuitSpade,
}

// OpponentProfile tracks what the bot believes about one other player, built
// only from publicly observable actions.
type OpponentProfile struct {
	UserID string
	// LikelyNeeds maps a card key ("7-HEART") to an estimated 0..100
	// probability that the player wants that card.
	LikelyNeeds  map[string]int
	DangerLevel  int
	HandSize     int
	HandCapacity int
	Opened       bool
	MeldCount    int
	Discards     []domain.Card
	Pickups      []domain.Card
}

// NewOpponentProfile initializes a profile for a player starting at the
// dealt hand size.
func NewOpponentProfile(userID string, handCapacity int) *OpponentProfile {
	return &OpponentProfile{
		UserID:       userID,
		LikelyNeeds:  make(map[string]int),
		HandSize:     handCapacity,
		HandCapacity: handCapacity,
	}
}

// Discard records a discarded card. The player evidently does not need that
// value, so demand for it drops across all suits, and nearby cards in the
// discarded suit drop slightly.
func (p *OpponentProfile) Discard(card domain.Card) {
	p.Discards = append(p.Discards, card)
	p.HandSize--
	if !card.IsJoker() {
		for _, suit := range needSuits {
			p.adjustNeed(card.Value, suit, -30)
		}
		p.adjustNeed(card.Value-1, card.Suit, -15)
		p.adjustNeed(card.Value+1, card.Suit, -15)
	}
	p.recomputeDanger()
}

// PickFromDiscard records a voluntary take from the discard pile. The player
// is building around that card: demand rises for its value in other suits
// and for neighbors in its suit, and the taken card itself is pinned at 100.
func (p *OpponentProfile) PickFromDiscard(card domain.Card) {
	p.Pickups = append(p.Pickups, card)
	p.HandSize++
	if !card.IsJoker() {
		for _, suit := range needSuits {
			if suit == card.Suit {
				continue
			}
			p.adjustNeed(card.Value, suit, 40)
		}
		p.adjustNeed(card.Value-1, card.Suit, 50)
		p.adjustNeed(card.Value+1, card.Suit, 50)
		p.adjustNeed(card.Value-2, card.Suit, 25)
		p.adjustNeed(card.Value+2, card.Suit, 25)
		p.LikelyNeeds[card.Key()] = 100
	}
	p.recomputeDanger()
	p.DangerLevel = clampDanger(p.DangerLevel + 15)
}

// DrawFromDeck records a face-down draw. Only the hand size moves.
func (p *OpponentProfile) DrawFromDeck() {
	p.HandSize++
}

// LayMelds records melds laid in front of the player.
func (p *OpponentProfile) LayMelds(melds []domain.Meld) {
	for _, m := range melds {
		p.HandSize -= len(m.Cards)
	}
	p.MeldCount += len(melds)
	p.recomputeDanger()
}

// Open records the player's first qualifying lay.
func (p *OpponentProfile) Open() {
	p.Opened = true
	p.recomputeDanger()
}

// NeedFor returns the estimated 0..100 demand for a specific card.
func (p *OpponentProfile) NeedFor(card domain.Card) int {
	return p.LikelyNeeds[card.Key()]
}

// Style classifies the opponent from the discard/pickup ratio. Players who
// fish the discard pile are building visibly; players who never touch it
// keep their plans hidden.
func (p *OpponentProfile) Style() PlayStyle {
	actions := len(p.Discards) + len(p.Pickups)
	if actions < 4 {
		return StyleBalanced
	}
	ratio := float64(len(p.Pickups)) / float64(actions)
	switch {
	case ratio > 0.4:
		return StyleAggressive
	case ratio < 0.15:
		return StyleDefensive
	default:
		return StyleBalanced
	}
}

func (p *OpponentProfile) adjustNeed(value int32, suit domain.Suit, delta int) {
	if value < 1 || value > 13 {
		return
	}
	key := domain.CardKey(value, suit)
	v := p.LikelyNeeds[key] + delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	p.LikelyNeeds[key] = v
}

func (p *OpponentProfile) recomputeDanger() {
	d := (p.HandCapacity - p.HandSize) * 6
	if p.Opened {
		d += 20
	}
	d += p.MeldCount*10 + len(p.Pickups)*8
	p.DangerLevel = clampDanger(d)
}

func clampDanger(d int) int {
	if d < 0 {
		return 0
	}
	if d > 100 {
		return 100
	}
	return d
}
