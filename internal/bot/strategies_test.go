package bot

import (
	"math/rand"
	"testing"

	"remi/internal/bot/brain"
	"remi/internal/domain"
)

func card(id int16, value int32, suit domain.Suit) domain.Card {
	return domain.Card{ID: id, Suit: suit, Value: value}
}

func joker(id int16) domain.Card {
	return domain.Card{ID: id, Suit: domain.SuitJokerRed}
}

func testView(hand []domain.Card) *View {
	return &View{
		UserID:       "bot",
		Hand:         hand,
		HandCapacity: domain.DefaultHandSize,
		Tracker:      brain.NewTracker("bot", []string{"bot", "opp"}, domain.DefaultHandSize),
	}
}

func TestShouldDrawFromDiscardCompletesMeld(t *testing.T) {
	// Hand holds two kings plus an opening-ready block; the discard top is
	// the third king. KS+KD+KC (30) + JH-QH-KH (30) clears the gate.
	hand := []domain.Card{
		card(1, 13, domain.SuitSpade), card(2, 13, domain.SuitDiamond),
		card(4, 11, domain.SuitHeart), card(5, 12, domain.SuitHeart), card(6, 13, domain.SuitHeart),
		card(7, 4, domain.SuitClub),
	}
	top := card(90, 13, domain.SuitClub)
	view := testView(hand)
	view.DiscardTop = &top

	b := NewSmartBrain(rand.New(rand.NewSource(1)))
	if !b.ShouldDrawFromDiscard(view) {
		t.Error("completing two 30-point melds should justify the draw")
	}

	// A useless card must be declined.
	useless := card(91, 2, domain.SuitClub)
	view.DiscardTop = &useless
	if b.ShouldDrawFromDiscard(view) {
		t.Error("a card no meld consumes must be declined")
	}
}

func TestShouldDrawFromDiscardRespectsOpeningGate(t *testing.T) {
	// 2H-3H completed by the discarded 4H scores 9: meldable but nowhere
	// near the opening threshold.
	hand := []domain.Card{
		card(1, 2, domain.SuitHeart), card(2, 3, domain.SuitHeart),
		card(3, 9, domain.SuitClub), card(4, 6, domain.SuitSpade),
	}
	top := card(90, 4, domain.SuitHeart)
	view := testView(hand)
	view.DiscardTop = &top

	b := NewMasterBrain(rand.New(rand.NewSource(1)))
	if b.ShouldDrawFromDiscard(view) {
		t.Error("an unopened bot must not draw for a sub-threshold lay")
	}
}

func TestMasterDeniesWantedCard(t *testing.T) {
	hand := []domain.Card{
		card(1, 13, domain.SuitSpade), card(2, 13, domain.SuitDiamond),
		card(4, 11, domain.SuitHeart), card(5, 12, domain.SuitHeart), card(6, 13, domain.SuitHeart),
		card(7, 4, domain.SuitClub), card(8, 5, domain.SuitClub),
	}
	top := card(90, 13, domain.SuitClub)
	view := testView(hand)
	view.HasOpened = true
	view.DiscardTop = &top

	// Laying leaves two cards, so this is not an immediate win; the deny
	// rule is live. Pin the opponent's demand for that exact card at 100.
	view.Tracker.Profiles["opp"].PickFromDiscard(card(50, 13, domain.SuitClub))

	b := NewMasterBrain(rand.New(rand.NewSource(1)))
	if b.ShouldDrawFromDiscard(view) {
		t.Error("hard tier must not hand the most dangerous opponent a 100%-wanted card")
	}
}

func TestShouldTakeFinishingCardRequiresGoOut(t *testing.T) {
	b := NewSmartBrain(rand.New(rand.NewSource(1)))
	fc := card(99, 13, domain.SuitClub)

	// Going out: two melds consume six of seven cards, the seventh is the
	// final discard.
	winning := []domain.Card{
		card(1, 13, domain.SuitSpade), card(2, 13, domain.SuitDiamond),
		card(4, 11, domain.SuitHeart), card(5, 12, domain.SuitHeart), card(6, 13, domain.SuitHeart),
		card(7, 4, domain.SuitClub),
	}
	view := testView(winning)
	view.HandCapacity = len(winning)
	view.FinishingCard = &fc
	if !b.ShouldTakeFinishingCard(view) {
		t.Error("a go-out hand above the threshold should take the finishing card")
	}

	view.HasOpened = true
	if b.ShouldTakeFinishingCard(view) {
		t.Error("an opened player never takes the finishing card")
	}
	view.HasOpened = false

	view.FinishingTaken = true
	if b.ShouldTakeFinishingCard(view) {
		t.Error("the finishing card can only be taken once per round")
	}
	view.FinishingTaken = false

	// Off-capacity hand means a draw already happened this turn.
	view.HandCapacity = len(winning) + 1
	if b.ShouldTakeFinishingCard(view) {
		t.Error("taking is only legal as the turn's draw")
	}
}

func TestPlanTurnLaysAndDiscards(t *testing.T) {
	hand := []domain.Card{
		card(1, 13, domain.SuitSpade), card(2, 13, domain.SuitDiamond), card(3, 13, domain.SuitClub),
		card(4, 11, domain.SuitHeart), card(5, 12, domain.SuitHeart), card(6, 13, domain.SuitHeart),
		card(7, 4, domain.SuitClub),
	}
	view := testView(hand)

	b := NewSmartBrain(rand.New(rand.NewSource(3)))
	plan := b.PlanTurn(view)

	if len(plan.MeldGroups) != 2 {
		t.Fatalf("expected both melds laid, got %d groups", len(plan.MeldGroups))
	}
	if plan.DiscardID != 7 {
		t.Errorf("discard = %d, want the loose 4 of clubs (7)", plan.DiscardID)
	}
}

func TestDiscardNeverJokerWhileNonJokerExists(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	brains := []Brain{NewNoviceBrain(rng), NewSmartBrain(rng), NewMasterBrain(rng)}

	for trial := 0; trial < 40; trial++ {
		deck := domain.NewRoundDeck()
		domain.ShuffleDeck(deck, rng)
		hand := append([]domain.Card{joker(200), joker(201)}, deck[:6]...)

		for _, b := range brains {
			view := testView(hand)
			view.HasOpened = true
			plan := b.PlanTurn(view)
			c, found := domain.FindCard(hand, plan.DiscardID)
			if !found {
				t.Fatalf("trial %d: discard %d not in hand", trial, plan.DiscardID)
			}
			if !c.IsJoker() {
				continue
			}
			// A joker discard is only legal when the plan left nothing else.
			left := append([]domain.Card{}, hand...)
			for _, group := range plan.MeldGroups {
				for _, id := range group {
					if laid, ok := domain.FindCard(left, id); ok {
						left = domain.RemoveCards(left, []domain.Card{laid})
					}
				}
			}
			for _, lc := range left {
				if !lc.IsJoker() {
					t.Fatalf("trial %d: discarded a joker while %s remained", trial, lc.Key())
				}
			}
		}
	}
}

func TestNoviceDiscardsMostExpensive(t *testing.T) {
	hand := []domain.Card{
		card(1, 3, domain.SuitClub),
		card(2, 13, domain.SuitHeart),
		card(3, 6, domain.SuitSpade),
	}
	b := NewNoviceBrain(rand.New(rand.NewSource(2)))
	b.core.tune.AlternateDiscardChance = 0

	plan := b.PlanTurn(testView(hand))
	if plan.DiscardID != 2 {
		t.Errorf("novice discard = %d, want the king (2)", plan.DiscardID)
	}
}

type panicBrain struct{}

func (panicBrain) ShouldDrawFromDiscard(*View) bool  { panic("boom") }
func (panicBrain) ShouldTakeFinishingCard(*View) bool { panic("boom") }
func (panicBrain) PlanTurn(*View) TurnPlan           { panic("boom") }

func TestAgentContainsFaults(t *testing.T) {
	a, err := NewAgent("bot", "Bot", DifficultyMedium, []string{"bot", "opp"}, 14, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	a.Strategy = panicBrain{}

	hand := []domain.Card{card(1, 9, domain.SuitClub), card(2, 2, domain.SuitHeart), joker(3)}
	view := &View{UserID: "bot", Hand: hand, HandCapacity: 14}

	if got := a.ChooseDraw(view); got != DrawDeck {
		t.Errorf("faulted draw choice = %v, want DrawDeck", got)
	}
	plan := a.PlanTurn(view)
	if len(plan.MeldGroups) != 0 {
		t.Error("degraded plan must not lay melds")
	}
	if plan.DiscardID != 2 {
		t.Errorf("degraded discard = %d, want the cheapest non-joker (2)", plan.DiscardID)
	}
}

func TestMasterGuardedViewHidesRunawayMelds(t *testing.T) {
	b := NewMasterBrain(rand.New(rand.NewSource(1)))
	meld, err := domain.NewMeld([]domain.Card{
		card(10, 3, domain.SuitClub), card(11, 4, domain.SuitClub), card(12, 5, domain.SuitClub),
	})
	if err != nil {
		t.Fatal(err)
	}

	view := testView([]domain.Card{card(1, 6, domain.SuitClub), card(2, 9, domain.SuitHeart)})
	view.HasOpened = true
	view.TableMelds = []TableMeld{{OwnerID: "opp", Index: 0, Meld: meld}}
	view.Tracker.Profiles["opp"].DangerLevel = 90

	plan := b.PlanTurn(view)
	if len(plan.Extensions) != 0 {
		t.Error("master must not extend a 90-danger opponent's meld early")
	}

	view.Tracker.Profiles["opp"].DangerLevel = 10
	plan = b.PlanTurn(view)
	if len(plan.Extensions) != 1 || plan.Extensions[0].CardID != 1 {
		t.Errorf("extensions = %+v, want the 6 of clubs onto the run", plan.Extensions)
	}
}
