package app

import (
	"errors"
	"math/rand"
	"testing"

	"remi/internal/domain"
)

func TestStartRoundDealsHands(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	svc := NewService(rng)

	round, evs, err := svc.StartRound([]string{"u1", "", "u2"}, domain.DefaultHandSize)
	if err != nil {
		t.Fatalf("start round error: %v", err)
	}
	if round.Phase != domain.PhaseDraw {
		t.Fatalf("phase = %s, want draw", round.Phase)
	}
	if round.FinishingCard == nil {
		t.Fatal("round must reveal a finishing card")
	}
	if round.FinishingCard.IsJoker() {
		t.Fatal("finishing card must not be a joker")
	}

	handEvents := 0
	for _, ev := range evs {
		if ev.Kind == EventHandDealt {
			handEvents++
			payload := ev.Payload.(HandDealtPayload)
			if len(payload.Hand) != domain.DefaultHandSize {
				t.Fatalf("hand size = %d, want %d", len(payload.Hand), domain.DefaultHandSize)
			}
			if len(ev.Recipients) != 1 || ev.Recipients[0] != payload.UserID {
				t.Fatalf("hand event must target only its owner, got %v", ev.Recipients)
			}
		}
	}
	if handEvents != 2 {
		t.Fatalf("hand events = %d, want 2 (empty seat skipped)", handEvents)
	}

	last := evs[len(evs)-1]
	if last.Kind != EventRoundStarted {
		t.Fatalf("last event = %s, want round_started", last.Kind)
	}
	if payload := last.Payload.(RoundStartedPayload); payload.FirstTurnUserID != "u1" {
		t.Fatalf("first turn = %s, want u1", payload.FirstTurnUserID)
	}
}

func TestStartRoundTooFewPlayers(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	if _, _, err := svc.StartRound([]string{"u1", ""}, 0); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("expected ErrTooFewPlayers, got %v", err)
	}
}

func TestDrawFromDeckSplitsPrivateAndPublic(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(7)))
	round, _, err := svc.StartRound([]string{"u1", "u2"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	evs, err := svc.DrawFromDeck(round, "u1")
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("events = %d, want private card + public draw", len(evs))
	}
	if evs[0].Kind != EventCardDrawn || len(evs[0].Recipients) != 1 || evs[0].Recipients[0] != "u1" {
		t.Fatalf("first event must be the private card for u1, got %+v", evs[0])
	}
	pub, ok := evs[1].Payload.(DrawMadePayload)
	if !ok || evs[1].Kind != EventDrawMade {
		t.Fatalf("second event must be the public draw, got %+v", evs[1])
	}
	if pub.Card != nil {
		t.Error("a deck draw must not reveal the card publicly")
	}
	if pub.Source != DrawSourceDeck {
		t.Errorf("source = %s, want deck", pub.Source)
	}
}

func TestDiscardEndsRoundWithSettlement(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(3)))
	round, _, err := svc.StartRound([]string{"u1", "u2"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Collapse to a controlled end: u1 holds one card, u2 keeps deadwood.
	round.Players["u1"].Hand = []domain.Card{{ID: 1, Suit: domain.SuitClub, Value: 4}}
	round.Players["u2"].Hand = []domain.Card{
		{ID: 2, Suit: domain.SuitHeart, Value: 13},
		{ID: 3, Suit: domain.SuitSpade, Value: 5},
	}
	round.Phase = domain.PhaseMeld

	evs, err := svc.Discard(round, "u1", 1)
	if err != nil {
		t.Fatalf("discard error: %v", err)
	}

	var ended *RoundEndedPayload
	for _, ev := range evs {
		if ev.Kind == EventRoundEnded {
			payload := ev.Payload.(RoundEndedPayload)
			ended = &payload
		}
	}
	if ended == nil {
		t.Fatal("expected round_ended event")
	}
	if ended.WinnerUserID != "u1" {
		t.Fatalf("winner = %s, want u1", ended.WinnerUserID)
	}

	// u2 pays 10 (king) + 5 = 15, u1 collects it.
	deltas := map[string]int64{}
	for _, s := range ended.Settlements {
		deltas[s.UserID] = s.Delta
	}
	if deltas["u2"] != -15 || deltas["u1"] != 15 {
		t.Fatalf("settlements = %v, want u1 +15 / u2 -15", deltas)
	}
}

func TestValidateMeldsQuery(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(5)))
	round, _, err := svc.StartRound([]string{"u1", "u2"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	round.Players["u1"].Hand = []domain.Card{
		{ID: 1, Suit: domain.SuitHeart, Value: 2},
		{ID: 2, Suit: domain.SuitHeart, Value: 3},
		{ID: 3, Suit: domain.SuitHeart, Value: 4},
		{ID: 4, Suit: domain.SuitClub, Value: 9},
	}

	res, err := svc.ValidateMelds(round, "u1", []int16{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if len(res.ValidMelds) != 1 || res.TotalScore != 9 {
		t.Fatalf("got %d melds / score %d, want 1 meld scoring 9", len(res.ValidMelds), res.TotalScore)
	}
	if len(res.InvalidCards) != 1 || res.InvalidCards[0].ID != 4 {
		t.Fatalf("invalid cards = %v, want just the 9 of clubs", res.InvalidCards)
	}
	if res.MeetsOpenRequirement {
		t.Error("9 points must not satisfy the opening requirement")
	}
	if res.MinimumNeeded != domain.OpeningThreshold-9 {
		t.Errorf("minimumNeeded = %d, want %d", res.MinimumNeeded, domain.OpeningThreshold-9)
	}

	if _, err := svc.ValidateMelds(round, "u1", []int16{99}); !errors.Is(err, domain.ErrCardNotInHand) {
		t.Fatalf("expected ErrCardNotInHand for foreign id, got %v", err)
	}
}

func TestStateForHidesOtherHands(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(9)))
	round, _, err := svc.StartRound([]string{"u1", "u2"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	proj, err := svc.StateFor(round, "u1")
	if err != nil {
		t.Fatalf("state error: %v", err)
	}
	if len(proj.Hand) != domain.DefaultHandSize {
		t.Fatalf("own hand size = %d, want %d", len(proj.Hand), domain.DefaultHandSize)
	}
	for _, p := range proj.Players {
		if p.HandSize != domain.DefaultHandSize {
			t.Errorf("public hand size for %s = %d, want %d", p.UserID, p.HandSize, domain.DefaultHandSize)
		}
	}
	if proj.TurnUserID != "u1" {
		t.Errorf("turn = %s, want u1", proj.TurnUserID)
	}
}
