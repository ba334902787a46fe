package app

import "remi/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined      EventKind = "player_joined"
	EventPlayerLeft        EventKind = "player_left"
	EventRoundStarted      EventKind = "round_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventCardDrawn         EventKind = "card_drawn"
	EventDrawMade          EventKind = "draw_made"
	EventMeldsLaid         EventKind = "melds_laid"
	EventMeldExtended      EventKind = "meld_extended"
	EventDiscarded         EventKind = "discarded"
	EventSpecialDrawUndone EventKind = "special_draw_undone"
	EventRoundEnded        EventKind = "round_ended"
)

// DrawSource names where a draw came from in public events.
type DrawSource string

const (
	DrawSourceDeck      DrawSource = "deck"
	DrawSourceDiscard   DrawSource = "discard"
	DrawSourceFinishing DrawSource = "finishing"
)

// Event is an app-level event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Seat   int
	Owner  bool
}

type PlayerLeftPayload struct {
	UserID string
}

type RoundStartedPayload struct {
	RoundID         string
	FirstTurnUserID string
	Seats           []string
	HandSize        int
	FinishingCard   *domain.Card
	DiscardTop      *domain.Card
}

type HandDealtPayload struct {
	UserID string
	Hand   []domain.Card
}

// CardDrawnPayload is private: only the drawer learns the card when it came
// face down off the deck.
type CardDrawnPayload struct {
	UserID string
	Card   domain.Card
}

// DrawMadePayload is the public half of a draw. Card is set only for the
// face-up sources.
type DrawMadePayload struct {
	UserID   string
	Source   DrawSource
	Card     *domain.Card
	DeckSize int
}

type MeldsLaidPayload struct {
	UserID string
	Melds  []domain.Meld
	Opened bool
}

type MeldExtendedPayload struct {
	UserID     string
	OwnerID    string
	MeldIndex  int
	Meld       domain.Meld
	FreedJoker *domain.Card
}

type DiscardedPayload struct {
	UserID         string
	Card           domain.Card
	NextTurnUserID string
}

type SpecialDrawUndonePayload struct {
	UserID     string
	DiscardTop *domain.Card
}

// Settlement is one player's wallet delta for a finished round.
type Settlement struct {
	UserID   string
	Delta    int64
	Deadwood int32
}

type RoundEndedPayload struct {
	WinnerUserID string
	TurnCount    int
	Settlements  []Settlement
}
