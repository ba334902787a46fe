package domain

import "errors"

// Rule violations are returned as typed errors, never panicked during normal
// play. The port layer maps them to client error events.
var (
	ErrInvalidMeldShape           = errors.New("cards do not form a valid set or run")
	ErrNotYourTurn                = errors.New("actor is not the current player")
	ErrWrongPhase                 = errors.New("action not legal in current phase")
	ErrCardNotInHand              = errors.New("card not in actor's hand")
	ErrOpeningRequirementNotMet   = errors.New("melds total below the opening threshold")
	ErrMustUseDrawnCard           = errors.New("drawn discard card must be used in a laid meld")
	ErrMustGoOutWithFinishingCard = errors.New("taking the finishing card requires going out this turn")
	ErrEmptyDeckUnrecoverable     = errors.New("draw and discard piles are both empty")
	ErrInvalidUndo                = errors.New("no special-draw snapshot to undo")
	ErrFinishingCardTaken         = errors.New("finishing card already taken this round")
	ErrNotOpened                  = errors.New("actor has not opened yet")
	ErrMeldNotFound               = errors.New("target meld not found")
	ErrRoundOver                  = errors.New("round already over")

	// ErrCardConflict signals a location-uniqueness breach: the same card
	// observed in two places. The mutation fails closed.
	ErrCardConflict = errors.New("card located in two places at once")
)
