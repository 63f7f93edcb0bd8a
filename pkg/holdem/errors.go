package holdem

import "errors"

// errors that are safe to send back to the offending client
var (
	// ErrNotYourTurn is returned when a seat acts out of turn
	ErrNotYourTurn = errors.New("not your turn")

	// ErrAlreadyFolded is returned when a folded seat tries to act
	ErrAlreadyFolded = errors.New("you have folded")

	// ErrBetTooLow is returned when a bet does not reach the current bet
	ErrBetTooLow = errors.New("bet must be at least the current bet")

	// ErrInsufficientChips is returned when a bet exceeds the seat's chips
	ErrInsufficientChips = errors.New("not enough chips")

	// ErrTableFull is returned when a 13th player tries to sit down
	ErrTableFull = errors.New("the game is full (maximum 12 players)")

	// ErrInsufficientCards is returned if the deck cannot cover the deal.
	// With 12 seats and a 52-card deck this is an invariant violation.
	ErrInsufficientCards = errors.New("not enough cards in the deck for all players")

	// ErrInvalidShowdownDecision is returned for a show/muck from an
	// unrecognized or folded seat, or for a repeated decision
	ErrInvalidShowdownDecision = errors.New("invalid showdown decision")

	// ErrRebuyNotAllowed is returned for a rebuy with chips remaining
	ErrRebuyNotAllowed = errors.New("rebuy is only allowed with zero chips")
)
