package model

import "errors"

// Common errors used across the application
var (
	// Game errors
	ErrGameNotFound     = errors.New("game not found")
	ErrGameFull         = errors.New("game is full")
	ErrAlreadyInGame    = errors.New("player is already in a game")
	ErrNotInGame        = errors.New("player is not in this game")
	ErrWrongStage       = errors.New("action not allowed in the current stage")
	ErrGameInProgress   = errors.New("game is in progress")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrAlreadyDecided   = errors.New("player has already made a call decision")
	ErrAlreadyTraded    = errors.New("player has already submitted a trade")
	ErrInvalidTrade     = errors.New("trade must give three different cards from the hand")
	ErrCardsNotInHand   = errors.New("cards are not in the player's hand")
	ErrCannotPassOnLead = errors.New("cannot pass when leading a trick")
	ErrPlayerFinished   = errors.New("player has no cards left")

	// Bot errors
	ErrUnknownStrategy = errors.New("unknown bot strategy")

	// Game code errors
	ErrCodeNotFound  = errors.New("game code not found")
	ErrCodeTaken     = errors.New("game code is already in use")
	ErrCodeExhausted = errors.New("could not allocate a unique game code")

	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionClosed   = errors.New("connection is closed")
	ErrOutboundFull       = errors.New("outbound queue is full")
)
