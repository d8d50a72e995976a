package dispatch

import (
	"errors"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/protocol"
)

// Rejection codes
const (
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeGameFull            = "GAME_FULL"
	CodeAlreadyInGame       = "ALREADY_IN_GAME"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeAlreadyDecided      = "ALREADY_DECIDED"
	CodeAlreadyTraded       = "ALREADY_TRADED"
	CodeInvalidTrade        = "INVALID_TRADE"
	CodeCardsNotInHand      = "CARDS_NOT_IN_HAND"
	CodeCannotPass          = "CANNOT_PASS"
	CodePlayerFinished      = "PLAYER_FINISHED"
	CodeInvalidCombination  = "INVALID_COMBINATION"
	CodeDogMustLead         = "DOG_MUST_LEAD"
	CodeCombinationMismatch = "COMBINATION_MISMATCH"
	CodeDoesNotBeat         = "DOES_NOT_BEAT"
	CodeUnknownStrategy     = "UNKNOWN_STRATEGY"
	CodeInternalError       = "INTERNAL_ERROR"
)

// isStale reports errors meaning the message no longer matches the
// sender's game: the game is gone, the sender left it, or it has moved on
// to another stage. These are answered with UnexpectedMessageReceived.
func isStale(err error) bool {
	return errors.Is(err, model.ErrGameNotFound) ||
		errors.Is(err, model.ErrNotInGame) ||
		errors.Is(err, model.ErrWrongStage)
}

// toRejection converts a game error to the message sent back to its sender
func toRejection(err error) *protocol.Rejected {
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return &protocol.Rejected{Code: CodeGameNotFound, Message: "Game not found"}
	case errors.Is(err, model.ErrGameFull):
		return &protocol.Rejected{Code: CodeGameFull, Message: "Game is full"}
	case errors.Is(err, model.ErrAlreadyInGame):
		return &protocol.Rejected{Code: CodeAlreadyInGame, Message: "Already in a game"}
	case errors.Is(err, model.ErrGameInProgress):
		return &protocol.Rejected{Code: CodeGameInProgress, Message: "Game is in progress"}
	case errors.Is(err, model.ErrNotYourTurn):
		return &protocol.Rejected{Code: CodeNotYourTurn, Message: "Not your turn"}
	case errors.Is(err, model.ErrAlreadyDecided):
		return &protocol.Rejected{Code: CodeAlreadyDecided, Message: "Grand tichu already decided"}
	case errors.Is(err, model.ErrAlreadyTraded):
		return &protocol.Rejected{Code: CodeAlreadyTraded, Message: "Trade already submitted"}
	case errors.Is(err, model.ErrInvalidTrade):
		return &protocol.Rejected{Code: CodeInvalidTrade, Message: "A trade needs three different cards"}
	case errors.Is(err, model.ErrCardsNotInHand):
		return &protocol.Rejected{Code: CodeCardsNotInHand, Message: "Cards are not in your hand"}
	case errors.Is(err, model.ErrCannotPassOnLead):
		return &protocol.Rejected{Code: CodeCannotPass, Message: "Cannot pass on the lead"}
	case errors.Is(err, model.ErrPlayerFinished):
		return &protocol.Rejected{Code: CodePlayerFinished, Message: "You have no cards left"}
	case errors.Is(err, model.ErrUnknownStrategy):
		return &protocol.Rejected{Code: CodeUnknownStrategy, Message: "Unknown bot strategy"}

	// Map classifier errors
	case errors.Is(err, cards.ErrInvalidCombination):
		return &protocol.Rejected{Code: CodeInvalidCombination, Message: "Not a valid combination"}
	case errors.Is(err, cards.ErrDogMustLead):
		return &protocol.Rejected{Code: CodeDogMustLead, Message: "The dog can only be led"}
	case errors.Is(err, cards.ErrCombinationMismatch):
		return &protocol.Rejected{Code: CodeCombinationMismatch, Message: "Combination does not match the trick"}
	case errors.Is(err, cards.ErrDoesNotBeat):
		return &protocol.Rejected{Code: CodeDoesNotBeat, Message: "Combination does not beat the trick"}

	default:
		return &protocol.Rejected{Code: CodeInternalError, Message: "Internal server error"}
	}
}
