// Package errors holds the machine-readable error values shared by the engine,
// the services and the transport layer.
package errors

import (
	stdErrors "errors"
	"net/http"
)

// Code is a machine-readable rejection reason.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Turn validation
	CodeNotYourTurn              Code = "NOT_YOUR_TURN"
	CodeInvalidCardReference     Code = "INVALID_CARD_REFERENCE"
	CodeEmptyDeck                Code = "EMPTY_DECK"
	CodeInsufficientFunds        Code = "INSUFFICIENT_FUNDS"
	CodeMajorityHolderRestricted Code = "MAJORITY_HOLDER_RESTRICTED"
	CodeMarketRoundTrip          Code = "MARKET_ROUND_TRIP"
	CodeActionOutOfPhase         Code = "ACTION_OUT_OF_PHASE"
	CodePhaseMismatch            Code = "PHASE_MISMATCH"
	CodeUnknownAction            Code = "UNKNOWN_ACTION"

	// Setup
	CodeInvalidPlayerCount Code = "INVALID_PLAYER_COUNT"
	CodeInvalidRules       Code = "INVALID_RULES"

	// Rooms
	CodeRoomOrPlayerNotFound Code = "ROOM_OR_PLAYER_NOT_FOUND"
	CodeRoomFull             Code = "ROOM_FULL"
	CodeRoomAlreadyStarted   Code = "ROOM_ALREADY_STARTED"
	CodeInvalidPassword      Code = "INVALID_PASSWORD"
	CodeInvalidPayload       Code = "INVALID_PAYLOAD"
	CodeUnauthorized         Code = "UNAUTHORIZED"
)

// HTTPStatus maps a code to the status the HTTP layer answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRoomOrPlayerNotFound:
		return http.StatusNotFound
	case CodeUnauthorized, CodeInvalidPassword:
		return http.StatusUnauthorized
	case CodeRoomFull, CodeRoomAlreadyStarted:
		return http.StatusConflict
	case CodeInvalidCardReference, CodeInvalidPayload, CodeUnknownAction, CodeInvalidPlayerCount, CodeInvalidRules:
		return http.StatusBadRequest
	case CodeNotYourTurn, CodeEmptyDeck, CodeInsufficientFunds, CodeMajorityHolderRestricted,
		CodeMarketRoundTrip, CodeActionOutOfPhase, CodePhaseMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error value. Sentinels below are compared with errors.Is,
// callers add context with fmt.Errorf("%w: ...").
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// CodeOf returns the code carried anywhere in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if stdErrors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

var (
	ErrNotYourTurn              = New(CodeNotYourTurn, "not your turn")
	ErrInvalidCardReference     = New(CodeInvalidCardReference, "invalid card reference")
	ErrEmptyDeck                = New(CodeEmptyDeck, "deck is empty")
	ErrInsufficientFunds        = New(CodeInsufficientFunds, "insufficient coins")
	ErrMajorityHolderRestricted = New(CodeMajorityHolderRestricted, "majority holder may not move this company through the market")
	ErrMarketRoundTrip          = New(CodeMarketRoundTrip, "cannot return a company just taken from the market")
	ErrActionOutOfPhase         = New(CodeActionOutOfPhase, "action not allowed in this turn step")
	ErrPhaseMismatch            = New(CodePhaseMismatch, "action not allowed in this game phase")
	ErrUnknownAction            = New(CodeUnknownAction, "unsupported action")

	ErrInvalidPlayerCount = New(CodeInvalidPlayerCount, "invalid player list")
	ErrInvalidRules       = New(CodeInvalidRules, "invalid game rules")

	ErrRoomOrPlayerNotFound = New(CodeRoomOrPlayerNotFound, "room or player not found")
	ErrRoomFull             = New(CodeRoomFull, "room is full")
	ErrRoomAlreadyStarted   = New(CodeRoomAlreadyStarted, "game already in progress")
	ErrInvalidPassword      = New(CodeInvalidPassword, "invalid room password")
	ErrInvalidPayload       = New(CodeInvalidPayload, "invalid payload")
	ErrUnauthorized         = New(CodeUnauthorized, "unauthorized")
)
