package vault

import (
	"errors"
	"fmt"
)

// Category groups failures by what the caller should do about them.
type Category string

// Category enums.
const (
	CategoryValidation     Category = "validation"
	CategoryStateConflict  Category = "state_conflict"
	CategoryUnauthorized   Category = "unauthorized"
	CategoryTransferFailed Category = "transfer_failed"
	CategoryNotFound       Category = "not_found"
)

// Error is a rejected operation with a stable code.
type Error struct {
	Code     string
	Category Category
	Msg      string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(category Category, code, msg string) *Error {
	return &Error{Code: code, Category: category, Msg: msg}
}

// Validation errors.
var (
	ErrZeroAmount      = newError(CategoryValidation, "ZERO_AMOUNT", "amount must be greater than 0")
	ErrInvalidAmount   = newError(CategoryValidation, "INVALID_AMOUNT", "amount must be a whole number of base units")
	ErrAmountMismatch  = newError(CategoryValidation, "AMOUNT_MISMATCH", "amount must equal the battle entry fee")
	ErrInvalidCapacity = newError(CategoryValidation, "INVALID_CAPACITY", "max participants must be at least 2")
	ErrInvalidDuration = newError(CategoryValidation, "INVALID_DURATION", "duration must be greater than 0 and at most 10 years")
	ErrInvalidName     = newError(CategoryValidation, "INVALID_NAME", "battle name must not be empty")
	ErrInvalidAddress  = newError(CategoryValidation, "INVALID_ADDRESS", "invalid address")
)

// State conflict errors.
var (
	ErrBattleFull          = newError(CategoryStateConflict, "BATTLE_FULL", "battle is full")
	ErrBattleInactive      = newError(CategoryStateConflict, "BATTLE_INACTIVE", "battle is not active")
	ErrBattleNotEnded      = newError(CategoryStateConflict, "BATTLE_NOT_ENDED", "battle has not ended yet")
	ErrBattleClosed        = newError(CategoryStateConflict, "BATTLE_CLOSED", "battle already closed")
	ErrAlreadyJoined       = newError(CategoryStateConflict, "ALREADY_JOINED", "already joined this battle")
	ErrInsufficientBalance = newError(CategoryStateConflict, "INSUFFICIENT_BALANCE", "insufficient deposited balance")
	ErrNothingToClaim      = newError(CategoryStateConflict, "NOTHING_TO_CLAIM", "no yield to claim")
	ErrInsufficientReserve = newError(CategoryStateConflict, "INSUFFICIENT_RESERVE", "reward reserve cannot cover yield")
	ErrNoPosition          = newError(CategoryStateConflict, "NO_POSITION", "no active position")
)

// Other errors.
var (
	ErrUnauthorized   = newError(CategoryUnauthorized, "UNAUTHORIZED", "caller is not authorized")
	ErrTransferFailed = newError(CategoryTransferFailed, "TRANSFER_FAILED", "asset transfer failed")
	ErrBattleNotFound = newError(CategoryNotFound, "BATTLE_NOT_FOUND", "battle does not exist")
)

// transferError wraps a ledger failure so that both ErrTransferFailed and the ledger cause
// match errors.Is.
type transferError struct {
	op    string
	cause error
}

func (e *transferError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransferFailed.Msg, e.op, e.cause)
}

func (e *transferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.cause}
}

func wrapTransfer(op string, err error) error {
	if err == nil {
		return nil
	}
	return &transferError{op: op, cause: err}
}

// AsError extracts the vault error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
