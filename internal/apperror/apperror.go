// Package apperror defines the error taxonomy shared by every layer of the
// booking system.
//
// Each failure the engine can report has a sentinel (ErrTrainNotFound,
// ErrSeatUnavailable, ...). Sentinels for the specific cases wrap one of the
// broad categories (ErrNotFound, ErrConflict, ErrValidation), so callers can
// match either the exact case or the category with errors.Is:
//
//	errors.Is(err, apperror.ErrTrainNotFound) // exact case
//	errors.Is(err, apperror.ErrNotFound)      // any missing entity
package apperror

import (
	"errors"
	"fmt"
)

// Broad categories.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// Specific cases. The recoverable ones ask the caller to retry with
// different input; ErrStoreCorrupt and ErrPersistence are not recoverable
// without reloading or repairing the durable stores.
var (
	ErrStoreCorrupt    = errors.New("store corrupt")
	ErrPersistence     = errors.New("persistence failure")
	ErrAuthentication  = errors.New("authentication failed")
	ErrDuplicateUser   = fmt.Errorf("duplicate user: %w", ErrConflict)
	ErrSeatUnavailable = fmt.Errorf("seat unavailable: %w", ErrConflict)
	ErrInvalidSeat     = fmt.Errorf("invalid seat: %w", ErrValidation)
	ErrTrainNotFound   = fmt.Errorf("train %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrTicketNotFound  = fmt.Errorf("ticket %w", ErrNotFound)
)

type AppError struct {
	Err     error  // sentinel identifying the case
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error (I/O, decoding)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// apperror.ErrPersistence as well as, say, fs.ErrPermission.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StoreCorrupt reports durable content that is present but not well-formed.
func StoreCorrupt(store string, cause error) *AppError {
	return &AppError{
		Err:     ErrStoreCorrupt,
		Message: fmt.Sprintf("%s store is corrupt", store),
		Cause:   cause,
	}
}

// Persistence reports a failed read or write of a durable store. After a
// write failure the in-memory state may not match disk; reload before retrying.
func Persistence(store, op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: fmt.Sprintf("%s store: %s failed", store, op),
		Cause:   cause,
	}
}

// AuthenticationFailed deliberately carries no detail about whether the
// name or the secret was wrong.
func AuthenticationFailed() *AppError {
	return &AppError{
		Err:     ErrAuthentication,
		Message: "invalid name or password",
	}
}

func DuplicateUser(name string) *AppError {
	return &AppError{
		Err:     ErrDuplicateUser,
		Message: fmt.Sprintf("user %q already exists", name),
		Field:   "name",
	}
}

func TrainNotFound(trainID string) *AppError {
	return &AppError{
		Err:     ErrTrainNotFound,
		Message: fmt.Sprintf("train not found with id %s", trainID),
	}
}

func UserNotFound(userID string) *AppError {
	return &AppError{
		Err:     ErrUserNotFound,
		Message: fmt.Sprintf("user not found with id %s", userID),
	}
}

func TicketNotFound(ticketID string) *AppError {
	return &AppError{
		Err:     ErrTicketNotFound,
		Message: fmt.Sprintf("ticket not found with id %s", ticketID),
	}
}

func InvalidSeat(row, col int) *AppError {
	return &AppError{
		Err:     ErrInvalidSeat,
		Message: fmt.Sprintf("seat (%d, %d) is outside the seat map", row, col),
		Field:   "seat",
	}
}

func SeatUnavailable(trainID string, row, col int) *AppError {
	return &AppError{
		Err:     ErrSeatUnavailable,
		Message: fmt.Sprintf("seat (%d, %d) on train %s is already booked", row, col, trainID),
		Field:   "seat",
	}
}
