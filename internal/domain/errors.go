package domain

import "errors"

// Domain errors
var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrMissingPlayerID = errors.New("player id is required")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidUsername = errors.New("invalid username")
	ErrSelfFriend      = errors.New("cannot add yourself as a friend")
	ErrUnknownPackage  = errors.New("unknown star package")
	ErrInvalidPayload  = errors.New("invalid invoice payload")
	ErrDuplicateCharge = errors.New("payment already recorded")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInternalError   = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

// IsConflictError checks for errors that map to a conflict response.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrDuplicateCharge)
}
