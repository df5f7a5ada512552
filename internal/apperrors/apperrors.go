// Package apperrors defines the error taxonomy shared by every feature
// module. Domain packages declare their sentinel errors by wrapping one of
// the four kinds, and the HTTP layer maps kinds to status codes with
// errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidState = errors.New("invalid_state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation_error")
)

func NotFound(code string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, code)
}

func InvalidState(code string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, code)
}

func Conflict(code string) error {
	return fmt.Errorf("%w: %s", ErrConflict, code)
}

func Validation(code string) error {
	return fmt.Errorf("%w: %s", ErrValidation, code)
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
