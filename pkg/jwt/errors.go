package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrNoClaimSet is returned when a token is created without any claims.
	ErrNoClaimSet = errors.New("no claim set")

	// ErrInvalidToken is wrapped into every verification failure so callers
	// can check for it with errors.Is without matching on message text.
	ErrInvalidToken = errors.New("invalid token")
)

type ErrSigningFailed struct {
	Inner error
}

func (e *ErrSigningFailed) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Inner)
}

func (e *ErrSigningFailed) Unwrap() error {
	return e.Inner
}

func NewSigningError(inner error) *ErrSigningFailed {
	return &ErrSigningFailed{Inner: inner}
}

type ErrInvalidType struct {
	Inner error
}

func (e *ErrInvalidType) Error() string {
	return fmt.Sprintf("invalid type: %v", e.Inner)
}

func (e *ErrInvalidType) Unwrap() error {
	return e.Inner
}

func NewInvalidTypeError(inner error) *ErrInvalidType {
	return &ErrInvalidType{Inner: inner}
}
