package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

const (
	CodeDuplicateName  = "DUPLICATE_NAME"
	CodeOrderConflict  = "ORDER_CONFLICT"
	CodeDuplicateOrder = "DUPLICATE_ORDER"
	CodeDuplicateKey   = "DUPLICATE_KEY"
	CodeDuplicateEmail = "DUPLICATE_EMAIL"
	CodeColumnNotEmpty = "COLUMN_NOT_EMPTY"
	CodeAlreadyMember  = "ALREADY_MEMBER"
)

// Error is a classified failure with a message safe to show clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type ValidationError struct {
	Message    string
	InvalidIDs []uuid.UUID
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError is a client-recoverable 409. Optional fields are set only
// when they apply to Code.
type ConflictError struct {
	Code             string
	Message          string
	ConflictingName  *string
	ConflictingOrder *int
	SuggestedOrder   *int
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) Unwrap() error { return ErrConflict }
