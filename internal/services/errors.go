package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate key")
	ErrStaleState         = errors.New("conditional update matched no document")
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

// Validation codes double as message catalog keys.
const (
	CodeInvalidAmount   = "invalid_amount"
	CodeInvalidMethod   = "invalid_payment_method"
	CodeInvalidType     = "invalid_type"
	CodeMissingField    = "missing_field"
	CodeInvalidDecision = "invalid_decision"
	CodeInvalidMobile   = "invalid_mobile"
	CodeWeakPassword    = "weak_password"
	CodeInvalidRole     = "invalid_role"
	CodeInvalidID       = "invalid_id"
	CodeInvalidDate     = "invalid_date"
	CodeInvalidOutcome  = "invalid_outcome"
	CodeMobileTaken     = "mobile_taken"
	CodeInvalidEmail    = "invalid_email"
)

// ValidationError is returned before anything is persisted.
type ValidationError struct {
	Code  string
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Field)
}

func invalid(code, field string) error { return &ValidationError{Code: code, Field: field} }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
