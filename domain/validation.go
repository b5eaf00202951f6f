package domain

import (
	goerrors "github.com/goliatone/go-errors"
)

// ValidationResult is the outcome of a business check. A failed check is
// data, not an error: callers decide whether to escalate it with Err.
type ValidationResult struct {
	Valid  bool
	Kind   ErrorKind
	Field  string
	Reason string
}

// Passed is the result of a check that found nothing wrong.
func Passed() ValidationResult {
	return ValidationResult{Valid: true}
}

// Failed builds a failing result.
func Failed(kind ErrorKind, field, reason string) ValidationResult {
	return ValidationResult{Kind: kind, Field: field, Reason: reason}
}

// Err converts a failing result into a caller visible error. It returns
// nil for a passing result.
func (r ValidationResult) Err() *goerrors.Error {
	if r.Valid {
		return nil
	}

	err := NewError(r.Kind, r.Reason)
	if r.Field != "" {
		err.ValidationErrors = goerrors.ValidationErrors{
			{Field: r.Field, Message: r.Reason},
		}
	}
	return err
}
