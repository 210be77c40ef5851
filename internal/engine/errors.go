package engine

import (
	"errors"
	"fmt"

	"github.com/shekhirin/pyrometer/internal/elem"
)

// RuntimeError represents an error detected while the engine handles a tree.
//
// Non-computable operations are never errors: they leave the expression
// unevaluated. RuntimeError covers trees that cannot be processed at all and
// failures of the audit log.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ExprHash identifies the input tree, when known.
	ExprHash string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMalformedTree indicates the tree violates a structural
	// invariant (see elem.InvariantError).
	ErrCodeMalformedTree RuntimeErrorCode = "MALFORMED_TREE"

	// ErrCodeQuotaExceeded indicates an evaluation looked up more variables
	// than the configured limit, usually because of a bound cycle.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeUnknownVariable indicates a rewrite targets an id missing from
	// the graph.
	ErrCodeUnknownVariable RuntimeErrorCode = "UNKNOWN_VARIABLE"

	// ErrCodeRecordFailed indicates the evaluation log rejected a record.
	ErrCodeRecordFailed RuntimeErrorCode = "RECORD_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ExprHash != "" {
		msg += fmt.Sprintf(" (expr=%s)", e.ExprHash)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsMalformedTree returns true if err reports a structurally invalid tree.
// Uses errors.As to handle wrapped errors.
func IsMalformedTree(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMalformedTree
	}
	return elem.IsInvariantError(err)
}

// IsQuotaError returns true if the error is a lookup quota error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and LookupsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var le *LookupsExceededError
	return errors.As(err, &le)
}

// IsRecordError returns true if the evaluation log failed.
func IsRecordError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeRecordFailed
}

func newTreeError(err error) *RuntimeError {
	var le *LookupsExceededError
	if errors.As(err, &le) {
		return &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "evaluation did not terminate within the lookup quota", Err: err}
	}
	return &RuntimeError{Code: ErrCodeMalformedTree, Message: "tree cannot be processed", Err: err}
}
