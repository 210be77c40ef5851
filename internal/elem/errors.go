package elem

import (
	"errors"
	"fmt"
)

// InvariantError reports a malformed tree. Evaluation panics with it; callers
// that accept trees from outside the process recover it with RecoverInvariant.
type InvariantError struct {
	// Code identifies the error category.
	Code InvariantErrorCode

	// Op is the offending operator, when there is one.
	Op Op

	// Message is a human-readable description.
	Message string
}

// InvariantErrorCode categorizes invariant violations.
type InvariantErrorCode string

const (
	// ErrCodeMalformedUnary indicates a unary operator stored in a binary
	// node with a non-empty right operand, or a unary node with a binary
	// operator.
	ErrCodeMalformedUnary InvariantErrorCode = "MALFORMED_UNARY"

	// ErrCodeUnknownOp indicates an operator outside the enumeration.
	ErrCodeUnknownOp InvariantErrorCode = "UNKNOWN_OP"

	// ErrCodeUnknownElem indicates a nil or foreign Elem implementation.
	ErrCodeUnknownElem InvariantErrorCode = "UNKNOWN_ELEM"
)

func (e *InvariantError) Error() string {
	if e.Op != 0 {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invariantf(code InvariantErrorCode, op Op, format string, args ...any) *InvariantError {
	return &InvariantError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsInvariantError reports whether err is or wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// RecoverInvariant converts an *InvariantError panic into an error stored in
// *errp. Other panics are re-raised. Use it as
//
//	defer elem.RecoverInvariant(&err)
func RecoverInvariant(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InvariantError); ok {
		*errp = ie
		return
	}
	panic(r)
}
