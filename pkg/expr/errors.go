package expr

import (
	"errors"
	"fmt"
)

// ParseError represents malformed expression syntax. It is fatal for the
// attribute that produced it and is never retried.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// EvalError represents a well-formed expression that cannot be evaluated
// (bad operand types, wrong arity, division by zero).
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error: %s", e.Message)
}

// ReferenceError signals a reference to an element that is not yet
// resolved. It is retryable: the owning element is deferred to a later
// pass rather than failed.
type ReferenceError struct {
	Ref string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %s", e.Ref)
}

// VarLimitError signals that a variable's materialized text exceeded the
// configured length ceiling, which almost always means an unevaluated
// self-concatenating update. Fatal for the whole document.
type VarLimitError struct {
	Name string
	Len  int
	Max  int
}

func (e *VarLimitError) Error() string {
	return fmt.Sprintf("variable %q expanded to %d characters, exceeding the %d character limit (missing {{...}} around an update?)", e.Name, e.Len, e.Max)
}

// IsRetryable reports whether err is an unresolved-reference error that
// should defer the owning element instead of failing it.
func IsRetryable(err error) bool {
	var ref *ReferenceError
	return errors.As(err, &ref)
}
