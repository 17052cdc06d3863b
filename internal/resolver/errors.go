package resolver

import (
	"fmt"
	"strings"
)

// LimitError reports a breached document limit (loop-limit, depth-limit,
// var-limit). It aborts the whole transformation: a breached limit signals
// runaway or cyclic generation, not a localized mistake.
type LimitError struct {
	Limit string
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s exceeded (max %d)", e.Limit, e.Max)
}

// ElementError is a fatal per-element failure, reported with the element's
// source location.
type ElementError struct {
	Tag  string
	ID   string
	Line int
	Err  error
}

func (e *ElementError) Error() string {
	name := "<" + e.Tag + ">"
	if e.ID != "" {
		name = fmt.Sprintf("<%s id=%q>", e.Tag, e.ID)
	}
	return fmt.Sprintf("%s at line %d: %v", name, e.Line, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// BlockedElement names one still-unresolved element and the specific
// reference that blocked it.
type BlockedElement struct {
	Tag  string
	ID   string
	Line int
	Ref  string
}

func (b BlockedElement) String() string {
	name := "<" + b.Tag + ">"
	if b.ID != "" {
		name = fmt.Sprintf("<%s id=%q>", b.Tag, b.ID)
	}
	ref := b.Ref
	if ref == "" {
		ref = "unknown reference"
	}
	return fmt.Sprintf("%s at line %d blocked on %s", name, b.Line, ref)
}

// StallError reports that a full resolution pass made no progress. Every
// still-unresolved element is listed with its blocking reference, so an
// author can find the true cycle rather than a symptom.
type StallError struct {
	Blocked []BlockedElement
}

func (e *StallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolution stalled with %d unresolved element(s):", len(e.Blocked))
	for _, el := range e.Blocked {
		b.WriteString("\n  ")
		b.WriteString(el.String())
	}
	return b.String()
}
