// Package expr tokenizes and evaluates the attribute expression language:
// arithmetic with lists, quoted strings, variable references, element-scalar
// references and a fixed builtin function table.
//
// Variable substitution happens before tokenizing, so a variable may itself
// contain reference text. Evaluation is deterministic: random draws come
// from the caller's seeded source and are cached per logical occurrence, so
// re-evaluating an attribute does not re-draw.
package expr

import (
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression: a number, a string, or a
// flat ordered list of values.
type Value interface {
	isValue()
}

// Number is a floating-point value.
type Number float64

// Str is a string value.
type Str string

// List is an ordered list of values. Lists are flat; appending a list to a
// list splices its items.
type List []Value

func (Number) isValue() {}
func (Str) isValue()    {}
func (List) isValue()   {}

// FormatNumber renders a scalar at most prec decimal places, trailing zeros
// removed.
func FormatNumber(v float64, prec int) string {
	if prec < 0 {
		prec = 0
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Format renders a value as output text. Lists render comma-space joined.
func Format(v Value, prec int) string {
	switch t := v.(type) {
	case Number:
		return FormatNumber(float64(t), prec)
	case Str:
		return string(t)
	case List:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = Format(item, prec)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// AsNumber coerces a value to a number. Strings that parse as numbers
// coerce; anything else does not.
func AsNumber(v Value) (float64, bool) {
	switch t := v.(type) {
	case Number:
		return float64(t), true
	case Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	}
	return 0, false
}

// appendFlat appends v to list, splicing if v is itself a list.
func appendFlat(list List, v Value) List {
	if inner, ok := v.(List); ok {
		return append(list, inner...)
	}
	return append(list, v)
}
