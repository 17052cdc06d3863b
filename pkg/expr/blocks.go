package expr

import (
	"strings"
)

// HasBlock reports whether s contains a {{ ... }} evaluation block.
func HasBlock(s string) bool {
	return strings.Contains(s, "{{")
}

// EvalBlocks renders attribute text: every {{ ... }} block is evaluated and
// replaced by its formatted result, while text outside blocks only gets
// variable substitution. A malformed block is a ParseError; an unresolved
// element reference inside a block propagates as retryable.
func EvalBlocks(src string, env *Env) (string, error) {
	if env == nil {
		env = &Env{}
	}
	var b strings.Builder
	rest := src
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			return "", &ParseError{Offset: len(src) - len(rest) + start, Message: "unterminated {{ block"}
		}
		outside, err := substituteOutside(rest[:start], env)
		if err != nil {
			return "", err
		}
		b.WriteString(outside)

		inner := rest[start+2 : start+2+end]
		val, err := EvalString(inner, env)
		if err != nil {
			return "", err
		}
		b.WriteString(val)
		rest = rest[start+2+end+2:]
	}
	outside, err := substituteOutside(rest, env)
	if err != nil {
		return "", err
	}
	b.WriteString(outside)
	return b.String(), nil
}

// substituteOutside applies variable substitution to text outside blocks.
func substituteOutside(s string, env *Env) (string, error) {
	if env.Vars == nil || s == "" {
		return s, nil
	}
	return Substitute(s, env.Vars, env.VarLimit)
}
