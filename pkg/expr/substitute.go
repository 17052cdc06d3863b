package expr

import "strings"

// VarLookup resolves variable names during substitution. Lookup order
// (element attributes, enclosing scope frames, globals) is the caller's
// concern; the evaluator only sees the result.
type VarLookup interface {
	LookupVar(name string) (string, bool)
}

// maxSubstitutionRounds bounds repeated substitution when a variable's
// value itself contains variable references.
const maxSubstitutionRounds = 64

// Substitute replaces every $name and ${name} in src with its value from
// vars, repeating while replacements introduce further references. Unknown
// variables are left untouched. limit, when positive, caps the materialized
// length of the result; exceeding it returns a VarLimitError.
func Substitute(src string, vars VarLookup, limit int) (string, error) {
	out := src
	for round := 0; round < maxSubstitutionRounds; round++ {
		next, changed := substituteOnce(out, vars)
		if limit > 0 && len(next) > limit {
			return "", &VarLimitError{Len: len(next), Max: limit}
		}
		if !changed {
			return next, nil
		}
		out = next
	}
	return "", &VarLimitError{Len: len(out), Max: limit}
}

// substituteOnce performs one substitution pass over src.
func substituteOnce(src string, vars VarLookup) (string, bool) {
	if !strings.ContainsRune(src, '$') {
		return src, false
	}

	var (
		b       strings.Builder
		changed bool
	)
	for i := 0; i < len(src); {
		ch := src[i]
		if ch != '$' {
			b.WriteByte(ch)
			i++
			continue
		}

		// ${name}
		if i+1 < len(src) && src[i+1] == '{' {
			end := strings.IndexByte(src[i+2:], '}')
			if end >= 0 {
				name := src[i+2 : i+2+end]
				if val, ok := vars.LookupVar(name); ok {
					b.WriteString(val)
					changed = true
					i += 2 + end + 1
					continue
				}
			}
			b.WriteByte(ch)
			i++
			continue
		}

		// $name
		j := i + 1
		for j < len(src) && isVarChar(src[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(ch)
			i++
			continue
		}
		name := src[i+1 : j]
		if val, ok := vars.LookupVar(name); ok {
			b.WriteString(val)
			changed = true
		} else {
			b.WriteString(src[i:j])
		}
		i = j
	}
	return b.String(), changed
}

// isVarChar returns true if ch may appear in a bare variable name.
func isVarChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
