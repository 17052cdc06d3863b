package expr

import (
	"fmt"
	"math"
	"strings"
)

// builtin is one entry in the fixed function table. maxArgs of -1 means
// variadic.
type builtin struct {
	minArgs, maxArgs int
	apply            func(p *evaluator, args List) (Value, error)
}

// numFn adapts a pure float function of fixed arity.
func numFn(arity int, f func(args []float64) (float64, error)) builtin {
	return builtin{
		minArgs: arity,
		maxArgs: arity,
		apply: func(_ *evaluator, args List) (Value, error) {
			nums, err := numbers(args)
			if err != nil {
				return nil, err
			}
			v, err := f(nums)
			if err != nil {
				return nil, err
			}
			return Number(v), nil
		},
	}
}

// foldFn adapts a variadic float reduction with at least one argument.
func foldFn(f func(acc, v float64) float64) builtin {
	return builtin{
		minArgs: 1,
		maxArgs: -1,
		apply: func(_ *evaluator, args List) (Value, error) {
			nums, err := numbers(args)
			if err != nil {
				return nil, err
			}
			acc := nums[0]
			for _, v := range nums[1:] {
				acc = f(acc, v)
			}
			return Number(acc), nil
		},
	}
}

func numbers(args List) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, ok := AsNumber(a)
		if !ok {
			return nil, &EvalError{Message: fmt.Sprintf("argument %d is not numeric", i+1)}
		}
		out[i] = n
	}
	return out, nil
}

func boolNum(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

func truthy(v Value) bool {
	if n, ok := AsNumber(v); ok {
		return n != 0
	}
	if s, ok := v.(Str); ok {
		return s != ""
	}
	if l, ok := v.(List); ok {
		return len(l) > 0
	}
	return false
}

const degPerRad = 180 / math.Pi

// builtins is the fixed static function table; there are no user-defined
// functions. Trigonometric functions operate in degrees.
var builtins = map[string]builtin{
	// Arithmetic
	"abs":   numFn(1, func(a []float64) (float64, error) { return math.Abs(a[0]), nil }),
	"ceil":  numFn(1, func(a []float64) (float64, error) { return math.Ceil(a[0]), nil }),
	"floor": numFn(1, func(a []float64) (float64, error) { return math.Floor(a[0]), nil }),
	"round": numFn(1, func(a []float64) (float64, error) { return math.Round(a[0]), nil }),
	"sign": numFn(1, func(a []float64) (float64, error) {
		switch {
		case a[0] > 0:
			return 1, nil
		case a[0] < 0:
			return -1, nil
		}
		return 0, nil
	}),
	"sqrt": numFn(1, func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, &EvalError{Message: "sqrt of negative value"}
		}
		return math.Sqrt(a[0]), nil
	}),
	"pow": numFn(2, func(a []float64) (float64, error) { return math.Pow(a[0], a[1]), nil }),
	"min": foldFn(math.Min),
	"max": foldFn(math.Max),
	"sum": foldFn(func(acc, v float64) float64 { return acc + v }),
	"clamp": numFn(3, func(a []float64) (float64, error) {
		return math.Min(math.Max(a[0], a[1]), a[2]), nil
	}),
	"mod": numFn(2, func(a []float64) (float64, error) {
		if a[1] == 0 {
			return 0, &EvalError{Message: "modulus by zero"}
		}
		r := math.Mod(a[0], a[1])
		if r < 0 {
			r += math.Abs(a[1])
		}
		return r, nil
	}),

	// Trigonometry, in degrees
	"sin":  numFn(1, func(a []float64) (float64, error) { return math.Sin(a[0] / degPerRad), nil }),
	"cos":  numFn(1, func(a []float64) (float64, error) { return math.Cos(a[0] / degPerRad), nil }),
	"tan":  numFn(1, func(a []float64) (float64, error) { return math.Tan(a[0] / degPerRad), nil }),
	"asin": numFn(1, func(a []float64) (float64, error) { return math.Asin(a[0]) * degPerRad, nil }),
	"acos": numFn(1, func(a []float64) (float64, error) { return math.Acos(a[0]) * degPerRad, nil }),
	"atan": numFn(1, func(a []float64) (float64, error) { return math.Atan(a[0]) * degPerRad, nil }),
	"atan2": numFn(2, func(a []float64) (float64, error) {
		return math.Atan2(a[0], a[1]) * degPerRad, nil
	}),

	// Comparison and logic: numeric 0/1 booleans, C semantics
	"eq": {minArgs: 2, maxArgs: 2, apply: func(_ *evaluator, args List) (Value, error) {
		return boolNum(valueEq(args[0], args[1])), nil
	}},
	"ne": {minArgs: 2, maxArgs: 2, apply: func(_ *evaluator, args List) (Value, error) {
		return boolNum(!valueEq(args[0], args[1])), nil
	}},
	"lt": cmpFn(func(a, b float64) bool { return a < b }),
	"le": cmpFn(func(a, b float64) bool { return a <= b }),
	"gt": cmpFn(func(a, b float64) bool { return a > b }),
	"ge": cmpFn(func(a, b float64) bool { return a >= b }),
	"not": {minArgs: 1, maxArgs: 1, apply: func(_ *evaluator, args List) (Value, error) {
		return boolNum(!truthy(args[0])), nil
	}},
	"and": {minArgs: 1, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		for _, a := range args {
			if !truthy(a) {
				return Number(0), nil
			}
		}
		return Number(1), nil
	}},
	"or": {minArgs: 1, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		for _, a := range args {
			if truthy(a) {
				return Number(1), nil
			}
		}
		return Number(0), nil
	}},
	"xor": {minArgs: 2, maxArgs: 2, apply: func(_ *evaluator, args List) (Value, error) {
		return boolNum(truthy(args[0]) != truthy(args[1])), nil
	}},
	"if": {minArgs: 3, maxArgs: 3, apply: func(_ *evaluator, args List) (Value, error) {
		if truthy(args[0]) {
			return args[1], nil
		}
		return args[2], nil
	}},

	// Random, drawn from the per-document seeded source
	"random": {minArgs: 0, maxArgs: 0, apply: func(p *evaluator, _ List) (Value, error) {
		v, err := p.drawRandom()
		if err != nil {
			return nil, err
		}
		return Number(v), nil
	}},
	"randint": {minArgs: 2, maxArgs: 2, apply: func(p *evaluator, args List) (Value, error) {
		nums, err := numbers(args)
		if err != nil {
			return nil, err
		}
		lo, hi := math.Ceil(nums[0]), math.Floor(nums[1])
		if hi < lo {
			return nil, &EvalError{Message: "randint: empty range"}
		}
		v, err := p.drawRandom()
		if err != nil {
			return nil, err
		}
		return Number(lo + math.Floor(v*(hi-lo+1))), nil
	}},

	// Lists
	"head": {minArgs: 1, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		return args[0], nil
	}},
	"tail": {minArgs: 1, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		return List(args[1:]), nil
	}},
	"count": {minArgs: 0, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		return Number(len(args)), nil
	}},
	"empty": {minArgs: 0, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		return boolNum(len(args) == 0), nil
	}},
	"select": {minArgs: 1, maxArgs: -1, apply: func(_ *evaluator, args List) (Value, error) {
		idx, ok := AsNumber(args[0])
		if !ok {
			return nil, &EvalError{Message: "select: index is not numeric"}
		}
		items := args[1:]
		i := int(idx)
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return nil, &EvalError{Message: fmt.Sprintf("select: index %d out of range for %d items", int(idx), len(items))}
		}
		return items[i], nil
	}},

	// Strings
	"split": {minArgs: 2, maxArgs: 2, apply: func(p *evaluator, args List) (Value, error) {
		sep := Format(args[0], p.prec())
		s := Format(args[1], p.prec())
		parts := strings.Split(s, sep)
		out := make(List, len(parts))
		for i, part := range parts {
			out[i] = Str(part)
		}
		return out, nil
	}},
	"join": {minArgs: 1, maxArgs: -1, apply: func(p *evaluator, args List) (Value, error) {
		sep := Format(args[0], p.prec())
		parts := make([]string, len(args)-1)
		for i, a := range args[1:] {
			parts[i] = Format(a, p.prec())
		}
		return Str(strings.Join(parts, sep)), nil
	}},
	"trim": {minArgs: 1, maxArgs: 1, apply: func(p *evaluator, args List) (Value, error) {
		return Str(strings.TrimSpace(Format(args[0], p.prec()))), nil
	}},
	"_": {minArgs: 0, maxArgs: -1, apply: func(p *evaluator, args List) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Format(a, p.prec())
		}
		return Str(strings.Join(parts, " ")), nil
	}},
}

// cmpFn adapts a two-argument numeric comparison.
func cmpFn(f func(a, b float64) bool) builtin {
	return builtin{
		minArgs: 2,
		maxArgs: 2,
		apply: func(_ *evaluator, args List) (Value, error) {
			nums, err := numbers(args)
			if err != nil {
				return nil, err
			}
			return boolNum(f(nums[0], nums[1])), nil
		},
	}
}

// valueEq compares two values: numerically when both coerce to numbers,
// textually otherwise.
func valueEq(a, b Value) bool {
	an, aok := AsNumber(a)
	bn, bok := AsNumber(b)
	if aok && bok {
		return an == bn
	}
	return Format(a, 6) == Format(b, 6)
}

// prec returns the rendering precision for string-producing builtins.
func (p *evaluator) prec() int {
	if p.env != nil && p.env.Precision > 0 {
		return p.env.Precision
	}
	return 3
}
