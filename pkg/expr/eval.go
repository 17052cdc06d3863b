package expr

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// ScalarResolver resolves #id~scalar references against the document index.
// An id that is unknown or not yet positioned must return a *ReferenceError
// so the owning element can be deferred rather than failed.
type ScalarResolver interface {
	ElementScalar(id, scalar string) (float64, error)
}

// DrawCache memoizes random draws so a retried evaluation replays its
// earlier values instead of re-drawing.
type DrawCache interface {
	Draw(key string, gen func() float64) float64
}

// Env supplies everything an evaluation needs from its surroundings.
// The zero value evaluates pure arithmetic only.
type Env struct {
	Vars      VarLookup      // variable substitution source
	Refs      ScalarResolver // element-scalar lookups
	Rand      *rand.Rand     // seeded source for random/randint
	Draws     DrawCache      // replay cache for random draws
	DrawKey   string         // cache key prefix for this logical occurrence
	VarLimit  int            // ceiling on substituted text length
	Precision int            // decimal places when rendering values

	drawN int // ordinal of the next random draw under DrawKey
}

// Eval substitutes variables in src, then parses and evaluates the result.
func Eval(src string, env *Env) (Value, error) {
	if env == nil {
		env = &Env{}
	}
	sub := src
	if env.Vars != nil {
		var err error
		sub, err = Substitute(src, env.Vars, env.VarLimit)
		if err != nil {
			return nil, err
		}
	}
	return evalSubstituted(sub, env)
}

// EvalString evaluates src and renders the result as output text.
func EvalString(src string, env *Env) (string, error) {
	v, err := Eval(src, env)
	if err != nil {
		return "", err
	}
	prec := 3
	if env != nil && env.Precision > 0 {
		prec = env.Precision
	}
	return Format(v, prec), nil
}

// EvalNumber evaluates src and coerces the result to a single number.
func EvalNumber(src string, env *Env) (float64, error) {
	v, err := Eval(src, env)
	if err != nil {
		return 0, err
	}
	n, ok := AsNumber(v)
	if !ok {
		return 0, &EvalError{Message: fmt.Sprintf("expression %q is not numeric", src)}
	}
	return n, nil
}

// evalSubstituted parses and evaluates already-substituted text.
func evalSubstituted(src string, env *Env) (Value, error) {
	p := &evaluator{toks: Tokenize(src), env: env}
	v, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Type != TOKEN_EOF {
		return nil, &ParseError{Offset: tok.Offset, Message: fmt.Sprintf("unexpected %q", tok.Literal)}
	}
	return v, nil
}

// evaluator walks the token stream and evaluates as it parses. Grammar, in
// ascending precedence: comma list; + -; * / %; unary -; primary.
type evaluator struct {
	toks []Token
	pos  int
	env  *Env
}

func (p *evaluator) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: TOKEN_EOF}
	}
	return p.toks[p.pos]
}

func (p *evaluator) next() { p.pos++ }

// exprList parses comma-separated expressions into a flat list; a single
// expression stays scalar.
func (p *evaluator) exprList() (Value, error) {
	v, err := p.sum()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != TOKEN_COMMA {
		return v, nil
	}
	list := appendFlat(List{}, v)
	for p.cur().Type == TOKEN_COMMA {
		p.next()
		item, err := p.sum()
		if err != nil {
			return nil, err
		}
		list = appendFlat(list, item)
	}
	return list, nil
}

func (p *evaluator) sum() (Value, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur()
		if op.Type != TOKEN_PLUS && op.Type != TOKEN_MINUS {
			return left, nil
		}
		p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		left, err = arith(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *evaluator) product() (Value, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.cur()
		if op.Type != TOKEN_STAR && op.Type != TOKEN_SLASH && op.Type != TOKEN_MOD {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left, err = arith(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *evaluator) unary() (Value, error) {
	if p.cur().Type == TOKEN_MINUS {
		p.next()
		v, err := p.unary()
		if err != nil {
			return nil, err
		}
		n, ok := AsNumber(v)
		if !ok {
			return nil, &EvalError{Message: "unary minus on non-numeric value"}
		}
		return Number(-n), nil
	}
	return p.primary()
}

func (p *evaluator) primary() (Value, error) {
	tok := p.cur()
	switch tok.Type {
	case TOKEN_NUMBER:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &ParseError{Offset: tok.Offset, Message: fmt.Sprintf("invalid number %q", tok.Literal)}
		}
		p.next()
		return Number(f), nil

	case TOKEN_STRING:
		p.next()
		return Str(tok.Literal), nil

	case TOKEN_LPAREN:
		p.next()
		v, err := p.exprList()
		if err != nil {
			return nil, err
		}
		if p.cur().Type != TOKEN_RPAREN {
			return nil, &ParseError{Offset: p.cur().Offset, Message: "expected )"}
		}
		p.next()
		return v, nil

	case TOKEN_ELEMREF:
		p.next()
		return p.elementScalar(tok)

	case TOKEN_IDENT:
		p.next()
		if p.cur().Type != TOKEN_LPAREN {
			return nil, &ParseError{Offset: tok.Offset, Message: fmt.Sprintf("unknown identifier %q", tok.Literal)}
		}
		return p.call(tok)

	case TOKEN_EOF:
		return nil, &ParseError{Offset: tok.Offset, Message: "unexpected end of expression"}
	}
	return nil, &ParseError{Offset: tok.Offset, Message: fmt.Sprintf("unexpected %q", tok.Literal)}
}

// elementScalar resolves a #id~scalar token through the environment.
func (p *evaluator) elementScalar(tok Token) (Value, error) {
	body := strings.TrimPrefix(tok.Literal, "#")
	id, scalar, _ := strings.Cut(body, "~")
	if p.env.Refs == nil {
		return nil, &EvalError{Message: fmt.Sprintf("no element context for %s", tok.Literal)}
	}
	v, err := p.env.Refs.ElementScalar(id, scalar)
	if err != nil {
		return nil, err
	}
	return Number(v), nil
}

// call parses and applies a function call; the opening paren is current.
func (p *evaluator) call(name Token) (Value, error) {
	p.next() // skip '('
	var args List
	if p.cur().Type != TOKEN_RPAREN {
		for {
			v, err := p.sum()
			if err != nil {
				return nil, err
			}
			args = appendFlat(args, v)
			if p.cur().Type != TOKEN_COMMA {
				break
			}
			p.next()
		}
	}
	if p.cur().Type != TOKEN_RPAREN {
		return nil, &ParseError{Offset: p.cur().Offset, Message: "expected ) after arguments"}
	}
	p.next()

	fn, ok := builtins[name.Literal]
	if !ok {
		return nil, &ParseError{Offset: name.Offset, Message: fmt.Sprintf("unknown function %q", name.Literal)}
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, &EvalError{Message: fmt.Sprintf("%s: wrong argument count %d", name.Literal, len(args))}
	}
	return fn.apply(p, args)
}

// drawRandom produces the next random draw for this evaluation, replaying
// from the cache when one is configured.
func (p *evaluator) drawRandom() (float64, error) {
	if p.env.Rand == nil {
		return 0, &EvalError{Message: "no random source configured"}
	}
	ordinal := p.env.drawN
	p.env.drawN++
	gen := p.env.Rand.Float64
	if p.env.Draws == nil {
		return gen(), nil
	}
	key := fmt.Sprintf("%s#%d", p.env.DrawKey, ordinal)
	return p.env.Draws.Draw(key, gen), nil
}

// arith applies a binary arithmetic operator. The remainder operator is
// mathematical modulus: the result is never negative, so -1 % 4 == 3.
func arith(op Token, left, right Value) (Value, error) {
	a, aok := AsNumber(left)
	b, bok := AsNumber(right)
	if !aok || !bok {
		return nil, &EvalError{Message: fmt.Sprintf("operator %q needs numeric operands", op.Literal)}
	}
	switch op.Type {
	case TOKEN_PLUS:
		return Number(a + b), nil
	case TOKEN_MINUS:
		return Number(a - b), nil
	case TOKEN_STAR:
		return Number(a * b), nil
	case TOKEN_SLASH:
		if b == 0 {
			return nil, &EvalError{Message: "division by zero"}
		}
		return Number(a / b), nil
	case TOKEN_MOD:
		if b == 0 {
			return nil, &EvalError{Message: "modulus by zero"}
		}
		r := math.Mod(a, b)
		if r < 0 {
			r += math.Abs(b)
		}
		return Number(r), nil
	}
	return nil, &EvalError{Message: fmt.Sprintf("unsupported operator %q", op.Literal)}
}
