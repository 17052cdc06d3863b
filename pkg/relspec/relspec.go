// Package relspec parses and evaluates relative-position expressions: an
// element reference plus an optional direction, location, or edge-offset,
// followed by optional numeric deltas.
//
// Grammar:
//
//	relspec   := elref [ dirspec | locspec | edgespec ] deltas?
//	elref     := '^' | '#' ident
//	dirspec   := '|' ('h'|'H'|'v'|'V')
//	locspec   := '@' ('tl'|'t'|'tr'|'r'|'br'|'b'|'bl'|'l'|'c')
//	edgespec  := '@' ('t'|'r'|'b'|'l') ':' length
//	length    := number | number '%'
//	deltas    := number [number]
package relspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relstack-labs/relsvg/pkg/geometry"
)

// ElemRef identifies the referenced element: the previous element in
// document order, or an element by id.
type ElemRef struct {
	Prev bool
	ID   string
}

func (r ElemRef) String() string {
	if r.Prev {
		return "^"
	}
	return "#" + r.ID
}

// Kind distinguishes the positioning forms a relspec can carry.
type Kind int

const (
	KindNone Kind = iota // bare reference: same anchor as the target
	KindDir              // |h |H |v |V adjacency with a gap
	KindLoc              // @tl .. @c anchor point
	KindEdge             // @edge:length point along an edge
)

// RelSpec is a parsed relative-position expression.
type RelSpec struct {
	Ref     ElemRef
	Kind    Kind
	Dir     byte         // one of h H v V when Kind == KindDir
	Loc     geometry.Loc // when Kind == KindLoc
	Edge    geometry.Loc // when Kind == KindEdge
	EdgeLen geometry.Length
	Deltas  []float64 // 0, 1 or 2 values
}

// Looks reports whether s could be a relspec: it starts with an element
// reference marker. Used to route attribute values away from arithmetic
// evaluation.
func Looks(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '^' {
		return true
	}
	// #id~scalar belongs to the expression language, not relspec.
	return s[0] == '#' && !strings.Contains(s, "~")
}

// Parse parses a relspec from s. Variable substitution must already have
// happened.
func Parse(s string) (*RelSpec, error) {
	src := strings.TrimSpace(s)
	r := &RelSpec{}

	rest, err := r.parseRef(src)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(rest, "|") {
		rest, err = r.parseDir(rest[1:])
	} else if strings.HasPrefix(rest, "@") {
		rest, err = r.parseAt(rest[1:])
	}
	if err != nil {
		return nil, err
	}

	if err := r.parseDeltas(rest); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RelSpec) parseRef(s string) (string, error) {
	switch {
	case strings.HasPrefix(s, "^"):
		r.Ref.Prev = true
		return strings.TrimSpace(s[1:]), nil
	case strings.HasPrefix(s, "#"):
		i := 1
		for i < len(s) && isIDChar(s[i]) {
			i++
		}
		if i == 1 {
			return "", fmt.Errorf("relspec %q: empty element id", s)
		}
		r.Ref.ID = s[1:i]
		return strings.TrimSpace(s[i:]), nil
	}
	return "", fmt.Errorf("relspec %q: expected ^ or #id", s)
}

func (r *RelSpec) parseDir(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("direction spec is empty")
	}
	switch s[0] {
	case 'h', 'H', 'v', 'V':
		r.Kind = KindDir
		r.Dir = s[0]
		return strings.TrimSpace(s[1:]), nil
	}
	return "", fmt.Errorf("unknown direction %q", string(s[0]))
}

// parseAt handles both locspec (@tr) and edgespec (@t:25%).
func (r *RelSpec) parseAt(s string) (string, error) {
	i := 0
	for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
		i++
	}
	loc, err := geometry.ParseLoc(s[:i])
	if err != nil {
		return "", err
	}
	rest := s[i:]

	if strings.HasPrefix(rest, ":") {
		if !loc.IsEdge() {
			return "", fmt.Errorf("edge offset needs an edge (t, r, b, l), got %q", loc)
		}
		r.Kind = KindEdge
		r.Edge = loc
		return r.parseEdgeLen(rest[1:])
	}

	r.Kind = KindLoc
	r.Loc = loc
	return strings.TrimSpace(rest), nil
}

func (r *RelSpec) parseEdgeLen(s string) (string, error) {
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return "", fmt.Errorf("edge offset %q: expected length", s)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return "", fmt.Errorf("edge offset %q: %w", s, err)
	}
	r.EdgeLen = geometry.Length{Val: v}
	rest := s[i:]
	if strings.HasPrefix(rest, "%") {
		r.EdgeLen.Percent = true
		rest = rest[1:]
	}
	return strings.TrimSpace(rest), nil
}

// parseDeltas parses up to two trailing numbers. A single delta applies to
// both axes for loc/none specs; for a dirspec it is the gap.
func (r *RelSpec) parseDeltas(s string) error {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) > 2 {
		return fmt.Errorf("too many deltas in %q", s)
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("invalid delta %q", f)
		}
		r.Deltas = append(r.Deltas, v)
	}
	return nil
}

// isIDChar matches element id characters.
func isIDChar(ch byte) bool {
	return ch == '_' || ch == '-' || ch == '.' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// BoxLookup resolves an element reference to its positioned bounding box.
// An unpositioned or unknown reference must return a retryable reference
// error (expr.ReferenceError) so the owning element is deferred.
type BoxLookup interface {
	BoxOf(ref ElemRef) (geometry.BBox, error)
}

// dxDy interprets the deltas as an (dx, dy) pair: a single value is
// duplicated to both axes, not treated as dy=0.
func (r *RelSpec) dxDy() (float64, float64) {
	switch len(r.Deltas) {
	case 1:
		return r.Deltas[0], r.Deltas[0]
	case 2:
		return r.Deltas[0], r.Deltas[1]
	}
	return 0, 0
}

// gap interprets the deltas of a dirspec: the first value is the gap along
// the placement axis, an optional second value shifts along the cross axis.
func (r *RelSpec) gap() (float64, float64) {
	switch len(r.Deltas) {
	case 1:
		return r.Deltas[0], 0
	case 2:
		return r.Deltas[0], r.Deltas[1]
	}
	return 0, 0
}

// Point resolves the relspec to the top-left anchor for an element of size
// ownW x ownH. For loc and edge specs the resulting point is the anchor
// itself; deltas are applied after anchor selection.
func (r *RelSpec) Point(lk BoxLookup, ownW, ownH float64) (float64, float64, error) {
	ref, err := lk.BoxOf(r.Ref)
	if err != nil {
		return 0, 0, err
	}

	switch r.Kind {
	case KindDir:
		gap, shift := r.gap()
		switch r.Dir {
		case 'h': // to the right, top-aligned
			return ref.X2() + gap, ref.Y + shift, nil
		case 'H': // to the left
			return ref.X - gap - ownW, ref.Y + shift, nil
		case 'v': // below, left-aligned
			return ref.X + shift, ref.Y2() + gap, nil
		case 'V': // above
			return ref.X + shift, ref.Y - gap - ownH, nil
		}
		return 0, 0, fmt.Errorf("unknown direction %q", string(r.Dir))

	case KindLoc:
		x, y := ref.LocPoint(r.Loc)
		dx, dy := r.dxDy()
		return x + dx, y + dy, nil

	case KindEdge:
		x, y := ref.EdgePoint(r.Edge, r.EdgeLen)
		dx, dy := r.dxDy()
		return x + dx, y + dy, nil

	default: // bare reference: same anchor as the referenced element
		dx, dy := r.dxDy()
		return ref.X + dx, ref.Y + dy, nil
	}
}
