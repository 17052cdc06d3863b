package document

// Compound attribute expansion and canonical attribute ordering.

// compound maps a shorthand attribute to the pair it expands into.
var compound = map[string][2]string{
	"xy":  {"x", "y"},
	"cxy": {"cx", "cy"},
	"wh":  {"width", "height"},
	"rxy": {"rx", "ry"},
	"xy1": {"x1", "y1"},
	"xy2": {"x2", "y2"},
}

// IsCompound reports whether name is a compound positional attribute.
func IsCompound(name string) bool {
	_, ok := compound[name]
	return ok
}

// CompoundParts returns the two attributes a compound shorthand expands to.
func CompoundParts(name string) (string, string, bool) {
	p, ok := compound[name]
	return p[0], p[1], ok
}

// positionalOrder fixes the relative order of generated positional
// attributes so they come out contiguous and predictable.
var positionalOrder = []string{
	"x", "y", "x1", "y1", "x2", "y2",
	"cx", "cy", "r", "rx", "ry",
	"width", "height", "points", "d",
}

var positionalRank = func() map[string]int {
	m := make(map[string]int, len(positionalOrder))
	for i, n := range positionalOrder {
		m[n] = i
	}
	return m
}()

// CanonicalizeAttrs reorders the element's attributes for output: id first
// if present, then positional attributes in canonical sequence at the point
// the first of them appeared, all other attributes keeping their input
// order.
func (e *Element) CanonicalizeAttrs() {
	if len(e.Attrs) < 2 {
		return
	}

	var (
		id         []Attr
		positional []Attr
		rest       []Attr
		posAt      = -1
	)
	for _, a := range e.Attrs {
		switch {
		case a.Name == "id":
			id = append(id, a)
		case isPositional(a.Name):
			if posAt < 0 {
				posAt = len(rest)
			}
			positional = append(positional, a)
		default:
			rest = append(rest, a)
		}
	}
	if len(positional) > 1 {
		sortPositional(positional)
	}

	out := make([]Attr, 0, len(e.Attrs))
	out = append(out, id...)
	if posAt < 0 {
		posAt = len(rest)
	}
	out = append(out, rest[:posAt]...)
	out = append(out, positional...)
	out = append(out, rest[posAt:]...)
	e.Attrs = out
}

func isPositional(name string) bool {
	_, ok := positionalRank[name]
	return ok
}

// sortPositional is a stable insertion sort by canonical rank; attribute
// lists are tiny.
func sortPositional(attrs []Attr) {
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0 && positionalRank[attrs[j].Name] < positionalRank[attrs[j-1].Name]; j-- {
			attrs[j], attrs[j-1] = attrs[j-1], attrs[j]
		}
	}
}
