package resolver

import "github.com/relstack-labs/relsvg/internal/document"

// frame is one scope on the variable stack: a name→value mapping with a
// back-reference to the enclosing frame. The outermost frame is the global
// namespace.
type frame struct {
	vars   map[string]string
	parent *frame
}

func newFrame(parent *frame) *frame {
	return &frame{vars: make(map[string]string), parent: parent}
}

// lookup searches this frame then its ancestors.
func (f *frame) lookup(name string) (string, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}

// set updates name in the nearest frame that already defines it, falling
// back to defining it in this frame. Locals therefore shadow without
// mutating the global namespace, while updates to an existing global
// persist after enclosing frames are discarded.
func (f *frame) set(name, value string) {
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = value
			return
		}
	}
	f.vars[name] = value
}

// define inserts into this frame unconditionally, shadowing any outer
// binding. Used for loop variables and reuse parameters.
func (f *frame) define(name, value string) {
	f.vars[name] = value
}

// elementScope resolves variables for one element's attribute evaluation:
// the element's own other attributes act as locals (skipping the attribute
// currently being evaluated, which blocks trivial self-reference), then the
// scope frame chain.
type elementScope struct {
	el      *document.Element
	exclude string // attribute currently being evaluated
	frame   *frame
}

func (s *elementScope) LookupVar(name string) (string, bool) {
	if s.el != nil && name != s.exclude {
		if v, ok := s.el.Attr(name); ok {
			return v, true
		}
	}
	if s.frame != nil {
		return s.frame.lookup(name)
	}
	return "", false
}

// frameScope exposes a bare frame chain as a VarLookup, for evaluation
// outside any element context.
type frameScope struct {
	frame *frame
}

func (s *frameScope) LookupVar(name string) (string, bool) {
	if s.frame == nil {
		return "", false
	}
	return s.frame.lookup(name)
}
