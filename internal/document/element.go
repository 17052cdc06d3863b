// Package document models the element tree the resolver operates on: tagged
// elements with ordered attributes, class lists, children and a per-element
// resolution state. Attribute insertion order is preserved because it
// matters for output.
package document

import "strings"

// State is the per-element resolution state. Positioned and Failed are
// terminal.
type State int

const (
	Unresolved State = iota
	SizeKnown        // width/height determined, anchor point not yet
	Positioned
	Failed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case SizeKnown:
		return "size-known"
	case Positioned:
		return "positioned"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Kind distinguishes element nodes from text and comment nodes in the tree.
type Kind int

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// Attr is one named attribute. Order within an element is significant.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the document tree. Children are owned exclusively by
// their parent; cross-references between elements go through the document
// index by id, never through direct pointers into another subtree.
type Element struct {
	Kind     Kind
	Tag      string // empty for text/comment nodes
	Text     string // content of text/comment nodes
	Attrs    []Attr
	Children []*Element
	Line     int // source line, for error reporting
	State    State
}

// NewElement creates an element node with the given tag.
func NewElement(tag string) *Element {
	return &Element{Kind: KindElement, Tag: tag}
}

// NewText creates a text node.
func NewText(text string) *Element {
	return &Element{Kind: KindText, Text: text}
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets the named attribute, keeping its position if it already
// exists and appending otherwise.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute, preserving the order of the rest.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// ID returns the element's id attribute.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Classes returns the element's class tokens.
func (e *Element) Classes() []string {
	cls, ok := e.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(cls)
}

// AddClass appends a class token if not already present.
func (e *Element) AddClass(name string) {
	for _, c := range e.Classes() {
		if c == name {
			return
		}
	}
	cls, ok := e.Attr("class")
	if !ok || cls == "" {
		e.SetAttr("class", name)
		return
	}
	e.SetAttr("class", cls+" "+name)
}

// Clone deep-copies the element and its subtree. Resolution state is not
// carried over: clones start unresolved.
func (e *Element) Clone() *Element {
	dup := &Element{
		Kind: e.Kind,
		Tag:  e.Tag,
		Text: e.Text,
		Line: e.Line,
	}
	if len(e.Attrs) > 0 {
		dup.Attrs = make([]Attr, len(e.Attrs))
		copy(dup.Attrs, e.Attrs)
	}
	for _, c := range e.Children {
		dup.Children = append(dup.Children, c.Clone())
	}
	return dup
}

// InsertAfter inserts newChild immediately after the given child, or
// appends when the child is not found.
func (e *Element) InsertAfter(child, newChild *Element) {
	for i, c := range e.Children {
		if c == child {
			e.Children = append(e.Children[:i+1], append([]*Element{newChild}, e.Children[i+1:]...)...)
			return
		}
	}
	e.Children = append(e.Children, newChild)
}

// ReplaceChild swaps child for the given replacements, splicing them into
// its position. An empty replacement list removes the child.
func (e *Element) ReplaceChild(child *Element, with []*Element) {
	for i, c := range e.Children {
		if c == child {
			rest := append([]*Element{}, e.Children[i+1:]...)
			e.Children = append(e.Children[:i], append(with, rest...)...)
			return
		}
	}
}

// Walk visits every element node of the subtree in document order,
// including e itself. Returning false from fn stops descent into that
// element's children.
func (e *Element) Walk(fn func(el *Element) bool) {
	if e.Kind != KindElement {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}
