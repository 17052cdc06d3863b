package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement_AttrOrderPreserved(t *testing.T) {
	e := NewElement("rect")
	e.SetAttr("width", "10")
	e.SetAttr("fill", "red")
	e.SetAttr("x", "0")

	// Updating keeps position.
	e.SetAttr("fill", "blue")

	names := make([]string, len(e.Attrs))
	for i, a := range e.Attrs {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"width", "fill", "x"}, names)

	v, ok := e.Attr("fill")
	require.True(t, ok)
	assert.Equal(t, "blue", v)

	e.RemoveAttr("fill")
	assert.False(t, e.HasAttr("fill"))
	assert.Len(t, e.Attrs, 2)
}

func TestElement_Classes(t *testing.T) {
	e := NewElement("rect")
	e.SetAttr("class", "d-box d-red")
	assert.Equal(t, []string{"d-box", "d-red"}, e.Classes())

	e.AddClass("d-red") // no duplicate
	e.AddClass("d-big")
	assert.Equal(t, []string{"d-box", "d-red", "d-big"}, e.Classes())
}

func TestElement_Clone(t *testing.T) {
	e := NewElement("g")
	e.SetAttr("id", "grp")
	child := NewElement("rect")
	child.SetAttr("x", "1")
	child.State = Positioned
	e.Children = append(e.Children, child)

	dup := e.Clone()
	dup.Children[0].SetAttr("x", "99")

	v, _ := e.Children[0].Attr("x")
	assert.Equal(t, "1", v, "clone must not share attribute storage")
	assert.Equal(t, Unresolved, dup.Children[0].State, "clones start unresolved")
}

func TestElement_ReplaceChild(t *testing.T) {
	parent := NewElement("g")
	a := NewElement("rect")
	b := NewElement("circle")
	parent.Children = []*Element{a, b}

	r1 := NewElement("line")
	r2 := NewElement("line")
	parent.ReplaceChild(a, []*Element{r1, r2})
	assert.Equal(t, []*Element{r1, r2, b}, parent.Children)

	parent.ReplaceChild(b, nil)
	assert.Equal(t, []*Element{r1, r2}, parent.Children)
}

func TestCompoundParts(t *testing.T) {
	a, b, ok := CompoundParts("xy")
	require.True(t, ok)
	assert.Equal(t, "x", a)
	assert.Equal(t, "y", b)

	_, _, ok = CompoundParts("x")
	assert.False(t, ok)
	assert.True(t, IsCompound("wh"))
}

func TestCanonicalizeAttrs(t *testing.T) {
	e := NewElement("rect")
	e.SetAttr("fill", "red")
	e.SetAttr("y", "2")
	e.SetAttr("id", "a")
	e.SetAttr("height", "4")
	e.SetAttr("stroke", "black")
	e.SetAttr("x", "1")
	e.SetAttr("width", "3")

	e.CanonicalizeAttrs()

	names := make([]string, len(e.Attrs))
	for i, a := range e.Attrs {
		names[i] = a.Name
	}
	// id first; positional attrs contiguous in canonical order at the spot
	// the first positional appeared; the rest keep input order.
	assert.Equal(t, []string{"id", "fill", "x", "y", "width", "height", "stroke"}, names)
}

func TestWalk_StopsDescent(t *testing.T) {
	root := NewElement("svg")
	g := NewElement("g")
	inner := NewElement("rect")
	g.Children = append(g.Children, inner)
	root.Children = append(root.Children, g, NewElement("circle"))

	var visited []string
	root.Walk(func(el *Element) bool {
		visited = append(visited, el.Tag)
		return el.Tag != "g"
	})
	assert.Equal(t, []string{"svg", "g", "circle"}, visited)
}
