package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/internal/testutil"
	"github.com/relstack-labs/relsvg/internal/xmlio"
)

func resolve(t *testing.T, cfg Config, src string) (*document.Element, *Result, error) {
	t.Helper()
	root, err := xmlio.Read(strings.NewReader(src))
	require.NoError(t, err)
	cfg.Logger = testutil.NewTestLogger(t)
	res, err := New(cfg).Resolve(context.Background(), root)
	return root, res, err
}

func mustResolve(t *testing.T, src string) (*document.Element, *Result) {
	t.Helper()
	root, res, err := resolve(t, Config{}, src)
	require.NoError(t, err)
	return root, res
}

func findByID(root *document.Element, id string) *document.Element {
	var found *document.Element
	root.Walk(func(el *document.Element) bool {
		if el.ID() == id {
			found = el
			return false
		}
		return true
	})
	return found
}

func attr(t *testing.T, el *document.Element, name string) string {
	t.Helper()
	require.NotNil(t, el)
	v, ok := el.Attr(name)
	require.True(t, ok, "missing attribute %q on <%s>", name, el.Tag)
	return v
}

func TestResolve_DirspecChain(t *testing.T) {
	root, res := mustResolve(t, `<svg>
  <rect id="a" wh="10"/>
  <rect id="b" wh="10" xy="#a|h 5"/>
</svg>`)

	a := findByID(root, "a")
	assert.Equal(t, "0", attr(t, a, "x"))
	assert.Equal(t, "0", attr(t, a, "y"))
	assert.Equal(t, "10", attr(t, a, "width"))
	assert.Equal(t, "10", attr(t, a, "height"))
	assert.False(t, a.HasAttr("wh"))

	b := findByID(root, "b")
	assert.Equal(t, "15", attr(t, b, "x"))
	assert.Equal(t, "0", attr(t, b, "y"))
	assert.False(t, b.HasAttr("xy"))

	assert.Equal(t, 1, res.Passes)
}

func TestResolve_PrevReference(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <rect id="b" wh="10" xy="^|v 2"/>
</svg>`)

	b := findByID(root, "b")
	assert.Equal(t, "0", attr(t, b, "x"))
	assert.Equal(t, "12", attr(t, b, "y"))
}

func TestResolve_ForwardReferenceTakesExtraPass(t *testing.T) {
	root, res := mustResolve(t, `<svg>
  <rect id="b" wh="10" xy="#a|h"/>
  <rect id="a" xy="0" wh="10"/>
</svg>`)

	b := findByID(root, "b")
	assert.Equal(t, "10", attr(t, b, "x"))
	assert.Equal(t, 2, res.Passes)
}

func TestResolve_VarSequenceInText(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <var i="1"/>
  <var i="{{$i + 1}}"/>
  <text id="t" xy="0">{{$i}}</text>
</svg>`)

	el := findByID(root, "t")
	require.NotNil(t, el)
	require.Len(t, el.Children, 1)
	assert.Equal(t, "2", el.Children[0].Text)
}

func TestResolve_VarSimultaneousSwap(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <var a="1" b="2"/>
  <var a="$b" b="$a"/>
  <rect id="r" xy="$a $b" wh="1"/>
</svg>`)

	el := findByID(root, "r")
	assert.Equal(t, "2", attr(t, el, "x"))
	assert.Equal(t, "1", attr(t, el, "y"))
}

func TestResolve_Surround(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="p" xy="0" wh="5 2"/>
  <rect id="q" xy="2 0" wh="5 2"/>
  <rect id="s" surround="#p #q"/>
</svg>`)

	s := findByID(root, "s")
	assert.Equal(t, "0", attr(t, s, "x"))
	assert.Equal(t, "0", attr(t, s, "y"))
	assert.Equal(t, "7", attr(t, s, "width"))
	assert.Equal(t, "2", attr(t, s, "height"))
	assert.False(t, s.HasAttr("surround"))
}

func TestResolve_SurroundMargin(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="p" xy="10" wh="10"/>
  <rect id="s" surround="#p" margin="2 4"/>
</svg>`)

	s := findByID(root, "s")
	assert.Equal(t, "6", attr(t, s, "x"))
	assert.Equal(t, "8", attr(t, s, "y"))
	assert.Equal(t, "18", attr(t, s, "width"))
	assert.Equal(t, "14", attr(t, s, "height"))
}

func TestResolve_Inside(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="p" xy="0" wh="10"/>
  <rect id="q" xy="4 0" wh="10"/>
  <rect id="s" inside="#p #q"/>
</svg>`)

	s := findByID(root, "s")
	assert.Equal(t, "4", attr(t, s, "x"))
	assert.Equal(t, "6", attr(t, s, "width"))
}

func TestResolve_StallReportsEveryBlockedElement(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" wh="10" xy="#b|h"/>
  <rect id="b" wh="10" xy="#a|h"/>
</svg>`)

	var stall *StallError
	require.ErrorAs(t, err, &stall)
	require.Len(t, stall.Blocked, 2)
	assert.Equal(t, "a", stall.Blocked[0].ID)
	assert.Equal(t, "#b", stall.Blocked[0].Ref)
	assert.Equal(t, "b", stall.Blocked[1].ID)
	assert.Equal(t, "#a", stall.Blocked[1].Ref)
}

func TestResolve_UnknownReferenceStalls(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" wh="10" xy="#ghost|v"/>
</svg>`)

	var stall *StallError
	require.ErrorAs(t, err, &stall)
	require.Len(t, stall.Blocked, 1)
	assert.Equal(t, "#ghost", stall.Blocked[0].Ref)
}

func TestResolve_Loop(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="r0" xy="0" wh="10"/>
  <loop count="3" loop-var="k" start="1">
    <rect id="r$k" wh="10" xy="^|h 2"/>
  </loop>
</svg>`)

	for i, wantX := range map[string]string{"r1": "12", "r2": "24", "r3": "36"} {
		el := findByID(root, i)
		require.NotNil(t, el, "missing %s", i)
		assert.Equal(t, wantX, attr(t, el, "x"))
	}
}

func TestResolve_LoopLimit(t *testing.T) {
	_, _, err := resolve(t, Config{LoopLimit: 5}, `<svg>
  <loop count="10"><rect xy="0" wh="1"/></loop>
</svg>`)

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "loop-limit", limit.Limit)
	assert.Equal(t, 5, limit.Max)
}

func TestResolve_NestedLoopsShareLimit(t *testing.T) {
	_, _, err := resolve(t, Config{LoopLimit: 8}, `<svg>
  <loop count="3"><loop count="3"><rect xy="0" wh="1"/></loop></loop>
</svg>`)

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "loop-limit", limit.Limit)
}

func TestResolve_If(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <var debug="1"/>
  <if test="$debug"><rect id="yes" xy="0" wh="1"/></if>
  <if test="$debug - 1"><rect id="no" xy="0" wh="1"/></if>
</svg>`)

	assert.NotNil(t, findByID(root, "yes"))
	assert.Nil(t, findByID(root, "no"))
}

func TestResolve_Reuse(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <specs>
    <spec id="box" fill="red" size="5">
      <rect id="$name" xy="0" wh="$size" class="$fill"/>
    </spec>
  </specs>
  <reuse href="#box" name="b1" size="10"/>
  <reuse href="#box" name="b2"/>
</svg>`)

	b1 := findByID(root, "b1")
	require.NotNil(t, b1)
	assert.Equal(t, "10", attr(t, b1, "width"))
	assert.Equal(t, "red", attr(t, b1, "class"))

	b2 := findByID(root, "b2")
	require.NotNil(t, b2)
	assert.Equal(t, "5", attr(t, b2, "width"))

	// templates never appear in the output
	assert.Nil(t, findByID(root, "box"))
}

func TestResolve_ReuseDepthLimit(t *testing.T) {
	_, _, err := resolve(t, Config{DepthLimit: 3}, `<svg>
  <specs><spec id="rec"><reuse href="#rec"/></spec></specs>
  <reuse href="#rec"/>
</svg>`)

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "depth-limit", limit.Limit)
}

func TestResolve_VarLimit(t *testing.T) {
	_, _, err := resolve(t, Config{VarLimit: 16}, `<svg>
  <var s="0123456789"/>
  <var s="{{_($s, $s)}}"/>
</svg>`)

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "var-limit", limit.Limit)
}

func TestResolve_CircleCxy(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <circle id="c" cxy="50" r="10"/>
</svg>`)

	c := findByID(root, "c")
	assert.Equal(t, "50", attr(t, c, "cx"))
	assert.Equal(t, "50", attr(t, c, "cy"))
	assert.Equal(t, "10", attr(t, c, "r"))
}

func TestResolve_SizeAdoption(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="20 10"/>
  <rect id="b" wh="#a" xy="#a|v"/>
</svg>`)

	b := findByID(root, "b")
	assert.Equal(t, "20", attr(t, b, "width"))
	assert.Equal(t, "10", attr(t, b, "height"))
	assert.Equal(t, "10", attr(t, b, "y"))
}

func TestResolve_XyLoc(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <rect id="b" wh="4" xy="#a@c" xy-loc="c"/>
</svg>`)

	b := findByID(root, "b")
	assert.Equal(t, "3", attr(t, b, "x"))
	assert.Equal(t, "3", attr(t, b, "y"))
	assert.False(t, b.HasAttr("xy-loc"))
}

func TestResolve_EdgePointWithNegativeOffset(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <circle id="c" r="1" cxy="#a@t:-1"/>
</svg>`)

	c := findByID(root, "c")
	assert.Equal(t, "9", attr(t, c, "cx"))
	assert.Equal(t, "0", attr(t, c, "cy"))
}

func TestResolve_LineEndpoints(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <rect id="b" xy="20 0" wh="10"/>
  <line id="l" xy1="#a@r" xy2="#b@l"/>
</svg>`)

	l := findByID(root, "l")
	assert.Equal(t, "10", attr(t, l, "x1"))
	assert.Equal(t, "5", attr(t, l, "y1"))
	assert.Equal(t, "20", attr(t, l, "x2"))
	assert.Equal(t, "5", attr(t, l, "y2"))
}

func TestResolve_PolylineTranslate(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <polyline id="p" points="0,0 4,2 8,0" xy="#a|v 3"/>
</svg>`)

	p := findByID(root, "p")
	assert.Equal(t, "0,0 4,2 8,0", attr(t, p, "points"))
	assert.Equal(t, "translate(0, 13)", attr(t, p, "transform"))
	assert.False(t, p.HasAttr("xy"))
}

func TestResolve_GroupBoxAndTranslate(t *testing.T) {
	root, res := mustResolve(t, `<svg>
  <g id="grp" xy="100 0">
    <rect id="a" xy="0" wh="10"/>
    <rect id="b" xy="#a|h 5" wh="10"/>
  </g>
</svg>`)

	grp := findByID(root, "grp")
	assert.Equal(t, "translate(100, 0)", attr(t, grp, "transform"))

	for _, info := range res.Elements {
		if info.ID == "grp" {
			assert.Equal(t, 100.0, info.Box.X)
			assert.Equal(t, 25.0, info.Box.W)
			assert.Equal(t, 10.0, info.Box.H)
		}
	}
}

func TestResolve_TextLabelSibling(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect id="a" xy="0" wh="10 20" text="hello"/>
</svg>`)

	a := findByID(root, "a")
	assert.False(t, a.HasAttr("text"))

	var label *document.Element
	root.Walk(func(el *document.Element) bool {
		if el.Tag == "text" {
			label = el
		}
		return true
	})
	require.NotNil(t, label)
	assert.Equal(t, "5", attr(t, label, "x"))
	assert.Equal(t, "10", attr(t, label, "y"))
	require.Len(t, label.Children, 1)
	assert.Equal(t, "hello", label.Children[0].Text)
}

func TestResolve_TextLabelLoc(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect xy="0" wh="10" text="x" text-loc="bl"/>
</svg>`)

	var label *document.Element
	root.Walk(func(el *document.Element) bool {
		if el.Tag == "text" {
			label = el
		}
		return true
	})
	require.NotNil(t, label)
	assert.Equal(t, "0", attr(t, label, "x"))
	assert.Equal(t, "10", attr(t, label, "y"))
}

func TestResolve_ViewBoxDerived(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect xy="0" wh="10"/>
  <rect xy="20 0" wh="10"/>
</svg>`)

	assert.Equal(t, "-5 -5 40 20", attr(t, root, "viewBox"))
}

func TestResolve_ViewBoxNotDerivedWithExplicitSize(t *testing.T) {
	root, _ := mustResolve(t, `<svg width="100" height="100">
  <rect xy="0" wh="10"/>
</svg>`)

	assert.False(t, root.HasAttr("viewBox"))
}

func TestResolve_SeededRandomIsDeterministic(t *testing.T) {
	src := `<svg>
  <rect id="a" xy="{{randint(0, 1000000)}} 0" wh="{{randint(5, 200000)}}"/>
</svg>`

	out := func(seed int64) string {
		root, _, err := resolve(t, Config{Seed: seed}, src)
		require.NoError(t, err)
		s, err := xmlio.WriteString(root)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, out(7), out(7))
	assert.NotEqual(t, out(7), out(8))
}

func TestResolve_RandomDrawnOnceAcrossRetries(t *testing.T) {
	// The width draws once even though the attribute evaluation is retried
	// after the forward reference resolves.
	src := `<svg>
  <rect id="b" wh="{{randint(5, 20) + #a~w * 0}}" xy="0"/>
  <rect id="a" xy="30 0" wh="10"/>
</svg>`

	first, _, err := resolve(t, Config{Seed: 3}, src)
	require.NoError(t, err)

	reference, _, err := resolve(t, Config{Seed: 3}, `<svg>
  <rect id="b" wh="{{randint(5, 20)}}" xy="0"/>
</svg>`)
	require.NoError(t, err)

	assert.Equal(t,
		attr(t, findByID(reference, "b"), "width"),
		attr(t, findByID(first, "b"), "width"))
}

func TestResolve_PlainSVGPassesThrough(t *testing.T) {
	root, _ := mustResolve(t, `<svg width="10" height="10">
  <rect x="1" y="2" width="3" height="4" fill="green"/>
</svg>`)

	out, err := xmlio.WriteString(root)
	require.NoError(t, err)
	assert.Contains(t, out, `<rect x="1" y="2" width="3" height="4" fill="green"/>`)
}

func TestResolve_NonNumericAttributePassesThrough(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <rect xy="0" wh="10" rx="unset-by-style"/>
</svg>`)

	out, err := xmlio.WriteString(root)
	require.NoError(t, err)
	assert.Contains(t, out, `rx="unset-by-style"`)
}

func TestResolve_DuplicateIDFails(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" xy="0" wh="1"/>
  <rect id="a" xy="0" wh="1"/>
</svg>`)

	var elErr *ElementError
	require.ErrorAs(t, err, &elErr)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestResolve_ContextCancellation(t *testing.T) {
	root, err := xmlio.Read(strings.NewReader(`<svg><rect xy="0" wh="1"/></svg>`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(Config{}).Resolve(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_CircleWhBecomesRadius(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <circle id="c" wh="10" xy="0"/>
</svg>`)

	c := findByID(root, "c")
	assert.Equal(t, "5", attr(t, c, "cx"))
	assert.Equal(t, "5", attr(t, c, "cy"))
	assert.Equal(t, "5", attr(t, c, "r"))
	assert.False(t, c.HasAttr("width"))
	assert.False(t, c.HasAttr("height"))
	assert.False(t, c.HasAttr("x"))
	assert.False(t, c.HasAttr("y"))
}

func TestResolve_EllipseWhBecomesRadii(t *testing.T) {
	root, _ := mustResolve(t, `<svg>
  <ellipse id="e" wh="8 4" cxy="10"/>
</svg>`)

	e := findByID(root, "e")
	assert.Equal(t, "10", attr(t, e, "cx"))
	assert.Equal(t, "10", attr(t, e, "cy"))
	assert.Equal(t, "4", attr(t, e, "rx"))
	assert.Equal(t, "2", attr(t, e, "ry"))
	assert.False(t, e.HasAttr("width"))
	assert.False(t, e.HasAttr("height"))
}

func TestResolve_PlacementWithoutSizeFails(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <rect id="b" xy="#a|h 5"/>
</svg>`)

	var elErr *ElementError
	require.ErrorAs(t, err, &elErr)
	assert.Equal(t, "b", elErr.ID)
	assert.Contains(t, err.Error(), "determinable size")
}

func TestResolve_PlacementWithoutPointsFails(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" xy="0" wh="10"/>
  <polyline id="p" xy="#a|h 5"/>
</svg>`)

	var elErr *ElementError
	require.ErrorAs(t, err, &elErr)
	assert.Equal(t, "p", elErr.ID)
	assert.Contains(t, err.Error(), "coordinate data")
}

func TestResolve_ControlDrawsVaryAcrossIterations(t *testing.T) {
	// Each expanded <if> is its own occurrence; a replayed draw would keep
	// either every rect or none of them, for every seed.
	src := `<svg>
  <loop count="8">
    <if test="{{randint(0, 1)}}">
      <rect xy="0" wh="1"/>
    </if>
  </loop>
</svg>`

	mixed := false
	for seed := int64(0); seed < 6; seed++ {
		root, _, err := resolve(t, Config{Seed: seed}, src)
		require.NoError(t, err)
		n := 0
		root.Walk(func(el *document.Element) bool {
			if el.Tag == "rect" {
				n++
			}
			return true
		})
		if n > 0 && n < 8 {
			mixed = true
		}
	}
	assert.True(t, mixed, "every seed kept all or none of 8 coin-flipped rects")
}

func TestResolve_UnresolvedVariableInCoordinateFails(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <rect id="a" x="$undefined" y="0" wh="4"/>
</svg>`)

	var elErr *ElementError
	require.ErrorAs(t, err, &elErr)
	assert.Equal(t, "a", elErr.ID)
}

func TestResolve_StallNamesAnonymousGroupChildren(t *testing.T) {
	_, _, err := resolve(t, Config{}, `<svg>
  <g id="outer">
    <g>
      <rect wh="{{#ghost~w}} 2" xy="0"/>
    </g>
  </g>
</svg>`)

	var stall *StallError
	require.ErrorAs(t, err, &stall)
	require.Len(t, stall.Blocked, 3)
	assert.Equal(t, "<g> line 3", stall.Blocked[0].Ref)
	assert.Equal(t, "<rect> line 4", stall.Blocked[1].Ref)
	assert.Equal(t, "#ghost", stall.Blocked[2].Ref)
}
