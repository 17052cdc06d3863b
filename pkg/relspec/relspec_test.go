package relspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
)

func TestLooks(t *testing.T) {
	assert.True(t, Looks("#a|h 5"))
	assert.True(t, Looks("^@c"))
	assert.True(t, Looks("  #box "))
	assert.False(t, Looks("#a~w + 3")) // element-scalar expression
	assert.False(t, Looks("1 + 2"))
	assert.False(t, Looks(""))
}

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want RelSpec
	}{
		{"#a", RelSpec{Ref: ElemRef{ID: "a"}}},
		{"^", RelSpec{Ref: ElemRef{Prev: true}}},
		{"#a|h 5", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindDir, Dir: 'h', Deltas: []float64{5}}},
		{"#a|V", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindDir, Dir: 'V'}},
		{"#a@tr", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindLoc, Loc: geometry.LocTopRight}},
		{"#a@c 2 3", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindLoc, Loc: geometry.LocCenter, Deltas: []float64{2, 3}}},
		{"#a@t:25%", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindEdge, Edge: geometry.LocTop, EdgeLen: geometry.Length{Val: 25, Percent: true}}},
		{"#a@b:-1", RelSpec{Ref: ElemRef{ID: "a"}, Kind: KindEdge, Edge: geometry.LocBottom, EdgeLen: geometry.Length{Val: -1}}},
		{"#long-id.x|v", RelSpec{Ref: ElemRef{ID: "long-id.x"}, Kind: KindDir, Dir: 'v'}},
		{"^ 4", RelSpec{Ref: ElemRef{Prev: true}, Deltas: []float64{4}}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, &tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		"",
		"#",
		"rect",
		"#a|x",
		"#a@zz",
		"#a@c:50%", // edge offset on a non-edge location
		"#a@t:",
		"#a 1 2 3",
		"#a one",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			assert.Error(t, err)
		})
	}
}

// boxes implements BoxLookup over a fixed map.
type boxes map[string]geometry.BBox

func (b boxes) BoxOf(ref ElemRef) (geometry.BBox, error) {
	if ref.Prev {
		if bb, ok := b["^"]; ok {
			return bb, nil
		}
		return geometry.BBox{}, &expr.ReferenceError{Ref: "^"}
	}
	if bb, ok := b[ref.ID]; ok {
		return bb, nil
	}
	return geometry.BBox{}, &expr.ReferenceError{Ref: "#" + ref.ID}
}

func TestPoint(t *testing.T) {
	lk := boxes{"a": {X: 0, Y: 0, W: 10, H: 10}}

	tests := []struct {
		src        string
		ownW, ownH float64
		x, y       float64
	}{
		{"#a|h 5", 10, 10, 15, 0},  // right of a with gap 5, top aligned
		{"#a|H 5", 10, 10, -15, 0}, // left of a: gap plus own width
		{"#a|v 2", 10, 10, 0, 12},
		{"#a|V 2", 10, 4, 0, -6},
		{"#a@c", 0, 0, 5, 5},
		{"#a@br 1 2", 0, 0, 11, 12},
		{"#a@c 3", 0, 0, 8, 8}, // single delta duplicates to both axes
		{"#a@t:50%", 0, 0, 5, 0},
		{"#a@t:-1", 0, 0, 9, 0}, // negative measures back from edge end
		{"#a@r:25%", 0, 0, 10, 2.5},
		{"#a 2 3", 0, 0, 2, 3}, // bare ref: same anchor plus deltas
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			rs, err := Parse(tt.src)
			require.NoError(t, err)
			x, y, err := rs.Point(lk, tt.ownW, tt.ownH)
			require.NoError(t, err)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestPoint_UnresolvedReference(t *testing.T) {
	rs, err := Parse("#missing|h")
	require.NoError(t, err)
	_, _, err = rs.Point(boxes{}, 0, 0)
	require.Error(t, err)
	assert.True(t, expr.IsRetryable(err))
}
