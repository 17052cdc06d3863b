package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapAttrs implements AttrNums over plain maps for tests.
type mapAttrs struct {
	nums map[string]float64
	raw  map[string]string
}

func (m mapAttrs) Num(name string) (float64, bool) {
	v, ok := m.nums[name]
	return v, ok
}

func (m mapAttrs) Raw(name string) (string, bool) {
	v, ok := m.raw[name]
	return v, ok
}

func TestBoxFromAttrs(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		attrs mapAttrs
		want  BBox
	}{
		{
			name:  "rect",
			shape: ShapeRect,
			attrs: mapAttrs{nums: map[string]float64{"x": 1, "y": 2, "width": 3, "height": 4}},
			want:  BBox{X: 1, Y: 2, W: 3, H: 4},
		},
		{
			name:  "circle",
			shape: ShapeCircle,
			attrs: mapAttrs{nums: map[string]float64{"cx": 5, "cy": 5, "r": 2}},
			want:  BBox{X: 3, Y: 3, W: 4, H: 4},
		},
		{
			name:  "ellipse",
			shape: ShapeEllipse,
			attrs: mapAttrs{nums: map[string]float64{"cx": 5, "cy": 5, "rx": 3, "ry": 1}},
			want:  BBox{X: 2, Y: 4, W: 6, H: 2},
		},
		{
			name:  "line right-to-left still normalizes",
			shape: ShapeLine,
			attrs: mapAttrs{nums: map[string]float64{"x1": 10, "y1": 0, "x2": 2, "y2": 4}},
			want:  BBox{X: 2, Y: 0, W: 8, H: 4},
		},
		{
			name:  "polygon",
			shape: ShapePoly,
			attrs: mapAttrs{raw: map[string]string{"points": "0,0 4,1 2,5"}},
			want:  BBox{X: 0, Y: 0, W: 4, H: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BoxFromAttrs(tt.shape, tt.attrs)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoxFromAttrs_Incomplete(t *testing.T) {
	_, ok := BoxFromAttrs(ShapeRect, mapAttrs{nums: map[string]float64{"x": 1, "y": 2}})
	assert.False(t, ok)
}

func TestSizeFromAttrs(t *testing.T) {
	w, h, ok := SizeFromAttrs(ShapeCircle, mapAttrs{nums: map[string]float64{"r": 3}})
	require.True(t, ok)
	assert.Equal(t, 6.0, w)
	assert.Equal(t, 6.0, h)

	_, _, ok = SizeFromAttrs(ShapeRect, mapAttrs{nums: map[string]float64{"width": 3}})
	assert.False(t, ok)
}

func TestPositionAttrs(t *testing.T) {
	attrs, ok := PositionAttrs(ShapeCircle, BBox{X: 0, Y: 0, W: 10, H: 10})
	require.True(t, ok)
	assert.Equal(t, []NumAttr{{"cx", 5}, {"cy", 5}, {"r", 5}}, attrs)

	// Paths and groups are re-based with a transform, not attributes.
	_, ok = PositionAttrs(ShapePath, BBox{})
	assert.False(t, ok)
	_, ok = PositionAttrs(ShapeGroup, BBox{})
	assert.False(t, ok)
}

func TestPathBounds(t *testing.T) {
	tests := []struct {
		name string
		d    string
		want BBox
	}{
		{"absolute lines", "M 0 0 L 10 0 L 10 5 Z", BBox{X: 0, Y: 0, W: 10, H: 5}},
		{"relative lines", "m 1 1 l 4 0 l 0 3", BBox{X: 1, Y: 1, W: 4, H: 3}},
		{"horizontal vertical", "M2 2 H 8 V 6", BBox{X: 2, Y: 2, W: 6, H: 4}},
		{"curve control points ignored", "M0 0 C 100 100 -100 100 10 4", BBox{X: 0, Y: 0, W: 10, H: 4}},
		{"quadratic endpoint only", "M0 0 Q 50 50 4 2", BBox{X: 0, Y: 0, W: 4, H: 2}},
		{"arc endpoint only", "M0 0 A 30 30 0 0 1 6 6", BBox{X: 0, Y: 0, W: 6, H: 6}},
		{"implicit lineto after moveto", "M 0 0 5 5 10 0", BBox{X: 0, Y: 0, W: 10, H: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathBounds(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathBounds_Errors(t *testing.T) {
	_, err := PathBounds("")
	assert.Error(t, err)
	_, err = PathBounds("X 1 2")
	assert.Error(t, err)
}

func TestPolyBounds_Errors(t *testing.T) {
	_, err := PolyBounds("1 2 3")
	assert.Error(t, err)
	_, err = PolyBounds("a b")
	assert.Error(t, err)
}
