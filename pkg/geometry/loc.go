package geometry

import "fmt"

// Loc names one of the nine anchor points of a bounding box: the four
// corners, the four edge midpoints, and the center.
type Loc int

const (
	LocTopLeft Loc = iota
	LocTop
	LocTopRight
	LocRight
	LocBottomRight
	LocBottom
	LocBottomLeft
	LocLeft
	LocCenter
)

var locNames = map[string]Loc{
	"tl": LocTopLeft,
	"t":  LocTop,
	"tr": LocTopRight,
	"r":  LocRight,
	"br": LocBottomRight,
	"b":  LocBottom,
	"bl": LocBottomLeft,
	"l":  LocLeft,
	"c":  LocCenter,
}

// ParseLoc parses a location name (tl, t, tr, r, br, b, bl, l, c).
func ParseLoc(s string) (Loc, error) {
	if l, ok := locNames[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown location %q", s)
}

// IsEdge reports whether l names one of the four edges (t, r, b, l),
// the only locations valid in an edge-offset spec.
func (l Loc) IsEdge() bool {
	switch l {
	case LocTop, LocRight, LocBottom, LocLeft:
		return true
	}
	return false
}

func (l Loc) String() string {
	for name, v := range locNames {
		if v == l {
			return name
		}
	}
	return "?"
}

// LocPoint returns the coordinates of the named anchor on b.
func (b BBox) LocPoint(l Loc) (float64, float64) {
	switch l {
	case LocTopLeft:
		return b.X, b.Y
	case LocTop:
		return b.Cx(), b.Y
	case LocTopRight:
		return b.X2(), b.Y
	case LocRight:
		return b.X2(), b.Cy()
	case LocBottomRight:
		return b.X2(), b.Y2()
	case LocBottom:
		return b.Cx(), b.Y2()
	case LocBottomLeft:
		return b.X, b.Y2()
	case LocLeft:
		return b.X, b.Cy()
	default:
		return b.Cx(), b.Cy()
	}
}

// Length is an edge-offset length: either an absolute distance or a
// percentage of the edge length.
type Length struct {
	Val     float64
	Percent bool
}

// EdgePoint returns the point on the given edge of b addressed by l.
// Percentages interpolate from the edge start to its end. Absolute offsets
// measure from the edge start when non-negative and backward from the edge
// end when negative, so on an edge of length 10 an offset of -1 lands at
// the same point as 9.
//
// Edges run clockwise visually but are always addressed left-to-right
// (top, bottom) or top-to-bottom (left, right).
func (b BBox) EdgePoint(edge Loc, l Length) (float64, float64) {
	along := func(start, length float64) float64 {
		switch {
		case l.Percent:
			return start + length*l.Val/100
		case l.Val < 0:
			return start + length + l.Val
		default:
			return start + l.Val
		}
	}
	switch edge {
	case LocTop:
		return along(b.X, b.W), b.Y
	case LocBottom:
		return along(b.X, b.W), b.Y2()
	case LocLeft:
		return b.X, along(b.Y, b.H)
	case LocRight:
		return b.X2(), along(b.Y, b.H)
	default:
		return b.LocPoint(edge)
	}
}
