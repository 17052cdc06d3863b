// Package geometry provides the uniform bounding-box model shared by every
// resolvable shape kind, plus anchor-point (locspec) and edge-point (edgespec)
// addressing on those boxes.
package geometry

import (
	"fmt"
	"math"
)

// BBox is an axis-aligned bounding box. W and H are never negative.
type BBox struct {
	X, Y, W, H float64
}

// NewBBox builds a box from any two opposite corners, normalizing so that
// width and height come out non-negative.
func NewBBox(x1, y1, x2, y2 float64) BBox {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// X2 returns the right edge.
func (b BBox) X2() float64 { return b.X + b.W }

// Y2 returns the bottom edge.
func (b BBox) Y2() float64 { return b.Y + b.H }

// Cx returns the horizontal center.
func (b BBox) Cx() float64 { return b.X + b.W/2 }

// Cy returns the vertical center.
func (b BBox) Cy() float64 { return b.Y + b.H/2 }

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return NewBBox(
		math.Min(b.X, o.X),
		math.Min(b.Y, o.Y),
		math.Max(b.X2(), o.X2()),
		math.Max(b.Y2(), o.Y2()),
	)
}

// Intersect returns the overlap of b and o. The second return value is
// false when the boxes do not overlap.
func (b BBox) Intersect(o BBox) (BBox, bool) {
	x1 := math.Max(b.X, o.X)
	y1 := math.Max(b.Y, o.Y)
	x2 := math.Min(b.X2(), o.X2())
	y2 := math.Min(b.Y2(), o.Y2())
	if x2 < x1 || y2 < y1 {
		return BBox{}, false
	}
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, true
}

// Translate returns b shifted by (dx, dy).
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{X: b.X + dx, Y: b.Y + dy, W: b.W, H: b.H}
}

// Pad returns b grown by the given margin on each side.
func (b BBox) Pad(m Margin) BBox {
	return BBox{
		X: b.X - m.Left,
		Y: b.Y - m.Top,
		W: b.W + m.Left + m.Right,
		H: b.H + m.Top + m.Bottom,
	}
}

// Scalar returns a named scalar of the box. The vocabulary matches the
// element-scalar references accepted in expressions: x, y, x1, y1, x2, y2,
// w, h, width, height, cx, cy, r, rx, ry, t, b, l.
// For non-circular boxes r is half the larger dimension.
func (b BBox) Scalar(name string) (float64, bool) {
	switch name {
	case "x", "x1", "l":
		return b.X, true
	case "y", "y1", "t":
		return b.Y, true
	case "x2":
		return b.X2(), true
	case "y2", "b":
		return b.Y2(), true
	case "w", "width":
		return b.W, true
	case "h", "height":
		return b.H, true
	case "cx":
		return b.Cx(), true
	case "cy":
		return b.Cy(), true
	case "r":
		return math.Max(b.W, b.H) / 2, true
	case "rx":
		return b.W / 2, true
	case "ry":
		return b.H / 2, true
	}
	return 0, false
}

func (b BBox) String() string {
	return fmt.Sprintf("(%g, %g) %g x %g", b.X, b.Y, b.W, b.H)
}
