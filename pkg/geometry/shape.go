package geometry

// Shape classifies an element tag by how its native attributes map onto a
// bounding box. The set is closed: every resolvable kind implements the
// same to-box / from-box / write-position behavior, so callers never
// dispatch on the tag itself.
type Shape int

const (
	ShapeOther Shape = iota
	ShapeRect        // rect, image, use, foreignObject: x, y, width, height
	ShapeCircle      // circle: cx, cy, r
	ShapeEllipse     // ellipse: cx, cy, rx, ry
	ShapeLine        // line: x1, y1, x2, y2
	ShapePoly        // polyline, polygon: extremes of listed points
	ShapePath        // path: extremes of visited endpoints
	ShapeGroup       // g, svg: union of resolved children
	ShapeText        // text: anchor point only, no intrinsic size
)

var shapeTags = map[string]Shape{
	"rect":          ShapeRect,
	"image":         ShapeRect,
	"use":           ShapeRect,
	"foreignObject": ShapeRect,
	"box":           ShapeRect,
	"circle":        ShapeCircle,
	"ellipse":       ShapeEllipse,
	"line":          ShapeLine,
	"polyline":      ShapePoly,
	"polygon":       ShapePoly,
	"path":          ShapePath,
	"g":             ShapeGroup,
	"svg":           ShapeGroup,
	"text":          ShapeText,
	"tspan":         ShapeText,
}

// ShapeOf returns the shape kind for a tag name.
func ShapeOf(tag string) Shape {
	if s, ok := shapeTags[tag]; ok {
		return s
	}
	return ShapeOther
}

// AttrNums supplies evaluated numeric attribute values for one element.
type AttrNums interface {
	Num(name string) (float64, bool)
	Raw(name string) (string, bool)
}

// SizeFromAttrs determines width and height from an element's native
// attributes, without needing an anchor. The second return value is false
// when the attributes present do not pin down a size.
func SizeFromAttrs(s Shape, a AttrNums) (w, h float64, ok bool) {
	switch s {
	case ShapeRect:
		w, wok := a.Num("width")
		h, hok := a.Num("height")
		return w, h, wok && hok
	case ShapeCircle:
		if r, ok := a.Num("r"); ok {
			return 2 * r, 2 * r, true
		}
	case ShapeEllipse:
		rx, xok := a.Num("rx")
		ry, yok := a.Num("ry")
		if xok && yok {
			return 2 * rx, 2 * ry, true
		}
	case ShapeLine, ShapePoly, ShapePath:
		if b, ok := BoxFromAttrs(s, a); ok {
			return b.W, b.H, true
		}
	case ShapeText:
		// A text anchor has no intrinsic extent of its own.
		return 0, 0, true
	}
	return 0, 0, false
}

// BoxFromAttrs computes the full bounding box of a shape whose native
// attributes already determine both size and position.
func BoxFromAttrs(s Shape, a AttrNums) (BBox, bool) {
	switch s {
	case ShapeRect:
		x, xok := a.Num("x")
		y, yok := a.Num("y")
		w, wok := a.Num("width")
		h, hok := a.Num("height")
		if xok && yok && wok && hok {
			return BBox{X: x, Y: y, W: w, H: h}, true
		}
	case ShapeCircle:
		cx, xok := a.Num("cx")
		cy, yok := a.Num("cy")
		r, rok := a.Num("r")
		if xok && yok && rok {
			return BBox{X: cx - r, Y: cy - r, W: 2 * r, H: 2 * r}, true
		}
	case ShapeEllipse:
		cx, xok := a.Num("cx")
		cy, yok := a.Num("cy")
		rx, rxok := a.Num("rx")
		ry, ryok := a.Num("ry")
		if xok && yok && rxok && ryok {
			return BBox{X: cx - rx, Y: cy - ry, W: 2 * rx, H: 2 * ry}, true
		}
	case ShapeLine:
		x1, ok1 := a.Num("x1")
		y1, ok2 := a.Num("y1")
		x2, ok3 := a.Num("x2")
		y2, ok4 := a.Num("y2")
		if ok1 && ok2 && ok3 && ok4 {
			// A line's own x2 may be left of x1; the box normalizes.
			return NewBBox(x1, y1, x2, y2), true
		}
	case ShapePoly:
		if pts, ok := a.Raw("points"); ok {
			if b, err := PolyBounds(pts); err == nil {
				return b, true
			}
		}
	case ShapePath:
		if d, ok := a.Raw("d"); ok {
			if b, err := PathBounds(d); err == nil {
				return b, true
			}
		}
	case ShapeText:
		x, xok := a.Num("x")
		y, yok := a.Num("y")
		if xok && yok {
			return BBox{X: x, Y: y}, true
		}
	}
	return BBox{}, false
}

// NumAttr is a named numeric attribute produced when writing a position
// back onto an element.
type NumAttr struct {
	Name string
	Val  float64
}

// PositionAttrs returns the attributes that anchor a shape of the given
// kind at box b, for kinds positioned by direct attribute rewrite.
// Kinds whose internal coordinates cannot be re-based this way (poly, path,
// group) report ok=false and are positioned with a translate transform
// instead; see TranslateFor.
func PositionAttrs(s Shape, b BBox) ([]NumAttr, bool) {
	switch s {
	case ShapeRect:
		return []NumAttr{
			{"x", b.X}, {"y", b.Y}, {"width", b.W}, {"height", b.H},
		}, true
	case ShapeCircle:
		return []NumAttr{
			{"cx", b.Cx()}, {"cy", b.Cy()}, {"r", b.W / 2},
		}, true
	case ShapeEllipse:
		return []NumAttr{
			{"cx", b.Cx()}, {"cy", b.Cy()}, {"rx", b.W / 2}, {"ry", b.H / 2},
		}, true
	case ShapeLine:
		return []NumAttr{
			{"x1", b.X}, {"y1", b.Y}, {"x2", b.X2()}, {"y2", b.Y2()},
		}, true
	case ShapeText:
		return []NumAttr{{"x", b.X}, {"y", b.Y}}, true
	}
	return nil, false
}

// TranslateFor computes the (dx, dy) that moves a shape whose current box
// is from onto the target box to. Used for the translate-only transform
// write strategy.
func TranslateFor(from, to BBox) (float64, float64) {
	return to.X - from.X, to.Y - from.Y
}
