package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
	"github.com/relstack-labs/relsvg/pkg/relspec"
)

// numericAttrs are the single-coordinate attributes evaluated as
// expressions during resolution.
var numericAttrs = map[string]bool{
	"x": true, "y": true,
	"x1": true, "y1": true, "x2": true, "y2": true,
	"cx": true, "cy": true,
	"r": true, "rx": true, "ry": true,
	"width": true, "height": true,
}

// helperAttrs never survive into the output document.
var helperAttrs = []string{
	"xy", "cxy", "wh", "rxy", "xy1", "xy2", "xy-loc",
	"surround", "inside", "margin", "text", "text-loc",
}

// attempt advances one entry through the state machine as far as the
// current document state allows. A retryable return means the entry is
// blocked on another element and should be revisited next pass; any other
// error is fatal for the whole transformation.
func (r *run) attempt(en *entry) error {
	if en.state == document.Positioned || en.state == document.Failed {
		return nil
	}
	en.blocked = ""

	if err := r.evalAttrs(en); err != nil {
		return r.deferOrFail(en, err)
	}

	var err error
	if spec, ok := en.attrs["surround"]; ok {
		err = r.attemptAggregate(en, spec, true)
	} else if spec, ok := en.attrs["inside"]; ok {
		err = r.attemptAggregate(en, spec, false)
	} else {
		switch en.shape {
		case geometry.ShapeGroup:
			err = r.attemptGroup(en)
		case geometry.ShapeLine:
			err = r.attemptLine(en)
		case geometry.ShapePoly, geometry.ShapePath:
			err = r.attemptOutline(en)
		default:
			err = r.attemptBoxShape(en)
		}
	}
	if err != nil {
		return r.deferOrFail(en, err)
	}
	if en.state == document.Positioned {
		r.writeBack(en)
	}
	return nil
}

func (r *run) deferOrFail(en *entry, err error) error {
	if expr.IsRetryable(err) {
		var ref *expr.ReferenceError
		if errors.As(err, &ref) {
			en.blockedOn(ref.Ref)
		}
		return err
	}
	return en.fail(err)
}

// evalAttrs finishes the evaluation of every attribute that is not final
// yet: expression blocks, numeric expressions and compound coordinates.
// Relative-position values are routed into en.rel for the positioning
// stage. A value that is neither an expression nor a block passes through
// as plain text.
func (r *run) evalAttrs(en *entry) error {
	for _, a := range en.el.Attrs {
		name := a.Name
		if en.final[name] {
			continue
		}
		raw := en.attrs[name]

		switch {
		case name == "surround" || name == "inside":
			// reference lists, consumed whole at the aggregate stage
			en.final[name] = true

		case document.IsCompound(name):
			if err := r.evalCompoundAttr(en, name, raw); err != nil {
				return err
			}

		case numericAttrs[name]:
			if err := r.evalNumericAttr(en, name, raw); err != nil {
				return err
			}

		default:
			if expr.HasBlock(raw) {
				env := r.env(en, name, nil)
				rendered, err := expr.EvalBlocks(raw, env)
				if err != nil {
					return err
				}
				en.attrs[name] = rendered
			}
			en.final[name] = true
		}
	}
	return nil
}

// evalNumericAttr evaluates one coordinate attribute. Non-expression text
// without blocks stays untouched: stroke-like keyword values share names
// with nothing here, but authors do write width="thick" in plain SVG and
// the transformer must not reject it.
func (r *run) evalNumericAttr(en *entry, name, raw string) error {
	env := r.env(en, name, nil)
	src := raw
	if expr.HasBlock(src) {
		rendered, err := expr.EvalBlocks(src, env)
		if err != nil {
			return err
		}
		src = rendered
		en.attrs[name] = rendered
	}
	v, err := expr.EvalNumber(src, env)
	if err != nil {
		if expr.IsRetryable(err) {
			return err
		}
		if strings.ContainsRune(src, '$') {
			// Substitution already ran; a leftover reference is an
			// unresolved variable, not a keyword value.
			return err
		}
		en.final[name] = true
		return nil
	}
	en.nums[name] = v
	en.final[name] = true
	return nil
}

// evalCompoundAttr splits a two-coordinate shorthand into its target
// attributes. A relspec value is deferred whole to the positioning stage; a
// single numeric value applies to both coordinates.
func (r *run) evalCompoundAttr(en *entry, name, raw string) error {
	if relspec.Looks(raw) {
		en.rel[name] = raw
		en.final[name] = true
		return nil
	}

	env := r.env(en, name, nil)
	src := raw
	if expr.HasBlock(src) {
		rendered, err := expr.EvalBlocks(src, env)
		if err != nil {
			return err
		}
		src = rendered
		en.attrs[name] = rendered
	}

	parts := splitPair(src)
	first, second, _ := document.CompoundParts(name)
	switch len(parts) {
	case 1:
		v, err := expr.EvalNumber(parts[0], env)
		if err != nil {
			return err
		}
		en.nums[first], en.nums[second] = v, v
	case 2:
		v1, err := expr.EvalNumber(parts[0], env)
		if err != nil {
			return err
		}
		v2, err := expr.EvalNumber(parts[1], env)
		if err != nil {
			return err
		}
		en.nums[first], en.nums[second] = v1, v2
	default:
		return &expr.EvalError{Message: fmt.Sprintf("%s wants 1 or 2 values, got %d", name, len(parts))}
	}
	en.final[name] = true
	return nil
}

// splitPair splits a compound value on its top-level separator: a comma if
// present, whitespace otherwise. Commas allow the halves to be expressions
// that themselves contain spaces.
func splitPair(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.ContainsRune(s, ',') {
		raw := strings.Split(s, ",")
		out := make([]string, 0, len(raw))
		for _, p := range raw {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
	return strings.Fields(s)
}

// size determines the entry's own extent, from native attributes or by
// adopting a referenced element's size through wh="#ref".
func (r *run) size(en *entry) error {
	if en.state != document.Unresolved {
		return nil
	}
	w, h, ok := geometry.SizeFromAttrs(en.shape, en)
	switch {
	case ok:

	case en.hasNum("width") && en.hasNum("height"):
		// wh (or literal width/height) on a circle or ellipse maps onto the
		// native radius attributes; the generic names never reach output.
		w, h = en.nums["width"], en.nums["height"]
		delete(en.nums, "width")
		delete(en.nums, "height")
		en.el.RemoveAttr("width")
		en.el.RemoveAttr("height")
		r.storeSizeNums(en, w, h)

	case en.rel["wh"] != "":
		rs, err := relspec.Parse(en.rel["wh"])
		if err != nil {
			return err
		}
		rc := &refContext{run: r, en: en}
		w, h, err = rc.SizeOf(rs.Ref)
		if err != nil {
			return err
		}
		dw, dh := 0.0, 0.0
		if len(rs.Deltas) > 0 {
			dw, dh = rs.Deltas[0], rs.Deltas[0]
			if len(rs.Deltas) > 1 {
				dh = rs.Deltas[1]
			}
		}
		w += dw
		h += dh
		r.storeSizeNums(en, w, h)

	default:
		return nil // stays unresolved; caller decides passthrough
	}
	en.width, en.height = w, h
	en.state = document.SizeKnown
	return nil
}

// storeSizeNums records an adopted size in the shape's native attributes so
// box assembly and output see ordinary numbers.
func (r *run) storeSizeNums(en *entry, w, h float64) {
	switch en.shape {
	case geometry.ShapeCircle:
		en.nums["r"] = w / 2
	case geometry.ShapeEllipse:
		en.nums["rx"], en.nums["ry"] = w/2, h/2
	default:
		en.nums["width"], en.nums["height"] = w, h
	}
}

// attemptBoxShape positions rect, circle, ellipse and text: size first,
// then an anchor from a relspec, explicit coordinates, or the SVG default
// of zero.
func (r *run) attemptBoxShape(en *entry) error {
	if err := r.size(en); err != nil {
		return err
	}
	if en.state == document.Unresolved {
		if len(en.rel) > 0 {
			// Helpers are stripped on write; a pending placement must not
			// pass through.
			return fmt.Errorf("relative placement needs a determinable size")
		}
		// No determinable size and nothing pending: plain passthrough.
		en.state = document.Positioned
		return nil
	}
	if en.shape == geometry.ShapeText && !en.anchored() {
		// A text or tspan without anchor information inherits its position
		// in plain SVG; adding x="0" there would change its meaning.
		en.state = document.Positioned
		return nil
	}

	rc := &refContext{run: r, en: en}
	w, h := en.width, en.height

	var x, y float64
	switch {
	case en.rel["xy"] != "":
		rs, err := relspec.Parse(en.rel["xy"])
		if err != nil {
			return err
		}
		px, py, err := rs.Point(rc, w, h)
		if err != nil {
			return err
		}
		x, y = r.anchorTopLeft(en, px, py, w, h, geometry.LocTopLeft)

	case en.rel["cxy"] != "":
		rs, err := relspec.Parse(en.rel["cxy"])
		if err != nil {
			return err
		}
		px, py, err := rs.Point(rc, w, h)
		if err != nil {
			return err
		}
		x, y = px-w/2, py-h/2

	case en.shape == geometry.ShapeCircle || en.shape == geometry.ShapeEllipse:
		if en.hasNum("x") || en.hasNum("y") {
			// Explicit top-left coordinates anchor the box like any other
			// shape; cx/cy/r carry the position in output.
			x, y = r.anchorTopLeft(en, en.numOr("x", 0), en.numOr("y", 0), w, h, geometry.LocTopLeft)
			delete(en.nums, "x")
			delete(en.nums, "y")
		} else {
			cx := en.numOr("cx", 0)
			cy := en.numOr("cy", 0)
			x, y = cx-w/2, cy-h/2
		}

	default:
		x, y = r.anchorTopLeft(en, en.numOr("x", 0), en.numOr("y", 0), w, h, geometry.LocTopLeft)
	}

	en.box = geometry.BBox{X: x, Y: y, W: w, H: h}
	en.hasBox = true
	en.state = document.Positioned
	return nil
}

// anchorTopLeft converts an anchor point into the box's top-left corner,
// honoring an xy-loc attribute that names which location of this element
// the point pins.
func (r *run) anchorTopLeft(en *entry, x, y, w, h float64, def geometry.Loc) (float64, float64) {
	loc := def
	if name, ok := en.attrs["xy-loc"]; ok {
		if parsed, err := geometry.ParseLoc(name); err == nil {
			loc = parsed
		}
	}
	ax, ay := geometry.BBox{W: w, H: h}.LocPoint(loc)
	return x - ax, y - ay
}

// attemptLine resolves each endpoint independently: a relspec point or
// explicit coordinates (defaulting to zero). Lines skip the size-known
// state; their extent falls out of the endpoints.
func (r *run) attemptLine(en *entry) error {
	rc := &refContext{run: r, en: en}

	resolveEnd := func(relName, xName, yName string) (float64, float64, error) {
		if spec, ok := en.rel[relName]; ok {
			rs, err := relspec.Parse(spec)
			if err != nil {
				return 0, 0, err
			}
			return rs.Point(rc, 0, 0)
		}
		return en.numOr(xName, 0), en.numOr(yName, 0), nil
	}

	x1, y1, err := resolveEnd("xy1", "x1", "y1")
	if err != nil {
		return err
	}
	x2, y2, err := resolveEnd("xy2", "x2", "y2")
	if err != nil {
		return err
	}

	en.nums["x1"], en.nums["y1"] = x1, y1
	en.nums["x2"], en.nums["y2"] = x2, y2
	en.box = geometry.NewBBox(x1, y1, x2, y2)
	en.width, en.height = en.box.W, en.box.H
	en.hasBox = true
	en.state = document.Positioned
	return nil
}

// attemptOutline resolves poly and path elements. Their internal
// coordinates are never rewritten; relocation happens through a translate
// transform computed against the bounds of the raw coordinate data.
func (r *run) attemptOutline(en *entry) error {
	box, ok := geometry.BoxFromAttrs(en.shape, en)
	if !ok {
		if len(en.rel) > 0 {
			return fmt.Errorf("relative placement needs coordinate data")
		}
		en.state = document.Positioned // passthrough
		return nil
	}
	en.width, en.height = box.W, box.H
	if en.state == document.Unresolved {
		en.state = document.SizeKnown
	}

	target := box
	if spec, ok := en.rel["xy"]; ok {
		rs, err := relspec.Parse(spec)
		if err != nil {
			return err
		}
		rc := &refContext{run: r, en: en}
		px, py, err := rs.Point(rc, box.W, box.H)
		if err != nil {
			return err
		}
		x, y := r.anchorTopLeft(en, px, py, box.W, box.H, geometry.LocTopLeft)
		target = geometry.BBox{X: x, Y: y, W: box.W, H: box.H}
	} else if en.hasNum("x") || en.hasNum("y") {
		target = geometry.BBox{X: en.numOr("x", box.X), Y: en.numOr("y", box.Y), W: box.W, H: box.H}
	}

	if target != box {
		en.useTransform = true
		en.dx, en.dy = geometry.TranslateFor(box, target)
	}
	en.box = target
	en.hasBox = true
	en.state = document.Positioned
	return nil
}

// attemptGroup derives the group's box from its direct child entries. The
// group resolves only after every child has; a group with an anchor of its
// own relocates its whole subtree with a translate transform.
func (r *run) attemptGroup(en *entry) error {
	var (
		union geometry.BBox
		boxed bool
	)
	for _, child := range en.children {
		switch child.state {
		case document.Positioned:
			if !child.hasBox {
				continue
			}
			if boxed {
				union = union.Union(child.box)
			} else {
				union, boxed = child.box, true
			}
		case document.Failed:
			return fmt.Errorf("child <%s> at line %d failed", child.el.Tag, child.el.Line)
		default:
			ref := child.blocked
			if ref == "" {
				if id := child.id(); id != "" {
					ref = "#" + id
				} else {
					ref = fmt.Sprintf("<%s> line %d", child.el.Tag, child.el.Line)
				}
			}
			return &expr.ReferenceError{Ref: ref}
		}
	}

	if !boxed {
		en.state = document.Positioned // empty or passthrough-only group
		return nil
	}

	en.width, en.height = union.W, union.H
	if en.state == document.Unresolved {
		en.state = document.SizeKnown
	}

	target := union
	if spec, ok := en.rel["xy"]; ok {
		rs, err := relspec.Parse(spec)
		if err != nil {
			return err
		}
		rc := &refContext{run: r, en: en}
		px, py, err := rs.Point(rc, union.W, union.H)
		if err != nil {
			return err
		}
		x, y := r.anchorTopLeft(en, px, py, union.W, union.H, geometry.LocTopLeft)
		target = geometry.BBox{X: x, Y: y, W: union.W, H: union.H}
	} else if en.hasNum("x") || en.hasNum("y") {
		target = geometry.BBox{X: en.numOr("x", union.X), Y: en.numOr("y", union.Y), W: union.W, H: union.H}
	}

	if target != union {
		en.useTransform = true
		en.dx, en.dy = geometry.TranslateFor(union, target)
	}
	en.box = target
	en.hasBox = true
	en.state = document.Positioned
	return nil
}

// attemptAggregate sizes and positions an element from other elements'
// boxes: surround takes the union grown by the margin, inside takes the
// intersection shrunk by it. Every referenced element must be positioned.
func (r *run) attemptAggregate(en *entry, spec string, surround bool) error {
	rc := &refContext{run: r, en: en}

	var (
		agg geometry.BBox
		any bool
	)
	for _, field := range strings.Fields(spec) {
		ref, err := parseAggregateRef(field)
		if err != nil {
			return err
		}
		box, err := rc.BoxOf(ref)
		if err != nil {
			return err
		}
		if !any {
			agg, any = box, true
			continue
		}
		if surround {
			agg = agg.Union(box)
		} else {
			shrunk, ok := agg.Intersect(box)
			if !ok {
				return &expr.EvalError{Message: fmt.Sprintf("inside references do not overlap (%s)", field)}
			}
			agg = shrunk
		}
	}
	if !any {
		return &expr.EvalError{Message: "empty reference list"}
	}

	if m, err := r.marginOf(en); err != nil {
		return err
	} else if surround {
		agg = agg.Pad(m)
	} else {
		agg = agg.Pad(geometry.Margin{Top: -m.Top, Right: -m.Right, Bottom: -m.Bottom, Left: -m.Left})
	}

	en.box = agg
	en.width, en.height = agg.W, agg.H
	r.storeSizeNums(en, agg.W, agg.H)
	en.hasBox = true
	en.state = document.Positioned
	return nil
}

func parseAggregateRef(field string) (relspec.ElemRef, error) {
	switch {
	case field == "^":
		return relspec.ElemRef{Prev: true}, nil
	case strings.HasPrefix(field, "#") && len(field) > 1:
		return relspec.ElemRef{ID: field[1:]}, nil
	}
	return relspec.ElemRef{}, &expr.EvalError{Message: fmt.Sprintf("bad element reference %q", field)}
}

func (r *run) marginOf(en *entry) (geometry.Margin, error) {
	raw, ok := en.attrs["margin"]
	if !ok {
		return geometry.Margin{}, nil
	}
	return geometry.ParseMargin(raw)
}

func (en *entry) numOr(name string, def float64) float64 {
	if v, ok := en.nums[name]; ok {
		return v
	}
	return def
}

func (en *entry) hasNum(name string) bool {
	_, ok := en.nums[name]
	return ok
}

// anchored reports whether the element carries any positioning input of
// its own.
func (en *entry) anchored() bool {
	return en.rel["xy"] != "" || en.rel["cxy"] != "" ||
		en.hasNum("x") || en.hasNum("y") || en.hasNum("cx") || en.hasNum("cy")
}
