package resolver

import (
	"fmt"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
)

// numOrder fixes the emission order of evaluated coordinates that do not
// already exist as attributes, so output is deterministic before the
// canonical sort runs.
var numOrder = []string{
	"x", "y", "x1", "y1", "x2", "y2",
	"cx", "cy", "r", "rx", "ry", "width", "height",
}

// writeBack rewrites the element from its resolved entry: evaluated
// attribute text, final coordinates, a translate transform where internal
// coordinates cannot be rewritten, and the generated text label sibling.
func (r *run) writeBack(en *entry) {
	el := en.el
	prec := r.cfg.Precision

	for _, a := range el.Attrs {
		if v, ok := en.attrs[a.Name]; ok {
			el.SetAttr(a.Name, v)
		}
	}

	translated := en.shape == geometry.ShapeGroup ||
		en.shape == geometry.ShapePoly || en.shape == geometry.ShapePath

	for _, name := range numOrder {
		if translated && (name == "x" || name == "y") {
			continue // consumed by the transform, never a native attribute
		}
		if v, ok := en.nums[name]; ok {
			el.SetAttr(name, expr.FormatNumber(v, prec))
		}
	}

	if en.hasBox && !translated {
		if attrs, ok := geometry.PositionAttrs(en.shape, en.box); ok {
			for _, a := range attrs {
				el.SetAttr(a.Name, expr.FormatNumber(a.Val, prec))
			}
		}
	}

	if translated {
		el.RemoveAttr("x")
		el.RemoveAttr("y")
	}
	if en.useTransform {
		tr := fmt.Sprintf("translate(%s, %s)",
			expr.FormatNumber(en.dx, prec), expr.FormatNumber(en.dy, prec))
		if existing, ok := el.Attr("transform"); ok && existing != "" {
			tr += " " + existing
		}
		el.SetAttr("transform", tr)
	}

	label, hasLabel := en.attrs["text"]
	labelLoc := en.attrs["text-loc"]
	for _, name := range helperAttrs {
		el.RemoveAttr(name)
	}
	el.CanonicalizeAttrs()
	el.State = document.Positioned

	if hasLabel {
		r.attachLabel(en, label, labelLoc)
	}
}

// attachLabel realizes a text="..." attribute: on a text element it becomes
// the content, on any other shape a sibling <text> anchored at the shape's
// center (or the location named by text-loc).
func (r *run) attachLabel(en *entry, label, locName string) {
	if en.shape == geometry.ShapeText {
		en.el.Children = []*document.Element{document.NewText(label)}
		return
	}
	if !en.hasBox || en.parent == nil {
		return
	}

	loc := geometry.LocCenter
	if locName != "" {
		if parsed, err := geometry.ParseLoc(locName); err == nil {
			loc = parsed
		}
	}
	x, y := en.box.LocPoint(loc)

	t := document.NewElement("text")
	t.Line = en.el.Line
	t.SetAttr("x", expr.FormatNumber(x, r.cfg.Precision))
	t.SetAttr("y", expr.FormatNumber(y, r.cfg.Precision))
	t.Children = []*document.Element{document.NewText(label)}
	t.State = document.Positioned
	en.parent.InsertAfter(en.el, t)
}
