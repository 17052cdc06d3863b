package resolver

import (
	"fmt"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
	"github.com/relstack-labs/relsvg/pkg/relspec"
)

// refContext resolves element references for one element's evaluation: by
// id through the document index, or the previous element in document order.
// It implements both expr.ScalarResolver and relspec.BoxLookup.
//
// Lookups never fail hard on an unknown id: ids can be produced by
// expression evaluation, so an id missing from the index may simply not
// have resolved yet. The stall detector catches ids that never appear.
type refContext struct {
	run *run
	en  *entry
}

func (rc *refContext) target(ref relspec.ElemRef) (*entry, error) {
	if ref.Prev {
		if rc.en == nil || rc.en.prev == nil {
			return nil, &expr.ReferenceError{Ref: "^"}
		}
		return rc.en.prev, nil
	}
	t, ok := rc.run.index[ref.ID]
	if !ok {
		return nil, &expr.ReferenceError{Ref: "#" + ref.ID}
	}
	return t, nil
}

// BoxOf returns the positioned bounding box of the referenced element.
func (rc *refContext) BoxOf(ref relspec.ElemRef) (geometry.BBox, error) {
	t, err := rc.target(ref)
	if err != nil {
		return geometry.BBox{}, err
	}
	if t.state != document.Positioned {
		return geometry.BBox{}, &expr.ReferenceError{Ref: ref.String()}
	}
	return t.box, nil
}

// SizeOf returns the referenced element's size, available from the
// size-known state onward. Used for wh="#id" size adoption.
func (rc *refContext) SizeOf(ref relspec.ElemRef) (w, h float64, err error) {
	t, err := rc.target(ref)
	if err != nil {
		return 0, 0, err
	}
	if t.state == document.SizeKnown || t.state == document.Positioned {
		return t.width, t.height, nil
	}
	return 0, 0, &expr.ReferenceError{Ref: ref.String() + "~wh"}
}

// ElementScalar resolves #id~scalar. Size scalars (w, h, width, height)
// only need the target to be size-known; everything else needs a position.
func (rc *refContext) ElementScalar(id, scalar string) (float64, error) {
	t, err := rc.target(relspec.ElemRef{ID: id})
	if err != nil {
		return 0, err
	}
	switch scalar {
	case "w", "width":
		if t.state == document.SizeKnown || t.state == document.Positioned {
			return t.width, nil
		}
	case "h", "height":
		if t.state == document.SizeKnown || t.state == document.Positioned {
			return t.height, nil
		}
	default:
		if t.state == document.Positioned {
			if v, ok := t.box.Scalar(scalar); ok {
				return v, nil
			}
			return 0, fmt.Errorf("unknown scalar %q on #%s", scalar, id)
		}
	}
	return 0, &expr.ReferenceError{Ref: fmt.Sprintf("#%s~%s", id, scalar)}
}
