// Package resolver turns an expanded-SVG document tree into plain SVG: it
// expands generative elements, evaluates expressions, and resolves every
// element's geometry through repeated passes until the document is fully
// positioned or provably stuck.
package resolver

import (
	"context"
	"fmt"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
)

// Resolver resolves documents under one configuration. It is stateless
// across documents; each Resolve call builds its own run.
type Resolver struct {
	cfg Config
}

func New(cfg Config) *Resolver {
	cfg.applyDefaults()
	return &Resolver{cfg: cfg}
}

// ElementInfo describes one resolved element for reporting.
type ElementInfo struct {
	Tag    string
	ID     string
	Line   int
	State  document.State
	Box    geometry.BBox
	HasBox bool
}

// Result carries the resolved tree plus per-element reporting data.
type Result struct {
	Root     *document.Element
	Elements []ElementInfo
	Passes   int
}

// Resolve expands and resolves root in place. Resolution runs in document
// order passes; each pass must position at least one further element, so
// the pass count is bounded by the element count and a pass without
// progress is reported as a stall naming every blocked element.
func (rv *Resolver) Resolve(ctx context.Context, root *document.Element) (*Result, error) {
	r := newRun(rv.cfg)

	if root.Kind == document.KindElement {
		if err := r.expandPlainAttrs(root); err != nil {
			return nil, err
		}
	}
	if err := r.expand(root); err != nil {
		return nil, err
	}

	passes := 0
	for len(r.entries) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passes++

		pending := 0
		progressed := false
		for _, en := range r.entries {
			if en.state == document.Positioned || en.state == document.Failed {
				continue
			}
			before := en.state
			if err := r.attempt(en); err != nil {
				if !expr.IsRetryable(err) {
					return nil, err
				}
				pending++
			}
			if en.state != before {
				progressed = true
			}
		}
		r.log.Debug("resolution pass", "pass", passes, "pending", pending)

		if pending == 0 {
			break
		}
		// Progress here means a state advanced, not only full positioning:
		// becoming size-known can unblock a wh reference next pass.
		if !progressed {
			return nil, r.stall()
		}
	}

	r.applyViewBox(root)

	res := &Result{Root: root, Passes: passes, Elements: make([]ElementInfo, 0, len(r.entries))}
	for _, en := range r.entries {
		res.Elements = append(res.Elements, ElementInfo{
			Tag:    en.el.Tag,
			ID:     en.id(),
			Line:   en.el.Line,
			State:  en.state,
			Box:    en.box,
			HasBox: en.hasBox,
		})
	}
	return res, nil
}

// stall collects every still-unresolved element with the reference that
// blocked its last attempt.
func (r *run) stall() error {
	var blocked []BlockedElement
	for _, en := range r.entries {
		if en.state == document.Positioned || en.state == document.Failed {
			continue
		}
		blocked = append(blocked, BlockedElement{
			Tag:  en.el.Tag,
			ID:   en.id(),
			Line: en.el.Line,
			Ref:  en.blocked,
		})
	}
	return &StallError{Blocked: blocked}
}

// applyViewBox derives a viewBox for a root <svg> that carries neither
// explicit dimensions nor a viewBox of its own: the union of all top-level
// content, padded.
func (r *run) applyViewBox(root *document.Element) {
	if root.Tag != "svg" {
		return
	}
	if root.HasAttr("viewBox") || root.HasAttr("width") || root.HasAttr("height") {
		return
	}

	var (
		union geometry.BBox
		any   bool
	)
	for _, en := range r.entries {
		if en.grouped || !en.hasBox || en.state != document.Positioned {
			continue
		}
		if any {
			union = union.Union(en.box)
		} else {
			union, any = en.box, true
		}
	}
	if !any {
		return
	}

	union = union.Pad(geometry.UniformMargin(r.cfg.Pad))
	prec := r.cfg.Precision
	root.SetAttr("viewBox", fmt.Sprintf("%s %s %s %s",
		expr.FormatNumber(union.X, prec), expr.FormatNumber(union.Y, prec),
		expr.FormatNumber(union.W, prec), expr.FormatNumber(union.H, prec)))
}
