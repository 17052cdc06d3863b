package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/expr"
	"github.com/relstack-labs/relsvg/pkg/geometry"
)

// The expansion walk rewrites the tree in document order: var assignments
// update the scope stack, loop/if/reuse elements are replaced by what they
// produce, and every graphics element gets an entry in the resolution index.
// Variable substitution happens here, while the defining frames are still
// on the stack; expression blocks that need element geometry are deferred
// to the resolution passes.

func (r *run) expand(root *document.Element) error {
	return r.processChildren(root)
}

func (r *run) processChildren(parent *document.Element) error {
	out := make([]*document.Element, 0, len(parent.Children))
	for _, child := range parent.Children {
		produced, err := r.processNode(parent, child)
		if err != nil {
			return err
		}
		out = append(out, produced...)
	}
	parent.Children = out
	return nil
}

func (r *run) processNode(parent, el *document.Element) ([]*document.Element, error) {
	switch el.Kind {
	case document.KindComment:
		return []*document.Element{el}, nil
	case document.KindText:
		if err := r.expandTextNode(el); err != nil {
			return nil, err
		}
		return []*document.Element{el}, nil
	}

	switch el.Tag {
	case "var":
		return nil, r.applyVar(el)
	case "specs":
		return nil, r.registerSpecs(el)
	case "spec":
		return nil, r.registerSpec(el)
	case "loop":
		return r.expandLoop(parent, el)
	case "if":
		return r.expandIf(parent, el)
	case "reuse":
		return r.expandReuse(parent, el)
	}

	shape := geometry.ShapeOf(el.Tag)
	switch {
	case shape == geometry.ShapeGroup:
		if err := r.processGroup(parent, el); err != nil {
			return nil, err
		}
	case shape != geometry.ShapeOther:
		if _, err := r.addEntry(parent, el, shape); err != nil {
			return nil, err
		}
		if err := r.processChildren(el); err != nil {
			return nil, err
		}
	default:
		// Non-graphics element (defs, style, gradients, ...): substitute
		// and render its attributes now, then recurse for nested content.
		if err := r.expandPlainAttrs(el); err != nil {
			return nil, err
		}
		if err := r.processChildren(el); err != nil {
			return nil, err
		}
	}
	return []*document.Element{el}, nil
}

// processGroup registers the group entry, pushes a frame exposing the
// group's attributes as locals for its subtree, and collects the child
// entries the group's box will be derived from.
func (r *run) processGroup(parent, el *document.Element) error {
	en, err := r.addEntry(parent, el, geometry.ShapeGroup)
	if err != nil {
		return err
	}

	fr := newFrame(r.scope)
	for _, a := range el.Attrs {
		fr.define(a.Name, a.Value)
	}
	r.scope = fr
	r.groups = append(r.groups, en)

	err = r.processChildren(el)

	r.groups = r.groups[:len(r.groups)-1]
	r.scope = fr.parent
	return err
}

// addEntry creates the resolution entry for one graphics element: attributes
// are substituted against the current scope and the element is registered
// under its (fully rendered) id.
func (r *run) addEntry(parent, el *document.Element, shape geometry.Shape) (*entry, error) {
	en := &entry{
		el:     el,
		parent: parent,
		shape:  shape,
		serial: r.serial,
		prev:   r.prevEntry,
		attrs:  make(map[string]string, len(el.Attrs)),
		final:  make(map[string]bool),
		nums:   make(map[string]float64),
		rel:    make(map[string]string),
	}
	r.serial++

	if err := r.substituteAttrs(en); err != nil {
		return nil, err
	}
	if err := r.registerID(en); err != nil {
		return nil, err
	}

	r.entries = append(r.entries, en)
	r.prevEntry = en
	if n := len(r.groups); n > 0 {
		g := r.groups[n-1]
		g.children = append(g.children, en)
		en.grouped = true
	}
	return en, nil
}

// substituteAttrs resolves variable references in every attribute while the
// defining frames are still live. The element's own other attributes act as
// locals during each lookup.
func (r *run) substituteAttrs(en *entry) error {
	for _, a := range en.el.Attrs {
		vars := &elementScope{el: en.el, exclude: a.Name, frame: r.scope}
		sub, err := expr.Substitute(a.Value, vars, r.cfg.VarLimit)
		if err != nil {
			return r.limitOrFail(en, err)
		}
		en.attrs[a.Name] = sub
	}
	return nil
}

// registerID renders the id attribute (it may carry expression blocks) and
// indexes the entry under it. Ids must be knowable at expansion time.
func (r *run) registerID(en *entry) error {
	id, ok := en.attrs["id"]
	if !ok {
		return nil
	}
	if expr.HasBlock(id) {
		env := r.env(en, "id", nil)
		rendered, err := expr.EvalBlocks(id, env)
		if err != nil {
			if expr.IsRetryable(err) {
				err = fmt.Errorf("id must not depend on unresolved geometry: %w", err)
			}
			return en.fail(err)
		}
		id = rendered
		en.attrs["id"] = id
		en.el.SetAttr("id", id)
	}
	en.final["id"] = true
	if other, dup := r.index[id]; dup {
		return en.fail(fmt.Errorf("duplicate id %q (first used at line %d)", id, other.el.Line))
	}
	r.index[id] = en
	r.log.Debug("indexed element", "id", id, "tag", en.el.Tag, "line", en.el.Line)
	return nil
}

// env builds a fresh evaluation environment for one attribute of one entry.
// The environment is rebuilt per evaluation so the random draw ordinal
// restarts, which is what makes retried attempts replay earlier draws.
func (r *run) env(en *entry, attr string, vars expr.VarLookup) *expr.Env {
	return &expr.Env{
		Vars:      vars,
		Refs:      &refContext{run: r, en: en},
		Rand:      r.rng,
		Draws:     r,
		DrawKey:   en.drawKey(attr),
		VarLimit:  r.cfg.VarLimit,
		Precision: r.cfg.Precision,
	}
}

// scopeEnv builds an environment for evaluation outside any entry, during
// the expansion walk. key distinguishes random draw occurrences.
func (r *run) scopeEnv(key string) *expr.Env {
	return &expr.Env{
		Vars:      &frameScope{frame: r.scope},
		Refs:      &refContext{run: r},
		Rand:      r.rng,
		Draws:     r,
		DrawKey:   key,
		VarLimit:  r.cfg.VarLimit,
		Precision: r.cfg.Precision,
	}
}

// applyVar evaluates every attribute of a <var> element against the
// pre-update scope, then commits all assignments at once. Swapping two
// variables in a single element therefore works.
func (r *run) applyVar(el *document.Element) error {
	type assignment struct {
		name, value string
	}
	updates := make([]assignment, 0, len(el.Attrs))

	for _, a := range el.Attrs {
		env := r.scopeEnv(fmt.Sprintf("var%d/%s", r.serial, a.Name))
		val, err := expr.EvalBlocks(a.Value, env)
		if err != nil {
			if lerr := r.asLimit(err); lerr != nil {
				return lerr
			}
			return &ElementError{Tag: "var", Line: el.Line, Err: err}
		}
		if len(val) > r.cfg.VarLimit {
			return &LimitError{Limit: "var-limit", Max: r.cfg.VarLimit}
		}
		updates = append(updates, assignment{a.Name, val})
	}
	r.serial++

	for _, u := range updates {
		r.scope.set(u.name, u.value)
		r.log.Debug("assigned variable", "name", u.name, "value", u.value)
	}
	return nil
}

// registerSpecs indexes every template under a <specs> container. The
// container and its content are dropped from the output.
func (r *run) registerSpecs(el *document.Element) error {
	for _, child := range el.Children {
		if child.Kind != document.KindElement {
			continue
		}
		if err := r.registerSpec(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) registerSpec(el *document.Element) error {
	id := el.ID()
	if id == "" {
		return &ElementError{Tag: el.Tag, Line: el.Line, Err: errors.New("template requires an id")}
	}
	if _, dup := r.specs[id]; dup {
		return &ElementError{Tag: el.Tag, ID: id, Line: el.Line, Err: errors.New("duplicate template id")}
	}
	r.specs[id] = el
	return nil
}

// expandLoop replays the loop body count times, each iteration in its own
// frame binding the loop variable. Total iterations across the document are
// bounded by the loop limit.
func (r *run) expandLoop(parent, el *document.Element) ([]*document.Element, error) {
	countText, ok := el.Attr("count")
	if !ok {
		return nil, &ElementError{Tag: "loop", ID: el.ID(), Line: el.Line, Err: errors.New("missing count attribute")}
	}
	count, err := r.evalWalkNumber(el, "count", countText)
	if err != nil {
		return nil, err
	}

	loopVar, _ := el.Attr("loop-var")
	start, step := 0.0, 1.0
	if v, ok := el.Attr("start"); ok {
		if start, err = r.evalWalkNumber(el, "start", v); err != nil {
			return nil, err
		}
	}
	if v, ok := el.Attr("step"); ok {
		if step, err = r.evalWalkNumber(el, "step", v); err != nil {
			return nil, err
		}
	}

	var out []*document.Element
	for k := 0; k < int(count); k++ {
		r.loopIters++
		if r.loopIters > r.cfg.LoopLimit {
			return nil, &LimitError{Limit: "loop-limit", Max: r.cfg.LoopLimit}
		}

		fr := newFrame(r.scope)
		if loopVar != "" {
			fr.define(loopVar, expr.FormatNumber(start+float64(k)*step, r.cfg.Precision))
		}
		r.scope = fr

		for _, child := range el.Children {
			produced, err := r.processNode(parent, child.Clone())
			if err != nil {
				r.scope = fr.parent
				return nil, err
			}
			out = append(out, produced...)
		}
		r.scope = fr.parent
	}
	return out, nil
}

// expandIf keeps the element's children when its test is truthy and drops
// them otherwise. No frame is pushed: if bodies share the enclosing scope.
func (r *run) expandIf(parent, el *document.Element) ([]*document.Element, error) {
	test, ok := el.Attr("test")
	if !ok {
		return nil, &ElementError{Tag: "if", Line: el.Line, Err: errors.New("missing test attribute")}
	}
	v, err := r.evalWalkValue(el, "test", test)
	if err != nil {
		return nil, err
	}
	if !truthyValue(v) {
		return nil, nil
	}

	var out []*document.Element
	for _, child := range el.Children {
		produced, err := r.processNode(parent, child)
		if err != nil {
			return nil, err
		}
		out = append(out, produced...)
	}
	return out, nil
}

// reuseWrapperAttrs are the reuse attributes that carry over onto the
// instantiated group; everything else is a parameter binding only.
var reuseWrapperAttrs = map[string]bool{
	"id": true, "class": true, "style": true, "transform": true,
	"x": true, "y": true, "xy": true, "xy-loc": true,
}

// expandReuse instantiates a registered template as a group wrapper. The
// reuse element's attributes are both wrapper attributes and parameter
// bindings for the template body; template attributes supply defaults.
func (r *run) expandReuse(parent, el *document.Element) ([]*document.Element, error) {
	href, ok := el.Attr("href")
	if !ok {
		return nil, &ElementError{Tag: "reuse", ID: el.ID(), Line: el.Line, Err: errors.New("missing href attribute")}
	}
	tid := strings.TrimPrefix(strings.TrimSpace(href), "#")
	tmpl, ok := r.specs[tid]
	if !ok {
		return nil, &ElementError{Tag: "reuse", ID: el.ID(), Line: el.Line, Err: fmt.Errorf("unknown template %q", href)}
	}

	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.cfg.DepthLimit {
		return nil, &LimitError{Limit: "depth-limit", Max: r.cfg.DepthLimit}
	}

	inst := document.NewElement("g")
	inst.Line = el.Line
	for _, a := range el.Attrs {
		if reuseWrapperAttrs[a.Name] {
			inst.SetAttr(a.Name, a.Value)
		}
	}
	for _, child := range tmpl.Children {
		inst.Children = append(inst.Children, child.Clone())
	}

	fr := newFrame(r.scope)
	for _, a := range tmpl.Attrs {
		if a.Name != "id" {
			fr.define(a.Name, a.Value)
		}
	}
	for _, a := range el.Attrs {
		if a.Name != "href" && a.Name != "id" {
			fr.define(a.Name, a.Value)
		}
	}
	r.scope = fr
	err := r.processGroup(parent, inst)
	r.scope = fr.parent
	if err != nil {
		return nil, err
	}
	return []*document.Element{inst}, nil
}

// expandTextNode renders variables and expression blocks inside character
// data. Text content is rendered at expansion time, so it may use variables
// and already-positioned geometry but not forward references.
func (r *run) expandTextNode(el *document.Element) error {
	if !strings.ContainsRune(el.Text, '$') && !expr.HasBlock(el.Text) {
		return nil
	}
	env := r.scopeEnv(fmt.Sprintf("text%d", r.serial))
	r.serial++
	rendered, err := expr.EvalBlocks(el.Text, env)
	if err != nil {
		if lerr := r.asLimit(err); lerr != nil {
			return lerr
		}
		return &ElementError{Tag: "text", Line: el.Line, Err: err}
	}
	el.Text = rendered
	return nil
}

// expandPlainAttrs substitutes and renders the attributes of a non-graphics
// element in place.
func (r *run) expandPlainAttrs(el *document.Element) error {
	for _, a := range el.Attrs {
		vars := &elementScope{el: el, exclude: a.Name, frame: r.scope}
		sub, err := expr.Substitute(a.Value, vars, r.cfg.VarLimit)
		if err != nil {
			if lerr := r.asLimit(err); lerr != nil {
				return lerr
			}
			return &ElementError{Tag: el.Tag, ID: el.ID(), Line: el.Line, Err: err}
		}
		if expr.HasBlock(sub) {
			env := r.scopeEnv(fmt.Sprintf("plain%d/%s", r.serial, a.Name))
			if sub, err = expr.EvalBlocks(sub, env); err != nil {
				return &ElementError{Tag: el.Tag, ID: el.ID(), Line: el.Line, Err: err}
			}
		}
		el.SetAttr(a.Name, sub)
	}
	r.serial++
	return nil
}

// evalWalkValue evaluates one control attribute (loop count, if test)
// against the current scope. Control attributes cannot be deferred, so a
// retryable reference error is promoted to a hard failure.
func (r *run) evalWalkValue(el *document.Element, name, raw string) (expr.Value, error) {
	// The serial keeps draws apart across loop iterations: every clone of a
	// control attribute is its own logical occurrence.
	env := r.scopeEnv(fmt.Sprintf("%s%d#%d/%s", el.Tag, el.Line, r.serial, name))
	r.serial++
	src := raw
	if expr.HasBlock(src) {
		rendered, err := expr.EvalBlocks(src, env)
		if err != nil {
			return nil, &ElementError{Tag: el.Tag, Line: el.Line, Err: err}
		}
		src = rendered
	}
	v, err := expr.Eval(src, env)
	if err != nil {
		if lerr := r.asLimit(err); lerr != nil {
			return nil, lerr
		}
		return nil, &ElementError{Tag: el.Tag, Line: el.Line, Err: err}
	}
	return v, nil
}

func (r *run) evalWalkNumber(el *document.Element, name, raw string) (float64, error) {
	v, err := r.evalWalkValue(el, name, raw)
	if err != nil {
		return 0, err
	}
	n, ok := expr.AsNumber(v)
	if !ok {
		return 0, &ElementError{Tag: el.Tag, Line: el.Line, Err: fmt.Errorf("%s must be numeric, got %q", name, expr.Format(v, r.cfg.Precision))}
	}
	return n, nil
}

// asLimit maps an expression-level variable ceiling onto the document-wide
// limit error so the whole transformation aborts.
func (r *run) asLimit(err error) error {
	var vle *expr.VarLimitError
	if errors.As(err, &vle) {
		return &LimitError{Limit: "var-limit", Max: r.cfg.VarLimit}
	}
	return nil
}

// limitOrFail converts a substitution error on an entry's attribute into
// either a document limit error or a per-element failure.
func (r *run) limitOrFail(en *entry, err error) error {
	if lerr := r.asLimit(err); lerr != nil {
		return lerr
	}
	return en.fail(err)
}

func truthyValue(v expr.Value) bool {
	switch t := v.(type) {
	case expr.Number:
		return t != 0
	case expr.Str:
		if n, ok := expr.AsNumber(t); ok {
			return n != 0
		}
		return t != ""
	case expr.List:
		return len(t) > 0
	}
	return false
}
