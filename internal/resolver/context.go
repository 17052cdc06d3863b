package resolver

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/relstack-labs/relsvg/internal/document"
	"github.com/relstack-labs/relsvg/pkg/geometry"
)

// Config bounds and seeds one document transformation.
type Config struct {
	// LoopLimit caps the total number of iterations produced by loop
	// expansion, checked at expansion time.
	LoopLimit int
	// VarLimit caps the materialized text length of any single variable.
	VarLimit int
	// DepthLimit caps reuse-of-reuse instantiation nesting.
	DepthLimit int
	// Seed seeds the per-document pseudo-random generator.
	Seed int64
	// Precision is the number of decimal places for emitted scalars.
	Precision int
	// Pad is the margin added around content when deriving a root viewBox.
	Pad float64
	// Logger receives debug output; nil discards.
	Logger *slog.Logger
}

// Defaults for the configuration surface.
const (
	DefaultLoopLimit  = 1000
	DefaultVarLimit   = 1024
	DefaultDepthLimit = 100
	DefaultPrecision  = 3
	DefaultPad        = 5
)

func (c *Config) applyDefaults() {
	if c.LoopLimit <= 0 {
		c.LoopLimit = DefaultLoopLimit
	}
	if c.VarLimit <= 0 {
		c.VarLimit = DefaultVarLimit
	}
	if c.DepthLimit <= 0 {
		c.DepthLimit = DefaultDepthLimit
	}
	if c.Precision <= 0 {
		c.Precision = DefaultPrecision
	}
	if c.Pad == 0 {
		c.Pad = DefaultPad
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// run is the per-document context: the element index, the scope stack, the
// seeded generator and the counters bounding expansion. One run never
// outlives its transformation and shares nothing with other runs.
type run struct {
	cfg Config
	log *slog.Logger

	rng   *rand.Rand
	draws map[string]float64

	globals *frame
	scope   *frame // current frame during the expansion walk

	index   map[string]*entry
	entries []*entry // resolution attempt order (document order)
	specs   map[string]*document.Element

	prevEntry *entry   // most recently created entry, for ^ references
	groups    []*entry // group entries open during the walk

	loopIters int
	depth     int
	serial    int
}

func newRun(cfg Config) *run {
	r := &run{
		cfg:   cfg,
		log:   cfg.Logger,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		draws: make(map[string]float64),
		index: make(map[string]*entry),
		specs: make(map[string]*document.Element),
	}
	r.globals = newFrame(nil)
	r.scope = r.globals
	return r
}

// Draw implements expr.DrawCache over the run-wide draw memo.
func (r *run) Draw(key string, gen func() float64) float64 {
	if v, ok := r.draws[key]; ok {
		return v
	}
	v := gen()
	r.draws[key] = v
	return v
}

// entry tracks one resolvable element through the state machine.
type entry struct {
	el      *document.Element
	parent  *document.Element
	shape   geometry.Shape
	serial  int
	prev    *entry // previous resolvable element in document order
	grouped bool   // true when the entry lives inside a group entry

	// attrs holds the variable-substituted text of each attribute; final
	// marks attributes whose blocks and expressions are fully evaluated.
	attrs map[string]string
	final map[string]bool

	// nums holds evaluated numeric attribute values.
	nums map[string]float64

	// rel holds attributes recognized as relative-position expressions,
	// deferred to the positioning stage.
	rel map[string]string

	state   document.State
	box     geometry.BBox
	hasBox  bool // false for passthrough elements emitted untouched
	width   float64
	height  float64
	blocked string // the reference that blocked the last attempt

	// translate-only transform positioning (poly, path, group)
	useTransform bool
	dx, dy       float64

	children []*entry // for group-like shapes
}

func (en *entry) id() string {
	if v, ok := en.attrs["id"]; ok {
		return v
	}
	return en.el.ID()
}

// Num implements geometry.AttrNums over the evaluated values.
func (en *entry) Num(name string) (float64, bool) {
	v, ok := en.nums[name]
	return v, ok
}

// Raw implements geometry.AttrNums for points/path data.
func (en *entry) Raw(name string) (string, bool) {
	v, ok := en.attrs[name]
	if !ok {
		v, ok = en.el.Attr(name)
	}
	return v, ok
}

func (en *entry) blockedOn(ref string) {
	en.blocked = ref
}

func (en *entry) fail(err error) error {
	en.state = document.Failed
	return &ElementError{Tag: en.el.Tag, ID: en.id(), Line: en.el.Line, Err: err}
}

// drawKey builds the cache key prefix for one logical attribute occurrence.
func (en *entry) drawKey(attr string) string {
	return fmt.Sprintf("%d/%s", en.serial, attr)
}
