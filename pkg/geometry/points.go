package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// PolyBounds computes the bounding box of a polyline/polygon points list.
// Coordinates may be separated by whitespace, commas, or both.
func PolyBounds(points string) (BBox, error) {
	nums, err := scanNumbers(points)
	if err != nil {
		return BBox{}, err
	}
	if len(nums) < 2 || len(nums)%2 != 0 {
		return BBox{}, fmt.Errorf("points list needs an even number of coordinates, got %d", len(nums))
	}
	b := BBox{X: nums[0], Y: nums[1]}
	for i := 2; i < len(nums); i += 2 {
		b = b.Union(BBox{X: nums[i], Y: nums[i+1]})
	}
	return b, nil
}

// PathBounds computes the bounding box of the endpoints visited by a path's
// command list. Control points of curves and the geometry of arcs are
// ignored; only the points the pen lands on count.
func PathBounds(d string) (BBox, error) {
	p := pathScanner{src: d}
	var (
		have           bool
		box            BBox
		cx, cy         float64 // current point
		startX, startY float64
	)
	visit := func(x, y float64) {
		pt := BBox{X: x, Y: y}
		if !have {
			box, have = pt, true
		} else {
			box = box.Union(pt)
		}
		cx, cy = x, y
	}

	for {
		cmd, ok := p.command()
		if !ok {
			break
		}
		rel := cmd >= 'a' && cmd <= 'z'
		switch cmd {
		case 'M', 'm', 'L', 'l', 'T', 't':
			for p.hasNumber() {
				x, y, err := p.pair()
				if err != nil {
					return BBox{}, err
				}
				if rel {
					x, y = cx+x, cy+y
				}
				visit(x, y)
				if cmd == 'M' || cmd == 'm' {
					startX, startY = x, y
					// Subsequent pairs of a moveto are implicit linetos.
					cmd, rel = 'L', cmd == 'm'
				}
			}
		case 'H', 'h':
			for p.hasNumber() {
				x, err := p.number()
				if err != nil {
					return BBox{}, err
				}
				if rel {
					x = cx + x
				}
				visit(x, cy)
			}
		case 'V', 'v':
			for p.hasNumber() {
				y, err := p.number()
				if err != nil {
					return BBox{}, err
				}
				if rel {
					y = cy + y
				}
				visit(cx, y)
			}
		case 'C', 'c':
			if err := p.endpointOfGroups(3, rel, &cx, &cy, visit); err != nil {
				return BBox{}, err
			}
		case 'S', 's', 'Q', 'q':
			if err := p.endpointOfGroups(2, rel, &cx, &cy, visit); err != nil {
				return BBox{}, err
			}
		case 'A', 'a':
			for p.hasNumber() {
				// rx ry rotation large-arc sweep x y: only the endpoint matters.
				for i := 0; i < 5; i++ {
					if _, err := p.number(); err != nil {
						return BBox{}, err
					}
				}
				x, y, err := p.pair()
				if err != nil {
					return BBox{}, err
				}
				if rel {
					x, y = cx+x, cy+y
				}
				visit(x, y)
			}
		case 'Z', 'z':
			cx, cy = startX, startY
		default:
			return BBox{}, fmt.Errorf("unknown path command %q", string(cmd))
		}
	}
	if !have {
		return BBox{}, fmt.Errorf("empty path")
	}
	return box, nil
}

// endpointOfGroups consumes groups of n coordinate pairs and visits only the
// last pair of each group (the on-curve endpoint).
func (p *pathScanner) endpointOfGroups(n int, rel bool, cx, cy *float64, visit func(x, y float64)) error {
	for p.hasNumber() {
		var x, y float64
		for i := 0; i < n; i++ {
			var err error
			x, y, err = p.pair()
			if err != nil {
				return err
			}
		}
		if rel {
			x, y = *cx+x, *cy+y
		}
		visit(x, y)
	}
	return nil
}

// pathScanner walks a path data string one command or number at a time.
type pathScanner struct {
	src string
	pos int
}

func (p *pathScanner) skip() {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',' {
			p.pos++
			continue
		}
		break
	}
}

func (p *pathScanner) command() (byte, bool) {
	p.skip()
	if p.pos >= len(p.src) {
		return 0, false
	}
	ch := p.src[p.pos]
	if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
		p.pos++
		return ch, true
	}
	return 0, false
}

func (p *pathScanner) hasNumber() bool {
	p.skip()
	if p.pos >= len(p.src) {
		return false
	}
	ch := p.src[p.pos]
	return ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9')
}

func (p *pathScanner) number() (float64, error) {
	p.skip()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	seenDot := false
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch >= '0' && ch <= '9' {
			p.pos++
		} else if ch == '.' && !seenDot {
			seenDot = true
			p.pos++
		} else if (ch == 'e' || ch == 'E') && p.pos > start {
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
				p.pos++
			}
		} else {
			break
		}
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number at offset %d in path data", start)
	}
	return strconv.ParseFloat(p.src[start:p.pos], 64)
}

func (p *pathScanner) pair() (float64, float64, error) {
	x, err := p.number()
	if err != nil {
		return 0, 0, err
	}
	y, err := p.number()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// scanNumbers splits a whitespace/comma separated list of numbers.
func scanNumbers(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}
