package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Margin is a per-side expansion, as applied to aggregate (surround/inside)
// boxes.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// UniformMargin returns a margin with the same value on every side.
func UniformMargin(v float64) Margin {
	return Margin{Top: v, Right: v, Bottom: v, Left: v}
}

// ParseMargin parses a CSS-shorthand margin list:
//
//	1 value  → all four sides
//	2 values → (top/bottom, left/right)
//	3 values → (top, left/right, bottom)
//	4 values → (top, right, bottom, left) clockwise
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	vals := make([]float64, 0, 4)
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Margin{}, fmt.Errorf("invalid margin value %q", f)
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		return UniformMargin(vals[0]), nil
	case 2:
		return Margin{Top: vals[0], Bottom: vals[0], Left: vals[1], Right: vals[1]}, nil
	case 3:
		return Margin{Top: vals[0], Left: vals[1], Right: vals[1], Bottom: vals[2]}, nil
	case 4:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
	return Margin{}, fmt.Errorf("margin needs 1 to 4 values, got %d", len(vals))
}
