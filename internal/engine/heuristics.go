package engine

import (
	"fmt"
	"sort"
)

// Heuristic scores a rectangle. Pack places higher scores first.
type Heuristic func(Rect) int

func ByArea(r Rect) int      { return r.Width * r.Height }
func ByMaxSide(r Rect) int   { return max(r.Width, r.Height) }
func ByWidth(r Rect) int     { return r.Width }
func ByHeight(r Rect) int    { return r.Height }
func ByPerimeter(r Rect) int { return 2 * (r.Width + r.Height) }

var heuristics = map[string]Heuristic{
	"area":      ByArea,
	"maxside":   ByMaxSide,
	"width":     ByWidth,
	"height":    ByHeight,
	"perimeter": ByPerimeter,
}

// HeuristicByName looks up a heuristic. The empty name selects "area".
func HeuristicByName(name string) (Heuristic, error) {
	if name == "" {
		return ByArea, nil
	}
	h, ok := heuristics[name]
	if !ok {
		return nil, fmt.Errorf("unknown heuristic %q (valid: %v)", name, HeuristicNames())
	}
	return h, nil
}

// HeuristicNames returns the registered heuristic names in sorted order.
func HeuristicNames() []string {
	names := make([]string, 0, len(heuristics))
	for n := range heuristics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
