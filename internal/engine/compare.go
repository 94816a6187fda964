package engine

import (
	"fmt"
	"sort"
)

// ComparisonResult holds the packing result and computed statistics for a
// single heuristic.
type ComparisonResult struct {
	Heuristic  string
	Result     Result
	SheetArea  int
	Efficiency float64
	Err        error
}

// CompareHeuristics packs rects once per named heuristic and returns the
// results in the order the names were given. A failing heuristic is
// reported through Err rather than aborting the comparison; an unknown
// name is an error.
func CompareHeuristics(rects []Rect, names []string) ([]ComparisonResult, error) {
	if len(names) == 0 {
		names = HeuristicNames()
	}

	results := make([]ComparisonResult, 0, len(names))
	for _, name := range names {
		h, err := HeuristicByName(name)
		if err != nil {
			return nil, err
		}

		res, err := Pack(rects, h)
		cr := ComparisonResult{Heuristic: name, Result: res, Err: err}
		if err == nil {
			cr.SheetArea = res.Width * res.Height
			cr.Efficiency = res.Efficiency()
		}
		results = append(results, cr)
	}
	return results, nil
}

// BestHeuristic returns the successful comparison with the smallest sheet
// area. Ties go to the earlier entry.
func BestHeuristic(results []ComparisonResult) (ComparisonResult, error) {
	ok := make([]ComparisonResult, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return ComparisonResult{}, fmt.Errorf("%w: no heuristic produced a layout", ErrPacking)
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].SheetArea < ok[j].SheetArea })
	return ok[0], nil
}
