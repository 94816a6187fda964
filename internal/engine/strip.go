package engine

import "fmt"

// PackStrip lays rectangles out left to right in input order, top aligned.
// The sheet is as wide as the sum of widths and as tall as the tallest
// rectangle. Used for icon strips where order is meaningful.
func PackStrip(rects []Rect) (Result, error) {
	res := Result{Placements: make(map[uint64]FitRect, len(rects))}
	x := 0
	for _, r := range rects {
		if _, dup := res.Placements[r.ID]; dup {
			return Result{}, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		res.Placements[r.ID] = FitRect{X: x, Y: 0, Width: r.Width, Height: r.Height, ID: r.ID}
		x += r.Width
		res.Height = max(res.Height, r.Height)
	}
	res.Width = x
	return res, nil
}
