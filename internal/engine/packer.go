package engine

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrPacking is returned when a rectangle cannot be placed under any
	// growth direction. It signals that the input was not sorted so that the
	// first rectangle is the largest.
	ErrPacking = errors.New("packing failed")

	// ErrDuplicateID is returned when two rectangles share an ID in one Pack call.
	ErrDuplicateID = errors.New("duplicate rectangle id")
)

// Rect is a rectangle to be packed. ID correlates the placement back to
// the caller's data and must be unique per Pack call.
type Rect struct {
	Width  int
	Height int
	ID     uint64
}

// FitRect is the placement of a packed rectangle on the sheet.
type FitRect struct {
	X      int
	Y      int
	Width  int
	Height int
	ID     uint64
}

// Result holds the final sheet size and the placement of every rectangle.
type Result struct {
	Width      int
	Height     int
	Placements map[uint64]FitRect
}

// Sorted returns the placements ordered by ID.
func (r Result) Sorted() []FitRect {
	out := make([]FitRect, 0, len(r.Placements))
	for _, p := range r.Placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Efficiency returns the used area as a percentage of the sheet area.
func (r Result) Efficiency() float64 {
	total := r.Width * r.Height
	if total == 0 {
		return 0
	}
	used := 0
	for _, p := range r.Placements {
		used += p.Width * p.Height
	}
	return float64(used) / float64(total) * 100.0
}

// noChild marks a missing child index in the node arena.
const noChild = -1

// node is one region of the packing tree. Children are indices into the
// packer's arena.
type node struct {
	x, y          int
	width, height int
	occupied      bool
	down, right   int
}

// growingPacker places rectangles into a binary tree that starts at the size
// of the first rectangle and grows right or down, keeping the sheet close to
// square. Nodes live in a flat arena and the root is tracked by index.
type growingPacker struct {
	nodes []node
	root  int
}

func newGrowingPacker(w, h int) *growingPacker {
	p := &growingPacker{}
	p.root = p.newNode(0, 0, w, h)
	return p
}

func (p *growingPacker) newNode(x, y, w, h int) int {
	p.nodes = append(p.nodes, node{x: x, y: y, width: w, height: h, down: noChild, right: noChild})
	return len(p.nodes) - 1
}

// fit places a w x h rectangle and returns the index of the node holding it.
func (p *growingPacker) fit(w, h int) (int, error) {
	if n := p.findNode(p.root, w, h); n != noChild {
		return p.splitNode(n, w, h), nil
	}
	return p.grow(w, h)
}

// findNode searches depth-first, right child before down child, for a free
// node that can hold w x h.
func (p *growingPacker) findNode(idx, w, h int) int {
	if idx == noChild {
		return noChild
	}
	n := p.nodes[idx]
	if n.occupied {
		if r := p.findNode(n.right, w, h); r != noChild {
			return r
		}
		return p.findNode(n.down, w, h)
	}
	if w <= n.width && h <= n.height {
		return idx
	}
	return noChild
}

// splitNode occupies the node and slices off a strip below and a strip to
// the right of the placed rectangle.
func (p *growingPacker) splitNode(idx, w, h int) int {
	n := p.nodes[idx]
	down := p.newNode(n.x, n.y+h, n.width, n.height-h)
	right := p.newNode(n.x+w, n.y, n.width-w, h)

	// newNode may have reallocated the arena, so index again.
	p.nodes[idx].occupied = true
	p.nodes[idx].down = down
	p.nodes[idx].right = right
	return idx
}

func (p *growingPacker) grow(w, h int) (int, error) {
	rootW, rootH := p.nodes[p.root].width, p.nodes[p.root].height

	canDown := w <= rootW
	canRight := h <= rootH

	shouldRight := canRight && rootH > rootW+w
	shouldDown := canDown && rootW > rootH+h

	switch {
	case shouldRight:
		return p.growRight(w, h)
	case shouldDown:
		return p.growDown(w, h)
	case canRight:
		return p.growRight(w, h)
	case canDown:
		return p.growDown(w, h)
	}
	return noChild, fmt.Errorf("%w: %dx%d does not fit a %dx%d sheet in any growth direction",
		ErrPacking, w, h, rootW, rootH)
}

func (p *growingPacker) growRight(w, h int) (int, error) {
	old := p.nodes[p.root]
	fresh := p.newNode(old.width, 0, w, old.height)
	root := p.newNode(0, 0, old.width+w, old.height)
	p.nodes[root].occupied = true
	p.nodes[root].down = p.root
	p.nodes[root].right = fresh
	p.root = root
	return p.placeAfterGrow(w, h)
}

func (p *growingPacker) growDown(w, h int) (int, error) {
	old := p.nodes[p.root]
	fresh := p.newNode(0, old.height, old.width, h)
	root := p.newNode(0, 0, old.width, old.height+h)
	p.nodes[root].occupied = true
	p.nodes[root].right = p.root
	p.nodes[root].down = fresh
	p.root = root
	return p.placeAfterGrow(w, h)
}

func (p *growingPacker) placeAfterGrow(w, h int) (int, error) {
	n := p.findNode(p.root, w, h)
	if n == noChild {
		return noChild, fmt.Errorf("%w: grown sheet cannot hold %dx%d", ErrPacking, w, h)
	}
	return p.splitNode(n, w, h), nil
}

// Pack places every rectangle on a sheet that grows as needed.
//
// Rectangles are stable-sorted descending by h (ByArea when h is nil), so
// ties keep their input order and the layout is reproducible. The sheet
// starts at the size of the first sorted rectangle. An empty input yields
// an empty 0x0 result.
func Pack(rects []Rect, h Heuristic) (Result, error) {
	if h == nil {
		h = ByArea
	}

	seen := make(map[uint64]struct{}, len(rects))
	for _, r := range rects {
		if _, dup := seen[r.ID]; dup {
			return Result{}, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	sorted := make([]Rect, len(rects))
	copy(sorted, rects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return h(sorted[i]) > h(sorted[j])
	})

	res := Result{Placements: make(map[uint64]FitRect, len(sorted))}
	if len(sorted) == 0 {
		return res, nil
	}

	p := newGrowingPacker(sorted[0].Width, sorted[0].Height)
	for _, r := range sorted {
		idx, err := p.fit(r.Width, r.Height)
		if err != nil {
			return Result{}, fmt.Errorf("placing rectangle %d: %w", r.ID, err)
		}
		n := p.nodes[idx]
		res.Placements[r.ID] = FitRect{X: n.x, Y: n.y, Width: r.Width, Height: r.Height, ID: r.ID}
	}

	root := p.nodes[p.root]
	res.Width, res.Height = root.width, root.height
	return res, nil
}
