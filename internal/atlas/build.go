package atlas

import (
	"bytes"
	"fmt"
	"image"
	"runtime"

	"github.com/piwi3910/AtlasPack/internal/engine"
	"github.com/piwi3910/AtlasPack/internal/export"
	"github.com/piwi3910/AtlasPack/internal/imaging"
	"github.com/piwi3910/AtlasPack/internal/model"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Layout is a packed, composited atlas before encoding.
type Layout struct {
	Image       *image.NRGBA
	Atlas       model.TextureAtlas
	Pack        engine.Result
	Unique      int
	Occurrences int
	Estimate    model.SheetEstimate
}

// Layout packs every unique frame, composites the sheet and builds the
// sorted description.
func (b *Builder) Layout() (*Layout, error) {
	if len(b.occurrences) == 0 {
		return nil, fmt.Errorf("%w: no frames added to %s", export.ErrNoEntries, b.name)
	}
	h, err := engine.HeuristicByName(b.settings.Heuristic)
	if err != nil {
		return nil, err
	}

	res, err := engine.Pack(b.cache.Rects(), h)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", b.name, err)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, res.Width, res.Height))
	if err := b.composite(canvas, res); err != nil {
		return nil, err
	}

	l := &Layout{
		Image:       canvas,
		Atlas:       b.description(res),
		Pack:        res,
		Unique:      b.cache.Len(),
		Occurrences: len(b.occurrences),
		Estimate:    b.estimate(res),
	}
	Logger().Info("sheet built",
		"name", b.name,
		"width", res.Width,
		"height", res.Height,
		"unique", l.Unique,
		"occurrences", l.Occurrences,
		"efficiency", fmt.Sprintf("%.1f%%", res.Efficiency()))
	return l, nil
}

func (b *Builder) estimate(res engine.Result) model.SheetEstimate {
	rects := b.cache.Rects()
	sizes := make([][2]int, len(rects))
	for i, r := range rects {
		sizes[i] = [2]int{r.Width, r.Height}
	}
	return model.CalculateSheetEstimate(sizes, res.Width, res.Height)
}

// CompareHeuristics packs the current unique frames once per named
// heuristic without compositing. nil names compares every heuristic.
func (b *Builder) CompareHeuristics(names []string) ([]engine.ComparisonResult, error) {
	if b.cache.Len() == 0 {
		return nil, fmt.Errorf("%w: no frames added to %s", export.ErrNoEntries, b.name)
	}
	return engine.CompareHeuristics(b.cache.Rects(), names)
}

// composite draws every cached image at its placement. Placements never
// overlap, so workers write disjoint pixels of the canvas.
func (b *Builder) composite(canvas *image.NRGBA, res engine.Result) error {
	workers := b.settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	hashes := b.cache.Hashes()
	for _, h := range hashes {
		if _, ok := res.Placements[uint64(h)]; !ok {
			return fmt.Errorf("frame %s missing from packing result", h)
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, h := range hashes {
		img, _ := b.cache.Get(h)
		fit := res.Placements[uint64(h)]
		g.Go(func() error {
			r := image.Rect(fit.X, fit.Y, fit.X+fit.Width, fit.Y+fit.Height)
			draw.Draw(canvas, r, img, image.Point{}, draw.Src)
			return nil
		})
	}
	return g.Wait()
}

// Build packs the frames and returns the PNG sheet and its description in
// the configured format.
func (b *Builder) Build() (png []byte, desc []byte, err error) {
	l, err := b.Layout()
	if err != nil {
		return nil, nil, err
	}
	png, err = imaging.EncodePNG(l.Image)
	if err != nil {
		return nil, nil, err
	}
	desc, _, err = b.writeDescription(l.Atlas)
	if err != nil {
		return nil, nil, err
	}
	return png, desc, nil
}

// BuildArchive returns a zip holding exactly <name>.png and <name>.xml
// (or <name>.json).
func (b *Builder) BuildArchive() ([]byte, error) {
	l, err := b.Layout()
	if err != nil {
		return nil, err
	}
	return b.Archive(l)
}

// Archive encodes an existing layout into the sheet archive.
func (b *Builder) Archive(l *Layout) ([]byte, error) {
	png, err := imaging.EncodePNG(l.Image)
	if err != nil {
		return nil, err
	}
	desc, ext, err := b.writeDescription(l.Atlas)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	members := []export.ArchiveMember{
		{Name: b.name + ".png", Data: png},
		{Name: b.name + "." + ext, Data: desc},
	}
	if err := export.WriteArchive(&buf, members, string(b.settings.Compression)); err != nil {
		return nil, err
	}
	Logger().Info("archive written", "name", b.name, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// ExportUniqueFrames returns a zip of the trimmed frames. Without
// perOccurrence there is one image_frame-<hash>.png per distinct image; with
// it there is one <label><suffix>.png per logical frame, named as in the
// description.
func (b *Builder) ExportUniqueFrames(perOccurrence bool) ([]byte, error) {
	var members []export.ArchiveMember
	if perOccurrence {
		encoded := make(map[uint64][]byte)
		counter := export.Counter{}
		for _, o := range b.sortedOccurrences() {
			data, ok := encoded[uint64(o.hash)]
			if !ok {
				img, _ := b.cache.Get(o.hash)
				var err error
				if data, err = imaging.EncodePNG(img); err != nil {
					return nil, err
				}
				encoded[uint64(o.hash)] = data
			}
			name := export.SuffixName(o.label, counter.Next(o.label), b.settings.SuffixWidth)
			members = append(members, export.ArchiveMember{Name: name + ".png", Data: data})
		}
	} else {
		for _, h := range b.cache.Hashes() {
			img, _ := b.cache.Get(h)
			data, err := imaging.EncodePNG(img)
			if err != nil {
				return nil, err
			}
			members = append(members, export.ArchiveMember{Name: "image_frame-" + h.String() + ".png", Data: data})
		}
	}

	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, members, string(b.settings.Compression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStrip lays the decoded images left to right in the given order, top
// aligned, and returns the PNG strip. Images are not trimmed.
func BuildStrip(images [][]byte) ([]byte, error) {
	decoded := make([]*image.NRGBA, len(images))
	rects := make([]engine.Rect, len(images))
	for i, data := range images {
		img, _, err := imaging.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("strip image %d: %w", i, err)
		}
		decoded[i] = img
		rects[i] = engine.Rect{Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), ID: uint64(i)}
	}

	res, err := engine.PackStrip(rects)
	if err != nil {
		return nil, err
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, res.Width, res.Height))
	for i, img := range decoded {
		fit := res.Placements[uint64(i)]
		draw.Draw(canvas, image.Rect(fit.X, fit.Y, fit.X+fit.Width, fit.Y+fit.Height), img, image.Point{}, draw.Src)
	}
	return imaging.EncodePNG(canvas)
}
