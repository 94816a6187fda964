// Package atlas turns frame images into one packed sheet plus its
// description.
//
// A Builder collects frames, trims and deduplicates them through a
// framecache.Cache, packs the unique images with the growing packer and
// expands every logical frame back into a SubTexture entry. A Builder has
// one owner and expects sequential calls; it is not safe for concurrent use.
package atlas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/piwi3910/AtlasPack/internal/engine"
	"github.com/piwi3910/AtlasPack/internal/export"
	"github.com/piwi3910/AtlasPack/internal/framecache"
	"github.com/piwi3910/AtlasPack/internal/imaging"
	"github.com/piwi3910/AtlasPack/internal/model"
)

// ErrUnknownSheet is returned when a frame references a sheet key that was
// never registered.
var ErrUnknownSheet = errors.New("unknown sheet")

// occurrence is one logical frame placed on the atlas. Many occurrences may
// share a hash.
type occurrence struct {
	seq   int
	label string
	rect  model.FrameRect
	hash  framecache.Hash
}

// Option configures a Builder.
type Option func(*Builder)

// WithSettings replaces the builder settings. The padding passed to
// NewBuilder still wins over s.Padding.
func WithSettings(s model.Settings) Option {
	return func(b *Builder) {
		b.settings = s
	}
}

type Builder struct {
	name     string
	settings model.Settings

	sheets      map[string]*image.NRGBA
	cache       *framecache.Cache
	occurrences []occurrence
	seq         int
}

// NewBuilder returns a builder producing <name>.png and its description.
// Every trimmed frame is surrounded by padding transparent pixels.
func NewBuilder(name string, padding int, opts ...Option) *Builder {
	b := &Builder{
		name:     name,
		settings: model.DefaultSettings(),
		sheets:   make(map[string]*image.NRGBA),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.settings.Padding = padding
	b.settings = b.settings.Normalize()
	b.cache = framecache.New(b.settings.AlphaThreshold)
	return b
}

// Name returns the atlas name.
func (b *Builder) Name() string { return b.name }

// Settings returns the effective settings.
func (b *Builder) Settings() model.Settings { return b.settings }

// Frames returns the number of logical frames added since the last Reset.
func (b *Builder) Frames() int { return len(b.occurrences) }

// Unique returns the number of distinct trimmed images.
func (b *Builder) Unique() int { return b.cache.Len() }

// RegisterSheet decodes data and stores it under key for AddFrameFromSheet.
// Registering an existing key replaces the sheet.
func (b *Builder) RegisterSheet(key string, data []byte) error {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return fmt.Errorf("registering sheet %q: %w", key, err)
	}
	b.sheets[key] = img
	Logger().Debug("sheet registered", "key", key, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// SetHeuristic switches the sort heuristic used by later Layout calls.
func (b *Builder) SetHeuristic(name string) error {
	if _, err := engine.HeuristicByName(name); err != nil {
		return err
	}
	b.settings.Heuristic = name
	return nil
}

// HasSheet reports whether key was registered.
func (b *Builder) HasSheet(key string) bool {
	_, ok := b.sheets[key]
	return ok
}

// AddFrame decodes data and adds it as one frame of the label animation.
func (b *Builder) AddFrame(data []byte, label string, t model.Transform, orig model.FrameRect) error {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return fmt.Errorf("adding frame %q: %w", label, err)
	}
	return b.AddImage(img, label, t, orig)
}

// AddFrameFromSheet cuts crop out of the sheet registered under key and
// adds it as one frame of the label animation.
func (b *Builder) AddFrameFromSheet(key string, crop image.Rectangle, label string, t model.Transform, orig model.FrameRect) error {
	sheet, ok := b.sheets[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSheet, key)
	}
	return b.AddImage(imaging.Crop(sheet, crop), label, t, orig)
}

// AddImage adds an already decoded frame. The transform is applied first
// (scale, then flip); the result is trimmed, padded and deduplicated. Zero
// orig.FrameWidth or orig.FrameHeight default to the transformed size.
func (b *Builder) AddImage(img image.Image, label string, t model.Transform, orig model.FrameRect) error {
	interp, err := imaging.Interpolator(string(b.settings.Resample))
	if err != nil {
		return err
	}

	src := imaging.Apply(imaging.ToNRGBA(img), t.Width, t.Height, t.FlipX, t.FlipY, interp)
	if orig.FrameWidth == 0 {
		orig.FrameWidth = src.Bounds().Dx()
	}
	if orig.FrameHeight == 0 {
		orig.FrameHeight = src.Bounds().Dy()
	}

	before := b.cache.Len()
	hash, off, err := b.cache.Add(src, b.settings.Padding)
	if err != nil {
		return fmt.Errorf("adding frame %q: %w", label, err)
	}

	b.occurrences = append(b.occurrences, occurrence{
		seq:   b.seq,
		label: label,
		hash:  hash,
		rect: model.FrameRect{
			FrameX:      orig.FrameX - off.X,
			FrameY:      orig.FrameY - off.Y,
			FrameWidth:  orig.FrameWidth,
			FrameHeight: orig.FrameHeight,
		},
	})
	b.seq++

	Logger().Debug("frame added", "label", label, "hash", hash.String(), "dedup", b.cache.Len() == before)
	return nil
}

// AddRequest adds a manifest frame request. Image paths are read through
// readFile; sheet requests must reference a registered sheet.
func (b *Builder) AddRequest(req model.FrameRequest, readFile func(string) ([]byte, error)) error {
	switch req.Source {
	case model.SourceSheet:
		c := req.Crop
		crop := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
		return b.AddFrameFromSheet(req.SheetKey, crop, req.Label, req.Transform, req.Frame)
	default:
		data, err := readFile(req.Path)
		if err != nil {
			return fmt.Errorf("reading frame %q: %w", req.Path, err)
		}
		return b.AddFrame(data, req.Label, req.Transform, req.Frame)
	}
}

// Reset drops every frame so the builder can be reused. Registered sheets
// are kept.
func (b *Builder) Reset() {
	b.cache.Reset()
	b.occurrences = nil
	b.seq = 0
}

// sortedOccurrences returns the occurrences ordered by label, then by
// insertion order within a label.
func (b *Builder) sortedOccurrences() []occurrence {
	occ := make([]occurrence, len(b.occurrences))
	copy(occ, b.occurrences)
	sort.SliceStable(occ, func(i, j int) bool {
		if occ[i].label != occ[j].label {
			return occ[i].label < occ[j].label
		}
		return occ[i].seq < occ[j].seq
	})
	return occ
}

// description expands every occurrence into a SubTexture carrying the
// shared placement of its hash.
func (b *Builder) description(res engine.Result) model.TextureAtlas {
	desc := model.TextureAtlas{
		ImagePath:   b.name + ".png",
		Width:       res.Width,
		Height:      res.Height,
		SubTextures: make([]model.SubTexture, 0, len(b.occurrences)),
	}

	counter := export.Counter{}
	for _, o := range b.sortedOccurrences() {
		fit := res.Placements[uint64(o.hash)]
		st := model.SubTexture{
			Name:   export.SuffixName(o.label, counter.Next(o.label), b.settings.SuffixWidth),
			X:      fit.X,
			Y:      fit.Y,
			Width:  fit.Width,
			Height: fit.Height,
		}
		if b.settings.TrackFrameOffsets {
			st.FrameX = model.IntPtr(o.rect.FrameX)
			st.FrameY = model.IntPtr(o.rect.FrameY)
			st.FrameWidth = model.IntPtr(o.rect.FrameWidth)
			st.FrameHeight = model.IntPtr(o.rect.FrameHeight)
		}
		desc.SubTextures = append(desc.SubTextures, st)
	}
	return desc
}

// writeDescription encodes desc in the configured format.
func (b *Builder) writeDescription(desc model.TextureAtlas) ([]byte, string, error) {
	var buf bytes.Buffer
	switch b.settings.Format {
	case model.FormatJSON:
		if err := export.WriteJSON(&buf, desc); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "json", nil
	default:
		if err := export.WriteXML(&buf, desc, export.XMLOptions{}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "xml", nil
	}
}
