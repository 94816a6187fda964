// Package framecache deduplicates trimmed frame images by content hash.
package framecache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/piwi3910/AtlasPack/internal/engine"
	"github.com/piwi3910/AtlasPack/internal/imaging"
)

// ErrEmptyContent is returned for frames without a single opaque pixel.
var ErrEmptyContent = errors.New("frame has no opaque pixels")

// Hash is the xxHash64 digest of a trimmed, padded frame.
type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Cache maps content hashes to their trimmed images. It is not safe for
// concurrent use.
type Cache struct {
	threshold uint8
	images    map[Hash]*image.NRGBA
}

// New returns an empty cache. Pixels with alpha above threshold count as
// opaque when trimming.
func New(threshold uint8) *Cache {
	return &Cache{threshold: threshold, images: make(map[Hash]*image.NRGBA)}
}

// Add trims img to its opaque bounding box, pads it by padding transparent
// pixels on every side and stores it under its content hash unless an
// identical image is already present.
//
// The returned offset is (left-padding, top-padding): where the trimmed
// image's origin sits relative to img's top-left corner.
func (c *Cache) Add(img image.Image, padding int) (Hash, image.Point, error) {
	src, ok := img.(*image.NRGBA)
	if !ok || src.Bounds().Min != (image.Point{}) {
		src = imaging.ToNRGBA(img)
	}

	box, ok := imaging.BoundingBox(src, c.threshold)
	if !ok {
		return 0, image.Point{}, fmt.Errorf("%w: %dx%d image", ErrEmptyContent, src.Bounds().Dx(), src.Bounds().Dy())
	}

	trimmed := imaging.Pad(imaging.Crop(src, box), padding)
	h := Sum(trimmed)
	if _, exists := c.images[h]; !exists {
		c.images[h] = trimmed
	}
	return h, image.Pt(box.Min.X-padding, box.Min.Y-padding), nil
}

// Sum hashes the dimensions and pixel bytes of img. The dimensions keep
// images with identical bytes but different shapes apart.
func Sum(img *image.NRGBA) Hash {
	b := img.Bounds()
	d := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(dims[4:8], uint32(b.Dy()))
	_, _ = d.Write(dims[:])

	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		_, _ = d.Write(img.Pix[off : off+rowLen])
	}
	return Hash(d.Sum64())
}

// Len returns the number of unique images.
func (c *Cache) Len() int { return len(c.images) }

// Get returns the image stored under h.
func (c *Cache) Get(h Hash) (*image.NRGBA, bool) {
	img, ok := c.images[h]
	return img, ok
}

// Hashes returns every stored hash in ascending order.
func (c *Cache) Hashes() []Hash {
	out := make([]Hash, 0, len(c.images))
	for h := range c.images {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Rects returns one packing rectangle per stored image, ID = hash, in
// ascending hash order.
func (c *Cache) Rects() []engine.Rect {
	hashes := c.Hashes()
	rects := make([]engine.Rect, len(hashes))
	for i, h := range hashes {
		b := c.images[h].Bounds()
		rects[i] = engine.Rect{Width: b.Dx(), Height: b.Dy(), ID: uint64(h)}
	}
	return rects
}

// Reset drops every stored image.
func (c *Cache) Reset() {
	clear(c.images)
}
