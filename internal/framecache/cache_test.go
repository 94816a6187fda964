package framecache

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{R: 255, A: 255}

// sprite returns a w x h transparent image with an opaque red block.
func sprite(w, h int, block image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	return img
}

func TestAdd_TrimsAndReturnsOffset(t *testing.T) {
	c := New(0)
	h, off, err := c.Add(sprite(16, 16, image.Rect(4, 6, 10, 9)), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 6), off)

	img, ok := c.Get(h)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 6, 3), img.Bounds())
}

func TestAdd_PaddingShiftsOffset(t *testing.T) {
	c := New(0)
	h, off, err := c.Add(sprite(16, 16, image.Rect(4, 6, 10, 9)), 2)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 4), off)

	img, _ := c.Get(h)
	assert.Equal(t, image.Rect(0, 0, 10, 7), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 1).A)
	assert.Equal(t, red, img.NRGBAAt(2, 2))
}

func TestAdd_DedupIdempotent(t *testing.T) {
	c := New(0)
	h1, off1, err := c.Add(sprite(16, 16, image.Rect(1, 1, 5, 5)), 1)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	// Same content at a different position in a different canvas.
	h2, off2, err := c.Add(sprite(32, 20, image.Rect(10, 12, 14, 16)), 1)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, image.Pt(0, 0), off1)
	assert.Equal(t, image.Pt(9, 11), off2)

	for i := 0; i < 3; i++ {
		_, _, err = c.Add(sprite(16, 16, image.Rect(1, 1, 5, 5)), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.Len())
}

func TestAdd_DifferentContent(t *testing.T) {
	c := New(0)
	h1, _, err := c.Add(sprite(8, 8, image.Rect(0, 0, 2, 4)), 0)
	require.NoError(t, err)
	h2, _, err := c.Add(sprite(8, 8, image.Rect(0, 0, 4, 2)), 0)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "same bytes, different shape")
	assert.Equal(t, 2, c.Len())
}

func TestAdd_FullyTransparent(t *testing.T) {
	c := New(0)
	_, _, err := c.Add(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 0, c.Len())
}

func TestAdd_Threshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{A: 5})
	img.SetNRGBA(2, 2, red)

	h, off, err := New(5).Add(img, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 2), off)
	assert.NotZero(t, h)
}

func TestAdd_NonNRGBAInput(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 14))
	src.Set(11, 12, color.RGBA{R: 255, A: 255})

	c := New(0)
	_, off, err := c.Add(src, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 2), off)
}

func TestHashesAndRectsSorted(t *testing.T) {
	c := New(0)
	for i := 1; i <= 5; i++ {
		_, _, err := c.Add(sprite(8, 8, image.Rect(0, 0, i, 1)), 0)
		require.NoError(t, err)
	}
	hashes := c.Hashes()
	require.Len(t, hashes, 5)
	for i := 1; i < len(hashes); i++ {
		assert.Less(t, hashes[i-1], hashes[i])
	}

	rects := c.Rects()
	require.Len(t, rects, 5)
	for i, r := range rects {
		assert.Equal(t, uint64(hashes[i]), r.ID)
		assert.Equal(t, 1, r.Height)
	}

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestHashString(t *testing.T) {
	assert.Equal(t, "00000000000000ff", Hash(255).String())
}
