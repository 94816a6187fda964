package atlas

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/piwi3910/AtlasPack/internal/engine"
	"github.com/piwi3910/AtlasPack/internal/export"
	"github.com/piwi3910/AtlasPack/internal/framecache"
	"github.com/piwi3910/AtlasPack/internal/imaging"
	"github.com/piwi3910/AtlasPack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// framePNG returns a w x h transparent PNG with block filled with c.
func framePNG(t *testing.T, w, h int, block image.Rectangle, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	return framePNG(t, w, h, image.Rect(0, 0, w, h), c)
}

func untracked() Option {
	s := model.DefaultSettings()
	s.TrackFrameOffsets = false
	return WithSettings(s)
}

func buildAtlas(t *testing.T, b *Builder) model.TextureAtlas {
	t.Helper()
	_, desc, err := b.Build()
	require.NoError(t, err)
	atlas, err := export.ParseXML(bytes.NewReader(desc))
	require.NoError(t, err)
	return atlas
}

func names(atlas model.TextureAtlas) []string {
	out := make([]string, len(atlas.SubTextures))
	for i, st := range atlas.SubTextures {
		out[i] = st.Name
	}
	return out
}

func TestBuilder_Scenario(t *testing.T) {
	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(solidPNG(t, 10, 10, red), "a", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 5, 5, green), "b", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 20, 8, blue), "c", model.Transform{}, model.FrameRect{}))

	l, err := b.Layout()
	require.NoError(t, err)
	assert.Equal(t, 20, l.Pack.Width)
	assert.Equal(t, 18, l.Pack.Height)
	assert.Equal(t, "hero.png", l.Atlas.ImagePath)
	assert.Equal(t, []string{"a0000", "b0000", "c0000"}, names(l.Atlas))

	c := l.Atlas.SubTextures[2]
	assert.Equal(t, 0, c.X)
	assert.Equal(t, 0, c.Y)
	assert.Equal(t, blue, l.Image.NRGBAAt(19, 7))
	assert.Equal(t, red, l.Image.NRGBAAt(0, 8))
	assert.Equal(t, green, l.Image.NRGBAAt(10, 8))
	assert.Equal(t, uint8(0), l.Image.NRGBAAt(19, 17).A)
}

func TestBuilder_LabelOrdering(t *testing.T) {
	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(solidPNG(t, 4, 4, red), "run", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 4, 4, green), "idle", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 3, 3, blue), "run", model.Transform{}, model.FrameRect{}))

	atlas := buildAtlas(t, b)
	assert.Equal(t, []string{"idle0000", "run0000", "run0001"}, names(atlas))

	// run0000 is the first "run" added (4x4 red), run0001 the second (3x3).
	assert.Equal(t, 4, atlas.SubTextures[1].Width)
	assert.Equal(t, 3, atlas.SubTextures[2].Width)
}

func TestBuilder_DedupSharesPlacement(t *testing.T) {
	b := NewBuilder("hero", 0)
	// Same content at different positions inside different canvases.
	require.NoError(t, b.AddFrame(framePNG(t, 16, 16, image.Rect(2, 2, 8, 8), red), "idle", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(framePNG(t, 32, 32, image.Rect(10, 4, 16, 10), red), "idle", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, green), "walk", model.Transform{}, model.FrameRect{}))

	assert.Equal(t, 3, b.Frames())
	assert.Equal(t, 2, b.Unique())

	atlas := buildAtlas(t, b)
	require.Len(t, atlas.SubTextures, 3)
	a, c := atlas.SubTextures[0], atlas.SubTextures[1]
	assert.Equal(t, a.X, c.X)
	assert.Equal(t, a.Y, c.Y)
	assert.Equal(t, 6, a.Width)

	// Offsets stay per occurrence.
	assert.Equal(t, -2, *a.FrameX)
	assert.Equal(t, -10, *c.FrameX)
	assert.Equal(t, 16, *a.FrameWidth)
	assert.Equal(t, 32, *c.FrameWidth)
}

func TestBuilder_FrameOffsets(t *testing.T) {
	data := framePNG(t, 16, 16, image.Rect(4, 6, 10, 9), red)

	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(data, "idle", model.Transform{}, model.FrameRect{FrameX: 1, FrameY: 2}))
	st := buildAtlas(t, b).SubTextures[0]
	assert.Equal(t, 6, st.Width)
	assert.Equal(t, 3, st.Height)
	assert.Equal(t, -3, *st.FrameX)
	assert.Equal(t, -4, *st.FrameY)
	assert.Equal(t, 16, *st.FrameWidth)
	assert.Equal(t, 16, *st.FrameHeight)

	padded := NewBuilder("hero", 1)
	require.NoError(t, padded.AddFrame(data, "idle", model.Transform{}, model.FrameRect{FrameWidth: 20, FrameHeight: 24}))
	st = buildAtlas(t, padded).SubTextures[0]
	assert.Equal(t, 8, st.Width)
	assert.Equal(t, 5, st.Height)
	assert.Equal(t, -3, *st.FrameX)
	assert.Equal(t, -5, *st.FrameY)
	assert.Equal(t, 20, *st.FrameWidth)
	assert.Equal(t, 24, *st.FrameHeight)
}

func TestBuilder_UntrackedOffsets(t *testing.T) {
	b := NewBuilder("hero", 0, untracked())
	require.NoError(t, b.AddFrame(solidPNG(t, 3, 3, red), "idle", model.Transform{}, model.FrameRect{}))
	_, desc, err := b.Build()
	require.NoError(t, err)
	assert.NotContains(t, string(desc), "frameX")
}

func TestBuilder_TransformScaleAndFlip(t *testing.T) {
	// One opaque column on the left edge of a 4x2 frame.
	data := framePNG(t, 4, 2, image.Rect(0, 0, 1, 2), red)

	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(data, "flip", model.Transform{Width: 8, FlipX: true}, model.FrameRect{}))
	st := buildAtlas(t, b).SubTextures[0]

	// Scaled to 8x2 the column is 2 wide, flipped it sits at x=6.
	assert.Equal(t, 2, st.Width)
	assert.Equal(t, 2, st.Height)
	assert.Equal(t, -6, *st.FrameX)
	assert.Equal(t, 8, *st.FrameWidth)
	assert.Equal(t, 2, *st.FrameHeight)
}

func TestBuilder_FlippedCopyIsDistinct(t *testing.T) {
	data := framePNG(t, 2, 1, image.Rect(0, 0, 1, 1), red)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(buf.Bytes(), "a", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(buf.Bytes(), "a", model.Transform{FlipX: true}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(data, "b", model.Transform{}, model.FrameRect{}))
	assert.Equal(t, 3, b.Unique())
}

func TestBuilder_Sheets(t *testing.T) {
	sheet := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			sheet.SetNRGBA(x, y, red)
			sheet.SetNRGBA(x+10, y, green)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sheet))

	b := NewBuilder("hero", 0)
	require.NoError(t, b.RegisterSheet("main", buf.Bytes()))
	assert.True(t, b.HasSheet("main"))
	require.NoError(t, b.AddFrameFromSheet("main", image.Rect(0, 0, 10, 10), "left", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrameFromSheet("main", image.Rect(10, 0, 20, 10), "right", model.Transform{}, model.FrameRect{}))

	l, err := b.Layout()
	require.NoError(t, err)
	require.Len(t, l.Atlas.SubTextures, 2)
	left, right := l.Atlas.SubTextures[0], l.Atlas.SubTextures[1]
	assert.Equal(t, red, l.Image.NRGBAAt(left.X, left.Y))
	assert.Equal(t, green, l.Image.NRGBAAt(right.X, right.Y))

	err = b.AddFrameFromSheet("missing", image.Rect(0, 0, 1, 1), "x", model.Transform{}, model.FrameRect{})
	assert.ErrorIs(t, err, ErrUnknownSheet)
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder("hero", 0)

	err := b.AddFrame([]byte("garbage"), "x", model.Transform{}, model.FrameRect{})
	assert.ErrorIs(t, err, imaging.ErrDecode)

	err = b.RegisterSheet("bad", []byte("garbage"))
	assert.ErrorIs(t, err, imaging.ErrDecode)

	err = b.AddFrame(framePNG(t, 4, 4, image.Rectangle{}, red), "empty", model.Transform{}, model.FrameRect{})
	assert.ErrorIs(t, err, framecache.ErrEmptyContent)

	assert.Equal(t, 0, b.Frames())
	_, _, err = b.Build()
	assert.ErrorIs(t, err, export.ErrNoEntries)
}

func TestBuilder_UnknownHeuristic(t *testing.T) {
	s := model.DefaultSettings()
	s.Heuristic = "nope"
	b := NewBuilder("hero", 0, WithSettings(s))
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, red), "a", model.Transform{}, model.FrameRect{}))
	_, err := b.Layout()
	assert.Error(t, err)
}

func TestBuilder_AddRequest(t *testing.T) {
	files := map[string][]byte{"hero/idle.png": solidPNG(t, 3, 3, red)}
	readFile := func(p string) ([]byte, error) {
		if d, ok := files[p]; ok {
			return d, nil
		}
		return nil, io.ErrUnexpectedEOF
	}

	b := NewBuilder("hero", 0)
	require.NoError(t, b.RegisterSheet("sheet", solidPNG(t, 8, 8, blue)))
	require.NoError(t, b.AddRequest(model.NewImageFrame("idle", "hero/idle.png"), readFile))
	require.NoError(t, b.AddRequest(model.NewSheetFrame("walk", "sheet", model.CropRect{X: 2, Y: 2, Width: 4, Height: 4}), readFile))
	assert.Equal(t, 2, b.Frames())

	err := b.AddRequest(model.NewImageFrame("idle", "missing.png"), readFile)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBuilder_Reset(t *testing.T) {
	b := NewBuilder("hero", 0)
	require.NoError(t, b.RegisterSheet("s", solidPNG(t, 4, 4, red)))
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, red), "a", model.Transform{}, model.FrameRect{}))
	_, _, err := b.Build()
	require.NoError(t, err)

	b.Reset()
	assert.Equal(t, 0, b.Frames())
	assert.Equal(t, 0, b.Unique())
	assert.True(t, b.HasSheet("s"))

	require.NoError(t, b.AddFrameFromSheet("s", image.Rect(0, 0, 4, 4), "b", model.Transform{}, model.FrameRect{}))
	atlas := buildAtlas(t, b)
	assert.Equal(t, []string{"b0000"}, names(atlas))
}

func TestBuilder_AppendAndRebuild(t *testing.T) {
	b := NewBuilder("hero", 0)
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, red), "a", model.Transform{}, model.FrameRect{}))
	first := buildAtlas(t, b)
	require.NoError(t, b.AddFrame(solidPNG(t, 3, 3, green), "a", model.Transform{}, model.FrameRect{}))
	second := buildAtlas(t, b)
	assert.Len(t, first.SubTextures, 1)
	assert.Equal(t, []string{"a0000", "a0001"}, names(second))
}

func TestBuilder_NoOverlapManyFrames(t *testing.T) {
	b := NewBuilder("many", 1)
	colors := []color.NRGBA{red, green, blue}
	for i := 1; i <= 40; i++ {
		w, h := 1+(i*7)%13, 1+(i*5)%11
		c := colors[i%3]
		c.R = uint8(i)
		require.NoError(t, b.AddFrame(solidPNG(t, w, h, c), "f", model.Transform{}, model.FrameRect{}))
	}
	l, err := b.Layout()
	require.NoError(t, err)

	placed := l.Pack.Sorted()
	sheet := image.Rect(0, 0, l.Pack.Width, l.Pack.Height)
	for i, a := range placed {
		ra := image.Rect(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
		require.True(t, ra.In(sheet))
		for _, c := range placed[i+1:] {
			rc := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
			require.False(t, ra.Overlaps(rc))
		}
	}
}

func TestBuilder_Deterministic(t *testing.T) {
	build := func() ([]byte, []byte) {
		b := NewBuilder("det", 2)
		for i := 1; i <= 10; i++ {
			require.NoError(t, b.AddFrame(solidPNG(t, i, 11-i, color.NRGBA{R: uint8(i * 20), A: 255}), "f", model.Transform{}, model.FrameRect{}))
		}
		png, desc, err := b.Build()
		require.NoError(t, err)
		return png, desc
	}
	p1, d1 := build()
	p2, d2 := build()
	assert.Equal(t, p1, p2)
	assert.Equal(t, d1, d2)
}

func TestBuilder_Logging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	b := NewBuilder("logged", 0)
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, red), "a", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 2, 2, red), "a", model.Transform{}, model.FrameRect{}))
	_, err := b.Layout()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "frame added")
	assert.Contains(t, out, "dedup=true")
	assert.Contains(t, out, "sheet built")
	assert.Equal(t, 2, strings.Count(out, "frame added"))
}

func TestBuilder_PaddingArgumentWins(t *testing.T) {
	s := model.DefaultSettings()
	s.Padding = 9
	b := NewBuilder("hero", 2, WithSettings(s))
	assert.Equal(t, 2, b.Settings().Padding)
}

func TestLayoutUsesHeuristic(t *testing.T) {
	s := model.DefaultSettings()
	s.Heuristic = "maxside"
	b := NewBuilder("hero", 0, WithSettings(s))
	require.NoError(t, b.AddFrame(solidPNG(t, 10, 10, red), "a", model.Transform{}, model.FrameRect{}))
	require.NoError(t, b.AddFrame(solidPNG(t, 20, 8, blue), "b", model.Transform{}, model.FrameRect{}))
	l, err := b.Layout()
	require.NoError(t, err)

	h, _ := engine.HeuristicByName("maxside")
	want, err := engine.Pack(b.cache.Rects(), h)
	require.NoError(t, err)
	assert.Equal(t, want.Width, l.Pack.Width)
	assert.Equal(t, want.Height, l.Pack.Height)
}

func TestBuilder_SetHeuristic(t *testing.T) {
	b := NewBuilder("hero", 0)
	require.NoError(t, b.SetHeuristic("perimeter"))
	assert.Equal(t, "perimeter", b.Settings().Heuristic)

	assert.Error(t, b.SetHeuristic("bogus"))
	assert.Equal(t, "perimeter", b.Settings().Heuristic)
}
