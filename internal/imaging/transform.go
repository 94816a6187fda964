package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Interpolator maps a resample filter name to its x/image/draw kernel.
// The empty name selects nearest neighbour.
func Interpolator(name string) (draw.Interpolator, error) {
	switch name {
	case "", "nearest":
		return draw.NearestNeighbor, nil
	case "bilinear":
		return draw.ApproxBiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown resample filter %q", name)
}

// Scale resizes img to w x h. A zero or negative dimension keeps the source
// size along that axis. When nothing changes img is returned as is.
func Scale(img *image.NRGBA, w, h int, interp draw.Interpolator) *image.NRGBA {
	b := img.Bounds()
	if w <= 0 {
		w = b.Dx()
	}
	if h <= 0 {
		h = b.Dy()
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	if interp == nil {
		interp = draw.NearestNeighbor
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Flip mirrors img horizontally, vertically or both. With neither flag set
// img is returned as is.
func Flip(img *image.NRGBA, flipX, flipY bool) *image.NRGBA {
	if !flipX && !flipY {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := y
		if flipY {
			sy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			sx := x
			if flipX {
				sx = w - 1 - x
			}
			si := img.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], img.Pix[si:si+4])
		}
	}
	return dst
}

// Apply scales then flips img.
func Apply(img *image.NRGBA, w, h int, flipX, flipY bool, interp draw.Interpolator) *image.NRGBA {
	return Flip(Scale(img, w, h, interp), flipX, flipY)
}
