package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// BoundingBox returns the smallest rectangle holding every pixel whose alpha
// exceeds threshold, in img's coordinate space, max exclusive. ok is false
// when no pixel qualifies.
func BoundingBox(img *image.NRGBA, threshold uint8) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	left, top := b.Max.X, b.Max.Y
	right, bottom := b.Min.X, b.Min.Y

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[row+(x-b.Min.X)*4+3] <= threshold {
				continue
			}
			left = min(left, x)
			right = max(right, x+1)
			top = min(top, y)
			bottom = max(bottom, y+1)
		}
	}
	if right <= left || bottom <= top {
		return image.Rectangle{}, false
	}
	return image.Rect(left, top, right, bottom), true
}

// Crop copies the r region of img into a new image at the origin.
func Crop(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	r = r.Intersect(img.Bounds())
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// Pad surrounds img with a fully transparent border of p pixels.
func Pad(img *image.NRGBA, p int) *image.NRGBA {
	if p <= 0 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*p, b.Dy()+2*p))
	draw.Draw(dst, image.Rect(p, p, p+b.Dx(), p+b.Dy()), img, b.Min, draw.Src)
	return dst
}
