// Package imaging holds the raster operations the atlas builder calls into:
// decoding, NRGBA normalisation, scale and flip, opaque bounding box, crop,
// pad and PNG encoding. Every function returns a fresh *image.NRGBA whose
// bounds start at the origin.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ErrDecode is returned when bytes are not a decodable raster.
var ErrDecode = errors.New("image decode failed")

// Decode decodes PNG, GIF, JPEG, BMP, TIFF or WebP data into an NRGBA image
// anchored at the origin. It also returns the detected format name.
func Decode(data []byte) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrapf(fmt.Errorf("%w: %w", ErrDecode, err), "decoding %d bytes", len(data))
	}
	return ToNRGBA(img), format, nil
}

// ToNRGBA copies img into a new NRGBA image with bounds (0,0)-(w,h).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// EncodePNG encodes img as a best-compression PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
