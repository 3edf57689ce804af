package texture

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage parses raw bytes as a raster image and normalizes it to NRGBA.
//
// extHint is the lowercase filename extension from the source URL, without
// the dot. TGA files carry no magic bytes, so the hint routes them to the
// TGA decoder directly; everything else goes through content sniffing.
func DecodeImage(data []byte, extHint string) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	var (
		img image.Image
		err error
	)
	if strings.EqualFold(extHint, "tga") {
		img, err = tga.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: zero dimension %dx%d", b.Dx(), b.Dy())
	}
	return toNRGBA(img), nil
}

// toNRGBA redraws src into a zero-origin NRGBA image with a packed stride.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		b := n.Bounds()
		if b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
			return n
		}
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// ClampPixels downscales img so that width*height <= maxPixels, preserving
// the aspect ratio up to independent per-axis rounding. Images within the
// budget are returned unchanged. Resampling uses a smoothing kernel, never
// nearest-neighbor.
func ClampPixels(img *image.NRGBA, maxPixels int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPixels <= 0 || w*h <= maxPixels {
		return img
	}
	scale := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := int(scale*float64(w) + 0.5)
	nh := int(scale*float64(h) + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
