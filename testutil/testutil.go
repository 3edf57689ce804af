package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillBytes fills dst with pseudo-random bytes.
// Locks only once per call (preferred over calling Intn in a loop).
func (r *RNG) FillBytes(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Read(dst)
}

// Gradient returns a w×h NRGBA image whose red channel ramps along x,
// green along y, and blue stays constant. Deterministic across runs, so
// the same dimensions always produce the same content hash.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 0x80,
				A: 0xFF,
			})
		}
	}
	return img
}

// Noise returns a w×h NRGBA image filled from the given RNG with full
// alpha. Two calls with the same seed state produce identical pixels.
func Noise(rng *RNG, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng.FillBytes(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

// Solid returns a w×h NRGBA image filled with a single color.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// PNGBytes encodes img as PNG.
func PNGBytes(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEGBytes encodes img as JPEG at quality 90.
func JPEGBytes(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GradientPNG encodes a deterministic w×h gradient as PNG.
func GradientPNG(w, h int) []byte {
	return PNGBytes(Gradient(w, h))
}

// HorizontalCross returns a 4w×3h NRGBA image laid out as a horizontal
// cubemap cross, with each face filled in a distinct solid color. Face
// colors follow the +X, -X, +Y, -Y, +Z, -Z order of FaceColors.
func HorizontalCross(face int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4*face, 3*face))
	cells := [6][2]int{
		{2, 1}, // +X
		{0, 1}, // -X
		{1, 0}, // +Y
		{1, 2}, // -Y
		{1, 1}, // +Z
		{3, 1}, // -Z
	}
	for i, cell := range cells {
		c := FaceColors[i]
		x0, y0 := cell[0]*face, cell[1]*face
		for y := y0; y < y0+face; y++ {
			for x := x0; x < x0+face; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

// FaceColors are the solid fills used by HorizontalCross, in +X, -X, +Y,
// -Y, +Z, -Z order.
var FaceColors = [6]color.NRGBA{
	{0xFF, 0x00, 0x00, 0xFF}, // +X red
	{0x00, 0xFF, 0x00, 0xFF}, // -X green
	{0x00, 0x00, 0xFF, 0xFF}, // +Y blue
	{0xFF, 0xFF, 0x00, 0xFF}, // -Y yellow
	{0xFF, 0x00, 0xFF, 0xFF}, // +Z magenta
	{0x00, 0xFF, 0xFF, 0xFF}, // -Z cyan
}
