package texture

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ColorSpace declares how the payload bytes are to be interpreted when
// sampled. It is carried next to the pixel format so a consumer can pick
// the matching sRGB view format on the device.
type ColorSpace uint8

const (
	// ColorSpaceLinear marks payload bytes as linear values.
	ColorSpaceLinear ColorSpace = iota
	// ColorSpaceSRGB marks payload bytes as sRGB-encoded values.
	ColorSpaceSRGB
)

// String returns "linear" or "srgb".
func (c ColorSpace) String() string {
	if c == ColorSpaceSRGB {
		return "srgb"
	}
	return "linear"
}

// Texture is an immutable, GPU-ready texture description. Once built it is
// safe to share by reference across any number of readers; nothing in this
// package mutates a Texture after construction.
type Texture struct {
	width  int
	height int
	format gputypes.TextureFormat
	space  ColorSpace
	faces  int
	mips   [][]byte
	irr    []float32
	source string

	// Source image dimensions before any pixel budget downscale.
	// Zero in both means the texture was never clamped.
	origWidth  int
	origHeight int
}

// Width returns the base (level 0) width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the base (level 0) height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the pixel format of every mip level.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// ColorSpace returns the color space the payload is encoded in.
func (t *Texture) ColorSpace() ColorSpace { return t.space }

// Faces returns 1 for 2D textures and 6 for cubemaps.
func (t *Texture) Faces() int { return t.faces }

// MipCount returns the number of mip levels.
func (t *Texture) MipCount() int { return len(t.mips) }

// Mip returns the raw bytes of mip level i. For cubemaps the slab holds the
// six faces contiguously in +X,-X,+Y,-Y,+Z,-Z order. The returned slice is
// shared and must not be modified.
func (t *Texture) Mip(i int) []byte { return t.mips[i] }

// MipDimensions returns the pixel dimensions of mip level i.
func (t *Texture) MipDimensions(i int) (w, h int) {
	w, h = t.width, t.height
	for ; i > 0 && (w > 1 || h > 1); i-- {
		w = max(w/2, 1)
		h = max(h/2, 1)
	}
	return w, h
}

// OriginalDimensions returns the source image dimensions before any
// pixel budget downscale was applied. For textures that were never
// clamped this equals Width and Height.
func (t *Texture) OriginalDimensions() (w, h int) {
	if t.origWidth > 0 && t.origHeight > 0 {
		return t.origWidth, t.origHeight
	}
	return t.width, t.height
}

// WithOriginalSize returns a copy of t that records w, h as the source
// dimensions before downscaling. t itself is unchanged.
func (t *Texture) WithOriginalSize(w, h int) *Texture {
	c := *t
	c.origWidth = w
	c.origHeight = h
	return &c
}

// Irradiance returns the 27 spherical-harmonic irradiance coefficients
// (9 per RGB channel) of a cubemap, or nil if none were generated.
func (t *Texture) Irradiance() []float32 { return t.irr }

// Source returns the URL or path the texture was decoded from. Diagnostic
// only; it does not participate in caching.
func (t *Texture) Source() string { return t.source }

// StoredSize returns the total payload size over all mip levels in bytes.
func (t *Texture) StoredSize() int {
	var n int
	for _, m := range t.mips {
		n += len(m)
	}
	return n
}

// BytesPerPixel returns the payload stride of format.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 4
	}
}

// newTexture validates the mip chain against the declared geometry.
func newTexture(w, h int, format gputypes.TextureFormat, space ColorSpace, faces int, mips [][]byte, irr []float32, source string) (*Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("texture: invalid dimensions %dx%d", w, h)
	}
	if faces != 1 && faces != 6 {
		return nil, fmt.Errorf("texture: invalid face count %d", faces)
	}
	if len(mips) == 0 {
		return nil, fmt.Errorf("texture: empty mip chain")
	}
	t := &Texture{
		width:  w,
		height: h,
		format: format,
		space:  space,
		faces:  faces,
		mips:   mips,
		irr:    irr,
		source: source,
	}
	bpp := BytesPerPixel(format)
	for i := range mips {
		mw, mh := t.MipDimensions(i)
		if want := mw * mh * bpp * faces; len(mips[i]) != want {
			return nil, fmt.Errorf("texture: mip %d is %d bytes, want %d", i, len(mips[i]), want)
		}
	}
	return t, nil
}
