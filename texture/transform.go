package texture

import (
	"image"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/hupe1980/texgo/model"
)

// TransformFunc converts a parsed, budget-clamped image into its final
// Texture. Implementations may alias img's pixel storage in the result,
// so the caller must not reuse or mutate img after the call.
type TransformFunc func(img *image.NRGBA, source string) (*Texture, error)

// ForType returns the transform registered for the given texture type.
// ok is false for model.CustomTexture, which requires a caller-supplied
// function instead of a table entry.
func ForType(t model.TextureType) (fn TransformFunc, ok bool) {
	fn, ok = transforms[t]
	return fn, ok
}

// transforms is the usage-transform table. Built once at package init,
// never mutated.
var transforms = map[model.TextureType]TransformFunc{
	model.DefaultTexture:          New2DTexture,
	model.StrictTexture:           NewStrict2DTexture,
	model.AlbedoTexture:           NewAlbedoTexture,
	model.EmissiveTexture:         NewEmissiveTexture,
	model.LightmapTexture:         NewLightmapTexture,
	model.NormalTexture:           NewNormalTexture,
	model.BumpTexture:             NewNormalTextureFromBump,
	model.RoughnessTexture:        NewRoughnessTexture,
	model.GlossTexture:            NewRoughnessTextureFromGloss,
	model.SpecularTexture:         NewMetallicTexture,
	model.OcclusionTexture:        NewOcclusionTexture,
	model.CubeTexture:             newCubeWithIrradiance,
	model.CubeNoIrradianceTexture: newCubeNoIrradiance,
}

// New2DTexture builds a plain linear color texture with a full mip chain.
func New2DTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceLinear, source)
}

// NewStrict2DTexture builds an sRGB color texture. Strict textures keep the
// source texels as-is apart from mip generation.
func NewStrict2DTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceSRGB, source)
}

// NewAlbedoTexture builds a base-color texture in sRGB space.
func NewAlbedoTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceSRGB, source)
}

// NewEmissiveTexture builds an emissive color texture in sRGB space.
func NewEmissiveTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceSRGB, source)
}

// NewLightmapTexture builds a lightmap texture in sRGB space.
func NewLightmapTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceSRGB, source)
}

// NewNormalTexture builds a tangent-space normal map. Normal data is linear;
// sRGB decoding would bend the encoded vectors.
func NewNormalTexture(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(img, ColorSpaceLinear, source)
}

// NewNormalTextureFromBump converts a grayscale height map into a normal map
// using a Sobel filter, then builds it as a linear texture.
func NewNormalTextureFromBump(img *image.NRGBA, source string) (*Texture, error) {
	return build2D(bumpToNormal(img), ColorSpaceLinear, source)
}

// NewRoughnessTexture reduces the image to a single roughness channel.
func NewRoughnessTexture(img *image.NRGBA, source string) (*Texture, error) {
	return buildSingleChannel(img, source, func(v uint8) uint8 { return v })
}

// NewRoughnessTextureFromGloss inverts a gloss map into roughness.
func NewRoughnessTextureFromGloss(img *image.NRGBA, source string) (*Texture, error) {
	return buildSingleChannel(img, source, func(v uint8) uint8 { return 255 - v })
}

// NewMetallicTexture reduces a specular/metallic map to a single channel.
func NewMetallicTexture(img *image.NRGBA, source string) (*Texture, error) {
	return buildSingleChannel(img, source, func(v uint8) uint8 { return v })
}

// NewOcclusionTexture reduces an ambient occlusion map to a single channel.
func NewOcclusionTexture(img *image.NRGBA, source string) (*Texture, error) {
	return buildSingleChannel(img, source, func(v uint8) uint8 { return v })
}

func newCubeWithIrradiance(img *image.NRGBA, source string) (*Texture, error) {
	return NewCubeTexture(img, source, true)
}

func newCubeNoIrradiance(img *image.NRGBA, source string) (*Texture, error) {
	return NewCubeTexture(img, source, false)
}

func build2D(img *image.NRGBA, space ColorSpace, source string) (*Texture, error) {
	b := img.Bounds()
	return newTexture(b.Dx(), b.Dy(), gputypes.TextureFormatRGBA8Unorm, space, 1,
		buildMipsNRGBA(img), nil, source)
}

// buildSingleChannel extracts the red channel through extract and builds an
// R8 texture. Material maps conventionally store their scalar in red.
func buildSingleChannel(img *image.NRGBA, source string, extract func(uint8) uint8) (*Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Pix[y*gray.Stride+x] = extract(img.Pix[y*img.Stride+x*4])
		}
	}
	return newTexture(w, h, gputypes.TextureFormatR8Unorm, ColorSpaceLinear, 1,
		buildMipsGray(gray), nil, source)
}

// bumpToNormal derives a tangent-space normal map from a grayscale height
// map. Heights come from the red channel; the filter is a 3x3 Sobel with
// clamped edges.
func bumpToNormal(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	height := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return float64(img.Pix[y*img.Stride+x*4]) / 255.0
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (height(x+1, y-1) + 2*height(x+1, y) + height(x+1, y+1)) -
				(height(x-1, y-1) + 2*height(x-1, y) + height(x-1, y+1))
			dy := (height(x-1, y+1) + 2*height(x, y+1) + height(x+1, y+1)) -
				(height(x-1, y-1) + 2*height(x, y-1) + height(x+1, y-1))

			nx, ny, nz := -dx, -dy, 1.0
			inv := 1.0 / math.Sqrt(nx*nx+ny*ny+nz*nz)
			nx, ny, nz = nx*inv, ny*inv, nz*inv

			i := y*out.Stride + x*4
			out.Pix[i+0] = uint8((nx*0.5 + 0.5) * 255.0)
			out.Pix[i+1] = uint8((ny*0.5 + 0.5) * 255.0)
			out.Pix[i+2] = uint8((nz*0.5 + 0.5) * 255.0)
			out.Pix[i+3] = 0xFF
		}
	}
	return out
}
