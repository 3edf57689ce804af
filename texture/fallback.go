package texture

import (
	"github.com/gogpu/gputypes"

	"github.com/hupe1980/texgo/model"
)

// The fallback constants are 1x1 opaque textures shown while a real texture
// is pending or after its decode failed. Built once at process start, never
// mutated.
var (
	whiteTexture = mustConstant("fallback:white", 0xFF, 0xFF, 0xFF)
	grayTexture  = mustConstant("fallback:gray", 0x80, 0x80, 0x80)
	blueTexture  = mustConstant("fallback:blue", 0x80, 0x80, 0xFF)
	blackTexture = mustConstant("fallback:black", 0x00, 0x00, 0x00)
)

// White returns the constant 1x1 opaque white texture.
func White() *Texture { return whiteTexture }

// Gray returns the constant 1x1 opaque mid-gray texture.
func Gray() *Texture { return grayTexture }

// Blue returns the constant 1x1 "flat normal" blue texture.
func Blue() *Texture { return blueTexture }

// Black returns the constant 1x1 opaque black texture.
func Black() *Texture { return blackTexture }

// Fallback returns the constant texture standing in for textures of the
// given type. Normal maps fall back to flat-normal blue, emissive and
// lightmap textures to black, everything else to white. Custom textures
// have no fallback; nil is returned.
func Fallback(t model.TextureType) *Texture {
	switch t {
	case model.NormalTexture:
		return blueTexture
	case model.EmissiveTexture, model.LightmapTexture:
		return blackTexture
	case model.CustomTexture:
		return nil
	default:
		return whiteTexture
	}
}

func mustConstant(name string, r, g, b uint8) *Texture {
	t, err := newTexture(1, 1, gputypes.TextureFormatRGBA8Unorm, ColorSpaceLinear, 1,
		[][]byte{{r, g, b, 0xFF}}, nil, name)
	if err != nil {
		panic(err)
	}
	return t
}
