package model

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// HashSize is the width of a ContentHash in bytes (BLAKE3-256).
const HashSize = 32

// ContentHash is the fixed-width digest of raw image bytes.
// Equal bytes produce equal hashes; hash collisions are treated as cache
// hits, there is no collision-recovery path.
type ContentHash [HashSize]byte

// HashContent computes the ContentHash of the given bytes.
// It is pure and deterministic, with no failure mode.
func HashContent(data []byte) ContentHash {
	return blake3.Sum256(data)
}

// String returns the lowercase hex encoding of the hash.
// This is also the stem of the disk-cache filename for the content.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseContentHash parses a lowercase hex digest produced by String.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid content hash %q: %w", s, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid content hash length: %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// TextureType declares how a texture is going to be used by the renderer.
// The type selects the decode transform and the fallback constant shown
// while the texture is not yet ready.
type TextureType uint8

const (
	// DefaultTexture is a plain 2D color texture in linear space.
	DefaultTexture TextureType = iota
	// StrictTexture is a 2D color texture kept in sRGB space without
	// lossy post-processing.
	StrictTexture
	// AlbedoTexture is a base color map (sRGB).
	AlbedoTexture
	// NormalTexture is a tangent-space normal map (linear).
	NormalTexture
	// BumpTexture is a grayscale height map converted to a normal map.
	BumpTexture
	// RoughnessTexture is a single-channel roughness map.
	RoughnessTexture
	// GlossTexture is a single-channel gloss map, inverted into roughness.
	GlossTexture
	// SpecularTexture is a specular/metallic map reduced to one channel.
	SpecularTexture
	// EmissiveTexture is an emissive color map (sRGB).
	EmissiveTexture
	// LightmapTexture is a precomputed lighting map (sRGB).
	LightmapTexture
	// OcclusionTexture is an ambient occlusion map reduced to one channel.
	OcclusionTexture
	// CubeTexture is a cubemap unfolded into a 2D image, with irradiance
	// coefficients computed during decode.
	CubeTexture
	// CubeNoIrradianceTexture is a cubemap without irradiance generation.
	CubeNoIrradianceTexture
	// CustomTexture uses a caller-supplied transform function. It has no
	// fallback constant.
	CustomTexture
)

// String returns a short name for the texture type.
func (t TextureType) String() string {
	switch t {
	case DefaultTexture:
		return "default"
	case StrictTexture:
		return "strict"
	case AlbedoTexture:
		return "albedo"
	case NormalTexture:
		return "normal"
	case BumpTexture:
		return "bump"
	case RoughnessTexture:
		return "roughness"
	case GlossTexture:
		return "gloss"
	case SpecularTexture:
		return "specular"
	case EmissiveTexture:
		return "emissive"
	case LightmapTexture:
		return "lightmap"
	case OcclusionTexture:
		return "occlusion"
	case CubeTexture:
		return "cube"
	case CubeNoIrradianceTexture:
		return "cube-no-irradiance"
	case CustomTexture:
		return "custom"
	default:
		return fmt.Sprintf("TextureType(%d)", uint8(t))
	}
}

// Metadata is the cache record associated with each disk entry.
type Metadata struct {
	// Hash is the content hash the entry is stored under.
	Hash ContentHash
	// Length is the serialized container size in bytes.
	Length uint64
}
