// Package texture implements decoded GPU texture descriptions and the
// usage-specific decode transforms that produce them.
//
// A Texture is a CPU-side, immutable description of a GPU texture: base
// dimensions, pixel format, full mip chain and (for cubemaps) optional
// irradiance coefficients. Creating the device object is deferred to the
// consuming rendering context; this package never touches a GPU device.
//
// # Transforms
//
// Each model.TextureType maps to a transform that converts a parsed raster
// image into its final Texture: color maps stay four-channel (linear or
// sRGB), normal maps stay linear, roughness/gloss/specular/occlusion maps
// are reduced to a single channel, bump maps are converted to normal maps,
// and cube types slice an unfolded cubemap image into six faces. All
// transforms build a complete mip chain down to 1x1.
//
// # Container format
//
// Serialize produces a byte-exact container (header, mip directory, payload)
// suitable for the on-disk content-addressable cache; Deserialize restores
// an identical Texture. The payload may be stored raw or compressed with LZ4
// or ZSTD; mip ranges always refer to the uncompressed payload.
package texture
