// Package model defines core types shared across texgo.
//
// # Identity Types
//
//   - ContentHash: BLAKE3-256 digest of raw image bytes, the sole cache key
//     for both the live registry and the disk cache
//   - TextureType: declared usage of a texture (albedo, normal, cube, ...),
//     selecting the decode transform and the fallback constant
//
// # Data Types
//
//   - Metadata: per disk-cache entry record (hash + byte length)
package model
