// Package texgo provides an embedded texture resource cache for Go.
//
// Texgo turns raw image bytes into GPU-ready texture descriptions through
// two cooperating cache layers: an in-process content-addressable registry
// of live decoded textures, and a persistent on-disk content-addressable
// store of serialized texture containers. Identical byte content is decoded
// into at most one resident texture, no matter how many concurrent requests
// reference it under different URLs.
//
// # Quick Start
//
//	ctx := context.Background()
//	cache, err := texgo.New(ctx, "./texture_cache",
//	    texgo.WithFetcher(fetch.NewHTTP()),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer cache.Close()
//
//	res := cache.GetTexture("https://example.com/brick.png", model.AlbedoTexture)
//	if err := res.Wait(ctx); err != nil {
//	    // decode failed; render with the fallback constant
//	    tex := cache.GetFallbackTexture(model.AlbedoTexture)
//	    _ = tex
//	}
//	tex, ok := res.Texture()
//
// Resources resolve asynchronously on a bounded worker pool. Until a
// resource is Ready, consumers render the constant fallback for its type
// (flat-normal blue for normal maps, black for emissive and lightmap maps,
// white otherwise).
//
// # Content addressing
//
// All caching is keyed by the BLAKE3 digest of the raw source bytes, never
// by URL. Two URLs serving identical bytes share one decoded texture and
// one disk entry; re-requesting content that is still in use anywhere
// resolves immediately from the live registry.
package texgo
