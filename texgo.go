package texgo

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/texgo/internal/diskcache"
	"github.com/hupe1980/texgo/internal/pool"
	"github.com/hupe1980/texgo/internal/registry"
	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/texture"
)

// TextureCache resolves URLs into shared, GPU-ready texture descriptions.
//
// There is no process-wide instance; construct one cache and pass it to
// every collaborator that needs it. All methods are safe for concurrent
// use.
type TextureCache struct {
	opts     options
	logger   *Logger
	registry *registry.Registry
	disk     *diskcache.Cache
	pool     *pool.Pool
	stats    counters

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	resources map[resourceKey]*TextureResource
	closed    bool
}

type resourceKey struct {
	url string
	typ model.TextureType
}

// New creates a texture cache with its persistent store rooted at cacheDir.
// Existing disk entries are indexed and served without re-decoding. ctx
// bounds the cache lifetime; Close releases everything early.
func New(ctx context.Context, cacheDir string, opts ...Option) (*TextureCache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	disk, err := diskcache.New(diskcache.Config{
		Dir:                 cacheDir,
		MaxConcurrentWrites: o.maxWrites,
		FS:                  o.fsys,
	})
	if err != nil {
		return nil, fmt.Errorf("open disk cache: %w", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	c := &TextureCache{
		opts:      o,
		logger:    o.logger,
		registry:  registry.New(),
		disk:      disk,
		pool:      pool.New(o.workers),
		ctx:       cctx,
		cancel:    cancel,
		resources: make(map[resourceKey]*TextureResource),
	}
	c.logger.Info("texture cache opened",
		"dir", cacheDir,
		"entries", disk.Len(),
		"workers", c.pool.Workers(),
	)
	return c, nil
}

// GetTexture returns the resource tracking the texture behind url for the
// given usage type. The resource resolves asynchronously; it is immediately
// usable in its current state, which starts out not ready.
//
// Repeated calls with the same url and type return the same resource while
// it is alive. Requesting model.CustomTexture without WithTransform is a
// contract violation and panics.
func (c *TextureCache) GetTexture(url string, typ model.TextureType, opts ...RequestOption) *TextureResource {
	var req request
	for _, opt := range opts {
		opt(&req)
	}
	if typ == model.CustomTexture && req.transform == nil {
		panic("texgo: custom texture type requires WithTransform")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		r := newResource(c, url, typ, req)
		r.fail(ErrClosed)
		return r
	}
	key := resourceKey{url: url, typ: typ}
	if url != "" {
		if r, ok := c.resources[key]; ok {
			c.mu.Unlock()
			return r
		}
	}
	r := newResource(c, url, typ, req)
	if url != "" {
		c.resources[key] = r
	}
	c.mu.Unlock()

	go r.run(req.content)
	return r
}

// Prefetch warms the cache for url without keeping a handle on the result.
func (c *TextureCache) Prefetch(url string, typ model.TextureType, opts ...RequestOption) {
	c.GetTexture(url, typ, opts...)
}

// GetFallbackTexture returns the constant texture for the given usage type.
// Always immediately available; nil for model.CustomTexture.
func (c *TextureCache) GetFallbackTexture(typ model.TextureType) *texture.Texture {
	return texture.Fallback(typ)
}

// GetTextureByHash returns the live texture for a content hash, or nil if
// no owner currently keeps one alive.
func (c *TextureCache) GetTextureByHash(hash model.ContentHash) *texture.Texture {
	return c.registry.Lookup(hash)
}

// CacheTextureByHash registers tex under hash unless a live texture already
// occupies it, and returns the accepted texture. This is the race-resolution
// point shared with the decode pipeline; collaborators that already know a
// content hash use it for cross-resource dedup.
func (c *TextureCache) CacheTextureByHash(hash model.ContentHash, tex *texture.Texture) *texture.Texture {
	return c.registry.InsertOrAdopt(hash, tex)
}

// Stats returns a snapshot of cache activity.
func (c *TextureCache) Stats() Stats {
	s := c.stats.snapshot()
	s.LiveTextures = c.registry.Len()
	s.DiskEntries = c.disk.Len()
	return s
}

// Close stops the decode pool and abandons in-flight fetches. Idempotent.
// Already-resolved resources keep their textures; pending ones fail with
// ErrClosed on their next transition.
func (c *TextureCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.pool.Close()
	c.logger.Info("texture cache closed")
	return nil
}

// release drops a resource from the per-URL dedup map.
func (c *TextureCache) release(r *TextureResource) {
	if r.url == "" {
		return
	}
	key := resourceKey{url: r.url, typ: r.typ}
	c.mu.Lock()
	if cur, ok := c.resources[key]; ok && cur == r {
		delete(c.resources, key)
	}
	c.mu.Unlock()
}
