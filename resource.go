package texgo

import (
	"context"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/texture"
)

// State is the lifecycle position of a TextureResource. Transitions are
// strictly forward; a resource never regresses.
type State uint8

const (
	// StateCreated is the initial state; the URL is known.
	StateCreated State = iota
	// StateAwaitingContent waits on the fetch collaborator.
	StateAwaitingContent
	// StateContentReady has the raw bytes and their content hash.
	StateContentReady
	// StateLiveHit adopted a texture from the live registry.
	StateLiveHit
	// StateDiskHit deserialized a texture from the disk cache.
	StateDiskHit
	// StateDecoding has a decode task scheduled on the worker pool.
	StateDecoding
	// StateReady is terminal success; the resource owns its texture.
	StateReady
	// StateFailed is terminal failure; consumers use the fallback. There
	// is no automatic retry; issue a fresh request to try again.
	StateFailed
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingContent:
		return "awaiting-content"
	case StateContentReady:
		return "content-ready"
	case StateLiveHit:
		return "live-hit"
	case StateDiskHit:
		return "disk-hit"
	case StateDecoding:
		return "decoding"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// request carries per-call parameters of GetTexture.
type request struct {
	content   []byte
	maxPixels int
	transform texture.TransformFunc
}

// RequestOption configures a single GetTexture call.
type RequestOption func(*request)

// WithContent supplies the raw bytes inline, bypassing the fetch
// collaborator.
func WithContent(data []byte) RequestOption {
	return func(r *request) { r.content = data }
}

// WithBudget caps the texture at n pixels; larger images are downscaled
// with a smoothing filter before the usage transform runs. Defaults to the
// cache-wide budget.
func WithBudget(n int) RequestOption {
	return func(r *request) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// WithTransform injects the decode transform for model.CustomTexture
// requests. Ignored for other types.
func WithTransform(fn texture.TransformFunc) RequestOption {
	return func(r *request) { r.transform = fn }
}

// TextureResource is the per-URL state machine owning a pending or ready
// texture. Resources are created by TextureCache.GetTexture and resolve
// asynchronously; all methods are safe for concurrent use.
type TextureResource struct {
	cache     *TextureCache
	url       string
	typ       model.TextureType
	maxPixels int
	transform texture.TransformFunc

	mu       sync.Mutex
	state    State
	tex      *texture.Texture
	origW    int
	origH    int
	err      error
	released bool

	done chan struct{}
}

func newResource(c *TextureCache, rawURL string, typ model.TextureType, req request) *TextureResource {
	maxPixels := req.maxPixels
	if maxPixels <= 0 {
		maxPixels = c.opts.maxPixels
	}
	var fn texture.TransformFunc
	if typ == model.CustomTexture {
		fn = req.transform
	} else {
		fn, _ = texture.ForType(typ)
	}
	return &TextureResource{
		cache:     c,
		url:       rawURL,
		typ:       typ,
		maxPixels: maxPixels,
		transform: fn,
		state:     StateCreated,
		done:      make(chan struct{}),
	}
}

// URL returns the resource's source URL.
func (r *TextureResource) URL() string { return r.url }

// Type returns the declared usage type.
func (r *TextureResource) Type() model.TextureType { return r.typ }

// State returns the current lifecycle state.
func (r *TextureResource) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Texture returns the resolved texture. ok is false until the resource is
// Ready; a Ready empty resource (invalid URL) reports ok with a nil
// texture.
func (r *TextureResource) Texture() (tex *texture.Texture, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tex, r.state == StateReady
}

// Dimensions returns the final texture dimensions, zero until Ready.
func (r *TextureResource) Dimensions() (w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tex == nil {
		return 0, 0
	}
	return r.tex.Width(), r.tex.Height()
}

// OriginalDimensions returns the source image dimensions before any
// pixel-budget downscale, zero until Ready.
func (r *TextureResource) OriginalDimensions() (w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.origW, r.origH
}

// Err returns the terminal error, non-nil only in StateFailed.
func (r *TextureResource) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Fallback returns the constant texture consumers should render while this
// resource is not Ready, or after it Failed. Nil for custom textures.
func (r *TextureResource) Fallback() *texture.Texture {
	return texture.Fallback(r.typ)
}

// Done returns a channel closed when the resource reaches Ready or Failed.
func (r *TextureResource) Done() <-chan struct{} { return r.done }

// Wait blocks until the resource resolves or ctx ends. It returns the
// resource's terminal error, nil on Ready.
func (r *TextureResource) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release abandons interest in the resource. A decode still in flight
// completes its cache side effects but skips delivery. Release is
// idempotent and does not disturb textures other resources share.
func (r *TextureResource) Release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	r.mu.Unlock()
	r.cache.release(r)
}

func (r *TextureResource) isReleased() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// setState advances the state machine. Terminal states are sticky.
func (r *TextureResource) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateReady || r.state == StateFailed {
		return
	}
	r.state = s
}

// deliver installs the resolved texture and moves to Ready. Safe to call
// from any goroutine; readers observing the previous value are unaffected
// because installation happens under the resource lock and textures are
// immutable.
func (r *TextureResource) deliver(tex *texture.Texture, origW, origH int) {
	r.mu.Lock()
	if r.state == StateReady || r.state == StateFailed {
		r.mu.Unlock()
		return
	}
	r.tex = tex
	r.origW = origW
	r.origH = origH
	r.state = StateReady
	r.mu.Unlock()
	close(r.done)

	if fn := r.cache.opts.onReady; fn != nil {
		fn(r)
	}
}

// fail moves to Failed with err. Terminal.
func (r *TextureResource) fail(err error) {
	r.mu.Lock()
	if r.state == StateReady || r.state == StateFailed {
		r.mu.Unlock()
		return
	}
	r.err = err
	r.state = StateFailed
	r.mu.Unlock()
	close(r.done)
}

// run acquires content bytes and routes them through the cache layers.
// Executed on its own goroutine.
func (r *TextureResource) run(content []byte) {
	if len(content) == 0 {
		if !validURL(r.url) {
			// Explicit empty resource: ready with no texture.
			r.deliver(nil, 0, 0)
			return
		}
		r.setState(StateAwaitingContent)
		fetcher := r.cache.opts.fetcher
		if fetcher == nil {
			r.fail(&FetchError{URL: r.url, cause: ErrNoFetcher})
			return
		}
		data, err := fetcher.Fetch(r.cache.ctx, r.url)
		if err != nil {
			r.cache.logger.Warn("texture fetch failed", "url", r.url, "error", err)
			r.fail(&FetchError{URL: r.url, cause: err})
			return
		}
		content = data
	}
	r.loadContent(content)
}

// loadContent hashes content and resolves it against the live registry and
// the disk cache before scheduling a full decode.
func (r *TextureResource) loadContent(content []byte) {
	c := r.cache
	r.setState(StateContentReady)
	hash := model.HashContent(content)

	if tex := c.registry.Lookup(hash); tex != nil {
		c.stats.liveHits.Add(1)
		r.setState(StateLiveHit)
		ow, oh := tex.OriginalDimensions()
		r.deliver(tex, ow, oh)
		return
	}

	if entry, ok := c.disk.Get(hash); ok {
		if tex := r.loadFromDisk(entry.Bytes()); tex != nil {
			c.stats.diskHits.Add(1)
			r.setState(StateDiskHit)
			// A decode elsewhere may have raced ahead; converge on the
			// registered winner.
			tex = c.registry.InsertOrAdopt(hash, tex)
			ow, oh := tex.OriginalDimensions()
			r.deliver(tex, ow, oh)
			return
		}
		c.stats.corruptMisses.Add(1)
	}

	r.setState(StateDecoding)
	c.scheduleDecode(r, hash, content)
}

// loadFromDisk deserializes a disk entry, treating any failure as a miss.
func (r *TextureResource) loadFromDisk(data []byte, err error) *texture.Texture {
	if err != nil {
		r.cache.logger.Warn("disk cache read failed", "url", r.url, "error", err)
		return nil
	}
	tex, err := texture.Deserialize(data, r.url)
	if err != nil {
		r.cache.logger.Warn("disk cache entry corrupt, falling back to decode",
			"url", r.url, "error", err)
		return nil
	}
	return tex
}

// validURL reports whether rawURL can name fetchable content.
func validURL(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	_, err := url.Parse(rawURL)
	return err == nil
}

// extHint extracts the lowercase filename extension from a URL, without
// the dot. Used to disambiguate image formats that carry no magic bytes.
func extHint(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
