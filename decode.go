package texgo

import (
	"weak"

	"github.com/hupe1980/texgo/internal/pool"
	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/texture"
)

// decodeRequest carries everything a decode task needs, so the task never
// has to touch the originating resource except through its weak reference.
type decodeRequest struct {
	url       string
	typ       model.TextureType
	hash      model.ContentHash
	content   []byte
	maxPixels int
	transform texture.TransformFunc
}

// scheduleDecode submits a decode pipeline task for r. The task holds only
// a weak reference to the resource: releasing the resource mid-decode
// abandons delivery but keeps the cache side effects.
func (c *TextureCache) scheduleDecode(r *TextureResource, hash model.ContentHash, content []byte) {
	req := decodeRequest{
		url:       r.url,
		typ:       r.typ,
		hash:      hash,
		content:   content,
		maxPixels: r.maxPixels,
		transform: r.transform,
	}
	wp := weak.Make(r)
	if err := c.pool.Submit(c.ctx, func() { c.runDecode(wp, req) }); err != nil {
		if err == pool.ErrClosed {
			r.fail(ErrClosed)
			return
		}
		r.fail(err)
	}
}

// runDecode executes one decode pipeline task on a worker goroutine:
// parse, clamp to the pixel budget, apply the usage transform, persist the
// container, reconcile with the live registry and deliver the winner.
func (c *TextureCache) runDecode(wp weak.Pointer[TextureResource], req decodeRequest) {
	if c.requester(wp) == nil {
		c.stats.abandoned.Add(1)
		c.logger.Debug("abandoning decode, resource gone", "url", req.url)
		return
	}

	img, err := texture.DecodeImage(req.content, extHint(req.url))
	if err != nil {
		c.failDecode(wp, req, err)
		return
	}
	origW, origH := img.Bounds().Dx(), img.Bounds().Dy()

	if clamped := texture.ClampPixels(img, req.maxPixels); clamped != img {
		nb := clamped.Bounds()
		c.logger.Debug("downscaled texture",
			"url", req.url,
			"from", origW*origH,
			"to", nb.Dx()*nb.Dy(),
		)
		img = clamped
	}

	tex, err := req.transform(img, req.url)
	if err != nil {
		c.failDecode(wp, req, err)
		return
	}
	// Record the pre-clamp dimensions so later live and disk hits report
	// the same originals as this first decode.
	tex = tex.WithOriginalSize(origW, origH)
	c.stats.decodes.Add(1)

	// Persist the container. Serialization and disk failures are logged
	// and non-fatal; the texture is still delivered from memory.
	if data, err := texture.Serialize(tex, c.opts.codec); err != nil {
		c.logger.Warn("texture serialization failed", "url", req.url, "error", err)
	} else if _, err := c.disk.Write(c.ctx, req.hash, data); err != nil {
		c.stats.writeErrors.Add(1)
		c.logger.Warn("disk cache write failed", "url", req.url, "error", err)
	}

	// Sole race-resolution point: converge on whichever decode for this
	// hash registered first.
	final := c.registry.InsertOrAdopt(req.hash, tex)
	if final != tex {
		c.stats.adoptions.Add(1)
	}

	res := c.requester(wp)
	if res == nil {
		c.stats.abandoned.Add(1)
		c.logger.Debug("decode finished for released resource", "url", req.url)
		return
	}
	res.deliver(final, origW, origH)
}

// failDecode marks the originating resource failed, if it still exists.
func (c *TextureCache) failDecode(wp weak.Pointer[TextureResource], req decodeRequest, err error) {
	c.stats.decodeErrors.Add(1)
	c.logger.Warn("texture decode failed", "url", req.url, "type", req.typ.String(), "error", err)
	if res := c.requester(wp); res != nil {
		res.fail(&DecodeError{URL: req.url, cause: err})
	}
}

// requester resolves the weak back-reference, treating a released resource
// the same as a collected one.
func (c *TextureCache) requester(wp weak.Pointer[TextureResource]) *TextureResource {
	res := wp.Value()
	if res == nil || res.isReleased() {
		return nil
	}
	return res
}
