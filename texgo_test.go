package texgo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/texgo/fetch"
	"github.com/hupe1980/texgo/internal/fs"
	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/testutil"
	"github.com/hupe1980/texgo/texture"
)

func newTestCache(t *testing.T, opts ...Option) *TextureCache {
	t.Helper()
	opts = append([]Option{WithLogger(NoopLogger())}, opts...)
	c, err := New(context.Background(), t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitReady(t *testing.T, r *TextureResource) *texture.Texture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
	tex, ok := r.Texture()
	require.True(t, ok)
	return tex
}

func TestGetTextureWithContent(t *testing.T) {
	c := newTestCache(t)

	content := testutil.GradientPNG(32, 16)
	r := c.GetTexture("mem://gradient.png", model.AlbedoTexture, WithContent(content))

	tex := waitReady(t, r)
	require.NotNil(t, tex)
	assert.Equal(t, 32, tex.Width())
	assert.Equal(t, 16, tex.Height())
	assert.Equal(t, StateReady, r.State())

	w, h := r.OriginalDimensions()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Decodes)
	assert.Equal(t, 1, stats.DiskEntries)
}

func TestGetTextureDedup(t *testing.T) {
	c := newTestCache(t)
	content := testutil.GradientPNG(8, 8)

	a := c.GetTexture("mem://same.png", model.DefaultTexture, WithContent(content))
	b := c.GetTexture("mem://same.png", model.DefaultTexture, WithContent(content))
	assert.Same(t, a, b)

	// A different usage type is a different resource.
	n := c.GetTexture("mem://same.png", model.NormalTexture, WithContent(content))
	assert.NotSame(t, a, n)
}

func TestGetTextureConcurrentDedup(t *testing.T) {
	c := newTestCache(t)
	content := testutil.GradientPNG(64, 64)

	first := c.GetTexture("mem://conc.png", model.AlbedoTexture, WithContent(content))

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			r := c.GetTexture("mem://conc.png", model.AlbedoTexture, WithContent(content))
			if r != first {
				return assert.AnError
			}
			return r.Wait(context.Background())
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), c.Stats().Decodes)
}

func TestLiveHitAcrossURLs(t *testing.T) {
	c := newTestCache(t)
	content := testutil.GradientPNG(16, 16)

	a := c.GetTexture("mem://a.png", model.AlbedoTexture, WithContent(content))
	texA := waitReady(t, a)

	// Same bytes behind a different URL resolve to the identical texture
	// without another decode.
	b := c.GetTexture("mem://b.png", model.AlbedoTexture, WithContent(content))
	texB := waitReady(t, b)

	assert.Same(t, texA, texB)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Decodes)
	assert.Equal(t, int64(1), stats.LiveHits)
	assert.Equal(t, 1, stats.LiveTextures)
}

func TestDiskHitAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	content := testutil.GradientPNG(24, 24)

	c1, err := New(context.Background(), dir, WithLogger(NoopLogger()))
	require.NoError(t, err)
	r1 := c1.GetTexture("mem://persisted.png", model.AlbedoTexture, WithContent(content))
	tex1 := waitReady(t, r1)
	require.NoError(t, c1.Close())

	c2, err := New(context.Background(), dir, WithLogger(NoopLogger()))
	require.NoError(t, err)
	defer c2.Close()
	require.Equal(t, 1, c2.Stats().DiskEntries)

	r2 := c2.GetTexture("mem://persisted.png", model.AlbedoTexture, WithContent(content))
	tex2 := waitReady(t, r2)

	assert.Equal(t, StateReady, r2.State())
	stats := c2.Stats()
	assert.Equal(t, int64(1), stats.DiskHits)
	assert.Equal(t, int64(0), stats.Decodes)

	// Byte-exact restore.
	require.Equal(t, tex1.MipCount(), tex2.MipCount())
	assert.Equal(t, tex1.Mip(0), tex2.Mip(0))
	assert.Equal(t, tex1.ColorSpace(), tex2.ColorSpace())
}

func TestOriginalDimensionsSurviveCacheHits(t *testing.T) {
	dir := t.TempDir()
	content := testutil.GradientPNG(64, 64)

	c1, err := New(context.Background(), dir, WithLogger(NoopLogger()))
	require.NoError(t, err)
	r1 := c1.GetTexture("mem://clamped.png", model.AlbedoTexture,
		WithContent(content), WithBudget(1024))
	waitReady(t, r1)

	// A live hit under a different URL still reports the pre-clamp size.
	r2 := c1.GetTexture("mem://clamped-alias.png", model.AlbedoTexture,
		WithContent(content), WithBudget(1024))
	tex2 := waitReady(t, r2)
	assert.Equal(t, 32, tex2.Width())
	ow, oh := r2.OriginalDimensions()
	assert.Equal(t, 64, ow)
	assert.Equal(t, 64, oh)
	require.Equal(t, int64(1), c1.Stats().LiveHits)
	require.NoError(t, c1.Close())

	// A disk hit after a restart restores it from the container header.
	c2, err := New(context.Background(), dir, WithLogger(NoopLogger()))
	require.NoError(t, err)
	defer c2.Close()
	r3 := c2.GetTexture("mem://clamped.png", model.AlbedoTexture,
		WithContent(content), WithBudget(1024))
	tex3 := waitReady(t, r3)
	assert.Equal(t, 32, tex3.Width())
	ow, oh = r3.OriginalDimensions()
	assert.Equal(t, 64, ow)
	assert.Equal(t, 64, oh)
	require.Equal(t, int64(1), c2.Stats().DiskHits)
}

func TestDecodeFailure(t *testing.T) {
	c := newTestCache(t)

	r := c.GetTexture("mem://broken.png", model.AlbedoTexture,
		WithContent([]byte("not an image at all")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := r.Wait(ctx)
	require.Error(t, err)

	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, StateFailed, r.State())
	assert.Equal(t, int64(1), c.Stats().DecodeErrors)

	_, ok := r.Texture()
	assert.False(t, ok)
	assert.Same(t, texture.White(), r.Fallback())
}

func TestFetcherIntegration(t *testing.T) {
	mem := fetch.NewMemory()
	mem.Put("mem://fetched.png", testutil.GradientPNG(10, 10))
	c := newTestCache(t, WithFetcher(mem))

	t.Run("fetch and decode", func(t *testing.T) {
		r := c.GetTexture("mem://fetched.png", model.DefaultTexture)
		tex := waitReady(t, r)
		assert.Equal(t, 10, tex.Width())
	})

	t.Run("fetch failure", func(t *testing.T) {
		r := c.GetTexture("mem://absent.png", model.DefaultTexture)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := r.Wait(ctx)
		require.Error(t, err)

		var ferr *FetchError
		assert.ErrorAs(t, err, &ferr)
		assert.ErrorIs(t, err, fetch.ErrNotFound)
	})
}

func TestNoFetcherConfigured(t *testing.T) {
	c := newTestCache(t)

	r := c.GetTexture("https://example.com/tex.png", model.DefaultTexture)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := r.Wait(ctx)
	assert.ErrorIs(t, err, ErrNoFetcher)
}

func TestEmptyURLResource(t *testing.T) {
	c := newTestCache(t)

	r := c.GetTexture("", model.DefaultTexture)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))

	tex, ok := r.Texture()
	assert.True(t, ok)
	assert.Nil(t, tex)
	assert.Equal(t, StateReady, r.State())
}

func TestCustomTexture(t *testing.T) {
	c := newTestCache(t)

	t.Run("panics without transform", func(t *testing.T) {
		assert.Panics(t, func() {
			c.GetTexture("mem://custom.png", model.CustomTexture)
		})
	})

	t.Run("runs the supplied transform", func(t *testing.T) {
		r := c.GetTexture("mem://custom.png", model.CustomTexture,
			WithContent(testutil.GradientPNG(8, 8)),
			WithTransform(texture.NewStrict2DTexture),
		)
		tex := waitReady(t, r)
		assert.Equal(t, texture.ColorSpaceSRGB, tex.ColorSpace())
	})

	t.Run("no fallback", func(t *testing.T) {
		assert.Nil(t, c.GetFallbackTexture(model.CustomTexture))
	})
}

func TestFallbackTextures(t *testing.T) {
	c := newTestCache(t)

	assert.Same(t, texture.White(), c.GetFallbackTexture(model.AlbedoTexture))
	assert.Same(t, texture.Blue(), c.GetFallbackTexture(model.NormalTexture))
	assert.Same(t, texture.Black(), c.GetFallbackTexture(model.EmissiveTexture))
	assert.Same(t, texture.Black(), c.GetFallbackTexture(model.LightmapTexture))
}

func TestPixelBudget(t *testing.T) {
	c := newTestCache(t)

	r := c.GetTexture("mem://big.png", model.AlbedoTexture,
		WithContent(testutil.GradientPNG(64, 64)),
		WithBudget(1024),
	)
	tex := waitReady(t, r)

	assert.Equal(t, 32, tex.Width())
	assert.Equal(t, 32, tex.Height())
	ow, oh := r.OriginalDimensions()
	assert.Equal(t, 64, ow)
	assert.Equal(t, 64, oh)
}

func TestHashAPI(t *testing.T) {
	c := newTestCache(t)

	content := testutil.GradientPNG(12, 12)
	hash := model.HashContent(content)
	assert.Nil(t, c.GetTextureByHash(hash))

	r := c.GetTexture("mem://hashed.png", model.AlbedoTexture, WithContent(content))
	tex := waitReady(t, r)

	assert.Same(t, tex, c.GetTextureByHash(hash))

	// Registering under an occupied hash adopts the live winner.
	other, err := texture.New2DTexture(testutil.Gradient(4, 4), "other")
	require.NoError(t, err)
	assert.Same(t, tex, c.CacheTextureByHash(hash, other))
}

func TestReadyCallback(t *testing.T) {
	ready := make(chan *TextureResource, 1)
	c := newTestCache(t, WithReadyCallback(func(r *TextureResource) {
		ready <- r
	}))

	r := c.GetTexture("mem://cb.png", model.AlbedoTexture,
		WithContent(testutil.GradientPNG(8, 8)))
	waitReady(t, r)

	select {
	case got := <-ready:
		assert.Same(t, r, got)
	case <-time.After(5 * time.Second):
		t.Fatal("ready callback never fired")
	}
}

func TestDiskWriteFailureNonFatal(t *testing.T) {
	faulty := fs.NewFaultyFS(nil)
	faulty.FailWrites(".texc")
	c := newTestCache(t, withFileSystem(faulty))

	r := c.GetTexture("mem://unwritable.png", model.AlbedoTexture,
		WithContent(testutil.GradientPNG(16, 16)))
	tex := waitReady(t, r)

	require.NotNil(t, tex)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.WriteErrors)
	assert.Equal(t, 0, stats.DiskEntries)
}

func TestCorruptDiskEntryFallsBackToDecode(t *testing.T) {
	dir := t.TempDir()
	content := testutil.GradientPNG(8, 8)
	hash := model.HashContent(content)

	// A present-but-garbage entry must count as a miss, not an error.
	name := filepath.Join(dir, hash.String()+".texc")
	require.NoError(t, os.WriteFile(name, []byte("garbage container"), 0o644))

	c, err := New(context.Background(), dir, WithLogger(NoopLogger()))
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, 1, c.Stats().DiskEntries)

	r := c.GetTexture("mem://corrupt.png", model.AlbedoTexture, WithContent(content))
	tex := waitReady(t, r)
	require.NotNil(t, tex)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.CorruptMisses)
	assert.Equal(t, int64(1), stats.Decodes)
	assert.Equal(t, int64(0), stats.DiskHits)

	// The decode rewrote a valid container over the garbage.
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	_, err = texture.Deserialize(data, "")
	assert.NoError(t, err)
}

func TestReleaseDropsDedupEntry(t *testing.T) {
	c := newTestCache(t)
	content := testutil.GradientPNG(8, 8)

	a := c.GetTexture("mem://rel.png", model.AlbedoTexture, WithContent(content))
	waitReady(t, a)
	a.Release()

	b := c.GetTexture("mem://rel.png", model.AlbedoTexture, WithContent(content))
	assert.NotSame(t, a, b)
	waitReady(t, b)
}

func TestPrefetchWarmsCache(t *testing.T) {
	mem := fetch.NewMemory()
	mem.Put("mem://warm.png", testutil.GradientPNG(8, 8))
	c := newTestCache(t, WithFetcher(mem))

	c.Prefetch("mem://warm.png", model.AlbedoTexture)

	r := c.GetTexture("mem://warm.png", model.AlbedoTexture)
	waitReady(t, r)
	assert.Equal(t, int64(1), c.Stats().Decodes)
}

func TestCloseFailsNewRequests(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	r := c.GetTexture("mem://late.png", model.AlbedoTexture,
		WithContent(testutil.GradientPNG(4, 4)))
	assert.Equal(t, StateFailed, r.State())
	assert.ErrorIs(t, r.Err(), ErrClosed)
}
