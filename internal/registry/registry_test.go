package registry

import (
	"image"
	"image/color"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/texture"
)

func solidNRGBA(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xFF})
		}
	}
	return img
}

func TestRegistryLookupMiss(t *testing.T) {
	r := New()
	assert.Nil(t, r.Lookup(model.HashContent([]byte("absent"))))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryInsertOrAdopt(t *testing.T) {
	r := New()
	hash := model.HashContent([]byte("content"))

	first, err := texture.New2DTexture(solidNRGBA(4, 4, 10), "first")
	require.NoError(t, err)
	second, err := texture.New2DTexture(solidNRGBA(4, 4, 200), "second")
	require.NoError(t, err)

	// First registration wins.
	got := r.InsertOrAdopt(hash, first)
	assert.Same(t, first, got)

	// A later candidate for the same hash is discarded in favor of the
	// live winner.
	got = r.InsertOrAdopt(hash, second)
	assert.Same(t, first, got)

	assert.Same(t, first, r.Lookup(hash))
	assert.Equal(t, 1, r.Len())

	runtime.KeepAlive(first)
	runtime.KeepAlive(second)
}

func TestRegistryDistinctHashes(t *testing.T) {
	r := New()
	a, err := texture.New2DTexture(solidNRGBA(2, 2, 1), "a")
	require.NoError(t, err)
	b, err := texture.New2DTexture(solidNRGBA(2, 2, 2), "b")
	require.NoError(t, err)

	ha := model.HashContent([]byte("a"))
	hb := model.HashContent([]byte("b"))
	r.InsertOrAdopt(ha, a)
	r.InsertOrAdopt(hb, b)

	assert.Same(t, a, r.Lookup(ha))
	assert.Same(t, b, r.Lookup(hb))
	assert.Equal(t, 2, r.Len())

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestRegistryDropsUnreachableEntries(t *testing.T) {
	r := New()
	hash := model.HashContent([]byte("transient"))

	func() {
		tex, err := texture.New2DTexture(solidNRGBA(4, 4, 33), "transient")
		require.NoError(t, err)
		r.InsertOrAdopt(hash, tex)
		assert.Same(t, tex, r.Lookup(hash))
	}()

	// No strong reference remains; after collection the entry is stale
	// and a new candidate takes the slot.
	runtime.GC()
	runtime.GC()
	assert.Nil(t, r.Lookup(hash))
	assert.Equal(t, 0, r.Len())

	replacement, err := texture.New2DTexture(solidNRGBA(4, 4, 77), "replacement")
	require.NoError(t, err)
	got := r.InsertOrAdopt(hash, replacement)
	assert.Same(t, replacement, got)

	runtime.KeepAlive(replacement)
}
