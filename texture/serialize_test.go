package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/texgo/testutil"
)

func TestSerializeRoundTrip(t *testing.T) {
	src, err := NewAlbedoTexture(testutil.Gradient(64, 32), "test://gradient")
	require.NoError(t, err)

	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			data, err := Serialize(src, codec)
			require.NoError(t, err)

			got, err := Deserialize(data, "test://gradient")
			require.NoError(t, err)

			assert.Equal(t, src.Width(), got.Width())
			assert.Equal(t, src.Height(), got.Height())
			assert.Equal(t, src.Format(), got.Format())
			assert.Equal(t, src.ColorSpace(), got.ColorSpace())
			assert.Equal(t, src.Faces(), got.Faces())
			require.Equal(t, src.MipCount(), got.MipCount())
			for i := 0; i < src.MipCount(); i++ {
				assert.Equal(t, src.Mip(i), got.Mip(i), "mip %d", i)
			}
			assert.Empty(t, got.Irradiance())
		})
	}
}

func TestSerializePreservesOriginalDimensions(t *testing.T) {
	src, err := New2DTexture(testutil.Gradient(32, 32), "")
	require.NoError(t, err)
	src = src.WithOriginalSize(128, 96)

	data, err := Serialize(src, CodecZSTD)
	require.NoError(t, err)

	got, err := Deserialize(data, "")
	require.NoError(t, err)
	ow, oh := got.OriginalDimensions()
	assert.Equal(t, 128, ow)
	assert.Equal(t, 96, oh)

	// Unclamped textures report their own size.
	plain, err := New2DTexture(testutil.Gradient(32, 32), "")
	require.NoError(t, err)
	ow, oh = plain.OriginalDimensions()
	assert.Equal(t, 32, ow)
	assert.Equal(t, 32, oh)
}

func TestSerializeCube(t *testing.T) {
	src, err := NewCubeTexture(testutil.HorizontalCross(16), "test://cube", true)
	require.NoError(t, err)
	require.Len(t, src.Irradiance(), 27)

	data, err := Serialize(src, CodecZSTD)
	require.NoError(t, err)

	got, err := Deserialize(data, "test://cube")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Faces())
	assert.Equal(t, 16, got.Width())
	require.Len(t, got.Irradiance(), 27)
	assert.Equal(t, src.Irradiance(), got.Irradiance())
	assert.Equal(t, src.Mip(0), got.Mip(0))
}

func TestSerializeSingleChannel(t *testing.T) {
	src, err := NewRoughnessTexture(testutil.Gradient(16, 16), "")
	require.NoError(t, err)

	data, err := Serialize(src, CodecLZ4)
	require.NoError(t, err)

	got, err := Deserialize(data, "")
	require.NoError(t, err)
	assert.Equal(t, src.Format(), got.Format())
	assert.Equal(t, src.Mip(0), got.Mip(0))
}

func TestDeserializeRejectsCorruption(t *testing.T) {
	src, err := New2DTexture(testutil.Gradient(32, 32), "")
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		data, err := Serialize(src, CodecNone)
		require.NoError(t, err)
		data[0] ^= 0xFF
		_, err = Deserialize(data, "")
		assert.Error(t, err)
	})

	t.Run("payload flip fails checksum", func(t *testing.T) {
		data, err := Serialize(src, CodecNone)
		require.NoError(t, err)
		data[len(data)-1] ^= 0xFF
		_, err = Deserialize(data, "")
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		data, err := Serialize(src, CodecZSTD)
		require.NoError(t, err)
		for _, n := range []int{0, 8, 39, len(data) / 2} {
			_, err = Deserialize(data[:n], "")
			assert.Error(t, err, "length %d", n)
		}
	})

	t.Run("unknown codec byte", func(t *testing.T) {
		_, err := Serialize(src, Codec(9))
		assert.Error(t, err)
	})

	// The mip directory starts right after the 40-byte header. A
	// maximal offset would wrap a naive offset+length bounds check
	// around uint64 and slice out of range.
	t.Run("wrapping mip directory offset", func(t *testing.T) {
		data, err := Serialize(src, CodecNone)
		require.NoError(t, err)
		for i := 40; i < 48; i++ {
			data[i] = 0xFF
		}
		_, err = Deserialize(data, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside payload")
	})

	t.Run("mip directory length past payload", func(t *testing.T) {
		data, err := Serialize(src, CodecNone)
		require.NoError(t, err)
		for i := 48; i < 56; i++ {
			data[i] = 0xFF
		}
		_, err = Deserialize(data, "")
		assert.Error(t, err)
	})

	// The payload size prefix must agree with the geometry the header
	// declares; a corrupt prefix is rejected before any allocation.
	t.Run("corrupt size prefix", func(t *testing.T) {
		for _, codec := range []Codec{CodecLZ4, CodecZSTD} {
			t.Run(codec.String(), func(t *testing.T) {
				data, err := Serialize(src, codec)
				require.NoError(t, err)
				prefix := 40 + 16*src.MipCount()
				for i := prefix; i < prefix+8; i++ {
					data[i] = 0xFF
				}
				_, err = Deserialize(data, "")
				require.Error(t, err)
				assert.Contains(t, err.Error(), "size prefix")
			})
		}
	})

	t.Run("implausible header dimensions", func(t *testing.T) {
		data, err := Serialize(src, CodecZSTD)
		require.NoError(t, err)
		for i := 16; i < 24; i++ { // Width and Height fields
			data[i] = 0xFF
		}
		_, err = Deserialize(data, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "implausible")
	})
}
