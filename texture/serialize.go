package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Container format constants.
const (
	// containerMagic identifies texgo container files (ASCII "TEXC").
	containerMagic = 0x54455843
	// containerVersion is the current container format version.
	containerVersion = 0x00010000
	// maxContainerDim bounds header dimensions so that payload size
	// arithmetic on untrusted containers cannot overflow and corrupt
	// headers cannot drive huge allocations.
	maxContainerDim = 65536
)

// Codec selects how the mip payload section is stored on disk.
type Codec uint8

const (
	// CodecNone stores the payload uncompressed.
	CodecNone Codec = 0
	// CodecLZ4 stores the payload LZ4 block compressed (fast).
	CodecLZ4 Codec = 1
	// CodecZSTD stores the payload ZSTD compressed (better ratio).
	CodecZSTD Codec = 2
)

// DefaultCodec is used by Serialize when the caller has no preference.
const DefaultCodec = CodecZSTD

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

var (
	// ErrInvalidMagic is returned for data that is not a texgo container.
	ErrInvalidMagic = errors.New("invalid container magic")
	// ErrInvalidVersion is returned for unsupported container versions.
	ErrInvalidVersion = errors.New("unsupported container version")
	// ErrChecksumMismatch is returned when the payload fails verification.
	ErrChecksumMismatch = errors.New("container checksum mismatch")
)

// crcTable is precomputed for the Castagnoli polynomial (hardware
// accelerated on x86 and ARM).
var crcTable = crc32.MakeTable(crc32.Castagnoli)

// fileHeader is the fixed 40-byte container header.
type fileHeader struct {
	Magic      uint32
	Version    uint32
	Format     uint32
	ColorSpace uint8
	Faces      uint8
	Codec      uint8
	_          uint8
	Width      uint32
	Height     uint32
	MipCount   uint16
	IrrCount   uint16
	Checksum   uint32 // CRC32-C of the uncompressed payload
	OrigWidth  uint32 // source dimensions before any pixel budget clamp
	OrigHeight uint32 // zero in both means same as Width/Height
}

// mipEntry is one mip directory record. Offset and Length address the
// uncompressed payload.
type mipEntry struct {
	Offset uint64
	Length uint64
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Serialize produces the byte-exact container representation of t:
// header, mip directory, irradiance block, payload. The payload holds the
// mip bytes in level order and is compressed per codec; mip directory
// ranges always refer to the uncompressed payload, so round-trips are
// bit-exact regardless of codec.
func Serialize(t *Texture, codec Codec) ([]byte, error) {
	if t == nil {
		return nil, errors.New("serialize nil texture")
	}
	if len(t.mips) > math.MaxUint16 {
		return nil, fmt.Errorf("mip count %d exceeds container limit", len(t.mips))
	}

	payload := make([]byte, 0, t.StoredSize())
	dir := make([]mipEntry, len(t.mips))
	for i, m := range t.mips {
		dir[i] = mipEntry{Offset: uint64(len(payload)), Length: uint64(len(m))}
		payload = append(payload, m...)
	}

	stored, err := compressPayload(payload, codec)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	hdr := fileHeader{
		Magic:      containerMagic,
		Version:    containerVersion,
		Format:     uint32(t.format),
		ColorSpace: uint8(t.space),
		Faces:      uint8(t.faces),
		Codec:      uint8(codec),
		Width:      uint32(t.width),
		Height:     uint32(t.height),
		MipCount:   uint16(len(t.mips)),
		IrrCount:   uint16(len(t.irr)),
		Checksum:   crc32.Checksum(payload, crcTable),
		OrigWidth:  uint32(t.origWidth),
		OrigHeight: uint32(t.origHeight),
	}

	var buf bytes.Buffer
	buf.Grow(64 + len(dir)*16 + len(t.irr)*4 + len(stored))
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, dir); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, t.irr); err != nil {
		return nil, err
	}
	buf.Write(stored)
	return buf.Bytes(), nil
}

// Deserialize restores a Texture from its container representation.
// The source field is not persisted; pass the origin for diagnostics.
func Deserialize(data []byte, source string) (*Texture, error) {
	r := bytes.NewReader(data)

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read container header: %w", err)
	}
	if hdr.Magic != containerMagic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != containerVersion {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}
	want, err := expectedPayloadSize(hdr)
	if err != nil {
		return nil, err
	}

	dir := make([]mipEntry, hdr.MipCount)
	if err := binary.Read(r, binary.LittleEndian, dir); err != nil {
		return nil, fmt.Errorf("read mip directory: %w", err)
	}

	var irr []float32
	if hdr.IrrCount > 0 {
		irr = make([]float32, hdr.IrrCount)
		if err := binary.Read(r, binary.LittleEndian, irr); err != nil {
			return nil, fmt.Errorf("read irradiance block: %w", err)
		}
	}

	stored := data[len(data)-r.Len():]
	payload, err := decompressPayload(stored, Codec(hdr.Codec), want)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	if crc32.Checksum(payload, crcTable) != hdr.Checksum {
		return nil, ErrChecksumMismatch
	}

	mips := make([][]byte, hdr.MipCount)
	for i, e := range dir {
		// The two-clause form stays correct when Offset+Length would
		// wrap around uint64.
		if e.Offset > uint64(len(payload)) || e.Length > uint64(len(payload))-e.Offset {
			return nil, fmt.Errorf("mip %d range [offset %d, length %d] outside payload of %d bytes",
				i, e.Offset, e.Length, len(payload))
		}
		mips[i] = payload[e.Offset : e.Offset+e.Length : e.Offset+e.Length]
	}

	tex, err := newTexture(int(hdr.Width), int(hdr.Height), gputypes.TextureFormat(hdr.Format),
		ColorSpace(hdr.ColorSpace), int(hdr.Faces), mips, irr, source)
	if err != nil {
		return nil, err
	}
	if hdr.OrigWidth > 0 && hdr.OrigHeight > 0 {
		tex.origWidth = int(hdr.OrigWidth)
		tex.origHeight = int(hdr.OrigHeight)
	}
	return tex, nil
}

// expectedPayloadSize derives the uncompressed payload size from the
// header geometry. Serialize always writes a full mip chain slice per
// face, so the sum over declared mip levels is exact. Rejecting
// implausible headers here keeps decompression from allocating
// attacker-chosen amounts for corrupt containers.
func expectedPayloadSize(hdr fileHeader) (uint64, error) {
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > maxContainerDim || hdr.Height > maxContainerDim {
		return 0, fmt.Errorf("implausible container dimensions %dx%d", hdr.Width, hdr.Height)
	}
	if hdr.Faces != 1 && hdr.Faces != 6 {
		return 0, fmt.Errorf("implausible container face count %d", hdr.Faces)
	}
	if hdr.MipCount == 0 {
		return 0, errors.New("container declares no mip levels")
	}
	bpp := uint64(BytesPerPixel(gputypes.TextureFormat(hdr.Format)))
	w, h := uint64(hdr.Width), uint64(hdr.Height)
	var total uint64
	for i := 0; i < int(hdr.MipCount); i++ {
		total += w * h * bpp * uint64(hdr.Faces)
		if w == 1 && h == 1 {
			if i != int(hdr.MipCount)-1 {
				return 0, fmt.Errorf("container declares %d mip levels for %dx%d", hdr.MipCount, hdr.Width, hdr.Height)
			}
			break
		}
		w = max(w/2, 1)
		h = max(h/2, 1)
	}
	return total, nil
}

func compressPayload(payload []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return payload, nil
	case CodecLZ4:
		bound := lz4.CompressBlockBound(len(payload))
		dst := make([]byte, 8+bound)
		binary.LittleEndian.PutUint64(dst, uint64(len(payload)))
		n, err := lz4.CompressBlock(payload, dst[8:], nil)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(payload) {
			// Incompressible; fall back to a stored block. The reader
			// detects this by body length == uncompressed length.
			copy(dst[8:], payload)
			n = len(payload)
		}
		return dst[:8+n], nil
	case CodecZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		dst := make([]byte, 8, 8+len(payload)/2)
		binary.LittleEndian.PutUint64(dst, uint64(len(payload)))
		return enc.EncodeAll(payload, dst), nil
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}
}

// decompressPayload expands the stored payload section. want is the
// payload size implied by the container header; a size prefix that
// disagrees marks the container corrupt, and nothing larger is ever
// allocated.
func decompressPayload(stored []byte, codec Codec, want uint64) ([]byte, error) {
	if codec == CodecNone {
		if uint64(len(stored)) != want {
			return nil, fmt.Errorf("stored payload is %d bytes, header implies %d", len(stored), want)
		}
		return stored, nil
	}
	if len(stored) < 8 {
		return nil, errors.New("payload section too small")
	}
	size := binary.LittleEndian.Uint64(stored)
	if size != want {
		return nil, fmt.Errorf("payload size prefix %d disagrees with header geometry (%d bytes)", size, want)
	}
	body := stored[8:]

	switch codec {
	case CodecLZ4:
		if uint64(len(body)) == size {
			// Stored block (incompressible input).
			return body, nil
		}
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case CodecZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(body, make([]byte, 0, size))
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}
}
