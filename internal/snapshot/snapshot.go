package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/bitgo/codec"
	"github.com/hupe1980/bitgo/internal/hash"
)

const (
	// Version is the current framing version.
	Version = 1

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 28

	// MaxRawLen bounds the decoded size of a frame. The portable form of a
	// full 32-bit roaring bitmap stays well below it.
	MaxRawLen = 1 << 30

	// checksumOffset is where the CRC32C sits; it covers the header bytes
	// before it and the payload.
	checksumOffset = 24

	// maxLZ4Ratio is the largest expansion an LZ4 block can encode.
	maxLZ4Ratio = 255
)

var magic = [4]byte{'B', 'G', 'S', '1'}

// ErrCorrupt is returned when a frame fails validation.
var ErrCorrupt = errors.New("corrupt snapshot")

// Header describes a framed bitmap.
type Header struct {
	Version     uint8
	Compression codec.Compression
	RawLen      uint64
	PayloadLen  uint64
	Checksum    uint32
}

// Encode frames raw (portable roaring bytes) compressed with c. The header
// records the compression actually applied, which is CompressionNone for
// empty input or when LZ4 reports the payload incompressible.
func Encode(raw []byte, c codec.Compression) ([]byte, error) {
	payload, used, err := codec.Compress(c, raw)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", c, err)
	}

	out := make([]byte, HeaderSize+len(payload))
	copy(out[0:4], magic[:])
	out[4] = Version
	out[5] = byte(used)
	binary.LittleEndian.PutUint16(out[6:], 0)
	binary.LittleEndian.PutUint64(out[8:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(out[16:], uint64(len(payload)))
	copy(out[HeaderSize:], payload)
	binary.LittleEndian.PutUint32(out[checksumOffset:], checksum(out))
	return out, nil
}

func checksum(frame []byte) uint32 {
	return hash.Update(hash.CRC32C(frame[:checksumOffset]), frame[HeaderSize:])
}

// ParseHeader validates and returns the header of a frame.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if [4]byte(data[0:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	h := Header{
		Version:     data[4],
		Compression: codec.Compression(data[5]),
		RawLen:      binary.LittleEndian.Uint64(data[8:]),
		PayloadLen:  binary.LittleEndian.Uint64(data[16:]),
		Checksum:    binary.LittleEndian.Uint32(data[checksumOffset:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	}
	if !h.Compression.Valid() {
		return Header{}, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, h.Compression)
	}
	if err := checkRawLen(h); err != nil {
		return Header{}, err
	}
	return h, nil
}

// checkRawLen rejects decoded sizes the payload cannot produce, before
// anything is allocated for them.
func checkRawLen(h Header) error {
	if h.RawLen > MaxRawLen {
		return fmt.Errorf("%w: raw length %d exceeds %d", ErrCorrupt, h.RawLen, MaxRawLen)
	}
	switch h.Compression {
	case codec.CompressionNone:
		if h.RawLen != h.PayloadLen {
			return fmt.Errorf("%w: raw length %d, payload is %d", ErrCorrupt, h.RawLen, h.PayloadLen)
		}
	case codec.CompressionLZ4:
		if (h.RawLen+maxLZ4Ratio-1)/maxLZ4Ratio > h.PayloadLen {
			return fmt.Errorf("%w: raw length %d from %d lz4 bytes", ErrCorrupt, h.RawLen, h.PayloadLen)
		}
	}
	return nil
}

// Decode validates a frame and returns the portable roaring bytes.
func Decode(data []byte) ([]byte, Header, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, Header{}, err
	}

	payload := data[HeaderSize:]
	if uint64(len(payload)) != h.PayloadLen {
		return nil, Header{}, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), h.PayloadLen)
	}
	if sum := checksum(data); sum != h.Checksum {
		return nil, Header{}, fmt.Errorf("%w: checksum %08x, header says %08x", ErrCorrupt, sum, h.Checksum)
	}

	raw, err := codec.Decompress(h.Compression, payload, h.RawLen)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return raw, h, nil
}
