package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the block compressor applied to a payload.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio, good for cold data).
	CompressionZstd Compression = 2
)

// ErrSizeMismatch is returned when a payload does not decompress to the
// recorded length.
var ErrSizeMismatch = errors.New("decompressed size mismatch")

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	return c <= CompressionZstd
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression returns the compression with the given name.
func ParseCompression(name string) (Compression, bool) {
	switch name {
	case "none", "":
		return CompressionNone, true
	case "lz4":
		return CompressionLZ4, true
	case "zstd":
		return CompressionZstd, true
	default:
		return 0, false
	}
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

// Compress compresses data with c and returns the payload together with the
// compression actually applied. LZ4 reports incompressible input, which is
// then stored with CompressionNone.
func Compress(c Compression, data []byte) ([]byte, Compression, error) {
	if len(data) == 0 {
		return data, CompressionNone, nil
	}

	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, c, err
		}
		if n == 0 {
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil
	case CompressionZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), CompressionZstd, nil
	default:
		return nil, c, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

// Decompress reverses Compress. rawLen is the length of the original data.
func Decompress(c Compression, data []byte, rawLen uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		if uint64(len(data)) != rawLen {
			return nil, ErrSizeMismatch
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if uint64(n) != rawLen {
			return nil, ErrSizeMismatch
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if uint64(len(out)) != rawLen {
			return nil, ErrSizeMismatch
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}
