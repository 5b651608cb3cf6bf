package store

import (
	"encoding/hex"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
)

// Compression names the codec applied to stored envelope bodies.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression validates a compression name. The empty name means zstd.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case "":
		return CompressionZstd, nil
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression %q (use zstd, lz4 or none)", name)
}

// ContentKey is the hex BLAKE3 digest used to find envelopes of the same content.
func ContentKey(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use and reused.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBody compresses data with c. When c does not shrink the data the
// body is stored as-is and CompressionNone is returned.
func compressBody(data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) < len(data) {
			return out, c, nil
		}
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, "", fmt.Errorf("lz4 compress: %w", err)
		}
		if n > 0 && n < len(data) {
			return dst[:n], c, nil
		}
	case CompressionNone:
	default:
		return nil, "", fmt.Errorf("unsupported compression %q", c)
	}
	return data, CompressionNone, nil
}

func decompressBody(data []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compression %q", c)
}
