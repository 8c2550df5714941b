package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how the payload is compressed. The values are
// stored in the file header.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
	// CompressionLZ4 is LZ4 block compression.
	CompressionLZ4 Compression = 2
)

// DefaultCompression is used when the caller does not choose.
const DefaultCompression = CompressionZstd

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression resolves a name printed by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "zstd", "":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("codec: unknown compression %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns the body and the compression actually used. LZ4 falls
// back to none when the block does not shrink.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), CompressionZstd, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil
	}
	return nil, 0, fmt.Errorf("codec: unsupported compression %s", c)
}

func decompress(body []byte, c Compression, size int) ([]byte, error) {
	var out []byte
	switch c {
	case CompressionNone:
		out = body
	case CompressionZstd:
		var err error
		out, err = zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("codec: zstd decompress: %w", err)
		}
	case CompressionLZ4:
		out = make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
		}
		out = out[:n]
	default:
		return nil, fmt.Errorf("codec: unsupported compression %s", c)
	}
	if len(out) != size {
		return nil, fmt.Errorf("codec: payload is %d bytes, header says %d", len(out), size)
	}
	return out, nil
}
