// Package compress frames byte blocks with optional LZ4 or ZSTD compression.
//
// Frame layout: [RawSize uint64][StoredSize uint64][payload]. StoredSize == 0
// means the payload is the raw block; this is also chosen whenever
// compression does not save at least 10%.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = 0
	// LZ4 is LZ4 block compression (fast, moderate ratio).
	LZ4 Type = 1
	// ZSTD is ZSTD block compression (better ratio, slower).
	ZSTD Type = 2
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known algorithm.
func (t Type) Valid() bool { return t <= ZSTD }

// HeaderSize is the size of the frame header in bytes.
const HeaderSize = 16

var (
	// ErrCorrupt is returned for frames that cannot be decoded.
	ErrCorrupt = errors.New("compress: corrupt frame")
)

// ZSTD encoder/decoder pools for efficiency
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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Encode frames data, compressing it with t when that pays off.
func Encode(data []byte, t Type) ([]byte, error) {
	var compressed []byte
	var err error

	switch t {
	case None:
	case LZ4:
		compressed, err = encodeLZ4(data)
	case ZSTD:
		compressed = encodeZSTD(data)
	default:
		return nil, fmt.Errorf("compress: unknown type %d", uint8(t))
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, HeaderSize+len(data))
		binary.LittleEndian.PutUint64(out[0:], uint64(len(data)))
		binary.LittleEndian.PutUint64(out[8:], 0)
		copy(out[HeaderSize:], data)
		return out, nil
	}

	out := make([]byte, HeaderSize+len(compressed))
	binary.LittleEndian.PutUint64(out[0:], uint64(len(data)))
	binary.LittleEndian.PutUint64(out[8:], uint64(len(compressed)))
	copy(out[HeaderSize:], compressed)
	return out, nil
}

func encodeLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return buf[:n], nil
}

func encodeZSTD(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)
	return enc.EncodeAll(data, nil)
}

// FrameSize returns the total frame length announced by a frame header.
func FrameSize(header []byte) (int64, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	raw := binary.LittleEndian.Uint64(header[0:])
	stored := binary.LittleEndian.Uint64(header[8:])
	if stored == 0 {
		stored = raw
	}
	if stored > 1<<62 {
		return 0, fmt.Errorf("%w: payload size %d", ErrCorrupt, stored)
	}
	return HeaderSize + int64(stored), nil
}

// Decode reverses Encode. t must be the type the frame was written with.
func Decode(frame []byte, t Type) ([]byte, error) {
	if len(frame) < HeaderSize {
		return nil, fmt.Errorf("%w: frame too small for header", ErrCorrupt)
	}
	raw := binary.LittleEndian.Uint64(frame[0:])
	stored := binary.LittleEndian.Uint64(frame[8:])
	payload := frame[HeaderSize:]

	if stored == 0 {
		if uint64(len(payload)) < raw {
			return nil, fmt.Errorf("%w: block data too small", ErrCorrupt)
		}
		return payload[:raw], nil
	}
	if uint64(len(payload)) < stored {
		return nil, fmt.Errorf("%w: compressed block data too small", ErrCorrupt)
	}
	payload = payload[:stored]

	switch t {
	case LZ4:
		out := make([]byte, raw)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(n) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(len(out)) != raw {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: compressed payload with type %s", ErrCorrupt, t)
	}
}
