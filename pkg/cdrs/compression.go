package cdrs

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4"
)

// Compression names a body compression scheme negotiated at STARTUP.
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionSnappy Compression = "snappy"
	CompressionLZ4    Compression = "lz4"
)

// compressor compresses and decompresses frame bodies for one negotiated
// scheme. An unrecognized scheme on receive is a fatal protocol error on
// that connection, per spec section 4.1.
type compressor interface {
	name() Compression
	compress(body []byte) []byte
	decompress(body []byte) ([]byte, error)
}

func newCompressor(c Compression) (compressor, error) {
	switch c {
	case CompressionNone:
		return noneCompressor{}, nil
	case CompressionSnappy:
		return snappyCompressor{}, nil
	case CompressionLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, fmt.Errorf("cdrs: unrecognized compression scheme %q", c)
	}
}

type noneCompressor struct{}

func (noneCompressor) name() Compression                    { return CompressionNone }
func (noneCompressor) compress(body []byte) []byte          { return body }
func (noneCompressor) decompress(b []byte) ([]byte, error)   { return b, nil }

// snappyCompressor implements the raw snappy block format spec.md
// specifies: frames are simply the raw snappy-compressed block, no extra
// framing.
type snappyCompressor struct{}

func (snappyCompressor) name() Compression { return CompressionSnappy }

func (snappyCompressor) compress(body []byte) []byte {
	return snappy.Encode(nil, body)
}

func (snappyCompressor) decompress(body []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, newProtocolError("snappy decompress", err)
	}
	return out, nil
}

// lz4Compressor implements the scheme spec.md describes: four big-endian
// bytes giving the uncompressed length, followed by an LZ4 block (not a
// framed LZ4 stream).
type lz4Compressor struct{}

func (lz4Compressor) name() Compression { return CompressionLZ4 }

func (lz4Compressor) compress(body []byte) []byte {
	maxSize := lz4.CompressBlockBound(len(body))
	out := make([]byte, 4+maxSize)
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))

	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(body, out[4:], hashTable[:])
	if err != nil || n == 0 {
		// Incompressible input: lz4.CompressBlock signals this by
		// returning n == 0. The body is then stored verbatim after a
		// length prefix equal to its own length; decompress below treats a
		// block whose length equals the declared uncompressed length as
		// such a literal copy.
		literal := make([]byte, 4+len(body))
		binary.BigEndian.PutUint32(literal[:4], uint32(len(body)))
		copy(literal[4:], body)
		return literal
	}
	return out[:4+n]
}

func (lz4Compressor) decompress(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, newProtocolError("lz4 decompress", fmt.Errorf("body too short for length prefix: %d bytes", len(body)))
	}
	uncompressedLen := binary.BigEndian.Uint32(body[:4])
	block := body[4:]
	out := make([]byte, uncompressedLen)
	if uncompressedLen == uint32(len(block)) {
		// Literal fallback written by compress above when the block was
		// incompressible.
		copy(out, block)
		return out, nil
	}
	n, err := lz4.UncompressBlock(block, out)
	if err != nil {
		return nil, newProtocolError("lz4 decompress", err)
	}
	return out[:n], nil
}
