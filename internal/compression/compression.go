// Package compression provides the block compressors and the float64 series
// codec used by the result archive.
package compression

import (
	"fmt"

	"github.com/golang/snappy"
)

// Algorithm defines compression types
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Compressor interface for compression algorithms
type Compressor interface {
	// Compress compresses data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return NoneCompressor{}, nil
	case Snappy:
		return SnappyCompressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// NoneCompressor passes data through
type NoneCompressor struct{}

func (NoneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (NoneCompressor) Algorithm() Algorithm                   { return None }

// SnappyCompressor implements Compressor using the Snappy block format
type SnappyCompressor struct{}

// Compress compresses data using Snappy
func (SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return snappy.Encode(nil, data), nil
}

// Decompress decompresses Snappy compressed data
func (SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return out, nil
}

// Algorithm returns Snappy
func (SnappyCompressor) Algorithm() Algorithm { return Snappy }
