// Package entropy provides two interchangeable lossless entropy coders:
// a canonical Huffman coder and a static-model 32-bit arithmetic coder.
// Both compress a byte sequence into a self-describing blob and reconstruct
// the original exactly.
//
// Below is an example of using this package to compress Lincoln's Gettysburg address:
//	data, _ := os.ReadFile("gettysburg.txt")
//	blob := entropy.Huffman{}.Encode(data)
//	orig, err := entropy.Huffman{}.Decode(blob)
//
// For every input d and both coders, Decode(Encode(d)) == d.
package entropy

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// A Coder compresses byte sequences into self-describing blobs and back.
// Encode is pure and cannot fail; empty input yields empty output.
type Coder interface {
	// Name is a stable identifier for reporting.
	Name() string

	// Encode compresses data into a self-describing blob.
	Encode(data []byte) []byte

	// Decode reconstructs the exact bytes Encode was given.
	Decode(blob []byte) ([]byte, error)
}

// ErrMalformedInput is returned when a blob is shorter than the lengths its
// header declares.
var ErrMalformedInput = errors.New("malformed input")

// ErrIntegrity is returned when a decoded result does not match the original
// data. The coders themselves cannot detect this; verifying callers raise it.
var ErrIntegrity = errors.New("round-trip integrity failure")

// runTag marks a blob holding a single repeated byte.
// Such inputs skip modeling entirely in both coders.
const runTag = "RUN"

// encodeRun builds the RUN record: tag, the repeated symbol, and the
// big-endian repeat count.
func encodeRun(sym byte, n int) []byte {
	blob := make([]byte, 0, len(runTag)+5)
	blob = append(blob, runTag...)
	blob = append(blob, sym)
	blob = binary.BigEndian.AppendUint32(blob, uint32(n))
	return blob
}

func isRun(blob []byte) bool {
	return len(blob) >= len(runTag) && string(blob[:len(runTag)]) == runTag
}

func decodeRun(blob []byte) ([]byte, error) {
	if len(blob) < len(runTag)+5 {
		return nil, errors.Wrap(ErrMalformedInput, "truncated RUN record")
	}
	sym := blob[3]
	n := binary.BigEndian.Uint32(blob[4:8])
	out := make([]byte, n)
	for i := range out {
		out[i] = sym
	}
	return out, nil
}
