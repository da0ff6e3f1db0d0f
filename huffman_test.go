package entropy

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
)

// Two distinct symbols of equal frequency get the length-1 canonical codes
// "0" and "1", assigned in ascending symbol order.
func TestTwoSymbolCodes(t *testing.T) {
	data := []byte("ABABABAB")
	blob := Huffman{}.Encode(data)

	if got := binary.BigEndian.Uint32(blob[:4]); got != uint32(len(data)) {
		t.Fatalf("original length %d", got)
	}
	if blob[4] != 2 {
		t.Fatalf("leaf count %d", blob[4])
	}
	// (symbol, length) pairs in (length, symbol) ascending order.
	pairs := blob[5:9]
	want := []byte{'A', 1, 'B', 1}
	if !bytes.Equal(pairs, want) {
		t.Fatalf("%v", pairs)
	}
	// Canonical patterns: "0" then "1", packed MSB-first into one byte.
	if got := binary.BigEndian.Uint16(blob[9:11]); got != 2 {
		t.Fatalf("canonical bits %d", got)
	}
	if blob[11] != 0x40 {
		t.Fatalf("canonical patterns %#x", blob[11])
	}
}

func TestCanonicalize(t *testing.T) {
	codes := []symCode{
		{sym: 'c', size: 3},
		{sym: 'a', size: 1},
		{sym: 'd', size: 3},
		{sym: 'b', size: 2},
	}
	canonicalize(codes)

	want := []symCode{
		{sym: 'a', size: 1, bits: 0}, // 0
		{sym: 'b', size: 2, bits: 2}, // 10
		{sym: 'c', size: 3, bits: 6}, // 110
		{sym: 'd', size: 3, bits: 7}, // 111
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("%d: %+v", i, codes[i])
		}
	}
}

// The code lengths produced by the tree are optimal for a known skewed
// distribution: the dominant symbol gets the shortest code.
func TestCodeLengths(t *testing.T) {
	var data []byte
	data = append(data, bytes.Repeat([]byte{'a'}, 45)...)
	data = append(data, bytes.Repeat([]byte{'b'}, 13)...)
	data = append(data, bytes.Repeat([]byte{'c'}, 12)...)
	data = append(data, bytes.Repeat([]byte{'d'}, 16)...)
	data = append(data, bytes.Repeat([]byte{'e'}, 9)...)
	data = append(data, bytes.Repeat([]byte{'f'}, 5)...)

	ft := countFreq(data)
	arena, root := buildTree(ft)
	lengths := codeLengths(arena, root)

	// The classic CLRS frequencies: a=45 b=13 c=12 d=16 e=9 f=5.
	want := map[byte]byte{'a': 1, 'b': 3, 'c': 3, 'd': 3, 'e': 4, 'f': 4}
	for sym, ln := range want {
		if lengths[sym] != ln {
			t.Errorf("%c: length %d, want %d", sym, lengths[sym], ln)
		}
	}
}

func TestHuffmanTruncated(t *testing.T) {
	blob := Huffman{}.Encode([]byte("the quick brown fox jumps over the lazy dog"))
	for _, cut := range []int{len(blob) - 1, len(blob) - 5, 10, 4, 2} {
		if _, err := (Huffman{}).Decode(blob[:cut]); errors.Cause(err) != ErrMalformedInput {
			t.Errorf("cut %d: %v", cut, err)
		}
	}
}

func TestHuffmanFullAlphabet(t *testing.T) {
	// All 256 symbols present wraps the one-byte leaf count to zero.
	var data []byte
	for i := 0; i < 256; i++ {
		data = append(data, bytes.Repeat([]byte{byte(i)}, 1+i%7)...)
	}
	blob := Huffman{}.Encode(data)
	if blob[4] != 0 {
		t.Fatalf("leaf count byte %d", blob[4])
	}
	decoded, err := Huffman{}.Decode(blob)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("decoded %d bytes, original %d", len(decoded), len(data))
	}
}
