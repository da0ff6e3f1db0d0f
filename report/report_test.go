package report

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/fumin/entropy"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	skewed := append(bytes.Repeat([]byte{'a'}, 900), bytes.Repeat([]byte{'b'}, 100)...)
	if err := os.WriteFile(filepath.Join(dir, "skewed.txt"), skewed, 0644); err != nil {
		t.Fatalf("%v", err)
	}
	random := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(random)
	if err := os.WriteFile(filepath.Join(dir, "noise"), random, 0644); err != nil {
		t.Fatalf("%v", err)
	}

	buf := &bytes.Buffer{}
	cfg := Config{Pattern: filepath.Join(dir, "*"), Verify: true}
	if err := Run(cfg, buf); err != nil {
		t.Fatalf("%+v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("%v", err)
	}
	// Header plus one row per (file, coder).
	if len(records) != 1+2*2 {
		t.Fatalf("%d records", len(records))
	}
	header := records[0]
	if header[0] != "file" || header[len(header)-1] != "decompression_mem_kb" {
		t.Fatalf("%v", header)
	}

	for _, row := range records[1:] {
		if len(row) != len(header) {
			t.Fatalf("%v", row)
		}
		switch row[2] {
		case "Huffman", "Arithmetic":
		default:
			t.Fatalf("algorithm %q", row[2])
		}
		// Verified runs report the decompressed size, which must equal the
		// original size.
		if row[3] != row[8] {
			t.Fatalf("original %s, decompressed %s", row[3], row[8])
		}
	}

	// Rows come out in sorted path order.
	if records[1][0] != "noise" || records[1][1] != "binary" {
		t.Fatalf("%v", records[1])
	}
	if records[3][0] != "skewed.txt" || records[3][1] != "text" {
		t.Fatalf("%v", records[3])
	}
}

func TestMeasure(t *testing.T) {
	data := bytes.Repeat([]byte("abcabcab"), 100)
	for _, c := range []entropy.Coder{entropy.Huffman{}, entropy.Arithmetic{}} {
		m, err := Measure(c, data, true)
		if err != nil {
			t.Fatalf("%s: %+v", c.Name(), err)
		}
		if m.CompressedSize <= 0 || m.DecompressedSize != len(data) {
			t.Fatalf("%s: %+v", c.Name(), m)
		}
	}
}

// A coder that corrupts its blobs must surface ErrIntegrity when verifying.
type corruptCoder struct{}

func (corruptCoder) Name() string { return "Corrupt" }
func (corruptCoder) Encode(data []byte) []byte {
	return entropy.Huffman{}.Encode(data)
}
func (corruptCoder) Decode(blob []byte) ([]byte, error) {
	out, err := entropy.Huffman{}.Decode(blob)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		out[0] ^= 0xff
	}
	return out, nil
}

func TestMeasureIntegrity(t *testing.T) {
	data := []byte("integrity check material, long enough to have a payload")
	_, err := Measure(corruptCoder{}, data, true)
	if errors.Cause(err) != entropy.ErrIntegrity {
		t.Fatalf("%v", err)
	}
}
