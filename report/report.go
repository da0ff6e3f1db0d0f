// Package report benchmarks the entropy coders over a set of files and
// writes one CSV row per (file, coder): sizes, compression ratio, wall-clock
// time, and bytes allocated, optionally verifying round-trip integrity.
package report

import (
	"encoding/csv"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/fumin/entropy"
)

// Metrics holds the measurements of one coder over one input.
type Metrics struct {
	CompressedSize  int
	CompressionTime time.Duration
	CompressionMem  uint64

	// Filled only when verifying.
	DecompressedSize  int
	DecompressionTime time.Duration
	DecompressionMem  uint64
}

// Measure compresses data with c, recording wall-clock time and bytes
// allocated. With verify set it also decodes the blob, measures that pass,
// and compares content digests, returning entropy.ErrIntegrity on mismatch.
func Measure(c entropy.Coder, data []byte, verify bool) (Metrics, error) {
	m := Metrics{}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	t0 := time.Now()
	encoded := c.Encode(data)
	m.CompressionTime = time.Since(t0)
	runtime.ReadMemStats(&after)
	m.CompressionMem = after.TotalAlloc - before.TotalAlloc
	m.CompressedSize = len(encoded)

	if !verify {
		return m, nil
	}

	runtime.ReadMemStats(&before)
	t1 := time.Now()
	decoded, err := c.Decode(encoded)
	m.DecompressionTime = time.Since(t1)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "")
	}
	runtime.ReadMemStats(&after)
	m.DecompressionMem = after.TotalAlloc - before.TotalAlloc
	m.DecompressedSize = len(decoded)

	if xxhash.Sum64(decoded) != xxhash.Sum64(data) {
		return Metrics{}, errors.Wrapf(entropy.ErrIntegrity, "%s", c.Name())
	}
	return m, nil
}

// Config controls a report run.
type Config struct {
	// Pattern is a doublestar glob selecting the input files.
	Pattern string

	// Verify additionally decodes each blob and checks it against the input.
	Verify bool

	// Coders defaults to the Huffman and Arithmetic coders.
	Coders []entropy.Coder
}

// Run benchmarks every matched file with every coder and writes the CSV
// report to out. A coder failing on one file is logged and skipped.
func Run(cfg Config, out io.Writer) error {
	w := csv.NewWriter(out)
	coders := cfg.Coders
	if coders == nil {
		coders = []entropy.Coder{entropy.Huffman{}, entropy.Arithmetic{}}
	}

	files, err := doublestar.FilepathGlob(cfg.Pattern)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %q", cfg.Pattern)
	}
	sort.Strings(files)

	header := []string{
		"file", "type", "algorithm", "original_size", "compressed_size",
		"compression_ratio", "compression_time_ms", "compression_mem_kb",
	}
	if cfg.Verify {
		header = append(header, "decompressed_size", "decompression_time_ms", "decompression_mem_kb")
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "")
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "")
		}

		for _, c := range coders {
			m, err := Measure(c, data, cfg.Verify)
			if err != nil {
				log.Printf("%s failed on %s: %+v", c.Name(), path, err)
				continue
			}

			ratio := ""
			if m.CompressedSize != 0 {
				ratio = formatFloat(float64(len(data))/float64(m.CompressedSize), 3)
			}
			row := []string{
				filepath.Base(path),
				fileKind(path),
				c.Name(),
				strconv.Itoa(len(data)),
				strconv.Itoa(m.CompressedSize),
				ratio,
				formatFloat(float64(m.CompressionTime)/float64(time.Millisecond), 3),
				formatFloat(float64(m.CompressionMem)/1024, 2),
			}
			if cfg.Verify {
				row = append(row,
					strconv.Itoa(m.DecompressedSize),
					formatFloat(float64(m.DecompressionTime)/float64(time.Millisecond), 3),
					formatFloat(float64(m.DecompressionMem)/1024, 2),
				)
			}
			if err := w.Write(row); err != nil {
				return errors.Wrap(err, "")
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// fileKind classifies a file by the major part of its MIME type, falling
// back to "binary" for unknown extensions.
func fileKind(path string) string {
	mtype := mime.TypeByExtension(filepath.Ext(path))
	if mtype == "" {
		return "binary"
	}
	return strings.SplitN(mtype, "/", 2)[0]
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
