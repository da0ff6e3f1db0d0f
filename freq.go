package entropy

import "sort"

// A freqTable holds the static per-call frequency model shared by both
// coders: occurrence counts of each distinct byte, the distinct bytes in
// ascending order, and cumulative offsets in that same order.
//
// Both encoder and decoder must derive cumulative offsets from the same
// ascending symbol order, otherwise interval partitioning diverges and
// decoding silently corrupts.
type freqTable struct {
	syms  []byte // distinct symbols, ascending
	freq  [256]uint32
	cum   [256]uint32 // sum of counts of all symbols strictly below
	total uint32
}

// countFreq counts occurrences of each distinct byte in data.
func countFreq(data []byte) *freqTable {
	t := &freqTable{}
	for _, b := range data {
		if t.freq[b] == 0 {
			t.syms = append(t.syms, b)
		}
		t.freq[b]++
	}
	sortBytes(t.syms)
	t.fillCum()
	return t
}

// newFreqTable rebuilds the model a decoder parsed from a blob header.
// Symbols need not arrive sorted.
func newFreqTable(syms []byte, freqs []uint32) *freqTable {
	t := &freqTable{}
	t.syms = append(t.syms, syms...)
	for i, s := range syms {
		t.freq[s] = freqs[i]
	}
	sortBytes(t.syms)
	t.fillCum()
	return t
}

func (t *freqTable) fillCum() {
	var running uint32
	for _, s := range t.syms {
		t.cum[s] = running
		running += t.freq[s]
	}
	t.total = running
}

func sortBytes(b []byte) {
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
}
