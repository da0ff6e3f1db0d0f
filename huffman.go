package entropy

import (
	"bytes"
	"container/heap"
	"encoding/binary"
	"sort"

	"github.com/chronos-tachyon/assert"
	"github.com/pkg/errors"
)

// Huffman is a canonical Huffman coder. The prefix tree determines only the
// per-symbol code lengths; the codes actually used on the wire are the
// canonical reassignment of those lengths in (length, symbol) ascending
// order, so the blob is independent of tree shape.
type Huffman struct{}

func (Huffman) Name() string { return "Huffman" }

// A treeNode lives in a flat arena. Leaves hold a symbol; internal nodes
// hold sym == -1 and their children's arena indices.
type treeNode struct {
	freq  uint32
	sym   int16
	left  int16
	right int16
}

const noNode = int16(-1)

// nodeHeap orders arena indices by (freq, sym). Internal nodes carry
// sym == -1, sorting before any concrete symbol of equal frequency.
type nodeHeap struct {
	arena *[]treeNode
	idx   []int16
}

func (h nodeHeap) Len() int { return len(h.idx) }
func (h nodeHeap) Less(i, j int) bool {
	a, b := (*h.arena)[h.idx[i]], (*h.arena)[h.idx[j]]
	if a.freq != b.freq {
		return a.freq < b.freq
	}
	return a.sym < b.sym
}
func (h nodeHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *nodeHeap) Push(x interface{}) {
	h.idx = append(h.idx, x.(int16))
}
func (h *nodeHeap) Pop() interface{} {
	last := len(h.idx) - 1
	x := h.idx[last]
	h.idx = h.idx[:last]
	return x
}

var _ heap.Interface = (*nodeHeap)(nil)

// buildTree merges the two lowest-frequency nodes until one remains,
// returning the arena and the root's index.
func buildTree(ft *freqTable) ([]treeNode, int16) {
	arena := make([]treeNode, 0, 2*len(ft.syms)-1)
	h := &nodeHeap{arena: &arena}
	for _, s := range ft.syms {
		arena = append(arena, treeNode{freq: ft.freq[s], sym: int16(s), left: noNode, right: noNode})
		h.idx = append(h.idx, int16(len(arena)-1))
	}
	heap.Init(h)

	for h.Len() > 1 {
		n1 := heap.Pop(h).(int16)
		n2 := heap.Pop(h).(int16)
		arena = append(arena, treeNode{
			freq:  arena[n1].freq + arena[n2].freq,
			sym:   -1,
			left:  n1,
			right: n2,
		})
		heap.Push(h, int16(len(arena)-1))
	}
	return arena, h.idx[0]
}

// codeLengths walks the tree depth-first and records each leaf's depth as
// its code length. A degenerate single-leaf root gets length 1.
func codeLengths(arena []treeNode, root int16) [256]byte {
	var lengths [256]byte
	type frame struct {
		node  int16
		depth byte
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := arena[f.node]
		if n.sym >= 0 {
			depth := f.depth
			if depth == 0 {
				depth = 1
			}
			lengths[n.sym] = depth
			continue
		}
		stack = append(stack, frame{n.right, f.depth + 1})
		stack = append(stack, frame{n.left, f.depth + 1})
	}
	return lengths
}

// A symCode pairs a symbol with its canonical code.
type symCode struct {
	sym  byte
	size byte
	bits uint64
}

// canonicalize assigns canonical codes to the given (symbol, size) pairs
// in place: sort by (size, symbol) ascending, start the running code at 0,
// left-shift it by the length delta whenever the length grows, assign,
// increment.
func canonicalize(codes []symCode) {
	sort.Slice(codes, func(i, j int) bool {
		a, b := codes[i], codes[j]
		if a.size != b.size {
			return a.size < b.size
		}
		return a.sym < b.sym
	})
	var next uint64
	var lastSize byte
	for i := range codes {
		next <<= uint(codes[i].size - lastSize)
		lastSize = codes[i].size
		codes[i].bits = next
		next++
	}
}

// Encode compresses data into a Huffman record, or a RUN record when data
// holds a single distinct byte.
func (Huffman) Encode(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	ft := countFreq(data)
	if len(ft.syms) == 1 {
		return encodeRun(ft.syms[0], len(data))
	}
	assert.Assertf(len(ft.syms) >= 2, "general path requires >= 2 distinct symbols, got %d", len(ft.syms))

	arena, root := buildTree(ft)
	lengths := codeLengths(arena, root)

	canon := make([]symCode, 0, len(ft.syms))
	for _, s := range ft.syms {
		canon = append(canon, symCode{sym: s, size: lengths[s]})
	}
	canonicalize(canon)

	var lookup [256]symCode
	for _, c := range canon {
		lookup[c.sym] = c
	}

	buf := &bytes.Buffer{}
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], uint32(len(data)))
	buf.Write(scratch[:])
	// A full 256-symbol alphabet wraps to 0; count 0 is otherwise unreachable.
	buf.WriteByte(byte(len(canon)))
	for _, c := range canon {
		buf.WriteByte(c.sym)
		buf.WriteByte(c.size)
	}

	// Serialized canonical bit patterns. Lengths alone determine the table;
	// this blob is carried for wire-format fidelity.
	codeSink := &bitSink{}
	var codeBits uint16
	for _, c := range canon {
		codeSink.putCode(c.bits, c.size)
		codeBits += uint16(c.size)
	}
	binary.BigEndian.PutUint16(scratch[:2], codeBits)
	buf.Write(scratch[:2])
	buf.Write(codeSink.finish())

	paySink := &bitSink{}
	var payBits uint32
	for _, b := range data {
		c := lookup[b]
		paySink.putCode(c.bits, c.size)
		payBits += uint32(c.size)
	}
	binary.BigEndian.PutUint32(scratch[:], payBits)
	buf.Write(scratch[:])
	buf.Write(paySink.finish())

	return buf.Bytes()
}

// huffCode is a (length, bits) pair used as the decode table key. Two codes
// with equal bits but different lengths are distinct.
type huffCode struct {
	size byte
	bits uint64
}

// Decode parses a Huffman record and reconstructs the original bytes.
func (Huffman) Decode(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return []byte{}, nil
	}
	if isRun(blob) {
		return decodeRun(blob)
	}

	if len(blob) < 5 {
		return nil, errors.Wrap(ErrMalformedInput, "huffman header")
	}
	origLen := int(binary.BigEndian.Uint32(blob[:4]))
	leafCnt := int(blob[4])
	if leafCnt == 0 {
		leafCnt = 256
	}
	i := 5

	if len(blob) < i+2*leafCnt+2 {
		return nil, errors.Wrap(ErrMalformedInput, "huffman symbol table")
	}
	canon := make([]symCode, 0, leafCnt)
	for k := 0; k < leafCnt; k++ {
		canon = append(canon, symCode{sym: blob[i], size: blob[i+1]})
		i += 2
	}

	// The packed canonical patterns are skipped; re-sorting the (symbol,
	// length) pairs and replaying the assignment rebuilds the same table.
	codeBits := int(binary.BigEndian.Uint16(blob[i : i+2]))
	i += 2
	i += (codeBits + 7) / 8

	if len(blob) < i+4 {
		return nil, errors.Wrap(ErrMalformedInput, "huffman payload length")
	}
	payBits := int(binary.BigEndian.Uint32(blob[i : i+4]))
	i += 4
	if len(blob) < i+(payBits+7)/8 {
		return nil, errors.Wrap(ErrMalformedInput, "huffman payload")
	}

	canonicalize(canon)
	table := make(map[huffCode]byte, len(canon))
	for _, c := range canon {
		table[huffCode{size: c.size, bits: c.bits}] = c.sym
	}

	// The codes are prefix-free, so the first table hit on the growing
	// candidate is the right one.
	src := newBitSource(blob[i:])
	out := make([]byte, 0, origLen)
	var cur huffCode
	for k := 0; k < payBits && len(out) < origLen; k++ {
		cur.bits = cur.bits<<1 | uint64(src.get())
		cur.size++
		if sym, ok := table[cur]; ok {
			out = append(out, sym)
			cur = huffCode{}
		}
	}
	return out, nil
}
