package entropy

import (
	"bytes"
	"encoding/binary"

	"github.com/chronos-tachyon/assert"
	"github.com/pkg/errors"
)

// 32-bit range arithmetic constants. Encode and decode must agree on these
// exactly or the round-trip law breaks without warning.
const (
	arithTop  = uint64(1) << 32
	arithHalf = uint64(1) << 31
	arithQtr  = uint64(1) << 30
	arithMask = arithTop - 1
)

// Arithmetic is a static-model arithmetic coder. Each call builds a fresh
// frequency table over the input, narrows a 32-bit interval per symbol, and
// ships the table in the blob header so the decoder can repartition
// identically.
type Arithmetic struct{}

func (Arithmetic) Name() string { return "Arithmetic" }

// A pendingEmitter writes definite bits and resolves deferred underflow
// bits. Whenever a definite bit goes out, the pending count is flushed as
// that bit's complement.
type pendingEmitter struct {
	sink    *bitSink
	pending uint64
}

func (e *pendingEmitter) emit(bit int) {
	e.sink.put(bit)
	if e.pending > 0 {
		e.sink.putN(bit^1, e.pending)
		e.pending = 0
	}
}

// Encode compresses data into an arithmetic record, or a RUN record when
// data holds a single distinct byte.
func (Arithmetic) Encode(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	ft := countFreq(data)
	if len(ft.syms) == 1 {
		return encodeRun(ft.syms[0], len(data))
	}
	assert.Assertf(ft.total > 0, "zero total frequency")

	low := uint64(0)
	high := arithTop - 1
	em := &pendingEmitter{sink: &bitSink{}}
	total := uint64(ft.total)

	for _, b := range data {
		// The products below reach 64 bits; narrower arithmetic silently
		// corrupts the interval.
		r := high - low + 1
		low += r * uint64(ft.cum[b]) / total
		high = low + r*uint64(ft.freq[b])/total - 1

		for {
			if high < arithHalf {
				em.emit(0)
			} else if low >= arithHalf {
				low -= arithHalf
				high -= arithHalf
				em.emit(1)
			} else if low >= arithQtr && high < 3*arithQtr {
				low -= arithQtr
				high -= arithQtr
				em.pending++
			} else {
				break
			}
			low = (low << 1) & arithMask
			high = (high<<1 | 1) & arithMask
		}
	}

	// One more bit pins the terminal interval for the decoder.
	em.pending++
	if low < arithQtr {
		em.emit(0)
	} else {
		em.emit(1)
	}

	buf := &bytes.Buffer{}
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], uint32(len(data)))
	buf.Write(scratch[:])
	// A full 256-symbol alphabet wraps to 0; count 0 is otherwise unreachable.
	buf.WriteByte(byte(len(ft.syms)))
	for _, s := range ft.syms {
		buf.WriteByte(s)
		binary.BigEndian.PutUint32(scratch[:], ft.freq[s])
		buf.Write(scratch[:])
	}
	buf.Write(em.sink.finish())
	return buf.Bytes()
}

// Decode parses an arithmetic record and reconstructs the original bytes.
func (Arithmetic) Decode(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return []byte{}, nil
	}
	if isRun(blob) {
		return decodeRun(blob)
	}

	if len(blob) < 5 {
		return nil, errors.Wrap(ErrMalformedInput, "arithmetic header")
	}
	n := int(binary.BigEndian.Uint32(blob[:4]))
	symCnt := int(blob[4])
	if symCnt == 0 {
		symCnt = 256
	}
	i := 5
	if len(blob) < i+5*symCnt {
		return nil, errors.Wrap(ErrMalformedInput, "arithmetic symbol table")
	}
	syms := make([]byte, 0, symCnt)
	freqs := make([]uint32, 0, symCnt)
	for k := 0; k < symCnt; k++ {
		syms = append(syms, blob[i])
		freqs = append(freqs, binary.BigEndian.Uint32(blob[i+1:i+5]))
		i += 5
	}
	ft := newFreqTable(syms, freqs)
	if ft.total == 0 {
		return nil, errors.Wrap(ErrMalformedInput, "arithmetic zero total")
	}
	total := uint64(ft.total)

	// The payload carries no length field; the source zero-pads past its
	// end and the symbol count bounds the loop instead.
	src := newBitSource(blob[i:])
	var code uint64
	for k := 0; k < 32; k++ {
		code = code<<1 | uint64(src.get())
	}

	low := uint64(0)
	high := arithTop - 1
	out := make([]byte, 0, n)
	for len(out) < n {
		r := high - low + 1
		scaled := ((code-low+1)*total - 1) / r
		var sym byte
		found := false
		for _, s := range ft.syms {
			c := uint64(ft.cum[s])
			if c <= scaled && scaled < c+uint64(ft.freq[s]) {
				sym = s
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Wrap(ErrMalformedInput, "arithmetic code outside partition")
		}
		out = append(out, sym)

		low += r * uint64(ft.cum[sym]) / total
		high = low + r*uint64(ft.freq[sym])/total - 1

		for {
			if high < arithHalf {
				// Interval already in the lower half; just widen.
			} else if low >= arithHalf {
				low -= arithHalf
				high -= arithHalf
				code -= arithHalf
			} else if low >= arithQtr && high < 3*arithQtr {
				low -= arithQtr
				high -= arithQtr
				code -= arithQtr
			} else {
				break
			}
			low = (low << 1) & arithMask
			high = (high<<1 | 1) & arithMask
			code = (code<<1 | uint64(src.get())) & arithMask
		}
	}
	return out, nil
}
