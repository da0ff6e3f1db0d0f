package entropy

// A bitSink accumulates bits in emission order. Packing happens once in
// finish, not incrementally.
type bitSink struct {
	bits []byte
}

func (s *bitSink) put(bit int) {
	s.bits = append(s.bits, byte(bit&1))
}

// putN appends the same bit n times.
func (s *bitSink) putN(bit int, n uint64) {
	for ; n > 0; n-- {
		s.put(bit)
	}
}

// putCode appends the size low bits of code, most significant first.
func (s *bitSink) putCode(code uint64, size byte) {
	for i := int(size) - 1; i >= 0; i-- {
		s.put(int(code >> uint(i)))
	}
}

// finish zero-pads to a byte boundary and packs 8 bits per byte, most
// significant bit first.
func (s *bitSink) finish() []byte {
	for len(s.bits)%8 != 0 {
		s.bits = append(s.bits, 0)
	}
	out := make([]byte, 0, len(s.bits)/8)
	for i := 0; i < len(s.bits); i += 8 {
		var b byte
		for _, bit := range s.bits[i : i+8] {
			b = b<<1 | bit
		}
		out = append(out, b)
	}
	return out
}

// A bitSource reads bits from a byte buffer, most significant bit of each
// byte first. Reads past the end return 0 indefinitely, so callers must
// bound reads by an independent count, never by exhaustion.
type bitSource struct {
	buf []byte
	idx int
}

func newBitSource(buf []byte) *bitSource {
	return &bitSource{buf: buf}
}

func (s *bitSource) get() int {
	if s.idx >= 8*len(s.buf) {
		return 0
	}
	bit := int(s.buf[s.idx/8]>>(7-uint(s.idx%8))) & 1
	s.idx++
	return bit
}
