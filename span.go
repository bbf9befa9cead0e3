package segbuf

import "bytes"

// segment is one pushed buffer, tagged with the virtual index of its first byte. The data is never mutated
// after the push, and it is shared for reading with the cursors pointing into it.
type segment struct {
	offset Index
	data   []byte
}

func (s segment) end() Index { return s.offset + Index(len(s.data)) }

func (s segment) contains(i Index) bool {
	return i >= s.offset && i < s.end()
}

func (s segment) byteAt(i Index) byte {
	return s.data[i-s.offset]
}

// copies from the virtual position i, maximum to the end of the segment
func (s segment) read(i Index, p []byte) int {
	return copy(p, s.data[i-s.offset:])
}

// returns the position of the first zero byte at or after i, or false when there is none in the segment
func (s segment) indexZero(i Index) (Index, bool) {
	j := bytes.IndexByte(s.data[i-s.offset:], 0)
	if j < 0 {
		return 0, false
	}

	return i + Index(j), true
}
