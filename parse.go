package segbuf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// padding trimmed from fixed width number and date fields
const fieldPadding = " \t\x00"

var (
	// ErrInvalidNumber is returned by ReadStrInt when the field doesn't contain a base 10 integer. The field
	// is consumed regardless.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrNegativeLength is returned by the fixed length reads when called with a negative length.
	ErrNegativeLength = errors.New("negative length")
)

// fills p completely, or fails with the error of the first read that couldn't proceed
func (c *Cursor) readFull(p []byte) error {
	for len(p) > 0 {
		n, err := c.Read(p)
		p = p[n:]
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Cursor) decode(b *strings.Builder, p []byte) {
	for _, bi := range p {
		b.WriteRune(c.window.charset.DecodeByte(bi))
	}
}

// ReadByte reads a single byte. It implements io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	return c.AtMove()
}

// ReadChar reads a single byte, and decodes it as a character using the charset of the window.
func (c *Cursor) ReadChar() (rune, error) {
	b, err := c.AtMove()
	if err != nil {
		return 0, err
	}

	return c.window.charset.DecodeByte(b), nil
}

// ReadBytes reads n bytes. The returned slice is a copy, it doesn't share memory with the window.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}

	p := make([]byte, n)
	if err := c.readFull(p); err != nil {
		return nil, err
	}

	return p, nil
}

// ReadChars reads n bytes, decoded as characters using the charset of the window.
func (c *Cursor) ReadChars(n int) ([]rune, error) {
	p, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}

	r := make([]rune, len(p))
	for i, b := range p {
		r[i] = c.window.charset.DecodeByte(b)
	}

	return r, nil
}

// ReadInt16 reads a big-endian, unsigned 16 bit integer.
func (c *Cursor) ReadInt16() (uint16, error) {
	var p [2]byte
	if err := c.readFull(p[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(p[:]), nil
}

// ReadInt32 reads a big-endian, unsigned 32 bit integer.
func (c *Cursor) ReadInt32() (uint32, error) {
	var p [4]byte
	if err := c.readFull(p[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(p[:]), nil
}

// ReadCString reads a zero terminated string. The terminating zero is consumed, but it is not part of the
// result. When the window ends before a zero byte, it fails with io.EOF, and the cursor is left at the end of
// the window.
func (c *Cursor) ReadCString() (string, error) {
	var b strings.Builder
	for {
		s, err := c.window.segmentAt(c.index)
		if err != nil {
			return "", err
		}

		end, terminated := s.indexZero(c.index)
		if !terminated {
			end = s.end()
		}

		c.decode(&b, s.data[c.index-s.offset:end-s.offset])
		c.index = end
		if terminated {
			c.index++
			return b.String(), nil
		}
	}
}

// ReadString reads n bytes, decoded as characters using the charset of the window.
func (c *Cursor) ReadString(n int) (string, error) {
	p, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(p))
	c.decode(&b, p)
	return b.String(), nil
}

// ReadStrInt reads an n byte wide text field containing a base 10 integer. Spaces, tabs and zero bytes around
// the number are ignored, an optional sign is accepted, anything else fails with ErrInvalidNumber.
func (c *Cursor) ReadStrInt(n int) (int64, error) {
	s, err := c.ReadString(n)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(strings.Trim(s, fieldPadding), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}

	return v, nil
}

// ReadDate reads an n byte wide text field containing a date or time, trying the date layouts of the window in
// order. Spaces, tabs and zero bytes around the value are ignored. When none of the layouts matches, it
// returns the zero time.Time without an error.
func (c *Cursor) ReadDate(n int) (time.Time, error) {
	s, err := c.ReadString(n)
	if err != nil {
		return time.Time{}, err
	}

	s = strings.Trim(s, fieldPadding)
	for _, l := range c.window.dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, nil
}
