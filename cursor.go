package segbuf

import (
	"fmt"
	"io"
	"strings"
)

// Cursor is a read position in the virtual index space of a window. It reads across the boundaries of the
// underlying segments without copying them. The window of a cursor is set when the cursor is created, and it
// cannot change.
//
// Reads return io.EOF when the data is not, or not fully, available. The bytes consumed before reaching the
// end of the window are not put back: after a failed read, the cursor points to the byte that would have been
// read next.
type Cursor struct {
	id     CursorID
	index  Index
	window *Window
}

// Clone returns an independent copy of the cursor, at the same position and in the same window. The clone is
// not registered with the window, so it doesn't prevent eviction. It is meant for disposable lookahead. When
// protection is needed, the clone can be registered explicitly with Window.Register().
func (c *Cursor) Clone() *Cursor {
	return &Cursor{index: c.index, window: c.window}
}

// ID returns the id of the cursor in its window's registry, or 0 when the cursor is not registered.
func (c *Cursor) ID() CursorID { return c.id }

// Registered tells whether the cursor is in its window's registry.
func (c *Cursor) Registered() bool {
	return c.id != 0 && c.window.cursors[c.id] == c
}

// Index returns the virtual index of the cursor.
func (c *Cursor) Index() Index { return c.index }

// Window returns the window of the cursor.
func (c *Cursor) Window() *Window { return c.window }

// EOF tells whether the cursor is at or beyond the end of the window.
func (c *Cursor) EOF() bool {
	return c.index >= c.window.End()
}

// Move moves the cursor by n bytes, forward or backward. The position is not checked, moving beyond the end
// results in EOF on the next read, and moving below the beginning of the window results in ErrEvicted.
func (c *Cursor) Move(n int) {
	c.index += Index(n)
}

// At returns the byte at the position of the cursor, without moving it.
func (c *Cursor) At() (byte, error) {
	s, err := c.window.segmentAt(c.index)
	if err != nil {
		return 0, err
	}

	return s.byteAt(c.index), nil
}

// AtMove returns the byte at the position of the cursor, and moves the cursor past it. When the read fails,
// the cursor is not moved.
func (c *Cursor) AtMove() (byte, error) {
	b, err := c.At()
	if err != nil {
		return 0, err
	}

	c.index++
	return b, nil
}

// Read implements io.Reader. It copies as many bytes as available up to len(p), and returns io.EOF only when
// no bytes were available at all.
func (c *Cursor) Read(p []byte) (int, error) {
	var count int
	for len(p) > 0 {
		s, err := c.window.segmentAt(c.index)
		if err == io.EOF && count > 0 {
			return count, nil
		}

		if err != nil {
			return count, err
		}

		n := s.read(c.index, p)
		p = p[n:]
		count += n
		c.index += Index(n)
	}

	return count, nil
}

// Describe returns diagnostic text about the cursor. When short is false, it also describes the window of the
// cursor.
func (c *Cursor) Describe(short bool) string {
	var b strings.Builder
	if c.Registered() {
		fmt.Fprintf(&b, "cursor %d at %d", c.id, c.index)
	} else {
		fmt.Fprintf(&b, "cursor - at %d", c.index)
	}

	if c.EOF() {
		b.WriteString(" (eof)")
	}

	if short {
		return b.String()
	}

	b.WriteString(" in ")
	b.WriteString(c.window.Describe(false))
	return b.String()
}

// String returns the short description of the cursor.
func (c *Cursor) String() string {
	return c.Describe(true)
}
