/*
Package segbuf presents a bounded sequence of independently allocated byte buffers as one contiguous,
append-only virtual byte array, and provides cursors that parse structured data across the buffer boundaries
without copying the buffers.

Windows

A window holds at most a fixed number of segments. Each pushed buffer becomes a segment, tagged with the virtual
index of its first byte. The virtual index space spans every segment ever pushed, it only grows, and the
offsets are never reused. Begin() returns the index of the oldest byte still held, End() returns one past the
newest one.

When the window is full, pushing a new buffer evicts the oldest segment. The indices below the new Begin() are
permanently unreachable.

Cursors

A cursor is a read position in the virtual index space of a window. Cursors created with NewCursor() are
registered with their window. The window doesn't evict a segment that a registered cursor still points into:
instead, the push fails with ErrCursorConflict, and has no effect. This is backpressure: the producer needs to
wait until the consumer moved its cursors forward, or deleted them with DeleteCursor().

Clones of a cursor are not registered. They are meant for lookahead, e.g. trying to parse a record that may not
have fully arrived yet. A clone can be registered explicitly, when it needs protection from eviction.

Reading

Cursors read single bytes and characters, byte and character sequences, big-endian integers, zero terminated
strings, and fixed width text fields containing integers or dates. A cursor also implements io.Reader and
io.ByteReader. When the data runs out, the reads fail with io.EOF, and the cursor is left at the end of the
window: the bytes consumed by a failed read are not put back. Cloning the cursor before a read that may fail
allows rewinding.

Characters are single bytes decoded with the window's charset (ISO-8859-1 by default). Text integers are parsed
strictly in base 10. Dates are parsed with an explicit list of layouts, and an unparseable date is returned as
the zero time.Time.

Concurrency

Windows and cursors are not safe for concurrent use. When the buffers arrive from an asynchronous source, the
caller needs to sequence the pushes and the reads.

Monitoring

The window provides statistics about its state, including the number and size of the held segments, the
registered cursors, the evictions and the refused pushes. When configured, it also sends change notifications
filtered by a mask of event types.
*/
package segbuf
