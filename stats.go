package segbuf

// Stats objects contain statistics about a window.
type Stats struct {

	// Capacity indicates the maximum number of segments the window can hold.
	Capacity int

	// Segments indicates the number of segments currently held.
	Segments int

	// Begin is the virtual index of the oldest live byte.
	Begin Index

	// End is one past the virtual index of the newest byte.
	End Index

	// Size indicates the number of bytes currently held, End - Begin.
	Size int

	// Cursors indicates the number of registered cursors.
	Cursors int

	// Pushes indicates how many segments were appended since the window was created.
	Pushes int

	// PushedBytes indicates the total size of the appended segments.
	PushedBytes int

	// Evictions indicates how many segments were evicted.
	Evictions int

	// EvictedBytes indicates the total size of the evicted segments.
	EvictedBytes int

	// Conflicts indicates how many pushes were refused due to a registered cursor pointing into the oldest
	// segment.
	Conflicts int
}

type counters struct {
	pushes, pushedBytes, evictions, evictedBytes, conflicts int
}

func (c *counters) pushed(size int) {
	c.pushes++
	c.pushedBytes += size
}

func (c *counters) evicted(size int) {
	c.evictions++
	c.evictedBytes += size
}

func (c *counters) conflicted() { c.conflicts++ }

func (w *Window) stats() Stats {
	return Stats{
		Capacity:     w.segments.cap(),
		Segments:     w.segments.len(),
		Begin:        w.Begin(),
		End:          w.End(),
		Size:         int(w.End() - w.Begin()),
		Cursors:      len(w.cursors),
		Pushes:       w.counters.pushes,
		PushedBytes:  w.counters.pushedBytes,
		Evictions:    w.counters.evictions,
		EvictedBytes: w.counters.evictedBytes,
		Conflicts:    w.counters.conflicts,
	}
}
