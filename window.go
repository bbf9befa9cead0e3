package segbuf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// Index is a position in the virtual byte space of a window. It spans all the segments ever pushed, including
// the evicted ones, and it never decreases. The space is 64 bits wide, and pushing beyond it fails with
// ErrIndexOverflow.
type Index uint64

// CursorID identifies a registered cursor within its window. The zero value means that the cursor is not
// registered.
type CursorID uint64

// DefaultCapacity is used as the segment capacity when Options.Capacity is not set.
const DefaultCapacity = 16

// DefaultDateLayouts are used by ReadDate when Options.DateLayouts is not set. They are tried in order.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"20060102",
}

var (
	// ErrCursorConflict is returned by Push when the window is full and a registered cursor still points into
	// the oldest segment. The push has no effect. It can be retried after the cursor was moved past the
	// oldest segment or deleted.
	ErrCursorConflict = errors.New("cursor conflict")

	// ErrIndexOverflow is returned by Push when the pushed data would not fit in the virtual index space.
	ErrIndexOverflow = errors.New("virtual index overflow")

	// ErrEvicted is returned by cursor reads when the cursor points below the beginning of the window, which
	// can happen only to unregistered cursors or after moving backwards.
	ErrEvicted = errors.New("position evicted")
)

// Options objects are used to pass in initialization options to a window.
type Options struct {

	// Name identifies the window in events, stats and diagnostic text. Defaults to a random UUID.
	Name string

	// Capacity is the maximum number of segments held by the window. Defaults to DefaultCapacity.
	Capacity int

	// Charset is used to decode single byte characters. Defaults to ISO-8859-1.
	Charset *charmap.Charmap

	// DateLayouts are the time layouts tried by ReadDate, in order. Defaults to DefaultDateLayouts.
	DateLayouts []string

	// Notify is used to send notifications about the changes in the window. Events are sent synchronously,
	// so the listener must keep receiving them, or the channel needs to be buffered.
	Notify chan<- *Event

	// NotifyMask tells which events should be sent on the Notify channel. Defaults to Normal.
	NotifyMask EventType

	// Logger receives debug and warning messages. Defaults to discarding them.
	Logger *slog.Logger
}

// Window presents a bounded ring of pushed byte buffers as one contiguous, append-only virtual byte array. It
// tracks the registered cursors, and refuses to evict a segment that a registered cursor still points into.
//
// A window is not safe for concurrent use.
type Window struct {
	name        string
	segments    *ring[segment]
	cursors     map[CursorID]*Cursor
	lastID      CursorID
	charset     *charmap.Charmap
	dateLayouts []string
	notify      *notify
	log         *slog.Logger
	counters    counters
}

// New creates a window that holds at most capacity segments, using the default options otherwise.
func New(capacity int) *Window {
	return NewWithOptions(Options{Capacity: capacity})
}

// NewWithOptions creates an empty window.
func NewWithOptions(o Options) *Window {
	if o.Name == "" {
		o.Name = uuid.NewString()
	}

	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}

	if o.Charset == nil {
		o.Charset = charmap.ISO8859_1
	}

	if len(o.DateLayouts) == 0 {
		o.DateLayouts = DefaultDateLayouts
	}

	if o.NotifyMask == 0 {
		o.NotifyMask = Normal
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return &Window{
		name:        o.Name,
		segments:    newRing[segment](o.Capacity),
		cursors:     make(map[CursorID]*Cursor),
		charset:     o.Charset,
		dateLayouts: o.DateLayouts,
		notify:      newNotify(o.Notify, o.NotifyMask),
		log:         o.Logger.With("window", o.Name),
	}
}

// Name returns the name of the window.
func (w *Window) Name() string { return w.name }

// Len returns the number of segments currently held.
func (w *Window) Len() int { return w.segments.len() }

// Cap returns the maximum number of segments.
func (w *Window) Cap() int { return w.segments.cap() }

// Begin returns the virtual index of the oldest live byte, or 0 when the window is empty.
func (w *Window) Begin() Index {
	if w.segments.empty() {
		return 0
	}

	return w.segments.at(0).offset
}

// End returns one past the virtual index of the newest byte, or 0 when the window is empty.
func (w *Window) End() Index {
	s, ok := w.segments.last()
	if !ok {
		return 0
	}

	return s.end()
}

// returns the registered cursor with the lowest id that points into s
func (w *Window) blockingCursor(s segment) (*Cursor, bool) {
	var blocking *Cursor
	for _, c := range w.cursors {
		if s.contains(c.index) && (blocking == nil || c.id < blocking.id) {
			blocking = c
		}
	}

	return blocking, blocking != nil
}

// Push appends data as a new segment at the end of the window. The ownership of data passes to the window, it
// must not be modified afterwards.
//
// When the window is full, Push evicts the oldest segment first. If a registered cursor points into the
// oldest segment, Push fails with an error wrapping ErrCursorConflict, and the window is left unchanged.
func (w *Window) Push(data []byte) error {
	end := w.End()
	if uint64(len(data)) > math.MaxUint64-uint64(end) {
		return ErrIndexOverflow
	}

	if w.segments.full() {
		oldest := w.segments.at(0)
		if c, blocked := w.blockingCursor(oldest); blocked {
			w.counters.conflicted()
			w.log.Warn("push refused", "cursor", c.id, "position", c.index, "offset", oldest.offset)
			w.notify.send(&Event{
				Type:   Conflict,
				Window: w.name,
				Offset: c.index,
				Size:   len(data),
				Cursor: c.id,
			})

			return fmt.Errorf("%w: cursor %d at %d", ErrCursorConflict, c.id, c.index)
		}

		w.segments.shift()
		w.counters.evicted(len(oldest.data))
		w.log.Debug("segment evicted", "offset", oldest.offset, "size", len(oldest.data))
		w.notify.send(&Event{
			Type:   Evict,
			Window: w.name,
			Offset: oldest.offset,
			Size:   len(oldest.data),
		})
	}

	w.segments.push(segment{offset: end, data: data})
	w.counters.pushed(len(data))
	w.log.Debug("segment pushed", "offset", end, "size", len(data))
	w.notify.send(&Event{
		Type:   Push,
		Window: w.name,
		Offset: end,
		Size:   len(data),
	})

	return nil
}

// finds the segment holding the virtual index i. It scans from the oldest segment forward, skipping the
// segments that end at or before i. When i is not in the window, it returns the last examined slot, and
// false.
func (w *Window) locate(i Index) (int, bool) {
	slot := -1
	found := false
	w.segments.each(func(si int, s segment) bool {
		slot = si
		if s.end() <= i {
			return true
		}

		found = s.contains(i)
		return false
	})

	return slot, found
}

// returns the segment holding i, or the reason why there is none
func (w *Window) segmentAt(i Index) (segment, error) {
	if i >= w.End() {
		return segment{}, io.EOF
	}

	slot, ok := w.locate(i)
	if !ok {
		if i < w.Begin() {
			return segment{}, ErrEvicted
		}

		return segment{}, io.EOF
	}

	return w.segments.at(slot), nil
}

func (w *Window) register(c *Cursor) {
	w.lastID++
	c.id = w.lastID
	w.cursors[c.id] = c
	w.log.Debug("cursor registered", "cursor", c.id, "position", c.index)
	w.notify.send(&Event{
		Type:   CursorCreate,
		Window: w.name,
		Offset: c.index,
		Cursor: c.id,
	})
}

// NewCursor creates a cursor at the beginning of the window, and registers it. When the window is empty, the
// cursor is at EOF until data is pushed.
func (w *Window) NewCursor() *Cursor {
	c := &Cursor{window: w, index: w.Begin()}
	w.register(c)
	return c
}

// Register adds a cursor to the window's registry, assigning it a new id, so that the window doesn't evict
// the segment the cursor points into. It is meant for cursors created by Clone(), or deleted earlier. It
// returns false when the cursor belongs to a different window or it is already registered.
func (w *Window) Register(c *Cursor) bool {
	if c == nil || c.window != w || c.Registered() {
		return false
	}

	w.register(c)
	return true
}

// DeleteCursor removes a cursor from the window's registry. After that, the cursor doesn't prevent eviction
// anymore, but it can still be used for reading. It returns false if the cursor was not registered with the
// window.
func (w *Window) DeleteCursor(c *Cursor) bool {
	if c == nil || c.window != w || c.id == 0 || w.cursors[c.id] != c {
		return false
	}

	delete(w.cursors, c.id)
	w.log.Debug("cursor deleted", "cursor", c.id, "position", c.index)
	w.notify.send(&Event{
		Type:   CursorDelete,
		Window: w.name,
		Offset: c.index,
		Cursor: c.id,
	})

	c.id = 0
	return true
}

// Cursors returns the registered cursors ordered by their id. The returned slice is a copy, modifying it
// doesn't affect the registry.
func (w *Window) Cursors() []*Cursor {
	c := make([]*Cursor, 0, len(w.cursors))
	for _, ci := range w.cursors {
		c = append(c, ci)
	}

	sort.Slice(c, func(i, j int) bool { return c[i].id < c[j].id })
	return c
}

// Stats returns statistics about the window.
func (w *Window) Stats() Stats {
	return w.stats()
}

// Describe returns diagnostic text about the window. When short is false, it lists the registered cursors,
// too.
func (w *Window) Describe(short bool) string {
	var b strings.Builder
	fmt.Fprintf(
		&b,
		"window %s: segments=%d/%d range=[%d,%d) cursors=%d",
		w.name,
		w.segments.len(),
		w.segments.cap(),
		w.Begin(),
		w.End(),
		len(w.cursors),
	)

	if short {
		return b.String()
	}

	for _, c := range w.Cursors() {
		b.WriteString("\n  ")
		b.WriteString(c.Describe(true))
	}

	return b.String()
}

// String returns the short description of the window.
func (w *Window) String() string {
	return w.Describe(true)
}
