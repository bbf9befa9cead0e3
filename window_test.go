package segbuf

import (
	"errors"
	"math"
	"strings"
	"testing"
	"testing/quick"
)

func pushAll(t *testing.T, w *Window, p ...[]byte) {
	t.Helper()
	for _, pi := range p {
		if err := w.Push(pi); err != nil {
			t.Fatal("failed to push", err)
		}
	}
}

func checkRange(t *testing.T, w *Window, begin, end Index) {
	t.Helper()
	if w.Begin() != begin || w.End() != end {
		t.Errorf("invalid range: [%d,%d), expected: [%d,%d)", w.Begin(), w.End(), begin, end)
	}
}

func TestWindowCreate(t *testing.T) {
	w := New(3)
	checkRange(t, w, 0, 0)
	if w.Len() != 0 || w.Cap() != 3 || len(w.Cursors()) != 0 {
		t.Error("invalid initial state", w.Len(), w.Cap(), len(w.Cursors()))
	}

	if w.Name() == "" {
		t.Error("missing default name")
	}

	if d := New(0); d.Cap() != DefaultCapacity {
		t.Error("failed to apply default capacity", d.Cap())
	}
}

func TestWindowPush(t *testing.T) {
	t.Run("first segment starts at zero", func(t *testing.T) {
		w := New(3)
		pushAll(t, w, []byte{1, 2, 3})
		checkRange(t, w, 0, 3)
	})

	t.Run("segments are contiguous", func(t *testing.T) {
		w := New(3)
		pushAll(t, w, []byte{1, 2}, []byte{3}, []byte{4, 5, 6})
		checkRange(t, w, 0, 6)
		for i := 1; i < w.segments.len(); i++ {
			if w.segments.at(i).offset != w.segments.at(i-1).end() {
				t.Error("gap between segments", i)
			}
		}
	})

	t.Run("zero length segment", func(t *testing.T) {
		w := New(3)
		pushAll(t, w, []byte{1, 2}, nil, []byte{3})
		checkRange(t, w, 0, 3)
		if w.Len() != 3 {
			t.Error("zero length segment not held")
		}

		c := w.NewCursor()
		c.Move(2)
		if b, err := c.At(); err != nil || b != 3 {
			t.Error("failed to skip zero length segment", b, err)
		}
	})

	t.Run("evicts oldest when full", func(t *testing.T) {
		w := New(2)
		pushAll(t, w, []byte{1, 2}, []byte{3, 4, 5}, []byte{6})
		checkRange(t, w, 2, 6)
		if w.Len() != 2 {
			t.Error("invalid segment count", w.Len())
		}
	})

	t.Run("evicts with cursor outside of oldest", func(t *testing.T) {
		w := New(2)
		pushAll(t, w, []byte{1, 2}, []byte{3, 4})
		c := w.NewCursor()
		c.Move(2)
		pushAll(t, w, []byte{5})
		checkRange(t, w, 2, 5)
	})

	t.Run("cursor at end of window doesn't block", func(t *testing.T) {
		w := New(1)
		pushAll(t, w, []byte{1, 2})
		c := w.NewCursor()
		c.Move(2)
		pushAll(t, w, []byte{3})
		checkRange(t, w, 2, 3)
	})
}

func TestWindowPushConflict(t *testing.T) {
	w := New(2)
	pushAll(t, w, []byte{1, 2}, []byte{3, 4})
	c1 := w.NewCursor()
	c2 := w.NewCursor()
	c2.Move(1)

	before := w.Stats()
	err := w.Push([]byte{5})
	if !errors.Is(err, ErrCursorConflict) {
		t.Fatal("failed to report conflict", err)
	}

	if !strings.Contains(err.Error(), "cursor 1") {
		t.Error("failed to name the cursor with the lowest id", err)
	}

	checkRange(t, w, 0, 4)
	after := w.Stats()
	if after.Segments != before.Segments || after.Pushes != before.Pushes || after.Conflicts != 1 {
		t.Error("window changed by refused push", before, after)
	}

	c1.Move(2)
	if err := w.Push([]byte{5}); !errors.Is(err, ErrCursorConflict) || !strings.Contains(err.Error(), "cursor 2") {
		t.Fatal("failed to report conflict", err)
	}

	if !w.DeleteCursor(c2) {
		t.Fatal("failed to delete cursor")
	}

	if err := w.Push([]byte{5}); err != nil {
		t.Fatal("failed to push after resolving the conflict", err)
	}

	checkRange(t, w, 2, 5)
}

func TestWindowPushOverflow(t *testing.T) {
	w := New(2)
	w.segments.push(segment{offset: math.MaxUint64 - 3, data: []byte{1, 2}})
	if err := w.Push([]byte{3}); err != nil {
		t.Fatal("failed to push", err)
	}

	if w.End() != math.MaxUint64 {
		t.Error("invalid end", w.End())
	}

	if err := w.Push([]byte{4}); err != ErrIndexOverflow {
		t.Error("failed to report overflow", err)
	}

	if err := w.Push(nil); err != nil {
		t.Error("failed to push empty segment at the end of the index space", err)
	}
}

func TestWindowBeginEnd(t *testing.T) {
	f := func(lengths []uint8, capacityOffset uint8) bool {
		capacity := int(capacityOffset%16) + 1
		w := New(capacity)

		var evicted, total Index
		var pushed []int
		for _, l := range lengths {
			begin := w.Begin()
			if err := w.Push(make([]byte, l)); err != nil {
				return false
			}

			pushed = append(pushed, int(l))
			total += Index(l)
			if len(pushed) > capacity {
				evicted += Index(pushed[len(pushed)-capacity-1])
			}

			if w.Begin() < begin || w.Begin() != evicted || w.End() != total {
				return false
			}

			var resident Index
			w.segments.each(func(_ int, s segment) bool {
				resident += Index(len(s.data))
				return true
			})

			if w.End() != w.Begin()+resident {
				return false
			}
		}

		return true
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

func TestWindowLocate(t *testing.T) {
	w := New(4)
	pushAll(t, w, []byte{1, 2}, []byte{3}, nil, []byte{4, 5, 6})

	for _, ti := range []struct {
		index Index
		slot  int
		found bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 1, true},
		{3, 3, true},
		{5, 3, true},
		{6, 3, false},
		{42, 3, false},
	} {
		slot, found := w.locate(ti.index)
		if slot != ti.slot || found != ti.found {
			t.Error("invalid location", ti.index, slot, found)
		}
	}

	if slot, found := New(2).locate(0); slot != -1 || found {
		t.Error("invalid location in empty window", slot, found)
	}
}

func TestWindowCursorRegistry(t *testing.T) {
	t.Run("cursors are listed in order", func(t *testing.T) {
		w := New(2)
		c1, c2, c3 := w.NewCursor(), w.NewCursor(), w.NewCursor()
		cc := w.Cursors()
		if len(cc) != 3 || cc[0] != c1 || cc[1] != c2 || cc[2] != c3 {
			t.Error("invalid cursor list", cc)
		}

		cc[0] = nil
		if w.Cursors()[0] != c1 {
			t.Error("registry modified through the returned slice")
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := New(2)
		c := w.NewCursor()
		if !w.DeleteCursor(c) {
			t.Error("failed to delete cursor")
		}

		if w.DeleteCursor(c) {
			t.Error("deleted cursor twice")
		}

		if len(w.Cursors()) != 0 || c.Registered() {
			t.Error("cursor still registered")
		}
	})

	t.Run("delete cursor of another window", func(t *testing.T) {
		w1, w2 := New(2), New(2)
		c := w1.NewCursor()
		if w2.DeleteCursor(c) {
			t.Error("deleted foreign cursor")
		}

		if !c.Registered() {
			t.Error("cursor unregistered from its own window")
		}
	})

	t.Run("delete clone", func(t *testing.T) {
		w := New(2)
		c := w.NewCursor()
		if w.DeleteCursor(c.Clone()) {
			t.Error("deleted unregistered clone")
		}

		if w.DeleteCursor(nil) {
			t.Error("deleted nil")
		}
	})

	t.Run("register clone", func(t *testing.T) {
		w := New(1)
		pushAll(t, w, []byte{1, 2})
		c := w.NewCursor()
		cc := c.Clone()
		if cc.Registered() || cc.ID() != 0 {
			t.Error("clone registered implicitly")
		}

		if !w.Register(cc) {
			t.Fatal("failed to register clone")
		}

		if w.Register(cc) || w.Register(c) {
			t.Error("registered cursor twice")
		}

		if cc.ID() == c.ID() {
			t.Error("clone has the same id")
		}

		c.Move(2)
		if err := w.Push([]byte{3}); !errors.Is(err, ErrCursorConflict) {
			t.Error("registered clone failed to block eviction", err)
		}
	})

	t.Run("register to another window", func(t *testing.T) {
		w1, w2 := New(1), New(1)
		if w2.Register(w1.NewCursor().Clone()) {
			t.Error("registered foreign cursor")
		}
	})

	t.Run("re-register deleted cursor", func(t *testing.T) {
		w := New(1)
		c := w.NewCursor()
		id := c.ID()
		w.DeleteCursor(c)
		if !w.Register(c) || c.ID() == id {
			t.Error("failed to re-register with a new id", c.ID(), id)
		}
	})

	t.Run("unregistered clone doesn't block", func(t *testing.T) {
		w := New(1)
		pushAll(t, w, []byte{1, 2})
		c := w.NewCursor()
		cc := c.Clone()
		w.DeleteCursor(c)
		if err := w.Push([]byte{3}); err != nil {
			t.Error("clone blocked eviction", err)
		}

		if _, err := cc.At(); err != ErrEvicted {
			t.Error("failed to report evicted position", err)
		}
	})
}

func TestWindowStats(t *testing.T) {
	w := New(2)
	c := w.NewCursor()
	pushAll(t, w, []byte{1, 2}, []byte{3})
	c.Move(2)
	pushAll(t, w, []byte{4, 5, 6})
	w.NewCursor()

	s := w.Stats()
	expect := Stats{
		Capacity:     2,
		Segments:     2,
		Begin:        2,
		End:          6,
		Size:         4,
		Cursors:      2,
		Pushes:       3,
		PushedBytes:  6,
		Evictions:    1,
		EvictedBytes: 2,
		Conflicts:    0,
	}

	if s != expect {
		t.Errorf("invalid stats: %+v, expected: %+v", s, expect)
	}

	w.DeleteCursor(w.Cursors()[1])
	if err := w.Push([]byte{8}); err == nil {
		t.Fatal("failed to refuse push")
	}

	if s := w.Stats(); s.Conflicts != 1 || s.Cursors != 1 {
		t.Error("failed to count conflict", s)
	}
}

func TestWindowDescribe(t *testing.T) {
	w := NewWithOptions(Options{Name: "test", Capacity: 3})
	pushAll(t, w, []byte{1, 2}, []byte{3})
	c1 := w.NewCursor()
	c2 := w.NewCursor()
	c2.Move(3)

	if d := w.Describe(true); d != "window test: segments=2/3 range=[0,3) cursors=2" {
		t.Error("invalid short description", d)
	}

	expect := "window test: segments=2/3 range=[0,3) cursors=2\n" +
		"  cursor 1 at 0\n" +
		"  cursor 2 at 3 (eof)"
	if d := w.Describe(false); d != expect {
		t.Error("invalid description", d)
	}

	if w.String() != w.Describe(true) {
		t.Error("invalid string")
	}

	if d := c1.Describe(false); d != "cursor 1 at 0 in "+expect {
		t.Error("invalid cursor description", d)
	}

	if d := c1.Clone().String(); d != "cursor - at 0" {
		t.Error("invalid clone description", d)
	}
}
