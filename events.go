package segbuf

import (
	"fmt"
	"strings"
)

// EventType indicates the nature of a notification event. It is also used to mask which events should trigger
// a notification.
type EventType int

const (

	// Push events are sent when a segment was appended to a window.
	Push EventType = 1 << iota

	// Evict events are sent when the oldest segment was evicted to make room for a new one.
	Evict

	// Conflict events are sent when a push was refused, because a registered cursor still pointed into the
	// oldest segment.
	Conflict

	// CursorCreate events are sent when a cursor was registered with a window.
	CursorCreate

	// CursorDelete events are sent when a cursor was removed from a window's registry.
	CursorDelete

	// Normal mask for receiving the events that indicate pressure on the window.
	Normal = Evict | Conflict

	// All mask for receiving all possible notifications.
	All = Push | CursorCreate | CursorDelete | Normal
)

// Event objects describe a change in a window.
type Event struct {

	// Type indicates the reason of the event.
	Type EventType

	// Window contains the name of the window.
	Window string

	// Offset contains the virtual index of the affected segment, or the position of the affected cursor.
	Offset Index

	// Size contains the length of the affected segment. For conflicts, it is the length of the refused
	// segment.
	Size int

	// Cursor contains the id of the affected or blocking cursor, if any.
	Cursor CursorID
}

type notify struct {
	mask     EventType
	listener chan<- *Event
}

var eventNames = []struct {
	typ  EventType
	name string
}{
	{Push, "push"},
	{Evict, "evict"},
	{Conflict, "conflict"},
	{CursorCreate, "cursorCreate"},
	{CursorDelete, "cursorDelete"},
}

// String returns the string representation of an EventType value, listing all the set flags.
func (et EventType) String() string {
	var s []string
	et &= All
	for _, n := range eventNames {
		if et.Is(n.typ) {
			s = append(s, n.name)
		}
	}

	return strings.Join(s, "|")
}

// Is checks if one or more EventType flags are set.
func (et EventType) Is(test EventType) bool {
	return et&test != 0
}

// ParseEventType parses the representation returned by String(). In addition, it accepts the names "normal"
// and "all" for the predefined masks. Names are case insensitive.
func ParseEventType(s string) (EventType, error) {
	var et EventType
	for _, name := range strings.Split(s, "|") {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case "":
			continue
		case "normal":
			et |= Normal
			continue
		case "all":
			et |= All
			continue
		}

		var found bool
		for _, n := range eventNames {
			if strings.EqualFold(n.name, name) {
				et |= n.typ
				found = true
				break
			}
		}

		if !found {
			return 0, fmt.Errorf("unknown event type: %q", name)
		}
	}

	return et, nil
}

func newNotify(listener chan<- *Event, mask EventType) *notify {
	return &notify{
		listener: listener,
		mask:     mask,
	}
}

// forwards an event if it matches the mask. A window without a listener doesn't send anything.
func (n *notify) send(e *Event) {
	if n == nil || n.listener == nil {
		return
	}

	if e.Type.Is(n.mask) {
		n.listener <- e
	}
}
