package segbuf

// ring is a fixed capacity container of ordered elements. Elements are pushed at the end and shifted from the
// start. It does not grow: pushing onto a full ring is a programming error, the window always checks full()
// and shifts first.
type ring[T any] struct {
	items       []T
	first, size int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity)}
}

// maps a logical position, where 0 is the oldest element, to a slot
func (r *ring[T]) slot(i int) int {
	return (r.first + i) % len(r.items)
}

func (r *ring[T]) push(v T) {
	if r.full() {
		panic("segbuf: push to full ring")
	}

	r.items[r.slot(r.size)] = v
	r.size++
}

// removes and returns the oldest element. The slot is zeroed, so that the ring doesn't keep the element
// reachable.
func (r *ring[T]) shift() (T, bool) {
	var zero T
	if r.empty() {
		return zero, false
	}

	v := r.items[r.first]
	r.items[r.first] = zero
	r.first = (r.first + 1) % len(r.items)
	r.size--
	return v, true
}

func (r *ring[T]) last() (T, bool) {
	if r.empty() {
		var zero T
		return zero, false
	}

	return r.items[r.slot(r.size-1)], true
}

func (r *ring[T]) at(i int) T { return r.items[r.slot(i)] }
func (r *ring[T]) len() int    { return r.size }
func (r *ring[T]) cap() int    { return len(r.items) }
func (r *ring[T]) full() bool  { return r.size == len(r.items) }
func (r *ring[T]) empty() bool { return r.size == 0 }

// calls f for each element from the oldest to the newest, until f returns false
func (r *ring[T]) each(f func(int, T) bool) {
	for i := 0; i < r.size; i++ {
		if !f(i, r.at(i)) {
			return
		}
	}
}
