package editor

import "sync"

// IdleQueue holds zero-argument callbacks to run once at the host's next idle
// point. Callbacks enqueued while a tick runs wait for the following tick.
type IdleQueue struct {
	mu      sync.Mutex
	pending []func()
}

// Defer enqueues fn for the next tick.
func (q *IdleQueue) Defer(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Tick runs, in FIFO order, the callbacks that were pending when it started
// and returns how many ran.
func (q *IdleQueue) Tick() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Drain ticks until nothing is pending or maxTicks is reached, returning the
// number of ticks run.
func (q *IdleQueue) Drain(maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && q.Len() > 0 {
		q.Tick()
		ticks++
	}
	return ticks
}

// Len returns the number of pending callbacks.
func (q *IdleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Selection is the host's active-object slot.
type Selection struct {
	mu     sync.Mutex
	active any
}

func (s *Selection) Set(obj any) {
	s.mu.Lock()
	s.active = obj
	s.mu.Unlock()
}

func (s *Selection) Active() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
