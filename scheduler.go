package simnet

//
// Discrete-event scheduler
//

import (
	"container/heap"
	"fmt"
)

// EventHandler is invoked by the [Scheduler] when a scheduled event fires.
// now is the simulation time at which the event is dispatched (equal to
// the time it was scheduled for).
type EventHandler func(now float64)

// schedEvent is one entry in the scheduler's event heap. seq is assigned
// at schedule time and used as the tie-breaker for events with equal time,
// giving deterministic, insertion-ordered dispatch. valid is flipped to
// false by [EventHandle.Cancel]; Pop discards invalid entries instead of
// dispatching them.
type schedEvent struct {
	when    float64
	seq     uint64
	handler EventHandler
	valid   bool
	index   int // maintained by container/heap
}

// EventHandle identifies a previously scheduled event so it can be
// cancelled. The zero value is not a valid handle.
type EventHandle struct {
	ev *schedEvent
}

// Cancel marks the referenced event invalid. A later pop skips it.
// Cancelling an already-cancelled or already-dispatched handle is a no-op.
func (h EventHandle) Cancel() {
	if h.ev != nil {
		h.ev.valid = false
	}
}

// eventHeap implements container/heap.Interface, ordering by (when, seq)
// lexicographically so that same-instant events dispatch in insertion order.
type eventHeap []*schedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*schedEvent)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Scheduler is the global discrete-event queue. The zero value is invalid;
// use [NewScheduler] to construct. It is not safe for concurrent use: the
// simulation core is single-threaded by design (see package docs).
type Scheduler struct {
	logger      Logger
	heap        eventHeap
	seq         uint64
	currentTime float64
}

// NewScheduler creates an empty [Scheduler]. logger may be nil, in which
// case a [NullLogger] is used.
func NewScheduler(logger Logger) *Scheduler {
	if logger == nil {
		logger = &NullLogger{}
	}
	s := &Scheduler{
		logger: logger,
		heap:   eventHeap{},
	}
	heap.Init(&s.heap)
	return s
}

// Now returns the scheduler's current simulation time.
func (s *Scheduler) Now() float64 {
	return s.currentTime
}

// Schedule inserts handler to run at the given simulation time, which MUST
// be >= [Scheduler.Now]. Scheduling a past event is a programmer error and
// panics, per the engine's error-handling policy for scheduler invariants.
func (s *Scheduler) Schedule(when float64, handler EventHandler) EventHandle {
	if when < s.currentTime {
		panic(fmt.Sprintf("simnet: scheduler: cannot schedule event at %v before current time %v", when, s.currentTime))
	}
	s.seq++
	ev := &schedEvent{
		when:    when,
		seq:     s.seq,
		handler: handler,
		valid:   true,
	}
	heap.Push(&s.heap, ev)
	return EventHandle{ev: ev}
}

// Len returns the number of events still pending (including cancelled
// ones not yet popped).
func (s *Scheduler) Len() int {
	return s.heap.Len()
}

// Run pops events in (time, seq) order, advancing [Scheduler.Now] and
// invoking each valid handler, until the queue is empty or the next
// event's time exceeds simDuration.
func (s *Scheduler) Run(simDuration float64) {
	for s.heap.Len() > 0 {
		ev := s.heap[0]
		if ev.when > simDuration {
			return
		}
		if ev.when < s.currentTime {
			panic(fmt.Sprintf("simnet: scheduler: popped event at %v before current time %v", ev.when, s.currentTime))
		}
		heap.Pop(&s.heap)
		s.currentTime = ev.when
		if !ev.valid {
			continue
		}
		ev.handler(ev.when)
	}
}
