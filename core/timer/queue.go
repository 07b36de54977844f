// Package timer implements the cycle timer queue (C4): future-dated
// callbacks keyed by MCU cycle count. Peripherals that only need to act
// occasionally (a UART baud-rate tick, a watchdog countdown) schedule a
// timer instead of paying for a Run() call on every single instruction,
// which is reserved for peripherals that genuinely must observe every cycle
// (instruction tracing, for example).
package timer

import "container/heap"

// Callback is invoked when a timer fires. now is the cycle count at which it
// fired (which may be later than the scheduled cycle, since timers are only
// drained at instruction boundaries). Returning a non-zero delta
// re-schedules the timer delta cycles from now; returning 0 does not
// re-arm it.
type Callback func(now uint64) (rescheduleDelta uint64)

// entry is one scheduled timer. seq makes the heap stable on equal
// when-cycle values (insertion order is preserved among ties), matching the
// spec's "stable on equal keys" requirement.
type entry struct {
	when uint64
	seq  uint64
	fn   Callback
	name string
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a priority-queue-backed set of cycle timers. The zero value is
// ready to use.
type Queue struct {
	h       entryHeap
	seq     uint64
}

// Schedule arranges for fn to run when the cycle counter reaches atCycle.
// name is used only for diagnostics.
func (q *Queue) Schedule(name string, atCycle uint64, fn Callback) {
	heap.Push(&q.h, &entry{when: atCycle, seq: q.seq, fn: fn, name: name})
	q.seq++
}

// ScheduleRelative arranges for fn to run afterCycles cycles from now.
func (q *Queue) ScheduleRelative(name string, now uint64, afterCycles uint64, fn Callback) {
	q.Schedule(name, now+afterCycles, fn)
}

// Drain runs every timer whose scheduled cycle is <= now, in (cycle, seq)
// order. A callback that returns a non-zero delta is re-inserted at
// now+delta (not at its original when-cycle, so a slow-to-drain queue never
// causes a timer to fire twice for one missed cycle). Drain returns the
// number of cycles until the next pending timer, or 0 if the queue is empty,
// for sleep-duration estimation (spec §4.4).
func (q *Queue) Drain(now uint64) uint64 {
	for q.h.Len() > 0 && q.h[0].when <= now {
		e := heap.Pop(&q.h).(*entry)
		if delta := e.fn(now); delta != 0 {
			q.Schedule(e.name, now+delta, e.fn)
		}
	}
	if q.h.Len() == 0 {
		return 0
	}
	return q.h[0].when - now
}

// Len returns the number of pending timers.
func (q *Queue) Len() int { return q.h.Len() }
