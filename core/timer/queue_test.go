package timer_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/timer"
	"github.com/gosimavr/gosimavr/test"
)

func TestDrainFiresOnlyDueTimers(t *testing.T) {
	var q timer.Queue
	var fired []string

	q.Schedule("a", 10, func(now uint64) uint64 { fired = append(fired, "a"); return 0 })
	q.Schedule("b", 20, func(now uint64) uint64 { fired = append(fired, "b"); return 0 })

	q.Drain(15)
	test.ExpectEquality(t, fired, []string{"a"})
	test.ExpectEquality(t, q.Len(), 1)

	q.Drain(20)
	test.ExpectEquality(t, fired, []string{"a", "b"})
	test.ExpectEquality(t, q.Len(), 0)
}

func TestDrainOrdersByCycleThenInsertionOrder(t *testing.T) {
	var q timer.Queue
	var fired []string

	q.Schedule("second", 5, func(now uint64) uint64 { fired = append(fired, "second"); return 0 })
	q.Schedule("first", 5, func(now uint64) uint64 { fired = append(fired, "first"); return 0 })
	q.Schedule("later", 6, func(now uint64) uint64 { fired = append(fired, "later"); return 0 })

	q.Drain(100)
	test.ExpectEquality(t, fired, []string{"second", "first", "later"})
}

func TestRescheduleDeltaReArmsFromNowNotOriginalWhen(t *testing.T) {
	var q timer.Queue
	var firedAt []uint64

	q.Schedule("periodic", 10, func(now uint64) uint64 {
		firedAt = append(firedAt, now)
		return 5
	})

	// A single Drain call, arriving long after the scheduled cycle, fires
	// the timer exactly once: the re-armed cycle is now+delta, which is
	// always later than the 'now' passed to this Drain call, so a slow-to-
	// drain queue never fires a periodic timer more than once per call.
	q.Drain(100)
	test.ExpectEquality(t, firedAt, []uint64{100})
	test.ExpectEquality(t, q.Len(), 1)

	// The next drain, at the re-armed cycle, fires it again - confirming
	// the reschedule landed at 100+5=105, not at the original when (10)+5.
	q.Drain(104)
	test.ExpectEquality(t, firedAt, []uint64{100})
	q.Drain(105)
	test.ExpectEquality(t, firedAt, []uint64{100, 105})
}

func TestScheduleRelative(t *testing.T) {
	var q timer.Queue
	var fired bool
	q.ScheduleRelative("rel", 100, 10, func(now uint64) uint64 { fired = true; return 0 })

	q.Drain(109)
	test.ExpectEquality(t, fired, false)
	q.Drain(110)
	test.ExpectEquality(t, fired, true)
}

func TestDrainReturnsCyclesUntilNextPending(t *testing.T) {
	var q timer.Queue
	q.Schedule("a", 50, func(uint64) uint64 { return 0 })

	remaining := q.Drain(10)
	test.ExpectEquality(t, remaining, uint64(40))

	remaining = q.Drain(50)
	test.ExpectEquality(t, remaining, uint64(0))
}
