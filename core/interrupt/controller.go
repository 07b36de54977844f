// Package interrupt implements the AVR interrupt controller (C6): the
// pending/enable/raise/clear latching state machine and vector dispatch
// described in spec.md §4.6. It is deliberately independent of core/cpu and
// core/mcu: Service only returns the vector's PC, and the caller pushes the
// return address and commits the new PC, so this package has no
// import-cycle entanglement with the interpreter.
package interrupt

import "github.com/gosimavr/gosimavr/core/bitsel"

// Vector describes one interrupt vector: its number, the selector that
// gates delivery (the peripheral's *IE bit), and the selector that is set on
// raise and cleared on service so firmware can poll it (the peripheral's
// flag bit, e.g. TOV0).
type Vector struct {
	Number int
	Enable bitsel.Selector
	Raised bitsel.Selector
}

// mem is the subset of core/memory.Image the controller needs to read/write
// selector bits.
type mem interface {
	bitsel.Peeker
	bitsel.Poker
}

// Controller holds the pending/latency state. One Controller per MCU.
type Controller struct {
	mem mem

	vectors  map[int]Vector
	pending  uint64 // bit i set => vector i is pending
	pending2 uint64 // vectors 64..127, for variants with more than 64 vectors

	// PendingWait is the two-cycle latency counter from spec §4.6: set to 2
	// on the first raise after pending_wait reached 0, or on the rising
	// edge of the I flag. service only runs once it has decremented to 0.
	PendingWait int

	// VectorSize is 1 or 2 words depending on MCU (spec glossary).
	VectorSize int
}

// NewController creates a Controller over the given VectorSize (1 or 2
// words).
func NewController(m mem, vectorSize int) *Controller {
	return &Controller{mem: m, vectors: make(map[int]Vector), VectorSize: vectorSize}
}

// AddVector registers a vector descriptor. Peripherals call this during
// their registration with the MCU (spec §4.7 "register their interrupt
// vectors").
func (c *Controller) AddVector(v Vector) {
	c.vectors[v.Number] = v
}

func bitOf(bitmap *uint64, bitmap2 *uint64, n int) bool {
	if n < 64 {
		return *bitmap&(1<<uint(n)) != 0
	}
	return *bitmap2&(1<<uint(n-64)) != 0
}

func setBit(bitmap *uint64, bitmap2 *uint64, n int, v bool) {
	var mask uint64
	var target *uint64
	if n < 64 {
		mask = 1 << uint(n)
		target = bitmap
	} else {
		mask = 1 << uint(n-64)
		target = bitmap2
	}
	if v {
		*target |= mask
	} else {
		*target &^= mask
	}
}

// Pending reports whether vector n is currently pending.
func (c *Controller) Pending(n int) bool {
	return bitOf(&c.pending, &c.pending2, n)
}

// Raise implements spec §4.6's raise_interrupt: the raised selector is
// always set so firmware can poll it even with interrupts globally
// disabled. If enable is set, the vector is added to the pending set; if
// wasSleeping is true the caller should wake the CPU to Running (reported
// via the woke return value, since this package does not know about CPU
// state). If no latency timer is already counting down, it is armed to 2
// cycles.
func (c *Controller) Raise(n int, wasSleeping bool) (woke bool) {
	v, ok := c.vectors[n]
	if !ok {
		return false
	}

	v.Raised.SetBit(c.mem)

	if !v.Enable.IsSet(c.mem) {
		return false
	}

	setBit(&c.pending, &c.pending2, n, true)

	if c.PendingWait == 0 {
		c.PendingWait = 2
	}

	return wasSleeping
}

// Clear clears vector n's raised selector and pending bit without servicing
// it, used by peripherals that want to retract a condition (e.g. a flag
// cleared by firmware writing 1 to it, rather than by vector service).
func (c *Controller) Clear(n int) {
	v, ok := c.vectors[n]
	if !ok {
		return
	}
	v.Raised.ClearBit(c.mem)
	setBit(&c.pending, &c.pending2, n, false)
}

// NotePendingWaitEdge is called by the interpreter whenever it detects the
// global interrupt flag's rising edge (SEI, or RETI's post-pop set). Per
// spec §4.6/§8, this guarantees at least one instruction always executes
// after SEI/RETI before the next ISR can be serviced.
func (c *Controller) NotePendingWaitEdge() {
	c.PendingWait = 2
}

// Tick decrements the latency counter once per instruction. Call this
// unconditionally at the end of every run tick, interrupts-enabled or not;
// it is harmless once it reaches 0 and is always re-armed by the next
// edge/raise.
func (c *Controller) Tick() {
	if c.PendingWait > 0 {
		c.PendingWait--
	}
}

// ReadyToService reports whether service can run this cycle: the latency
// counter must have fully decremented. The caller is still responsible for
// checking the CPU's global interrupt flag.
func (c *Controller) ReadyToService() bool {
	return c.PendingWait == 0
}

// NextVector returns the lowest-numbered pending vector and true, or
// (0, false) if nothing is pending. Per spec §4.6, priority is vector number
// ascending and exactly one vector is serviced per call to Service.
func (c *Controller) NextVector() (int, bool) {
	for n := 0; n < 64; n++ {
		if c.pending&(1<<uint(n)) != 0 {
			return n, true
		}
	}
	for n := 0; n < 64; n++ {
		if c.pending2&(1<<uint(n)) != 0 {
			return n + 64, true
		}
	}
	return 0, false
}

// Service clears the pending bit and the vector's raised selector for n,
// and returns the flash word address to jump to (n * VectorSize). The
// caller (core/mcu) is responsible for pushing the return PC and clearing
// the global interrupt flag before calling this, and for committing the
// returned PC afterwards.
func (c *Controller) Service(n int) (newPC uint32) {
	setBit(&c.pending, &c.pending2, n, false)
	if v, ok := c.vectors[n]; ok {
		v.Raised.ClearBit(c.mem)
	}
	return uint32(n * c.VectorSize)
}
