// Package timer8 implements a minimal 8-bit counter in Normal mode:
// TCNT/TCCR/TIMSK/TIFR, a prescaler, and a TOV overflow interrupt. This is
// the peripheral the interrupt-controller test scenario (spec §8 scenario
// 2) is built around; CTC/PWM modes and the output-compare units are out of
// scope (datasheet fidelity is explicitly not a goal).
package timer8

import (
	"github.com/gosimavr/gosimavr/core/bitsel"
	"github.com/gosimavr/gosimavr/core/interrupt"
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/core/peripheral"
)

// prescaleDivisors indexes CS0[2:0] to its clock divisor; 0 means "counter
// stopped".
var prescaleDivisors = [8]uint64{0, 1, 8, 64, 256, 1024, 0, 0}

// Raiser is the subset of *core/mcu.MCU a timer needs: the ability to
// signal its overflow vector (which also handles sleep-wake), kept as an
// interface so this package never imports core/mcu.
type Raiser interface {
	RaiseInterrupt(vector int)
}

// Timer is one 8-bit timer/counter instance.
type Timer struct {
	name string
	mem  *memory.Image
	mcu  Raiser
	ctrl *interrupt.Controller

	tcntAddr, tccrAddr, timskAddr, tifrAddr uint16
	vectorNum                               int
	tovBit                                  uint8

	tov  bitsel.Selector // TIFR.TOV
	toie bitsel.Selector // TIMSK.TOIE

	overflowIRQ *irq.IRQ

	divisor     uint64
	prescaleAcc uint64
}

// New creates an 8-bit timer at the given register addresses, registering
// its overflow vector with ctrl. bit is TOV/TOIE's bit position within
// TIFR/TIMSK (0 on most single-timer parts, but differs when several
// timers share one TIMSK, e.g. OCIE bits interleaved between timers).
func New(bus *irq.Bus, mem *memory.Image, mcuHandle Raiser, ctrl *interrupt.Controller,
	name string, tcntAddr, tccrAddr, timskAddr, tifrAddr uint16, bit uint8, vectorNum int) *Timer {

	t := &Timer{
		name:        name,
		mem:         mem,
		mcu:         mcuHandle,
		ctrl:        ctrl,
		tcntAddr:    tcntAddr,
		tccrAddr:    tccrAddr,
		timskAddr:   timskAddr,
		tifrAddr:    tifrAddr,
		vectorNum:   vectorNum,
		tovBit:      bit,
		tov:         bitsel.New(tifrAddr, bit),
		toie:        bitsel.New(timskAddr, bit),
		overflowIRQ: bus.Alloc(name+".overflow", 1)[0],
	}

	ctrl.AddVector(interrupt.Vector{Number: vectorNum, Enable: t.toie, Raised: t.tov})

	mem.RegisterWrite(tccrAddr, t.writeTCCR)
	// TIFR's TOV bit is cleared by firmware writing a 1 to it (AVR's
	// "write one to clear" convention for flag registers), not by a normal
	// store.
	mem.RegisterWrite(tifrAddr, t.writeTIFR)

	return t
}

func (t *Timer) Kind() string { return "timer8" }

func (t *Timer) Reset() {
	t.mem.Poke(t.tcntAddr, 0)
	t.mem.Poke(t.tccrAddr, 0)
	t.mem.Poke(t.timskAddr, 0)
	t.mem.Poke(t.tifrAddr, 0)
	t.divisor = 0
	t.prescaleAcc = 0
}

// Run advances the prescaler by one clock per call. RunTick calls it once
// per executed instruction, or once per idle cycle while sleeping, so a
// multi-cycle instruction counts as a single clock. The timer counts every
// clock the prescaler lets through, so it needs per-call attention rather
// than a core/timer.Queue entry.
func (t *Timer) Run(cycle uint64) {
	if t.divisor == 0 {
		return
	}
	t.prescaleAcc++
	if t.prescaleAcc < t.divisor {
		return
	}
	t.prescaleAcc = 0

	v, _ := t.mem.Peek(t.tcntAddr)
	v++
	t.mem.Poke(t.tcntAddr, v)
	if v == 0 {
		t.tov.SetBit(t.mem)
		t.mcu.RaiseInterrupt(t.vectorNum)
		// overflowIRQ is the bus-visible line for anything wired outside
		// the interrupt controller (the --irq-graph dump, a future
		// peripheral chained off this timer); cycle is always distinct
		// from its previous value, so this always produces an edge.
		irq.Raise(t.overflowIRQ, uint32(cycle))
	}
}

func (t *Timer) Ioctl(ctl peripheral.IOCTL, arg any) peripheral.Status {
	return peripheral.StatusUnhandled
}

func (t *Timer) GetIRQ(index int) *irq.IRQ {
	if index != 0 {
		return nil
	}
	return t.overflowIRQ
}

func (t *Timer) writeTCCR(addr uint16, v uint8) {
	t.mem.Poke(addr, v)
	t.divisor = prescaleDivisors[v&0x7]
	t.prescaleAcc = 0
}

func (t *Timer) writeTIFR(addr uint16, v uint8) {
	cur, _ := t.mem.Peek(addr)
	// Writing 1 to a flag bit clears it; writing 0 leaves it alone.
	t.mem.Poke(addr, cur&^v)
	if v&(1<<t.tovBit) != 0 {
		t.ctrl.Clear(t.vectorNum)
	}
}

var _ peripheral.Peripheral = (*Timer)(nil)
