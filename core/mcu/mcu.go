// Package mcu ties the memory image, interpreter, IRQ bus, cycle-timer
// queue, interrupt controller and peripheral chain into the single object
// spec.md §3 describes: one MCU per simulated chip. This is the component
// the variant package's factory table produces, and the one the CLI, the
// GDB stub and every peripheral ultimately hold a reference to.
package mcu

import (
	"github.com/gosimavr/gosimavr/core/cpu"
	"github.com/gosimavr/gosimavr/core/interrupt"
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/core/peripheral"
	"github.com/gosimavr/gosimavr/core/timer"
	"github.com/gosimavr/gosimavr/instance"
	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/simerr"
)

// Config is the fixed, per-variant shape of one simulated chip: flash and
// RAM size, where the stack-pointer and status registers live in data
// space, and how wide an interrupt vector is. The variant package's
// descriptor table builds one of these per supported part.
type Config struct {
	Name string
	FCPU uint32

	FlashWords int
	RAMEnd     uint16
	IOSize     int
	EEPROMSize int

	SPLAddr  uint16
	SPHAddr  uint16
	SREGAddr uint16

	// VectorSize is 1 or 2 flash words, per part (spec glossary).
	VectorSize int

	// Instance carries the per-run state that must not be a package
	// global (spec §3's no-module-globals rule): presently just the RNG
	// Reset uses to fill uninitialised RAM. A nil Instance gets a fresh,
	// deterministic one seeded at 0.
	Instance *instance.Instance
}

// MCU is one simulated chip.
type MCU struct {
	Name string
	FCPU uint32

	Mem         *memory.Image
	CPU         *cpu.CPU
	IRQBus      *irq.Bus
	Timers      timer.Queue
	Interrupts  *interrupt.Controller
	Peripherals peripheral.Chain

	Log *logx.Logger

	Instance *instance.Instance

	State    State
	CrashErr error

	sregAddr    uint16
	gdbAttached bool
}

// New constructs an MCU from cfg. The returned MCU starts in StateLimbo;
// call Reset before running it, matching the teacher's own
// construct-then-reset convention for stateful simulation objects.
func New(cfg Config) *MCU {
	img := memory.New(cfg.FlashWords, cfg.RAMEnd, cfg.IOSize, cfg.EEPROMSize)
	c := cpu.New(img, cfg.SPLAddr, cfg.SPHAddr, cfg.RAMEnd)

	ins := cfg.Instance
	if ins == nil {
		ins = instance.New(0)
	}

	m := &MCU{
		Name:       cfg.Name,
		FCPU:       cfg.FCPU,
		Mem:        img,
		CPU:        c,
		IRQBus:     irq.NewBus(),
		Interrupts: interrupt.NewController(img, cfg.VectorSize),
		Log:        logx.NewLogger(500),
		Instance:   ins,
		sregAddr:   cfg.SREGAddr,
		State:      StateLimbo,
	}

	// Registering IO handlers for SREG means a plain OUT/IN SREG instruction
	// (firmware manipulating interrupts directly through the IO file rather
	// than via CLI/SEI/CLI) stays in sync with the CPU's own flag bools;
	// RunTick's post-execute Poke keeps a raw Peek of the same address
	// consistent too, for the GDB stub and crash dumps.
	img.RegisterRead(cfg.SREGAddr, func(uint16) uint8 { return c.SREG.Pack() })
	img.RegisterWrite(cfg.SREGAddr, func(_ uint16, v uint8) { c.SREG.Unpack(v) })

	return m
}

// AttachGDB marks whether a debugger is connected, which governs whether a
// BREAK instruction traps (spec §6).
func (m *MCU) AttachGDB(attached bool) { m.gdbAttached = attached }

// Reset restores power-on-default state across every subsystem (spec §3's
// lifecycle) and moves the MCU to Stopped. Data space is filled with random
// bytes rather than zeroed when m.Instance.RandomiseRAM is set, closer to
// real hardware's undefined power-on RAM contents; tests want the
// reproducible all-zero default instead, via instance.New's default or
// Instance.NormaliseForTest.
func (m *MCU) Reset() {
	m.Mem.Reset()
	if m.Instance != nil && m.Instance.RandomiseRAM {
		m.Instance.Random.Read(m.Mem.Data)
	}
	m.CPU.Reset()
	m.Peripherals.Reset()
	m.State = StateStopped
	m.CrashErr = nil
}

// AllowLogging implements logx.Permission; the MCU always allows its own
// diagnostic log entries.
func (m *MCU) AllowLogging() bool { return true }

// RaiseInterrupt is how peripherals signal a CPU interrupt vector. Routing
// this through MCU rather than letting peripherals call the
// interrupt.Controller directly is what lets sleep-wake (spec §4.4) be
// handled in one place: a peripheral never needs to know whether the core
// happens to be sleeping when it raises its flag.
func (m *MCU) RaiseInterrupt(vector int) {
	if m.Interrupts.Raise(vector, m.State == StateSleeping) {
		m.State = StateRunning
	}
}

// checkInvariants reports an error if core state has left the bounds spec §3
// guarantees between instructions: PC inside flash, SP inside data space.
// Ordinary firmware can reach either violation directly: a JMP/RJMP/CALL/
// RCALL/IJMP/ICALL or taken branch computes its target PC without bounds
// checking it against flash size, and a stack that walks off either end of
// data space is exactly what checkSP already guards against mid-instruction.
// Both are reported the same way every other invariant violation is, via the
// RunTick crash path, never by panicking the host process.
func (m *MCU) checkInvariants() error {
	if int(m.CPU.PC)*2 >= len(m.Mem.Flash) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "pc %#06x out of flash bounds", m.CPU.PC)
	}
	if sp := m.CPU.SP(); sp > m.CPU.RAMEnd {
		return simerr.Errorf(simerr.StackOverflow, "sp %#04x beyond ramend %#04x", sp, m.CPU.RAMEnd)
	}
	return nil
}
