package mcu_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/bitsel"
	"github.com/gosimavr/gosimavr/core/interrupt"
	"github.com/gosimavr/gosimavr/core/mcu"
	"github.com/gosimavr/gosimavr/instance"
	"github.com/gosimavr/gosimavr/simerr"
	"github.com/gosimavr/gosimavr/test"
)

func newMCU(t *testing.T) *mcu.MCU {
	t.Helper()
	ins := instance.New(0)
	ins.NormaliseForTest()
	m := mcu.New(mcu.Config{
		Name:       "test",
		FCPU:       1_000_000,
		FlashWords: 1024,
		RAMEnd:     0x2FF,
		IOSize:     0x40,
		EEPROMSize: 0,
		SPLAddr:    0x3D,
		SPHAddr:    0x3E,
		SREGAddr:   0x3F,
		VectorSize: 1,
		Instance:   ins,
	})
	m.Reset()
	return m
}

func loadWords(m *mcu.MCU, words ...uint16) {
	for i, w := range words {
		m.Mem.Flash[i*2] = uint8(w)
		m.Mem.Flash[i*2+1] = uint8(w >> 8)
	}
}

func TestResetLeavesMCURunnable(t *testing.T) {
	m := newMCU(t)
	test.ExpectEquality(t, m.State.String(), "stopped")
	test.ExpectEquality(t, m.CPU.PC, uint32(0))
}

func TestRunTickOnStoppedMCUIsANoOp(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x0000) // NOP
	err := m.RunTick()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.CPU.PC, uint32(0))
}

func TestRunTickExecutesOneInstructionWhileRunning(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x0000, 0x0000) // two NOPs
	m.State = mcu.StateRunning

	err := m.RunTick()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.CPU.PC, uint32(1))
	test.ExpectEquality(t, m.State, mcu.StateRunning)
}

func TestSleepWithInterruptsEnabledEntersSleepingAndIdlesUntilWoken(t *testing.T) {
	m := newMCU(t)
	enable := bitsel.New(0x20, 0)
	enable.SetBit(m.Mem)
	m.Interrupts.AddVector(interrupt.Vector{Number: 0, Enable: enable, Raised: bitsel.New(0x21, 0)})

	loadWords(m, 0x9478, 0x9588) // SEI, SLEEP
	m.State = mcu.StateRunning

	test.ExpectSuccess(t, m.RunTick()) // SEI
	test.ExpectSuccess(t, m.RunTick()) // SLEEP
	test.ExpectEquality(t, m.State, mcu.StateSleeping)

	beforeCycle := m.CPU.Cycle
	test.ExpectSuccess(t, m.RunTick()) // idling
	test.ExpectEquality(t, m.CPU.Cycle, beforeCycle+1)
	test.ExpectEquality(t, m.State, mcu.StateSleeping)

	m.RaiseInterrupt(0)
	test.ExpectEquality(t, m.State, mcu.StateRunning)
}

func TestSleepWithInterruptsDisabledCrashes(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x9588) // SLEEP with I clear
	m.State = mcu.StateRunning

	err := m.RunTick()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, m.State, mcu.StateCrashed)
	test.ExpectEquality(t, m.CrashErr != nil, true)
}

// A firmware RJMP that lands past the end of flash must crash the MCU, not
// panic the host process: checkInvariants is reachable from ordinary
// firmware, not just from this simulator's own bookkeeping bugs.
func TestRJMPPastEndOfFlashCrashesRatherThanPanics(t *testing.T) {
	m := newMCU(t) // 1024 flash words
	loadWords(m, 0xC7FF)      // RJMP +2047: PC 1 + 2047 = 2048, past flash
	m.State = mcu.StateRunning

	err := m.RunTick()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, m.State, mcu.StateCrashed)
	test.ExpectEquality(t, simerr.Is(m.CrashErr, simerr.OutOfRangeAccess), true)
}

func TestBreakTrapsOnlyWhenGDBAttached(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x9598) // BREAK
	m.State = mcu.StateRunning

	test.ExpectSuccess(t, m.RunTick())
	test.ExpectEquality(t, m.State, mcu.StateRunning)
}

func TestBreakStopsWhenGDBAttached(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x9598) // BREAK
	m.AttachGDB(true)
	m.State = mcu.StateRunning

	test.ExpectSuccess(t, m.RunTick())
	test.ExpectEquality(t, m.State, mcu.StateStopped)
}

func TestStepRunsExactlyOneInstructionThenStops(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x0000, 0x0000)

	err := m.Step()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.CPU.PC, uint32(1))
	test.ExpectEquality(t, m.State, mcu.StateStopped)
}

func TestLoadFlashRejectsImageLargerThanFlash(t *testing.T) {
	m := newMCU(t)
	huge := make([]byte, len(m.Mem.Flash)+2)
	err := m.LoadFlash(huge)
	test.ExpectFailure(t, err)
}

func TestLoadFlashCopiesImageIntoFlash(t *testing.T) {
	m := newMCU(t)
	err := m.LoadFlash([]byte{0x11, 0x22, 0x33})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.Mem.Flash[0], uint8(0x11))
	test.ExpectEquality(t, m.Mem.Flash[1], uint8(0x22))
	test.ExpectEquality(t, m.Mem.Flash[2], uint8(0x33))
}

func TestRunStopsAtStoppedState(t *testing.T) {
	m := newMCU(t)
	loadWords(m, 0x9598) // BREAK
	m.AttachGDB(true)
	m.State = mcu.StateRunning

	err := m.Run()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, m.State, mcu.StateStopped)
}
