package mcu

import (
	"github.com/gosimavr/gosimavr/logx"
	"github.com/gosimavr/gosimavr/simerr"
)

// RunTick advances the simulation by exactly one run tick (spec §2/§5): one
// CPU instruction while Running or single-Stepping, or one idle cycle of
// peripheral/timer service while Sleeping. Either way it is followed by
// peripheral Run, cycle-timer drain, and at most one interrupt vector
// service.
//
// Ordering follows the sim_avr.c variant named in the design notes rather
// than the alternate avr_run found elsewhere in that source: SREG is
// materialized into data space only after every peripheral and timer has had
// its say for this cycle, and interrupt service happens last of all.
func (m *MCU) RunTick() error {
	switch m.State {
	case StateDone, StateCrashed, StateStopped, StateLimbo, StateStepDone:
		return nil
	}

	wasI := m.CPU.SREG.I

	switch m.State {
	case StateRunning, StateStep:
		res, err := m.CPU.RunOne()
		if err != nil {
			m.crash(err)
			return err
		}

		switch res.Mnemonic {
		case "SLEEP":
			if err := m.enterSleep(res.Address); err != nil {
				return err
			}
		case "BREAK":
			if m.gdbAttached {
				m.State = StateStopped
			}
		}

		if !wasI && m.CPU.SREG.I {
			m.Interrupts.NotePendingWaitEdge()
		}

	case StateSleeping:
		m.CPU.Cycle++
	}

	m.Peripherals.Run(m.CPU.Cycle)
	m.Timers.Drain(m.CPU.Cycle)
	m.Mem.Poke(m.sregAddr, m.CPU.SREG.Pack())
	m.Interrupts.Tick()

	if m.State == StateRunning || m.State == StateStep {
		m.serviceInterrupt()
	}

	if m.State == StateStep {
		m.State = StateStepDone
	}
	if err := m.checkInvariants(); err != nil {
		m.crash(err)
		return err
	}
	return nil
}

// enterSleep transitions to Sleeping, or crashes with
// SleepWithInterruptsDisabled if global interrupts are off: with I clear, no
// vector will ever be serviced to wake the core (spec §7's named deadlock).
func (m *MCU) enterSleep(pc uint32) error {
	if !m.CPU.SREG.I {
		err := simerr.Errorf(simerr.SleepWithInterruptsDisabled,
			"sleep at pc=%#06x with global interrupts disabled", pc)
		m.crash(err)
		return err
	}
	m.State = StateSleeping
	return nil
}

// serviceInterrupt runs at most one pending, enabled, latency-cleared vector
// per tick, lowest vector number first (spec §4.6).
func (m *MCU) serviceInterrupt() {
	if !m.CPU.SREG.I || !m.Interrupts.ReadyToService() {
		return
	}
	n, ok := m.Interrupts.NextVector()
	if !ok {
		return
	}
	newPC := m.Interrupts.Service(n)
	m.CPU.EnterInterrupt(newPC)
}

// Run drives RunTick in a loop until the MCU leaves Running/Sleeping
// (Stopped by a breakpoint or BREAK trap, Crashed, or Done), returning the
// first error encountered, if any.
func (m *MCU) Run() error {
	for m.State == StateRunning || m.State == StateSleeping {
		if err := m.RunTick(); err != nil {
			return err
		}
	}
	return nil
}

// Step runs exactly one instruction (the GDB stub's 's' packet) and leaves
// the MCU Stopped.
func (m *MCU) Step() error {
	m.State = StateStep
	if err := m.RunTick(); err != nil {
		return err
	}
	m.State = StateStopped
	return nil
}

func (m *MCU) crash(err error) {
	m.State = StateCrashed
	m.CrashErr = err
	m.Log.Log(m, "mcu", "crash: %v", err)
	logx.Log("mcu", "%s crashed: %v", m.Name, err)
}
