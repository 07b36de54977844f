package cpu_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/cpu"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/test"
)

// newCPU builds a CPU over a fresh memory.Image sized like a small
// ATmega-class part, with SPL/SPH at their usual ATmega328P addresses.
func newCPU(t *testing.T) (*cpu.CPU, *memory.Image) {
	t.Helper()
	img := memory.New(2048, 0x8FF, 0xC0, 512)
	c := cpu.New(img, 0x5D, 0x5E, 0x8FF)
	c.Reset()
	return c, img
}

func loadWords(img *memory.Image, words ...uint16) {
	for i, w := range words {
		img.Flash[i*2] = byte(w)
		img.Flash[i*2+1] = byte(w >> 8)
	}
}

func TestResetInitialisesPCSREGAndSP(t *testing.T) {
	c, _ := newCPU(t)
	test.ExpectEquality(t, c.PC, uint32(0))
	test.ExpectEquality(t, c.SREG.Pack(), uint8(0))
	test.ExpectEquality(t, c.SP(), uint16(0x8FF))
}

func TestLDIThenADDSetsRegisterAndFlags(t *testing.T) {
	c, img := newCPU(t)
	// LDI r16, 0x01 ; LDI r17, 0xFF ; ADD r16, r17  => r16 = 0x00, Z set, C set, H set.
	//
	// Build opcodes from the documented field layout directly, rather than
	// hand-encoding hex, so the test stays readable: LDI's opcode is
	// 1110 KKKK dddd KKKK, d restricted to r16-31 (fieldD4: 16+((op>>4)&0xF)).
	ldi := func(reg uint8, k uint8) uint16 {
		d4 := reg - 16
		return 0xE000 | uint16(k&0xF0)<<4 | uint16(d4)<<4 | uint16(k&0xF)
	}
	add := func(d, r uint8) uint16 {
		return 0x0C00 | uint16(d)<<4 | uint16(r&0x10)<<5 | uint16(r&0xF)
	}

	loadWords(img, ldi(16, 0x01), ldi(17, 0xFF), add(16, 17))

	_, err := c.RunOne()
	test.ExpectSuccess(t, err)
	_, err = c.RunOne()
	test.ExpectSuccess(t, err)
	res, err := c.RunOne()
	test.ExpectSuccess(t, err)

	test.ExpectEquality(t, res.Mnemonic, "ADD")
	r16, _ := img.Peek(16)
	test.ExpectEquality(t, r16, uint8(0x00))
	test.ExpectEquality(t, c.SREG.Z, true)
	test.ExpectEquality(t, c.SREG.C, true)
}

func TestRJMPAdvancesPCByRelativeOffset(t *testing.T) {
	c, img := newCPU(t)
	// RJMP +2 (skip the next instruction word): opcode 1100 kkkkkkkkkkkk
	loadWords(img, 0xC002)

	res, err := c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res.Mnemonic, "RJMP")
	test.ExpectEquality(t, c.PC, uint32(3)) // PC was 0, +1 (fetch) +2 (offset) = 3
}

func TestBRNESkipsWhenZClear(t *testing.T) {
	c, img := newCPU(t)
	// BRNE is BRBC on the Z bit (s=1): opcode 1111 01kkkkkkk001
	brne := func(k int8) uint16 {
		return 0xF401 | (uint16(uint8(k)&0x7F) << 3)
	}
	loadWords(img, brne(2))

	c.SREG.Z = false
	res, err := c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res.BranchTaken, true)
	test.ExpectEquality(t, res.Cycles, 2)
	test.ExpectEquality(t, c.PC, uint32(3))
}

func TestBRNEDoesNotBranchWhenZSet(t *testing.T) {
	c, img := newCPU(t)
	brne := func(k int8) uint16 {
		return 0xF401 | (uint16(uint8(k)&0x7F) << 3)
	}
	loadWords(img, brne(2))

	c.SREG.Z = true
	res, err := c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res.BranchTaken, false)
	test.ExpectEquality(t, res.Cycles, 1)
	test.ExpectEquality(t, c.PC, uint32(1))
}

func TestPushPopRoundTripsThroughStack(t *testing.T) {
	c, img := newCPU(t)
	push16 := func(d uint8) uint16 { return 0x920F | uint16(d)<<4 }
	pop16 := func(d uint8) uint16 { return 0x900F | uint16(d)<<4 }

	img.Poke(2, 0x55) // r2 = 0x55
	loadWords(img, push16(2), pop16(3))

	spBefore := c.SP()
	_, err := c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.SP(), spBefore-1)

	_, err = c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.SP(), spBefore)

	r3, _ := img.Peek(3)
	test.ExpectEquality(t, r3, uint8(0x55))
}

func TestOUTWritesThroughRegisteredIOHandler(t *testing.T) {
	c, img := newCPU(t)
	var written uint8
	img.RegisterWrite(0x25, func(_ uint16, v uint8) { written = v })

	// OUT A,r : 1011 1AAr rrrrAAAA ; IO addr 0x25-0x20=0x05
	out := func(ioAddr uint16, r uint8) uint16 {
		a := ioAddr - 32
		return 0xB800 | (uint16(a)&0x30)<<5 | uint16(r)<<4 | (uint16(a) & 0xF)
	}
	img.Poke(10, 0xAB)
	loadWords(img, out(0x25, 10))

	_, err := c.RunOne()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, written, uint8(0xAB))
}

func TestStackOverflowCrashesCPU(t *testing.T) {
	c, img := newCPU(t)
	c.SetSP(32) // minimum valid SP
	push8 := func(d uint8) uint16 { return 0x920F | uint16(d)<<4 }
	loadWords(img, push8(0))

	_, err := c.RunOne()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, c.Killed, true)
}

func TestUnknownOpcodeLeavesPCUntouchedAndReportsError(t *testing.T) {
	c, img := newCPU(t)
	loadWords(img, 0xFFFF) // not a valid AVR opcode

	_, err := c.RunOne()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, c.Killed, true)
	test.ExpectEquality(t, c.PC, uint32(0))
}

func TestRETIsetsGlobalInterruptEnable(t *testing.T) {
	c, img := newCPU(t)
	// CALL 5 (a two-word instruction: first word 0x940E, second word the
	// target address); word indices 2-4 are left as unreachable filler;
	// RETI lives at word index 5.
	loadWords(img, 0x940E, 0x0005, 0x0000, 0x0000, 0x0000, 0x9518)

	_, err := c.RunOne() // CALL, lands at PC=5, pushes return PC=2
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c.PC, uint32(5))

	c.SREG.I = false
	res, err := c.RunOne() // RETI
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, res.Mnemonic, "RETI")
	test.ExpectEquality(t, c.SREG.I, true)
	test.ExpectEquality(t, c.PC, uint32(2)) // returned just past CALL's two words
}
