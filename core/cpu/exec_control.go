package cpu

// Flow control: relative/absolute jumps and calls, returns, and the
// conditional branches over individual SREG bits (spec §4.5's branch table).

func execRJMP(c *CPU, opcode uint16, res *Result) {
	k := signExtend12(opcode & 0x0FFF)
	c.PC = uint32(int64(c.PC) + int64(k))
	res.Mnemonic, res.Cycles = "RJMP", 2
}

func execRCALL(c *CPU, opcode uint16, res *Result) {
	k := signExtend12(opcode & 0x0FFF)
	c.push16(uint16(c.PC))
	c.PC = uint32(int64(c.PC) + int64(k))
	res.Mnemonic, res.Cycles = "RCALL", 3
}

func execJMP(c *CPU, opcode uint16, res *Result) {
	word2, _ := c.Mem.FetchWord(c.PC)
	addr := jmpCallAddr(opcode, word2)
	c.PC = addr
	res.Mnemonic, res.Cycles = "JMP", 3
}

func execCALL(c *CPU, opcode uint16, res *Result) {
	word2, _ := c.Mem.FetchWord(c.PC)
	addr := jmpCallAddr(opcode, word2)
	c.push16(uint16(c.PC + 1))
	c.PC = addr
	res.Mnemonic, res.Cycles = "CALL", 4
}

func execIJMP(c *CPU, opcode uint16, res *Result) {
	c.PC = uint32(c.regPair(RegZ))
	res.Mnemonic, res.Cycles = "IJMP", 2
}

func execICALL(c *CPU, opcode uint16, res *Result) {
	c.push16(uint16(c.PC))
	c.PC = uint32(c.regPair(RegZ))
	res.Mnemonic, res.Cycles = "ICALL", 3
}

func execRET(c *CPU, opcode uint16, res *Result) {
	c.PC = uint32(c.pop16())
	res.Mnemonic, res.Cycles = "RET", 4
}

// execRETI pops the return address and sets the global interrupt enable
// flag. The rising-edge-triggered 2-cycle interrupt latency (spec §4.6) is
// keyed off comparing SREG.I before and after this instruction, which the
// mcu package does by observing SREG.I across calls to RunOne; this
// function's only job is to set the flag itself.
func execRETI(c *CPU, opcode uint16, res *Result) {
	c.PC = uint32(c.pop16())
	c.SREG.I = true
	res.Mnemonic, res.Cycles = "RETI", 4
}

// branchCond reports the value of the SREG flag addressed by the BRBS/BRBC
// 3-bit selector, in the AVR's packed-byte bit order (0=C,1=Z,2=N,3=V,4=S,
// 5=H,6=T,7=I) — the same order as SREG.Pack/Unpack.
func (c *CPU) branchCond(s uint8) bool {
	switch s {
	case 0:
		return c.SREG.C
	case 1:
		return c.SREG.Z
	case 2:
		return c.SREG.N
	case 3:
		return c.SREG.V
	case 4:
		return c.SREG.S
	case 5:
		return c.SREG.H
	case 6:
		return c.SREG.T
	default:
		return c.SREG.I
	}
}

func execBRBS(c *CPU, opcode uint16, res *Result) {
	s := fieldBit(opcode)
	res.Mnemonic, res.Cycles = "BRBS", 1
	if c.branchCond(s) {
		k := signExtend7((opcode >> 3) & 0x7F)
		c.PC = uint32(int64(c.PC) + int64(k))
		res.BranchTaken = true
		res.Cycles = 2
	}
}

func execBRBC(c *CPU, opcode uint16, res *Result) {
	s := fieldBit(opcode)
	res.Mnemonic, res.Cycles = "BRBC", 1
	if !c.branchCond(s) {
		k := signExtend7((opcode >> 3) & 0x7F)
		c.PC = uint32(int64(c.PC) + int64(k))
		res.BranchTaken = true
		res.Cycles = 2
	}
}
