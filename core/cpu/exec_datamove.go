package cpu

// Data-movement instructions: register moves live in exec_alu.go (MOV/MOVW/
// LDI); this file covers everything that touches data space, flash (LPM/SPM)
// or the stack (PUSH/POP), per spec §4.5's addressing-mode table.

func execLDS(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	word2, _ := c.Mem.FetchWord(c.PC)
	c.PC++
	v, _ := c.Mem.Read(word2)
	c.setReg(d, v)
	res.Mnemonic, res.Cycles = "LDS", 2
}

func execSTS(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	word2, _ := c.Mem.FetchWord(c.PC)
	c.PC++
	c.Mem.Write(word2, c.reg(d))
	res.Mnemonic, res.Cycles = "STS", 2
}

func execLDXi(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	v, _ := c.Mem.Read(c.regPair(RegX))
	c.setReg(d, v)
	res.Mnemonic, res.Cycles = "LD", 2
}

func execLDXpost(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	x := c.regPair(RegX)
	v, _ := c.Mem.Read(x)
	c.setReg(d, v)
	c.setRegPair(RegX, x+1)
	res.Mnemonic, res.Cycles = "LD", 2
}

func execLDXpre(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	x := c.regPair(RegX) - 1
	v, _ := c.Mem.Read(x)
	c.setReg(d, v)
	c.setRegPair(RegX, x)
	res.Mnemonic, res.Cycles = "LD", 2
}

func execSTXi(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	c.Mem.Write(c.regPair(RegX), c.reg(d))
	res.Mnemonic, res.Cycles = "ST", 2
}

func execSTXpost(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	x := c.regPair(RegX)
	c.Mem.Write(x, c.reg(d))
	c.setRegPair(RegX, x+1)
	res.Mnemonic, res.Cycles = "ST", 2
}

func execSTXpre(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	x := c.regPair(RegX) - 1
	c.Mem.Write(x, c.reg(d))
	c.setRegPair(RegX, x)
	res.Mnemonic, res.Cycles = "ST", 2
}

func execLDZpost(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	z := c.regPair(RegZ)
	v, _ := c.Mem.Read(z)
	c.setReg(d, v)
	c.setRegPair(RegZ, z+1)
	res.Mnemonic, res.Cycles = "LD", 2
}

func execLDZpre(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	z := c.regPair(RegZ) - 1
	v, _ := c.Mem.Read(z)
	c.setReg(d, v)
	c.setRegPair(RegZ, z)
	res.Mnemonic, res.Cycles = "LD", 2
}

func execSTZpost(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	z := c.regPair(RegZ)
	c.Mem.Write(z, c.reg(d))
	c.setRegPair(RegZ, z+1)
	res.Mnemonic, res.Cycles = "ST", 2
}

func execSTZpre(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	z := c.regPair(RegZ) - 1
	c.Mem.Write(z, c.reg(d))
	c.setRegPair(RegZ, z)
	res.Mnemonic, res.Cycles = "ST", 2
}

func execLDDZ(c *CPU, opcode uint16, res *Result) {
	execLDD(c, opcode, res, RegZ)
}

func execLDDY(c *CPU, opcode uint16, res *Result) {
	execLDD(c, opcode, res, RegY)
}

func execLDD(c *CPU, opcode uint16, res *Result, base uint16) {
	d := fieldD5(opcode)
	q := ldStQ(opcode)
	addr := c.regPair(base) + q
	v, _ := c.Mem.Read(addr)
	c.setReg(d, v)
	res.Mnemonic, res.Cycles = "LDD", 2
}

func execSTDZ(c *CPU, opcode uint16, res *Result) {
	execSTD(c, opcode, res, RegZ)
}

func execSTDY(c *CPU, opcode uint16, res *Result) {
	execSTD(c, opcode, res, RegY)
}

func execSTD(c *CPU, opcode uint16, res *Result, base uint16) {
	d := fieldD5(opcode)
	q := ldStQ(opcode)
	addr := c.regPair(base) + q
	c.Mem.Write(addr, c.reg(d))
	res.Mnemonic, res.Cycles = "STD", 2
}

func execLPMImplied(c *CPU, opcode uint16, res *Result) {
	v, _ := c.Mem.FlashByte(c.regPair(RegZ))
	c.setReg(0, v)
	res.Mnemonic, res.Cycles = "LPM", 3
}

func execLPMZ(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	v, _ := c.Mem.FlashByte(c.regPair(RegZ))
	c.setReg(d, v)
	res.Mnemonic, res.Cycles = "LPM", 3
}

func execLPMZpost(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	z := c.regPair(RegZ)
	v, _ := c.Mem.FlashByte(z)
	c.setReg(d, v)
	c.setRegPair(RegZ, z+1)
	res.Mnemonic, res.Cycles = "LPM", 3
}

// execSPMImplied writes R1:R0 to the flash word addressed by Z, word-aligned.
// Real self-programming has an erase/write-buffer state machine; this
// simulator models the common case (a single immediate word write) since no
// target firmware in scope relies on split page erase/fill/write (spec §1
// notes datasheet-level timing fidelity is out of scope).
func execSPMImplied(c *CPU, opcode uint16, res *Result) {
	z := c.regPair(RegZ) &^ 1
	lo, hi := c.reg(0), c.reg(1)
	c.Mem.WriteFlashByte(uint32(z), lo)
	c.Mem.WriteFlashByte(uint32(z)+1, hi)
	res.Mnemonic, res.Cycles = "SPM", 1
}

func execIN(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	a := fieldIOAddr(opcode)
	v, _ := c.Mem.Read(a)
	c.setReg(d, v)
	res.Mnemonic, res.Cycles = "IN", 1
}

func execOUT(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	a := fieldIOAddr(opcode)
	c.Mem.Write(a, c.reg(d))
	res.Mnemonic, res.Cycles = "OUT", 1
}

func execPUSH(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	c.push8(c.reg(d))
	res.Mnemonic, res.Cycles = "PUSH", 2
}

func execPOP(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	c.setReg(d, c.pop8())
	res.Mnemonic, res.Cycles = "POP", 2
}
