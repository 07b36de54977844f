package cpu

func execLSR(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	result := rd >> 1
	c.setReg(d, result)
	c.SREG.C = rd&0x01 != 0
	c.SREG.N = false
	c.SREG.V = c.SREG.N != c.SREG.C
	c.SREG.Z = result == 0
	c.SREG.S = c.SREG.N != c.SREG.V
	res.Mnemonic, res.Cycles = "LSR", 1
}

func execASR(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	result := (rd >> 1) | (rd & 0x80)
	c.setReg(d, result)
	c.SREG.C = rd&0x01 != 0
	c.SREG.N = result&0x80 != 0
	c.SREG.V = c.SREG.N != c.SREG.C
	c.SREG.Z = result == 0
	c.SREG.S = c.SREG.N != c.SREG.V
	res.Mnemonic, res.Cycles = "ASR", 1
}

func execROR(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	var carryIn uint8
	if c.SREG.C {
		carryIn = 0x80
	}
	result := (rd >> 1) | carryIn
	c.setReg(d, result)
	c.SREG.C = rd&0x01 != 0
	c.SREG.N = result&0x80 != 0
	c.SREG.V = c.SREG.N != c.SREG.C
	c.SREG.Z = result == 0
	c.SREG.S = c.SREG.N != c.SREG.V
	res.Mnemonic, res.Cycles = "ROR", 1
}

func execSWAP(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	c.setReg(d, rd<<4|rd>>4)
	res.Mnemonic, res.Cycles = "SWAP", 1
}

func execBLD(c *CPU, opcode uint16, res *Result) {
	d, b := fieldD5(opcode), fieldBit(opcode)
	rd := c.reg(d)
	if c.SREG.T {
		rd |= 1 << b
	} else {
		rd &^= 1 << b
	}
	c.setReg(d, rd)
	res.Mnemonic, res.Cycles = "BLD", 1
}

func execBST(c *CPU, opcode uint16, res *Result) {
	d, b := fieldD5(opcode), fieldBit(opcode)
	c.SREG.T = c.reg(d)&(1<<b) != 0
	res.Mnemonic, res.Cycles = "BST", 1
}

// sregBitPtr returns a pointer to the SREG flag at bit index s (0=C .. 7=I),
// for BSET/BCLR's generic "set/clear SREG bit s" semantics.
func (s *SREG) sregBitPtr(b uint8) *bool {
	switch b {
	case 0:
		return &s.C
	case 1:
		return &s.Z
	case 2:
		return &s.N
	case 3:
		return &s.V
	case 4:
		return &s.S
	case 5:
		return &s.H
	case 6:
		return &s.T
	default:
		return &s.I
	}
}

func execBSET(c *CPU, opcode uint16, res *Result) {
	s := fieldSBit(opcode)
	wasI := c.SREG.I
	*c.SREG.sregBitPtr(s) = true
	if s == 7 && !wasI {
		// rising edge of the global interrupt enable flag; nothing is
		// recorded here: the mcu package detects the edge by comparing
		// SREG.I before and after RunOne.
	}
	res.Mnemonic, res.Cycles = "BSET", 1
}

func execBCLR(c *CPU, opcode uint16, res *Result) {
	s := fieldSBit(opcode)
	*c.SREG.sregBitPtr(s) = false
	res.Mnemonic, res.Cycles = "BCLR", 1
}

func execSBI(c *CPU, opcode uint16, res *Result) {
	a, b := fieldIOAddr5(opcode), fieldBit(opcode)
	v, _ := c.Mem.Read(a)
	c.Mem.Write(a, v|(1<<b))
	res.Mnemonic, res.Cycles = "SBI", 2
}

func execCBI(c *CPU, opcode uint16, res *Result) {
	a, b := fieldIOAddr5(opcode), fieldBit(opcode)
	v, _ := c.Mem.Read(a)
	c.Mem.Write(a, v&^(1<<b))
	res.Mnemonic, res.Cycles = "CBI", 2
}

func execSBIC(c *CPU, opcode uint16, res *Result) {
	a, b := fieldIOAddr5(opcode), fieldBit(opcode)
	v, _ := c.Mem.Read(a)
	res.Mnemonic, res.Cycles = "SBIC", 1
	if v&(1<<b) == 0 {
		skip(c, res)
	}
}

func execSBIS(c *CPU, opcode uint16, res *Result) {
	a, b := fieldIOAddr5(opcode), fieldBit(opcode)
	v, _ := c.Mem.Read(a)
	res.Mnemonic, res.Cycles = "SBIS", 1
	if v&(1<<b) != 0 {
		skip(c, res)
	}
}

func execSBRC(c *CPU, opcode uint16, res *Result) {
	r, b := fieldD5(opcode), fieldBit(opcode)
	res.Mnemonic, res.Cycles = "SBRC", 1
	if c.reg(r)&(1<<b) == 0 {
		skip(c, res)
	}
}

func execSBRS(c *CPU, opcode uint16, res *Result) {
	r, b := fieldD5(opcode), fieldBit(opcode)
	res.Mnemonic, res.Cycles = "SBRS", 1
	if c.reg(r)&(1<<b) != 0 {
		skip(c, res)
	}
}

func execCPSE(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	res.Mnemonic, res.Cycles = "CPSE", 1
	if c.reg(d) == c.reg(r) {
		skip(c, res)
	}
}

// skip advances PC past the instruction that follows (which may itself be
// one or two words, spec §4.5) and adds the extra cycle(s) the skip costs:
// +1 if the skipped instruction is one word, +2 if it is two words.
func skip(c *CPU, res *Result) {
	next, err := c.Mem.FetchWord(c.PC)
	if err != nil {
		return
	}
	words := instrWords(next)
	c.PC += uint32(words)
	res.BranchTaken = true
	if words == 2 {
		res.Cycles += 2
	} else {
		res.Cycles++
	}
}
