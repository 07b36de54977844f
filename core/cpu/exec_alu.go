package cpu

// Arithmetic, logic and compare instructions. SREG formulas follow the AVR
// instruction set manual's per-instruction flag tables exactly (spec §4.5:
// "implementers must treat the flag table as part of the spec").

func execADD(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	sum := uint16(rd) + uint16(rr)
	result := uint8(sum)
	c.setReg(d, result)

	rd7, rr7, r7 := rd&0x80 != 0, rr&0x80 != 0, result&0x80 != 0
	rd3, rr3, r3 := rd&0x08 != 0, rr&0x08 != 0, result&0x08 != 0

	c.SREG.H = (rd3 && rr3) || (rr3 && !r3) || (!r3 && rd3)
	c.SREG.V = (rd7 && rr7 && !r7) || (!rd7 && !rr7 && r7)
	c.SREG.C = (rd7 && rr7) || (rr7 && !r7) || (!r7 && rd7)
	c.SREG.setNZ(result)

	res.Mnemonic, res.Cycles = "ADD", 1
}

func execADC(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	var carry uint16
	if c.SREG.C {
		carry = 1
	}
	sum := uint16(rd) + uint16(rr) + carry
	result := uint8(sum)
	c.setReg(d, result)

	rd7, rr7, r7 := rd&0x80 != 0, rr&0x80 != 0, result&0x80 != 0
	rd3, rr3, r3 := rd&0x08 != 0, rr&0x08 != 0, result&0x08 != 0

	c.SREG.H = (rd3 && rr3) || (rr3 && !r3) || (!r3 && rd3)
	c.SREG.V = (rd7 && rr7 && !r7) || (!rd7 && !rr7 && r7)
	c.SREG.C = (rd7 && rr7) || (rr7 && !r7) || (!r7 && rd7)
	c.SREG.setNZ(result)

	res.Mnemonic, res.Cycles = "ADC", 1
}

func execSUB(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	result := rd - rr
	c.setReg(d, result)
	subFlags(c, rd, rr, result)
	res.Mnemonic, res.Cycles = "SUB", 1
}

func execSBC(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	var borrow uint8
	if c.SREG.C {
		borrow = 1
	}
	result := rd - rr - borrow
	c.setReg(d, result)
	prevZ := c.SREG.Z
	subFlags(c, rd, rr, result)
	c.SREG.Z = result == 0 && prevZ
	res.Mnemonic, res.Cycles = "SBC", 1
}

func execCP(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	result := rd - rr
	subFlags(c, rd, rr, result)
	res.Mnemonic, res.Cycles = "CP", 1
}

func execCPC(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	rd, rr := c.reg(d), c.reg(r)
	var borrow uint8
	if c.SREG.C {
		borrow = 1
	}
	result := rd - rr - borrow
	prevZ := c.SREG.Z
	subFlags(c, rd, rr, result)
	c.SREG.Z = result == 0 && prevZ
	res.Mnemonic, res.Cycles = "CPC", 1
}

func execCPI(c *CPU, opcode uint16, res *Result) {
	d := fieldD4(opcode)
	k := fieldK8(opcode)
	rd := c.reg(d)
	result := rd - k
	subFlags(c, rd, k, result)
	res.Mnemonic, res.Cycles = "CPI", 1
}

func execSUBI(c *CPU, opcode uint16, res *Result) {
	d := fieldD4(opcode)
	k := fieldK8(opcode)
	rd := c.reg(d)
	result := rd - k
	c.setReg(d, result)
	subFlags(c, rd, k, result)
	res.Mnemonic, res.Cycles = "SUBI", 1
}

func execSBCI(c *CPU, opcode uint16, res *Result) {
	d := fieldD4(opcode)
	k := fieldK8(opcode)
	rd := c.reg(d)
	var borrow uint8
	if c.SREG.C {
		borrow = 1
	}
	result := rd - k - borrow
	c.setReg(d, result)
	prevZ := c.SREG.Z
	subFlags(c, rd, k, result)
	c.SREG.Z = result == 0 && prevZ
	res.Mnemonic, res.Cycles = "SBCI", 1
}

// subFlags computes H, V, N, Z, C, S for a subtraction rd-rr=result, shared
// by SUB/SBC/CP/CPC/SUBI/SBCI/CPI (Z is patched by SBC/CPC/SBCI callers
// afterwards to AND in the previous Z, per the datasheet).
func subFlags(c *CPU, rd, rr, result uint8) {
	rd7, rr7, r7 := rd&0x80 != 0, rr&0x80 != 0, result&0x80 != 0
	rd3, rr3, r3 := rd&0x08 != 0, rr&0x08 != 0, result&0x08 != 0

	c.SREG.H = (!rd3 && rr3) || (rr3 && r3) || (r3 && !rd3)
	c.SREG.V = (rd7 && !rr7 && !r7) || (!rd7 && rr7 && r7)
	c.SREG.C = (!rd7 && rr7) || (rr7 && r7) || (r7 && !rd7)
	c.SREG.setNZ(result)
}

func execAND(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	result := c.reg(d) & c.reg(r)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "AND", 1
}

func execANDI(c *CPU, opcode uint16, res *Result) {
	d := fieldD4(opcode)
	result := c.reg(d) & fieldK8(opcode)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "ANDI", 1
}

func execOR(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	result := c.reg(d) | c.reg(r)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "OR", 1
}

func execORI(c *CPU, opcode uint16, res *Result) {
	d := fieldD4(opcode)
	result := c.reg(d) | fieldK8(opcode)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "ORI", 1
}

func execEOR(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	result := c.reg(d) ^ c.reg(r)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "EOR", 1
}

func execCOM(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	result := ^c.reg(d)
	c.setReg(d, result)
	c.SREG.V = false
	c.SREG.C = true
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "COM", 1
}

func execNEG(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	result := uint8(0) - rd
	c.setReg(d, result)

	c.SREG.H = result&0x08 != 0 || rd&0x08 != 0
	c.SREG.V = result == 0x80
	c.SREG.C = result != 0
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "NEG", 1
}

func execINC(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	result := rd + 1
	c.setReg(d, result)
	c.SREG.V = rd == 0x7F
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "INC", 1
}

func execDEC(c *CPU, opcode uint16, res *Result) {
	d := fieldD5(opcode)
	rd := c.reg(d)
	result := rd - 1
	c.setReg(d, result)
	c.SREG.V = rd == 0x80
	c.SREG.setNZ(result)
	res.Mnemonic, res.Cycles = "DEC", 1
}

func execMOV(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	c.setReg(d, c.reg(r))
	res.Mnemonic, res.Cycles = "MOV", 1
}

func execMOVW(c *CPU, opcode uint16, res *Result) {
	d := ((opcode >> 4) & 0xF) * 2
	r := (opcode & 0xF) * 2
	c.setRegPair(d, c.regPair(r))
	res.Mnemonic, res.Cycles = "MOVW", 1
}

func execLDI(c *CPU, opcode uint16, res *Result) {
	c.setReg(fieldD4(opcode), fieldK8(opcode))
	res.Mnemonic, res.Cycles = "LDI", 1
}

func execMUL(c *CPU, opcode uint16, res *Result) {
	d, r := fieldD5(opcode), fieldR5(opcode)
	result := uint16(c.reg(d)) * uint16(c.reg(r))
	c.setRegPair(0, result)
	c.SREG.C = result&0x8000 != 0
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "MUL", 2
}

func execMULS(c *CPU, opcode uint16, res *Result) {
	d := 16 + (opcode>>4)&0xF
	r := 16 + opcode&0xF
	result := int16(int8(c.reg(uint8(d)))) * int16(int8(c.reg(uint8(r))))
	c.setRegPair(0, uint16(result))
	c.SREG.C = uint16(result)&0x8000 != 0
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "MULS", 2
}

func execMULSU(c *CPU, opcode uint16, res *Result) {
	d := 16 + (opcode>>4)&0x7
	r := 16 + opcode&0x7
	result := int16(int8(c.reg(uint8(d)))) * int16(uint16(c.reg(uint8(r))))
	c.setRegPair(0, uint16(result))
	c.SREG.C = uint16(result)&0x8000 != 0
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "MULSU", 2
}

func execFMUL(c *CPU, opcode uint16, res *Result) {
	d := 16 + (opcode>>4)&0x7
	r := 16 + opcode&0x7
	result := uint16(c.reg(uint8(d))) * uint16(c.reg(uint8(r)))
	c.SREG.C = result&0x8000 != 0
	result <<= 1
	c.setRegPair(0, result)
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "FMUL", 2
}

func execFMULS(c *CPU, opcode uint16, res *Result) {
	d := 16 + (opcode>>4)&0x7
	r := 16 + opcode&0x7
	result := int16(int8(c.reg(uint8(d)))) * int16(int8(c.reg(uint8(r))))
	c.SREG.C = uint16(result)&0x8000 != 0
	result <<= 1
	c.setRegPair(0, uint16(result))
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "FMULS", 2
}

func execFMULSU(c *CPU, opcode uint16, res *Result) {
	d := 16 + (opcode>>4)&0x7
	r := 16 + opcode&0x7
	result := int16(int8(c.reg(uint8(d)))) * int16(uint16(c.reg(uint8(r))))
	c.SREG.C = uint16(result)&0x8000 != 0
	result <<= 1
	c.setRegPair(0, uint16(result))
	c.SREG.Z = result == 0
	res.Mnemonic, res.Cycles = "FMULSU", 2
}

func execADIW(c *CPU, opcode uint16, res *Result) {
	regBase, k := fieldK6(opcode)
	pair := c.regPair(regBase)
	sum := pair + uint16(k)
	c.setRegPair(regBase, sum)

	oldBit15 := pair&0x8000 != 0
	newBit15 := sum&0x8000 != 0
	rdh7 := pair&0x8000 != 0 // bit7 of Rdh == bit15 of the pair, before the op

	c.SREG.V = !oldBit15 && newBit15
	c.SREG.N = newBit15
	c.SREG.Z = sum == 0
	c.SREG.C = !newBit15 && rdh7
	c.SREG.S = c.SREG.N != c.SREG.V
	res.Mnemonic, res.Cycles = "ADIW", 2
}

func execSBIW(c *CPU, opcode uint16, res *Result) {
	regBase, k := fieldK6(opcode)
	pair := c.regPair(regBase)
	diff := pair - uint16(k)
	c.setRegPair(regBase, diff)

	rdh7 := pair&0x8000 != 0
	newBit15 := diff&0x8000 != 0

	c.SREG.V = rdh7 && !newBit15
	c.SREG.N = newBit15
	c.SREG.Z = diff == 0
	c.SREG.C = newBit15 && !rdh7
	c.SREG.S = c.SREG.N != c.SREG.V
	res.Mnemonic, res.Cycles = "SBIW", 2
}
