package cpu

import "github.com/gosimavr/gosimavr/simerr"

// instrWords reports how many 16-bit words opcode occupies: 2 for the four
// instructions with a 16/22-bit immediate/absolute-address second word
// (LDS, STS, JMP, CALL), 1 for everything else. Needed so that skip
// instructions (CPSE/SBRC/SBRS/SBIC/SBIS) can correctly skip a two-word
// instruction in full, per spec §4.5.
func instrWords(opcode uint16) int {
	switch {
	case opcode&0xFE0F == 0x9000: // LDS
		return 2
	case opcode&0xFE0F == 0x9200: // STS
		return 2
	case opcode&0xFE0E == 0x940C: // JMP
		return 2
	case opcode&0xFE0E == 0x940E: // CALL
		return 2
	default:
		return 1
	}
}

// RunOne fetches, decodes and executes exactly one instruction, advances
// Cycle by its cost, and returns a Result. It never panics on unknown
// opcodes: it sets c.Killed and returns an error, leaving PC unmodified so
// the caller can dump state pointing at the offending instruction.
func (c *CPU) RunOne() (Result, error) {
	startPC := c.PC
	c.recordPC(startPC)

	opcode, err := c.Mem.FetchWord(uint64ToU32(c.PC))
	if err != nil {
		c.Killed = true
		c.KilledErr = err
		return Result{Address: startPC}, err
	}

	res := Result{Address: startPC, Opcode: opcode}

	exec, ok := dispatch(opcode)
	if !ok {
		err := simerr.Errorf(simerr.UnknownOpcode, "unknown opcode %#04x at pc=%#06x", opcode, startPC)
		c.Killed = true
		c.KilledErr = err
		return res, err
	}

	c.PC++ // default: next instruction. Individual handlers may overwrite c.PC.
	exec(c, opcode, &res)

	if err := c.checkSP(); err != nil {
		c.Killed = true
		c.KilledErr = err
		return res, err
	}

	res.NextPC = c.PC
	c.Cycle += uint64(res.Cycles)
	return res, nil
}

func uint64ToU32(v uint32) uint32 { return v }

// execFunc executes a decoded instruction: it reads whatever fields it
// needs from opcode, mutates c, and fills in the res.Mnemonic/Cycles
// bookkeeping fields (Cycles is mandatory; a zero Cycles is a bug). RunOne
// fills in NextPC after the handler returns.
type execFunc func(c *CPU, opcode uint16, res *Result)

// dispatch resolves opcode to its handler. Patterns are tried from most to
// least specific so that, e.g., the full 16-bit NOP pattern is recognised
// before the broader register-register ALU mask would otherwise (wrongly)
// claim it.
func dispatch(opcode uint16) (execFunc, bool) {
	switch {
	case opcode == 0x0000:
		return execNOP, true
	case opcode == 0x9508:
		return execRET, true
	case opcode == 0x9518:
		return execRETI, true
	case opcode == 0x9409:
		return execIJMP, true
	case opcode == 0x9509:
		return execICALL, true
	case opcode == 0x9588:
		return execSLEEP, true
	case opcode == 0x95A8:
		return execWDR, true
	case opcode == 0x9598:
		return execBREAK, true
	case opcode == 0x95C8:
		return execLPMImplied, true
	case opcode == 0x95E8:
		return execSPMImplied, true

	case opcode&0xFF00 == 0x9600:
		return execADIW, true
	case opcode&0xFF00 == 0x9700:
		return execSBIW, true
	case opcode&0xFF00 == 0x0100:
		return execMOVW, true
	case opcode&0xFF00 == 0x0200:
		return execMULS, true
	case opcode&0xFF88 == 0x0308:
		return execFMUL, true
	case opcode&0xFF88 == 0x0380:
		return execFMULS, true
	case opcode&0xFF88 == 0x0388:
		return execFMULSU, true
	case opcode&0xFF88 == 0x0300:
		return execMULSU, true

	case opcode&0xF000 == 0x3000:
		return execCPI, true
	case opcode&0xF000 == 0x4000:
		return execSBCI, true
	case opcode&0xF000 == 0x5000:
		return execSUBI, true
	case opcode&0xF000 == 0x6000:
		return execORI, true
	case opcode&0xF000 == 0x7000:
		return execANDI, true
	case opcode&0xF000 == 0xE000:
		return execLDI, true

	case opcode&0xFC00 == 0x0400:
		return execCPC, true
	case opcode&0xFC00 == 0x0800:
		return execSBC, true
	case opcode&0xFC00 == 0x0C00:
		return execADD, true
	case opcode&0xFC00 == 0x1000:
		return execCPSE, true
	case opcode&0xFC00 == 0x1400:
		return execCP, true
	case opcode&0xFC00 == 0x1800:
		return execSUB, true
	case opcode&0xFC00 == 0x1C00:
		return execADC, true
	case opcode&0xFC00 == 0x2000:
		return execAND, true
	case opcode&0xFC00 == 0x2400:
		return execEOR, true
	case opcode&0xFC00 == 0x2800:
		return execOR, true
	case opcode&0xFC00 == 0x2C00:
		return execMOV, true
	case opcode&0xFC00 == 0x9C00:
		return execMUL, true

	case opcode&0xFE0F == 0x9400:
		return execCOM, true
	case opcode&0xFE0F == 0x9401:
		return execNEG, true
	case opcode&0xFE0F == 0x9402:
		return execSWAP, true
	case opcode&0xFE0F == 0x9403:
		return execINC, true
	case opcode&0xFE0F == 0x9405:
		return execASR, true
	case opcode&0xFE0F == 0x9406:
		return execLSR, true
	case opcode&0xFE0F == 0x9407:
		return execROR, true
	case opcode&0xFE0F == 0x940A:
		return execDEC, true

	case opcode&0xF800 == 0xB000:
		return execIN, true
	case opcode&0xF800 == 0xB800:
		return execOUT, true

	case opcode&0xFF00 == 0x9A00:
		return execSBI, true
	case opcode&0xFF00 == 0x9800:
		return execCBI, true
	case opcode&0xFF00 == 0x9900:
		return execSBIC, true
	case opcode&0xFF00 == 0x9B00:
		return execSBIS, true

	case opcode&0xFE08 == 0xF800:
		return execBLD, true
	case opcode&0xFE08 == 0xFA00:
		return execBST, true
	case opcode&0xFE08 == 0xFC00:
		return execSBRC, true
	case opcode&0xFE08 == 0xFE00:
		return execSBRS, true

	case opcode&0xFC00 == 0xF400:
		return execBRBC, true
	case opcode&0xFC00 == 0xF000:
		return execBRBS, true

	case opcode&0xFF8F == 0x9408:
		return execBSET, true
	case opcode&0xFF8F == 0x9488:
		return execBCLR, true

	case opcode&0xF000 == 0xC000:
		return execRJMP, true
	case opcode&0xF000 == 0xD000:
		return execRCALL, true

	case opcode&0xFE0E == 0x940C:
		return execJMP, true
	case opcode&0xFE0E == 0x940E:
		return execCALL, true

	case opcode&0xFE0F == 0x9000:
		return execLDS, true
	case opcode&0xFE0F == 0x9200:
		return execSTS, true
	case opcode&0xFE0F == 0x900C:
		return execLDXi, true
	case opcode&0xFE0F == 0x900D:
		return execLDXpost, true
	case opcode&0xFE0F == 0x900E:
		return execLDXpre, true
	case opcode&0xFE0F == 0x9001:
		return execLDZpost, true
	case opcode&0xFE0F == 0x9002:
		return execLDZpre, true
	case opcode&0xFE0F == 0x9004:
		return execLPMZ, true
	case opcode&0xFE0F == 0x9005:
		return execLPMZpost, true
	case opcode&0xFE0F == 0x900F:
		return execPOP, true

	case opcode&0xFE0F == 0x920C:
		return execSTXi, true
	case opcode&0xFE0F == 0x920D:
		return execSTXpost, true
	case opcode&0xFE0F == 0x920E:
		return execSTXpre, true
	case opcode&0xFE0F == 0x9201:
		return execSTZpost, true
	case opcode&0xFE0F == 0x9202:
		return execSTZpre, true
	case opcode&0xFE0F == 0x920F:
		return execPUSH, true

	case opcode&0xD208 == 0x8000:
		return execLDDZ, true
	case opcode&0xD208 == 0x8008:
		return execLDDY, true
	case opcode&0xD208 == 0x8200:
		return execSTDZ, true
	case opcode&0xD208 == 0x8208:
		return execSTDY, true
	}
	return nil, false
}
