package cpu

// Whole-MCU control instructions that have no data-path effect of their own;
// the mcu package observes SLEEP/WDR/BREAK through Result.Mnemonic rather
// than through any change to memory, so the CPU package itself only accounts
// for their cycle cost.

func execNOP(c *CPU, opcode uint16, res *Result) {
	res.Mnemonic, res.Cycles = "NOP", 1
}

// Sleeping is a fact about the MCU, not the CPU package: execSLEEP changes no
// CPU state, and the caller (core/mcu) transitions State to Sleeping when it
// sees Mnemonic == "SLEEP".
func execSLEEP(c *CPU, opcode uint16, res *Result) {
	res.Mnemonic, res.Cycles = "SLEEP", 1
}

func execWDR(c *CPU, opcode uint16, res *Result) {
	res.Mnemonic, res.Cycles = "WDR", 1
}

// execBREAK is a debug-only no-op on real hardware unless a debugger is
// attached, in which case it traps; the mcu package checks Mnemonic ==
// "BREAK" against whether a GDB stub is attached and halts accordingly.
func execBREAK(c *CPU, opcode uint16, res *Result) {
	res.Mnemonic, res.Cycles = "BREAK", 1
}
