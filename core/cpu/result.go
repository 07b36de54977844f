package cpu

// Result records what happened during one RunOne call, mirroring the
// teacher's execution.Result: a small struct built up during decode/execute
// that downstream consumers (the trace flag, the disassembler-less GDB
// stub, tests) can inspect without re-decoding the instruction themselves.
type Result struct {
	// Address is the word-addressed PC the instruction was fetched from.
	Address uint32

	// Opcode is the raw fetched instruction word.
	Opcode uint16

	// Mnemonic is a short human-readable name, e.g. "ADD", "BRNE". Used only
	// for tracing/diagnostics.
	Mnemonic string

	// Cycles is the number of cycles this instruction actually cost,
	// matching the datasheet table for its addressing mode (spec §8).
	Cycles int

	// BranchTaken records whether a conditional branch/skip instruction
	// actually altered flow.
	BranchTaken bool

	// NextPC is the word-addressed PC after this instruction.
	NextPC uint32
}
