package memory

// CPUBus is the view of memory the interpreter uses: plain loads and
// stores, with IO dispatch already folded in. Image implements this, the
// same way the teacher's VCSMemory implements bus.CPUBus so that the CPU
// package never needs to know which backing type it is talking to.
type CPUBus interface {
	Read(address uint16) (uint8, error)
	Write(address uint16, data uint8) error
}

// DebugBus is the out-of-band view used by the GDB stub and any future
// shell: Peek/Poke never invoke peripheral IO handlers, so inspecting memory
// never has side effects on the running simulation.
type DebugBus interface {
	Peek(address uint16) (uint8, error)
	Poke(address uint16, value uint8) error
}

var (
	_ CPUBus   = (*Image)(nil)
	_ DebugBus = (*Image)(nil)
)
