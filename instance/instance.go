// Package instance defines the parts of a simulator run that can vary
// between concurrently-running MCUs but are not the MCU itself: at present
// just the RNG used to seed uninitialised RAM, which some firmware relies on
// to see something other than zeroes on first boot.
//
// Carrying this in a value threaded through the factory (see variant.New)
// rather than a package-level global lets two MCUs run side by side in the
// same process with independent reset state, and keeps the GDB shell's
// "which MCU am I debugging" question answered by the command context it is
// given rather than a global pointer.
package instance

import "math/rand"

// Instance holds the per-run state that is not part of the MCU struct
// itself.
type Instance struct {
	Random *rand.Rand

	// RandomiseRAM controls whether Reset fills data space with random
	// bytes (closer to real hardware power-on) or zeroes it (reproducible
	// for tests and regression runs).
	RandomiseRAM bool
}

// New creates an Instance seeded from seed. A seed of 0 is a valid,
// reproducible seed (used by tests).
func New(seed int64) *Instance {
	return &Instance{Random: rand.New(rand.NewSource(seed))}
}

// NormaliseForTest pins the instance to a deterministic, zeroed-RAM
// configuration, mirroring the teacher's Instance.Normalise used by its
// regression suite.
func (ins *Instance) NormaliseForTest() {
	ins.RandomiseRAM = false
	ins.Random = rand.New(rand.NewSource(0))
}
