// Package memory implements the AVR memory image (C1): flash program
// memory, the flat data address space (general registers, IO file, extended
// IO, SRAM), and the per-address IO read/write dispatch table (C3) that lets
// peripherals intercept stores and loads without the interpreter knowing
// anything about them.
//
// This mirrors the teacher's hardware/memory package structure: a CPUBus-like
// interface for the interpreter, a DebuggerBus-like interface for
// out-of-band (GDB, shell) inspection, and guarded accessors that are the
// single place invariant violations are detected.
package memory

import "github.com/gosimavr/gosimavr/simerr"

// Number of general-purpose working registers, always at the bottom of the
// data address space on every AVR variant.
const NumWorkingRegisters = 32

// ReadFunc is a peripheral's handler for a load from one of its registered
// IO addresses. It returns the value as if it had been read from data space.
type ReadFunc func(addr uint16) uint8

// WriteFunc is a peripheral's handler for a store to one of its registered
// IO addresses. It fully replaces the default "write the byte to data space"
// behaviour; a handler that still wants the byte committed to memory calls
// Image.WatchWrite itself.
type WriteFunc func(addr uint16, value uint8)

// ioHandler pairs a callback with nothing else; unlike the IRQ bus's notify
// hooks there is exactly one handler per address; a second registration on
// the same address replaces the first; this matches how a real AVR only
// ever has one peripheral instance backing a given register address.
type ioHandler[F any] struct {
	fn F
	ok bool
}

// Image owns the flash, data and EEPROM backing arrays and the IO dispatch
// tables that index the IO portion of the data space.
type Image struct {
	Flash  []byte
	Data   []byte
	EEPROM []byte

	// IOBase is the first address of the IO register file (32 on every
	// classic AVR: general registers occupy 0..32).
	IOBase uint16

	ior []ioHandler[ReadFunc]
	iow []ioHandler[WriteFunc]

	// RAMEnd is the last valid data-space address (inclusive).
	RAMEnd uint16
}

// New allocates a zero-initialised Image. Flash is filled with 0xFF
// (unprogrammed cells read high on every AVR); Data is filled with 0x00, as
// the spec requires.
func New(flashWords int, ramEnd uint16, ioSize int, eepromSize int) *Image {
	img := &Image{
		Flash:  make([]byte, flashWords*2),
		Data:   make([]byte, int(ramEnd)+1),
		EEPROM: make([]byte, eepromSize),
		IOBase: NumWorkingRegisters,
		RAMEnd: ramEnd,
		ior:    make([]ioHandler[ReadFunc], ioSize),
		iow:    make([]ioHandler[WriteFunc], ioSize),
	}
	for i := range img.Flash {
		img.Flash[i] = 0xFF
	}
	return img
}

// FlashWords returns the number of 16-bit words in flash.
func (img *Image) FlashWords() int { return len(img.Flash) / 2 }

// RegisterRead installs fn as the handler for loads from addr. addr must be
// within the IO region (IOBase..IOBase+len(ior)).
func (img *Image) RegisterRead(addr uint16, fn ReadFunc) {
	idx := int(addr) - int(img.IOBase)
	if idx < 0 || idx >= len(img.ior) {
		return
	}
	img.ior[idx] = ioHandler[ReadFunc]{fn: fn, ok: true}
}

// RegisterWrite installs fn as the handler for stores to addr.
func (img *Image) RegisterWrite(addr uint16, fn WriteFunc) {
	idx := int(addr) - int(img.IOBase)
	if idx < 0 || idx >= len(img.iow) {
		return
	}
	img.iow[idx] = ioHandler[WriteFunc]{fn: fn, ok: true}
}

// Read performs a CPU-side load: if addr falls in the IO region and has a
// registered handler, the handler is consulted; otherwise the raw byte is
// returned.
func (img *Image) Read(addr uint16) (uint8, error) {
	if int(addr) >= len(img.Data) {
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "read from out-of-range address %#04x", addr)
	}
	if idx := int(addr) - int(img.IOBase); idx >= 0 && idx < len(img.ior) && img.ior[idx].ok {
		return img.ior[idx].fn(addr), nil
	}
	return img.Data[addr], nil
}

// Write performs a CPU-side store: addresses below 32 (the working
// registers) may still be written directly through the normal register move
// instructions, so only addresses with a registered IO handler or above
// RAMEnd are special-cased here; out-of-range stores are an invariant
// violation per §4.1.
func (img *Image) Write(addr uint16, value uint8) error {
	if int(addr) >= len(img.Data) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "write to out-of-range address %#04x", addr)
	}
	if idx := int(addr) - int(img.IOBase); idx >= 0 && idx < len(img.iow) && img.iow[idx].ok {
		img.iow[idx].fn(addr, value)
		return nil
	}
	img.Data[addr] = value
	return nil
}

// WatchWrite commits value directly to the backing array, bypassing any
// registered IO handler. Peripherals call this from within their own write
// handler when they want the byte to still land in data space (spec §4.3).
func (img *Image) WatchWrite(addr uint16, value uint8) error {
	if int(addr) >= len(img.Data) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "watch-write to out-of-range address %#04x", addr)
	}
	img.Data[addr] = value
	return nil
}

// Peek reads a data-space byte without going through any IO handler and
// without affecting peripheral state. Used by the debugger/GDB stub.
func (img *Image) Peek(addr uint16) (uint8, error) {
	if int(addr) >= len(img.Data) {
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "peek at out-of-range address %#04x", addr)
	}
	return img.Data[addr], nil
}

// Poke writes a data-space byte directly, without going through any IO
// handler. Used by the debugger/GDB stub.
func (img *Image) Poke(addr uint16, value uint8) error {
	if int(addr) >= len(img.Data) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "poke at out-of-range address %#04x", addr)
	}
	img.Data[addr] = value
	return nil
}

// FetchWord reads the 16-bit little-endian instruction word at the given
// *word* program-counter index.
func (img *Image) FetchWord(pc uint32) (uint16, error) {
	byteAddr := int(pc) * 2
	if byteAddr+1 >= len(img.Flash) {
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "fetch beyond end of flash at pc=%#06x", pc)
	}
	return uint16(img.Flash[byteAddr]) | uint16(img.Flash[byteAddr+1])<<8, nil
}

// FlashByte reads a single byte from the byte-addressed view of flash, used
// by LPM/SPM (spec §4.5: "operate on the byte view of flash").
func (img *Image) FlashByte(byteAddr uint32) (uint8, error) {
	if int(byteAddr) >= len(img.Flash) {
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "flash byte read beyond end of flash at %#06x", byteAddr)
	}
	return img.Flash[byteAddr], nil
}

// WriteFlashByte writes a single byte to the byte-addressed view of flash
// (self-programming via SPM, or a debugger/GDB memory write).
func (img *Image) WriteFlashByte(byteAddr uint32, value uint8) error {
	if int(byteAddr) >= len(img.Flash) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "flash byte write beyond end of flash at %#06x", byteAddr)
	}
	img.Flash[byteAddr] = value
	return nil
}

// Reset zeroes the data space (general registers, IO file, SRAM) but leaves
// flash and EEPROM untouched, matching real AVR reset semantics.
func (img *Image) Reset() {
	for i := range img.Data {
		img.Data[i] = 0
	}
}
