// Package eeprom implements the EEDR/EEARL/EEARH/EECR register quartet
// driving ioctl-based bulk read/write of a backing []byte, per spec's
// SUPPLEMENTED FEATURES list. Per-byte programming timing (the real part's
// multi-millisecond write cycle) is not modelled; a write completes
// immediately and EEWE/EEPE clears on the next Run.
package eeprom

import (
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/core/peripheral"
)

const (
	eere = 1 << 0 // EECR: read enable (strobe)
	eewe = 1 << 1 // EECR: write enable (strobe)
)

// IOCTL tags for bulk access, to load or dump an EEPROM image without going
// through the byte-at-a-time register interface.
var (
	IoctlBulkRead  = peripheral.MakeIOCTL("EEPR", 'R', 0)
	IoctlBulkWrite = peripheral.MakeIOCTL("EEPR", 'W', 0)
)

// EEPROM is one EEPROM instance, backed by a shared slice with
// core/memory.Image.EEPROM.
type EEPROM struct {
	mem  *memory.Image
	data []byte

	eedrAddr, earlAddr, earhAddr, eecrAddr uint16
}

// New creates an EEPROM peripheral over mem.EEPROM at the given register
// addresses.
func New(mem *memory.Image, eedrAddr, earlAddr, earhAddr, eecrAddr uint16) *EEPROM {
	e := &EEPROM{
		mem:      mem,
		data:     mem.EEPROM,
		eedrAddr: eedrAddr,
		earlAddr: earlAddr,
		earhAddr: earhAddr,
		eecrAddr: eecrAddr,
	}
	mem.RegisterWrite(eecrAddr, e.writeEECR)
	return e
}

func (e *EEPROM) Kind() string { return "eeprom" }

func (e *EEPROM) Reset() {
	e.mem.Poke(e.eedrAddr, 0)
	e.mem.Poke(e.earlAddr, 0)
	e.mem.Poke(e.earhAddr, 0)
	e.mem.Poke(e.eecrAddr, 0)
}

func (e *EEPROM) Run(cycle uint64) {
	if v, _ := e.mem.Peek(e.eecrAddr); v&eewe != 0 {
		e.mem.Poke(e.eecrAddr, v&^eewe)
	}
}

func (e *EEPROM) address() uint16 {
	lo, _ := e.mem.Peek(e.earlAddr)
	hi, _ := e.mem.Peek(e.earhAddr)
	return uint16(lo) | uint16(hi)<<8
}

func (e *EEPROM) writeEECR(addr uint16, v uint8) {
	e.mem.Poke(addr, v)
	a := e.address()
	if int(a) >= len(e.data) {
		return
	}
	if v&eere != 0 {
		e.mem.Poke(e.eedrAddr, e.data[a])
	}
	if v&eewe != 0 {
		b, _ := e.mem.Peek(e.eedrAddr)
		e.data[a] = b
	}
}

// Ioctl implements bulk read/write of the whole backing array (arg is a
// []byte of exactly len(e.data) for BulkWrite, or a *[]byte to receive a
// copy for BulkRead).
func (e *EEPROM) Ioctl(ctl peripheral.IOCTL, arg any) peripheral.Status {
	switch ctl {
	case IoctlBulkRead:
		dst, ok := arg.(*[]byte)
		if !ok {
			return peripheral.StatusError
		}
		*dst = append((*dst)[:0], e.data...)
		return peripheral.StatusOK
	case IoctlBulkWrite:
		src, ok := arg.([]byte)
		if !ok || len(src) != len(e.data) {
			return peripheral.StatusError
		}
		copy(e.data, src)
		return peripheral.StatusOK
	default:
		return peripheral.StatusUnhandled
	}
}

func (e *EEPROM) GetIRQ(index int) *irq.IRQ { return nil }

var _ peripheral.Peripheral = (*EEPROM)(nil)
