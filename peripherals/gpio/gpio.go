// Package gpio implements the canonical simplest peripheral (spec's
// SUPPLEMENTED FEATURES list): a PORT/DDR/PIN register triad and one IRQ per
// pin, wired through core/bitsel selectors so the same code serves every
// port letter on every variant.
package gpio

import (
	"github.com/gosimavr/gosimavr/core/bitsel"
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/core/peripheral"
)

// Mem is the memory surface a Port needs: register/direct access, exactly
// what core/memory.Image provides.
type Mem interface {
	bitsel.Peeker
	bitsel.Poker
	RegisterRead(addr uint16, fn memory.ReadFunc)
	RegisterWrite(addr uint16, fn memory.WriteFunc)
}

// Port is one 8-bit GPIO port (PORTx/DDRx/PINx). width bits are live; the
// rest of the byte is still addressable but has no pin behind it.
type Port struct {
	name string
	mem  Mem

	portAddr, ddrAddr, pinAddr uint16
	width                      uint8

	// pinIn holds the external input level per bit, independent of DDR;
	// driving a pin set to output does not change pinIn, matching real
	// hardware's read-back-what-you-drove-or-what-was-forced semantics.
	pinIn uint8

	// pinIRQ[n] fires whenever the effective logic level presented to pin n
	// changes, whether because firmware changed PORT/DDR or because
	// SetExternalInput changed pinIn.
	pinIRQ []*irq.IRQ
}

// New creates a Port named name (used for IRQ labelling, e.g. "gpio.B")
// backed by the three registers at the given data-space addresses, with
// width significant pins (1-8).
func New(bus *irq.Bus, mem Mem, name string, portAddr, ddrAddr, pinAddr uint16, width uint8) *Port {
	p := &Port{
		name:     name,
		mem:      mem,
		portAddr: portAddr,
		ddrAddr:  ddrAddr,
		pinAddr:  pinAddr,
		width:    width,
		pinIRQ:   bus.Alloc(name+".pin", int(width)),
	}
	mem.RegisterRead(pinAddr, p.readPin)
	mem.RegisterWrite(portAddr, p.writePort)
	mem.RegisterWrite(ddrAddr, p.writeDDR)
	return p
}

func (p *Port) Kind() string { return "gpio" }

func (p *Port) Reset() {
	p.mem.Poke(p.portAddr, 0)
	p.mem.Poke(p.ddrAddr, 0)
	p.mem.Poke(p.pinAddr, 0)
	p.pinIn = 0
}

func (p *Port) Run(cycle uint64) {}

func (p *Port) Ioctl(ctl peripheral.IOCTL, arg any) peripheral.Status {
	return peripheral.StatusUnhandled
}

func (p *Port) GetIRQ(index int) *irq.IRQ {
	if index < 0 || index >= len(p.pinIRQ) {
		return nil
	}
	return p.pinIRQ[index]
}

func (p *Port) mask() uint8 {
	if p.width >= 8 {
		return 0xFF
	}
	return 1<<p.width - 1
}

// effective computes the level presented at each pin: for output-configured
// bits, whatever firmware drove onto PORT; for input-configured bits,
// whatever the external world is driving via SetExternalInput.
func (p *Port) effective() uint8 {
	ddr, _ := p.mem.Peek(p.ddrAddr)
	port, _ := p.mem.Peek(p.portAddr)
	return (ddr & port) | (^ddr & p.pinIn)
}

func (p *Port) readPin(uint16) uint8 {
	return p.effective() & p.mask()
}

func (p *Port) notifyChanged(before, after uint8) {
	changed := (before ^ after) & p.mask()
	for i := uint8(0); i < p.width; i++ {
		if changed&(1<<i) != 0 {
			bit := (after >> i) & 1
			irq.Raise(p.pinIRQ[i], uint32(bit))
		}
	}
}

func (p *Port) writePort(addr uint16, v uint8) {
	before := p.effective()
	p.mem.Poke(addr, v)
	p.notifyChanged(before, p.effective())
}

func (p *Port) writeDDR(addr uint16, v uint8) {
	before := p.effective()
	p.mem.Poke(addr, v)
	p.notifyChanged(before, p.effective())
}

// SetExternalInput drives bit from outside the chip (a test harness
// simulating a button or sensor): it only has an observable effect on pins
// currently configured as inputs (DDR bit clear).
func (p *Port) SetExternalInput(bit uint8, high bool) {
	before := p.effective()
	if high {
		p.pinIn |= 1 << bit
	} else {
		p.pinIn &^= 1 << bit
	}
	p.notifyChanged(before, p.effective())
}

var _ peripheral.Peripheral = (*Port)(nil)
