// Package usart implements a minimal UART: UDR/UCSRA/UCSRB, with the two
// host-facing IRQs (spec §6's UART bridge contract) rather than real bit
// timing — baud rate, parity and framing are not modelled, only the
// byte-at-a-time input/output path a host bridge (consolebridge, or a test)
// actually needs.
package usart

import (
	"github.com/gosimavr/gosimavr/core/bitsel"
	"github.com/gosimavr/gosimavr/core/interrupt"
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/core/peripheral"
)

const (
	// IRQ indices returned by GetIRQ.
	IRQInput  = 0 // byte arriving from the host into UDR (firmware reads it)
	IRQOutput = 1 // byte firmware wrote to UDR, headed to the host
)

const (
	udre = 1 << 5 // UCSRA: data register empty
	rxc  = 1 << 7 // UCSRA: receive complete
)

// Raiser mirrors timer8's: the capability to signal a vector (and wake from
// sleep) without importing core/mcu.
type Raiser interface {
	RaiseInterrupt(vector int)
}

// USART is one UART instance.
type USART struct {
	mem *memory.Image
	mcu Raiser

	udrAddr, ucsraAddr, ucsrbAddr uint16
	rxVector, txVector            int

	rxie bitsel.Selector
	udrie bitsel.Selector

	inputIRQ, outputIRQ *irq.IRQ
}

// New creates a USART at the given register addresses, registering its RX
// and "data register empty" vectors with ctrl.
func New(bus *irq.Bus, mem *memory.Image, mcuHandle Raiser, ctrl *interrupt.Controller,
	name string, udrAddr, ucsraAddr, ucsrbAddr uint16, rxVector, txVector int) *USART {

	u := &USART{
		mem:       mem,
		mcu:       mcuHandle,
		udrAddr:   udrAddr,
		ucsraAddr: ucsraAddr,
		ucsrbAddr: ucsrbAddr,
		rxVector:  rxVector,
		txVector:  txVector,
		rxie:      bitsel.New(ucsrbAddr, 7),
		udrie:     bitsel.New(ucsrbAddr, 5),
	}
	irqs := bus.Alloc(name, 2)
	u.inputIRQ, u.outputIRQ = irqs[IRQInput], irqs[IRQOutput]

	ctrl.AddVector(interrupt.Vector{Number: rxVector, Enable: u.rxie, Raised: bitsel.New(ucsraAddr, 7)})
	ctrl.AddVector(interrupt.Vector{Number: txVector, Enable: u.udrie, Raised: bitsel.New(ucsraAddr, 5)})

	mem.RegisterWrite(udrAddr, u.writeUDR)
	mem.RegisterRead(udrAddr, u.readUDR)

	return u
}

func (u *USART) Kind() string { return "usart" }

func (u *USART) Reset() {
	u.mem.Poke(u.udrAddr, 0)
	u.mem.Poke(u.ucsraAddr, udre)
	u.mem.Poke(u.ucsrbAddr, 0)
}

func (u *USART) Run(cycle uint64) {}

func (u *USART) Ioctl(ctl peripheral.IOCTL, arg any) peripheral.Status {
	return peripheral.StatusUnhandled
}

func (u *USART) GetIRQ(index int) *irq.IRQ {
	switch index {
	case IRQInput:
		return u.inputIRQ
	case IRQOutput:
		return u.outputIRQ
	default:
		return nil
	}
}

// writeUDR is firmware transmitting: the byte is immediately "sent" (no
// shift-register delay modelled) by raising outputIRQ for a host bridge to
// consume, and UDRE stays set since there is no buffering to fill.
func (u *USART) writeUDR(addr uint16, v uint8) {
	u.mem.Poke(addr, v)
	ucsra, _ := u.mem.Peek(u.ucsraAddr)
	u.mem.Poke(u.ucsraAddr, ucsra|udre)
	irq.Raise(u.outputIRQ, uint32(v))
	u.mcu.RaiseInterrupt(u.txVector)
}

func (u *USART) readUDR(addr uint16) uint8 {
	v, _ := u.mem.Peek(addr)
	ucsra, _ := u.mem.Peek(u.ucsraAddr)
	u.mem.Poke(u.ucsraAddr, ucsra&^uint8(rxc))
	return v
}

// DeliverInput is how a host bridge (or a test) injects a received byte: it
// lands in UDR, RXC is set, and the RX-complete vector is raised.
func (u *USART) DeliverInput(b byte) {
	u.mem.Poke(u.udrAddr, b)
	ucsra, _ := u.mem.Peek(u.ucsraAddr)
	u.mem.Poke(u.ucsraAddr, ucsra|rxc)
	irq.Raise(u.inputIRQ, uint32(b))
	u.mcu.RaiseInterrupt(u.rxVector)
}

var _ peripheral.Peripheral = (*USART)(nil)
