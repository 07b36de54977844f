package usart_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/interrupt"
	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/memory"
	"github.com/gosimavr/gosimavr/peripherals/usart"
	"github.com/gosimavr/gosimavr/test"
)

const (
	udrAddr   = 0x2C
	ucsraAddr = 0x2B
	ucsrbAddr = 0x2A
	rxVector  = 18
	txVector  = 19

	udre = 1 << 5
	rxc  = 1 << 7
)

type fakeRaiser struct {
	raised []int
	ctrl   *interrupt.Controller
}

func (f *fakeRaiser) RaiseInterrupt(vector int) {
	f.raised = append(f.raised, vector)
	f.ctrl.Raise(vector, false)
}

func newUSART(t *testing.T) (*usart.USART, *memory.Image, *fakeRaiser, *interrupt.Controller) {
	t.Helper()
	img := memory.New(256, 0x2FF, 0x80, 0)
	bus := irq.NewBus()
	ctrl := interrupt.NewController(img, 1)
	raiser := &fakeRaiser{ctrl: ctrl}
	u := usart.New(bus, img, raiser, ctrl, "usart0", udrAddr, ucsraAddr, ucsrbAddr, rxVector, txVector)
	return u, img, raiser, ctrl
}

func TestResetSetsUDREAndClearsUDRAndUCSRB(t *testing.T) {
	u, img, _, _ := newUSART(t)
	u.Reset()

	v, _ := img.Peek(udrAddr)
	test.ExpectEquality(t, v, uint8(0))

	ucsra, _ := img.Peek(ucsraAddr)
	test.ExpectEquality(t, ucsra, uint8(udre))

	ucsrb, _ := img.Peek(ucsrbAddr)
	test.ExpectEquality(t, ucsrb, uint8(0))
}

func TestWritingUDRRaisesOutputIRQAndTxVectorAndKeepsUDRE(t *testing.T) {
	u, img, raiser, _ := newUSART(t)
	u.Reset()

	var seen []uint32
	irq.RegisterNotify(u.GetIRQ(usart.IRQOutput), func(_ *irq.IRQ, value uint32, _ any) { seen = append(seen, value) }, nil)

	img.Write(udrAddr, 0x41)

	test.ExpectEquality(t, seen, []uint32{0x41})
	test.ExpectEquality(t, raiser.raised, []int{txVector})

	ucsra, _ := img.Peek(ucsraAddr)
	test.ExpectEquality(t, ucsra&udre, uint8(udre))
}

func TestTxVectorOnlyBecomesPendingWhenUDRIESet(t *testing.T) {
	u, img, _, ctrl := newUSART(t)
	u.Reset()

	img.Write(udrAddr, 0x41)
	test.ExpectEquality(t, ctrl.Pending(txVector), false)

	udrie := uint8(1 << 5)
	img.Write(ucsrbAddr, udrie)
	img.Write(udrAddr, 0x42)
	test.ExpectEquality(t, ctrl.Pending(txVector), true)
}

func TestDeliverInputSetsUDRAndRXCAndRaisesInputIRQ(t *testing.T) {
	u, img, raiser, _ := newUSART(t)
	u.Reset()

	var seen []uint32
	irq.RegisterNotify(u.GetIRQ(usart.IRQInput), func(_ *irq.IRQ, value uint32, _ any) { seen = append(seen, value) }, nil)

	u.DeliverInput('X')

	v, _ := img.Peek(udrAddr)
	test.ExpectEquality(t, v, uint8('X'))

	ucsra, _ := img.Peek(ucsraAddr)
	test.ExpectEquality(t, ucsra&rxc, uint8(rxc))

	test.ExpectEquality(t, seen, []uint32{uint32('X')})
	test.ExpectEquality(t, raiser.raised, []int{rxVector})
}

func TestReadingUDRClearsRXCButNotUDRE(t *testing.T) {
	u, img, _, _ := newUSART(t)
	u.Reset()
	u.DeliverInput('Y')

	v, err := img.Read(udrAddr)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint8('Y'))

	ucsra, _ := img.Peek(ucsraAddr)
	test.ExpectEquality(t, ucsra&rxc, uint8(0))
	test.ExpectEquality(t, ucsra&udre, uint8(udre))
}

func TestRxVectorOnlyBecomesPendingWhenRXIESet(t *testing.T) {
	u, img, _, ctrl := newUSART(t)
	u.Reset()

	u.DeliverInput('Z')
	test.ExpectEquality(t, ctrl.Pending(rxVector), false)

	rxie := uint8(1 << 7)
	img.Write(ucsrbAddr, rxie)
	u.DeliverInput('Q')
	test.ExpectEquality(t, ctrl.Pending(rxVector), true)
}

func TestGetIRQOutOfRangeReturnsNil(t *testing.T) {
	u, _, _, _ := newUSART(t)
	test.ExpectEquality(t, u.GetIRQ(-1) == nil, true)
	test.ExpectEquality(t, u.GetIRQ(2) == nil, true)
}
