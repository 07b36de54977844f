package peripheral_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/core/peripheral"
	"github.com/gosimavr/gosimavr/test"
)

type stubPeripheral struct {
	kind      string
	resetSeen bool
	runSeen   []uint64
	ioctl     peripheral.Status
}

func (s *stubPeripheral) Kind() string        { return s.kind }
func (s *stubPeripheral) Reset()              { s.resetSeen = true }
func (s *stubPeripheral) Run(cycle uint64)    { s.runSeen = append(s.runSeen, cycle) }
func (s *stubPeripheral) GetIRQ(int) *irq.IRQ { return nil }
func (s *stubPeripheral) Ioctl(peripheral.IOCTL, any) peripheral.Status {
	return s.ioctl
}

func TestChainRunPreservesRegistrationOrder(t *testing.T) {
	var chain peripheral.Chain
	var order []string

	a := &orderRecorder{name: "a", order: &order}
	b := &orderRecorder{name: "b", order: &order}
	chain.Register(a)
	chain.Register(b)

	chain.Run(1)
	test.ExpectEquality(t, order, []string{"a", "b"})
}

type orderRecorder struct {
	name  string
	order *[]string
}

func (o *orderRecorder) Kind() string        { return o.name }
func (o *orderRecorder) Reset()              {}
func (o *orderRecorder) Run(uint64)          { *o.order = append(*o.order, o.name) }
func (o *orderRecorder) GetIRQ(int) *irq.IRQ { return nil }
func (o *orderRecorder) Ioctl(peripheral.IOCTL, any) peripheral.Status {
	return peripheral.StatusUnhandled
}

func TestChainResetVisitsEveryPeripheral(t *testing.T) {
	var chain peripheral.Chain
	a := &stubPeripheral{kind: "a"}
	b := &stubPeripheral{kind: "b"}
	chain.Register(a)
	chain.Register(b)

	chain.Reset()
	test.ExpectEquality(t, a.resetSeen, true)
	test.ExpectEquality(t, b.resetSeen, true)
}

func TestChainIoctlStopsAtFirstHandler(t *testing.T) {
	var chain peripheral.Chain
	unhandled := &stubPeripheral{kind: "a", ioctl: peripheral.StatusUnhandled}
	handled := &stubPeripheral{kind: "b", ioctl: peripheral.StatusOK}
	never := &stubPeripheral{kind: "c", ioctl: peripheral.StatusError}
	chain.Register(unhandled)
	chain.Register(handled)
	chain.Register(never)

	status := chain.Ioctl(peripheral.MakeIOCTL("TEST", 'X', 0), nil)
	test.ExpectEquality(t, status, peripheral.StatusOK)
}

func TestChainIoctlUnhandledWhenNobodyClaims(t *testing.T) {
	var chain peripheral.Chain
	chain.Register(&stubPeripheral{kind: "a", ioctl: peripheral.StatusUnhandled})

	status := chain.Ioctl(peripheral.MakeIOCTL("TEST", 'X', 0), nil)
	test.ExpectEquality(t, status, peripheral.StatusUnhandled)
}

func TestMakeIOCTLDiffersByClassActionAndInstance(t *testing.T) {
	a := peripheral.MakeIOCTL("UART", 'I', 0)
	b := peripheral.MakeIOCTL("UART", 'O', 0)
	c := peripheral.MakeIOCTL("UART", 'I', 1)
	test.ExpectEquality(t, a == b, false)
	test.ExpectEquality(t, a == c, false)
}
