package irq_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/core/irq"
	"github.com/gosimavr/gosimavr/test"
)

func TestAllocNamesSingleAndIndexed(t *testing.T) {
	bus := irq.NewBus()

	single := bus.Alloc("usart0.output", 1)
	test.ExpectEquality(t, single[0].Name, "usart0.output")

	block := bus.Alloc("gpio.pin", 3)
	test.ExpectEquality(t, block[0].Name, "gpio.pin.0")
	test.ExpectEquality(t, block[1].Name, "gpio.pin.1")
	test.ExpectEquality(t, block[2].Name, "gpio.pin.2")
}

func TestAllocAssignsUniqueIncreasingIDs(t *testing.T) {
	bus := irq.NewBus()
	a := bus.Alloc("a", 1)[0]
	b := bus.Alloc("b", 1)[0]
	test.ExpectEquality(t, b.ID(), a.ID()+1)
}

func TestRaiseIsEdgeTriggered(t *testing.T) {
	bus := irq.NewBus()
	line := bus.Alloc("line", 1)[0]

	var calls int
	irq.RegisterNotify(line, func(_ *irq.IRQ, value uint32, _ any) { calls++ }, nil)

	irq.Raise(line, 1)
	irq.Raise(line, 1) // same value again: no-op
	test.ExpectEquality(t, calls, 1)
	test.ExpectEquality(t, line.Value(), uint32(1))

	irq.Raise(line, 0)
	test.ExpectEquality(t, calls, 2)
}

func TestRaiseGuardsAgainstReentrantRecursion(t *testing.T) {
	bus := irq.NewBus()
	line := bus.Alloc("line", 1)[0]

	var calls int
	irq.RegisterNotify(line, func(l *irq.IRQ, value uint32, _ any) {
		calls++
		// a hook that tries to re-raise the line it was called from must be
		// dropped, not recurse forever.
		irq.Raise(l, value+1)
	}, nil)

	irq.Raise(line, 1)
	test.ExpectEquality(t, calls, 1)
	test.ExpectEquality(t, line.Value(), uint32(1))
}

func TestRegisterNotifyDedupsSameFunctionAndPayload(t *testing.T) {
	bus := irq.NewBus()
	line := bus.Alloc("line", 1)[0]

	var calls int
	hook := func(_ *irq.IRQ, value uint32, _ any) { calls++ }
	irq.RegisterNotify(line, hook, "payload")
	irq.RegisterNotify(line, hook, "payload") // same (fn, payload): must not duplicate

	irq.Raise(line, 1)
	test.ExpectEquality(t, calls, 1)
}

func TestRegisterNotifySameFunctionDifferentPayloadIsNotADuplicate(t *testing.T) {
	bus := irq.NewBus()
	line := bus.Alloc("line", 1)[0]

	var calls int
	hook := func(_ *irq.IRQ, value uint32, _ any) { calls++ }
	irq.RegisterNotify(line, hook, "a")
	irq.RegisterNotify(line, hook, "b")

	irq.Raise(line, 1)
	test.ExpectEquality(t, calls, 2)
}

func TestConnectPropagatesBooleanisedValue(t *testing.T) {
	bus := irq.NewBus()
	src := bus.Alloc("src", 1)[0]
	dst := bus.Alloc("dst", 1)[0]
	irq.Connect(src, dst)

	irq.Raise(src, 42)
	test.ExpectEquality(t, dst.Value(), uint32(1))

	irq.Raise(src, 0)
	test.ExpectEquality(t, dst.Value(), uint32(0))
}

func TestAllReturnsAllocationOrder(t *testing.T) {
	bus := irq.NewBus()
	a := bus.Alloc("a", 1)[0]
	b := bus.Alloc("b", 1)[0]

	all := bus.All()
	test.ExpectEquality(t, len(all), 2)
	test.ExpectEquality(t, all[0], a)
	test.ExpectEquality(t, all[1], b)
}
