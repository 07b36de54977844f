// Package irq implements the inter-peripheral signal bus (C2): typed edges
// between producers and consumers. These are not CPU interrupts (see
// core/interrupt for that) — they are the wiring used to connect, say, a
// timer's overflow line to the interrupt controller, or a USART's OUTPUT
// line to a host-side console bridge.
package irq

import "reflect"

// NotifyFunc is called whenever the IRQ it is registered on changes value.
// payload is whatever was supplied at registration time, returned verbatim;
// it lets a single function be reused as the hook for many IRQs.
type NotifyFunc func(irq *IRQ, value uint32, payload any)

type hook struct {
	fn      NotifyFunc
	payload any
}

// IRQ is one signal line: an identity, a current value, and the list of
// hooks to invoke when the value changes.
type IRQ struct {
	// Name is a human-readable label, e.g. "timer0.overflow". Useful for
	// logging and for the memviz graph dump.
	Name string

	id    int
	value uint32
	hooks []hook

	// busy guards against reentrant raise() calls on the same IRQ: a hook
	// that raises the IRQ it was called from would otherwise recurse
	// forever. The spec treats this as a boolean, not a depth counter,
	// because recursion depth greater than one is always a wiring bug, not
	// a legitimate use case.
	busy bool
}

// ID returns the IRQ's allocation-assigned identifier.
func (i *IRQ) ID() int { return i.id }

// Value returns the IRQ's current value.
func (i *IRQ) Value() uint32 { return i.value }

// Bus owns a collection of allocated IRQ blocks. It has no behaviour beyond
// allocation bookkeeping; IRQ itself carries the hook list and raise logic,
// matching simavr's avr_irq_t / avr_irq_pool design of flat arrays of
// independently addressable lines.
type Bus struct {
	nextID int
	all    []*IRQ
}

// NewBus creates an empty IRQ bus.
func NewBus() *Bus {
	return &Bus{}
}

// Alloc allocates a contiguous block of count IRQs, named name+"."+index for
// index in [0,count). IDs are assigned consecutively and are unique for the
// lifetime of the bus.
func (b *Bus) Alloc(name string, count int) []*IRQ {
	out := make([]*IRQ, count)
	for i := 0; i < count; i++ {
		irq := &IRQ{id: b.nextID, Name: indexedName(name, i, count)}
		b.nextID++
		b.all = append(b.all, irq)
		out[i] = irq
	}
	return out
}

func indexedName(name string, i, count int) string {
	if count == 1 {
		return name
	}
	return name + "." + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// All returns every IRQ ever allocated on this bus, in allocation order. Used
// by the memviz graph dump.
func (b *Bus) All() []*IRQ { return b.all }

// RegisterNotify appends fn (with payload) to irq's hook list, deduplicated
// by identity of the (fn, payload) pair: a second registration with the same
// underlying function pointer and an equal payload is a no-op, so a
// peripheral that re-wires itself after a config change doesn't end up
// invoked twice per edge. Function values aren't comparable with ==, so
// identity is taken from reflect.Value.Pointer() instead.
func RegisterNotify(irqLine *IRQ, fn NotifyFunc, payload any) {
	fnPtr := reflect.ValueOf(fn).Pointer()
	for _, h := range irqLine.hooks {
		if reflect.ValueOf(h.fn).Pointer() == fnPtr && samePayload(h.payload, payload) {
			return
		}
	}
	irqLine.hooks = append(irqLine.hooks, hook{fn: fn, payload: payload})
}

// samePayload compares two hook payloads for equality, falling back to
// reflect.DeepEqual when the dynamic type isn't comparable with == (a slice
// or map payload, say) rather than letting that comparison panic.
func samePayload(a, b any) bool {
	t := reflect.TypeOf(a)
	if t == nil || !t.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// Raise sets irq's value and, if it actually changed, invokes every
// registered hook in insertion order, synchronously. Raising with the
// current value is a no-op (edge semantics): it produces zero hook
// invocations. The busy guard silently drops a hook that re-raises the same
// IRQ from within its own notification.
func Raise(irqLine *IRQ, value uint32) {
	if value == irqLine.value {
		return
	}
	if irqLine.busy {
		return
	}
	irqLine.busy = true
	irqLine.value = value
	for _, h := range irqLine.hooks {
		h.fn(irqLine, value, h.payload)
	}
	irqLine.busy = false
}

// Connect installs a hook on src that raises dst with a boolean
// normalisation of src's value (value != 0 becomes 1, else 0). This is the
// standard way to wire one peripheral's output line to another's input line.
// dst is the hook's payload, so wiring one src to several dsts installs one
// hook per dst, and wiring the same (src, dst) pair twice installs one hook.
func Connect(src, dst *IRQ) {
	RegisterNotify(src, func(_ *IRQ, value uint32, payload any) {
		target := payload.(*IRQ)
		if value != 0 {
			Raise(target, 1)
		} else {
			Raise(target, 0)
		}
	}, dst)
}
