package peripheral

// Chain is the ordered collection of peripherals attached to an MCU (spec
// §3's io_ports). Registration order is preserved and matters: it is the
// order in which Run is invoked each instruction (spec §5's ordering
// guarantee) and the order ioctl dispatch walks looking for a handler.
type Chain struct {
	peripherals []Peripheral
}

// Register appends p to the chain.
func (c *Chain) Register(p Peripheral) {
	c.peripherals = append(c.peripherals, p)
}

// All returns every registered peripheral, in registration order.
func (c *Chain) All() []Peripheral {
	return c.peripherals
}

// Reset calls Reset on every peripheral, in registration order.
func (c *Chain) Reset() {
	for _, p := range c.peripherals {
		p.Reset()
	}
}

// Run calls Run on every peripheral, in registration order, as required by
// spec §5: "A's run observes cycle N's CPU effects before B's run runs in
// cycle N" for any A registered before B.
func (c *Chain) Run(cycle uint64) {
	for _, p := range c.peripherals {
		p.Run(cycle)
	}
}

// Ioctl walks the chain in registration order and returns the first
// non-StatusUnhandled result, or StatusUnhandled if nothing claims ctl.
func (c *Chain) Ioctl(ctl IOCTL, arg any) Status {
	for _, p := range c.peripherals {
		if s := p.Ioctl(ctl, arg); s != StatusUnhandled {
			return s
		}
	}
	return StatusUnhandled
}
