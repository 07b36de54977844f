// Package variant is the MCU descriptor/factory table (C8): one entry per
// supported part, naming its memory geometry and the concrete peripherals
// (and the chip-specific register addresses they bind to) that a real
// instance of that part carries. Building an MCU always goes through here
// rather than calling core/mcu.New directly, the same way the teacher's
// hardware/preferences loader is the single place a cartridge mapper name
// turns into a concrete Go type.
package variant

import (
	"sort"

	"github.com/gosimavr/gosimavr/core/mcu"
	"github.com/gosimavr/gosimavr/instance"
	"github.com/gosimavr/gosimavr/peripherals/eeprom"
	"github.com/gosimavr/gosimavr/peripherals/gpio"
	"github.com/gosimavr/gosimavr/peripherals/timer8"
	"github.com/gosimavr/gosimavr/peripherals/usart"
	"github.com/gosimavr/gosimavr/simerr"
)

// factory builds a fresh MCU wired up with this part's peripherals, given
// the per-run instance state (spec §3's no-module-globals rule).
type factory func(ins *instance.Instance) *mcu.MCU

// descriptor is one row of the table: a canonical name, the aliases
// datasheet/toolchain convention also uses for it, and how to build one.
type descriptor struct {
	name    string
	aliases []string
	build   factory
}

var table = []descriptor{
	{name: "atmega328p", aliases: []string{"m328p", "328p"}, build: buildATmega328P},
	{name: "attiny85", aliases: []string{"t85", "85"}, build: buildATtiny85},
}

// Names returns every canonical variant name, sorted, for --help text and
// error messages.
func Names() []string {
	names := make([]string, len(table))
	for i, d := range table {
		names[i] = d.name
	}
	sort.Strings(names)
	return names
}

// New builds a fresh, reset MCU for the named variant (canonical name or
// alias, case-sensitive as datasheet part numbers conventionally are). ins
// may be nil, in which case each build gets its own deterministic,
// zero-seeded Instance.
func New(name string, ins *instance.Instance) (*mcu.MCU, error) {
	if ins == nil {
		ins = instance.New(0)
	}
	for _, d := range table {
		if d.name == name {
			return finish(d.build(ins)), nil
		}
		for _, a := range d.aliases {
			if a == name {
				return finish(d.build(ins)), nil
			}
		}
	}
	return nil, simerr.Errorf(simerr.UnknownMCUVariant, "unknown mcu variant %q (known: %v)", name, Names())
}

func finish(m *mcu.MCU) *mcu.MCU {
	m.Reset()
	return m
}

// buildATmega328P wires up the register layout of an Arduino-familiar part:
// 32KB flash, 2KB SRAM, 1KB EEPROM, three GPIO ports, one 8-bit timer, one
// USART.
func buildATmega328P(ins *instance.Instance) *mcu.MCU {
	m := mcu.New(mcu.Config{
		Name:       "atmega328p",
		FCPU:       16_000_000,
		FlashWords: 16384, // 32KB
		RAMEnd:     0x08FF,
		IOSize:     0x100 - 0x20,
		EEPROMSize: 1024,
		SPLAddr:    0x5D,
		SPHAddr:    0x5E,
		SREGAddr:   0x5F,
		VectorSize: 2,
		Instance:   ins,
	})

	bus := m.IRQBus

	m.Peripherals.Register(gpio.New(bus, m.Mem, "gpio.B", 0x25, 0x24, 0x23, 8))
	m.Peripherals.Register(gpio.New(bus, m.Mem, "gpio.C", 0x28, 0x27, 0x26, 7))
	m.Peripherals.Register(gpio.New(bus, m.Mem, "gpio.D", 0x2B, 0x2A, 0x29, 8))

	m.Peripherals.Register(timer8.New(bus, m.Mem, m, m.Interrupts, "timer0", 0x46, 0x45, 0x6E, 0x35, 1, 16))
	m.Peripherals.Register(usart.New(bus, m.Mem, m, m.Interrupts, "usart0", 0xC6, 0xC0, 0xC1, 18, 19))
	m.Peripherals.Register(eeprom.New(m.Mem, 0x40, 0x41, 0x42, 0x3F))

	return m
}

// buildATtiny85 wires up the smaller, extended-IO-free part: 8KB flash,
// 512B SRAM, 512B EEPROM, one GPIO port, one 8-bit timer. ATtiny85 has no
// USART; the CLI's --console flag is simply unavailable for this variant.
func buildATtiny85(ins *instance.Instance) *mcu.MCU {
	m := mcu.New(mcu.Config{
		Name:       "attiny85",
		FCPU:       8_000_000,
		FlashWords: 4096, // 8KB
		RAMEnd:     0x025F,
		IOSize:     0x40,
		EEPROMSize: 512,
		SPLAddr:    0x5D,
		SPHAddr:    0x5E,
		SREGAddr:   0x5F,
		VectorSize: 1,
		Instance:   ins,
	})

	bus := m.IRQBus

	// Register addresses here are data-space (IO address + 0x20), the same
	// convention buildATmega328P uses; ATtiny85's IO space is only 64
	// registers wide (data 0x20..0x5F) instead of the '328P's 224.
	m.Peripherals.Register(gpio.New(bus, m.Mem, "gpio.B", 0x38, 0x37, 0x36, 6))
	m.Peripherals.Register(timer8.New(bus, m.Mem, m, m.Interrupts, "timer0", 0x52, 0x53, 0x59, 0x58, 1, 6))
	m.Peripherals.Register(eeprom.New(m.Mem, 0x3D, 0x3E, 0x3F, 0x3C))

	return m
}
