package gdbstub

import (
	"strconv"
	"strings"

	"github.com/gosimavr/gosimavr/core/mcu"
	"github.com/gosimavr/gosimavr/simerr"
)

// flashWindow/dataWindow/eepromWindow carve the flat address space an
// avr-gdb 'm'/'M' packet addresses into the three spaces a real AVR (and
// this simulator) actually keeps separate: addresses below flashWindow are
// byte offsets into flash; dataWindow.. is data space, offset by
// subtracting dataWindow; eepromWindow.. is EEPROM, offset by subtracting
// eepromWindow. Matches avr-gdb/avarice and simavr's own gdb server.
const (
	flashWindow  = 0x10000
	dataWindow   = 0x800000
	eepromWindow = 0x810000
)

// ServiceOnce drains every command queued by the network goroutine(s) since
// the last call and executes each synchronously against m. Call this once
// per run tick from the goroutine driving mcu.MCU.RunTick — it is the only
// place gdbstub touches MCU state.
func (s *Stub) ServiceOnce(m *mcu.MCU) {
	s.mu.Lock()
	cmds := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range cmds {
		s.handle(m, c)
	}
}

// CheckBreakpointHit should be called right after ServiceOnce, also once
// per run tick: if the MCU is Running and sitting on an installed
// breakpoint, it stops the MCU and replies "S05" to the 'c' request that
// left it running, per spec §6's scenario 4.
func (s *Stub) CheckBreakpointHit(m *mcu.MCU) {
	if m.State != mcu.StateRunning {
		return
	}
	if !s.HitBreakpoint(m.CPU.PC) {
		return
	}
	m.State = mcu.StateStopped
	s.mu.Lock()
	resp := s.contResp
	s.contResp = nil
	s.mu.Unlock()
	if resp != nil {
		resp <- "S05"
	}
}

func (s *Stub) handle(m *mcu.MCU, c command) {
	switch {
	case c.payload == "?":
		c.resp <- "S05"

	case c.payload == "g":
		c.resp <- s.readRegisters(m)

	case strings.HasPrefix(c.payload, "G"):
		s.writeRegisters(m, c.payload[1:])
		c.resp <- "OK"

	case strings.HasPrefix(c.payload, "m"):
		c.resp <- s.readMemory(m, c.payload[1:])

	case strings.HasPrefix(c.payload, "M"):
		c.resp <- s.writeMemory(m, c.payload[1:])

	case strings.HasPrefix(c.payload, "P"):
		c.resp <- s.writeRegister(m, c.payload[1:])

	case strings.HasPrefix(c.payload, "p"):
		c.resp <- s.readRegister(m, c.payload[1:])

	case strings.HasPrefix(c.payload, "Z"):
		c.resp <- s.setBreakpoint(c.payload[1:])

	case strings.HasPrefix(c.payload, "z"):
		c.resp <- s.clearBreakpoint(c.payload[1:])

	case c.payload == "c" || strings.HasPrefix(c.payload, "c"):
		m.State = mcu.StateRunning
		s.mu.Lock()
		s.contResp = c.resp
		s.mu.Unlock()
		// No synchronous reply: the client gets "S05" later, from
		// CheckBreakpointHit, once a breakpoint is actually hit.

	case c.payload == "s" || strings.HasPrefix(c.payload, "s"):
		if err := m.Step(); err != nil {
			c.resp <- "E01"
			return
		}
		c.resp <- "S05"

	case c.payload == "k":
		m.State = mcu.StateDone
		close(c.resp)

	default:
		c.resp <- "" // unrecognised packet: empty reply per the RSP spec
	}
}

func (s *Stub) readRegisters(m *mcu.MCU) string {
	var sb strings.Builder
	for i := 0; i < 32; i++ {
		v, _ := m.Mem.Peek(uint16(i))
		sb.WriteString(hexByte(v))
	}
	sb.WriteString(hexByte(m.CPU.SREG.Pack()))
	sp := m.CPU.SP()
	sb.WriteString(hexByte(uint8(sp)))
	sb.WriteString(hexByte(uint8(sp >> 8)))
	pcByte := m.CPU.PC * 2
	sb.WriteString(hexByte(uint8(pcByte)))
	sb.WriteString(hexByte(uint8(pcByte >> 8)))
	sb.WriteString(hexByte(uint8(pcByte >> 16)))
	sb.WriteString(hexByte(uint8(pcByte >> 24)))
	return sb.String()
}

func (s *Stub) writeRegisters(m *mcu.MCU, data string) {
	bytes := decodeHexBytes(data)
	if len(bytes) < 32+1+2+4 {
		return
	}
	for i := 0; i < 32; i++ {
		m.Mem.Poke(uint16(i), bytes[i])
	}
	m.CPU.SREG.Unpack(bytes[32])
	sp := uint16(bytes[33]) | uint16(bytes[34])<<8
	m.CPU.SetSP(sp)
	pcByte := uint32(bytes[35]) | uint32(bytes[36])<<8 | uint32(bytes[37])<<16 | uint32(bytes[38])<<24
	m.CPU.PC = pcByte / 2
}

func (s *Stub) readMemory(m *mcu.MCU, spec string) string {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		return "E01"
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil {
		return "E01"
	}

	var sb strings.Builder
	for i := uint64(0); i < length; i++ {
		v, err := s.readMemoryByte(m, addr+i)
		if err != nil {
			return "E01"
		}
		sb.WriteString(hexByte(v))
	}
	return sb.String()
}

// readMemoryByte routes a flat gdb address to the right backing space:
// flash below flashWindow, data space from dataWindow, EEPROM from
// eepromWindow. Addresses that fall in the gap between flash and dataWindow
// belong to none of them.
func (s *Stub) readMemoryByte(m *mcu.MCU, a uint64) (uint8, error) {
	switch {
	case a < flashWindow:
		return m.Mem.FlashByte(uint32(a))
	case a >= eepromWindow:
		return peekEEPROM(m, uint32(a-eepromWindow))
	case a >= dataWindow:
		return m.Mem.Peek(uint16(a - dataWindow))
	default:
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "address %#x is outside the flash/data/eeprom windows", a)
	}
}

func (s *Stub) writeMemory(m *mcu.MCU, spec string) string {
	head, data, ok := strings.Cut(spec, ":")
	if !ok {
		return "E01"
	}
	parts := strings.SplitN(head, ",", 2)
	if len(parts) != 2 {
		return "E01"
	}
	addr, err1 := strconv.ParseUint(parts[0], 16, 32)
	length, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil {
		return "E01"
	}
	bytes := decodeHexBytes(data)
	if uint64(len(bytes)) < length {
		return "E01"
	}

	for i := uint64(0); i < length; i++ {
		if err := s.writeMemoryByte(m, addr+i, bytes[i]); err != nil {
			return "E01"
		}
	}
	return "OK"
}

func (s *Stub) writeMemoryByte(m *mcu.MCU, a uint64, value uint8) error {
	switch {
	case a < flashWindow:
		return m.Mem.WriteFlashByte(uint32(a), value)
	case a >= eepromWindow:
		return pokeEEPROM(m, uint32(a-eepromWindow), value)
	case a >= dataWindow:
		return m.Mem.Poke(uint16(a-dataWindow), value)
	default:
		return simerr.Errorf(simerr.OutOfRangeAccess, "address %#x is outside the flash/data/eeprom windows", a)
	}
}

// peekEEPROM/pokeEEPROM read and write m's EEPROM backing array directly,
// the same slice peripherals/eeprom.EEPROM keeps its own bounds-checked
// view over.
func peekEEPROM(m *mcu.MCU, idx uint32) (uint8, error) {
	if int(idx) >= len(m.Mem.EEPROM) {
		return 0, simerr.Errorf(simerr.OutOfRangeAccess, "eeprom read at out-of-range offset %#x", idx)
	}
	return m.Mem.EEPROM[idx], nil
}

func pokeEEPROM(m *mcu.MCU, idx uint32, value uint8) error {
	if int(idx) >= len(m.Mem.EEPROM) {
		return simerr.Errorf(simerr.OutOfRangeAccess, "eeprom write at out-of-range offset %#x", idx)
	}
	m.Mem.EEPROM[idx] = value
	return nil
}

// readRegister implements the GDB 'p' packet: register numbers 0-31 are the
// general-purpose registers (1 byte), 32 is SREG (1 byte), 33 is SP (2
// bytes, SPL then SPH), 34 is PC (3 bytes, little-endian, padded with a
// literal zero fourth byte rather than the real 4th PC byte the 'g' packet
// sends).
func (s *Stub) readRegister(m *mcu.MCU, spec string) string {
	n, err := strconv.ParseUint(spec, 16, 32)
	if err != nil {
		return "E01"
	}
	switch {
	case n < 32:
		v, _ := m.Mem.Peek(uint16(n))
		return hexByte(v)
	case n == 32:
		return hexByte(m.CPU.SREG.Pack())
	case n == 33:
		sp := m.CPU.SP()
		return hexByte(uint8(sp)) + hexByte(uint8(sp>>8))
	case n == 34:
		pcByte := m.CPU.PC * 2
		return hexByte(uint8(pcByte)) + hexByte(uint8(pcByte>>8)) + hexByte(uint8(pcByte>>16)) + "00"
	default:
		return "E01"
	}
}

// writeRegister implements the GDB 'P' packet, the inverse of readRegister.
func (s *Stub) writeRegister(m *mcu.MCU, spec string) string {
	numPart, valPart, ok := strings.Cut(spec, "=")
	if !ok {
		return "E01"
	}
	n, err := strconv.ParseUint(numPart, 16, 32)
	if err != nil {
		return "E01"
	}
	bytes := decodeHexBytes(valPart)
	switch {
	case n < 32:
		if len(bytes) < 1 {
			return "E01"
		}
		m.Mem.Poke(uint16(n), bytes[0])
	case n == 32:
		if len(bytes) < 1 {
			return "E01"
		}
		m.CPU.SREG.Unpack(bytes[0])
	case n == 33:
		if len(bytes) < 2 {
			return "E01"
		}
		m.CPU.SetSP(uint16(bytes[0]) | uint16(bytes[1])<<8)
	case n == 34:
		if len(bytes) < 3 {
			return "E01"
		}
		pcByte := uint32(bytes[0]) | uint32(bytes[1])<<8 | uint32(bytes[2])<<16
		m.CPU.PC = pcByte / 2
	default:
		return "E01"
	}
	return "OK"
}

// setBreakpoint handles a "Z0,addr,len" request (software breakpoint; this
// simulator does not distinguish breakpoint kinds, so every Z type is
// treated as the same flat table entry). Re-inserting at an address already
// in the table updates its len in place instead of consuming a new slot.
func (s *Stub) setBreakpoint(spec string) string {
	parts := strings.Split(spec, ",")
	if len(parts) < 2 {
		return "E01"
	}
	addrByte, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return "E01"
	}
	word := uint32(addrByte) / 2

	var length uint64
	if len(parts) >= 3 {
		length, _ = strconv.ParseUint(parts[2], 16, 32)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, valid := range s.bpValid {
		if valid && s.breakpoints[i] == word {
			s.bpLen[i] = uint32(length)
			return "OK" // already installed
		}
	}
	for i, valid := range s.bpValid {
		if !valid {
			s.bpValid[i] = true
			s.breakpoints[i] = word
			s.bpLen[i] = uint32(length)
			return "OK"
		}
	}
	return "E01" // breakpoint table full
}

func (s *Stub) clearBreakpoint(spec string) string {
	parts := strings.Split(spec, ",")
	if len(parts) < 2 {
		return "E01"
	}
	addrByte, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return "E01"
	}
	word := uint32(addrByte) / 2

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, valid := range s.bpValid {
		if valid && s.breakpoints[i] == word {
			s.bpValid[i] = false
			return "OK"
		}
	}
	return "OK" // removing a breakpoint that isn't set is not an error
}

func decodeHexBytes(s string) []byte {
	out := make([]byte, len(s)/2)
	for i := range out {
		out[i] = unhex(s[2*i])<<4 | unhex(s[2*i+1])
	}
	return out
}
