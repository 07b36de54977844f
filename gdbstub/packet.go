// Package gdbstub implements the GDB Remote Serial Protocol subset spec §6
// requires: packet framing, register and memory access, and the
// continue/step/breakpoint state machine, wired to a single *mcu.MCU.
//
// The protocol's own concurrency model mirrors spec §5: ListenAndServe runs
// on its own goroutine and serves one connection at a time, parsing packets
// and appending commands to a lock-protected queue; it never touches MCU
// state itself. The CPU thread (whatever goroutine is driving
// mcu.MCU.RunTick) calls ServiceOnce once per run tick, which is the only place commands are
// drained and responses computed, so every actual read or write of MCU
// state happens on that one thread.
package gdbstub

import (
	"fmt"
	"io"
)

// encodePacket frames payload as "$<payload>#<checksum>", where checksum is
// the modulo-256 sum of payload's bytes in two lowercase hex digits.
func encodePacket(payload string) string {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum += payload[i]
	}
	return fmt.Sprintf("$%s#%02x", payload, sum)
}

// readPacket reads one GDB packet from r, skipping leading '+'/'-' acks and
// stray bytes before the '$', and returns its payload with the framing and
// checksum stripped. The checksum is validated; a mismatch is reported to
// the caller so it can send '-' (retransmit request) rather than silently
// acting on a corrupted command.
func readPacket(r io.ByteReader) (payload string, ok bool, err error) {
	// Skip until '$', discarding ack/nak bytes and any other stray byte. A
	// Ctrl-C (0x03, GDB's out-of-band interrupt) is discarded the same way;
	// it does not stop a running MCU.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false, err
		}
		if b == '$' {
			break
		}
	}

	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false, err
		}
		if b == '#' {
			break
		}
		if b == '}' { // escape character
			next, err := r.ReadByte()
			if err != nil {
				return "", false, err
			}
			buf = append(buf, next^0x20)
			continue
		}
		buf = append(buf, b)
	}

	hi, err := r.ReadByte()
	if err != nil {
		return "", false, err
	}
	lo, err := r.ReadByte()
	if err != nil {
		return "", false, err
	}
	want := unhex(hi)<<4 | unhex(lo)

	var sum byte
	for _, b := range buf {
		sum += b
	}
	return string(buf), sum == want, nil
}

func unhex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	default:
		return 0
	}
}

func hexByte(b byte) string { return fmt.Sprintf("%02x", b) }
