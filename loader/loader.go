// Package loader turns a firmware file on disk into the flat byte image
// core/mcu.MCU.LoadFlash consumes, per spec §6's external interfaces. A
// full ELF loader is out of scope (spec §1's Non-goals); a minimal Intel HEX
// parser plus a pass-through flat-binary loader are this package's concrete
// instances.
package loader

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"os"

	"github.com/gosimavr/gosimavr/simerr"
)

// Firmware is the generic result of loading any supported firmware format:
// the flash image plus whatever metadata the format happened to carry.
type Firmware struct {
	// FlashBytes is the raw byte-addressed flash content, ready to copy
	// into core/memory.Image.Flash (or pass to MCU.LoadFlashFile's
	// equivalent in-memory form).
	FlashBytes []byte

	// FlashSize is len(FlashBytes), named separately because some formats
	// (Intel HEX) build the image sparse-to-dense and it records the
	// high-water mark of that build; trailing 0xFF padding is not trimmed.
	FlashSize int

	// MCUName is the variant name a format embeds for convenience (.hex
	// records never carry one; present only for formats that do).
	MCUName string

	// FCPU is a clock-rate hint, when the format embeds one; 0 if absent.
	FCPU uint32

	// EEPROMBytes is an initial EEPROM image, when the format embeds one;
	// nil if absent (true of both formats here).
	EEPROMBytes []byte

	// Symbols maps a symbol name to its flash word address, when the format
	// embeds a symbol table; nil if absent (true of both formats here).
	Symbols map[string]uint32
}

// LoadRaw reads a flat binary firmware image: the file's bytes become
// FlashBytes verbatim, no parsing at all.
func LoadRaw(path string) (Firmware, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Firmware{}, simerr.Errorf(simerr.UnreadableFlashFile, "reading firmware %q: %v", path, err)
	}
	return Firmware{FlashBytes: data, FlashSize: len(data)}, nil
}

// recordType identifies an Intel HEX record's purpose (the ":TTAAAARR..."
// line format's RR field).
type recordType byte

const (
	recData                  recordType = 0x00
	recEndOfFile              recordType = 0x01
	recExtendedSegmentAddress recordType = 0x02
	recExtendedLinearAddress  recordType = 0x04
)

// LoadIntelHEX parses a classic Intel HEX file (record types 00/01/02/04;
// 03/05 start-address records are read and discarded, since this simulator
// always begins execution at flash address 0). The flash image grows to
// cover the highest address written, padded with 0xFF (the erased-cell
// value) anywhere no record ever touched.
func LoadIntelHEX(path string) (Firmware, error) {
	f, err := os.Open(path)
	if err != nil {
		return Firmware{}, simerr.Errorf(simerr.UnreadableFlashFile, "reading firmware %q: %v", path, err)
	}
	defer f.Close()

	var flash []byte
	var upperAddr uint32 // from the last 04 (or 02, shifted) record

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != ':' {
			return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: missing leading ':'", path, lineNo)
		}

		raw, err := hex.DecodeString(string(line[1:]))
		if err != nil || len(raw) < 5 {
			return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: malformed record", path, lineNo)
		}

		count := int(raw[0])
		addr := uint16(raw[1])<<8 | uint16(raw[2])
		typ := recordType(raw[3])
		if len(raw) != 5+count {
			return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: length field disagrees with record", path, lineNo)
		}
		payload := raw[4 : 4+count]

		var sum byte
		for _, b := range raw[:len(raw)-1] {
			sum += b
		}
		if byte(0x100-int(sum)) != raw[len(raw)-1] {
			return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: checksum mismatch", path, lineNo)
		}

		switch typ {
		case recData:
			full := upperAddr + uint32(addr)
			need := int(full) + count
			if need > len(flash) {
				grown := make([]byte, need)
				copy(grown, flash)
				for i := len(flash); i < need; i++ {
					grown[i] = 0xFF
				}
				flash = grown
			}
			copy(flash[full:], payload)
		case recEndOfFile:
			// nothing further to read; keep scanning is harmless but stop
			// promptly for files with trailing blank lines.
			return finishHex(flash), nil
		case recExtendedSegmentAddress:
			if count != 2 {
				return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: bad segment-address record", path, lineNo)
			}
			upperAddr = (uint32(payload[0])<<8 | uint32(payload[1])) << 4
		case recExtendedLinearAddress:
			if count != 2 {
				return Firmware{}, simerr.Errorf(simerr.MalformedPacket, "intel hex %q line %d: bad linear-address record", path, lineNo)
			}
			upperAddr = (uint32(payload[0])<<8 | uint32(payload[1])) << 16
		}
	}
	if err := scanner.Err(); err != nil {
		return Firmware{}, simerr.Errorf(simerr.UnreadableFlashFile, "reading firmware %q: %v", path, err)
	}
	return finishHex(flash), nil
}

func finishHex(flash []byte) Firmware {
	return Firmware{FlashBytes: flash, FlashSize: len(flash)}
}
