package mcu

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/gosimavr/gosimavr/simerr"
)

// LoadFlashFile reads a raw flash image from path and loads it via
// LoadFlash. A file shorter than flash (flashend+1 bytes) is a fatal
// short-flash-file error.
func (m *MCU) LoadFlashFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return simerr.Errorf(simerr.UnreadableFlashFile, "reading flash image %q: %v", path, err)
	}
	if len(data) < len(m.Mem.Flash) {
		return simerr.Errorf(simerr.ShortFlashFile,
			"flash image %q is %d bytes, shorter than %d bytes of flash", path, len(data), len(m.Mem.Flash))
	}
	return m.LoadFlash(data)
}

// LoadFlash copies an already-assembled flash image (e.g. from
// loader.LoadRaw/LoadIntelHEX) into Mem's flash array. An image larger than
// flash is a fatal short-flash-file error (there is no addressable room for
// the rest); a smaller image leaves the remainder of flash at its erased
// 0xFF state.
func (m *MCU) LoadFlash(data []byte) error {
	if len(data) > len(m.Mem.Flash) {
		return simerr.Errorf(simerr.ShortFlashFile,
			"flash image is %d bytes, larger than %d bytes of flash", len(data), len(m.Mem.Flash))
	}
	copy(m.Mem.Flash, data)
	return nil
}

// SaveFlashFile writes exactly flashend+1 bytes of flash to path, truncating
// to the chip's real flash size regardless of any padding the backing slice
// might carry.
func (m *MCU) SaveFlashFile(path string) error {
	flashEnd := len(m.Mem.Flash) - 1
	return os.WriteFile(path, m.Mem.Flash[:flashEnd+1], 0o644)
}

// CrashDump writes a post-mortem report to w: the crash error, the CPU's
// register/flag summary, the recent-PC ring buffer, and a full structural
// dump of the CPU value, in the teacher's go-spew style rather than a
// hand-rolled formatter.
func (m *MCU) CrashDump(w io.Writer) {
	fmt.Fprintf(w, "%s crashed: %v\n", m.Name, m.CrashErr)
	fmt.Fprintf(w, "cpu: %s\n", m.CPU)
	fmt.Fprintf(w, "recent pc: %#v\n", m.CPU.RecentPCs())
	spew.Fdump(w, m.CPU)
}
