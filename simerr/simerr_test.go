package simerr_test

import (
	"testing"

	"github.com/gosimavr/gosimavr/simerr"
	"github.com/gosimavr/gosimavr/test"
)

func TestErrorfFormatsLikeFmtErrorf(t *testing.T) {
	err := simerr.Errorf(simerr.StackOverflow, "stack pointer %#04x outside [32,%#04x]", 0x10, 0x8FF)
	test.ExpectEquality(t, err.Error(), "stack pointer 0x10 outside [32,0x8ff]")
}

func TestIsDistinguishesErrno(t *testing.T) {
	err := simerr.Errorf(simerr.UnknownOpcode, "unknown opcode %#04x", 0xFFFF)
	test.ExpectEquality(t, simerr.Is(err, simerr.UnknownOpcode), true)
	test.ExpectEquality(t, simerr.Is(err, simerr.StackOverflow), false)
	test.ExpectEquality(t, simerr.Is(nil, simerr.UnknownOpcode), false)
}

func TestIsAnyDistinguishesCuratedFromPlainErrors(t *testing.T) {
	curated := simerr.Errorf(simerr.MalformedPacket, "bad packet")
	test.ExpectEquality(t, simerr.IsAny(curated), true)
	test.ExpectEquality(t, simerr.IsAny(nil), false)
}

func TestHeadReturnsFormatString(t *testing.T) {
	err := simerr.Errorf(simerr.UnknownMCUVariant, "unknown mcu variant %q", "foo")
	test.ExpectEquality(t, simerr.Head(err), "unknown mcu variant %q")
}

func TestErrorCollapsesDuplicateAdjacentParts(t *testing.T) {
	err := simerr.Errorf(simerr.OutOfRangeAccess, "out of range: %s", "out of range: detail")
	test.ExpectEquality(t, err.Error(), "out of range: detail")
}
