package gdbstub

import (
	"bufio"
	"strings"
	"testing"

	"github.com/gosimavr/gosimavr/test"
)

func TestEncodePacketFramesWithModulo256Checksum(t *testing.T) {
	got := encodePacket("OK")
	// 'O'=0x4f, 'K'=0x4b, sum=0x9a
	test.ExpectEquality(t, got, "$OK#9a")
}

func TestReadPacketStripsFramingAndValidatesChecksum(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("$g#67"))
	payload, ok, err := readPacket(r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, payload, "g")
}

func TestReadPacketDetectsChecksumMismatch(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("$g#00"))
	_, ok, err := readPacket(r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, false)
}

func TestReadPacketSkipsLeadingAckBytes(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("+-$g#67"))
	payload, ok, err := readPacket(r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, payload, "g")
}

func TestReadPacketUnescapesBraceEscapedBytes(t *testing.T) {
	// '}' followed by (b^0x20): escape for '#' (0x23) is 0x23^0x20=0x03.
	r := bufio.NewReader(strings.NewReader("$a}\x03b#e6"))
	payload, ok, err := readPacket(r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ok, true)
	test.ExpectEquality(t, payload, "a#b")
}

func TestHexByteFormatsTwoLowercaseDigits(t *testing.T) {
	test.ExpectEquality(t, hexByte(0x0a), "0a")
	test.ExpectEquality(t, hexByte(0xff), "ff")
}

func TestDecodeHexBytesRoundTripsHexByte(t *testing.T) {
	got := decodeHexBytes("0aff10")
	test.ExpectEquality(t, got, []byte{0x0a, 0xff, 0x10})
}

func TestUnhexAcceptsUpperAndLowerCase(t *testing.T) {
	test.ExpectEquality(t, unhex('a'), byte(10))
	test.ExpectEquality(t, unhex('A'), byte(10))
	test.ExpectEquality(t, unhex('9'), byte(9))
}
