package zstring

import (
	"encoding/binary"
	"testing"

	"github.com/gozm/zvm/zcore"
)

// buildStory wraps payload bytes, starting at address 0x40, inside a
// minimal valid header so Decode/Encode have a *zcore.Core to read from.
func buildStory(t *testing.T, version uint8, payload []uint8) (*zcore.Core, uint32) {
	t.Helper()

	const base = 0x40
	buf := make([]byte, base+len(payload))
	buf[0] = version
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(len(buf)/2))
	copy(buf[base:], payload)

	core, err := zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}
	return &core, base
}

func TestZStringDecodeSimpleWord(t *testing.T) {
	// "cab" in alphabet A0: c=8,a=6,b=7, packed into one word, high bit set.
	halfWord := uint16(8)<<10 | uint16(6)<<5 | uint16(7)
	halfWord |= 0x8000
	payload := []uint8{uint8(halfWord >> 8), uint8(halfWord)}

	core, base := buildStory(t, 3, payload)
	alphabets := LoadAlphabets(core)

	str, bytesRead := Decode(base, core.MemoryLength(), core, alphabets, false)
	if str != "cab" {
		t.Fatalf("expected cab, got %q", str)
	}
	if bytesRead != 2 {
		t.Fatalf("expected 2 bytes read, got %d", bytesRead)
	}
}

func TestZStringEncodeEodeRoundTrip(t *testing.T) {
	core, _ := buildStory(t, 3, make([]uint8, 16))
	alphabets := LoadAlphabets(core)

	encoded := Encode([]rune("cab"), core, alphabets)

	payloadBase := uint32(0x40)
	fullBuf := append(append([]byte{}, core.ReadSlice(0, payloadBase)...), encoded...)
	// The copied header still describes the longer original buffer; point
	// the high and static bases at the new end of file.
	binary.BigEndian.PutUint16(fullBuf[0x04:0x06], uint16(len(fullBuf)))
	binary.BigEndian.PutUint16(fullBuf[0x0e:0x10], uint16(len(fullBuf)))
	roundTripCore, err := zcore.LoadCore(fullBuf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}

	str, _ := Decode(payloadBase, roundTripCore.MemoryLength(), &roundTripCore, alphabets, false)
	if str != "cab" {
		t.Fatalf("round trip mismatch: got %q", str)
	}
}

func TestZStringZsciiEscape(t *testing.T) {
	// Escape sequence: zchr 5 (shift to A2), zchr 6 (ZSCII escape), then
	// the two halves of ZSCII code for '>' (62 = 0b01_11110 -> hi=1, lo=30),
	// with the last word padded by Z-char 5 (Z-char 0 would print a space).
	zchrs := []uint8{5, 6, 1, 30}
	halfWord1 := uint16(zchrs[0])<<10 | uint16(zchrs[1])<<5 | uint16(zchrs[2])
	halfWord2 := uint16(zchrs[3])<<10 | uint16(5)<<5 | uint16(5)
	halfWord2 |= 0x8000
	payload := []uint8{
		uint8(halfWord1 >> 8), uint8(halfWord1),
		uint8(halfWord2 >> 8), uint8(halfWord2),
	}

	core, base := buildStory(t, 3, payload)
	alphabets := LoadAlphabets(core)

	str, _ := Decode(base, core.MemoryLength(), core, alphabets, false)
	if str != ">" {
		t.Fatalf("expected >, got %q", str)
	}
}

func TestAbbreviationExpansion(t *testing.T) {
	// Layout: abbreviation table (1 entry) -> word-address of "ok" string,
	// then main string referencing abbreviation (z=1,x=0), then the "ok" text.
	const abbrTableBase = 0x40
	const mainStrAddr = abbrTableBase + 2
	const abbrStrAddr = mainStrAddr + 2
	const abbrStrWordAddr = abbrStrAddr / 2 // word address, i.e. byte addr / 2

	payload := make([]uint8, 8)
	binary.BigEndian.PutUint16(payload[0:2], uint16(abbrStrWordAddr))

	mainWord := uint16(1)<<10 | uint16(0)<<5 | uint16(5)
	mainWord |= 0x8000
	binary.BigEndian.PutUint16(payload[2:4], mainWord)

	okWord := uint16(20)<<10 | uint16(16)<<5 | uint16(5)
	okWord |= 0x8000
	binary.BigEndian.PutUint16(payload[4:6], okWord)

	buf := make([]byte, 0x40+len(payload))
	buf[0] = 3
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x18:0x1a], abbrTableBase)
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(len(buf)/2))
	copy(buf[0x40:], payload)

	core, err := zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}
	alphabets := LoadAlphabets(&core)

	str, _ := Decode(mainStrAddr, core.MemoryLength(), &core, alphabets, false)
	if str != "ok" {
		t.Fatalf("expected abbreviation to expand to ok, got %q", str)
	}
}
