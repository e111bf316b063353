package dictionary

import (
	"encoding/binary"
	"testing"

	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zstring"
)

// buildDictionary assembles a minimal v3 dictionary with two entries
// ("cab", "dog", already in sorted encoded-word order) each carrying one
// data byte, wrapped in a valid header.
func buildDictionary(t *testing.T) (*zcore.Core, *zstring.Alphabets, uint32) {
	t.Helper()

	const dictBase = 0x40
	const numSeparators = 0
	const entryLength = 4 + 1 // 4 bytes encoded word (v3) + 1 data byte
	const header = 1 + numSeparators + 1 + 2
	const entriesBase = dictBase + header

	buf := make([]byte, entriesBase+2*entryLength)
	buf[0x00] = 3
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(len(buf)/2))

	buf[dictBase] = numSeparators
	buf[dictBase+1] = entryLength
	binary.BigEndian.PutUint16(buf[dictBase+2:dictBase+4], 2)

	core, err := zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}
	alphabets := zstring.LoadAlphabets(&core)

	encodeInto := func(word string, entryBase uint32) {
		encoded := zstring.Encode([]rune(word), &core, alphabets)
		copy(buf[entryBase:entryBase+4], encoded)
	}
	encodeInto("cab", entriesBase)
	encodeInto("dog", entriesBase+entryLength)
	buf[entriesBase+4] = 0x11  // data byte for "cab"
	buf[entriesBase+entryLength+4] = 0x22 // data byte for "dog"

	core, err = zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error on reload: %v", err)
	}
	return &core, alphabets, dictBase
}

func TestParseDictionaryHeader(t *testing.T) {
	core, alphabets, base := buildDictionary(t)
	d := ParseDictionary(base, core, alphabets)

	if d.Header.EntryLength != 5 {
		t.Errorf("expected entry length 5, got %d", d.Header.EntryLength)
	}
	if d.Header.EntryCount != 2 {
		t.Errorf("expected entry count 2, got %d", d.Header.EntryCount)
	}
}

func TestFindLocatesWordByBinarySearch(t *testing.T) {
	core, alphabets, base := buildDictionary(t)
	d := ParseDictionary(base, core, alphabets)

	encodedCab := zstring.Encode([]rune("cab"), core, alphabets)
	addr := d.Find(encodedCab)
	if addr == 0 {
		t.Fatal("expected to find cab in the dictionary")
	}

	entryData := core.ReadByte(uint32(addr) + 4)
	if entryData != 0x11 {
		t.Errorf("expected data byte 0x11 for cab, got 0x%x", entryData)
	}
}

func TestFindReturnsZeroForUnknownWord(t *testing.T) {
	core, alphabets, base := buildDictionary(t)
	d := ParseDictionary(base, core, alphabets)

	encodedZzz := zstring.Encode([]rune("zzz"), core, alphabets)
	if addr := d.Find(encodedZzz); addr != 0 {
		t.Errorf("expected 0 for an unknown word, got 0x%x", addr)
	}
}
