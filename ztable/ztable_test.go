package ztable

import (
	"encoding/binary"
	"testing"

	"github.com/gozm/zvm/zcore"
)

func buildCore(t *testing.T, payload []byte) *zcore.Core {
	t.Helper()

	const base = 0x40
	buf := make([]byte, base+len(payload))
	buf[0] = 3
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(len(buf)/2))
	copy(buf[base:], payload)

	core, err := zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}
	return &core
}

func TestScanTableBytes(t *testing.T) {
	core := buildCore(t, []byte{1, 2, 3, 4, 5})
	addr := ScanTable(core, 4, 0x40, 5, 0x01)
	if addr != 0x43 {
		t.Fatalf("expected match at 0x43, got 0x%x", addr)
	}
}

func TestScanTableWords(t *testing.T) {
	payload := make([]byte, 6)
	binary.BigEndian.PutUint16(payload[0:2], 10)
	binary.BigEndian.PutUint16(payload[2:4], 20)
	binary.BigEndian.PutUint16(payload[4:6], 30)
	core := buildCore(t, payload)

	addr := ScanTable(core, 20, 0x40, 3, 0x82)
	if addr != 0x42 {
		t.Fatalf("expected match at 0x42, got 0x%x", addr)
	}
}

func TestScanTableNoMatch(t *testing.T) {
	core := buildCore(t, []byte{1, 2, 3})
	if addr := ScanTable(core, 99, 0x40, 3, 0x01); addr != 0 {
		t.Fatalf("expected no match, got 0x%x", addr)
	}
}

func TestCopyTableZeroesWhenSecondIsZero(t *testing.T) {
	core := buildCore(t, []byte{1, 2, 3, 4})
	CopyTable(core, 0x40, 0, 4)
	for i := uint32(0); i < 4; i++ {
		if core.ReadByte(0x40+i) != 0 {
			t.Fatalf("expected byte %d to be zeroed", i)
		}
	}
}

func TestCopyTablePositiveSizeSurvivesOverlap(t *testing.T) {
	// Source [1,2,3,4,5] copied one byte to the right of itself; a positive
	// size must behave like a safe (snapshot-first) copy.
	core := buildCore(t, []byte{1, 2, 3, 4, 5, 0})
	CopyTable(core, 0x40, 0x41, 5)
	want := []byte{1, 2, 3, 4, 5}
	for i, w := range want {
		if got := core.ReadByte(0x41 + uint32(i)); got != w {
			t.Fatalf("byte %d: got %d, want %d", i, got, w)
		}
	}
}

func TestPrintTableWrapsRows(t *testing.T) {
	payload := []byte{'a', 'b', 'c', 'd'}
	core := buildCore(t, payload)

	got := PrintTable(core, 0x40, 2, 2, 0)
	if got != "ab\ncd" {
		t.Fatalf("expected %q, got %q", "ab\ncd", got)
	}
}

func TestPrintTableHonoursSkip(t *testing.T) {
	// Two 2-byte rows with a 1-byte gap between them: "ab", skip 'x', "cd".
	payload := []byte{'a', 'b', 'x', 'c', 'd'}
	core := buildCore(t, payload)

	got := PrintTable(core, 0x40, 2, 2, 1)
	if got != "ab\ncd" {
		t.Fatalf("expected %q, got %q", "ab\ncd", got)
	}
}
