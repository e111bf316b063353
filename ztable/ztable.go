// Package ztable implements the generic table opcodes - SCAN_TABLE,
// COPY_TABLE and PRINT_TABLE - which operate on arbitrary story memory
// laid out as fixed-width records.
package ztable

import (
	"strings"

	"github.com/gozm/zvm/zcore"
)

// PrintTable renders height rows of width ZSCII bytes each, starting at
// baddr, with skip extra bytes between the end of one row and the start of
// the next (PRINT_TABLE has no length prefix of its own - the caller
// supplies the full rectangle's dimensions).
func PrintTable(core *zcore.Core, baddr uint32, width uint16, height uint16, skip uint16) string {
	s := strings.Builder{}

	for row := uint16(0); row < height; row++ {
		if row > 0 {
			s.WriteByte('\n')
		}
		rowStart := baddr + uint32(row)*uint32(width+skip)
		for col := uint16(0); col < width; col++ {
			s.WriteByte(core.ReadByte(rowStart + uint32(col)))
		}
	}

	return s.String()
}

// ScanTable linear-scans length fixed-width records for one matching
// test, returning the record's address or 0 if not found. form's low 7
// bits give the record width in bytes; bit 7 set means compare the first
// two bytes of the record as a word rather than just the first byte.
func ScanTable(core *zcore.Core, test uint16, baddr uint32, length uint16, form uint16) uint32 {
	ptr := baddr
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 == 0b1000_0000
	if fieldSize == 0 {
		return 0
	}

	for i := uint16(0); i < length; i++ {
		if checkWord {
			if core.ReadHalfWord(ptr) == test {
				return ptr
			}
		} else if uint16(core.ReadByte(ptr)) == test {
			return ptr
		}

		ptr += uint32(fieldSize)
	}

	return 0
}

func CopyTable(core *zcore.Core, first uint16, second uint16, size int16) {
	sizeAbs := uint16(size)
	if size < 0 {
		sizeAbs = uint16(-size)
	}

	switch {
	case second == 0: // special case: zero the table
		for i := uint16(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(first)+uint32(i), 0)
		}

	case size >= 0: // snapshot the source first so an overlapping copy can't self-corrupt
		tmp := append([]uint8(nil), core.ReadSlice(uint32(first), uint32(first)+uint32(sizeAbs))...)
		for i, b := range tmp {
			core.WriteByte(uint32(second)+uint32(i), b)
		}

	default: // size < 0: copy byte-by-byte, allowing overlap to corrupt as it goes
		for i := uint16(0); i < sizeAbs; i++ {
			core.WriteByte(uint32(second)+uint32(i), core.ReadByte(uint32(first)+uint32(i)))
		}
	}
}
