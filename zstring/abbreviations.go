package zstring

import "github.com/gozm/zvm/zcore"

// FindAbbreviation decodes abbreviation (z,x), per section 3.3 of the
// standard: the 96 abbreviations are addressed as a flat array indexed by
// 32*(z-1)+x, each entry a word-address pointing at the abbreviation's
// Z-string.
func FindAbbreviation(core *zcore.Core, alphabets *Alphabets, z uint8, x uint8) string {
	if core.AbbreviationTableBase == 0 {
		return ""
	}

	abbrIx := 32*(z-1) + x
	addr := uint32(core.AbbreviationTableBase) + 2*uint32(abbrIx)
	strAddr := 2 * uint32(core.ReadHalfWord(addr))

	str, _ := Decode(strAddr, core.MemoryLength(), core, alphabets, true)
	return str
}
