// Package zstring implements the Z-text codec: three 5-bit Z-characters
// packed per 16-bit word, the three shifting alphabets, abbreviation
// expansion, and the ZSCII escape used to embed arbitrary 8/10-bit
// character codes.
package zstring

import "github.com/gozm/zvm/zcore"

var a0Default = [26]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]uint8{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2V1 = [26]uint8{0, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [26]uint8{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// Alphabets holds the three 26-entry Z-character tables in effect for a
// story. Z-chars 6-31 map to table indices 0-25 after subtracting 6; A2's
// index 0 is always
// the escape-to-ZSCII code and is never looked up directly.
type Alphabets struct {
	A0 [26]uint8
	A1 [26]uint8
	A2 [26]uint8
}

// LoadAlphabets returns the default alphabets for the story's version,
// or the story's own custom tables when the header's alternate
// character-set address (v5+) is set.
func LoadAlphabets(core *zcore.Core) *Alphabets {
	alphabets := &Alphabets{A0: a0Default, A1: a1Default}
	if core.Version == 1 {
		alphabets.A2 = a2V1
	} else {
		alphabets.A2 = a2Default
	}

	if core.Version >= 5 && core.AlternativeCharSetBaseAddress != 0 {
		base := uint32(core.AlternativeCharSetBaseAddress)
		for i := 0; i < 26; i++ {
			alphabets.A0[i] = core.ReadByte(base + uint32(i))
			alphabets.A1[i] = core.ReadByte(base + 26 + uint32(i))
			alphabets.A2[i] = core.ReadByte(base + 52 + uint32(i))
		}
	}

	return alphabets
}

type alphabet int

const (
	a0 alphabet = 0
	a1 alphabet = 1
	a2 alphabet = 2
)

// Decode reads a Z-string starting at address start, stopping at the
// first word with its high bit set (the standard end-of-string marker)
// or when it reaches end, whichever comes first. withinAbbreviation
// disables further abbreviation expansion while already expanding one -
// a violating abbreviation reference is silently discarded rather than
// recursively expanded or raised as an error.
func Decode(start uint32, end uint32, core *zcore.Core, alphabets *Alphabets, withinAbbreviation bool) (string, uint32) {
	ptr := start
	baseAlphabet := a0
	currentAlphabet := a0
	nextAlphabet := a0

	var zchrStream []uint8
	for ptr+2 <= end {
		halfWord := core.ReadHalfWord(ptr)
		ptr += 2

		zchrStream = append(zchrStream, uint8((halfWord>>10)&0b11111))
		zchrStream = append(zchrStream, uint8((halfWord>>5)&0b11111))
		zchrStream = append(zchrStream, uint8(halfWord&0b11111))

		if halfWord>>15 == 1 {
			break
		}
	}
	bytesRead := ptr - start

	var chrStream []rune
	for i := 0; i < len(zchrStream); i++ {
		zchr := zchrStream[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch zchr {
		case 0:
			chrStream = append(chrStream, ' ')
		case 1, 2, 3:
			if core.Version == 1 && zchr == 1 {
				chrStream = append(chrStream, '\n')
				continue
			}
			if core.Version == 2 && zchr != 1 {
				nextAlphabet = baseAlphabet + alphabet(zchr-1)
				continue
			}
			if core.Version == 1 {
				// v1 shift codes 2 and 3; on v2+ zchr==1 is handled below.
				nextAlphabet = (nextAlphabet + alphabet(zchr)) % 3
				continue
			}

			// v3+: 1, 2 and 3 all select one of 96 abbreviations.
			if i+1 >= len(zchrStream) {
				break
			}
			x := zchrStream[i+1]
			i++
			if withinAbbreviation {
				// Nested abbreviation reference - discard per the spec's
				// compatibility-first resolution rather than expanding it.
				continue
			}
			expansion := FindAbbreviation(core, alphabets, zchr, x)
			chrStream = append(chrStream, []rune(expansion)...)
		case 4:
			if core.Version <= 2 {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			} else {
				nextAlphabet = (nextAlphabet + 1) % 3
			}
		case 5:
			if core.Version <= 2 {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			} else {
				nextAlphabet = (nextAlphabet + 2) % 3
			}
		default:
			if currentAlphabet == a2 && zchr == 6 {
				if i+2 >= len(zchrStream) {
					break
				}
				zscii := zchrStream[i+1]<<5 | zchrStream[i+2]
				i += 2
				if r, ok := ZsciiToUnicode(zscii, core); ok {
					chrStream = append(chrStream, r)
				} else {
					chrStream = append(chrStream, rune(zscii))
				}
				continue
			}

			var table [26]uint8
			var lowest uint8 = 6
			switch currentAlphabet {
			case a0:
				table = alphabets.A0
			case a1:
				table = alphabets.A1
			case a2:
				table = alphabets.A2
			}
			if zchr < lowest || int(zchr-lowest) >= len(table) {
				continue
			}
			chrStream = append(chrStream, rune(table[zchr-lowest]))
		}
	}

	return string(chrStream), bytesRead
}

// Encode converts runes into a packed Z-string, padded with Z-char 5 and
// terminated by setting the high bit of the final
// word. v1-3 strings are 2 words (6 Z-chars); v4+ are 3 words (9 Z-chars).
func Encode(runes []rune, core *zcore.Core, alphabets *Alphabets) []uint8 {
	wordCount := 2
	if core.Version >= 4 {
		wordCount = 3
	}
	maxZchars := wordCount * 3

	var zchrs []uint8
	for _, r := range runes {
		if len(zchrs) >= maxZchars {
			break
		}
		zchrs = append(zchrs, encodeRune(r, alphabets)...)
	}
	for len(zchrs) < maxZchars {
		zchrs = append(zchrs, 5) // pad with shift-to-A2-then-nothing, standard padding character
	}
	zchrs = zchrs[:maxZchars]

	out := make([]uint8, wordCount*2)
	for w := 0; w < wordCount; w++ {
		halfWord := uint16(zchrs[w*3])<<10 | uint16(zchrs[w*3+1])<<5 | uint16(zchrs[w*3+2])
		if w == wordCount-1 {
			halfWord |= 0x8000
		}
		out[w*2] = uint8(halfWord >> 8)
		out[w*2+1] = uint8(halfWord)
	}

	return out
}

// encodeRune returns the Z-char sequence for a single rune: 1 Z-char for
// a space or an A0 letter, a shift + 1 Z-char for A1/A2, or the 4-Z-char
// ZSCII escape (5 6 hi lo) for anything else representable as ZSCII.
func encodeRune(r rune, alphabets *Alphabets) []uint8 {
	if r == ' ' {
		return []uint8{0}
	}
	if ix, ok := indexOf(alphabets.A0, r); ok {
		return []uint8{uint8(ix) + 6}
	}
	if ix, ok := indexOf(alphabets.A1, r); ok {
		return []uint8{4, uint8(ix) + 6}
	}
	if ix, ok := indexOf(alphabets.A2, r); ok {
		return []uint8{5, uint8(ix) + 6}
	}

	zscii, ok := unicodeToZscii(r, nil)
	if !ok && r < 256 {
		zscii = uint8(r)
		ok = true
	}
	if ok {
		return []uint8{5, 6, zscii >> 5, zscii & 0b11111}
	}

	return []uint8{0} // unrepresentable - encode as a space rather than fail the whole string
}

func indexOf(table [26]uint8, r rune) (int, bool) {
	for i, c := range table {
		if c != 0 && rune(c) == r {
			return i, true
		}
	}
	return -1, false
}
