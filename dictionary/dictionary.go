// Package dictionary implements the Z-Machine dictionary: the table of
// recognised words (and their associated data bytes) that SREAD/TOKENISE
// resolve input words against.
package dictionary

import (
	"bytes"
	"sort"

	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zstring"
)

type DictionaryHeader struct {
	InputCodes []uint8
	EntryLength uint8
	EntryCount  int16
}

type DictionaryEntry struct {
	Address     uint16
	EncodedWord []uint8
	DecodedWord string
	Data        []uint8
}

type Dictionary struct {
	Header  DictionaryHeader
	entries []DictionaryEntry
}

// ParseDictionary reads the dictionary table at baseAddress. A negative
// entry count (header.EntryCount < 0, used by custom TOKENISE
// dictionaries) means the entries are unsorted, so Find falls back to a
// linear scan instead of a binary search.
func ParseDictionary(baseAddress uint32, core *zcore.Core, alphabets *zstring.Alphabets) *Dictionary {
	ptr := baseAddress
	numInputCodes := core.ReadByte(ptr)

	inputCodes := make([]uint8, numInputCodes)
	for i := uint8(0); i < numInputCodes; i++ {
		inputCodes[i] = core.ReadByte(ptr + 1 + uint32(i))
	}
	ptr += 1 + uint32(numInputCodes)

	entryLength := core.ReadByte(ptr)
	ptr++
	entryCount := int16(core.ReadHalfWord(ptr))
	ptr += 2

	header := DictionaryHeader{
		InputCodes:  inputCodes,
		EntryLength: entryLength,
		EntryCount:  entryCount,
	}

	encodedWordLength := uint32(4)
	if core.Version > 3 {
		encodedWordLength = 6
	}

	count := int(entryCount)
	if count < 0 {
		count = -count
	}
	entries := make([]DictionaryEntry, count)

	entryPtr := ptr
	for ix := 0; ix < count; ix++ {
		encodedWord := append([]uint8(nil), core.ReadSlice(entryPtr, entryPtr+encodedWordLength)...)
		decodedWord, _ := zstring.Decode(entryPtr, entryPtr+encodedWordLength, core, alphabets, false)

		entries[ix] = DictionaryEntry{
			Address:     uint16(entryPtr),
			EncodedWord: encodedWord,
			DecodedWord: decodedWord,
			Data:        core.ReadSlice(entryPtr+encodedWordLength, entryPtr+uint32(header.EntryLength)),
		}

		entryPtr += uint32(header.EntryLength)
	}

	return &Dictionary{
		Header:  header,
		entries: entries,
	}
}

// Find resolves an encoded word to its dictionary entry address, or 0 if
// the word isn't in the dictionary. Entries are stored in ascending
// encoded-word order (unless EntryCount is negative), so a sorted
// dictionary is searched with a binary search rather than scanning every
// entry.
func (d *Dictionary) Find(zstr []uint8) uint16 {
	if d.Header.EntryCount < 0 {
		for _, entry := range d.entries {
			if bytes.Equal(entry.EncodedWord, zstr) {
				return entry.Address
			}
		}
		return 0
	}

	ix := sort.Search(len(d.entries), func(i int) bool {
		return bytes.Compare(d.entries[i].EncodedWord, zstr) >= 0
	})
	if ix < len(d.entries) && bytes.Equal(d.entries[ix].EncodedWord, zstr) {
		return d.entries[ix].Address
	}
	return 0
}
