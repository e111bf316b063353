// Package zcore owns the Z-Machine's flat memory image: header parsing,
// the dynamic/static/high region split, and the only code path allowed to
// touch the raw byte slice. Every other package reads and writes story
// memory through a *Core so region protection is enforced in exactly one
// place.
package zcore

import "encoding/binary"

type Core struct {
	bytes                            []uint8
	Version                          uint8
	FlagByte1                        uint8
	StatusBarTimeBased               bool
	ReleaseNumber                    uint16
	SerialCode                       [6]byte
	PagedMemoryBase                  uint16 // "high memory base" in the header - start of the execute-only high region
	FirstInstruction                 uint16
	DictionaryBase                   uint16
	ObjectTableBase                  uint16
	GlobalVariableBase               uint16
	StaticMemoryBase                 uint16
	AbbreviationTableBase            uint16
	FileChecksum                     uint16
	InterpreterNumber                uint8
	InterpreterVersion               uint8
	ScreenHeightLines                uint8
	ScreenWidthChars                 uint8
	ScreenWidthUnits                 uint16
	ScreenHeightUnits                uint16
	FontHeight                       uint8
	FontWidth                        uint8
	RoutinesOffset                   uint16
	StringOffset                     uint16
	DefaultBackgroundColorNumber     uint8
	DefaultForegroundColorNumber     uint8
	TerminatingCharTableBase         uint16
	OutputStream3Width               uint16
	StandardRevisionNumber           uint16
	AlternativeCharSetBaseAddress    uint16
	ExtensionTableBaseAddress        uint16
	UnicodeExtensionTableBaseAddress uint16
}

// maxFileSize is the per-version file-size ceiling used to reject a
// corrupted or truncated header before it can drive any other decoding.
func maxFileSize(version uint8) uint32 {
	switch {
	case version <= 3:
		return 128 * 1024
	case version <= 5:
		return 256 * 1024
	default:
		return 512 * 1024
	}
}

// LoadCore parses the 64-byte header and validates the static/high memory
// region invariants, returning CorruptedStoryFile rather than indexing off
// the end of a malformed file. It mutates the handful of header bytes the
// interpreter itself owns (screen geometry, interpreter id, supported
// flags) the way a real interpreter announces its capabilities before the
// game reads them back.
func LoadCore(bytes []uint8) (Core, error) {
	if len(bytes) < 64 {
		return Core{}, NewError(CorruptedStoryFile, "file too small for a header (%d bytes)", len(bytes))
	}

	version := bytes[0x00]
	if version == 0 || version > 8 {
		return Core{}, NewError(CorruptedStoryFile, "unsupported version byte %d", version)
	}

	bytes[0x1e] = 0x6 // Interpreter number - IBM PC chosen as closest match
	bytes[0x1f] = 0x1 // Interpreter version - nobody cares

	// Set screen dimensions - games may use these for layout calculations.
	// Using typical terminal dimensions (80x25 characters, 1x1 units per char).
	bytes[0x20] = 25
	bytes[0x21] = 80
	bytes[0x22] = 0
	bytes[0x23] = 80
	bytes[0x24] = 0
	bytes[0x25] = 25
	bytes[0x26] = 1
	bytes[0x27] = 1

	// Claim that this interpreter supports v1.2 of the standard (aspirational!).
	bytes[0x32] = 0x1
	bytes[0x33] = 0x2

	if version <= 3 {
		bytes[1] |= 0b0010_0000 // Only flag to set is the "split screen available" one
	} else {
		// Flags: colors (0x01), bold (0x04), italic (0x08), split screen (0x20).
		// NOT claiming: pictures (0x02), fixed-width default (0x10), timed input (0x80).
		bytes[1] |= 0b0010_1101
	}

	staticBase := binary.BigEndian.Uint16(bytes[0x0e:0x10])
	highBase := binary.BigEndian.Uint16(bytes[0x04:0x06])

	if staticBase < 64 {
		return Core{}, NewError(CorruptedStoryFile, "static memory base 0x%x below header", staticBase)
	}
	if staticBase > highBase {
		return Core{}, NewError(CorruptedStoryFile, "static memory base 0x%x above high memory base 0x%x", staticBase, highBase)
	}
	if uint32(highBase) > uint32(len(bytes)) {
		return Core{}, NewError(CorruptedStoryFile, "high memory base 0x%x past end of file (%d bytes)", highBase, len(bytes))
	}
	if uint32(len(bytes)) > maxFileSize(version) {
		return Core{}, NewError(CorruptedStoryFile, "file size %d exceeds v%d ceiling of %d", len(bytes), version, maxFileSize(version))
	}

	// Parse the extension table for any interesting information we want.
	extensionTableBaseAddress := binary.BigEndian.Uint16(bytes[0x36:0x38])
	unicodeExtensionTableBaseAddress := uint16(0)
	if extensionTableBaseAddress != 0 && int(extensionTableBaseAddress)+8 <= len(bytes) {
		unicodeExtensionTableBaseAddress = binary.BigEndian.Uint16(bytes[extensionTableBaseAddress+6 : extensionTableBaseAddress+8])
	}

	var serial [6]byte
	copy(serial[:], bytes[0x12:0x18])

	return Core{
		bytes:                            bytes,
		Version:                          version,
		FlagByte1:                        bytes[0x01],
		StatusBarTimeBased:               bytes[0x01]&0b0000_0010 == 0b0000_0010,
		ReleaseNumber:                    binary.BigEndian.Uint16(bytes[0x02:0x04]),
		SerialCode:                       serial,
		PagedMemoryBase:                  highBase,
		FirstInstruction:                 binary.BigEndian.Uint16(bytes[0x06:0x08]),
		DictionaryBase:                   binary.BigEndian.Uint16(bytes[0x08:0x0a]),
		ObjectTableBase:                  binary.BigEndian.Uint16(bytes[0x0a:0x0c]),
		GlobalVariableBase:               binary.BigEndian.Uint16(bytes[0x0c:0x0e]),
		StaticMemoryBase:                 staticBase,
		AbbreviationTableBase:            binary.BigEndian.Uint16(bytes[0x18:0x1a]),
		FileChecksum:                     binary.BigEndian.Uint16(bytes[0x1c:0x1e]),
		InterpreterNumber:                bytes[0x1e],
		InterpreterVersion:               bytes[0x1f],
		ScreenHeightLines:                bytes[0x20],
		ScreenWidthChars:                 bytes[0x21],
		ScreenWidthUnits:                 binary.BigEndian.Uint16(bytes[0x22:0x24]),
		ScreenHeightUnits:                binary.BigEndian.Uint16(bytes[0x24:0x26]),
		FontHeight:                       bytes[0x26],
		FontWidth:                        bytes[0x27],
		RoutinesOffset:                   binary.BigEndian.Uint16(bytes[0x28:0x2a]),
		StringOffset:                     binary.BigEndian.Uint16(bytes[0x2a:0x2c]),
		DefaultBackgroundColorNumber:     bytes[0x2c],
		DefaultForegroundColorNumber:     bytes[0x2d],
		TerminatingCharTableBase:         binary.BigEndian.Uint16(bytes[0x2e:0x30]),
		OutputStream3Width:               binary.BigEndian.Uint16(bytes[0x30:0x32]),
		StandardRevisionNumber:           binary.BigEndian.Uint16(bytes[0x32:0x34]),
		AlternativeCharSetBaseAddress:    binary.BigEndian.Uint16(bytes[0x34:0x36]),
		ExtensionTableBaseAddress:        extensionTableBaseAddress,
		UnicodeExtensionTableBaseAddress: unicodeExtensionTableBaseAddress,
	}, nil
}

func (core *Core) FileLength() uint32 {
	var divisor uint32
	switch {
	case core.Version <= 3:
		divisor = 2
	case core.Version <= 5:
		divisor = 4
	default:
		divisor = 8
	}
	return uint32(binary.BigEndian.Uint16(core.bytes[0x1a:0x1c])) * divisor
}

func (core *Core) SetDefaultBackgroundColorNumber(color uint8) {
	core.bytes[0x2c] = color
	core.DefaultBackgroundColorNumber = color
}

func (core *Core) SetDefaultForegroundColorNumber(color uint8) {
	core.bytes[0x2d] = color
	core.DefaultForegroundColorNumber = color
}

func (core *Core) MemoryLength() uint32 {
	return uint32(len(core.bytes))
}

// inBounds reports whether n bytes starting at address stay within the
// file, without overflowing when address is near the top of the uint32
// range (a read at address math.MaxUint32 must fail, not wrap).
func (core *Core) inBounds(address uint32, n uint32) bool {
	if address > core.MemoryLength() {
		return false
	}
	return core.MemoryLength()-address >= n
}

func (core *Core) ReadByte(address uint32) uint8 {
	if !core.inBounds(address, 1) {
		panic(NewError(OutOfBounds, "read byte at 0x%x past end of file (%d bytes)", address, core.MemoryLength()).WithPC(address))
	}
	return core.bytes[address]
}

func (core *Core) ReadHalfWord(address uint32) uint16 {
	if !core.inBounds(address, 2) {
		panic(NewError(OutOfBounds, "read word at 0x%x past end of file (%d bytes)", address, core.MemoryLength()).WithPC(address))
	}
	return binary.BigEndian.Uint16(core.bytes[address : address+2])
}

func (core *Core) ReadLongWord(address uint32) uint64 {
	if !core.inBounds(address, 8) {
		panic(NewError(OutOfBounds, "read long word at 0x%x past end of file (%d bytes)", address, core.MemoryLength()).WithPC(address))
	}
	return binary.BigEndian.Uint64(core.bytes[address : address+8])
}

// ReadSlice returns a read-only view; callers must not retain it across a
// later WriteByte/WriteHalfWord to the same region.
func (core *Core) ReadSlice(startAddress uint32, endAddress uint32) []uint8 {
	if endAddress < startAddress || !core.inBounds(startAddress, endAddress-startAddress) {
		panic(NewError(OutOfBounds, "read slice [0x%x,0x%x) past end of file (%d bytes)", startAddress, endAddress, core.MemoryLength()).WithPC(startAddress))
	}
	return core.bytes[startAddress:endAddress]
}

func (core *Core) WriteByte(address uint32, value uint8) {
	if uint32(core.StaticMemoryBase) <= address {
		panic(NewError(MemoryProtection, "write to read-only memory at 0x%x (static base 0x%x)", address, core.StaticMemoryBase).WithPC(address))
	}
	if !core.inBounds(address, 1) {
		panic(NewError(OutOfBounds, "write byte at 0x%x past end of file", address).WithPC(address))
	}
	core.bytes[address] = value
}

func (core *Core) WriteHalfWord(address uint32, value uint16) {
	if uint32(core.StaticMemoryBase) <= address {
		panic(NewError(MemoryProtection, "write to read-only memory at 0x%x (static base 0x%x)", address, core.StaticMemoryBase).WithPC(address))
	}
	if !core.inBounds(address, 2) {
		panic(NewError(OutOfBounds, "write word at 0x%x past end of file", address).WithPC(address))
	}
	binary.BigEndian.PutUint16(core.bytes[address:address+2], value)
}

// RawDynamicMemory exposes the dynamic region for Quetzal save. The
// returned slice aliases live memory; copy it before further execution
// mutates it.
func (core *Core) RawDynamicMemory() []uint8 {
	return core.bytes[:core.StaticMemoryBase]
}

// ReplaceDynamicMemory overwrites the dynamic region in place for Quetzal
// restore. len(data) must equal StaticMemoryBase.
func (core *Core) ReplaceDynamicMemory(data []uint8) {
	copy(core.bytes[:core.StaticMemoryBase], data)
}

// AddressKind selects which packed-address offset table applies; only
// matters for v6/v7, which keep separate routine and string offsets.
type AddressKind int

const (
	RoutineAddress AddressKind = iota
	StringAddress
	DataAddress
)

// Unpack turns a packed routine/string/data address into a byte address.
func (core *Core) Unpack(packed uint16, kind AddressKind) uint32 {
	if packed == 0 {
		return 0
	}

	switch {
	case core.Version <= 3:
		return 2 * uint32(packed)
	case core.Version <= 5:
		return 4 * uint32(packed)
	case core.Version <= 7:
		offset := core.RoutinesOffset
		if kind == StringAddress {
			offset = core.StringOffset
		} else if kind == DataAddress {
			offset = 0
		}
		return 4*uint32(packed) + 8*uint32(offset)
	default: // v8
		return 8 * uint32(packed)
	}
}
