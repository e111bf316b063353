package zcore

import (
	"encoding/binary"
	"testing"
)

// minimalHeader builds a valid 64-byte v3 header with the whole buffer
// treated as dynamic memory (static base == file length), wrapped around an
// extra payload so reads/writes past the header have somewhere to land.
func minimalHeader(t *testing.T, version uint8, extra int) []byte {
	t.Helper()

	size := 64 + extra
	buf := make([]byte, size)
	buf[0x00] = version
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(size))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(size))
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(size/2))
	return buf
}

func TestLoadCoreRejectsTruncatedHeader(t *testing.T) {
	_, err := LoadCore(make([]byte, 10))
	if err == nil {
		t.Fatal("expected an error for a file too small to hold a header")
	}
	var vmErr *VMError
	if !asVMError(err, &vmErr) || vmErr.Kind != CorruptedStoryFile {
		t.Fatalf("expected CorruptedStoryFile, got %v", err)
	}
}

func TestLoadCoreRejectsUnsupportedVersion(t *testing.T) {
	buf := minimalHeader(t, 3, 0)
	buf[0] = 9
	_, err := LoadCore(buf)
	if err == nil {
		t.Fatal("expected an error for version byte 9")
	}
}

func TestLoadCoreRejectsInvertedStaticHighBase(t *testing.T) {
	buf := minimalHeader(t, 3, 0)
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf))) // static base
	binary.BigEndian.PutUint16(buf[0x04:0x06], 10)               // high base below static
	_, err := LoadCore(buf)
	if err == nil {
		t.Fatal("expected an error when static base exceeds high memory base")
	}
}

func TestLoadCoreParsesHeaderFields(t *testing.T) {
	buf := minimalHeader(t, 5, 16)
	binary.BigEndian.PutUint16(buf[0x0a:0x0c], 0x40) // object table base
	binary.BigEndian.PutUint16(buf[0x08:0x0a], 0x50) // dictionary base

	core, err := LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if core.Version != 5 {
		t.Errorf("expected version 5, got %d", core.Version)
	}
	if core.ObjectTableBase != 0x40 {
		t.Errorf("expected object table base 0x40, got 0x%x", core.ObjectTableBase)
	}
	if core.DictionaryBase != 0x50 {
		t.Errorf("expected dictionary base 0x50, got 0x%x", core.DictionaryBase)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	buf := minimalHeader(t, 3, 16)
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(len(buf)-4)) // leave 4 bytes of static memory
	core, err := LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core.WriteHalfWord(64, 0xBEEF)
	if got := core.ReadHalfWord(64); got != 0xBEEF {
		t.Fatalf("expected 0xBEEF, got 0x%x", got)
	}
}

func TestWriteToStaticMemoryPanics(t *testing.T) {
	buf := minimalHeader(t, 3, 16)
	staticBase := uint16(len(buf) - 4)
	binary.BigEndian.PutUint16(buf[0x0e:0x10], staticBase)
	core, err := LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic writing into static memory")
		}
	}()
	core.WriteByte(uint32(staticBase), 1)
}

func TestReadPastEndOfFilePanics(t *testing.T) {
	buf := minimalHeader(t, 3, 0)
	core, err := LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic reading past the end of the file")
		}
	}()
	core.ReadByte(core.MemoryLength())
}

func TestUnpackAddressByVersion(t *testing.T) {
	cases := []struct {
		version uint8
		packed  uint16
		want    uint32
	}{
		{3, 100, 200},
		{5, 100, 400},
	}
	for _, tc := range cases {
		core := Core{Version: tc.version}
		if got := core.Unpack(tc.packed, RoutineAddress); got != tc.want {
			t.Errorf("v%d unpack(%d) = %d, want %d", tc.version, tc.packed, got, tc.want)
		}
	}

	// v6/v7 splits by routine/string offset, scaled by 8.
	core := Core{Version: 6, RoutinesOffset: 2, StringOffset: 3}
	if got := core.Unpack(10, RoutineAddress); got != 4*10+8*2 {
		t.Errorf("v6 routine unpack mismatch: got %d", got)
	}
	if got := core.Unpack(10, StringAddress); got != 4*10+8*3 {
		t.Errorf("v6 string unpack mismatch: got %d", got)
	}
}

func TestUnpackZeroIsNull(t *testing.T) {
	core := Core{Version: 5}
	if got := core.Unpack(0, RoutineAddress); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func asVMError(err error, out **VMError) bool {
	vmErr, ok := err.(*VMError)
	if ok {
		*out = vmErr
	}
	return ok
}
