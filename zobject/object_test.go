package zobject_test

import (
	"encoding/binary"
	"testing"

	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zobject"
	"github.com/gozm/zvm/zstring"
)

// buildV3Story assembles a minimal, self-contained v3 story image: a
// 64-byte header, the 31-word default property table, three object
// records, and a property table for object 1 with properties 11 (word),
// 6 (byte) and 9 missing (falls back to the default table).
func buildV3Story(t *testing.T) *zcore.Core {
	t.Helper()

	const objectTableBase = 0x40
	const defaultPropsSize = 31 * 2
	const objRecordSize = 9
	objectsBase := objectTableBase + defaultPropsSize
	obj1Base := objectsBase
	obj2Base := objectsBase + objRecordSize
	obj3Base := objectsBase + 2*objRecordSize
	propTableBase := objectsBase + 3*objRecordSize

	size := propTableBase + 64
	buf := make([]byte, size)
	buf[0x00] = 3 // version
	binary.BigEndian.PutUint16(buf[0x0a:0x0c], uint16(objectTableBase))
	binary.BigEndian.PutUint16(buf[0x0e:0x10], uint16(size)) // static base: whole image is "dynamic" for this test
	binary.BigEndian.PutUint16(buf[0x04:0x06], uint16(size)) // high memory base
	binary.BigEndian.PutUint16(buf[0x1a:0x1c], uint16(size/2))

	// Default property table entry for property 9: value 0x0005.
	binary.BigEndian.PutUint16(buf[objectTableBase+2*8:objectTableBase+2*8+2], 0x0005)

	// Object 1: attributes 2, 3 and 19 set; parent=0, sibling=2, child=0.
	attrs := uint32(0)
	attrs |= 1 << (31 - 2)
	attrs |= 1 << (31 - 3)
	attrs |= 1 << (31 - 19)
	binary.BigEndian.PutUint32(buf[obj1Base:obj1Base+4], attrs)
	buf[obj1Base+4] = 0 // parent
	buf[obj1Base+5] = 2 // sibling
	buf[obj1Base+6] = 0 // child
	binary.BigEndian.PutUint16(buf[obj1Base+7:obj1Base+9], uint16(propTableBase))

	// Object 2 and 3 exist only so sibling/parent links have something real to point at.
	buf[obj2Base+4] = 1
	binary.BigEndian.PutUint16(buf[obj2Base+7:obj2Base+9], uint16(propTableBase+20))
	binary.BigEndian.PutUint16(buf[obj3Base+7:obj3Base+9], uint16(propTableBase+20))

	// Object 1's property table: no short name, then properties 11 (2 bytes), 6 (1 byte), terminator.
	ptr := propTableBase
	buf[ptr] = 0 // short name length in words
	ptr++
	buf[ptr] = (1 << 5) | 11 // size byte: length 2, id 11
	ptr++
	binary.BigEndian.PutUint16(buf[ptr:ptr+2], 0x88e5)
	ptr += 2
	buf[ptr] = (0 << 5) | 6 // size byte: length 1, id 6
	ptr++
	buf[ptr] = 0x85
	ptr++
	buf[ptr] = 0 // terminator

	// Empty property table (just a terminator) for objects 2/3.
	buf[propTableBase+20] = 0
	buf[propTableBase+21] = 0

	core, err := zcore.LoadCore(buf)
	if err != nil {
		t.Fatalf("unexpected LoadCore error: %v", err)
	}
	return &core
}

func TestZerothObjectRetrieval(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Retrieving object with id 0 should panic")
		}
	}()

	core := buildV3Story(t)
	zobject.GetObject(0, core, zstring.LoadAlphabets(core))
}

func TestV3ObjectRetrieval(t *testing.T) {
	core := buildV3Story(t)
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	if obj.Parent != 0 {
		t.Errorf("Incorrect parent %d", obj.Parent)
	}
	if obj.Sibling != 2 {
		t.Errorf("Incorrect sibling %d", obj.Sibling)
	}
}

func TestV3PropertyRetrieval(t *testing.T) {
	core := buildV3Story(t)
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	prop6 := obj.GetProperty(6, core)
	if prop6.Length != 1 || prop6.Data[0] != 0x85 {
		t.Errorf("Incorrect property 6: length=%d data=%x", prop6.Length, prop6.Data)
	}

	prop11 := obj.GetProperty(11, core)
	if prop11.Length != 2 || prop11.Data[0] != 0x88 || prop11.Data[1] != 0xe5 {
		t.Errorf("Incorrect property 11: length=%d data=%x", prop11.Length, prop11.Data)
	}

	// Property 9 isn't set on the object - falls back to the default table.
	prop9 := obj.GetProperty(9, core)
	if prop9.Data[0] != 0x00 || prop9.Data[1] != 0x05 {
		t.Errorf("Incorrect default property data %x", prop9.Data)
	}
}

func TestAttributesV3(t *testing.T) {
	core := buildV3Story(t)
	obj := zobject.GetObject(1, core, zstring.LoadAlphabets(core))

	if obj.TestAttribute(1) || obj.TestAttribute(4) || obj.TestAttribute(10) {
		t.Error("object should not have attributes 1,4,10 set")
	}
	if !(obj.TestAttribute(2) && obj.TestAttribute(3) && obj.TestAttribute(19)) {
		t.Error("object should have attributes 2,3,19 set")
	}

	obj.SetAttribute(10, core)
	if !obj.TestAttribute(10) {
		t.Error("setting attribute 10 didn't work")
	}

	obj.ClearAttribute(10, core)
	if obj.TestAttribute(10) {
		t.Error("clearing attribute 10 didn't work")
	}
}

func TestSetParentAndChildLinks(t *testing.T) {
	core := buildV3Story(t)
	obj2 := zobject.GetObject(2, core, zstring.LoadAlphabets(core))
	obj3 := zobject.GetObject(3, core, zstring.LoadAlphabets(core))

	obj2.SetParent(3, core)
	obj3.SetChild(2, core)

	reloaded := zobject.GetObject(2, core, zstring.LoadAlphabets(core))
	if reloaded.Parent != 3 {
		t.Errorf("expected parent 3, got %d", reloaded.Parent)
	}
	reloadedParent := zobject.GetObject(3, core, zstring.LoadAlphabets(core))
	if reloadedParent.Child != 2 {
		t.Errorf("expected child 2, got %d", reloadedParent.Child)
	}
}
