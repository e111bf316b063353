// Package zobject implements the object tree: attribute flags, the
// parent/sibling/child links, and the variable-width property table that
// hangs off each object. Every accessor takes a *zcore.Core so tree
// mutation goes through the same protected memory path as everything
// else in the interpreter.
package zobject

import (
	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zstring"
)

type Object struct {
	BaseAddress     uint32
	Id              uint16
	Name            string
	Attributes      uint64 // Bytes 0-3 valid in all versions, 4-5 only populated on V4+
	Parent          uint16 // uint8 on v1-3
	Sibling         uint16 // uint8 on v1-3
	Child           uint16 // uint8 on v1-3
	PropertyPointer uint16
}

// GetObject loads object objId from the object table. Object 0 never
// exists (it means "no object" wherever it appears as a field), so
// callers that already have a Parent/Sibling/Child of 0 should check that
// before calling this.
func GetObject(objId uint16, core *zcore.Core, alphabets *zstring.Alphabets) Object {
	if objId == 0 {
		panic(zcore.NewError(zcore.InvalidObject, "object 0 does not exist"))
	}

	objectTableBase := core.ObjectTableBase

	if core.Version >= 4 {
		objectBase := uint32(objectTableBase) + 63*2 + uint32(objId-1)*14
		propertyPtr := core.ReadHalfWord(objectBase + 12)
		nameLength := core.ReadByte(uint32(propertyPtr))
		name := ""
		if nameLength > 0 {
			name, _ = zstring.Decode(uint32(propertyPtr)+1, uint32(propertyPtr)+1+uint32(nameLength)*2, core, alphabets, false)
		}

		return Object{
			Id:              objId,
			Name:            name,
			Attributes:      (core.ReadLongWord(objectBase) >> 16) << 16,
			Parent:          core.ReadHalfWord(objectBase + 6),
			Sibling:         core.ReadHalfWord(objectBase + 8),
			Child:           core.ReadHalfWord(objectBase + 10),
			PropertyPointer: propertyPtr,
			BaseAddress:     objectBase,
		}
	}

	objectBase := uint32(objectTableBase) + 31*2 + uint32(objId-1)*9
	propertyPtr := core.ReadHalfWord(objectBase + 7)
	nameLength := core.ReadByte(uint32(propertyPtr))
	name := ""
	if nameLength > 0 {
		name, _ = zstring.Decode(uint32(propertyPtr)+1, uint32(propertyPtr)+1+uint32(nameLength)*2, core, alphabets, false)
	}

	return Object{
		Id:              objId,
		Name:            name,
		Attributes:      (core.ReadLongWord(objectBase) >> 32) << 32,
		Parent:          uint16(core.ReadByte(objectBase + 4)),
		Sibling:         uint16(core.ReadByte(objectBase + 5)),
		Child:           uint16(core.ReadByte(objectBase + 6)),
		PropertyPointer: propertyPtr,
		BaseAddress:     objectBase,
	}
}

func (o *Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)
	return (o.Attributes & mask) == mask
}

func (o *Object) writeAttributes(core *zcore.Core) {
	core.WriteHalfWord(o.BaseAddress, uint16(o.Attributes>>48))
	core.WriteHalfWord(o.BaseAddress+2, uint16(o.Attributes>>32))
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+4, uint16(o.Attributes>>16))
	}
}

func (o *Object) SetAttribute(attribute uint16, core *zcore.Core) {
	mask := uint64(1) << (63 - attribute)
	o.Attributes |= mask
	o.writeAttributes(core)
}

func (o *Object) ClearAttribute(attribute uint16, core *zcore.Core) {
	mask := uint64(1) << (63 - attribute)
	o.Attributes &^= mask
	o.writeAttributes(core)
}

func (o *Object) SetParent(parent uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+6, parent)
	} else {
		core.WriteByte(o.BaseAddress+4, uint8(parent))
	}
	o.Parent = parent
}

func (o *Object) SetSibling(sibling uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+8, sibling)
	} else {
		core.WriteByte(o.BaseAddress+5, uint8(sibling))
	}
	o.Sibling = sibling
}

func (o *Object) SetChild(child uint16, core *zcore.Core) {
	if core.Version >= 4 {
		core.WriteHalfWord(o.BaseAddress+10, child)
	} else {
		core.WriteByte(o.BaseAddress+6, uint8(child))
	}
	o.Child = child
}
