package zobject

import "github.com/gozm/zvm/zcore"

type Property struct {
	Id                   uint8
	Length               uint8
	Data                 []uint8
	PropertyHeaderLength uint8
	Address              uint32
	DataAddress          uint32
}

// GetPropertyLength is requested by the address of the first byte of a
// property's data and works backwards to the size byte(s) that precede it.
func GetPropertyLength(core *zcore.Core, addr uint32) uint16 {
	if addr == 0 {
		return 0 // Special case required by some story files
	}

	prevByte := core.ReadByte(addr - 1)
	if core.Version <= 3 {
		return uint16(prevByte>>5) + 1
	}
	if prevByte&0b1000_0000 != 0 {
		if prevByte&0b11_1111 == 0 {
			return 64 // 0 encodes length 64
		}
		return uint16(prevByte & 0b11_1111)
	}
	return uint16(((prevByte >> 6) & 1) + 1)
}

func (o *Object) propertyTableStart(core *zcore.Core) uint32 {
	nameLength := core.ReadByte(uint32(o.PropertyPointer))
	return uint32(o.PropertyPointer) + 1 + uint32(nameLength)*2
}

func (o *Object) SetProperty(propertyId uint8, value uint16, core *zcore.Core) {
	currentPtr := o.propertyTableStart(core)

	for core.ReadByte(currentPtr) != 0 {
		property := o.GetPropertyByAddress(currentPtr, core)

		if property.Id == propertyId {
			switch property.Length {
			case 1:
				core.WriteByte(property.DataAddress, uint8(value))
			case 2:
				core.WriteHalfWord(property.DataAddress, value)
			default:
				panic(zcore.NewError(zcore.InvalidProperty, "property %d on object %d has length %d, can't store a word/byte", propertyId, o.Id, property.Length))
			}
			return
		}

		currentPtr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	panic(zcore.NewError(zcore.InvalidProperty, "object %d has no property %d to set", o.Id, propertyId))
}

func (o *Object) GetProperty(propertyId uint8, core *zcore.Core) Property {
	currentPtr := o.propertyTableStart(core)

	for core.ReadByte(currentPtr) != 0 {
		property := o.GetPropertyByAddress(currentPtr, core)

		if property.Id == propertyId {
			return property
		}
		if property.Id < propertyId {
			// Properties are stored in descending id order; once we've
			// passed propertyId it can't appear later in the table.
			break
		}

		currentPtr += uint32(property.Length) + uint32(property.PropertyHeaderLength)
	}

	// Not present on the object - fall back to the table of global defaults.
	propertyAddress := uint32(core.ObjectTableBase) + 2*uint32(propertyId-1)
	return Property{
		Id:          propertyId,
		Length:      2,
		Data:        core.ReadSlice(propertyAddress, propertyAddress+2),
		DataAddress: propertyAddress,
	}
}

func (o *Object) GetPropertyByAddress(propertyAddr uint32, core *zcore.Core) Property {
	propertySizeByte := core.ReadByte(propertyAddr)
	length := (propertySizeByte >> 5) + 1
	id := propertySizeByte & 0b1_1111
	propertyHeaderLength := uint8(1)

	if core.Version >= 4 {
		if propertySizeByte>>7 == 1 {
			length = core.ReadByte(propertyAddr+1) & 0b11_1111

			// A second-byte length of 0 means 64 (Inform can compile such properties).
			if length == 0 {
				length = 64
			}
			id = propertySizeByte & 0b11_1111
			propertyHeaderLength = 2
		} else {
			length = ((propertySizeByte >> 6) & 1) + 1
			id = propertySizeByte & 0b11_1111
		}
	}

	dataAddress := propertyAddr + uint32(propertyHeaderLength)

	return Property{
		Id:                   id,
		Length:               length,
		Data:                 core.ReadSlice(dataAddress, dataAddress+uint32(length)),
		PropertyHeaderLength: propertyHeaderLength,
		Address:              propertyAddr,
		DataAddress:          dataAddress,
	}
}

func (o *Object) GetNextProperty(propertyId uint8, core *zcore.Core) uint8 {
	if propertyId == 0 { // Special case: get the first property
		currentPtr := o.propertyTableStart(core)
		if core.ReadByte(currentPtr) == 0 {
			return 0 // No properties at all
		}
		return o.GetPropertyByAddress(currentPtr, core).Id
	}

	property := o.GetProperty(propertyId, core)
	if property.Address == 0 { // 0 for the property-defaults fallback
		panic(zcore.NewError(zcore.InvalidProperty, "can't get the property after an invalid one (object %d, prop %d)", o.Id, propertyId))
	}

	nextPropertyPtr := property.DataAddress + uint32(property.Length)
	return o.GetPropertyByAddress(nextPropertyPtr, core).Id
}
