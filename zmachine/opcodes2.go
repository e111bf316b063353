package zmachine

import (
	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zobject"
)

func (z *ZMachine) execOP2(opcode *Opcode, frame *CallStackFrame) bool {
	a := opcode.operands[0].Value(z)
	var b uint16
	if len(opcode.operands) > 1 {
		b = opcode.operands[1].Value(z)
	}

	switch opcode.opcodeNumber {
	case 1: // je: true if a equals ANY of the remaining operands
		result := false
		for _, operand := range opcode.operands[1:] {
			if operand.Value(z) == a {
				result = true
				break
			}
		}
		z.handleBranch(frame, result)
	case 2: // jl
		z.handleBranch(frame, int16(a) < int16(b))
	case 3: // jg
		z.handleBranch(frame, int16(a) > int16(b))
	case 4: // dec_chk
		newValue := int16(z.readVariable(uint8(a), true)) - 1
		z.writeVariable(uint8(a), uint16(newValue), true)
		z.handleBranch(frame, newValue < int16(b))
	case 5: // inc_chk
		newValue := int16(z.readVariable(uint8(a), true)) + 1
		z.writeVariable(uint8(a), uint16(newValue), true)
		z.handleBranch(frame, newValue > int16(b))
	case 6: // jin
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.handleBranch(frame, object.Parent == b)
	case 7: // test
		z.handleBranch(frame, a&b == b)
	case 8: // or
		z.writeVariable(z.readByteIncPC(frame), a|b, false)
	case 9: // and
		z.writeVariable(z.readByteIncPC(frame), a&b, false)
	case 10: // test_attr
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.handleBranch(frame, object.TestAttribute(b))
	case 11: // set_attr
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		object.SetAttribute(b, &z.Core)
	case 12: // clear_attr
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		object.ClearAttribute(b, &z.Core)
	case 13: // store
		z.writeVariable(uint8(a), b, true)
	case 14: // insert_obj
		z.MoveObject(a, b)
	case 15: // loadw
		z.writeVariable(z.readByteIncPC(frame), z.Core.ReadHalfWord(uint32(a)+2*uint32(b)), false)
	case 16: // loadb
		z.writeVariable(z.readByteIncPC(frame), uint16(z.Core.ReadByte(uint32(a)+uint32(b))), false)
	case 17: // get_prop
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		property := object.GetProperty(uint8(b), &z.Core)
		value := uint16(0)
		switch property.Length {
		case 1:
			value = uint16(property.Data[0])
		default:
			value = uint16(property.Data[0])<<8 | uint16(property.Data[1])
		}
		z.writeVariable(z.readByteIncPC(frame), value, false)
	case 18: // get_prop_addr
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		property := object.GetProperty(uint8(b), &z.Core)
		address := uint16(0)
		if property.Address != 0 { // 0 for the property-defaults fallback
			address = uint16(property.DataAddress)
		}
		z.writeVariable(z.readByteIncPC(frame), address, false)
	case 19: // get_next_prop
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.writeVariable(z.readByteIncPC(frame), uint16(object.GetNextProperty(uint8(b), &z.Core)), false)
	case 20: // add
		z.writeVariable(z.readByteIncPC(frame), uint16(int16(a)+int16(b)), false)
	case 21: // sub
		z.writeVariable(z.readByteIncPC(frame), uint16(int16(a)-int16(b)), false)
	case 22: // mul
		z.writeVariable(z.readByteIncPC(frame), uint16(int16(a)*int16(b)), false)
	case 23: // div
		z.divOrMod(frame, a, b, false)
	case 24: // mod
		z.divOrMod(frame, a, b, true)
	case 25: // call_2s
		z.call(opcode, function)
	case 26: // call_2n
		z.call(opcode, procedure)
	case 27: // set_colour
		if z.Windows != nil {
			fg := z.screenModel.NewZMachineColor(a, true)
			bg := z.screenModel.NewZMachineColor(b, false)
			z.Windows.SetColors(fg, bg)
		}
	case 28: // throw
		z.callStack.unwindTo(int(b))
		z.retValue(a)
	default:
		z.warnOnce("unknown_op2", "unknown 2OP opcode %d at pc=0x%x", opcode.opcodeNumber, z.currentInstructionPC)
	}

	return true
}

func (z *ZMachine) divOrMod(frame *CallStackFrame, a, b uint16, mod bool) {
	if b == 0 {
		panic(zcore.NewError(zcore.DivisionByZero, "division or modulo by zero").WithPC(z.currentInstructionPC))
	}

	dividend, divisor := int16(a), int16(b)
	if mod {
		z.writeVariable(z.readByteIncPC(frame), uint16(dividend%divisor), false)
	} else {
		z.writeVariable(z.readByteIncPC(frame), uint16(dividend/divisor), false)
	}
}
