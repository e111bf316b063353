package zmachine

import (
	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zobject"
	"github.com/gozm/zvm/zstring"
)

func (z *ZMachine) execOP1(opcode *Opcode, frame *CallStackFrame) bool {
	a := opcode.operands[0].Value(z)

	switch opcode.opcodeNumber {
	case 0: // jz
		z.handleBranch(frame, a == 0)
	case 1: // get_sibling
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.writeVariable(z.readByteIncPC(frame), object.Sibling, false)
		z.handleBranch(frame, object.Sibling != 0)
	case 2: // get_child
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.writeVariable(z.readByteIncPC(frame), object.Child, false)
		z.handleBranch(frame, object.Child != 0)
	case 3: // get_parent
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.writeVariable(z.readByteIncPC(frame), object.Parent, false)
	case 4: // get_prop_len
		z.writeVariable(z.readByteIncPC(frame), zobject.GetPropertyLength(&z.Core, uint32(a)), false)
	case 5: // inc
		z.writeVariable(uint8(a), z.readVariable(uint8(a), true)+1, true)
	case 6: // dec
		z.writeVariable(uint8(a), z.readVariable(uint8(a), true)-1, true)
	case 7: // print_addr
		text, _ := zstring.Decode(uint32(a), z.Core.MemoryLength(), &z.Core, z.Alphabets, false)
		z.appendText(text)
	case 8: // call_1s
		z.call(opcode, function)
	case 9: // remove_obj
		z.RemoveObject(a)
	case 10: // print_obj
		object := zobject.GetObject(a, &z.Core, z.Alphabets)
		z.appendText(object.Name)
	case 11: // ret
		z.retValue(a)
	case 12: // jump
		frame.pc = uint32(int32(frame.pc) + int32(int16(a)) - 2)
	case 13: // print_paddr
		address := z.Core.Unpack(a, zcore.StringAddress)
		text, _ := zstring.Decode(address, z.Core.MemoryLength(), &z.Core, z.Alphabets, false)
		z.appendText(text)
	case 14: // load
		z.writeVariable(z.readByteIncPC(frame), z.readVariable(uint8(a), true), false)
	case 15: // not (v1-4) / call_1n (v5+)
		if z.Core.Version <= 4 {
			z.writeVariable(z.readByteIncPC(frame), ^a, false)
		} else {
			z.call(opcode, procedure)
		}
	default:
		z.warnOnce("unknown_op1", "unknown 1OP opcode %d at pc=0x%x", opcode.opcodeNumber, z.currentInstructionPC)
	}

	return true
}
