package zmachine

import (
	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zstring"
)

// execOP0 dispatches the zero-operand opcodes. Returns false when the
// machine should stop running (QUIT).
func (z *ZMachine) execOP0(opcode *Opcode, frame *CallStackFrame) bool {
	switch opcode.opcodeNumber {
	case 0: // rtrue
		z.retValue(1)
	case 1: // rfalse
		z.retValue(0)
	case 2: // print (literal string follows the opcode)
		text, bytesRead := zstring.Decode(frame.pc, z.Core.MemoryLength(), &z.Core, z.Alphabets, false)
		frame.pc += bytesRead
		z.appendText(text)
	case 3: // print_ret
		text, bytesRead := zstring.Decode(frame.pc, z.Core.MemoryLength(), &z.Core, z.Alphabets, false)
		frame.pc += bytesRead
		z.appendText(text + "\n")
		z.retValue(1)
	case 4: // nop
	case 5: // save (v1-3 branches on result; v4 stores it)
		success := z.performSave()
		z.finishSaveRestore(frame, success, 1)
	case 6: // restore
		success := z.performRestore()
		z.finishSaveRestore(frame, success, 2)
	case 7: // restart
		z.restart()
	case 8: // ret_popped
		z.retValue(z.readVariable(0, false))
	case 9: // catch
		z.writeVariable(z.readByteIncPC(frame), uint16(z.callStack.depth()), false)
	case 10: // quit
		return false
	case 11: // new_line
		z.appendText("\n")
	case 12: // show_status (v3 only; no-op elsewhere)
		if z.Windows != nil {
			location := z.readVariable(16, false)
			z.warnOnce("show_status_object", "show_status reads object %d for the status line", location)
		}
	case 13: // verify
		z.handleBranch(frame, z.verifyChecksum())
	case 15: // piracy
		z.handleBranch(frame, true)
	default:
		z.warnOnce("unknown_op0", "unknown 0OP opcode %d at pc=0x%x", opcode.opcodeNumber, z.currentInstructionPC)
	}

	return true
}

// finishSaveRestore implements the version-dependent SAVE/RESTORE return
// convention: v1-3 branch on success, v4 store a result value, per
// spec.md §4.11.
func (z *ZMachine) finishSaveRestore(frame *CallStackFrame, success bool, successValue uint16) {
	if z.Core.Version <= 3 {
		z.handleBranch(frame, success)
		return
	}

	result := uint16(0)
	if success {
		result = successValue
	}
	z.writeVariable(z.readByteIncPC(frame), result, false)
}

// VerifyChecksum exposes the VERIFY opcode's integrity check to hosts that
// want to run it without stepping the VM (the `zvm verify` subcommand).
func (z *ZMachine) VerifyChecksum() bool {
	return z.verifyChecksum()
}

func (z *ZMachine) verifyChecksum() bool {
	sum := uint32(0)
	fileLength := z.Core.FileLength()
	for addr := uint32(0x40); addr < fileLength; addr++ {
		sum += uint32(z.Core.ReadByte(addr))
	}
	return uint16(sum) == z.Core.FileChecksum
}

// restart re-initialises dynamic memory and the call stack from the
// pristine story image captured at load time. The whole dynamic region is
// replaced, so the transcript/fixed-font header bits are not preserved.
func (z *ZMachine) restart() {
	z.Core.ReplaceDynamicMemory(z.originalDynamicMemory)

	if z.Core.Version == 6 {
		routineAddress := z.Core.Unpack(z.Core.FirstInstruction, zcore.RoutineAddress)
		localCount := z.Core.ReadByte(routineAddress)
		z.callStack = CallStack{frames: []CallStackFrame{{pc: routineAddress + 1, locals: make([]uint16, localCount)}}}
	} else {
		z.callStack = CallStack{frames: []CallStackFrame{{pc: uint32(z.Core.FirstInstruction), locals: make([]uint16, 0)}}}
	}

	z.UndoStates = InMemorySaveStateCache{}
}
