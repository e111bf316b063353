package zmachine

// handleBranch reads the branch operand following an instruction and, if
// result matches the branch's sense, jumps (or returns 0/1 for the two
// special-case offsets). Per the spec's resolution of a source-side
// ambiguity, the single-byte form's 6-bit offset is unsigned - it is never
// sign-extended, unlike the two-byte form's signed 14-bit offset.
func (z *ZMachine) handleBranch(frame *CallStackFrame, result bool) {
	branchArg1 := z.readByteIncPC(frame)

	branchReversed := (branchArg1>>7)&1 == 0
	singleByte := (branchArg1>>6)&1 == 1
	offset := int32(branchArg1 & 0b11_1111)

	if !singleByte {
		offset = int32(int16((uint16(branchArg1&0b11_1111)<<8|uint16(z.readByteIncPC(frame)))<<2) >> 2)
	}

	if result != branchReversed {
		switch offset {
		case 0:
			z.retValue(0)
		case 1:
			z.retValue(1)
		default:
			frame.pc = uint32(int32(frame.pc) + offset - 2)
		}
	}
}
