package zmachine

func (z *ZMachine) execEXT(opcode *Opcode, frame *CallStackFrame) bool {
	operand := func(i int) uint16 {
		if i >= len(opcode.operands) {
			return 0
		}
		return opcode.operands[i].Value(z)
	}

	switch opcode.opcodeNumber {
	case 0: // save (v5+, stores result)
		success := z.performSave()
		result := uint16(0)
		if success {
			result = 1
		}
		z.writeVariable(z.readByteIncPC(frame), result, false)
	case 1: // restore
		success := z.performRestore()
		result := uint16(0)
		if success {
			result = 2
		}
		z.writeVariable(z.readByteIncPC(frame), result, false)
	case 2: // log_shift
		z.writeVariable(z.readByteIncPC(frame), logShift(operand(0), int16(operand(1))), false)
	case 3: // art_shift
		z.writeVariable(z.readByteIncPC(frame), uint16(arithShift(int16(operand(0)), int16(operand(1)))), false)
	case 4: // set_font
		previous := uint16(z.screenModel.CurrentFont)
		if requested := Font(operand(0)); requested == FontNormal || requested == FontPicture || requested == FontCharGraphs || requested == FontFixedPitch {
			z.screenModel.CurrentFont = requested
		} else {
			previous = 0
		}
		z.writeVariable(z.readByteIncPC(frame), previous, false)
	case 9: // save_undo
		z.saveUndo()
		z.writeVariable(z.readByteIncPC(frame), 1, false)
	case 10: // restore_undo
		z.writeVariable(z.readByteIncPC(frame), z.restoreUndo(), false)
	case 11: // print_unicode
		if r, ok := unicodeFromCodepoint(operand(0)); ok {
			z.appendText(string(r))
		}
	case 12: // check_unicode
		z.writeVariable(z.readByteIncPC(frame), 3, false)
	case 13: // set_true_colour
		if z.Windows != nil {
			z.Windows.SetColors(trueColor(operand(0)), trueColor(operand(1)))
		}
	default:
		z.warnOnce("unknown_ext", "unknown EXT opcode %d at pc=0x%x", opcode.opcodeNumber, z.currentInstructionPC)
	}

	return true
}

func logShift(value uint16, places int16) uint16 {
	if places >= 0 {
		return value << uint(places)
	}
	return value >> uint(-places)
}

func arithShift(value int16, places int16) int16 {
	if places >= 0 {
		return value << uint(places)
	}
	return value >> uint(-places)
}

func unicodeFromCodepoint(code uint16) (rune, bool) {
	if code == 0 {
		return 0, false
	}
	return rune(code), true
}

// trueColor decodes a 15-bit true-colour value (bits 0-4 red, 5-9 green,
// 10-14 blue) as used by SET_TRUE_COLOUR.
func trueColor(packed uint16) Color {
	r := int(packed&0b11111) * 255 / 31
	g := int((packed>>5)&0b11111) * 255 / 31
	b := int((packed>>10)&0b11111) * 255 / 31
	return Color{r, g, b}
}
