package zmachine

import (
	"fmt"

	"github.com/gozm/zvm/zobject"
	"github.com/gozm/zvm/zstring"
	"github.com/gozm/zvm/ztable"
)

func (z *ZMachine) execVAR(opcode *Opcode, frame *CallStackFrame) bool {
	operand := func(i int) uint16 {
		if i >= len(opcode.operands) {
			return 0
		}
		return opcode.operands[i].Value(z)
	}

	switch opcode.opcodeNumber {
	case 0: // call / call_vs
		z.call(opcode, function)
	case 1: // storew
		z.Core.WriteHalfWord(uint32(operand(0))+2*uint32(operand(1)), operand(2))
	case 2: // storeb
		z.Core.WriteByte(uint32(operand(0))+uint32(operand(1)), uint8(operand(2)))
	case 3: // put_prop
		object := zobject.GetObject(operand(0), &z.Core, z.Alphabets)
		object.SetProperty(uint8(operand(1)), operand(2), &z.Core)
	case 4: // sread / aread
		z.read(opcode)
	case 5: // print_char
		z.appendText(z.zsciiToString(uint8(operand(0))))
	case 6: // print_num
		z.appendText(fmt.Sprintf("%d", int16(operand(0))))
	case 7: // random
		z.writeVariable(z.readByteIncPC(frame), z.rng.random(int16(operand(0))), false)
	case 8: // push
		z.writeVariable(0, operand(0), false)
	case 9: // pull
		if z.Core.Version == 6 && len(opcode.operands) == 0 {
			z.writeVariable(0, z.readVariable(0, false), false)
			return true
		}
		z.writeVariable(uint8(operand(0)), z.readVariable(0, false), true)
	case 10: // split_window
		z.screenModel.UpperWindowHeight = int(operand(0))
		if z.Windows != nil {
			z.Windows.Split(int(operand(0)))
		}
	case 11: // set_window
		z.screenModel.LowerWindowActive = operand(0) == 0
		if z.Windows != nil {
			z.Windows.SetWindow(int(operand(0)))
		}
	case 12: // call_vs2
		z.call(opcode, function)
	case 13: // erase_window
		if z.Windows != nil {
			z.Windows.Erase(int(int16(operand(0))))
		}
	case 14: // erase_line
		if z.Windows != nil {
			z.Windows.EraseLine(int(int16(operand(0))))
		}
	case 15: // set_cursor
		z.screenModel.UpperWindowCursorY = int(operand(0))
		z.screenModel.UpperWindowCursorX = int(operand(1))
		if z.Windows != nil {
			z.Windows.SetCursor(int(operand(0)), int(operand(1)))
		}
	case 16: // get_cursor
		z.Core.WriteHalfWord(uint32(operand(0)), uint16(z.screenModel.UpperWindowCursorY))
		z.Core.WriteHalfWord(uint32(operand(0))+2, uint16(z.screenModel.UpperWindowCursorX))
	case 17: // set_text_style
		z.screenModel.UpperWindowTextStyle = TextStyle(operand(0))
		if z.Windows != nil {
			z.Windows.SetStyle(TextStyle(operand(0)))
		}
	case 18: // buffer_mode
		// word wrapping is the presentation layer's concern; nothing to track here.
	case 19: // output_stream
		z.setOutputStream(int16(operand(0)), operand(1))
	case 20: // input_stream
		z.warnOnce("input_stream", "input_stream %d isn't implemented; input always comes from stream 0", operand(0))
	case 21: // sound_effect
		if z.Sound != nil {
			z.Sound.Play(int(operand(0)), int(operand(1)), int(operand(2)), operand(3))
		}
	case 22: // read_char
		z.writeVariable(z.readByteIncPC(frame), uint16(z.Input.ReadChar()), false)
	case 23: // scan_table
		x := operand(0)
		table := uint32(operand(1))
		length := operand(2)
		form := uint16(0x82)
		if len(opcode.operands) >= 4 {
			form = operand(3)
		}
		found := ztable.ScanTable(&z.Core, x, table, length, form)
		z.writeVariable(z.readByteIncPC(frame), uint16(found), false)
		z.handleBranch(frame, found != 0)
	case 24: // not
		z.writeVariable(z.readByteIncPC(frame), ^operand(0), false)
	case 25: // call_vn
		z.call(opcode, procedure)
	case 26: // call_vn2
		z.call(opcode, procedure)
	case 27: // tokenise
		dict := z.dictionary
		parseBuffer := operand(1)
		z.Tokenise(uint32(operand(0)), uint32(parseBuffer), dict, len(opcode.operands) >= 4 && operand(3) != 0)
	case 28: // encode_text
		z.encodeText(operand(0), operand(1), operand(2), operand(3))
	case 29: // copy_table
		ztable.CopyTable(&z.Core, operand(0), operand(1), int16(operand(2)))
	case 30: // print_table
		width := operand(1)
		height := operand(2)
		skip := operand(3)
		if height == 0 {
			height = 1
		}
		z.appendText(ztable.PrintTable(&z.Core, uint32(operand(0)), width, height, skip))
	case 31: // check_arg_count
		z.handleBranch(frame, int(operand(0)) <= frame.numValuesPassed)
	default:
		z.warnOnce("unknown_var", "unknown VAR opcode %d at pc=0x%x", opcode.opcodeNumber, z.currentInstructionPC)
	}

	return true
}

// zsciiToString converts a single ZSCII code (as PRINT_CHAR takes) to its
// printable text, consulting the Unicode translation table for codes 155-251.
func (z *ZMachine) zsciiToString(zchr uint8) string {
	if zchr == 13 {
		return "\n"
	}
	if zchr >= 32 && zchr <= 126 {
		return string(rune(zchr))
	}
	if r, ok := zstring.ZsciiToUnicode(zchr, &z.Core); ok {
		return string(r)
	}
	return ""
}

func (z *ZMachine) setOutputStream(stream int16, tableAddr uint16) {
	switch stream {
	case 1:
		z.streams.Screen = true
	case -1:
		z.streams.Screen = false
	case 2:
		z.streams.Transcript = true
	case -2:
		z.streams.Transcript = false
	case 3:
		z.streams.Memory = true
		z.streams.MemoryStreamData = append(z.streams.MemoryStreamData, MemoryStreamData{
			baseAddress: uint32(tableAddr),
			ptr:         uint32(tableAddr) + 2,
		})
	case -3:
		if len(z.streams.MemoryStreamData) > 0 {
			top := z.streams.MemoryStreamData[len(z.streams.MemoryStreamData)-1]
			z.Core.WriteHalfWord(top.baseAddress, uint16(top.ptr-top.baseAddress-2))
			z.streams.MemoryStreamData = z.streams.MemoryStreamData[:len(z.streams.MemoryStreamData)-1]
			z.streams.Memory = len(z.streams.MemoryStreamData) > 0
		}
	case 4:
		z.streams.CommandScript = true
	case -4:
		z.streams.CommandScript = false
	}
}

func (z *ZMachine) encodeText(zsciiText, length, from, codedText uint16) {
	runes := []rune(string(z.Core.ReadSlice(uint32(zsciiText)+uint32(from), uint32(zsciiText)+uint32(from)+uint32(length))))
	encoded := zstring.Encode(runes, &z.Core, z.Alphabets)
	for i, b := range encoded {
		z.Core.WriteByte(uint32(codedText)+uint32(i), b)
	}
}

