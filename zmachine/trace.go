package zmachine

import (
	"fmt"
	"io"
)

// trace is the optional instruction-trace sink (spec §6.7): one line per
// executed instruction, formatted
// "<addr>: 0x<opcode> <mnemonic> (<form>) [<operands>] [<bytes-consumed>]".
// A nil *trace (the default) costs a single nil check per instruction.
type trace struct {
	w io.Writer
}

func newTrace(w io.Writer) *trace {
	if w == nil {
		return nil
	}
	return &trace{w: w}
}

func formName(form OpcodeForm) string {
	switch form {
	case longForm:
		return "long"
	case shortForm:
		return "short"
	case varForm:
		return "var"
	case extForm:
		return "ext"
	default:
		return "?"
	}
}

func mnemonicFor(count OperandCount, opcodeNumber uint8, form OpcodeForm) string {
	if form == extForm {
		if m, ok := extMnemonics[opcodeNumber]; ok {
			return m
		}
		return "ext_unknown"
	}

	var table map[uint8]string
	switch count {
	case OP0:
		table = op0Mnemonics
	case OP1:
		table = op1Mnemonics
	case OP2:
		table = op2Mnemonics
	case VAR:
		table = varMnemonics
	}

	if m, ok := table[opcodeNumber]; ok {
		return m
	}
	return "unknown"
}

func (t *trace) record(pc uint32, opcode *Opcode, operandValues []uint16, bytesConsumed uint32) {
	if t == nil || t.w == nil {
		return
	}

	mnemonic := mnemonicFor(opcode.operandCount, opcode.opcodeNumber, opcode.opcodeForm)
	fmt.Fprintf(t.w, "0x%x: 0x%x %s (%s) %v [%d]\n", pc, opcode.opcodeByte, mnemonic, formName(opcode.opcodeForm), operandValues, bytesConsumed)
}

var op0Mnemonics = map[uint8]string{
	0: "rtrue", 1: "rfalse", 2: "print", 3: "print_ret", 4: "nop",
	5: "save", 6: "restore", 7: "restart", 8: "ret_popped", 9: "catch",
	10: "quit", 11: "new_line", 12: "show_status", 13: "verify",
	15: "piracy",
}

var op1Mnemonics = map[uint8]string{
	0: "jz", 1: "get_sibling", 2: "get_child", 3: "get_parent",
	4: "get_prop_len", 5: "inc", 6: "dec", 7: "print_addr",
	8: "call_1s", 9: "remove_obj", 10: "print_obj", 11: "ret",
	12: "jump", 13: "print_paddr", 14: "load", 15: "not_or_call_1n",
}

var op2Mnemonics = map[uint8]string{
	1: "je", 2: "jl", 3: "jg", 4: "dec_chk", 5: "inc_chk", 6: "jin",
	7: "test", 8: "or", 9: "and", 10: "test_attr", 11: "set_attr",
	12: "clear_attr", 13: "store", 14: "insert_obj", 15: "loadw",
	16: "loadb", 17: "get_prop", 18: "get_prop_addr", 19: "get_next_prop",
	20: "add", 21: "sub", 22: "mul", 23: "div", 24: "mod",
	25: "call_2s", 26: "call_2n", 27: "set_colour", 28: "throw",
}

var varMnemonics = map[uint8]string{
	0: "call", 1: "storew", 2: "storeb", 3: "put_prop", 4: "sread",
	5: "print_char", 6: "print_num", 7: "random", 8: "push", 9: "pull",
	10: "split_window", 11: "set_window", 12: "call_vs2", 13: "erase_window",
	14: "erase_line", 15: "set_cursor", 16: "get_cursor", 17: "set_text_style",
	18: "buffer_mode", 19: "output_stream", 20: "input_stream", 21: "sound_effect",
	22: "read_char", 23: "scan_table", 24: "not", 25: "call_vn",
	26: "call_vn2", 27: "tokenise", 28: "encode_text", 29: "copy_table",
	30: "print_table", 31: "check_arg_count",
}

var extMnemonics = map[uint8]string{
	0: "save", 1: "restore", 2: "log_shift", 3: "art_shift", 4: "set_font",
	9: "save_undo", 10: "restore_undo", 11: "print_unicode",
	12: "check_unicode", 13: "set_true_colour",
}
