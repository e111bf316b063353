// Package zmachine implements the Z-Machine fetch/decode/execute loop: the
// routine call stack, variable access, the instruction decoder, and the
// opcode dispatch table, wired against a *zcore.Core for memory and a
// small set of delegate interfaces (interfaces.go) for everything the host
// terminal provides.
package zmachine

import (
	"io"
	"os"
	"strings"

	"github.com/gozm/zvm/dictionary"
	"github.com/gozm/zvm/quetzal"
	"github.com/gozm/zvm/zcore"
	"github.com/gozm/zvm/zobject"
	"github.com/gozm/zvm/zstring"
)

// RoutineType distinguishes a function call (stores a result) from a
// procedure call (discards it) and an interrupt call (v5+ timed input /
// sound callbacks), since RET behaves differently for each.
type RoutineType int

const (
	function RoutineType = iota
	procedure
	interrupt
)

// MemoryStreamData tracks one nested output-stream-3 (memory) redirection.
type MemoryStreamData struct {
	baseAddress uint32
	ptr         uint32
}

// Streams holds the enabled-state of the Z-Machine's four output streams.
type Streams struct {
	Screen           bool
	Transcript       bool
	Memory           bool
	MemoryStreamData []MemoryStreamData
	CommandScript    bool
}

// ZMachine is a single story's running state: memory, stacks, RNG, and the
// host delegates. Nothing here is global - multiple ZMachines can coexist
// in one process.
type ZMachine struct {
	callStack CallStack
	Core      zcore.Core

	dictionary *dictionary.Dictionary
	Alphabets  *zstring.Alphabets

	screenModel ScreenModel
	streams     Streams
	rng         *rng

	originalDynamicMemory []uint8
	UndoStates            InMemorySaveStateCache

	currentInstructionPC uint32
	warnings              map[string]bool
	warnSink              io.Writer
	trace                 *trace

	Output      OutputSink
	Input       InputSource
	SaveChooser SaveChooser
	Windows     WindowManager
	Sound       SoundDevice
}

// LoadRom parses storyFile and sets up the initial call frame, ready for
// Run/StepMachine. output and input are required; the remaining delegates
// (SaveChooser, Windows, Sound) are optional fields the caller may set
// before running.
func LoadRom(storyFile []uint8, output OutputSink, input InputSource) (*ZMachine, error) {
	core, err := zcore.LoadCore(storyFile)
	if err != nil {
		return nil, err
	}

	machine := &ZMachine{
		Core:   core,
		Output: output,
		Input:  input,
		streams: Streams{
			Screen: true,
		},
		rng: newRNG(1),
	}

	machine.Alphabets = zstring.LoadAlphabets(&machine.Core)
	machine.dictionary = dictionary.ParseDictionary(uint32(machine.Core.DictionaryBase), &machine.Core, machine.Alphabets)

	const zcolorBlack, zcolorWhite = 2, 9
	machine.Core.SetDefaultBackgroundColorNumber(zcolorBlack)
	machine.Core.SetDefaultForegroundColorNumber(zcolorWhite)
	machine.screenModel = newScreenModel(Color{255, 255, 255}, Color{0, 0, 0})

	machine.originalDynamicMemory = append([]uint8(nil), machine.Core.RawDynamicMemory()...)

	// V6+ uses a packed address and a routine header for the initial function.
	if machine.Core.Version == 6 {
		routineAddress := machine.Core.Unpack(machine.Core.FirstInstruction, zcore.RoutineAddress)
		localCount := machine.Core.ReadByte(routineAddress)
		machine.callStack.push(CallStackFrame{
			pc:     routineAddress + 1,
			locals: make([]uint16, localCount),
		})
	} else {
		machine.callStack.push(CallStackFrame{
			pc:     uint32(machine.Core.FirstInstruction),
			locals: make([]uint16, 0),
		})
	}

	return machine, nil
}

// SetTrace wires the optional instruction-trace sink (spec §6.7); w==nil
// disables tracing.
func (z *ZMachine) SetTrace(w io.Writer) {
	z.trace = newTrace(w)
}

// SetRNGFixedReseed replaces RANDOM(0)'s time-based reseed with a fixed
// value, for deterministic replay/test runs.
func (z *ZMachine) SetRNGFixedReseed(seed uint32) {
	z.rng.fixedReseed = seed
}

func (z *ZMachine) call(opcode *Opcode, routineType RoutineType) {
	routineAddress := z.Core.Unpack(opcode.operands[0].Value(z), zcore.RoutineAddress)

	// Special case: calling address 0 makes no call and stores 0.
	if routineAddress == 0 {
		if routineType == function {
			z.writeVariable(z.readByteIncPC(z.callStack.peek()), 0, false)
		}
		return
	}

	localVariableCount := z.Core.ReadByte(routineAddress)
	routineAddress++

	locals := make([]uint16, localVariableCount)
	for i := 0; i < int(localVariableCount); i++ {
		if i+1 < len(opcode.operands) {
			locals[i] = opcode.operands[i+1].Value(z)
		} else if z.Core.Version < 5 {
			locals[i] = z.Core.ReadHalfWord(routineAddress)
		}

		if z.Core.Version < 5 {
			routineAddress += 2
		}
	}

	z.callStack.push(CallStackFrame{
		pc:              routineAddress,
		locals:          locals,
		routineStack:    make([]uint16, 0),
		routineType:     routineType,
		numValuesPassed: len(opcode.operands) - 1,
		framePointer:    uint32(z.callStack.depth()),
	})
}

func (z *ZMachine) retValue(val uint16) {
	oldFrame := z.callStack.pop()
	newFrame := z.callStack.peek()

	if oldFrame.routineType == function {
		destination := z.readByteIncPC(newFrame)
		z.writeVariable(destination, val, false)
	}
}

func (z *ZMachine) RemoveObject(objId uint16) {
	object := zobject.GetObject(objId, &z.Core, z.Alphabets)
	if object.Parent != 0 {
		oldParent := zobject.GetObject(object.Parent, &z.Core, z.Alphabets)

		if oldParent.Child == object.Id {
			oldParent.SetChild(object.Sibling, &z.Core)
		} else {
			currObjId := oldParent.Child
			for currObjId != 0 {
				currObj := zobject.GetObject(currObjId, &z.Core, z.Alphabets)
				if currObj.Sibling == object.Id {
					currObj.SetSibling(object.Sibling, &z.Core)
					break
				}
				currObjId = currObj.Sibling
			}
		}

		object.SetParent(0, &z.Core)
	}

	object.SetSibling(0, &z.Core)
}

// MoveObject relocates objId to be the first child of newParent. Moving an
// object to its current parent still reorders it to the head of that
// parent's child chain rather than being a full no-op.
func (z *ZMachine) MoveObject(objId uint16, newParent uint16) {
	object := zobject.GetObject(objId, &z.Core, z.Alphabets)

	z.RemoveObject(object.Id)

	// Re-read destination after detaching object: if object was already
	// destination's head child, RemoveObject just updated destination's
	// Child link in memory, and a stale copy would reattach object as its
	// own sibling.
	destination := zobject.GetObject(newParent, &z.Core, z.Alphabets)

	object.SetSibling(destination.Child, &z.Core)
	object.SetParent(destination.Id, &z.Core)
	destination.SetChild(object.Id, &z.Core)
}

// appendText routes printed text to the active output stream(s). Output
// stream 3 (memory) suppresses every other stream while selected, per
// spec.md §4.10/§7.1.2.2.
func (z *ZMachine) appendText(s string) {
	if z.streams.Memory {
		stream := &z.streams.MemoryStreamData[len(z.streams.MemoryStreamData)-1]
		for _, r := range s {
			z.Core.WriteByte(stream.ptr, uint8(r))
			stream.ptr++
		}
		return
	}

	if z.streams.Screen && z.Output != nil {
		z.Output.Emit(s)
	}

	if !z.screenModel.LowerWindowActive && z.Windows != nil {
		lines := strings.Split(s, "\n")
		if len(lines) > 1 {
			z.screenModel.UpperWindowCursorY += len(lines) - 1
			z.screenModel.UpperWindowCursorX = len(lines[len(lines)-1])
		} else {
			z.screenModel.UpperWindowCursorX += len(lines[0])
		}
		z.Windows.SetCursor(z.screenModel.UpperWindowCursorY, z.screenModel.UpperWindowCursorX)
	}

	if z.streams.Transcript {
		z.warnOnce("transcript_stream", "transcript output stream isn't implemented; output dropped")
	}
	if z.streams.CommandScript {
		z.warnOnce("command_script_stream", "command script input stream isn't implemented")
	}
}

type tokenizedWord struct {
	bytes             []uint8
	startingLocation  uint32
	dictionaryAddress uint16
}

func tokeniseSingleWord(bytes []uint8, wordStartPtr uint32, dict *dictionary.Dictionary, core *zcore.Core, alphabets *zstring.Alphabets) tokenizedWord {
	zstr := zstring.Encode([]rune(string(bytes)), core, alphabets)
	return tokenizedWord{
		bytes:             bytes,
		startingLocation:  wordStartPtr,
		dictionaryAddress: dict.Find(zstr),
	}
}

// Tokenise splits the text at baddr1 into words at spaces and the
// dictionary's separator set, looks each up, and writes the parse buffer
// at baddr2. leaveWordsBlank (TOKENISE's optional flag) skips writing
// dictionary addresses for words not found in the dictionary.
func (z *ZMachine) Tokenise(baddr1 uint32, baddr2 uint32, dict *dictionary.Dictionary, leaveWordsBlank bool) {
	words := make([]tokenizedWord, 0)
	startingLocation := baddr1 + 1
	chrCount := uint32(0)
	if z.Core.Version >= 5 {
		chrCount = uint32(z.Core.ReadByte(startingLocation))
		startingLocation++
	}
	currentLocation := startingLocation

	for _, chr := range z.Core.ReadSlice(startingLocation, z.Core.MemoryLength()) {
		if (z.Core.Version < 5 && chr == 0) || (z.Core.Version >= 5 && currentLocation-startingLocation >= chrCount) {
			words = append(words, tokeniseSingleWord(z.Core.ReadSlice(startingLocation, currentLocation), startingLocation, dict, &z.Core, z.Alphabets))
			break
		}

		isSeparator := false
		for _, separator := range dict.Header.InputCodes {
			if chr == separator {
				isSeparator = true
				break
			}
		}

		if chr == ' ' {
			words = append(words, tokeniseSingleWord(z.Core.ReadSlice(startingLocation, currentLocation), startingLocation, dict, &z.Core, z.Alphabets))
			startingLocation = currentLocation + 1
		} else if isSeparator {
			words = append(words, tokeniseSingleWord(z.Core.ReadSlice(startingLocation, currentLocation), startingLocation, dict, &z.Core, z.Alphabets))
			words = append(words, tokeniseSingleWord(z.Core.ReadSlice(currentLocation, currentLocation+1), currentLocation, dict, &z.Core, z.Alphabets))
			startingLocation = currentLocation + 1
		}

		currentLocation++
	}

	if z.Core.ReadByte(baddr2) < uint8(len(words)) {
		z.warnOnce("tokenise_overflow", "tokenised more words (%d) than the parse buffer allows (%d); truncating", len(words), z.Core.ReadByte(baddr2))
		words = words[:z.Core.ReadByte(baddr2)]
	}

	parseBufferPtr := baddr2 + 1
	z.Core.WriteByte(parseBufferPtr, uint8(len(words)))
	parseBufferPtr++
	for _, word := range words {
		if !leaveWordsBlank || word.dictionaryAddress != 0 {
			z.Core.WriteHalfWord(parseBufferPtr, word.dictionaryAddress)
		}
		z.Core.WriteByte(parseBufferPtr+2, uint8(len(word.bytes)))
		z.Core.WriteByte(parseBufferPtr+3, uint8(word.startingLocation-baddr1))
		parseBufferPtr += 4
	}
}

func (z *ZMachine) read(opcode *Opcode) {
	if z.Core.Version <= 3 {
		location := zobject.GetObject(z.readVariable(16, false), &z.Core, z.Alphabets)
		if z.Windows != nil {
			z.Windows.StatusBar(StatusBar{
				PlaceName:   location.Name,
				Score:       int(int16(z.readVariable(17, false))),
				Moves:       int(z.readVariable(18, false)),
				IsTimeBased: z.Core.StatusBarTimeBased,
			})
		}
	}

	var rawText string
	if z.Core.Version >= 4 && len(opcode.operands) >= 3 && opcode.operands[2].Value(z) > 0 {
		timeLimit := opcode.operands[2].Value(z)
		line, timedOut := z.Input.ReadLineWithDeadline(int(timeLimit))
		if timedOut {
			z.warnOnce("timed_read", "timed SREAD expired; invoking the interrupt routine synchronously isn't implemented, resuming with empty input")
			rawText = ""
		} else {
			rawText = line
		}
	} else {
		rawText = z.Input.ReadLine()
	}

	textBufferPtr := opcode.operands[0].Value(z)
	parseBufferPtr := opcode.operands[1].Value(z)

	// Per spec.md §9's resolution of the case-folding ambiguity: the
	// buffer stores the lowercased bytes directly (not a separate copy).
	rawTextBytes := []byte(strings.ToLower(rawText))

	bufferSize := z.Core.ReadByte(uint32(textBufferPtr))
	textBufferPtr++

	if z.Core.Version >= 5 {
		existingBytes := z.Core.ReadByte(uint32(textBufferPtr))
		textBufferPtr += 1 + uint16(existingBytes)
	}

	ix := 0
	for ix <= int(bufferSize) && ix < len(rawTextBytes) {
		chr := rawTextBytes[ix]
		if (chr >= 32 && chr <= 126) || (chr >= 155 && chr <= 251) {
			z.Core.WriteByte(uint32(textBufferPtr+uint16(ix)), chr)
		} else {
			z.Core.WriteByte(uint32(textBufferPtr+uint16(ix)), 32)
		}
		ix++
	}
	z.Core.WriteByte(uint32(textBufferPtr+uint16(ix)), 0)

	if z.Core.Version >= 5 {
		z.Core.WriteByte(uint32(opcode.operands[0].Value(z)+1), uint8(ix))
	}

	if parseBufferPtr != 0 {
		z.Tokenise(uint32(opcode.operands[0].Value(z)), uint32(parseBufferPtr), z.dictionary, false)
	}

	if z.Core.Version >= 5 {
		z.writeVariable(z.readByteIncPC(z.callStack.peek()), 13, false)
	}
}

// buildSnapshot captures the full save-state (not just the undo slot) as a
// plain quetzal.Snapshot.
func (z *ZMachine) buildSnapshot() quetzal.Snapshot {
	frame := z.callStack.peek()

	frames := make([]quetzal.Frame, len(z.callStack.frames))
	for i, f := range z.callStack.frames {
		frames[i] = quetzal.Frame{
			ReturnPC:        f.pc,
			DiscardsResult:  f.routineType != function,
			Locals:          append([]uint16(nil), f.locals...),
			EvaluationStack: append([]uint16(nil), f.routineStack...),
		}
	}

	return quetzal.Snapshot{
		Release:  z.Core.ReleaseNumber,
		Serial:   z.Core.SerialCode,
		Checksum: z.Core.FileChecksum,
		PC:       frame.pc,
		Memory:   append([]uint8(nil), z.Core.RawDynamicMemory()...),
		Frames:   frames,
	}
}

func (z *ZMachine) applySnapshot(s quetzal.Snapshot) bool {
	if len(s.Memory) != int(z.Core.StaticMemoryBase) {
		return false
	}

	frames := make([]CallStackFrame, len(s.Frames))
	for i, f := range s.Frames {
		routineType := procedure
		if !f.DiscardsResult {
			routineType = function
		}
		frames[i] = CallStackFrame{
			pc:           f.ReturnPC,
			locals:       append([]uint16(nil), f.Locals...),
			routineStack: append([]uint16(nil), f.EvaluationStack...),
			routineType:  routineType,
		}
	}
	if len(frames) == 0 {
		return false
	}

	z.Core.ReplaceDynamicMemory(s.Memory)
	z.callStack = CallStack{frames: frames}
	return true
}

func (z *ZMachine) performSave() bool {
	if z.SaveChooser == nil {
		return false
	}
	path, ok := z.SaveChooser.ChooseSavePath("story.qzl")
	if !ok {
		return false
	}

	data, err := quetzal.Encode(z.originalDynamicMemory, z.buildSnapshot())
	if err != nil {
		z.warnOnce("save_encode_failed", "failed to encode save state: %v", err)
		return false
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		z.warnOnce("save_write_failed", "failed to write save file %s: %v", path, err)
		return false
	}
	return true
}

func (z *ZMachine) performRestore() bool {
	if z.SaveChooser == nil {
		return false
	}
	path, ok := z.SaveChooser.ChooseRestorePath()
	if !ok {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		z.warnOnce("restore_read_failed", "failed to read save file %s: %v", path, err)
		return false
	}

	snapshot, err := quetzal.Decode(data, z.originalDynamicMemory)
	if err != nil {
		z.warnOnce("restore_decode_failed", "failed to decode save file %s: %v", path, err)
		return false
	}
	if !snapshot.MatchesStory(z.Core.ReleaseNumber, z.Core.SerialCode, z.Core.FileChecksum) {
		return false
	}

	return z.applySnapshot(snapshot)
}

// Run drives the fetch/decode/execute loop until QUIT or a fatal error.
// A panicking *zcore.VMError (raised by the decoder, memory access, or
// dispatch the way every other package in this module signals a fatal
// condition) is recovered here and returned as a normal error; any other
// panic is a programming bug and is re-raised.
func (z *ZMachine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if vmErr, ok := r.(*zcore.VMError); ok {
				err = vmErr.WithPC(z.currentInstructionPC)
				return
			}
			panic(r)
		}
	}()

	for z.StepMachine() {
	}

	if z.Output != nil {
		z.Output.Quit()
	}
	return nil
}

func (z *ZMachine) StepMachine() bool {
	z.currentInstructionPC = z.callStack.peek().pc

	startPC := z.currentInstructionPC
	opcode := ParseOpcode(z)
	frame := z.callStack.peek()

	if z.trace != nil {
		values := make([]uint16, len(opcode.operands))
		for i, op := range opcode.operands {
			values[i] = op.Value(z)
		}
		z.trace.record(startPC, &opcode, values, frame.pc-startPC)
	}

	switch opcode.operandCount {
	case OP0:
		return z.execOP0(&opcode, frame)
	case OP1:
		return z.execOP1(&opcode, frame)
	case OP2:
		return z.execOP2(&opcode, frame)
	case VAR:
		if opcode.opcodeForm == extForm {
			return z.execEXT(&opcode, frame)
		}
		return z.execVAR(&opcode, frame)
	}

	return true
}
