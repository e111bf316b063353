package zmachine

import "github.com/gozm/zvm/zcore"

// CallStackFrame is one routine activation: return PC, saved locals, the
// per-routine evaluation stack (variable 0), and the bookkeeping CALL/RET
// and CATCH/THROW need.
type CallStackFrame struct {
	pc              uint32
	routineStack    []uint16
	locals          []uint16
	routineType     RoutineType // v3+ only
	numValuesPassed int         // v5+ only, for CHECK_ARG_COUNT
	framePointer    uint32      // call stack depth at entry, for CATCH/THROW
}

func (f *CallStackFrame) push(i uint16) {
	f.routineStack = append(f.routineStack, i)
}

// pop removes the top of the routine's evaluation stack. An empty-stack
// read is a soft, spec-mandated case (not a VM error): it's logged once
// and returns 0.
func (f *CallStackFrame) pop(z *ZMachine) uint16 {
	if len(f.routineStack) == 0 {
		z.warnOnce("stack_underflow_pop", "attempt to pop from empty routine stack (pc=0x%x)", z.currentInstructionPC)
		return 0
	}
	i := f.routineStack[len(f.routineStack)-1]
	f.routineStack = f.routineStack[:len(f.routineStack)-1]
	return i
}

func (f *CallStackFrame) peek(z *ZMachine) uint16 {
	if len(f.routineStack) == 0 {
		z.warnOnce("stack_underflow_peek", "attempt to peek from empty routine stack (pc=0x%x)", z.currentInstructionPC)
		return 0
	}
	return f.routineStack[len(f.routineStack)-1]
}

// CallStack is the stack of routine activations. Unlike a frame's
// evaluation stack, popping/peeking an empty CallStack means RET (or an
// interpreter bootstrap bug) has unwound past the outermost routine -
// that's always a corrupted or malformed story, never a soft case.
type CallStack struct {
	frames []CallStackFrame
}

func (s *CallStack) push(frame CallStackFrame) {
	s.frames = append(s.frames, frame)
}

func (s *CallStack) pop() CallStackFrame {
	if len(s.frames) == 0 {
		panic(zcore.NewError(zcore.CorruptedStoryFile, "return with no active routine on the call stack"))
	}
	stackSize := len(s.frames)
	frame := s.frames[stackSize-1]
	s.frames = s.frames[:stackSize-1]
	return frame
}

func (s *CallStack) peek() *CallStackFrame {
	if len(s.frames) == 0 {
		panic(zcore.NewError(zcore.CorruptedStoryFile, "no active routine on the call stack"))
	}
	return &s.frames[len(s.frames)-1]
}

func (s *CallStack) depth() int {
	return len(s.frames)
}

// unwindTo pops frames until the call stack is exactly depth frames deep,
// for THROW.
func (s *CallStack) unwindTo(depth int) {
	if depth < 0 || depth > len(s.frames) {
		panic(zcore.NewError(zcore.CorruptedStoryFile, "throw to invalid call stack depth %d", depth))
	}
	s.frames = s.frames[:depth]
}

// copy deep-copies a call stack and all of its frames, used by SAVE_UNDO.
func (s *CallStack) copy() CallStack {
	callStack := CallStack{
		frames: make([]CallStackFrame, len(s.frames)),
	}

	for fx, frame := range s.frames {
		copiedFrame := CallStackFrame{
			pc:              frame.pc,
			routineType:     frame.routineType,
			numValuesPassed: frame.numValuesPassed,
			framePointer:    frame.framePointer,
			routineStack:    append([]uint16(nil), frame.routineStack...),
			locals:          append([]uint16(nil), frame.locals...),
		}

		callStack.frames[fx] = copiedFrame
	}

	return callStack
}
