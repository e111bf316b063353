package zmachine

import "github.com/gozm/zvm/quetzal"

// SaveState is a plain, in-memory snapshot used by SAVE_UNDO/RESTORE_UNDO,
// which per spec.md §4.11 never touch the filesystem or the Quetzal codec.
type SaveState struct {
	staticMemoryBase uint16
	dynamicMemory    []uint8
	callStack        CallStack
}

type InMemorySaveStateCache struct {
	saveStates []SaveState
}

func (z *ZMachine) captureState() SaveState {
	dynamicMemory := make([]uint8, z.Core.StaticMemoryBase)
	copy(dynamicMemory, z.Core.ReadSlice(0, uint32(z.Core.StaticMemoryBase)))

	return SaveState{
		staticMemoryBase: z.Core.StaticMemoryBase,
		dynamicMemory:    dynamicMemory,
		callStack:        z.callStack.copy(),
	}
}

func (z *ZMachine) applyState(state SaveState) bool {
	if state.staticMemoryBase != z.Core.StaticMemoryBase {
		return false
	}

	// TODO: retain transcription and fixed font bits per spec
	copy(z.Core.ReadSlice(0, uint32(z.Core.StaticMemoryBase)), state.dynamicMemory)
	z.callStack = state.callStack.copy()
	return true
}

// saveUndo holds at most one snapshot, per spec.md §3.7 - each call replaces
// whatever SAVE_UNDO previously stashed rather than growing a stack.
func (z *ZMachine) saveUndo() {
	z.UndoStates.saveStates = []SaveState{z.captureState()}
}

func (z *ZMachine) restoreUndo() uint16 {
	if len(z.UndoStates.saveStates) == 0 {
		return 0
	}

	state := z.UndoStates.saveStates[0]

	if !z.applyState(state) {
		return 0
	}
	return 2
}

// ExportSaveState encodes the current state as a Quetzal save file, for
// hosts that want to manage the save path themselves rather than going
// through the SaveChooser delegate (e.g. an autosave slot).
func (z *ZMachine) ExportSaveState() ([]byte, error) {
	return quetzal.Encode(z.originalDynamicMemory, z.buildSnapshot())
}

// ImportSaveState restores from a Quetzal byte stream previously produced
// by ExportSaveState or SAVE.
func (z *ZMachine) ImportSaveState(data []byte) bool {
	snapshot, err := quetzal.Decode(data, z.originalDynamicMemory)
	if err != nil {
		return false
	}
	if !snapshot.MatchesStory(z.Core.ReleaseNumber, z.Core.SerialCode, z.Core.FileChecksum) {
		return false
	}
	return z.applySnapshot(snapshot)
}
