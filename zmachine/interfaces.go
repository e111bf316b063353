package zmachine

// OutputSink receives printed text fragments in order, and a single Quit
// once the machine halts. Text already contains '\n' line separators; the
// sink owns presentation.
type OutputSink interface {
	Emit(text string)
	Quit()
}

// InputSource supplies line input. ReadLineWithDeadline is used by v4+
// timed reads (READ's optional time_limit/time_routine arguments); a
// delegate that doesn't support timed input can always return timedOut=false
// and block like ReadLine.
type InputSource interface {
	ReadLine() string
	ReadLineWithDeadline(seconds int) (line string, timedOut bool)
	ReadChar() uint8
}

// SaveChooser lets the host pick save/restore file paths, or cancel the
// operation by returning ok=false. The VM reads/writes the chosen path as
// an opaque Quetzal byte stream.
type SaveChooser interface {
	ChooseSavePath(suggested string) (path string, ok bool)
	ChooseRestorePath() (path string, ok bool)
}

// WindowManager receives v4+ screen operations; the VM only forwards, it
// never interprets layout.
type WindowManager interface {
	Split(rows int)
	SetWindow(window int)
	Erase(windowSpec int)
	EraseLine(value int)
	SetCursor(row, col int)
	SetStyle(mask TextStyle)
	SetColors(fg, bg Color)
	StatusBar(bar StatusBar)
}

// SoundDevice plays v4+ sound effects. On completion the host is expected
// to invoke onDone through the VM's own call mechanism; wiring that
// callback is the host's responsibility, not the VM's.
type SoundDevice interface {
	Play(effect int, volume int, repeats int, onDone uint16)
	StopAll()
}

// StatusBar is the v1-3 status line content, recomputed before every SREAD.
type StatusBar struct {
	PlaceName   string
	Score       int
	Moves       int
	IsTimeBased bool
}
