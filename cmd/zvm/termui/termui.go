// Package termui is the interactive terminal front end for `zvm run`: a
// bubbletea program that implements the zmachine delegate interfaces
// (OutputSink, InputSource, WindowManager, SaveChooser, SoundDevice) over a
// small set of channels, since the VM calls those methods synchronously from
// its own goroutine and expects them to block until the terminal has an
// answer.
package termui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/gozm/zvm/zmachine"
)

var (
	statusBarStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(lipgloss.Color("255")).Bold(true)
	upperWinStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

type lineRequest struct{ resp chan<- string }
type charRequest struct{ resp chan<- uint8 }
type saveRequest struct {
	suggested string
	resp      chan<- pathChoice
}
type restoreRequest struct{ resp chan<- pathChoice }
type pathChoice struct {
	path string
	ok   bool
}

type textMsg string
type statusMsg zmachine.StatusBar
type splitMsg int
type setWindowMsg int
type eraseMsg int
type eraseLineMsg int
type cursorMsg struct{ row, col int }
type styleMsg zmachine.TextStyle
type colorMsg struct{ fg, bg zmachine.Color }
type runDoneMsg struct{ err error }

// Host bridges a running *zmachine.ZMachine to a bubbletea program. Zero
// value is not usable; construct with New.
type Host struct {
	program *tea.Program
	msgCh   chan tea.Msg
}

// New creates a Host. Call Run to start the bubbletea program and the VM
// together; Run blocks until the story exits or the user quits.
func New() *Host {
	return &Host{msgCh: make(chan tea.Msg, 64)}
}

func waitForMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

// Run starts the terminal UI and the VM loop together, blocking until the
// story finishes or the user quits. title is accepted but not displayed.
func (h *Host) Run(z *zmachine.ZMachine, title string) error {
	m := model{
		msgCh:           h.msgCh,
		input:           textinput.New(),
		width:           80,
		height:          24,
		lowerWindowText: "",
	}
	m.input.Prompt = "> "
	m.input.Focus()

	h.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		err := z.Run()
		h.msgCh <- runDoneMsg{err: err}
	}()

	_, err := h.program.Run()
	return err
}

func (h *Host) Emit(text string) { h.msgCh <- textMsg(text) }
func (h *Host) Quit()            {}

func (h *Host) ReadLine() string {
	resp := make(chan string, 1)
	h.msgCh <- lineRequest{resp: resp}
	return <-resp
}

func (h *Host) ReadLineWithDeadline(seconds int) (string, bool) {
	// The terminal client doesn't implement timed input interrupts; block
	// like ReadLine rather than firing the time_routine early.
	return h.ReadLine(), false
}

func (h *Host) ReadChar() uint8 {
	resp := make(chan uint8, 1)
	h.msgCh <- charRequest{resp: resp}
	return <-resp
}

func (h *Host) ChooseSavePath(suggested string) (string, bool) {
	resp := make(chan pathChoice, 1)
	h.msgCh <- saveRequest{suggested: suggested, resp: resp}
	c := <-resp
	return c.path, c.ok
}

func (h *Host) ChooseRestorePath() (string, bool) {
	resp := make(chan pathChoice, 1)
	h.msgCh <- restoreRequest{resp: resp}
	c := <-resp
	return c.path, c.ok
}

func (h *Host) Split(rows int)           { h.msgCh <- splitMsg(rows) }
func (h *Host) SetWindow(window int)     { h.msgCh <- setWindowMsg(window) }
func (h *Host) Erase(windowSpec int)     { h.msgCh <- eraseMsg(windowSpec) }
func (h *Host) EraseLine(value int)      { h.msgCh <- eraseLineMsg(value) }
func (h *Host) SetCursor(row, col int)   { h.msgCh <- cursorMsg{row: row, col: col} }
func (h *Host) SetStyle(mask zmachine.TextStyle) { h.msgCh <- styleMsg(mask) }
func (h *Host) SetColors(fg, bg zmachine.Color)  { h.msgCh <- colorMsg{fg: fg, bg: bg} }
func (h *Host) StatusBar(bar zmachine.StatusBar) { h.msgCh <- statusMsg(bar) }

// Play and StopAll are no-ops: no audio backend is wired up for the terminal
// client (SPEC_FULL.md scopes sound out of the reference front end).
func (h *Host) Play(effect, volume, repeats int, onDone uint16) {}
func (h *Host) StopAll()                                        {}

type inputMode int

const (
	modeRunning inputMode = iota
	modeLine
	modeChar
	modeSavePrompt
	modeRestorePrompt
)

type model struct {
	msgCh  chan tea.Msg
	width  int
	height int

	lowerWindowText string
	upperWindowText []string
	statusBar       zmachine.StatusBar
	lowerActive     bool
	cursorRow       int
	cursorCol       int

	input textinput.Model

	mode         inputMode
	lineResp     chan<- string
	charResp     chan<- uint8
	saveResp     chan<- pathChoice
	restoreResp  chan<- pathChoice
	saveSuggest  string
	runtimeError string
	done         bool
}

func (m model) Init() tea.Cmd {
	return waitForMsg(m.msgCh)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = m.width - 4
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeLine:
			if msg.Type == tea.KeyEnter {
				value := m.input.Value()
				m.lowerWindowText += "> " + value + "\n"
				m.input.SetValue("")
				m.mode = modeRunning
				resp := m.lineResp
				m.lineResp = nil
				return m, tea.Batch(waitForMsg(m.msgCh), func() tea.Msg {
					resp <- value
					return nil
				})
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		case modeChar:
			m.mode = modeRunning
			resp := m.charResp
			m.charResp = nil
			return m, tea.Batch(waitForMsg(m.msgCh), func() tea.Msg {
				resp <- keyToZChar(msg)
				return nil
			})
		case modeSavePrompt:
			if msg.Type == tea.KeyEnter {
				value := m.input.Value()
				m.input.SetValue("")
				m.mode = modeRunning
				resp := m.saveResp
				m.saveResp = nil
				ok := value != ""
				return m, tea.Batch(waitForMsg(m.msgCh), func() tea.Msg {
					resp <- pathChoice{path: value, ok: ok}
					return nil
				})
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		case modeRestorePrompt:
			if msg.Type == tea.KeyEnter {
				value := m.input.Value()
				m.input.SetValue("")
				m.mode = modeRunning
				resp := m.restoreResp
				m.restoreResp = nil
				ok := value != ""
				return m, tea.Batch(waitForMsg(m.msgCh), func() tea.Msg {
					resp <- pathChoice{path: value, ok: ok}
					return nil
				})
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil

	case textMsg:
		if m.lowerActive || len(m.upperWindowText) == 0 {
			m.lowerWindowText += string(msg)
		} else {
			m.writeUpper(string(msg))
		}
		return m, waitForMsg(m.msgCh)

	case statusMsg:
		m.statusBar = zmachine.StatusBar(msg)
		return m, waitForMsg(m.msgCh)

	case splitMsg:
		rows := int(msg)
		if rows < 0 {
			rows = 0
		}
		if rows <= len(m.upperWindowText) {
			m.upperWindowText = m.upperWindowText[:rows]
		} else {
			for len(m.upperWindowText) < rows {
				m.upperWindowText = append(m.upperWindowText, "")
			}
		}
		return m, waitForMsg(m.msgCh)

	case setWindowMsg:
		m.lowerActive = int(msg) == 0
		return m, waitForMsg(m.msgCh)

	case eraseMsg:
		switch int(msg) {
		case -1:
			m.upperWindowText = nil
		case -2:
			m.upperWindowText = nil
			m.lowerWindowText = ""
		default:
			for i := range m.upperWindowText {
				m.upperWindowText[i] = ""
			}
		}
		return m, waitForMsg(m.msgCh)

	case eraseLineMsg:
		// Only value 1 ("erase from cursor to end of line") is defined; any
		// other value is a no-op.
		if int(msg) == 1 && m.cursorRow >= 0 && m.cursorRow < len(m.upperWindowText) {
			line := m.upperWindowText[m.cursorRow]
			if m.cursorCol < len(line) {
				m.upperWindowText[m.cursorRow] = line[:m.cursorCol]
			}
		}
		return m, waitForMsg(m.msgCh)

	case cursorMsg:
		m.cursorRow, m.cursorCol = msg.row, msg.col
		return m, waitForMsg(m.msgCh)

	case styleMsg, colorMsg:
		// The terminal client renders everything in one palette; style and
		// colour requests are acknowledged but not reflected visually.
		return m, waitForMsg(m.msgCh)

	case lineRequest:
		m.mode = modeLine
		m.lineResp = msg.resp
		return m, textinput.Blink

	case charRequest:
		m.mode = modeChar
		m.charResp = msg.resp
		return m, nil

	case saveRequest:
		m.mode = modeSavePrompt
		m.saveSuggest = msg.suggested
		m.saveResp = msg.resp
		m.input.SetValue(msg.suggested)
		return m, textinput.Blink

	case restoreRequest:
		m.mode = modeRestorePrompt
		m.restoreResp = msg.resp
		return m, textinput.Blink

	case runDoneMsg:
		m.done = true
		if msg.err != nil {
			m.runtimeError = msg.err.Error()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) writeUpper(text string) {
	segments := strings.Split(text, "\n")
	row, col := m.cursorRow, m.cursorCol
	for i, seg := range segments {
		if row >= 0 && row < len(m.upperWindowText) {
			line := m.upperWindowText[row]
			for len(line) < col {
				line += " "
			}
			if col+len(seg) <= len(line) {
				line = line[:col] + seg + line[col+len(seg):]
			} else {
				line = line[:col] + seg
			}
			m.upperWindowText[row] = line
		}
		if i < len(segments)-1 {
			row++
			col = 0
		} else {
			m.cursorRow, m.cursorCol = row, col+len(seg)
		}
	}
}

func (m model) View() string {
	var b strings.Builder

	if m.statusBar.PlaceName != "" || m.statusBar.Score != 0 || m.statusBar.Moves != 0 {
		var right string
		if m.statusBar.IsTimeBased {
			right = "Time"
		} else {
			right = fmt.Sprintf("Score: %d  Moves: %d", m.statusBar.Score, m.statusBar.Moves)
		}
		left := m.statusBar.PlaceName
		pad := m.width - len(left) - len(right)
		if pad < 1 {
			pad = 1
		}
		b.WriteString(statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", pad) + right))
		b.WriteString("\n")
	}

	for _, line := range m.upperWindowText {
		b.WriteString(upperWinStyle.Render(line))
		b.WriteString("\n")
	}

	wrapped := wordwrap.String(m.lowerWindowText, max(m.width-1, 20))
	b.WriteString(wrapped)

	switch m.mode {
	case modeLine, modeSavePrompt, modeRestorePrompt:
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case modeChar:
		b.WriteString("\n[press any key]")
	}

	if m.runtimeError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.runtimeError))
	}

	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// keyToZChar maps a bubbletea key event to the Z-machine character codes
// defined for READ_CHAR's function-key range (section 3.8 of the standard).
func keyToZChar(msg tea.KeyMsg) uint8 {
	switch msg.Type {
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	case tea.KeyEnter:
		return 13
	case tea.KeyBackspace, tea.KeyDelete:
		return 8
	case tea.KeyEscape:
		return 27
	default:
		if len(msg.Runes) > 0 {
			return uint8(msg.Runes[0])
		}
		return 0
	}
}

// ExitWithError prints a fatal startup error to stderr and exits non-zero,
// matching the CLI's plain error-reporting convention outside the TUI.
func ExitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
