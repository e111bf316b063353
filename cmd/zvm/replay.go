package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gozm/zvm/zmachine"
)

var replayScriptPath string

var replayCmd = &cobra.Command{
	Use:   "replay <story>",
	Short: "Run a story file against a fixed input script, for regression testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayScriptPath == "" {
			return fmt.Errorf("--script is required")
		}
		lines, err := readScript(replayScriptPath)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		story := readStory(args[0])

		delegate := &replayIO{lines: lines, out: os.Stdout}
		z, err := zmachine.LoadRom(story, delegate, delegate)
		if err != nil {
			return err
		}
		z.Windows = delegate
		z.SaveChooser = delegate
		z.Sound = delegate

		if cfg.RNG.Seed != 0 {
			z.SetRNGFixedReseed(cfg.RNG.Seed)
		}

		return z.Run()
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayScriptPath, "script", "", "path to a newline-separated list of commands to feed the story")
}

// readScript loads one command per non-empty, non-comment line, and appends
// a "quit"/"yes" pair so a story that never runs out of its own accord still
// terminates once the script is exhausted.
func readScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return append(lines, "quit", "yes"), nil
}

// replayIO feeds scripted commands to SREAD/AREAD and prints everything the
// story emits to stdout, with window/sound/save operations reduced to
// no-ops suited to a non-interactive regression run.
type replayIO struct {
	lines []string
	pos   int
	out   *os.File
}

func (r *replayIO) Emit(text string) { fmt.Fprint(r.out, text) }
func (r *replayIO) Quit()            {}

func (r *replayIO) ReadLine() string {
	if r.pos >= len(r.lines) {
		return ""
	}
	line := r.lines[r.pos]
	r.pos++
	fmt.Fprintln(r.out, "> "+line)
	return line
}

func (r *replayIO) ReadLineWithDeadline(seconds int) (string, bool) {
	return r.ReadLine(), false
}

func (r *replayIO) ReadChar() uint8 { return ' ' }

func (r *replayIO) ChooseSavePath(suggested string) (string, bool) { return "", false }
func (r *replayIO) ChooseRestorePath() (string, bool)              { return "", false }

func (r *replayIO) Split(rows int)                       {}
func (r *replayIO) SetWindow(window int)                 {}
func (r *replayIO) Erase(windowSpec int)                 {}
func (r *replayIO) EraseLine(value int)                  {}
func (r *replayIO) SetCursor(row, col int)               {}
func (r *replayIO) SetStyle(mask zmachine.TextStyle)     {}
func (r *replayIO) SetColors(fg, bg zmachine.Color)      {}
func (r *replayIO) StatusBar(bar zmachine.StatusBar)     {}

func (r *replayIO) Play(effect, volume, repeats int, onDone uint16) {}
func (r *replayIO) StopAll()                                        {}
