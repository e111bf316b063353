package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gozm/zvm/cmd/zvm/termui"
	"github.com/gozm/zvm/zmachine"
)

var traceOutputOverride string

var runCmd = &cobra.Command{
	Use:   "run <story>",
	Short: "Play a story file interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		story := readStory(args[0])

		host := termui.New()
		z, err := zmachine.LoadRom(story, host, host)
		if err != nil {
			return err
		}
		z.Windows = host
		z.SaveChooser = host
		z.Sound = host

		if cfg.RNG.Seed != 0 {
			z.SetRNGFixedReseed(cfg.RNG.Seed)
		}

		traceFile := cfg.Trace.OutputFile
		if traceOutputOverride != "" {
			traceFile = traceOutputOverride
		}
		if traceFile != "" {
			closeTrace, err := openTrace(z, traceFile)
			if err != nil {
				return err
			}
			defer closeTrace()
		}

		return host.Run(z, filepath.Base(args[0]))
	},
}

func init() {
	runCmd.Flags().StringVar(&traceOutputOverride, "trace", "", "write an instruction trace to this file")
}
