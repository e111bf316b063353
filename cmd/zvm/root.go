package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gozm/zvm/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "zvm",
	Short: "A Z-Machine interpreter",
	Long:  "zvm loads and runs Infocom-format Z-Machine story files (versions 1 through 8).",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a zvm.toml config file (optional)")
	rootCmd.AddCommand(runCmd, verifyCmd, replayCmd)
}

func loadConfig() config.Config {
	if configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		cobra.CheckErr(err)
	}
	return cfg
}

func readStory(path string) []byte {
	data, err := os.ReadFile(path)
	cobra.CheckErr(err)
	return data
}
