// Command zvm is the reference command-line front end for the interpreter:
// `run` plays a story interactively, `verify` checks a story file's
// integrity without executing it, and `replay` drives a story through a
// fixed script for regression testing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
