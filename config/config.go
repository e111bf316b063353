// Package config loads the interpreter-wide settings the spec leaves to
// the host: default screen dimensions, undo retention, the instruction
// trace sink, and RNG determinism for test runs.
package config

import "github.com/BurntSushi/toml"

type ScreenConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type UndoConfig struct {
	// WarnOnFailedRestore is loaded from the config file, but nothing in the
	// interpreter reads it: RESTORE_UNDO with nothing to restore stores 0
	// without a warning either way.
	WarnOnFailedRestore bool `toml:"warn_on_failed_restore"`
}

type TraceConfig struct {
	// OutputFile is the instruction-trace sink path (trace.go); empty disables it.
	OutputFile string `toml:"output_file"`
}

type RNGConfig struct {
	// Seed, when non-zero, replaces the time-based reseed RANDOM(0) would
	// otherwise perform - for deterministic test runs (spec.md §5).
	Seed uint32 `toml:"seed"`
}

type Config struct {
	Screen ScreenConfig `toml:"screen"`
	Undo   UndoConfig   `toml:"undo"`
	Trace  TraceConfig  `toml:"trace"`
	RNG    RNGConfig    `toml:"rng"`
}

// Default returns working defaults so the config file is optional.
func Default() Config {
	return Config{
		Screen: ScreenConfig{Width: 80, Height: 24},
		Undo:   UndoConfig{WarnOnFailedRestore: false},
		Trace:  TraceConfig{OutputFile: ""},
		RNG:    RNGConfig{Seed: 0},
	}
}

// Load reads a TOML config file at path, starting from Default() so any
// field the file omits keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
