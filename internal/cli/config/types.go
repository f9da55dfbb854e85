// Package config provides configuration management for the uvcalc CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults,
// uvcalc.yaml, UVCALC_* environment variables, explicitly set flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string `koanf:"state_path"`
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	Precision    int    `koanf:"precision"`
	HistoryFile  string `koanf:"history_file"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	ConfigFileName     = "uvcalc.yaml"
	DefaultStateFile   = ".uvcalc/state.db"
	DefaultHistoryFile = ".uvcalc/history"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPrecision   = 4
	MaxPrecision       = 12
	EnvPrefix          = "UVCALC_"
)

// Default returns a Config holding only built-in defaults.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Precision:    DefaultPrecision,
		HistoryFile:  DefaultHistoryFile,
	}
}
