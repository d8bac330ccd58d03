package config

import "github.com/lone-faerie/ps2mqtt/log"

// LogConfig is the configuration for daemon logging.
type LogConfig struct {
	Level log.Level `yaml:"level"`
	// Output is where logs are written: "stderr" (default), "stdout",
	// "discard", or a file path.
	Output string `yaml:"output,omitempty"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format,omitempty"`
}
