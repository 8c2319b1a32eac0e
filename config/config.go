// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings. Command-line flags override these.
type Config struct {
	ContentDir  string `env:"ADVENTURE_CONTENT_DIR"`
	SaveFile    string `env:"ADVENTURE_SAVE_FILE" envDefault:"save.json"`
	SlotsDB     string `env:"ADVENTURE_SLOTS_DB"`
	Locale      string `env:"ADVENTURE_LOCALE" envDefault:"en"`
	LocalesDir  string `env:"ADVENTURE_LOCALES_DIR"`
	LogLevel    string `env:"ADVENTURE_LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"ADVENTURE_LOG_FORMAT" envDefault:"console"`
	LogFile     string `env:"ADVENTURE_LOG_FILE"`
	FrameMillis int    `env:"ADVENTURE_FRAME_MS" envDefault:"50"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	if c.FrameMillis <= 0 {
		return fmt.Errorf("ADVENTURE_FRAME_MS must be positive, got %d", c.FrameMillis)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
