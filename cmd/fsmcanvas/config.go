package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds persistent editor settings, read from ~/.fsmcanvas.toml.
type Config struct {
	History HistoryConfig `toml:"history"`
	Export  ExportConfig  `toml:"export"`
}

type HistoryConfig struct {
	Limit int `toml:"limit"`
}

type ExportConfig struct {
	Padding  int `toml:"padding"`
	FontSize int `toml:"font_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		History: HistoryConfig{Limit: 80},
		Export:  ExportConfig{Padding: 40, FontSize: 14},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fsmcanvas.toml"
	}
	return filepath.Join(home, ".fsmcanvas.toml")
}

// LoadConfig reads the config file, falling back to defaults when it is
// missing or malformed.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(ConfigPath(), &cfg); err != nil {
		return DefaultConfig()
	}
	if cfg.History.Limit < 1 {
		cfg.History.Limit = 80
	}
	return cfg
}

// SaveConfig writes the config file.
func SaveConfig(cfg Config) error {
	f, err := os.Create(ConfigPath())
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
