package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvConfigPath overrides the location of config.toml.
const EnvConfigPath = "REC2CSV_CONFIG"

type Config struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`
	Editor   string `toml:"editor"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfgPath := os.Getenv(EnvConfigPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "rec2csv", "config.toml")
	}
	return LoadFile(cfgPath, home)
}

// LoadFile reads cfgPath over the defaults. A missing file is not an error.
func LoadFile(cfgPath, home string) (*Config, error) {
	cfg := &Config{
		DBPath:   filepath.Join(home, ".config", "rec2csv", "rec2csv.db"),
		LogLevel: "info",
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	return cfg, nil
}

// EditorCommand returns the configured editor, then $EDITOR, then less.
func (c *Config) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "less"
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
