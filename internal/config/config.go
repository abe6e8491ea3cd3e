package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ailog-cli/ailog/internal/adapter"
)

type Config struct {
	DBPath    string `toml:"db_path"`
	ClaudeDir string `toml:"claude_dir"`
	CodexDir  string `toml:"codex_dir"`
	CursorDir string `toml:"cursor_dir"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dirs := adapter.DefaultDataDirs()
	cfg := &Config{
		DBPath:    filepath.Join(home, ".config", "ailog", "ailog.db"),
		ClaudeDir: dirs.ClaudeCode,
		CodexDir:  dirs.Codex,
		CursorDir: dirs.Cursor,
	}

	cfgPath := filepath.Join(home, ".config", "ailog", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.ClaudeDir = expandHome(cfg.ClaudeDir, home)
	cfg.CodexDir = expandHome(cfg.CodexDir, home)
	cfg.CursorDir = expandHome(cfg.CursorDir, home)

	return cfg, nil
}

// DataDirs maps the configured agent directories into the adapter
// registry's expected shape.
func (c *Config) DataDirs() adapter.DataDirs {
	return adapter.DataDirs{
		ClaudeCode: c.ClaudeDir,
		Codex:      c.CodexDir,
		Cursor:     c.CursorDir,
	}
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
