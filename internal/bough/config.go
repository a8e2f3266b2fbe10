package bough

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the few knobs the engine and host honor. Everything else
// about repository state lives in git, never here.
type Config struct {
	// DefaultRemote names the remote used for fetch, default-branch
	// resolution and remote deletion. Defaults to origin.
	DefaultRemote string `toml:"default_remote"`
	// EditorCommand opens a directory as a new workspace, e.g. "code".
	// Empty falls back to $BOUGH_EDITOR, then $VISUAL, then $EDITOR.
	EditorCommand string `toml:"editor_command"`
	// DeleteRemote makes `bough rm` delete remote branches by default.
	DeleteRemote bool `toml:"delete_remote"`
}

func DefaultConfig() Config {
	return Config{
		DefaultRemote: "origin",
	}
}

// LoadConfig layers the global config file, then the repo-level
// .bough.toml, then environment overrides, highest priority last.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	globalPath := os.Getenv("BOUGH_CONFIG")
	if globalPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			globalPath = filepath.Join(home, ".config", "bough", "config.toml")
		}
	}
	if globalPath != "" {
		if err := decodeConfigFile(globalPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if repoRoot, err := findGitRoot("."); err == nil {
		if err := decodeConfigFile(filepath.Join(repoRoot, ".bough.toml"), &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func decodeConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// findGitRoot walks up from dir until it finds a directory containing .git.
func findGitRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(abs, ".git")); err == nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not inside a git repository")
		}
		abs = parent
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BOUGH_DEFAULT_REMOTE")); v != "" {
		cfg.DefaultRemote = v
	}
	if v := strings.TrimSpace(os.Getenv("BOUGH_EDITOR_COMMAND")); v != "" {
		cfg.EditorCommand = v
	}
	if v := strings.TrimSpace(os.Getenv("BOUGH_DELETE_REMOTE")); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			cfg.DeleteRemote = true
		case "false", "0", "no", "off":
			cfg.DeleteRemote = false
		}
	}
}
