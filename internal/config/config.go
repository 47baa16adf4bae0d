// Package config loads mog's human-editable configuration: author identity,
// editor/pager, and color preferences, merged from a global file and a
// per-repository override (spec §A.3's ambient configuration layer).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is mog's configuration.
type Config struct {
	User  UserConfig  `json:"user"`
	Core  CoreConfig  `json:"core"`
	Color ColorConfig `json:"color"`
}

// UserConfig holds author identity.
type UserConfig struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CoreConfig holds core mog settings.
type CoreConfig struct {
	Editor string `json:"editor,omitempty"`
	Pager  string `json:"pager,omitempty"`
}

// ColorConfig holds terminal color output preferences.
type ColorConfig struct {
	UI     bool `json:"ui"`
	Status bool `json:"status"`
	Diff   bool `json:"diff"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{},
		Core: CoreConfig{
			Editor: os.Getenv("EDITOR"),
			Pager:  os.Getenv("PAGER"),
		},
		Color: ColorConfig{UI: true, Status: true, Diff: true},
	}
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mogconfig"), nil
}

// repoConfigPath returns the path to the repository config file, rooted at
// root (the repository root, not the .mog directory).
func repoConfigPath(root string) string {
	return filepath.Join(root, ".mog", "config.json")
}

// Load loads configuration from both the global and repository config
// files; the repository config overrides the global one.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath, err := globalConfigPath(); err == nil {
		if data, err := os.ReadFile(globalPath); err == nil {
			var globalCfg Config
			if err := json.Unmarshal(data, &globalCfg); err == nil {
				mergeConfig(cfg, &globalCfg)
			}
		}
	}

	if data, err := os.ReadFile(repoConfigPath(root)); err == nil {
		var repoCfg Config
		if err := json.Unmarshal(data, &repoCfg); err == nil {
			mergeConfig(cfg, &repoCfg)
		}
	}

	return cfg, nil
}

// SaveGlobal writes cfg to the global config file.
func SaveGlobal(cfg *Config) error {
	globalPath, err := globalConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(globalPath, data, 0o644)
}

// SaveRepo writes cfg to <root>/.mog/config.json.
func SaveRepo(root string, cfg *Config) error {
	path := repoConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create .mog directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetValue retrieves a configuration value by dotted key (e.g. "user.name").
func GetValue(root, key string) (string, error) {
	cfg, err := Load(root)
	if err != nil {
		return "", err
	}
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}
	switch section {
	case "user":
		switch field {
		case "name":
			return cfg.User.Name, nil
		case "email":
			return cfg.User.Email, nil
		}
	case "core":
		switch field {
		case "editor":
			return cfg.Core.Editor, nil
		case "pager":
			return cfg.Core.Pager, nil
		}
	case "color":
		switch field {
		case "ui":
			return fmt.Sprintf("%t", cfg.Color.UI), nil
		case "status":
			return fmt.Sprintf("%t", cfg.Color.Status), nil
		case "diff":
			return fmt.Sprintf("%t", cfg.Color.Diff), nil
		}
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// SetValue sets a configuration value by dotted key, persisting to the
// global or repository config file.
func SetValue(root, key, value string, global bool) error {
	var cfg *Config
	var path string
	if global {
		p, err := globalConfigPath()
		if err != nil {
			return err
		}
		path = p
	} else {
		path = repoConfigPath(root)
	}

	if data, err := os.ReadFile(path); err == nil {
		cfg = &Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			cfg = DefaultConfig()
		}
	} else {
		cfg = DefaultConfig()
	}

	section, field, err := splitKey(key)
	if err != nil {
		return err
	}
	switch section {
	case "user":
		switch field {
		case "name":
			cfg.User.Name = value
		case "email":
			cfg.User.Email = value
		default:
			return fmt.Errorf("unknown user config field: %s", field)
		}
	case "core":
		switch field {
		case "editor":
			cfg.Core.Editor = value
		case "pager":
			cfg.Core.Pager = value
		default:
			return fmt.Errorf("unknown core config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			cfg.Color.UI = value == "true"
		case "status":
			cfg.Color.Status = value == "true"
		case "diff":
			cfg.Color.Diff = value == "true"
		default:
			return fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return fmt.Errorf("unknown config section: %s", section)
	}

	if global {
		return SaveGlobal(cfg)
	}
	return SaveRepo(root, cfg)
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}
	return parts[0], parts[1], nil
}

// Author returns the formatted author string "Name <email>" used when
// building commit objects.
func Author(root string) (string, error) {
	cfg, err := Load(root)
	if err != nil {
		return "", err
	}
	if cfg.User.Name == "" || cfg.User.Email == "" {
		return "", fmt.Errorf(`user.name and user.email not configured; run: mog config user.name "Your Name" && mog config user.email "you@example.com"`)
	}
	return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email), nil
}

func mergeConfig(dst, src *Config) {
	if src.User.Name != "" {
		dst.User.Name = src.User.Name
	}
	if src.User.Email != "" {
		dst.User.Email = src.User.Email
	}
	if src.Core.Editor != "" {
		dst.Core.Editor = src.Core.Editor
	}
	if src.Core.Pager != "" {
		dst.Core.Pager = src.Core.Pager
	}
	dst.Color.UI = src.Color.UI
	dst.Color.Status = src.Color.Status
	dst.Color.Diff = src.Color.Diff
}
