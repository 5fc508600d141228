package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// configPath, if non-empty, takes priority over the standard search
// locations; gridDelta, if positive, and forceBinary, if true, override
// whatever the file set, matching the defaults < file < flags layering stlconv and
// meshinfo both use for their --config/--grid-delta/--force-binary flags.
func Load(configPath string, gridDelta float32, forceBinary bool) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if gridDelta > 0 {
		cfg.IO.GridDelta = gridDelta
	}
	if forceBinary {
		cfg.IO.ForceBinaryDecode = true
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "draco")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "draco")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "draco")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "draco")
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
