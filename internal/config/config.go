// Package config handles CLI configuration loading for stlconv and meshinfo.
package config

// Config holds settings shared by the core CLIs.
type Config struct {
	IO      IOConfig      `yaml:"io"`
	Logging LoggingConfig `yaml:"logging"`
}

// IOConfig holds decode/encode/quantize defaults.
type IOConfig struct {
	GridDelta         float32 `yaml:"grid_delta"`
	ForceBinaryDecode bool    `yaml:"force_binary_decode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		IO: IOConfig{
			GridDelta:         0.001,
			ForceBinaryDecode: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
