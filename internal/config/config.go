package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GDAL execution modes.
const (
	ModeAuto   = "auto"
	ModeLocal  = "local"
	ModeDocker = "docker"
)

// DefaultGDALImage is the container image used when GDAL runs in docker mode.
const DefaultGDALImage = "ghcr.io/osgeo/gdal:latest"

// Config holds all opengeo configuration.
type Config struct {
	GDAL       GDALConfig       `yaml:"gdal"`
	Logging    LoggingConfig    `yaml:"logging"`
	Processing ProcessingConfig `yaml:"processing"`
}

// GDALConfig selects how GDAL tools are executed.
type GDALConfig struct {
	Mode    string `yaml:"mode"` // auto, local, docker
	Image   string `yaml:"image"`
	WorkDir string `yaml:"work_dir"` // mounted at /work in docker mode
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// ProcessingConfig tunes batch and pixel processing.
type ProcessingConfig struct {
	Workers int    `yaml:"workers"`
	TempDir string `yaml:"temp_dir"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		GDAL: GDALConfig{
			Mode:  ModeAuto,
			Image: DefaultGDALImage,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Processing: ProcessingConfig{
			Workers: runtime.NumCPU(),
			TempDir: ".opengeo-tmp",
		},
	}
}

// Load reads a YAML config file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if mode := os.Getenv("OPENGEO_GDAL_MODE"); mode != "" {
		c.GDAL.Mode = strings.ToLower(strings.TrimSpace(mode))
	}
	if image := os.Getenv("OPENGEO_GDAL_IMAGE"); image != "" {
		c.GDAL.Image = image
	}
	if level := os.Getenv("OPENGEO_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if dir := os.Getenv("OPENGEO_TEMP_DIR"); dir != "" {
		c.Processing.TempDir = dir
	}
	if workers := os.Getenv("OPENGEO_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Processing.Workers = n
		}
	}
}

// Validate checks the config for values the commands cannot work with.
func (c *Config) Validate() error {
	switch c.GDAL.Mode {
	case ModeAuto, ModeLocal, ModeDocker:
	default:
		return fmt.Errorf("gdal.mode must be one of auto, local, docker (got %q)", c.GDAL.Mode)
	}
	if c.GDAL.Mode == ModeDocker && c.GDAL.Image == "" {
		return fmt.Errorf("gdal.image is required in docker mode")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1")
	}
	if c.Processing.TempDir == "" {
		return fmt.Errorf("processing.temp_dir is required")
	}
	return nil
}
