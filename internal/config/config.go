// Package config loads oxidbar settings. Defaults are overlaid by the YAML
// file, then by OXIDBAR_* environment variables; command line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/regimentor/oxidbar/bar"
	"github.com/regimentor/oxidbar/clock"
	"github.com/regimentor/oxidbar/xdg"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. OXIDBAR_LOG_LEVEL.
const EnvPrefix = "OXIDBAR"

type Intervals struct {
	Workspaces time.Duration `yaml:"workspaces" envconfig:"WORKSPACES"`
	Layout     time.Duration `yaml:"layout" envconfig:"LAYOUT"`
	Clock      time.Duration `yaml:"clock" envconfig:"CLOCK"`
	Tray       time.Duration `yaml:"tray" envconfig:"TRAY"`
	Audio      time.Duration `yaml:"audio" envconfig:"AUDIO"`
}

type Config struct {
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// Clock is a strftime pattern.
	Clock string `yaml:"clock" envconfig:"CLOCK"`

	IconDirs    []string `yaml:"icon_dirs" envconfig:"ICON_DIRS"`
	DesktopDirs []string `yaml:"desktop_dirs" envconfig:"DESKTOP_DIRS"`

	// Watcher runs a built-in StatusNotifierWatcher when none is present.
	Watcher bool `yaml:"watcher" envconfig:"WATCHER"`

	// PulseServer is the PulseAudio server address; empty means the default.
	PulseServer string `yaml:"pulse_server" envconfig:"PULSE_SERVER"`

	Intervals Intervals `yaml:"intervals" envconfig:"INTERVALS"`
}

func Default() *Config {
	intervals := bar.DefaultIntervals()

	return &Config{
		LogLevel:    "info",
		Clock:       clock.DefaultPattern,
		IconDirs:    xdg.DefaultIconDirs(),
		DesktopDirs: xdg.DefaultDesktopDirs(),
		Intervals: Intervals{
			Workspaces: intervals.Workspaces,
			Layout:     intervals.Layout,
			Clock:      intervals.Clock,
			Tray:       intervals.Tray,
			Audio:      intervals.Audio,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/oxidbar/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}

	return filepath.Join(dir, "oxidbar", "config.yaml"), nil
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	return nil
}

// Validate rejects intervals that cannot drive a ticker.
func (c *Config) Validate() error {
	for name, interval := range map[string]time.Duration{
		"workspaces": c.Intervals.Workspaces,
		"layout":     c.Intervals.Layout,
		"clock":      c.Intervals.Clock,
		"tray":       c.Intervals.Tray,
		"audio":      c.Intervals.Audio,
	} {
		if interval <= 0 {
			return fmt.Errorf("interval %s must be positive, got %s", name, interval)
		}
	}

	return nil
}

// BarIntervals converts the intervals for [bar.NewRunner].
func (c *Config) BarIntervals() bar.Intervals {
	return bar.Intervals{
		Workspaces: c.Intervals.Workspaces,
		Layout:     c.Intervals.Layout,
		Clock:      c.Intervals.Clock,
		Tray:       c.Intervals.Tray,
		Audio:      c.Intervals.Audio,
	}
}
