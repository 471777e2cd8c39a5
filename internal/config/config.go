package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"leapmotion/internal/leap"
)

const DefaultPath = "./configs/leapmotion.yml"

type LeapConfig struct {
	Runtime     string        `yaml:"runtime"`      // "ws"
	URL         string        `yaml:"url"`          // ws://127.0.0.1:6437/v6.json
	Origin      string        `yaml:"origin"`       // http://localhost/
	DialTimeout time.Duration `yaml:"dial_timeout"` // 5s
	Focused     bool          `yaml:"focused"`
	Background  bool          `yaml:"background"`
	// Gestures lists the gesture types to enable; empty or "all" enables every type.
	Gestures []string `yaml:"gestures"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"` // 127.0.0.1
	Port    int    `yaml:"port"` // 8080
}

type JournalConfig struct {
	Size int `yaml:"size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type Config struct {
	Leap    LeapConfig    `yaml:"leap"`
	Web     WebConfig     `yaml:"web"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
	// Watch reloads the gesture list when the file changes.
	Watch bool `yaml:"watch"`

	// Source is the file the config was read from, or "<defaults>".
	Source string `yaml:"-"`
}

// Load reads path over Defaults. An empty path tries DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultPath
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", candidate, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse yaml %s: %w", candidate, err)
	}
	cfg.Source = candidate

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", candidate, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Leap.Runtime == "" {
		return errors.New("leap.runtime must not be empty")
	}
	if c.Leap.DialTimeout < 0 {
		return errors.New("leap.dial_timeout must not be negative")
	}
	if _, err := c.GestureTypes(); err != nil {
		return err
	}
	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port %d out of range", c.Web.Port)
	}
	if c.Journal.Size <= 0 {
		return errors.New("journal.size must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not supported", c.Log.Format)
	}
	return nil
}

// GestureTypes resolves the configured gesture names. A nil result with no
// error means every type.
func (c *Config) GestureTypes() ([]leap.GestureType, error) {
	if len(c.Leap.Gestures) == 0 {
		return nil, nil
	}
	out := make([]leap.GestureType, 0, len(c.Leap.Gestures))
	for _, name := range c.Leap.Gestures {
		if strings.EqualFold(strings.TrimSpace(name), "all") {
			return nil, nil
		}
		t, err := leap.ParseGestureType(name)
		if err != nil {
			return nil, fmt.Errorf("leap.gestures: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
