// Package config loads mergeframes.yml and sets up logging.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/mergeframes/internal/merge"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"gopkg.in/yaml.v3"
)

// Config holds plugin settings loaded from mergeframes.yml.
type Config struct {
	HostURL        string        `yaml:"hostURL,omitempty"`
	ListenAddr     string        `yaml:"listenAddr,omitempty"`
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`

	AlignCoordinates       bool   `yaml:"alignCoordinates,omitempty"`
	DeleteOriginals        bool   `yaml:"deleteOriginals,omitempty"`
	CopyReferencePlacement bool   `yaml:"copyReferencePlacement"`
	NameFormat             string `yaml:"nameFormat,omitempty"`

	SeedFile string `yaml:"seedFile,omitempty"`
	LogFile  string `yaml:"logFile,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HostURL:                "http://127.0.0.1:8765",
		ListenAddr:             "127.0.0.1:8765",
		RequestTimeout:         30 * time.Second,
		CopyReferencePlacement: true,
		NameFormat:             merge.DefaultNameFormat,
		LogLevel:               "info",
	}
}

// Load attempts to read mergeframes.yml or mergeframes.yaml from the given
// directory. Values in the file override Default; a missing file is not an
// error.
func Load(dir string) (*Config, error) {
	cfg := Default()
	for _, name := range []string{"mergeframes.yml", "mergeframes.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return cfg, nil
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.HostURL == "" {
		return errors.New("config: hostURL is required")
	}
	u, err := url.Parse(c.HostURL)
	if err != nil {
		return fmt.Errorf("config: hostURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: hostURL must be http or https, got %q", c.HostURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: requestTimeout must be positive, got %s", c.RequestTimeout)
	}
	if err := merge.ValidateNameFormat(c.NameFormat); err != nil {
		return fmt.Errorf("config: nameFormat: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty value means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: logLevel: %w", err)
	}
	return level, nil
}

// MergeOptions returns the workflow options.
func (c *Config) MergeOptions() merge.Options {
	return merge.Options{
		NameFormat:             c.NameFormat,
		CopyReferencePlacement: c.CopyReferencePlacement,
	}
}

// SettingsDefaults returns the initial toggle values for a session.
func (c *Config) SettingsDefaults() settings.Snapshot {
	return settings.Snapshot{
		AlignCoordinates: c.AlignCoordinates,
		DeleteOriginals:  c.DeleteOriginals,
	}
}
