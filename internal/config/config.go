package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"eventcal/internal/duration"
	appLog "eventcal/internal/log"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultMaxInstances   = 10
	defaultTolerance      = 0.01
	defaultLabelNamespace = "eventcal"
	defaultLanguage       = "en"
	defaultLogLevel       = "INFO"
	defaultCalendarName   = "Events"
	defaultProductID      = "-//eventcal//eventcal//EN"
)

// DurationPresets lists the picker presets per unit.
type DurationPresets struct {
	Hours   []float64 `yaml:"hours" json:"hours"`
	Minutes []float64 `yaml:"minutes" json:"minutes"`
	Days    []float64 `yaml:"days" json:"days"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"EVENTCAL_LISTEN"`

	// Timezone is the IANA zone naive date-times are read in. Empty means
	// the process local zone.
	Timezone string `yaml:"timezone" json:"timezone" env:"EVENTCAL_TIMEZONE"`

	// Production switches logging to the JSON encoder.
	Production bool `yaml:"production" json:"production" env:"EVENTCAL_PRODUCTION"`

	LogLevel string `yaml:"log_level" json:"log_level" env:"EVENTCAL_LOG_LEVEL"`

	// MaxInstances bounds occurrence previews when a rule has no COUNT.
	MaxInstances int `yaml:"max_instances" json:"max_instances" env:"EVENTCAL_MAX_INSTANCES"`

	// Tolerance is the float distance under which a duration matches a preset.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" env:"EVENTCAL_TOLERANCE"`

	// LabelNamespace is handed to the label translator.
	LabelNamespace string `yaml:"label_namespace" json:"label_namespace"`

	// Language is the BCP 47 tag Labels are registered under.
	Language string `yaml:"language" json:"language" env:"EVENTCAL_LANGUAGE"`

	// Labels maps an English picker label to its translation.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	Durations DurationPresets `yaml:"durations" json:"durations"`

	// ReloadCron is a cron schedule (e.g. "*/5 * * * *") on which `serve`
	// re-reads this file. Empty disables reloading.
	ReloadCron string `yaml:"reload_cron" json:"reload_cron" env:"EVENTCAL_RELOAD_CRON"`

	CalendarName string `yaml:"calendar_name" json:"calendar_name"`
	ProductID    string `yaml:"product_id" json:"product_id"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

func defaultDurations() DurationPresets {
	return DurationPresets{
		Hours:   []float64{1, 1.5, 2, 3},
		Minutes: []float64{15, 30, 45, 60, 90, 120},
		Days:    []float64{1, 2, 3, 7},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		LogLevel:       defaultLogLevel,
		MaxInstances:   defaultMaxInstances,
		Tolerance:      defaultTolerance,
		LabelNamespace: defaultLabelNamespace,
		Language:       defaultLanguage,
		Durations:      defaultDurations(),
		CalendarName:   defaultCalendarName,
		ProductID:      defaultProductID,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogLevel = string(appLog.ParseLevel(c.LogLevel))
	if c.MaxInstances <= 0 {
		c.MaxInstances = defaultMaxInstances
	}
	if c.Tolerance <= 0 {
		c.Tolerance = defaultTolerance
	}
	if c.LabelNamespace == "" {
		c.LabelNamespace = defaultLabelNamespace
	}
	if c.Language == "" {
		c.Language = defaultLanguage
	}

	defaults := defaultDurations()
	if len(c.Durations.Hours) == 0 {
		c.Durations.Hours = defaults.Hours
	}
	if len(c.Durations.Minutes) == 0 {
		c.Durations.Minutes = defaults.Minutes
	}
	if len(c.Durations.Days) == 0 {
		c.Durations.Days = defaults.Days
	}

	if c.CalendarName == "" {
		c.CalendarName = defaultCalendarName
	}
	if c.ProductID == "" {
		c.ProductID = defaultProductID
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		// Half-configured credentials would lock everyone out.
		c.BasicAuth = nil
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Presets returns the configured picker presets for unit.
func (c *Config) Presets(unit duration.Unit) []float64 {
	switch unit {
	case duration.UnitHours:
		return c.Durations.Hours
	case duration.UnitMinutes:
		return c.Durations.Minutes
	default:
		return c.Durations.Days
	}
}

// Translator builds the label translator for Labels under Language.
// Without labels it is duration.Identity.
func (c *Config) Translator() (duration.Translator, error) {
	if len(c.Labels) == 0 {
		return duration.Identity, nil
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return nil, fmt.Errorf("language %q: %w", c.Language, err)
	}
	tr, err := duration.NewCatalogTranslator(c.LabelNamespace, tag, c.Labels)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// OptionSet builds the duration picker for unit with the configured
// presets, tolerance and labels.
func (c *Config) OptionSet(unit duration.Unit) (*duration.OptionSet, error) {
	tr, err := c.Translator()
	if err != nil {
		return nil, err
	}
	return duration.NewOptionSet(c.Presets(unit), unit,
		duration.WithTolerance(c.Tolerance),
		duration.WithNamespace(c.LabelNamespace),
		duration.WithTranslator(tr),
	), nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded.
//   - EVENTCAL_* environment variables override file values.
//   - Defaults are normalized last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create default config file.
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
		appLog.Info("wrote default config", "path", path)
		if err := applyEnv(cfg); err != nil {
			return cfg, err
		}
		cfg.Normalize()
		return cfg, nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// FromEnv returns the defaults overridden by EVENTCAL_* variables, without
// touching the filesystem.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".eventcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
