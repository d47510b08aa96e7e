package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	defaultThreshold    = 0.80
	defaultScanInterval = 50 * time.Millisecond
	defaultCacheSize    = 64

	appDir = "arrow-bot"
)

// Zone is the file representation of one watched zone.
type Zone struct {
	Name     string `json:"name" yaml:"name"`
	X1       int    `json:"x1" yaml:"x1"`
	X2       int    `json:"x2" yaml:"x2"`
	Y        int    `json:"y" yaml:"y"`
	Height   int    `json:"height" yaml:"height"`
	Key      string `json:"key" yaml:"key"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// Config holds runtime configuration for detection and app behavior.
// Fields may be loaded from a JSON or YAML file, then overridden by
// ARROWBOT_* environment variables and command-line flags.
type Config struct {
	Debug     bool   `json:"debug" yaml:"debug"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`

	// Detection parameters
	ColorLower     Triple   `json:"color_lower" yaml:"color_lower"`
	ColorUpper     Triple   `json:"color_upper" yaml:"color_upper"`
	MatchThreshold float64  `json:"match_threshold" yaml:"match_threshold"`
	ScanInterval   Duration `json:"scan_interval" yaml:"scan_interval"`

	// Backends
	CaptureBackend    string `json:"capture_backend" yaml:"capture_backend"`
	InputBackend      string `json:"input_backend" yaml:"input_backend"`
	MatchEngine       string `json:"match_engine" yaml:"match_engine"`
	TemplateCacheSize int    `json:"template_cache_size" yaml:"template_cache_size"`

	Zones []Zone `json:"zones" yaml:"zones"`
}

// DefaultConfig returns a Config populated with standard defaults: a
// saturated-red mask and four arrow lanes.
func DefaultConfig() *Config {
	return &Config{
		Debug:             false,
		LogLevel:          "info",
		LogFormat:         "auto",
		ColorLower:        Triple{0, 100, 100},
		ColorUpper:        Triple{10, 255, 255},
		MatchThreshold:    defaultThreshold,
		ScanInterval:      Duration(defaultScanInterval),
		CaptureBackend:    "screenshot",
		InputBackend:      "system",
		MatchEngine:       "ncc",
		TemplateCacheSize: defaultCacheSize,
		Zones: []Zone{
			{Name: "left", X1: 760, X2: 840, Y: 860, Height: 80, Key: "left"},
			{Name: "down", X1: 860, X2: 940, Y: 860, Height: 80, Key: "down"},
			{Name: "up", X1: 960, X2: 1040, Y: 860, Height: 80, Key: "up"},
			{Name: "right", X1: 1060, X2: 1140, Y: 860, Height: 80, Key: "right"},
		},
	}
}

// Validate clamps/normalizes scalar values to safe ranges. Zone geometry is
// left untouched; the detector rejects bad zones instead of repairing them.
func (c *Config) Validate() error {
	if math.IsNaN(c.MatchThreshold) || c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = defaultThreshold
	}
	if c.ScanInterval.Std() <= 0 {
		c.ScanInterval = Duration(defaultScanInterval)
	}
	if c.TemplateCacheSize <= 0 {
		c.TemplateCacheSize = defaultCacheSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "auto"
	}
	// hue is 0..179
	c.ColorLower[0] = min(c.ColorLower[0], 179)
	c.ColorUpper[0] = min(c.ColorUpper[0], 179)
	for i := 0; i < 3; i++ {
		if c.ColorLower[i] > c.ColorUpper[i] {
			return fmt.Errorf("config: color_lower %v exceeds color_upper %v", c.ColorLower, c.ColorUpper)
		}
	}
	return nil
}

// Load attempts to read configuration from path. The decoder is chosen by
// extension (.yaml/.yml, otherwise JSON). If the file does not exist it
// returns DefaultConfig(). On decode error it returns defaults with the
// error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	// zones decode into fresh elements; json would otherwise merge file
	// zones into the defaults field by field
	defaults := cfg.Zones
	cfg.Zones = nil
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Zones == nil {
		cfg.Zones = defaults
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.resolveTemplates(filepath.Dir(path))
	return cfg, nil
}

// resolveTemplates makes relative template paths relative to the config
// file's directory.
func (c *Config) resolveTemplates(dir string) {
	for i, z := range c.Zones {
		if z.Template != "" && !filepath.IsAbs(z.Template) {
			c.Zones[i].Template = filepath.Join(dir, z.Template)
		}
	}
}

// Save writes the configuration to path, as YAML or indented JSON depending
// on the extension.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ResolvePath returns explicit when set, otherwise the first existing
// arrow-bot/config.{yaml,yml,json} in the XDG config directories, otherwise
// the default location for a new config.yaml.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		if p, err := xdg.SearchConfigFile(filepath.Join(appDir, name)); err == nil {
			return p
		}
	}
	return filepath.Join(xdg.ConfigHome, appDir, "config.yaml")
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARROWBOT_"

// ApplyEnv overrides fields from ARROWBOT_* variables read through lookup
// (os.LookupEnv in production). Invalid values are reported, not ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	if v, ok := get("THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTHRESHOLD: %w", EnvPrefix, err))
		} else {
			c.MatchThreshold = f
		}
	}
	if v, ok := get("SCAN_INTERVAL"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSCAN_INTERVAL: %w", EnvPrefix, err))
		} else {
			c.ScanInterval = d
		}
	}
	if v, ok := get("COLOR_LOWER"); ok {
		t, err := ParseTriple(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOLOR_LOWER: %w", EnvPrefix, err))
		} else {
			c.ColorLower = t
		}
	}
	if v, ok := get("COLOR_UPPER"); ok {
		t, err := ParseTriple(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOLOR_UPPER: %w", EnvPrefix, err))
		} else {
			c.ColorUpper = t
		}
	}
	if v, ok := get("CAPTURE_BACKEND"); ok {
		c.CaptureBackend = v
	}
	if v, ok := get("INPUT_BACKEND"); ok {
		c.InputBackend = v
	}
	if v, ok := get("MATCH_ENGINE"); ok {
		c.MatchEngine = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := get("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEBUG: %w", EnvPrefix, err))
		} else {
			c.Debug = b
		}
	}
	return errors.Join(errs...)
}
