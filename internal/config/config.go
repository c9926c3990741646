package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/dram/internal/logger"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/recommend"
)

// Config holds dram's settings after defaults, file values and overrides.
type Config struct {
	Catalog         string
	ServiceURL      string
	RequestTimeout  time.Duration
	DefaultMaxPrice int
	UnboundedPrice  string
	UnboundedValue  float64
	LogLevel        string
	LogFormat       string
	LogFile         string
	MetricsAddr     string
	Theme           string
}

// Keys accepted by Config.With, matching the file field names.
const (
	KeyCatalog         = "catalog"
	KeyServiceURL      = "service_url"
	KeyRequestTimeout  = "request_timeout"
	KeyDefaultMaxPrice = "default_max_price"
	KeyUnboundedPrice  = "unbounded_price"
	KeyUnboundedValue  = "unbounded_value"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyLogFile         = "log_file"
	KeyMetricsAddr     = "metrics_addr"
	KeyTheme           = "theme"
)

const (
	defaultConfigPath     = "~/.config/dram/config.toml"
	defaultLogFile        = "~/.local/state/dram/dram.log"
	defaultCatalog        = "whiskey_data.csv"
	defaultRequestTimeout = 10 * time.Second
)

// fileConfig is the on-disk shape shared by the TOML and YAML readers.
type fileConfig struct {
	Catalog         string   `toml:"catalog" yaml:"catalog"`
	ServiceURL      string   `toml:"service_url" yaml:"service_url"`
	RequestTimeout  string   `toml:"request_timeout" yaml:"request_timeout"`
	DefaultMaxPrice *int     `toml:"default_max_price" yaml:"default_max_price"`
	UnboundedPrice  string   `toml:"unbounded_price" yaml:"unbounded_price"`
	UnboundedValue  *float64 `toml:"unbounded_value" yaml:"unbounded_value"`
	LogLevel        string   `toml:"log_level" yaml:"log_level"`
	LogFormat       string   `toml:"log_format" yaml:"log_format"`
	LogFile         string   `toml:"log_file" yaml:"log_file"`
	MetricsAddr     string   `toml:"metrics_addr" yaml:"metrics_addr"`
	Theme           string   `toml:"theme" yaml:"theme"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Catalog:         defaultCatalog,
		ServiceURL:      recommend.DefaultEndpoint,
		RequestTimeout:  defaultRequestTimeout,
		DefaultMaxPrice: price.Default,
		UnboundedPrice:  string(recommend.UnboundedInfinity),
		UnboundedValue:  recommend.DefaultUnboundedValue,
		LogLevel:        "info",
		LogFormat:       logger.FormatConsole,
		LogFile:         mustExpand(defaultLogFile),
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields Default. Files ending in .yaml or .yml are read
// as YAML, everything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = toml.Unmarshal(data, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.merge(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) error {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.Catalog, raw.Catalog)
	set(&c.ServiceURL, raw.ServiceURL)
	set(&c.UnboundedPrice, raw.UnboundedPrice)
	set(&c.LogLevel, raw.LogLevel)
	set(&c.LogFormat, raw.LogFormat)
	set(&c.MetricsAddr, raw.MetricsAddr)
	set(&c.Theme, raw.Theme)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if raw.DefaultMaxPrice != nil {
		c.DefaultMaxPrice = *raw.DefaultMaxPrice
	}
	if raw.UnboundedValue != nil {
		c.UnboundedValue = *raw.UnboundedValue
	}
	return nil
}

// With returns a copy with the given key/value overrides applied. Empty values
// are ignored so unset flags and variables do not clobber the file.
func (c Config) With(overrides map[string]string) (Config, error) {
	for key, value := range overrides {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case KeyCatalog:
			c.Catalog = value
		case KeyServiceURL:
			c.ServiceURL = value
		case KeyRequestTimeout:
			d, err := time.ParseDuration(value)
			if err != nil {
				return Config{}, fmt.Errorf("override %s: %w", key, err)
			}
			c.RequestTimeout = d
		case KeyDefaultMaxPrice:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("override %s: %w", key, err)
			}
			c.DefaultMaxPrice = n
		case KeyUnboundedPrice:
			c.UnboundedPrice = value
		case KeyUnboundedValue:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Config{}, fmt.Errorf("override %s: %w", key, err)
			}
			c.UnboundedValue = f
		case KeyLogLevel:
			c.LogLevel = value
		case KeyLogFormat:
			c.LogFormat = value
		case KeyLogFile:
			c.LogFile = mustExpand(value)
		case KeyMetricsAddr:
			c.MetricsAddr = value
		case KeyTheme:
			c.Theme = value
		default:
			return Config{}, fmt.Errorf("unknown config key %q", key)
		}
	}
	return c, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Catalog) == "" {
		errs = append(errs, errors.New("catalog is empty"))
	}
	if _, err := recommend.ParseUnbounded(c.UnboundedPrice); err != nil {
		errs = append(errs, err)
	}
	if c.UnboundedValue < 0 {
		errs = append(errs, fmt.Errorf("unbounded_value %v is negative", c.UnboundedValue))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout %v must be positive", c.RequestTimeout))
	}
	if c.DefaultMaxPrice < price.Min || c.DefaultMaxPrice > price.Max {
		errs = append(errs, fmt.Errorf("default_max_price %d outside %d..%d", c.DefaultMaxPrice, price.Min, price.Max))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if err := validateServiceURL(c.ServiceURL); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func validateServiceURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("service_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("service_url: missing host")
	}
	return nil
}

// PrefsPath is where the theme preference lives, next to the config file.
func PrefsPath(configPath string) string {
	resolved, err := resolvePath(configPath)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(resolved), "prefs.toml")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
