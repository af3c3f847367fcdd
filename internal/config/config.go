package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	// ErrConfigParse indicates the configuration file exists but could not be read
	ErrConfigParse = errors.New("failed to parse configuration file")

	// ErrConfigInvalid indicates the configuration failed validation
	ErrConfigInvalid = errors.New("configuration validation failed")
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "SCS"

// requiredFields lists the keys every configuration file must define
var requiredFields = map[string][]string{
	"scan_intervals":   {"containers", "dependencies"},
	"alert_thresholds": {"high", "medium", "low"},
}

// requiredSections fixes the order in which sections are validated
var requiredSections = []string{"scan_intervals", "alert_thresholds"}

// Default approved registries
var DefaultApprovedSources = []string{
	"registry.fedex.com",
	"gcr.io/fedex-prod",
	"docker.io/fedex",
}

// Config holds all configuration for the scanner
type Config struct {
	// Scan intervals in seconds, keyed by scan target
	ScanIntervals struct {
		Containers   int `mapstructure:"containers"`
		Dependencies int `mapstructure:"dependencies"`
	} `mapstructure:"scan_intervals"`

	// Alert thresholds per severity. Carried for forward compatibility,
	// no evaluator reads them yet.
	AlertThresholds struct {
		High   float64 `mapstructure:"high"`
		Medium float64 `mapstructure:"medium"`
		Low    float64 `mapstructure:"low"`
	} `mapstructure:"alert_thresholds"`

	// ApprovedSources are registry hosts or prefixes allowed as image origins
	ApprovedSources []string `mapstructure:"approved_sources"`

	// OutdatedBaseImages are image references considered outdated
	OutdatedBaseImages []string `mapstructure:"outdated_base_images"`

	// ScanTimeout bounds the wall time of a single evaluator in RunAll
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`

	// Workers is the size of the scan worker pool
	Workers int `mapstructure:"workers"`

	// Logging configuration
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	// Report output configuration
	Report struct {
		OutputDir string `mapstructure:"output_dir"`
		Format    string `mapstructure:"format"`
		JSON      bool   `mapstructure:"json"`
	} `mapstructure:"report"`

	// Source is the file the configuration was read from, empty for defaults
	Source string `mapstructure:"-"`
}

// ScanInterval returns the interval for a scan target
func (c *Config) ScanInterval(target string) time.Duration {
	switch target {
	case "containers":
		return time.Duration(c.ScanIntervals.Containers) * time.Second
	case "dependencies":
		return time.Duration(c.ScanIntervals.Dependencies) * time.Second
	default:
		return 0
	}
}

// Load reads configuration from path. A missing or unreadable file is not an
// error: a warning is logged and defaults are used. A file that can be read
// but not parsed, or lacks required keys, is an error.
func Load(path string, log *logrus.Logger) (*Config, error) {
	if log == nil {
		log = logrus.New()
	}

	v := viper.New()
	setDefaults(v)
	loadEnvVars(v)

	if path == "" || !fileExists(path) {
		log.WithField("path", path).Warning("Config file not found, using defaults")
		return unmarshal(v, "")
	}
	if err := checkReadable(path); err != nil {
		log.WithError(err).WithField("path", path).Warning("Config file unreadable, using defaults")
		return unmarshal(v, "")
	}

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigParse, path, err)
	}

	if err := validateRequired(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshal(v, path)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"path":                  path,
		"containers_interval":   cfg.ScanIntervals.Containers,
		"dependencies_interval": cfg.ScanIntervals.Dependencies,
	}).Debug("Loaded configuration")

	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v, "")
	if err != nil {
		// Defaults are static and always valid
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return cfg
}

// ValidateFile checks that the configuration file at path defines every
// required section and field. Only presence is checked, not value ranges.
func ValidateFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w %s: %v", ErrConfigParse, path, err)
	}
	return validateRequired(v)
}

func unmarshal(v *viper.Viper, source string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Scan intervals (seconds)
	v.SetDefault("scan_intervals.containers", 3600)
	v.SetDefault("scan_intervals.dependencies", 86400)

	// Alert thresholds
	v.SetDefault("alert_thresholds.high", 8)
	v.SetDefault("alert_thresholds.medium", 5)
	v.SetDefault("alert_thresholds.low", 2)

	// Policy
	v.SetDefault("approved_sources", DefaultApprovedSources)
	v.SetDefault("outdated_base_images", []string{})

	// Execution
	v.SetDefault("scan_timeout", "30s")
	v.SetDefault("workers", 3)

	// Logging
	// Empty keeps the level chosen by the LOG_LEVEL environment variable
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "text")

	// Report
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.format", "text")
	v.SetDefault("report.json", false)
}

func loadEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// validateRequired checks that every required key was present in the file
// itself; defaults do not count.
func validateRequired(v *viper.Viper) error {
	result := ValidationResult{}

	for _, section := range requiredSections {
		if !v.InConfig(section) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   section,
				Message: "missing required section",
			})
			continue
		}
		for _, field := range requiredFields[section] {
			key := section + "." + field
			if !v.InConfig(key) {
				result.Errors = append(result.Errors, ValidationError{
					Field:   key,
					Message: "missing required field",
				})
			}
		}
	}

	return result.Err()
}

// Validate checks value ranges and enumerations. Callers that modify a
// loaded configuration should validate it again.
func (c *Config) Validate() error {
	result := ValidationResult{}

	if c.Workers < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "workers",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Workers),
		})
	}

	if c.ScanTimeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "scan_timeout",
			Message: fmt.Sprintf("must be positive, got %s", c.ScanTimeout),
		})
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); c.Logging.Level != "" && err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s", c.Logging.Level),
		})
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unsupported log format: %s", c.Logging.Format),
		})
	}

	switch c.Report.Format {
	case "text", "table":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "report.format",
			Message: fmt.Sprintf("unsupported report format: %s", c.Report.Format),
		})
	}

	for i, src := range c.ApprovedSources {
		if strings.TrimSpace(src) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("approved_sources[%d]", i),
				Message: "approved source cannot be empty",
			})
		}
	}

	return result.Err()
}

// ValidationResult holds validation results
type ValidationResult struct {
	Errors []ValidationError
}

// Err returns nil when there are no errors, otherwise a single error
// listing every failure
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	var errMsgs []string
	for _, err := range r.Errors {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errMsgs, "; "))
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// checkReadable opens path to confirm it can be read
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
