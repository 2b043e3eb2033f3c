// =============================================================================
// In-flight Payment Sender - Configuration Module
// =============================================================================
//
// This module loads the application configuration and resolves the target
// environment to an API endpoint.
//
// CONFIGURATION FILE (config.yaml, optional):
//   host: myhostname.com
//   reports_dir: reports
//   log_file: reports/cli_paymentdata.log
//   log_level: info
//   request_timeout: 30s
//   csv_settings:
//     delimiter: ";"
//   reports:
//     workbook: true
//     metrics: true
//
// ENVIRONMENTS:
//   dev, test -> https://{env}.{host}/v1/customers/
//   prod      -> https://{host}/v1/customers/
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when --config is not given. It may be absent.
const DefaultConfigFile = "config.yaml"

// DefaultEnvironment is used when --env is not given.
const DefaultEnvironment = "dev"

// ErrUnsupportedEnvironment is returned for any environment other than dev,
// test or prod.
var ErrUnsupportedEnvironment = errors.New("unsupported environment")

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// Host is the API host name. Non-production environments are served from
	// a subdomain named after the environment.
	// Default: "myhostname.com"
	Host string `yaml:"host"`

	// ReportsDir receives the invalid-row reports, the payload snapshot, the
	// workbook and the metrics file. Created if absent.
	// Default: "reports"
	ReportsDir string `yaml:"reports_dir"`

	// LogFile is the plain-text run log.
	// Default: "<reports_dir>/cli_paymentdata.log"
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// RequestTimeout bounds the upsert call.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CSVSettings controls how both input files are parsed.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Reports toggles the optional report artifacts.
	Reports ReportSettings `yaml:"reports"`
}

// CSVSettings contains settings for parsing the input files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "semicolon", "comma", "tab", "pipe".
	// Default: ";"
	Delimiter string `yaml:"delimiter"`
}

// ReportSettings toggles optional artifacts. The JSON reports and the payload
// snapshot are always written.
type ReportSettings struct {
	// Workbook writes an .xlsx listing every rejected row with its reason.
	Workbook *bool `yaml:"workbook"`

	// Metrics writes a Prometheus textfile with run counters.
	Metrics *bool `yaml:"metrics"`
}

// WorkbookEnabled reports whether the invalid-rows workbook is written.
func (r ReportSettings) WorkbookEnabled() bool { return r.Workbook == nil || *r.Workbook }

// MetricsEnabled reports whether the metrics textfile is written.
func (r ReportSettings) MetricsEnabled() bool { return r.Metrics == nil || *r.Metrics }

// =============================================================================
// LOADING
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from path.
//
// A missing file is only an error when path is not DefaultConfigFile: the
// default file is optional, an explicitly named one is not.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultConfigFile {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "myhostname.com"
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "reports"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.ReportsDir, "cli_paymentdata.log")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ";"
	}
}

func validate(cfg *Config) error {
	host := strings.TrimSpace(cfg.Host)
	if strings.Contains(host, "://") || strings.Contains(host, "/") {
		return fmt.Errorf("host must be a bare host name, got %q", cfg.Host)
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

// =============================================================================
// ENVIRONMENTS
// =============================================================================

// Environments lists the accepted environment selectors. "prod" is served
// from the bare host, the others from a subdomain.
var Environments = []string{"dev", "test", "prod"}

// ListEnvironments joins the selectors as "a, b or c", quoting each with
// quote (which may be empty).
func ListEnvironments(quote string) string {
	quoted := make([]string, len(Environments))
	for i, env := range Environments {
		quoted[i] = quote + env + quote
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

// EndpointURL returns the upsert endpoint for env.
func (c *Config) EndpointURL(env string) (string, error) {
	if !slices.Contains(Environments, env) {
		return "", &EnvironmentError{Env: env}
	}
	if env == "prod" {
		return fmt.Sprintf("https://%s/v1/customers/", c.Host), nil
	}
	return fmt.Sprintf("https://%s.%s/v1/customers/", env, c.Host), nil
}

// EnvironmentError reports an unsupported environment selector. It matches
// ErrUnsupportedEnvironment with errors.Is.
type EnvironmentError struct {
	Env string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("Environment %s not supported. Please use %s.", e.Env, ListEnvironments("'"))
}

func (e *EnvironmentError) Is(target error) bool {
	return target == ErrUnsupportedEnvironment
}
