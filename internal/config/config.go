package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDataDir           = "."
	defaultStaticDir         = "static"
	defaultServerAddr        = "0.0.0.0:5000"
	defaultESMFoldURL        = "https://api.esmatlas.com/foldSequence/v1/pdb/"
	defaultHTTPTimeout       = 120 * time.Second
	defaultMaxSequenceLength = 1000
	defaultMaxStructureBytes = 32 << 20
	defaultCleanupInterval   = time.Hour
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultDBFilePermissions = 0666
	defaultDirPermissions    = 0755

	envConfigFile = "CONFIG_FILE"
)

type Config struct {
	DataDir           string        `yaml:"data_dir"`
	StaticDir         string        `yaml:"static_dir"`
	ServerAddr        string        `yaml:"server_addr"`
	ESMFoldURL        string        `yaml:"esmfold_url"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	MaxSequenceLength int           `yaml:"max_sequence_length"`
	MaxStructureBytes int64         `yaml:"max_structure_bytes"`
	Retention         time.Duration `yaml:"retention"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	APIKey            string        `yaml:"api_key"`
	DBFilePermissions os.FileMode   `yaml:"-"`
	DirPermissions    os.FileMode   `yaml:"-"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides anything.
func Default() *Config {
	return &Config{
		DataDir:           defaultDataDir,
		StaticDir:         defaultStaticDir,
		ServerAddr:        defaultServerAddr,
		ESMFoldURL:        defaultESMFoldURL,
		HTTPTimeout:       defaultHTTPTimeout,
		MaxSequenceLength: defaultMaxSequenceLength,
		MaxStructureBytes: defaultMaxStructureBytes,
		CleanupInterval:   defaultCleanupInterval,
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
		DBFilePermissions: defaultDBFilePermissions,
		DirPermissions:    defaultDirPermissions,
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// (or $CONFIG_FILE when path is empty) and finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	stringVars := map[string]*string{
		"DATA_DIR":    &c.DataDir,
		"STATIC_DIR":  &c.StaticDir,
		"SERVER_ADDR": &c.ServerAddr,
		"ESMFOLD_URL": &c.ESMFoldURL,
		"LOG_LEVEL":   &c.LogLevel,
		"LOG_FORMAT":  &c.LogFormat,
		"API_KEY":     &c.APIKey,
	}
	for key, ptr := range stringVars {
		*ptr = getEnvOrDefault(key, *ptr)
	}

	durations := map[string]*time.Duration{
		"HTTP_TIMEOUT":     &c.HTTPTimeout,
		"RETENTION":        &c.Retention,
		"CLEANUP_INTERVAL": &c.CleanupInterval,
	}
	for key, ptr := range durations {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration in %s: %w", key, err)
		}
		*ptr = d
	}

	if value := os.Getenv("MAX_SEQUENCE_LENGTH"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer in MAX_SEQUENCE_LENGTH: %w", err)
		}
		c.MaxSequenceLength = n
	}
	if value := os.Getenv("MAX_STRUCTURE_BYTES"); value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer in MAX_STRUCTURE_BYTES: %w", err)
		}
		c.MaxStructureBytes = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxSequenceLength <= 0 {
		errs = append(errs, fmt.Errorf("max sequence length must be positive, got %d", c.MaxSequenceLength))
	}
	if c.MaxStructureBytes <= 0 {
		errs = append(errs, fmt.Errorf("max structure bytes must be positive, got %d", c.MaxStructureBytes))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.Retention < 0 {
		errs = append(errs, fmt.Errorf("retention must not be negative, got %s", c.Retention))
	}
	if c.Retention > 0 && c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cleanup interval must be positive when retention is set, got %s", c.CleanupInterval))
	}
	if u, err := url.Parse(c.ESMFoldURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid folding endpoint url: %q", c.ESMFoldURL))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", c.LogFormat))
	}
	if c.StaticDir == "" {
		errs = append(errs, errors.New("static dir must not be empty"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "data.db")
}
