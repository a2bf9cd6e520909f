package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/lilith-launcher/internal/logger"
	"github.com/oshokin/lilith-launcher/internal/version"
)

// Config holds the launcher settings. Every field has a built-in default,
// so the launcher runs without any settings file at all.
type Config struct {
	// VersionsURL is the endpoint returning metadata of the latest release.
	VersionsURL string `yaml:"versions_url"`
	// DataDirName is the directory under the user's home holding artifacts.
	DataDirName string `yaml:"data_dir_name"`
	// UserAgent is sent with every artifact download.
	UserAgent string `yaml:"user_agent"`
	// Timeout bounds the version check and the download. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRelaunchDepth caps how many launcher generations may relaunch in a row.
	MaxRelaunchDepth int `yaml:"max_relaunch_depth"`
	// LogLevel is the minimum level of diagnostic messages.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultVersionsURL is where the release metadata is served.
	DefaultVersionsURL = "http://localhost:8080/versions/latest"

	// DefaultDataDirName is the per-user directory name for downloaded artifacts.
	DefaultDataDirName = "lilith"

	// DefaultMaxRelaunchDepth stops a launcher that keeps failing to start its artifact.
	DefaultMaxRelaunchDepth = 3

	// DefaultLogLevel keeps diagnostic output out of the progress display.
	DefaultLogLevel = "warn"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errVersionsURLRequired is returned when the versions endpoint is blank.
	errVersionsURLRequired = errors.New("versions url must be provided")
	// errBadDataDirName is returned when the data directory name is not a single path element.
	errBadDataDirName = errors.New("data directory name must be a single path element")
	// errNegativeValue is returned for negative timeouts or relaunch depths.
	errNegativeValue = errors.New("value must not be negative")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// DefaultUserAgent identifies this launcher to the download server.
func DefaultUserAgent() string {
	return "Lilith Launcher v" + version.Major()
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		VersionsURL:      DefaultVersionsURL,
		DataDirName:      DefaultDataDirName,
		UserAgent:        DefaultUserAgent(),
		MaxRelaunchDepth: DefaultMaxRelaunchDepth,
		LogLevel:         DefaultLogLevel,
	}
}

// Load returns the defaults when path is empty; otherwise it reads the YAML
// file at path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the provided settings and fills blank optional fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.VersionsURL) == "" {
		return errVersionsURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.VersionsURL); err != nil {
		return fmt.Errorf("invalid versions url: %w", err)
	}

	if cfg.DataDirName == "" {
		cfg.DataDirName = DefaultDataDirName
	}

	if cfg.DataDirName != filepath.Base(cfg.DataDirName) || cfg.DataDirName == "." || cfg.DataDirName == ".." {
		return fmt.Errorf("%q: %w", cfg.DataDirName, errBadDataDirName)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent()
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout %s: %w", cfg.Timeout, errNegativeValue)
	}

	if cfg.MaxRelaunchDepth < 0 {
		return fmt.Errorf("max relaunch depth %d: %w", cfg.MaxRelaunchDepth, errNegativeValue)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errUnknownLogLevel)
	}

	return nil
}
