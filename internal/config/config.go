package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/facilityfinder/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "finder.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultAssetsDir is the default directory lazy view assets are read from.
	DefaultAssetsDir = "assets"

	// DefaultMetricsPath is the default path of the Prometheus endpoint.
	DefaultMetricsPath = "/metrics"
)

// Config represents the finder.json configuration.
//
// Every field can be overridden by a FINDER_* environment variable,
// applied after the file is read.
type Config struct {
	// Name is the application name shown in the page title.
	Name string `json:"name,omitempty" env:"FINDER_NAME"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" env:"FINDER_HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" env:"FINDER_PORT"`

	// Base is the path prefix the app is served under ("" or "/" for root).
	Base string `json:"base,omitempty" env:"FINDER_BASE"`

	// CaseSensitive disables case-insensitive matching of literal segments.
	CaseSensitive bool `json:"caseSensitive,omitempty" env:"FINDER_CASE_SENSITIVE"`

	// LoadTimeout bounds each lazy view load (e.g., "5s"). Zero means no limit.
	LoadTimeout Duration `json:"loadTimeout,omitempty" env:"FINDER_LOAD_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown (default: "10s").
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"FINDER_SHUTDOWN_TIMEOUT"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" env:"FINDER_LOG_LEVEL"`

	// Assets configures where lazy views fetch their templates.
	Assets AssetsConfig `json:"assets,omitempty"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing configures OpenTelemetry export.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// AssetsConfig selects the asset source. S3 wins when a bucket is set.
type AssetsConfig struct {
	// Dir is the asset directory, relative to the config file.
	Dir string `json:"dir,omitempty" env:"FINDER_ASSETS_DIR"`

	// Manifest is an optional manifest.json mapping logical to stored names.
	Manifest string `json:"manifest,omitempty" env:"FINDER_ASSETS_MANIFEST"`

	// S3 reads assets from a bucket instead of Dir.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config configures the S3 asset source.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty" env:"FINDER_S3_BUCKET"`
	Prefix    string `json:"prefix,omitempty" env:"FINDER_S3_PREFIX"`
	Region    string `json:"region,omitempty" env:"FINDER_S3_REGION"`
	Endpoint  string `json:"endpoint,omitempty" env:"FINDER_S3_ENDPOINT"`
	PathStyle bool   `json:"pathStyle,omitempty" env:"FINDER_S3_PATH_STYLE"`
}

// Enabled reports whether an S3 bucket is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty" env:"FINDER_METRICS_ENABLED"`
	Path    string `json:"path,omitempty" env:"FINDER_METRICS_PATH"`
}

// TracingConfig configures OTLP/HTTP span export.
type TracingConfig struct {
	// Endpoint is the collector host:port. Empty disables export.
	Endpoint string `json:"endpoint,omitempty" env:"FINDER_TRACING_ENDPOINT"`

	// Insecure uses plain HTTP to the collector.
	Insecure bool `json:"insecure,omitempty" env:"FINDER_TRACING_INSECURE"`

	// SampleRatio is the fraction of traces sampled (default: 1).
	SampleRatio float64 `json:"sampleRatio,omitempty" env:"FINDER_TRACING_SAMPLE_RATIO"`
}

// Duration is a time.Duration written as a string ("5s") in JSON and in
// the environment.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name:            "Facility Finder",
		Host:            DefaultHost,
		Port:            DefaultPort,
		ShutdownTimeout: Duration(10 * time.Second),
		LogLevel:        "info",
		Assets: AssetsConfig{
			Dir: DefaultAssetsDir,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for finder.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path, then applies
// environment overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigMissing).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if err := decode(data, cfg); err != nil {
		return nil, syntaxError(path, data, err)
	}
	cfg.configPath = path

	return cfg.finish()
}

// FromEnv returns the defaults with environment overrides applied, for
// running without a config file.
func FromEnv() (*Config, error) {
	return New().finish()
}

func (c *Config) finish() (*Config, error) {
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// syntaxError reports a JSON decoding error at its line and column.
func syntaxError(path string, data []byte, err error) error {
	e := errors.New(errors.CodeConfigSyntax).Wrap(err)

	var offset int64 = -1
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &se):
		offset = se.Offset
	case stderrors.As(err, &te):
		offset = te.Offset
	}
	if offset < 0 {
		return e.WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	line, col := position(data, offset)
	return e.WithLocation(path, line, col)
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	if col > 1 {
		col--
	}
	return line, col
}

// ApplyEnv overrides fields from FINDER_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New(errors.CodeConfigEnv).Wrap(fmt.Errorf("parse env: %w", err))
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = DefaultAssetsDir
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(10 * time.Second)
	}
	c.Base = normalizeBase(c.Base)
}

func normalizeBase(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if c.Port < 1 || c.Port > 65535 {
		return invalid("port must be between 1 and 65535")
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid(err.Error())
	}
	if strings.ContainsAny(c.Base, "?#:") {
		return invalid("base must be a plain path such as /finder")
	}
	if c.LoadTimeout < 0 || c.ShutdownTimeout < 0 {
		return invalid("timeouts must not be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sampleRatio must be between 0 and 1")
	}
	if c.Assets.S3.Enabled() && c.Assets.S3.Region == "" {
		return invalid("assets.s3.region is required when assets.s3.bucket is set")
	}
	return nil
}

// SlogLevel returns the log level as a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logLevel %q", c.LogLevel)
	}
	return level, nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the app's root URL.
func (c *Config) URL() string {
	return "http://" + c.Address() + c.Base + "/"
}

// AssetsPath returns the absolute path to the assets directory.
func (c *Config) AssetsPath() string {
	return c.resolve(c.Assets.Dir)
}

// ManifestPath returns the path to the asset manifest, or "" when unset.
func (c *Config) ManifestPath() string {
	if c.Assets.Manifest == "" {
		return ""
	}
	return c.resolve(c.Assets.Manifest)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// finder.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigMissing).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads finder.json from the working directory or a
// parent. Without a config file it returns the defaults with environment
// overrides.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return FromEnv()
	}

	return Load(root)
}
