// Package config handles gmpaudit configuration loading.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
)

// EnvConfig overrides the config file path.
const EnvConfig = "GMPAUDIT_CONFIG"

// Config is the root configuration structure.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Export   ExportConfig   `yaml:"export"`
	AutoSave AutoSaveConfig `yaml:"autosave"`
	Server   ServerConfig   `yaml:"server"`
	Photos   PhotosConfig   `yaml:"photos"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects where the form is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file or sqlite
	Path    string `yaml:"path"`

	// Encrypt seals sensitive company fields at rest. The key is taken
	// from Key (base64) when set, otherwise from KeyFile.
	Encrypt bool   `yaml:"encrypt"`
	Key     string `yaml:"key,omitempty"`
	KeyFile string `yaml:"key_file"`
}

// ExportConfig holds report defaults.
type ExportConfig struct {
	PageSize           string `yaml:"page_size"`
	Orientation        string `yaml:"orientation"`
	IncludePhotos      bool   `yaml:"include_photos"`
	IncludeEmptyFields bool   `yaml:"include_empty_fields"`
	IncludeSummary     bool   `yaml:"include_summary"`
	OutputDir          string `yaml:"output_dir"`
	LogoPath           string `yaml:"logo_path"`
	CSVDialect         string `yaml:"csv_dialect"`
}

// AutoSaveConfig holds the auto-save debounce.
type AutoSaveConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// PhotosConfig holds photo storage and compression settings.
type PhotosConfig struct {
	Dir           string `yaml:"dir"`
	MaxWidth      int    `yaml:"max_width"`
	Quality       int    `yaml:"quality"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

var (
	validBackends   = []string{"file", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "console"}
)

// DefaultDir returns the per-user gmpaudit directory.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gmpaudit")
	}
	return ".gmpaudit"
}

// Default returns the default configuration.
func Default() *Config {
	base := DefaultDir()
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Path:    filepath.Join(base, "data"),
			KeyFile: filepath.Join(base, "key"),
		},
		Export: ExportConfig{
			PageSize:       string(report.PageA4),
			Orientation:    string(report.Portrait),
			IncludePhotos:  true,
			IncludeSummary: true,
			OutputDir:      ".",
			CSVDialect:     string(report.DialectStandard),
		},
		AutoSave: AutoSaveConfig{
			Delay: time.Second,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Photos: PhotosConfig{
			Dir:           filepath.Join(base, "photos"),
			MaxWidth:      photo.DefaultMaxWidth,
			Quality:       photo.DefaultQuality,
			ThumbnailSize: photo.DefaultThumbnailSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.ConfigWrap(err, werrors.ErrConfigNotFound, "config file not found").
				WithContext("path", path)
		}
		return nil, werrors.ConfigWrap(err, werrors.ErrConfigReadFailed, "failed to read config file").
			WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		werr := werrors.ConfigWrap(err, werrors.ErrConfigParseFailed, "failed to parse config file").
			WithContext("path", path)
		line, col := extractYAMLErrorLocation(err.Error())
		if line > 0 {
			werr.WithContext("line", strconv.Itoa(line))
		}
		if col > 0 {
			werr.WithContext("column", strconv.Itoa(col))
		}
		if typ := extractExpectedType(err.Error()); typ != "" {
			werr.WithContext("expected_type", typ)
		}
		return nil, werr
	}

	if err := cfg.Validate(); err != nil {
		if werr, ok := werrors.AsAuditError(err); ok {
			werr.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every enumerated and numeric setting.
func (c *Config) Validate() error {
	if !isValidOption(strings.ToLower(c.Storage.Backend), validBackends) {
		return invalid("storage.backend", c.Storage.Backend, validBackends)
	}
	if c.Storage.Path == "" {
		return invalid("storage.path", c.Storage.Path, nil)
	}
	if c.Storage.Encrypt && c.Storage.Key == "" && c.Storage.KeyFile == "" {
		return invalid("storage.key_file", "", nil)
	}
	if _, err := report.ParsePageSize(c.Export.PageSize); err != nil {
		return invalid("export.page_size", c.Export.PageSize, []string{"a4", "letter"})
	}
	if _, err := report.ParseOrientation(c.Export.Orientation); err != nil {
		return invalid("export.orientation", c.Export.Orientation, []string{"portrait", "landscape"})
	}
	if _, err := report.ParseCSVDialect(c.Export.CSVDialect); err != nil {
		return invalid("export.csv_dialect", c.Export.CSVDialect, []string{"standard", "excel", "tsv"})
	}
	if c.AutoSave.Delay < 0 {
		return invalid("autosave.delay", c.AutoSave.Delay.String(), nil)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", strconv.Itoa(c.Server.Port), nil)
	}
	if c.Photos.MaxWidth <= 0 {
		return invalid("photos.max_width", strconv.Itoa(c.Photos.MaxWidth), nil)
	}
	if c.Photos.Quality < 1 || c.Photos.Quality > 100 {
		return invalid("photos.quality", strconv.Itoa(c.Photos.Quality), nil)
	}
	if c.Photos.ThumbnailSize <= 0 {
		return invalid("photos.thumbnail_size", strconv.Itoa(c.Photos.ThumbnailSize), nil)
	}
	if !isValidOption(strings.ToLower(c.Log.Level), validLogLevels) {
		return invalid("log.level", c.Log.Level, validLogLevels)
	}
	if !isValidOption(strings.ToLower(c.Log.Format), validLogFormats) {
		return invalid("log.format", c.Log.Format, validLogFormats)
	}
	return nil
}

func invalid(field, value string, options []string) error {
	werr := werrors.Config(werrors.ErrConfigInvalid, fmt.Sprintf("invalid value %q for %s", value, field)).
		WithContext("field", field)
	if len(options) > 0 {
		werr.WithContext("valid_options", strings.Join(options, ", "))
	}
	return werr
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext("path", path)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the config file path: $GMPAUDIT_CONFIG when
// set, otherwise config.yaml in DefaultDir.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), "config.yaml")
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Default().Save(path)
}

// -----------------------------------------------------------------------------
// Derived settings
// -----------------------------------------------------------------------------

// ReportOptions converts the export section into report options.
func (c *Config) ReportOptions() (report.Options, error) {
	opts := report.DefaultOptions()
	size, err := report.ParsePageSize(c.Export.PageSize)
	if err != nil {
		return opts, invalid("export.page_size", c.Export.PageSize, []string{"a4", "letter"})
	}
	orient, err := report.ParseOrientation(c.Export.Orientation)
	if err != nil {
		return opts, invalid("export.orientation", c.Export.Orientation, []string{"portrait", "landscape"})
	}
	opts.PageSize = size
	opts.Orientation = orient
	opts.IncludePhotos = c.Export.IncludePhotos
	opts.IncludeEmptyFields = c.Export.IncludeEmptyFields
	opts.IncludeSummary = c.Export.IncludeSummary
	opts.LogoPath = c.Export.LogoPath
	return opts, nil
}

// CSVConfig returns the CSV writer settings.
func (c *Config) CSVConfig() *report.CSVConfig {
	cfg := report.DefaultCSVConfig()
	if d, err := report.ParseCSVDialect(c.Export.CSVDialect); err == nil {
		cfg.Dialect = d
	}
	return cfg
}

// PhotoOptions returns the compression settings.
func (c *Config) PhotoOptions() photo.Options {
	return photo.Options{
		MaxWidth:      c.Photos.MaxWidth,
		Quality:       c.Photos.Quality,
		ThumbnailSize: c.Photos.ThumbnailSize,
	}
}

// Address returns host:port for the HTTP server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Sealer returns the storage sealer, or nil when encryption is off.
// A missing key file is created.
func (c *Config) Sealer() (*secure.Sealer, error) {
	if !c.Storage.Encrypt {
		return nil, nil
	}
	if c.Storage.Key != "" {
		s, err := secure.NewSealerBase64(c.Storage.Key)
		if err != nil {
			return nil, werrors.ConfigWrap(err, werrors.ErrConfigInvalid, "invalid storage.key").
				WithContext("field", "storage.key")
		}
		return s, nil
	}
	key, err := secure.WriteKeyFile(c.Storage.KeyFile)
	if err != nil {
		return nil, werrors.ConfigWrap(err, werrors.ErrConfigInvalid, "failed to load storage key file").
			WithContext("path", c.Storage.KeyFile)
	}
	s, err := secure.NewSealer(key)
	if err != nil {
		return nil, werrors.ConfigWrap(err, werrors.ErrConfigInvalid, "invalid storage key").
			WithContext("path", c.Storage.KeyFile)
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// YAML error helpers
// -----------------------------------------------------------------------------

var (
	yamlLineCol  = regexp.MustCompile(`line (\d+):(\d+)`)
	yamlLine     = regexp.MustCompile(`line (\d+)`)
	yamlIntoType = regexp.MustCompile(`into \*?([A-Za-z0-9_.\[\]]+)`)
)

// extractYAMLErrorLocation pulls the line and column out of a yaml error
// message. Zero means unknown.
func extractYAMLErrorLocation(msg string) (line, col int) {
	if m := yamlLineCol.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		col, _ = strconv.Atoi(m[2])
		return line, col
	}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	return line, 0
}

// extractExpectedType returns the Go type named in an unmarshal error.
func extractExpectedType(msg string) string {
	if m := yamlIntoType.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}

func isValidOption(value string, options []string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}
