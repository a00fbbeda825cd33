// Package config loads chatsift configuration. Values apply in order of
// increasing precedence: built-in defaults, the user config file, a project
// config file, then CHATSIFT_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/logging"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/search"
)

// Config is the complete chatsift configuration.
type Config struct {
	Version  int           `yaml:"version" json:"version"`
	Provider string        `yaml:"provider" json:"provider"`
	Search   SearchConfig  `yaml:"search" json:"search"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
	Output   OutputConfig  `yaml:"output" json:"output"`
	Export   ExportConfig  `yaml:"export" json:"export"`
}

// SearchConfig sets the search defaults a query starts from. Flags override
// these per invocation.
type SearchConfig struct {
	Limit        int    `yaml:"limit" json:"limit"`
	MatchMode    string `yaml:"match_mode" json:"match_mode"`
	SortBy       string `yaml:"sort_by" json:"sort_by"`
	SortOrder    string `yaml:"sort_order" json:"sort_order"`
	SnippetWidth int    `yaml:"snippet_width" json:"snippet_width"`
}

// LoggingConfig configures the structured log file.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	FilePath   string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	ToStderr   bool   `yaml:"to_stderr" json:"to_stderr"`
}

// OutputConfig configures terminal rendering.
type OutputConfig struct {
	// Color is "auto", "always", or "never".
	Color string `yaml:"color" json:"color"`
	// Width forces a render width; 0 means detect from the terminal.
	Width int `yaml:"width" json:"width"`
}

// ExportConfig configures the export command's defaults.
type ExportConfig struct {
	// Format is "markdown", "json", "csv", or "sqlite".
	Format string `yaml:"format" json:"format"`
	// Directory receives export files; empty means the working directory.
	Directory string `yaml:"directory" json:"directory"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		Provider: "auto",
		Search: SearchConfig{
			Limit:        model.DefaultLimit,
			MatchMode:    string(model.MatchAny),
			SortBy:       string(model.SortByScore),
			SortOrder:    string(model.SortDesc),
			SnippetWidth: search.DefaultSnippetWidth,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Export: ExportConfig{
			Format: "markdown",
		},
	}
}

// GetUserConfigPath returns the user configuration file path following the
// XDG base directory convention: $XDG_CONFIG_HOME/chatsift/config.yaml when
// set, ~/.config/chatsift/config.yaml otherwise.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chatsift", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "chatsift", "config.yaml")
	}
	return filepath.Join(home, ".config", "chatsift", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the effective configuration for a run started in dir:
//  1. built-in defaults
//  2. user config (~/.config/chatsift/config.yaml)
//  3. project config (.chatsift.yaml or .chatsift.yml in dir)
//  4. CHATSIFT_* environment variables
//
// Missing files are fine; the final result is validated.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadProject(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile builds the configuration from one explicit file plus environment
// overrides, for the --config flag. The file must exist.
func LoadFile(path string) (*Config, error) {
	if !fileExists(path) {
		return nil, sifterrors.New(sifterrors.ErrCodeConfigNotFound,
			fmt.Sprintf("config file not found: %s", path), nil).
			WithSuggestion("check the --config path or run without it to use defaults")
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProject merges the project config file, trying .chatsift.yaml first
// and .chatsift.yml as the fallback spelling.
func (c *Config) loadProject(dir string) error {
	for _, name := range []string{".chatsift.yaml", ".chatsift.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML merges one YAML file into c. Absent keys keep their current
// values; keys outside the schema are rejected so typos do not silently
// fall back to defaults.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot read config file %s", path), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var parsed Config
	if err := dec.Decode(&parsed); err != nil {
		// A file of nothing but comments decodes to EOF; that is an
		// empty config, not an error.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse config file %s", path), err).
			WithSuggestion("the file must be valid YAML using only chatsift keys")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies other's non-zero values into c. Booleans merge only when
// a sibling key in the same section was set, since YAML false is
// indistinguishable from absent.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Provider != "" {
		c.Provider = other.Provider
	}

	if other.Search.Limit != 0 {
		c.Search.Limit = other.Search.Limit
	}
	if other.Search.MatchMode != "" {
		c.Search.MatchMode = other.Search.MatchMode
	}
	if other.Search.SortBy != "" {
		c.Search.SortBy = other.Search.SortBy
	}
	if other.Search.SortOrder != "" {
		c.Search.SortOrder = other.Search.SortOrder
	}
	if other.Search.SnippetWidth != 0 {
		c.Search.SnippetWidth = other.Search.SnippetWidth
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxBackups != 0 {
		c.Logging.MaxBackups = other.Logging.MaxBackups
	}
	if other.Logging.Level != "" || other.Logging.FilePath != "" {
		c.Logging.ToStderr = other.Logging.ToStderr
	}

	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Output.Width != 0 {
		c.Output.Width = other.Output.Width
	}

	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.Directory != "" {
		c.Export.Directory = other.Export.Directory
	}
}

// applyEnvOverrides applies CHATSIFT_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHATSIFT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("CHATSIFT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.Limit = n
		}
	}
	if v := os.Getenv("CHATSIFT_MATCH_MODE"); v != "" {
		c.Search.MatchMode = v
	}
	if v := os.Getenv("CHATSIFT_SORT_BY"); v != "" {
		c.Search.SortBy = v
	}
	if v := os.Getenv("CHATSIFT_SORT_ORDER"); v != "" {
		c.Search.SortOrder = v
	}
	if v := os.Getenv("CHATSIFT_SNIPPET_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.SnippetWidth = n
		}
	}
	if v := os.Getenv("CHATSIFT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CHATSIFT_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("CHATSIFT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("CHATSIFT_EXPORT_FORMAT"); v != "" {
		c.Export.Format = v
	}
	if v := os.Getenv("CHATSIFT_EXPORT_DIR"); v != "" {
		c.Export.Directory = v
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case "auto", "openai", "claude":
	default:
		return invalid(fmt.Sprintf("unknown provider %q", c.Provider),
			"valid providers are auto, openai, and claude")
	}

	if c.Search.Limit < model.MinLimit || c.Search.Limit > model.MaxLimit {
		return invalid(fmt.Sprintf("search limit %d out of range [%d, %d]",
			c.Search.Limit, model.MinLimit, model.MaxLimit), "")
	}
	switch model.MatchMode(c.Search.MatchMode) {
	case model.MatchAny, model.MatchAll:
	default:
		return invalid(fmt.Sprintf("unknown match mode %q", c.Search.MatchMode),
			"valid match modes are any and all")
	}
	switch model.SortField(c.Search.SortBy) {
	case model.SortByScore, model.SortByDate, model.SortByTitle, model.SortByMessages:
	default:
		return invalid(fmt.Sprintf("unknown sort field %q", c.Search.SortBy),
			"valid sort fields are score, date, title, and messages")
	}
	switch model.SortOrder(c.Search.SortOrder) {
	case model.SortAsc, model.SortDesc:
	default:
		return invalid(fmt.Sprintf("unknown sort order %q", c.Search.SortOrder),
			"valid sort orders are asc and desc")
	}
	if c.Search.SnippetWidth <= 0 {
		return invalid(fmt.Sprintf("snippet width %d must be positive", c.Search.SnippetWidth), "")
	}

	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return invalid(fmt.Sprintf("unknown color mode %q", c.Output.Color),
			"valid color modes are auto, always, and never")
	}
	if c.Output.Width < 0 {
		return invalid(fmt.Sprintf("output width %d must not be negative", c.Output.Width), "")
	}

	switch c.Export.Format {
	case "markdown", "json", "csv", "sqlite":
	default:
		return invalid(fmt.Sprintf("unknown export format %q", c.Export.Format),
			"valid export formats are markdown, json, csv, and sqlite")
	}

	return nil
}

func invalid(msg, suggestion string) error {
	err := sifterrors.New(sifterrors.ErrCodeConfigInvalid, msg, nil)
	if suggestion != "" {
		return err.WithSuggestion(suggestion)
	}
	return err
}

// Save writes c as YAML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return sifterrors.New(sifterrors.ErrCodeInternal, "cannot marshal config", err)
	}
	return writeConfigFile(path, data)
}

// WriteTemplate writes a config template verbatim, creating parent
// directories as needed.
func WriteTemplate(path, template string) error {
	return writeConfigFile(path, []byte(template))
}

func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot create config directory for %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot write config file %s", path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
