package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/model"
	"github.com/Aman-CERP/chatsift/internal/search"
)

// isolateUserConfig points the user config at a fresh directory so tests
// never see the developer's real one.
func isolateUserConfig(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return filepath.Join(xdg, "chatsift", "config.yaml")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "auto", cfg.Provider)
	assert.Equal(t, model.DefaultLimit, cfg.Search.Limit)
	assert.Equal(t, string(model.MatchAny), cfg.Search.MatchMode)
	assert.Equal(t, string(model.SortByScore), cfg.Search.SortBy)
	assert.Equal(t, string(model.SortDesc), cfg.Search.SortOrder)
	assert.Equal(t, search.DefaultSnippetWidth, cfg.Search.SnippetWidth)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Equal(t, "markdown", cfg.Export.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolateUserConfig(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
	assert.Equal(t, "auto", cfg.Provider)
}

func TestLoad_ProjectFileOverrides(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), `
provider: claude
search:
  limit: 25
  sort_by: date
`)

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Provider)
	assert.Equal(t, 25, cfg.Search.Limit)
	assert.Equal(t, "date", cfg.Search.SortBy)
	// Untouched keys keep their defaults.
	assert.Equal(t, string(model.MatchAny), cfg.Search.MatchMode)
	assert.Equal(t, search.DefaultSnippetWidth, cfg.Search.SnippetWidth)
}

func TestLoad_YmlSpellingIsAFallback(t *testing.T) {
	isolateUserConfig(t)

	t.Run("yml alone is read", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, filepath.Join(dir, ".chatsift.yml"), "provider: openai\n")

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Provider)
	})

	t.Run("yaml wins when both exist", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), "provider: claude\n")
		writeConfig(t, filepath.Join(dir, ".chatsift.yml"), "provider: openai\n")

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "claude", cfg.Provider)
	})
}

func TestLoad_PrecedenceChain(t *testing.T) {
	userPath := isolateUserConfig(t)
	writeConfig(t, userPath, `
provider: claude
search:
  limit: 50
  snippet_width: 200
`)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), `
search:
  limit: 100
`)
	t.Setenv("CHATSIFT_SNIPPET_WIDTH", "80")

	cfg, err := Load(dir)

	require.NoError(t, err)
	// User config survives where the project file is silent.
	assert.Equal(t, "claude", cfg.Provider)
	// Project overrides user.
	assert.Equal(t, 100, cfg.Search.Limit)
	// Environment overrides both.
	assert.Equal(t, 80, cfg.Search.SnippetWidth)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("CHATSIFT_PROVIDER", "openai")
	t.Setenv("CHATSIFT_LIMIT", "42")
	t.Setenv("CHATSIFT_MATCH_MODE", "all")
	t.Setenv("CHATSIFT_SORT_BY", "title")
	t.Setenv("CHATSIFT_SORT_ORDER", "asc")
	t.Setenv("CHATSIFT_LOG_LEVEL", "debug")
	t.Setenv("CHATSIFT_COLOR", "never")
	t.Setenv("CHATSIFT_EXPORT_FORMAT", "csv")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 42, cfg.Search.Limit)
	assert.Equal(t, "all", cfg.Search.MatchMode)
	assert.Equal(t, "title", cfg.Search.SortBy)
	assert.Equal(t, "asc", cfg.Search.SortOrder)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, "csv", cfg.Export.Format)
}

func TestLoad_MalformedEnvNumbersAreIgnored(t *testing.T) {
	isolateUserConfig(t)
	t.Setenv("CHATSIFT_LIMIT", "plenty")
	t.Setenv("CHATSIFT_SNIPPET_WIDTH", "-5")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, model.DefaultLimit, cfg.Search.Limit)
	assert.Equal(t, search.DefaultSnippetWidth, cfg.Search.SnippetWidth)
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), "provider: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, sifterrors.ErrCodeConfigInvalid, sifterrors.GetCode(err))
}

func TestLoad_UnknownKeysRejected(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), `
provider: claude
serach:
  limit: 25
`)

	_, err := Load(dir)

	require.Error(t, err, "a typoed section must not silently vanish")
	assert.Equal(t, sifterrors.ErrCodeConfigInvalid, sifterrors.GetCode(err))
	assert.Contains(t, sifterrors.FormatForCLI(err), "serach",
		"the misspelled key is named for the user")
}

func TestLoad_CommentOnlyFileIsEmpty(t *testing.T) {
	isolateUserConfig(t)
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ".chatsift.yaml"), "# everything commented out\n# provider: claude\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Provider)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "gemini" }, "provider"},
		{"limit too small", func(c *Config) { c.Search.Limit = 0 }, "limit"},
		{"limit too large", func(c *Config) { c.Search.Limit = model.MaxLimit + 1 }, "limit"},
		{"unknown match mode", func(c *Config) { c.Search.MatchMode = "most" }, "match mode"},
		{"unknown sort field", func(c *Config) { c.Search.SortBy = "length" }, "sort field"},
		{"unknown sort order", func(c *Config) { c.Search.SortOrder = "sideways" }, "sort order"},
		{"negative snippet width", func(c *Config) { c.Search.SnippetWidth = -1 }, "snippet width"},
		{"unknown color mode", func(c *Config) { c.Output.Color = "sometimes" }, "color"},
		{"negative output width", func(c *Config) { c.Output.Width = -80 }, "width"},
		{"unknown export format", func(c *Config) { c.Export.Format = "xml" }, "export format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, sifterrors.ErrCodeConfigInvalid, sifterrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadFile(t *testing.T) {
	isolateUserConfig(t)

	t.Run("explicit file is honored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		writeConfig(t, path, "provider: claude\n")

		cfg, err := LoadFile(path)

		require.NoError(t, err)
		assert.Equal(t, "claude", cfg.Provider)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))

		require.Error(t, err)
		assert.Equal(t, sifterrors.ErrCodeConfigNotFound, sifterrors.GetCode(err))
	})
}

func TestSave_RoundTrips(t *testing.T) {
	isolateUserConfig(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Provider = "openai"
	cfg.Search.Limit = 77
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.Provider)
	assert.Equal(t, 77, loaded.Search.Limit)
}

func TestGetUserConfigPath_HonorsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "chatsift", "config.yaml"), GetUserConfigPath())
	assert.Equal(t, filepath.Join(xdg, "chatsift"), GetUserConfigDir())
}

func TestMergeWith_StderrFollowsSectionPresence(t *testing.T) {
	base := NewConfig()
	base.Logging.ToStderr = true

	// A config that says nothing about logging leaves the mirror alone.
	base.mergeWith(&Config{Provider: "claude"})
	assert.True(t, base.Logging.ToStderr)

	// One that configures logging may switch it off.
	base.mergeWith(&Config{Logging: LoggingConfig{Level: "debug", ToStderr: false}})
	assert.False(t, base.Logging.ToStderr)
}
