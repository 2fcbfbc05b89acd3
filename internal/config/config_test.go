package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"catsort/internal/config"
	"catsort/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
store:
  directory: "/srv/catsort/configs"
logging:
  level: debug
  json: true
metrics:
  textfile: "/var/lib/node_exporter/catsort.prom"
watch:
  enabled: true
  debounce_ms: 500
history:
  path: "/srv/catsort/history.db"
  retention_days: 30
templates:
  - name: photos
    description: Camera uploads
    categories:
      - name: Raw
        extensions: [".cr2", "NEF"]
        categorize_by_extension: true
      - name: Jpeg
        extensions: [".jpg"]
    ignore: ["*.xmp"]
`
	invalidSyntaxYAML = `
store:
  directory: "/unterminated
`
	invalidLevelYAML = `
logging:
  level: chatty
`
	duplicateExtensionTemplateYAML = `
templates:
  - name: broken
    categories:
      - name: A
        extensions: [".txt"]
      - name: B
        extensions: [".TXT"]
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "/srv/catsort/configs", cfg.Store.Directory)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Logging.JSON)
		assert.Equal(t, "/var/lib/node_exporter/catsort.prom", cfg.Metrics.Textfile)
		assert.True(t, cfg.Watch.Enabled)
		assert.Equal(t, 500, cfg.Watch.DebounceMS)
		assert.False(t, cfg.History.Disabled)
		assert.Equal(t, "/srv/catsort/history.db", cfg.History.Path)
		assert.Equal(t, 30, cfg.History.RetentionDays)

		require.Len(t, cfg.Templates, 1)
		tpl, ok := cfg.Template("photos")
		require.True(t, ok)
		assert.True(t, tpl.Categories[0].CategorizeByExtension)
		assert.Equal(t, []string{"*.xmp"}, tpl.Ignore)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, 2000, cfg.Watch.DebounceMS)
		assert.Equal(t, 90, cfg.History.RetentionDays)
		assert.Equal(t, "history.db", filepath.Base(cfg.History.Path))
		assert.NotEmpty(t, cfg.Templates)
	})

	t.Run("history can be switched off", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, "history:\n  disabled: true\n"))
		require.NoError(t, err)
		assert.True(t, cfg.History.Disabled)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		assert.ErrorContains(t, err, "error parsing config file")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidLevelYAML))
		assert.ErrorContains(t, err, "invalid logging level")
	})

	t.Run("template violating extension uniqueness", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, duplicateExtensionTemplateYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})
}

func TestDefaultTemplatesAreValid(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.Validate())

	for _, tpl := range cfg.Templates {
		t.Run(tpl.Name, func(t *testing.T) {
			dirCfg, err := tpl.NewDirectoryConfig("/data/" + tpl.Name)
			require.NoError(t, err)
			assert.Equal(t, "/data/"+tpl.Name, dirCfg.Directory)
			assert.True(t, dirCfg.Active)
			assert.False(t, dirCfg.Schedule.Active)
		})
	}
}

func TestTemplateInstancesAreIndependent(t *testing.T) {
	cfg := config.New()
	tpl, ok := cfg.Template("default")
	require.True(t, ok)

	a, err := tpl.NewDirectoryConfig("/a")
	require.NoError(t, err)
	a.Categories[0].Extensions[0] = ".changed"

	b, err := tpl.NewDirectoryConfig("/b")
	require.NoError(t, err)
	assert.Equal(t, ".pdf", b.Categories[0].Extensions[0])
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.NewTestConfig("/tmp/store")
	cfg.Logging.Level = "warn"

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/store", loaded.Store.Directory)
	assert.Equal(t, "warn", loaded.Logging.Level)
	assert.Len(t, loaded.Templates, len(cfg.Templates))
}
