package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "umlpdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
report:
  title: Shop Model
  output: out/shop.docx
  format: docx
  table_of_contents: false
diagrams:
  images: exports/png
  scale: 0.5
server:
  retention: 15m
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Shop Model", cfg.Report.Title)
	assert.Equal(t, "docx", cfg.Report.Format)
	assert.False(t, cfg.Report.TableOfContents)
	assert.True(t, cfg.Report.TitlePage)
	assert.Equal(t, "exports/png", cfg.Diagrams.Images)
	assert.Equal(t, 0.5, cfg.Diagrams.Scale)
	assert.Equal(t, 15*time.Minute, cfg.Server.Retention)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "umlpdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  author: File Author\n"), 0644))
	t.Setenv("UMLPDF_AUTHOR", "Env Author")
	t.Setenv("UMLPDF_ADDR", "127.0.0.1:9000")
	t.Setenv("UMLPDF_SCALE", "2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Env Author", cfg.Report.Author)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 2.0, cfg.Diagrams.Scale)

	t.Setenv("UMLPDF_SCALE", "-1")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "umlpdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report: [unclosed"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSave_RoundTripsWithoutAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Report.Title = "Saved"
	cfg.Report.Diagrams = false
	cfg.Server.APIKey = "secret"
	path := filepath.Join(t.TempDir(), "nested", "umlpdf.yaml")

	require.NoError(t, cfg.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Equal(t, "secret", cfg.Server.APIKey)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Saved", loaded.Report.Title)
	assert.False(t, loaded.Report.Diagrams)
	assert.Equal(t, time.Hour, loaded.Server.Retention)
}
