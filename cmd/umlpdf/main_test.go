package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlpdf/internal/config"
	"umlpdf/internal/inspect"
)

const shopModel = "../../internal/model/testdata/shop.yaml"

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestApplyGenerateFlags(t *testing.T) {
	t.Cleanup(func() { generateCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false }) })
	require.NoError(t, generateCmd.Flags().Parse([]string{"-o", "out/shop.docx", "--toc=false", "--scale", "0.5"}))

	cfg := config.Default()
	applyGenerateFlags(generateCmd, cfg)
	assert.Equal(t, "out/shop.docx", cfg.Report.Output)
	assert.Equal(t, "docx", cfg.Report.Format)
	assert.False(t, cfg.Report.TableOfContents)
	assert.True(t, cfg.Report.TitlePage)
	assert.Equal(t, 0.5, cfg.Diagrams.Scale)
}

func TestGenerateAndInspect(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "shop.pdf")
	cfgFile := filepath.Join(dir, "umlpdf.yaml")

	err := execute(t, "generate", shopModel,
		"--config", cfgFile,
		"-o", out,
		"--title", "Shop Model",
		"--select", "Orders",
		"--report", filepath.Join(dir, "run.json"),
	)
	require.NoError(t, err)

	d, err := inspect.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "Shop Model", d.Title)
	assert.Contains(t, d.Titles(), "Package Orders")
	assert.NotContains(t, d.Titles(), "Use Cases")
	assert.FileExists(t, filepath.Join(dir, "run.json"))
}

func TestImportAndTree(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "models.db")
	cfgFile := filepath.Join(dir, "umlpdf.yaml")

	require.NoError(t, execute(t, "import", shopModel, "--config", cfgFile, "--db", db))
	require.NoError(t, execute(t, "tree", "Shop", "--config", cfgFile, "--db", db))
	assert.Error(t, execute(t, "tree", "Missing", "--config", cfgFile, "--db", db))
}

func TestValidate(t *testing.T) {
	require.NoError(t, execute(t, "validate", shopModel))
	assert.Error(t, execute(t, "validate", "does-not-exist.yaml"))
}
