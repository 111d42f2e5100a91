package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"umlpdf/internal/config"
	"umlpdf/internal/model"
	"umlpdf/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "umlpdf",
		Short:         "Export UML models to PDF reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the model database (SQLite); overrides store.db")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Store.DB = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// initStore opens the model database, creating its directory.
func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if err := ensureDir(cfg.Store.DB); err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(cfg.Store.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Store.DB, err)
	}
	return store, nil
}

// source is a model ready for export together with where it came from.
type source struct {
	model  *model.Model
	report *model.LoadReport
	// file is the model document path, empty for stored models
	file  string
	store *storage.SQLiteStore
}

func (s *source) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// openModel loads ref as a model document file when it exists, and
// otherwise as the name of a stored model.
func openModel(ctx context.Context, cfg *config.Config, ref string, strict bool) (*source, error) {
	if _, err := os.Stat(ref); err == nil {
		doc, err := model.ReadDocument(ref)
		if err != nil {
			return nil, err
		}
		m, rep, err := model.Build(doc, model.LoadOptions{Strict: strict})
		if err != nil {
			return nil, err
		}
		return &source{model: m, report: rep, file: ref}, nil
	}

	store, err := initStore(cfg)
	if err != nil {
		return nil, err
	}
	doc, err := store.LoadModel(ctx, ref)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("no model file or stored model named %q: %w", ref, err)
	}
	m, rep, err := model.Build(doc, model.LoadOptions{Strict: strict})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &source{model: m, report: rep, store: store}, nil
}
