package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"umlpdf/internal/crawler"
	"umlpdf/internal/document"
	"umlpdf/internal/inspect"
	"umlpdf/internal/model"
	"umlpdf/internal/selection"
	"umlpdf/internal/server"
	"umlpdf/internal/storage"

	"github.com/spf13/cobra"
)

var (
	treePaths []string
	treeJSON  bool

	validateStrict bool

	importImages string

	inspectText bool
	inspectJSON bool

	serveAddr string
)

var treeCmd = &cobra.Command{
	Use:   "tree <model>",
	Short: "Print the selection tree of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		src, err := openModel(cmd.Context(), cfg, args[0], false)
		if err != nil {
			return err
		}
		defer src.Close()

		tree := selection.Build(src.model)
		if len(treePaths) > 0 {
			if err := selection.SelectPaths(tree, treePaths...); err != nil {
				return err
			}
		}
		if treeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tree.View())
		}
		return selection.Print(os.Stdout, tree)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <model file>",
	Short: "Load a model document and report unresolved references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := model.ReadDocument(args[0])
		if err != nil {
			return err
		}
		m, rep, err := model.Build(doc, model.LoadOptions{})
		if err != nil {
			return err
		}

		fmt.Printf("📦 Model %s: %d elements, %d diagrams\n", m.Name, rep.Elements, len(m.Diagrams))
		for _, st := range rep.Stages {
			fmt.Printf("  %-12s attempted=%d resolved=%d skipped=%d unresolved=%d->%d\n",
				st.Resolver, st.Stats.Attempted, st.Stats.Resolved, st.Stats.Skipped,
				st.UnresolvedBefore, st.UnresolvedAfter)
			if st.Err != nil {
				fmt.Printf("    ⚠️  %v\n", st.Err)
			}
		}
		if len(rep.Unresolved) == 0 {
			fmt.Println("✅ All references resolved")
			return nil
		}
		fmt.Printf("⚠️  %d unresolved references:\n", len(rep.Unresolved))
		for _, r := range rep.Unresolved {
			fmt.Printf("  %s.%s -> %q (%s)\n", r.From, r.Field, r.Target, r.Reason)
		}
		if validateStrict {
			return errors.New("model has unresolved references")
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <model file | directory>",
	Short: "Store model documents and their diagram images in the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := cmd.Context()

		store, err := initStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("🔍 Scanning %s...\n", args[0])
		res, err := crawler.NewCrawler(logger).Scan(args[0], func(path string, doc *model.Document) error {
			if err := store.SaveModel(ctx, doc); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}
			dir := importImages
			if dir == "" {
				dir = filepath.Dir(path)
			}
			saved, err := importDiagramImages(ctx, store, doc, dir, logger)
			if err != nil {
				return err
			}
			fmt.Printf("💾 %s: model %s with %d diagram images\n", path, doc.Name, saved)
			return nil
		})
		if err != nil {
			return err
		}
		for _, path := range res.Skipped {
			fmt.Printf("⚠️  Skipped %s (not a model document)\n", path)
		}
		if res.Models == 0 {
			return errors.New("no model documents found")
		}
		fmt.Printf("✅ Imported %d models into %s\n", res.Models, cfg.Store.DB)
		return nil
	},
}

// importDiagramImages stores the image files referenced by doc's diagrams.
func importDiagramImages(ctx context.Context, store storage.ImageStore, doc *model.Document, dir string, logger *slog.Logger) (int, error) {
	saved := 0
	for _, d := range doc.Diagrams {
		name := d.Image
		if name == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("diagram image not found", "diagram", d.Name, "image", name)
			continue
		}
		if err != nil {
			return saved, err
		}
		if _, err := document.DecodeRaster(name, data); err != nil {
			logger.Warn("skipping undecodable diagram image", "image", name, "error", err)
			continue
		}
		if err := store.SaveImage(ctx, doc.Name, name, data); err != nil {
			return saved, fmt.Errorf("failed to save image %s: %w", name, err)
		}
		saved++
	}
	return saved, nil
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "Show the metadata and outline of a generated PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := inspect.Read(args[0])
		if err != nil {
			return err
		}
		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}
		if err := inspect.Print(os.Stdout, d); err != nil {
			return err
		}
		if inspectText {
			for i, page := range d.Text {
				fmt.Printf("\n--- page %d ---\n%s\n", i+1, page)
			}
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the model and export API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := initStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		srv, err := server.NewServer(ctx, store, cfg, logger)
		if err != nil {
			return err
		}
		if cfg.Server.APIKey == "" {
			logger.Warn("no API key configured, the API is open")
		}
		fmt.Printf("🌐 Listening on %s\n", cfg.Server.Addr)
		return srv.Run(ctx)
	},
}

func init() {
	treeCmd.Flags().StringSliceVarP(&treePaths, "select", "s", nil, "Mark these tree paths as selected")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Print the tree as JSON")

	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit with an error when references are unresolved")

	importCmd.Flags().StringVar(&importImages, "images", "", "Directory with diagram images (default: the model file's directory)")

	inspectCmd.Flags().BoolVar(&inspectText, "text", false, "Also print the text of every page")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print as JSON")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
