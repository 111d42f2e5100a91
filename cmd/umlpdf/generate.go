package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"umlpdf/internal/config"
	"umlpdf/internal/diagram"
	"umlpdf/internal/report"
	"umlpdf/internal/selection"

	"github.com/spf13/cobra"
)

var genFlags struct {
	output, format, title, author, subject, logo string
	images                                       string
	scale                                        float64
	titlePage, toc, diagrams, schematic          bool
	paths                                        []string
	reportPath                                   string
	saveOptions, strict                          bool
}

var generateCmd = &cobra.Command{
	Use:   "generate <model>",
	Short: "Write the selected parts of a model to a PDF or DOCX report",
	Long: `Write the selected parts of a model to a report.

<model> is a model document (YAML or JSON) or the name of a model stored
with "umlpdf import". Select parts of the model tree with --select, using
the labels "umlpdf tree" prints; without --select everything is exported.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genFlags.output, "output", "o", "", "Output file (.pdf or .docx)")
	f.StringVar(&genFlags.format, "format", "", "Output format: pdf or docx (default from the output extension)")
	f.StringVar(&genFlags.title, "title", "", "Document title")
	f.StringVar(&genFlags.author, "author", "", "Document author")
	f.StringVar(&genFlags.subject, "subject", "", "Document subject")
	f.StringVar(&genFlags.logo, "logo", "", "Image drawn on the title page")
	f.StringVar(&genFlags.images, "images", "", "Directory with diagram images")
	f.Float64Var(&genFlags.scale, "scale", 1, "Scale factor for diagram images")
	f.BoolVar(&genFlags.titlePage, "title-page", true, "Write a title page")
	f.BoolVar(&genFlags.toc, "toc", true, "Write a table of contents")
	f.BoolVar(&genFlags.diagrams, "diagrams", true, "Embed diagram images")
	f.BoolVar(&genFlags.schematic, "schematic", true, "Draw a placeholder for diagrams without an image")
	f.StringSliceVarP(&genFlags.paths, "select", "s", nil, `Tree paths to export, e.g. "Orders/Orders overview" (repeatable)`)
	f.StringVar(&genFlags.reportPath, "report", "", "Write the run report (JSON) to this file")
	f.BoolVar(&genFlags.saveOptions, "save-options", false, "Save the effective report options to the config file")
	f.BoolVar(&genFlags.strict, "strict", false, "Fail when a model reference cannot be resolved")
}

// applyGenerateFlags overrides cfg with the flags given on the command line.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	strs := map[string]*string{
		"output":  &cfg.Report.Output,
		"format":  &cfg.Report.Format,
		"title":   &cfg.Report.Title,
		"author":  &cfg.Report.Author,
		"subject": &cfg.Report.Subject,
		"logo":    &cfg.Report.Logo,
		"images":  &cfg.Diagrams.Images,
	}
	vals := map[string]string{
		"output": genFlags.output, "format": genFlags.format, "title": genFlags.title,
		"author": genFlags.author, "subject": genFlags.subject, "logo": genFlags.logo,
		"images": genFlags.images,
	}
	for name, dst := range strs {
		if f.Changed(name) {
			*dst = vals[name]
		}
	}
	if f.Changed("output") && !f.Changed("format") {
		cfg.Report.Format = string(report.FormatFor(genFlags.output))
	}
	if f.Changed("scale") {
		cfg.Diagrams.Scale = genFlags.scale
	}
	bools := map[string]struct {
		dst *bool
		val bool
	}{
		"title-page": {&cfg.Report.TitlePage, genFlags.titlePage},
		"toc":        {&cfg.Report.TableOfContents, genFlags.toc},
		"diagrams":   {&cfg.Report.Diagrams, genFlags.diagrams},
		"schematic":  {&cfg.Diagrams.Schematic, genFlags.schematic},
	}
	for name, b := range bools {
		if f.Changed(name) {
			*b.dst = b.val
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, cfg)
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📂 Loading model: %s\n", args[0])
	src, err := openModel(ctx, cfg, args[0], genFlags.strict)
	if err != nil {
		return err
	}
	defer src.Close()
	if n := len(src.report.Unresolved); n > 0 {
		fmt.Printf("⚠️  %d unresolved references (run \"umlpdf validate\" for details)\n", n)
	}

	tree := selection.Build(src.model)
	paths := genFlags.paths
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	if err := selection.SelectPaths(tree, paths...); err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	title := cfg.Report.Title
	if title == "" {
		title = src.model.Name
	}

	sources := diagram.Sources{
		Dir:       cfg.Diagrams.Images,
		Scale:     cfg.Diagrams.Scale,
		Schematic: cfg.Diagrams.Schematic,
		Logger:    logger,
	}
	if sources.Dir == "" && src.file != "" {
		sources.Dir = filepath.Dir(src.file)
	}
	if src.store != nil {
		sources.Store = src.store
		sources.Model = src.model.Name
	}

	if err := ensureDir(cfg.Report.Output); err != nil {
		return err
	}
	engine := report.NewEngine(src.model, sources.Renderer(), logger)
	engine.Creator = "umlpdf " + version

	progress := newProgressLine(os.Stderr)
	fmt.Printf("🚀 Generating %s...\n", cfg.Report.Output)
	start := time.Now()
	rep, err := engine.Run(ctx, tree, report.Options{
		Output:          cfg.Report.Output,
		Format:          format,
		Title:           title,
		Author:          cfg.Report.Author,
		Subject:         cfg.Report.Subject,
		Logo:            cfg.Report.Logo,
		TitlePage:       cfg.Report.TitlePage,
		TableOfContents: cfg.Report.TableOfContents,
		Diagrams:        cfg.Report.Diagrams,
		Progress:        progress.Update,
	})
	progress.Done()

	if genFlags.reportPath != "" {
		if serr := rep.Save(genFlags.reportPath); serr != nil {
			logger.Warn("failed to save run report", "path", genFlags.reportPath, "error", serr)
		} else {
			fmt.Printf("📊 Run report: %s\n", genFlags.reportPath)
		}
	}
	if err != nil {
		return err
	}

	for _, s := range rep.Signals {
		if s.Severity == "warning" {
			fmt.Printf("⚠️  %s: %s\n", s.Entity, s.Message)
		}
	}
	fmt.Printf("✅ Wrote %d pages in %v: %s\n", rep.Summary.Pages, time.Since(start).Round(time.Millisecond), cfg.Report.Output)

	if genFlags.saveOptions {
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save options: %w", err)
		}
		fmt.Printf("💾 Options saved to %s\n", configPath)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
