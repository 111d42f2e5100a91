package crawler

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"umlpdf/internal/model"
)

// Crawler scans a directory tree for model documents.
type Crawler struct {
	ignored []string
	log     *slog.Logger
}

// Result counts what a scan found.
type Result struct {
	Models  int
	Skipped []string
}

func NewCrawler(log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{
		ignored: []string{".git", ".umlpdf", "vendor", "node_modules"},
		log:     log,
	}
}

// Scan decodes every YAML or JSON model document under root and hands it
// to onModel together with its path. root may also be a single file.
// Files that are not valid model documents are skipped; an error from
// onModel stops the scan.
func (c *Crawler) Scan(root string, onModel func(path string, doc *model.Document) error) (Result, error) {
	var res Result
	info, err := os.Stat(root)
	if err != nil {
		return res, err
	}
	if !info.IsDir() {
		doc, err := model.ReadDocument(root)
		if err != nil {
			return res, err
		}
		res.Models++
		return res, onModel(root, doc)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !isModelFile(d.Name()) {
			return nil
		}

		doc, err := model.ReadDocument(path)
		if err != nil {
			c.log.Debug("skipping file", "path", path, "error", err)
			res.Skipped = append(res.Skipped, path)
			return nil
		}
		res.Models++
		if err := onModel(path, doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
	return res, err
}

func isModelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
