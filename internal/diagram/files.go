package diagram

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// FileRenderer reads the image a diagram names in its image field,
// relative to Dir.
type FileRenderer struct {
	Dir   string
	Scale float64
}

func (f *FileRenderer) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	if d == nil || d.Image == "" {
		return nil, nil
	}
	path := d.Image
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Dir, path)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := document.DecodeRaster(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	return scaled(r, f.Scale), nil
}

// Catalog indexes the image files under a directory by normalized base name
// so diagrams without an explicit image can be matched by their name.
type Catalog struct {
	root    string
	ignored []string
	scale   float64
	logger  *slog.Logger

	once  sync.Once
	index map[string]string
	err   error
}

func NewCatalog(root string, scale float64, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		root:    root,
		ignored: []string{".git", "node_modules", "vendor"},
		scale:   scale,
		logger:  logger,
	}
}

// CatalogKey normalizes a diagram name or file base name: lower case, with
// spaces, dashes and underscores removed.
func CatalogKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name)
}

// Scan walks the root once and records every image file. The first file
// found for a key wins.
func (c *Catalog) Scan() error {
	c.once.Do(func() {
		c.index = make(map[string]string)
		c.err = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				for _, ign := range c.ignored {
					if d.Name() == ign {
						return filepath.SkipDir
					}
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(d.Name()))
			if !imageExts[ext] {
				return nil
			}
			key := CatalogKey(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
			if _, dup := c.index[key]; dup {
				c.logger.Debug("duplicate diagram image ignored", "path", path)
				return nil
			}
			c.index[key] = path
			return nil
		})
	})
	return c.err
}

// Len is the number of indexed images.
func (c *Catalog) Len() int {
	if err := c.Scan(); err != nil {
		return 0
	}
	return len(c.index)
}

// Path returns the image file matching the diagram, by key first and then
// by name.
func (c *Catalog) Path(d *model.Diagram) (string, bool) {
	if err := c.Scan(); err != nil {
		return "", false
	}
	for _, candidate := range []string{d.Key, d.Name} {
		if candidate == "" {
			continue
		}
		if p, ok := c.index[CatalogKey(candidate)]; ok {
			return p, true
		}
	}
	return "", false
}

func (c *Catalog) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	path, ok := c.Path(d)
	if !ok {
		if c.err != nil {
			return nil, c.err
		}
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := document.DecodeRaster(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	return scaled(r, c.scale), nil
}
