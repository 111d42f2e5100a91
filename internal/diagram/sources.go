package diagram

import (
	"log/slog"

	"umlpdf/internal/storage"
)

// Sources describes where diagram images are looked up.
type Sources struct {
	// Dir resolves explicit image fields and is scanned for images named
	// after diagrams.
	Dir string
	// Store holds images uploaded with the model named Model.
	Store storage.ImageStore
	Model string
	Scale float64
	// Schematic draws a placeholder for diagrams without any image.
	Schematic bool
	Logger    *slog.Logger
}

// Renderer chains the configured sources: explicit files, stored images,
// the directory catalog and finally the schematic.
func (s Sources) Renderer() Chain {
	var c Chain
	if s.Dir != "" {
		c = append(c, &FileRenderer{Dir: s.Dir, Scale: s.Scale})
	}
	if s.Store != nil {
		c = append(c, &StoreRenderer{Store: s.Store, Model: s.Model, Scale: s.Scale})
	}
	if s.Dir != "" {
		c = append(c, NewCatalog(s.Dir, s.Scale, s.Logger))
	}
	if s.Schematic {
		c = append(c, &Schematic{Scale: s.Scale})
	}
	return c
}
