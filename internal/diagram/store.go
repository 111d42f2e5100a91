package diagram

import (
	"context"
	"errors"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/storage"
)

// StoreRenderer loads rasters saved with a model in an image store, keyed by
// the diagram's image field or, without one, its name.
type StoreRenderer struct {
	Store storage.ImageStore
	Model string
	Scale float64
}

func (s *StoreRenderer) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	if s.Store == nil || d == nil {
		return nil, nil
	}
	name := d.Image
	if name == "" {
		name = d.Name
	}
	if name == "" {
		return nil, nil
	}
	data, err := s.Store.LoadImage(ctx, s.Model, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := document.DecodeRaster(name, data)
	if err != nil {
		return nil, err
	}
	return scaled(r, s.Scale), nil
}
