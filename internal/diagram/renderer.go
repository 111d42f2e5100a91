package diagram

import (
	"context"
	"errors"
	"fmt"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

// ErrExhausted reports that a renderer ran out of memory or another hard
// resource limit. The engine aborts the run when it sees it.
var ErrExhausted = errors.New("diagram renderer exhausted resources")

// Renderer produces the raster of a diagram. A nil raster with a nil error
// means the diagram has no image.
type Renderer interface {
	Render(ctx context.Context, d *model.Diagram) (*document.Raster, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, d *model.Diagram) (*document.Raster, error)

func (f RendererFunc) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	return f(ctx, d)
}

// Chain asks each renderer in order and returns the first raster. Errors
// of earlier renderers are kept and returned only when no renderer
// produced an image; exhaustion stops the chain at once.
type Chain []Renderer

func (c Chain) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	var errs []error
	for _, r := range c {
		if r == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raster, err := r.Render(ctx, d)
		if errors.Is(err, ErrExhausted) {
			return nil, err
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raster != nil {
			return raster, nil
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to render diagram %q: %w", model.DisplayName(d), errors.Join(errs...))
	}
	return nil, nil
}

// scaled applies a scale factor to the point size of r. The encoded data is
// left as is; writers draw it at the new size.
func scaled(r *document.Raster, scale float64) *document.Raster {
	if r == nil || scale <= 0 || scale == 1 {
		return r
	}
	out := *r
	out.Width = max(1, int(float64(r.Width)*scale))
	out.Height = max(1, int(float64(r.Height)*scale))
	return &out
}
