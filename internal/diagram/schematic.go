package diagram

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
)

const (
	boxWidth  = 160
	boxHeight = 40
	gap       = 24
	perRow    = 3
	titleBar  = 28
)

var (
	ink    = color.RGBA{0x20, 0x20, 0x20, 0xff}
	paper  = color.White
	shade  = color.RGBA{0xe1, 0xe1, 0xe1, 0xff}
	accent = color.RGBA{0x14, 0x3c, 0xa0, 0xff}
)

// Schematic draws a placeholder overview of a diagram: a title bar and one
// labelled box per member, laid out in rows. It is the last resort when no
// image exists for a diagram.
type Schematic struct {
	Scale float64
	// Empty diagrams produce no raster unless IncludeEmpty is set.
	IncludeEmpty bool
}

func (s *Schematic) Render(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
	if d == nil || (len(d.Members) == 0 && !s.IncludeEmpty) {
		return nil, nil
	}
	face := basicfont.Face7x13
	cols := min(max(len(d.Members), 1), perRow)
	rows := (len(d.Members) + perRow - 1) / perRow
	width := gap + cols*(boxWidth+gap)
	height := titleBar + gap + rows*(boxHeight+gap)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, width, titleBar), image.NewUniform(shade), image.Point{}, draw.Src)

	title := model.DisplayName(d) + " (" + d.Type.Label() + ")"
	text(img, face, fit(face, title, width-16), 8, 19, ink)
	outline(img, img.Bounds(), ink)

	for i, m := range d.Members {
		if i%perRow == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x := gap + (i%perRow)*(boxWidth+gap)
		y := titleBar + gap + (i/perRow)*(boxHeight+gap)
		box := image.Rect(x, y, x+boxWidth, y+boxHeight)
		outline(img, box, accent)
		text(img, face, fit(face, "<"+m.Kind().Label()+">", boxWidth-12), x+6, y+15, accent)
		text(img, face, fit(face, model.DisplayName(m), boxWidth-12), x+6, y+31, ink)
	}

	r, err := document.EncodePNG(d.Name+".png", img)
	if err != nil {
		return nil, err
	}
	return scaled(r, s.Scale), nil
}

func text(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(s)
}

// fit shortens s with a trailing "..." until it is at most width pixels.
func fit(face font.Face, s string, width int) string {
	limit := fixed.I(width)
	if font.MeasureString(face, s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && font.MeasureString(face, string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
