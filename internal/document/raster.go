package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Raster is an encoded image with its pixel size. Writers accept PNG, JPEG
// and GIF; other decodable formats are converted to PNG by DecodeRaster.
type Raster struct {
	Name   string
	Format string
	Data   []byte
	Width  int
	Height int
}

// DecodeRaster inspects data and returns a raster ready for embedding.
func DecodeRaster(name string, data []byte) (*Raster, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image %s has no pixels", name)
	}
	r := &Raster{Name: name, Format: format, Data: data, Width: cfg.Width, Height: cfg.Height}
	switch format {
	case "png", "jpeg", "gif":
		return r, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return EncodePNG(name, img)
}

// EncodePNG wraps an in-memory image as a PNG raster.
func EncodePNG(name string, img image.Image) (*Raster, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image %s: %w", name, err)
	}
	b := img.Bounds()
	return &Raster{Name: name, Format: "png", Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Fit scales w x h down, never up, to fit in boxW x boxH while keeping the
// aspect ratio. The smaller of the two factors wins.
func Fit(w, h, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := 1.0
	if boxW > 0 && w > boxW {
		scale = boxW / w
	}
	if boxH > 0 && h > boxH {
		if s := boxH / h; s < scale {
			scale = s
		}
	}
	return w * scale, h * scale
}

// FitImage sizes r for a content box, one pixel per point.
func FitImage(r *Raster, boxW, boxH float64) *Image {
	w, h := Fit(float64(r.Width), float64(r.Height), boxW, boxH)
	return &Image{Raster: r, Width: w, Height: h}
}
