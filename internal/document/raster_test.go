package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestFit_ScalesDownOnly(t *testing.T) {
	w, h := Fit(100, 50, 500, 500)
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	w, h = Fit(1000, 500, 500, 500)
	assert.InDelta(t, 500, w, 0.001)
	assert.InDelta(t, 250, h, 0.001)

	// height is the tighter bound
	w, h = Fit(400, 1000, 500, 500)
	assert.InDelta(t, 200, w, 0.001)
	assert.InDelta(t, 500, h, 0.001)

	w, h = Fit(0, 10, 500, 500)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestDecodeRaster_KeepsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, checker(8, 4)))

	r, err := DecodeRaster("orders.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", r.Format)
	assert.Equal(t, 8, r.Width)
	assert.Equal(t, 4, r.Height)
	assert.Equal(t, buf.Bytes(), r.Data)
}

func TestDecodeRaster_ConvertsBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, checker(6, 3)))

	r, err := DecodeRaster("legacy.bmp", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", r.Format)
	assert.Equal(t, 6, r.Width)
	assert.Equal(t, 3, r.Height)

	_, err = png.Decode(bytes.NewReader(r.Data))
	assert.NoError(t, err)
}

func TestDecodeRaster_RejectsGarbage(t *testing.T) {
	_, err := DecodeRaster("notes.txt", []byte("not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestFitImage_UsesPixelsAsPoints(t *testing.T) {
	img := FitImage(&Raster{Name: "x", Width: 1046, Height: 200}, 523, 700)
	assert.InDelta(t, 523, img.Width, 0.001)
	assert.InDelta(t, 100, img.Height, 0.001)
}
