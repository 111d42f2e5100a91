package diagram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func testDiagram() (*model.Model, *model.Diagram) {
	m := model.New("Shop")
	order := m.NewClass(m, "Order")
	line := m.NewClass(m, "OrderLine")
	d := m.NewDiagram(m, model.DiagramClass, "Orders overview", order, line)
	return m, d
}

func TestFileRenderer_ReadsNamedImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.png"), pngBytes(t, 20, 10), 0644))

	_, d := testDiagram()
	d.Image = "orders.png"

	r, err := (&FileRenderer{Dir: dir, Scale: 2}).Render(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 40, r.Width)
	assert.Equal(t, 20, r.Height)

	d.Image = "missing.png"
	r, err = (&FileRenderer{Dir: dir}).Render(context.Background(), d)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestCatalog_MatchesByNormalizedName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exports", ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exports", "orders_overview.png"), pngBytes(t, 8, 8), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exports", ".git", "access.png"), pngBytes(t, 8, 8), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	c := NewCatalog(dir, 1, nil)
	require.NoError(t, c.Scan())
	assert.Equal(t, 1, c.Len())

	m, d := testDiagram()
	r, err := c.Render(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "orders_overview.png", r.Name)

	other := m.NewDiagram(m, model.DiagramUseCase, "Access")
	r, err = c.Render(context.Background(), other)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestStoreRenderer_LoadsSavedImage(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveModel(ctx, &model.Document{SchemaVersion: "1", Name: "Shop"}))
	require.NoError(t, store.SaveImage(ctx, "Shop", "Orders overview", pngBytes(t, 12, 6)))

	_, d := testDiagram()
	r, err := (&StoreRenderer{Store: store, Model: "Shop"}).Render(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 12, r.Width)

	d.Name = "Elsewhere"
	r, err = (&StoreRenderer{Store: store, Model: "Shop"}).Render(ctx, d)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestSchematic_DrawsMembers(t *testing.T) {
	_, d := testDiagram()
	r, err := (&Schematic{}).Render(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "png", r.Format)
	assert.Equal(t, gap+2*(boxWidth+gap), r.Width)

	_, err = png.Decode(bytes.NewReader(r.Data))
	assert.NoError(t, err)

	d.Members = nil
	r, err = (&Schematic{}).Render(context.Background(), d)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestChain_FirstRasterWins(t *testing.T) {
	_, d := testDiagram()
	calls := 0
	none := RendererFunc(func(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
		calls++
		return nil, nil
	})
	broken := RendererFunc(func(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
		calls++
		return nil, errors.New("corrupt file")
	})
	found := RendererFunc(func(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
		calls++
		return &document.Raster{Name: "found", Width: 1, Height: 1}, nil
	})

	r, err := Chain{none, broken, found, none}.Render(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "found", r.Name)
	assert.Equal(t, 3, calls)

	r, err = Chain{none, broken}.Render(context.Background(), d)
	assert.Nil(t, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt file")

	r, err = Chain{none}.Render(context.Background(), d)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestChain_StopsOnExhaustion(t *testing.T) {
	_, d := testDiagram()
	oom := RendererFunc(func(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
		return nil, ErrExhausted
	})
	never := RendererFunc(func(ctx context.Context, d *model.Diagram) (*document.Raster, error) {
		t.Fatal("chain continued after exhaustion")
		return nil, nil
	})
	_, err := Chain{oom, never}.Render(context.Background(), d)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestSources_Renderer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders_overview.png"), pngBytes(t, 30, 10), 0644))

	assert.Empty(t, Sources{}.Renderer())
	assert.Len(t, Sources{Dir: dir, Schematic: true}.Renderer(), 3)

	_, d := testDiagram()
	r, err := Sources{Dir: dir, Schematic: true}.Renderer().Render(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 30, r.Width)

	d.Name = "No image"
	r, err = Sources{Dir: dir, Schematic: true}.Renderer().Render(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "png", r.Format)
	assert.NotEqual(t, 30, r.Width)
}
