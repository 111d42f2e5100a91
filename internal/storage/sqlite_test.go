package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"umlpdf/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_SaveModel_SnapshotSync(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Initial snapshot: classes A and B.
	first := testDoc("Shop", testClass("a", "A"), testClass("b", "B"))
	require.NoError(t, store.SaveModel(ctx, first))

	// New snapshot: A removed, C added.
	second := testDoc("Shop", testClass("b", "B"), testClass("c", "C"))
	require.NoError(t, store.SaveModel(ctx, second))

	rows, err := store.FindElements(ctx, "Shop", "A")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = store.FindElements(ctx, "Shop", "C")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "class", rows[0].Kind)

	loaded, err := store.LoadModel(ctx, "Shop")
	require.NoError(t, err)
	require.Len(t, loaded.Elements, 2)
	assert.Equal(t, "B", loaded.Elements[0].Name)
	assert.Equal(t, "C", loaded.Elements[1].Name)

	infos, err := store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].Elements)
	assert.NotEmpty(t, infos[0].ContentHash)
}

func TestSQLiteStore_FindElementsByQualifiedName(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	pkg := model.ElementDoc{Kind: "package", Common: model.Common{Name: "Orders"}}
	pkg.Elements = []model.ElementDoc{testClass("order", "Order")}
	require.NoError(t, store.SaveModel(ctx, testDoc("Shop", pkg)))

	rows, err := store.FindElements(ctx, "Shop", "Orders::Order")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Order", rows[0].Name)
}

func TestSQLiteStore_DeleteModelAndImages(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveModel(ctx, testDoc("Shop", testClass("a", "A"))))
	require.NoError(t, store.SaveImage(ctx, "Shop", "main.png", []byte{1, 2, 3}))

	data, err := store.LoadImage(ctx, "Shop", "main.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, store.DeleteModel(ctx, "Shop"))

	_, err = store.LoadModel(ctx, "Shop")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.LoadImage(ctx, "Shop", "main.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func testDoc(name string, elements ...model.ElementDoc) *model.Document {
	return &model.Document{SchemaVersion: "1", Name: name, Elements: elements}
}

func testClass(key, name string) model.ElementDoc {
	return model.ElementDoc{Kind: "class", Common: model.Common{Key: key, Name: name}}
}
