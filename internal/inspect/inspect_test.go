package inspect

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umlpdf/internal/document"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	w, err := document.NewPDFWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Metadata(document.Metadata{
		Title:   "Shop Model",
		Author:  "Modelling Team",
		Subject: "UML model report",
		Creator: "umlpdf test",
	}))

	first := document.NewChapter("Use Cases", 1)
	login := first.AddSubsection("")
	login.BookmarkTitle = "Login"
	login.Add(&document.Paragraph{Text: "Customer signs in"})
	second := document.NewChapter("Package shop", 2)
	t1 := document.NewTable([]float64{1, 2}, "Name", "Documentation")
	t1.AddRow(document.Text("Basket"), document.Text("holds items"))
	second.Add(t1)

	require.NoError(t, document.Emit(context.Background(), w, []*document.Section{first, second}, document.EmitOptions{}))
	require.NoError(t, w.Close())
	return path
}

func TestRead_Metadata(t *testing.T) {
	doc, err := Read(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, "Shop Model", doc.Title)
	assert.Equal(t, "Modelling Team", doc.Author)
	assert.Equal(t, "UML model report", doc.Subject)
	assert.Equal(t, "umlpdf test", doc.Creator)
	assert.Equal(t, 2, doc.Pages)
	assert.Len(t, doc.Text, 2)
}

func TestRead_Outline(t *testing.T) {
	doc, err := Read(writeSample(t))
	require.NoError(t, err)

	require.Len(t, doc.Outline, 2)
	assert.Equal(t, "Use Cases", doc.Outline[0].Title)
	require.Len(t, doc.Outline[0].Children, 1)
	assert.Equal(t, "Login", doc.Outline[0].Children[0].Title)
	assert.Equal(t, []string{"Use Cases", "Login", "Package shop"}, doc.Titles())
}

func TestRead_Text(t *testing.T) {
	doc, err := Read(writeSample(t))
	require.NoError(t, err)

	assert.True(t, doc.Contains("Basket"))
	assert.True(t, doc.Contains("Customer signs in"))
	assert.False(t, doc.Contains("Checkout"))
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("%PDF-1.4\nnot really a pdf"), 0644))
	_, err = Read(garbage)
	assert.Error(t, err)
}

func TestPrint(t *testing.T) {
	doc := &Document{
		Path:  "out.pdf",
		Pages: 3,
		Title: "Shop",
		Outline: []Entry{
			{Title: "Use Cases", Children: []Entry{{Title: "Login"}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, "Pages:   3")
	assert.Contains(t, out, "Title:   Shop")
	assert.NotContains(t, out, "Author:")
	assert.Contains(t, out, "  - Use Cases\n    - Login\n")
}
