package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPDFWriter_LockedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	first, err := NewPDFWriter(path)
	require.NoError(t, err)
	defer first.Abort()

	_, err = NewPDFWriter(path)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = NewDOCXWriter(path)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestWriters_ReleaseLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	w, err := NewPDFWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Paragraph(&Paragraph{Text: "hello"}))
	require.NoError(t, w.Close())
	assert.NoFileExists(t, path+".lock")

	d, err := NewDOCXWriter(path)
	require.NoError(t, err, "a closed writer no longer holds the output")
	require.NoError(t, d.Abort())
	assert.NoFileExists(t, path+".lock")

	again, err := NewPDFWriter(path)
	require.NoError(t, err, "an aborted writer no longer holds the output")
	require.NoError(t, again.Abort())

	_, err = NewPDFWriter(filepath.Join(dir, "missing", "report.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
