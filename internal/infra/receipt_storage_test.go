package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReceiptStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	s := NewFileReceiptStorage(dir)

	path, err := s.Save("abc.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	_, err = s.Save("abc.png", []byte("other"))
	assert.Error(t, err, "existing receipts are never overwritten")

	require.NoError(t, s.Remove(path))
	require.NoError(t, s.Remove(path), "removing a missing file is a no-op")
}

func TestFileReceiptStorage_RejectsPaths(t *testing.T) {
	s := NewFileReceiptStorage(t.TempDir())
	for _, name := range []string{"", ".", "..", "../escape.png", `a\b.png`, "sub/x.png"} {
		_, err := s.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}
