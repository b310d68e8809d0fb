package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorAcceptsAllowedFiles(t *testing.T) {
	v := &Validator{MaxSize: 1024, Extensions: []string{"jpg", "png", "pdf"}}

	assert.NoError(t, v.Validate("photo.jpg", 512))
	assert.NoError(t, v.Validate("photo.JPG", 512), "extension check is case-insensitive")
	assert.NoError(t, v.Validate("report.pdf", 1024))
}

func TestValidatorRejections(t *testing.T) {
	v := &Validator{MaxSize: 1024, Extensions: []string{"jpg"}}

	tests := []struct {
		name     string
		filename string
		size     int64
	}{
		{"oversized", "photo.jpg", 2048},
		{"disallowed extension", "script.exe", 10},
		{"no extension", "README", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.Validate(tt.filename, tt.size))
		})
	}
}

func TestUniqueFilename(t *testing.T) {
	a := UniqueFilename("photo.JPG")
	b := UniqueFilename("photo.JPG")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"), "extension is preserved lowercase: %s", a)
}

func TestLocalSaveDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := backend.Save(ctx, "a1b2.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a1b2.txt", url)
	assert.Equal(t, url, backend.URL("a1b2.txt"))

	data, err := os.ReadFile(filepath.Join(dir, "a1b2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	existed, err := backend.Delete(ctx, "a1b2.txt")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = backend.Delete(ctx, "a1b2.txt")
	require.NoError(t, err)
	assert.False(t, existed, "deleting a missing file is not an error")
}

func TestLocalSaveStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = backend.Save(context.Background(), "../escape.txt", []byte("x"), "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err, "file lands inside the upload dir")

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(err), "no file outside the upload dir")
}

func TestLocalCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
