package storage

import (
	"context"
	"os"
	"path/filepath"
)

// Local stores files on the local filesystem.
type Local struct {
	dir string
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: dir}, nil
}

// Save writes the file under the upload directory.
func (l *Local) Save(_ context.Context, filename string, content []byte, _ string) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return l.URL(filename), nil
}

// Delete removes the file, reporting false when it was already absent.
func (l *Local) Delete(_ context.Context, filename string) (bool, error) {
	path := filepath.Join(l.dir, filepath.Base(filename))
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// URL returns the path under which the web server exposes uploads.
func (l *Local) URL(filename string) string {
	return "/uploads/" + filepath.Base(filename)
}
