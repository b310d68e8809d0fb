// Package storage provides file storage backends selected at startup
// by configuration: the local filesystem or an S3-compatible store.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Backend stores and serves uploaded files.
type Backend interface {
	// Save writes content under filename and returns the public URL.
	Save(ctx context.Context, filename string, content []byte, contentType string) (string, error)
	// Delete removes a stored file and reports whether it existed.
	Delete(ctx context.Context, filename string) (bool, error)
	// URL returns the public URL for a stored file.
	URL(filename string) string
}

// Validator enforces the configured upload constraints.
type Validator struct {
	MaxSize    int64
	Extensions []string
}

// Validate checks size and extension, returning a descriptive error
// for rejected files.
func (v *Validator) Validate(filename string, size int64) error {
	if size > v.MaxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size of %d bytes", size, v.MaxSize)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range v.Extensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("file extension %q not allowed", ext)
}

// UniqueFilename generates a collision-free name preserving the
// original extension.
func UniqueFilename(original string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(original))
}
