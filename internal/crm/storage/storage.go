// Package storage provides the public file backends used for uploaded logos.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

var ErrNotExist = fmt.Errorf("file does not exist")

// Backend stores files under slash separated relative paths.
type Backend interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	Size(ctx context.Context, path string) (int64, error)
	// URL derives the public URL of path without checking it exists.
	URL(path string) string
}

// cleanKey normalises a relative path and strips any attempt to leave the root.
func cleanKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
}

func joinURL(base string, parts ...string) string {
	u := strings.TrimRight(base, "/")
	for _, p := range parts {
		u += "/" + strings.Trim(p, "/")
	}
	return u
}
