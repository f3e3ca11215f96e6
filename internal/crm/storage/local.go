package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores files on disk below a root directory that is served publicly
// under <publicURL>/storage.
type Local struct {
	root      string
	publicURL string
}

func NewLocal(root, publicURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Local{root: root, publicURL: publicURL}, nil
}

// Root is the directory files are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) fullPath(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(cleanKey(p)))
}

func (l *Local) Put(_ context.Context, p string, data []byte, _ string) error {
	full := l.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *Local) Get(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(l.fullPath(p))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	info, err := os.Stat(l.fullPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (l *Local) Size(_ context.Context, p string) (int64, error) {
	info, err := os.Stat(l.fullPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNotExist
		}
		return 0, err
	}
	return info.Size(), nil
}

func (l *Local) URL(p string) string {
	return joinURL(l.publicURL, "storage", cleanKey(p))
}
