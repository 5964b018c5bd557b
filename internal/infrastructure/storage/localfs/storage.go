package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive keeps raw analyzer responses on disk, one file per analysis run.
// Keys may contain slashes; intermediate directories are created on demand.
type Archive struct {
	basePath string
}

func New(basePath string) (*Archive, error) {
	if basePath == "" {
		basePath = "./data/archive"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{basePath: basePath}, nil
}

func (a *Archive) Save(_ context.Context, key string, data io.Reader) error {
	path := filepath.Join(a.basePath, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive subdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}
