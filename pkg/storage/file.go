package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// FileStore serves plain paths and file:// locations.
type FileStore struct{}

func localPath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

func (s *FileStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(localPath(location))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, location)
		}
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	return f, nil
}

// Put writes r to a temp file next to the destination and renames it into place,
// replacing any previous object.
func (s *FileStore) Put(_ context.Context, location string, r io.Reader) error {
	path := localPath(location)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error saving file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing %s: %w", path, err)
	}
	return nil
}

// HasFile reports whether a local path exists.
func HasFile(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
