package caching

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
)

// SegmentCache keeps archive segments in a worker-private scratch directory.
// A segment is downloaded only when its local copy does not exist yet.
type SegmentCache struct {
	path  string
	store storage.Store
}

// NewSegmentCache creates a new SegmentCache instance.
// The cache path will be created if it doesn't exist.
func NewSegmentCache(path string, store storage.Store) (*SegmentCache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &SegmentCache{
		path:  path,
		store: store,
	}, nil
}

// key prefixes the segment's base name with a short hash of its location so that
// segments sharing a file name in different prefixes do not collide.
func (c *SegmentCache) key(location string) string {
	hash := sha256.Sum256([]byte(location))
	return fmt.Sprintf("%x-%s", hash[:6], storage.Base(location))
}

// Path returns the local path used for a segment location.
func (c *SegmentCache) Path(location string) string {
	return filepath.Join(c.path, c.key(location))
}

// Fetch returns the local path of a segment, downloading it when absent.
// The returned size is the number of bytes downloaded, 0 on a cache hit.
func (c *SegmentCache) Fetch(ctx context.Context, location string) (string, int64, error) {
	filePath := c.Path(location)
	if storage.HasFile(filePath) {
		return filePath, 0, nil
	}

	rc, err := c.store.Open(ctx, location)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open segment: %w", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(c.path, ".download-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, rc)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to download segment: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return "", 0, fmt.Errorf("failed to move segment into scratch: %w", err)
	}
	return filePath, n, nil
}

// Release removes a local segment copy. Missing files are not an error.
func (c *SegmentCache) Release(filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release segment: %w", err)
	}
	return nil
}
