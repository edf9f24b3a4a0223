// Package storage opens and publishes objects by location: s3://bucket/key,
// http(s):// URLs (read-only) and local filesystem paths.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// Store reads and writes whole objects addressed by a location string.
type Store interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Put(ctx context.Context, location string, r io.Reader) error
}

// Mux dispatches each location to the backend for its scheme.
type Mux struct {
	File Store
	HTTP Store
	S3   Store
}

// NewMux returns a Mux with the default backends. The S3 client is created on first use.
func NewMux() *Mux {
	return &Mux{
		File: &FileStore{},
		HTTP: NewHTTPStore(),
		S3:   &S3Store{},
	}
}

// Scheme returns the lower-cased scheme of a location, or "" for plain paths.
func Scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

func (m *Mux) backend(location string) (Store, error) {
	var s Store
	switch Scheme(location) {
	case "", "file":
		s = m.File
	case "http", "https":
		s = m.HTTP
	case "s3":
		s = m.S3
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedScheme, location)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no backend configured for %s", models.ErrUnsupportedScheme, location)
	}
	return s, nil
}

func (m *Mux) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s, err := m.backend(location)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, location)
}

func (m *Mux) Put(ctx context.Context, location string, r io.Reader) error {
	s, err := m.backend(location)
	if err != nil {
		return err
	}
	return s.Put(ctx, location, r)
}

// ParseS3 splits s3://bucket/key into its bucket and key.
func ParseS3(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 location %q", location)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 location %q has no key", location)
	}
	return u.Host, key, nil
}

// Base returns the last path element of a location.
func Base(location string) string {
	loc := strings.TrimRight(location, "/")
	if i := strings.Index(loc, "://"); i >= 0 {
		loc = loc[i+3:]
	}
	if i := strings.IndexAny(loc, "?#"); i >= 0 && Scheme(location) != "" {
		loc = loc[:i]
	}
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
