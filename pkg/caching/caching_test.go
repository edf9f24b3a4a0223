package caching

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	data  map[string]string
	opens int
}

func (s *countingStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	s.opens++
	data, ok := s.data[location]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (s *countingStore) Put(context.Context, string, io.Reader) error {
	return errors.New("read-only")
}

func TestSegmentCache_FetchOnlyWhenAbsent(t *testing.T) {
	store := &countingStore{data: map[string]string{"s3://cc/a.warc.gz": "warc-data"}}
	cache, err := NewSegmentCache(filepath.Join(t.TempDir(), "scratch"), store)
	require.NoError(t, err)
	ctx := context.Background()

	path, n, err := cache.Fetch(ctx, "s3://cc/a.warc.gz")
	require.NoError(t, err)
	assert.Equal(t, int64(len("warc-data")), n)
	assert.True(t, strings.HasSuffix(path, "-a.warc.gz"))

	again, n, err := cache.Fetch(ctx, "s3://cc/a.warc.gz")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.opens, "second fetch must be served from scratch")

	require.NoError(t, cache.Release(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, cache.Release(path), "releasing twice is not an error")
}

func TestSegmentCache_FailedDownloadLeavesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	cache, err := NewSegmentCache(dir, &countingStore{})
	require.NoError(t, err)

	_, _, err = cache.Fetch(context.Background(), "s3://cc/missing.warc.gz")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSegmentCache_DistinctLocationsSameName(t *testing.T) {
	cache, err := NewSegmentCache(t.TempDir(), &countingStore{})
	require.NoError(t, err)
	assert.NotEqual(t, cache.Path("s3://a/x/seg.warc.gz"), cache.Path("s3://a/y/seg.warc.gz"))
}
