package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/archive/archivetest"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/caching"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, data []byte, patterns Patterns) ([]models.ArchiveRecord, Stats) {
	t.Helper()
	rd, err := NewReader(bytes.NewReader(data), patterns)
	require.NoError(t, err)
	defer rd.Close()

	var records []models.ArchiveRecord
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		records = append(records, *rec)
	}
	return records, rd.Stats()
}

func mustPatterns(t *testing.T, raw ...string) Patterns {
	t.Helper()
	p, err := CompilePatterns(raw)
	require.NoError(t, err)
	return p
}

func TestReader_FiltersRecordTypesAndMIME(t *testing.T) {
	segment := []archivetest.Record{
		{Type: "warcinfo", Body: "software: test"},
		{Type: "request", URL: "https://a.com/", Body: "GET / HTTP/1.1\r\n\r\n", RawBlock: true},
		{URL: "https://a.com/", Body: "<html>a</html>"},
		{URL: "https://img.com/logo.png", PayloadType: "image/png", Body: "\x89PNG"},
		{URL: "https://b.org/x", PayloadType: "application/xhtml+xml; charset=utf-8", Body: "<html>b</html>"},
		{Type: "metadata", URL: "https://a.com/", Body: "fetchTimeMs: 12"},
	}

	for _, compress := range []bool{false, true} {
		records, stats := readAll(t, archivetest.Build(segment, compress), nil)
		require.Len(t, records, 2, "compress=%v", compress)
		assert.Equal(t, models.ArchiveRecord{Hostname: "a.com", HTML: "<html>a</html>", ContentType: "text/html", URL: "https://a.com/"}, records[0])
		assert.Equal(t, "b.org", records[1].Hostname)
		assert.Equal(t, "application/xhtml+xml", records[1].ContentType)

		assert.Equal(t, 6, stats.Records)
		assert.Equal(t, 2, stats.Emitted)
		assert.Equal(t, 3, stats.Skipped[SkipNotResponse])
		assert.Equal(t, 1, stats.Skipped[SkipNotHTML])
	}
}

func TestReader_NeverEmitsImages(t *testing.T) {
	data := archivetest.Build([]archivetest.Record{
		{URL: "https://x.de/a.png", PayloadType: "image/png", Body: "png"},
		{URL: "https://x.de/b.png", PayloadType: "IMAGE/PNG", Body: "png"},
	}, true)

	records, _ := readAll(t, data, nil)
	assert.Empty(t, records)
}

func TestReader_URLPatternsAreORed(t *testing.T) {
	data := archivetest.Build([]archivetest.Record{
		{URL: "https://x.de/page", Body: "<p>de</p>"},
		{URL: "https://y.fr/page", Body: "<p>fr</p>"},
		{URL: "https://z.com/page", Body: "<p>com</p>"},
	}, false)

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"no patterns keeps all", nil, []string{"x.de", "y.fr", "z.com"}},
		{"one match suffices", []string{`.*\.fr/`, `.*\.de/`}, []string{"x.de", "y.fr"}},
		{"host anchored", []string{`.*\.fr$`, `.*\.de$`}, []string{"x.de", "y.fr"}},
		{"single host anchored", []string{`.*\.de$`}, []string{"x.de"}},
		{"anchored page", []string{`^https://z\.com/page$`}, []string{"z.com"}},
		{"nothing matches", []string{`\.jp$`}, nil},
		{"substring search", []string{`z\.com`}, []string{"z.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _ := readAll(t, data, mustPatterns(t, tt.patterns...))
			var hosts []string
			for _, r := range records {
				hosts = append(hosts, r.Hostname)
			}
			assert.Equal(t, tt.want, hosts)
		})
	}
}

func TestPatterns_Match(t *testing.T) {
	p := mustPatterns(t, `.*\.fr$`, `.*\.de$`)
	assert.True(t, p.Match("https://x.de/page", "x.de"))
	assert.True(t, p.Match("https://x.fr", ""))
	assert.False(t, p.Match("https://x.com/a.de/", "x.com"))
	assert.True(t, Patterns(nil).Match("anything", ""))

	_, err := CompilePatterns([]string{"("})
	assert.Error(t, err)

	empty, err := CompilePatterns([]string{""})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReader_HostnameAndBadURLs(t *testing.T) {
	data := archivetest.Build([]archivetest.Record{
		{URL: "https://WWW.Example.COM:8443/a?b=c", Body: "<p>x</p>"},
		{URL: "not a url", Body: "<p>y</p>"},
		{URL: "<https://bracketed.net/>", Body: "<p>z</p>"},
	}, false)

	records, stats := readAll(t, data, nil)
	require.Len(t, records, 2)
	assert.Equal(t, "www.example.com", records[0].Hostname)
	assert.Equal(t, "bracketed.net", records[1].Hostname)
	assert.Equal(t, 1, stats.Skipped[SkipBadURL])
}

func TestReader_ReplacesInvalidUTF8(t *testing.T) {
	data := archivetest.Build([]archivetest.Record{
		{URL: "https://a.com/", Body: "caf\xe9 ok"},
	}, false)

	records, _ := readAll(t, data, nil)
	require.Len(t, records, 1)
	assert.Equal(t, "caf\uFFFD ok", records[0].HTML)
}

func TestReader_MalformedSegment(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not warc", "<html>just a page</html>\n"},
		{"bad length", "WARC/1.0\r\nWARC-Type: response\r\nContent-Length: nope\r\n\r\n"},
		{"huge length", "WARC/1.0\r\nWARC-Type: response\r\nWARC-Identified-Payload-Type: text/html\r\nWARC-Target-URI: https://a.com/\r\nContent-Length: 999999999999999999\r\n\r\n<html>"},
		{"truncated block", "WARC/1.0\r\nWARC-Type: response\r\nWARC-Identified-Payload-Type: text/html\r\nWARC-Target-URI: https://a.com/\r\nContent-Length: 500\r\n\r\nshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := NewReader(strings.NewReader(tt.data), nil)
			require.NoError(t, err)
			_, err = rd.Next()
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReader_EmptySegment(t *testing.T) {
	rd, err := NewReader(strings.NewReader(""), nil)
	require.NoError(t, err)
	_, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPayload_FallsBackOnBrokenTransferCoding(t *testing.T) {
	block := []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n<html>plain</html>")
	assert.Equal(t, "<html>plain</html>", string(payload(block)))
	assert.Equal(t, "no http envelope", string(payload([]byte("no http envelope"))))
}

func newCache(t *testing.T) *caching.SegmentCache {
	t.Helper()
	cache, err := caching.NewSegmentCache(filepath.Join(t.TempDir(), "scratch"), &storage.FileStore{})
	require.NoError(t, err)
	return cache
}

func TestReadSegment_IdempotentAndReleasesScratch(t *testing.T) {
	src := filepath.Join(t.TempDir(), "seg.warc.gz")
	require.NoError(t, os.WriteFile(src, archivetest.Build([]archivetest.Record{
		{URL: "https://a.com/1", Body: "<p>one</p>"},
		{URL: "https://b.com/2", Body: "<p>two</p>"},
		{URL: "https://c.com/3", PayloadType: "image/png", Body: "png"},
	}, true), 0644))

	cache := newCache(t)
	ctx := context.Background()

	first, res1 := ReadSegment(ctx, cache, src, Options{})
	require.True(t, res1.Outcome.IsOK(), res1.Outcome.Err)
	_, err := os.Stat(cache.Path(src))
	assert.True(t, os.IsNotExist(err), "local copy must be released")

	second, res2 := ReadSegment(ctx, cache, src, Options{})
	require.True(t, res2.Outcome.IsOK())

	key := func(rs []models.ArchiveRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Hostname+"|"+r.HTML)
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, key(first), key(second))
	assert.Len(t, first, 2)
	assert.Equal(t, 2, res1.Records)
	assert.Equal(t, 1, res1.Skipped[SkipNotHTML])
}

func TestReadSegment_FailuresAreAbsorbed(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.warc")
	good := archivetest.Build([]archivetest.Record{{URL: "https://a.com/", Body: "<p>a</p>"}}, false)
	require.NoError(t, os.WriteFile(broken, append(good, []byte("garbage after the first record\n")...), 0644))

	cache := newCache(t)
	ctx := context.Background()

	records, res := ReadSegment(ctx, cache, broken, Options{})
	assert.Nil(t, records, "a failing segment contributes nothing")
	assert.Equal(t, models.StatusSkipped, res.Outcome.Status)
	assert.Equal(t, models.ReasonRead, res.Outcome.Reason)
	_, err := os.Stat(cache.Path(broken))
	assert.True(t, os.IsNotExist(err), "local copy is released on failure too")

	records, res = ReadSegment(ctx, cache, filepath.Join(dir, "missing.warc"), Options{})
	assert.Nil(t, records)
	assert.Equal(t, models.ReasonDownload, res.Outcome.Reason)
}

func TestForEach_OversizedRecordSkipsSegment(t *testing.T) {
	src := filepath.Join(t.TempDir(), "seg.warc")
	data := archivetest.Build([]archivetest.Record{{URL: "https://a.com/", Body: "<p>a</p>"}}, false)
	data = append(data, []byte("WARC/1.0\r\nWARC-Type: response\r\n"+
		"WARC-Identified-Payload-Type: text/html\r\nWARC-Target-URI: https://b.com/\r\n"+
		"Content-Length: 999999999999999999\r\n\r\n<html>")...)
	require.NoError(t, os.WriteFile(src, data, 0644))

	var res models.SegmentResult
	require.NotPanics(t, func() {
		res = ForEach(context.Background(), newCache(t), src, Options{}, func(models.ArchiveRecord) error { return nil })
	})
	assert.Equal(t, models.StatusSkipped, res.Outcome.Status)
	assert.Equal(t, models.ReasonRead, res.Outcome.Reason)
	assert.ErrorIs(t, res.Outcome.Err, ErrMalformed)
}

func TestForEach_CallbackErrorStopsSegment(t *testing.T) {
	src := filepath.Join(t.TempDir(), "seg.warc")
	require.NoError(t, os.WriteFile(src, archivetest.Build([]archivetest.Record{
		{URL: "https://a.com/1", Body: "<p>one</p>"},
		{URL: "https://b.com/2", Body: "<p>two</p>"},
	}, false), 0644))

	calls := 0
	res := ForEach(context.Background(), newCache(t), src, Options{}, func(models.ArchiveRecord) error {
		calls++
		return context.Canceled
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, models.ReasonCanceled, res.Outcome.Reason)
}
