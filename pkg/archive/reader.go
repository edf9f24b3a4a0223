// Package archive streams WARC segments and yields the HTML response records
// that pass the MIME type and URL filters.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformed is returned when a segment does not follow the WARC framing.
var ErrMalformed = errors.New("malformed WARC segment")

// Record skip reasons reported in Stats.
const (
	SkipNotResponse = "not_response"
	SkipNotHTML     = "not_html"
	SkipBadURL      = "bad_url"
	SkipURLFiltered = "url_filtered"
)

// MaxRecordSize bounds the block of an emitted record. A larger declared
// Content-Length is treated as corrupt framing.
const MaxRecordSize = 64 << 20

var htmlMimeTypes = map[string]struct{}{
	"text/html":             {},
	"application/xhtml+xml": {},
}

// Stats counts what a Reader has seen so far.
type Stats struct {
	Records int // WARC records of any type
	Emitted int
	Skipped map[string]int
}

func (s *Stats) skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[reason]++
}

// Reader iterates the records of one segment. It is not safe for concurrent use.
type Reader struct {
	br       *bufio.Reader
	closers  []io.Closer
	patterns Patterns
	stats    Stats
}

// NewReader wraps a raw or gzip-compressed WARC stream.
// Concatenated gzip members, one per record, are read as a single stream.
func NewReader(r io.Reader, patterns Patterns) (*Reader, error) {
	rd := &Reader{patterns: patterns}
	br := bufio.NewReaderSize(r, 64<<10)

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		rd.closers = append(rd.closers, gz)
		br = bufio.NewReaderSize(gz, 64<<10)
	}

	rd.br = br
	return rd, nil
}

// Open opens a local segment file.
func Open(path string, patterns Patterns) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment: %w", err)
	}
	rd, err := NewReader(f, patterns)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rd.closers = append(rd.closers, f)
	return rd, nil
}

// Close releases the underlying stream.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Stats returns counters for the records read so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next record that passes the filters, or io.EOF at the end of the segment.
func (r *Reader) Next() (*models.ArchiveRecord, error) {
	for {
		hdr, err := r.readHeader()
		if err != nil {
			return nil, err
		}

		rawLength := strings.TrimSpace(hdr.Get("Content-Length"))
		length, err := strconv.ParseInt(rawLength, 10, 64)
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: bad Content-Length %q", ErrMalformed, rawLength)
		}
		r.stats.Records++

		rec, reason := r.filter(hdr)
		if reason != "" {
			r.stats.skip(reason)
			if _, err := io.CopyN(io.Discard, r.br, length); err != nil {
				return nil, fmt.Errorf("%w: truncated record: %v", ErrMalformed, err)
			}
			continue
		}

		if length > MaxRecordSize {
			return nil, fmt.Errorf("%w: record of %d bytes exceeds %d", ErrMalformed, length, MaxRecordSize)
		}
		block := make([]byte, length)
		if _, err := io.ReadFull(r.br, block); err != nil {
			return nil, fmt.Errorf("%w: truncated record: %v", ErrMalformed, err)
		}

		rec.HTML = decodeText(payload(block))
		r.stats.Emitted++
		return rec, nil
	}
}

// readHeader skips the blank lines separating records and reads one WARC header block.
func (r *Reader) readHeader() (textproto.MIMEHeader, error) {
	var version string
	for {
		line, err := r.br.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			version = line
			break
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if !strings.HasPrefix(version, "WARC/") {
		if len(version) > 32 {
			version = version[:32]
		}
		return nil, fmt.Errorf("%w: unexpected version line %q", ErrMalformed, version)
	}

	hdr, err := textproto.NewReader(r.br).ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	return hdr, nil
}

// filter returns the record skeleton for an HTML response that passes the URL
// filter, or the reason the record is dropped.
func (r *Reader) filter(hdr textproto.MIMEHeader) (*models.ArchiveRecord, string) {
	if !strings.EqualFold(strings.TrimSpace(hdr.Get("WARC-Type")), "response") {
		return nil, SkipNotResponse
	}

	contentType := mediaType(hdr.Get("WARC-Identified-Payload-Type"))
	if _, ok := htmlMimeTypes[contentType]; !ok {
		return nil, SkipNotHTML
	}

	target := strings.Trim(strings.TrimSpace(hdr.Get("WARC-Target-URI")), "<>")
	parsed, err := url.Parse(target)
	if err != nil || parsed.Hostname() == "" {
		return nil, SkipBadURL
	}

	hostname := strings.ToLower(parsed.Hostname())
	if !r.patterns.Match(target, hostname) {
		return nil, SkipURLFiltered
	}

	return &models.ArchiveRecord{
		Hostname:    hostname,
		ContentType: contentType,
		URL:         target,
	}, ""
}

func mediaType(value string) string {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		mt, _, _ = strings.Cut(value, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

// payload returns the HTTP body of a response record block.
func payload(block []byte) []byte {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(block)), nil)
	if err != nil {
		return block
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Archived headers can still announce a transfer coding the crawler already removed.
		if i := bytes.Index(block, []byte("\r\n\r\n")); i >= 0 {
			return block[i+4:]
		}
		return block
	}

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		if gz, err := gzip.NewReader(bytes.NewReader(body)); err == nil {
			if decoded, err := io.ReadAll(gz); err == nil {
				body = decoded
			}
			_ = gz.Close()
		}
	}
	return body
}

// decodeText decodes UTF-8, replacing undecodable bytes with U+FFFD.
func decodeText(b []byte) string {
	s, _, err := transform.String(unicode.UTF8.NewDecoder(), string(b))
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return s
}
