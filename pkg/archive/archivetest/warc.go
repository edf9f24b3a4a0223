// Package archivetest builds small WARC segments for tests.
package archivetest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Record describes one WARC record to generate.
type Record struct {
	Type        string // defaults to "response"
	PayloadType string // WARC-Identified-Payload-Type, defaults to "text/html"
	URL         string
	Body        string // HTTP body for response records, raw block otherwise
	RawBlock    bool   // write Body as the block without an HTTP envelope
}

// Build serializes records as a WARC segment. With compress set, every record
// becomes its own gzip member, as in Common Crawl segments.
func Build(records []Record, compress bool) []byte {
	var out bytes.Buffer
	for i, r := range records {
		var rec bytes.Buffer
		writeRecord(&rec, i, r)
		if !compress {
			out.Write(rec.Bytes())
			continue
		}
		gz := gzip.NewWriter(&out)
		_, _ = gz.Write(rec.Bytes())
		_ = gz.Close()
	}
	return out.Bytes()
}

func writeRecord(w *bytes.Buffer, i int, r Record) {
	recType := r.Type
	if recType == "" {
		recType = "response"
	}
	payloadType := r.PayloadType
	if payloadType == "" {
		payloadType = "text/html"
	}

	block := r.Body
	if recType == "response" && !r.RawBlock {
		block = "HTTP/1.1 200 OK\r\n" +
			"Content-Type: " + payloadType + "\r\n" +
			fmt.Sprintf("Content-Length: %d\r\n", len(r.Body)) +
			"\r\n" + r.Body
	}

	fmt.Fprintf(w, "WARC/1.0\r\n")
	fmt.Fprintf(w, "WARC-Type: %s\r\n", recType)
	fmt.Fprintf(w, "WARC-Record-ID: <urn:uuid:00000000-0000-0000-0000-%012d>\r\n", i)
	fmt.Fprintf(w, "WARC-Date: 2024-01-01T00:00:00Z\r\n")
	if r.URL != "" {
		fmt.Fprintf(w, "WARC-Target-URI: %s\r\n", r.URL)
	}
	if recType == "response" {
		fmt.Fprintf(w, "WARC-Identified-Payload-Type: %s\r\n", payloadType)
		fmt.Fprintf(w, "Content-Type: application/http; msgtype=response\r\n")
	}
	fmt.Fprintf(w, "Content-Length: %d\r\n", len(block))
	w.WriteString("\r\n")
	w.WriteString(block)
	w.WriteString("\r\n\r\n")
}

// Article returns an HTML page whose main content is paragraph repeated until the
// visible text reaches at least minChars characters.
func Article(title, paragraph string, minChars int) string {
	var body strings.Builder
	for text := 0; text < minChars; text += len(paragraph) {
		body.WriteString("<p>")
		body.WriteString(paragraph)
		body.WriteString("</p>\n")
	}
	return "<html><head><title>" + title + "</title></head><body>" +
		"<nav><a href=\"/\">Home</a></nav><article><h1>" + title + "</h1>\n" +
		body.String() + "</article><footer>footer</footer></body></html>"
}
