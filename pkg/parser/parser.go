// Package parser isolates the main content of an HTML page and reduces it to plain text.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// ErrNoContent is reported when no main-content text could be isolated.
var ErrNoContent = errors.New("no main content")

type Parser struct{}

// Content is the main-content text of a page.
type Content struct {
	Text     string // whitespace collapsed, blocks separated by a space
	RawChars int    // characters of the markup-stripped text before clean-up
}

// ExtractText returns the plain text of the page's main content region, or ""
// when the page cannot be parsed. It never fails.
func (p *Parser) ExtractText(rawURL, html string) string {
	content, _ := p.ExtractContent(rawURL, html)
	return content.Text
}

// ExtractContent is ExtractText with the raw length and the outcome kept.
// A failed or empty extraction yields empty Content and an empty_text outcome.
func (p *Parser) ExtractContent(rawURL, html string) (content Content, outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			content = Content{}
			outcome = models.Skipped(models.ReasonEmptyText, fmt.Errorf("content extraction panicked: %v", r))
		}
	}()

	content, err := p.extract(rawURL, html)
	if err != nil {
		return Content{}, models.Skipped(models.ReasonEmptyText, err)
	}
	if content.Text == "" {
		return Content{}, models.Skipped(models.ReasonEmptyText, ErrNoContent)
	}
	return content, models.OK()
}

func (p *Parser) extract(rawURL, html string) (Content, error) {
	if strings.TrimSpace(html) == "" {
		return Content{}, ErrNoContent
	}

	// Target URIs in archives are not always well formed; readability only needs
	// the URL to resolve relative links.
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		parsedURL = &url.URL{}
	}

	// Let go-readability find the main content
	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return Content{}, fmt.Errorf("readability: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return Content{}, fmt.Errorf("failed to parse main content: %w", err)
	}
	rawChars := utf8.RuneCountInString(doc.Text())

	// Block boundaries would otherwise glue adjacent words together.
	doc.Find("h1,h2,h3,h4,h5,h6,p,li,td,th,pre,blockquote,br,div").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return Content{Text: normalizeText(doc.Text()), RawChars: rawChars}, nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), len(input)+1)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
