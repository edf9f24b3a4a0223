package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/archive/archivetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paragraph = "Climate change policy shapes how coastal cities plan their flood defences and energy grids."

func TestExtractText_MainContent(t *testing.T) {
	p := &Parser{}
	html := archivetest.Article("Coastal planning", paragraph, 1200)

	text := p.ExtractText("https://a.com/post", html)
	require.NotEmpty(t, text)
	assert.Contains(t, text, "Climate change policy shapes")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "\n")
	assert.GreaterOrEqual(t, len(text), 1200)
}

func TestExtractText_SeparatesBlocks(t *testing.T) {
	p := &Parser{}
	html := archivetest.Article("Blocks", "first paragraph ends here", 600)

	text := p.ExtractText("https://a.com/", html)
	assert.Contains(t, text, "here first")
	assert.NotContains(t, text, "herefirst")
}

func TestExtractContent_RawCharsKeepWhitespace(t *testing.T) {
	p := &Parser{}
	spaced := "Climate   change\t\tpolicy    shapes   how   coastal   cities   plan   flood   defences."
	html := archivetest.Article("Coastal planning", spaced, 1200)

	content, outcome := p.ExtractContent("https://a.com/post", html)
	require.True(t, outcome.IsOK(), outcome.Err)
	assert.NotContains(t, content.Text, "  ")
	assert.Greater(t, content.RawChars, utf8.RuneCountInString(content.Text),
		"the raw length counts the whitespace the text clean-up removes")
}

func TestExtractContent_AbsorbsFailures(t *testing.T) {
	p := &Parser{}

	tests := []struct {
		name string
		url  string
		html string
	}{
		{"empty", "https://a.com/", ""},
		{"whitespace", "https://a.com/", "  \n\t "},
		{"bad url", "http://[::1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var content Content
			var outcome models.Outcome
			assert.NotPanics(t, func() {
				content, outcome = p.ExtractContent(tt.url, tt.html)
			})
			assert.Empty(t, content.Text)
			assert.Zero(t, content.RawChars)
			assert.Equal(t, models.StatusSkipped, outcome.Status)
			assert.Equal(t, models.ReasonEmptyText, outcome.Reason)
		})
	}
}

func TestExtractText_MalformedHTMLNeverPanics(t *testing.T) {
	p := &Parser{}
	inputs := []string{
		"<html><body><p>unclosed <b>tags <i>everywhere",
		"<<<>>>&&&;;;",
		"\x00\x01\x02 binary junk",
		strings.Repeat("<div>", 2000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _ = p.ExtractText("not a url", in) })
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a \n\n   b\t\tc  \n"))
	assert.Equal(t, "", normalizeText("\n \n"))
}
