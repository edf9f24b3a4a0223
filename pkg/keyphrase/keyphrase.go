// Package keyphrase picks the single keyphrase of a page that best represents it:
// the n-gram whose embedding is closest to the embedding of the whole text.
package keyphrase

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/embedder"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/parser"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/stopwords"
)

// MinTextLength is the number of characters below which a page is not evaluated.
const MinTextLength = 1000

// ErrNoCandidates is reported when no n-gram survives stop-word removal.
var ErrNoCandidates = errors.New("no candidate phrases")

// TextExtractor reduces a page to its main-content text.
type TextExtractor interface {
	ExtractContent(rawURL, html string) (parser.Content, models.Outcome)
}

// Options configure an Extractor.
type Options struct {
	NgramLength      int
	ModelID          string
	StopWords        stopwords.Set
	InferenceTimeout time.Duration
}

// Extractor turns pages into keyword observations. One Extractor belongs to one
// worker, together with its model registry.
type Extractor struct {
	text     TextExtractor
	registry *embedder.Registry
	opts     Options
}

// NewExtractor creates an Extractor. NgramLength defaults to models.DefaultNgramLength.
func NewExtractor(text TextExtractor, registry *embedder.Registry, opts Options) *Extractor {
	if opts.NgramLength <= 0 {
		opts.NgramLength = models.DefaultNgramLength
	}
	return &Extractor{text: text, registry: registry, opts: opts}
}

// ExtractRecord is Extract for an archive record, passing its URL on to the content extractor.
func (e *Extractor) ExtractRecord(ctx context.Context, rec models.ArchiveRecord) (models.KeywordObservation, models.Outcome) {
	content, outcome := e.text.ExtractContent(rec.URL, rec.HTML)
	if !outcome.IsOK() {
		return models.SentinelObservation, outcome
	}
	return e.evaluate(ctx, rec.Hostname, content.Text, content.RawChars)
}

// Extract returns hostname's vote for the best phrase of html, or the sentinel
// observation with the reason the page was not evaluated.
func (e *Extractor) Extract(ctx context.Context, hostname, html string) (models.KeywordObservation, models.Outcome) {
	return e.ExtractRecord(ctx, models.ArchiveRecord{Hostname: hostname, HTML: html, URL: "https://" + hostname + "/"})
}

// ExtractFromText ranks the candidates of already extracted text.
func (e *Extractor) ExtractFromText(ctx context.Context, hostname, text string) (models.KeywordObservation, models.Outcome) {
	return e.evaluate(ctx, hostname, text, utf8.RuneCountInString(text))
}

// evaluate applies the length guard to chars, the length of the page text before
// whitespace clean-up, and ranks the candidates of text.
func (e *Extractor) evaluate(ctx context.Context, hostname, text string, chars int) (models.KeywordObservation, models.Outcome) {
	if chars < MinTextLength {
		return models.SentinelObservation, models.Skipped(models.ReasonShortText, fmt.Errorf("text has %d characters", chars))
	}

	candidates := Candidates(text, e.opts.NgramLength, e.opts.StopWords)
	if len(candidates) == 0 {
		return models.SentinelObservation, models.Skipped(models.ReasonNoCandidates, ErrNoCandidates)
	}

	model, err := e.registry.Get(ctx, e.opts.ModelID)
	if err != nil {
		return models.SentinelObservation, models.Skipped(models.ReasonModel, err)
	}

	phrase, err := e.rank(ctx, model, text, candidates)
	if err != nil {
		return models.SentinelObservation, models.Skipped(models.ReasonModel, err)
	}

	return models.KeywordObservation{Hostname: hostname, Phrase: phrase}, models.OK()
}

// rank returns the candidate most similar to the document. Candidates arrive in
// order of first occurrence and only a strictly higher score replaces the current
// best, so equal scores resolve to the phrase that appears first in the text.
func (e *Extractor) rank(ctx context.Context, model embedder.Model, text string, candidates []string) (string, error) {
	if e.opts.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.InferenceTimeout)
		defer cancel()
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, text)
	inputs = append(inputs, candidates...)

	vectors, err := model.Embed(ctx, inputs)
	if err != nil {
		return "", fmt.Errorf("inference with %s: %w", model.ID(), err)
	}
	if len(vectors) != len(inputs) {
		return "", fmt.Errorf("inference with %s: got %d vectors for %d inputs", model.ID(), len(vectors), len(inputs))
	}

	doc := vectors[0]
	best, bestScore := 0, embedder.CosineSimilarity(doc, vectors[1])
	for i := 1; i < len(candidates); i++ {
		if score := embedder.CosineSimilarity(doc, vectors[i+1]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return candidates[best], nil
}
