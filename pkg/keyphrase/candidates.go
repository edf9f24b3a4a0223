package keyphrase

import (
	"regexp"
	"strings"

	"github.com/rafaelsntn/keywords-common-crawl/pkg/stopwords"
)

// tokenPattern matches words of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Tokenize lower-cases text and splits it into words, dropping stop words.
func Tokenize(text string, stop stopwords.Set) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !stop.Contains(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Candidates returns the distinct n-grams of exactly n tokens in order of first
// occurrence. Stop words are removed before n-grams are formed, so a phrase may
// bridge a removed word.
func Candidates(text string, n int, stop stopwords.Set) []string {
	tokens := Tokenize(text, stop)
	if n <= 0 || len(tokens) < n {
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for i := 0; i+n <= len(tokens); i++ {
		phrase := strings.Join(tokens[i:i+n], " ")
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		out = append(out, phrase)
	}
	return out
}
