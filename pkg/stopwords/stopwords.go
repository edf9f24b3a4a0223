// Package stopwords resolves a language selector to the word list removed from
// keyphrase candidates.
package stopwords

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pemistahl/lingua-go"
)

var (
	// ErrUnknownLanguage is returned for a selector that names no known language.
	ErrUnknownLanguage = errors.New("unknown stop-word language")
	// ErrNoList is returned when no word list exists for a resolved language.
	ErrNoList = errors.New("no stop-word list for language")
)

// Set is a case-insensitive word set. The empty set filters nothing.
type Set map[string]struct{}

// New builds a Set from words, lower-casing them.
func New(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Contains reports whether word is a stop word.
func (s Set) Contains(word string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Len returns the number of words in the set.
func (s Set) Len() int {
	return len(s)
}

// Resolve maps a selector such as "english", "English" or "en" to a language.
func Resolve(selector string) (lingua.Language, error) {
	selector = strings.TrimSpace(selector)
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(selector, lang.String()) || strings.EqualFold(selector, lang.IsoCode639_1().String()) {
			return lang, nil
		}
	}
	return lingua.Unknown, fmt.Errorf("%w: %q", ErrUnknownLanguage, selector)
}

// Load returns the stop words for selector. An empty selector yields the empty set.
//
// When dir is set the list is read from dir/<language name in lower case>, one word
// per line, the layout of the NLTK stopwords corpus. Otherwise a built-in list is used.
func Load(dir, selector string) (Set, error) {
	if strings.TrimSpace(selector) == "" {
		return Set{}, nil
	}

	lang, err := Resolve(selector)
	if err != nil {
		return nil, err
	}

	if dir != "" {
		return loadFile(filepath.Join(dir, strings.ToLower(lang.String())))
	}

	words, ok := builtin[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s (set a stop-word directory)", ErrNoList, lang)
	}
	return New(words...), nil
}

func loadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoList, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stop-word list: %w", err)
	}
	defer f.Close()

	set := Set{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stop-word list %s: %w", path, err)
	}
	return set, nil
}
