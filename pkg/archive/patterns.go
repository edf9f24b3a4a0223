package archive

import (
	"fmt"
	"regexp"
)

// Patterns is a compiled URL filter. A record passes when any pattern matches
// anywhere in its target URL or its hostname; an empty filter passes everything.
type Patterns []*regexp.Regexp

// CompilePatterns compiles the configured URL regular expressions once per job.
func CompilePatterns(raw []string) (Patterns, error) {
	patterns := make(Patterns, 0, len(raw))
	for _, p := range raw {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid URL pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// Match reports whether a record with the given target URL and hostname passes the filter.
// The hostname is tried as well so that host-anchored patterns such as `.*\.de$` select
// every page of a matching site.
func (p Patterns) Match(url, hostname string) bool {
	if len(p) == 0 {
		return true
	}
	for _, re := range p {
		if re.MatchString(url) || (hostname != "" && re.MatchString(hostname)) {
			return true
		}
	}
	return false
}
