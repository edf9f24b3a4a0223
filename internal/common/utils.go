// Package common holds helpers shared by the CLI commands.
package common

import (
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// NewLogger builds the JSON stderr logger for a command. --quiet keeps errors only
// and --verbose enables debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		logLevel = slog.LevelError
	case c.Bool("verbose"):
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// SanitizeLocation cleans up a location pasted on the command line.
// Surrounding whitespace, quotes and angle brackets are removed.
func SanitizeLocation(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"<", ">"}} {
		if len(cleaned) >= 2 && strings.HasPrefix(cleaned, pair[0]) && strings.HasSuffix(cleaned, pair[1]) {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	return strings.TrimSpace(cleaned)
}
