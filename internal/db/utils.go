package db

import (
	"fmt"

	dbpkg "github.com/rafaelsntn/keywords-common-crawl/pkg/db"
)

// RunRefOrLatest returns ref when given, or the id of the latest run.
func RunRefOrLatest(ref string, database *dbpkg.DB) (string, error) {
	if ref != "" {
		return ref, nil
	}
	runs, err := database.ListRuns(1)
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs found. Run 'keyphrase run --manifest ... --output ...' first")
	}
	return fmt.Sprintf("%d", runs[0].RunID), nil
}
