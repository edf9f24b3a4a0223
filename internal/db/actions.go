package db

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	dbpkg "github.com/rafaelsntn/keywords-common-crawl/pkg/db"
	"github.com/urfave/cli/v2"
)

func RunsAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("ledger"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	printRuns(os.Stdout, runs)
	return nil
}

func printRuns(w io.Writer, runs []dbpkg.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}

	fmt.Fprintf(w, "%-6s %-20s %-10s %-9s %-8s %-8s %-9s %-40s\n",
		"ID", "Started", "Status", "Segments", "OK", "Skipped", "Phrases", "Output")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-10s %-9d %-8d %-8d %-9d %-40s\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			r.SegmentCount,
			r.OKCount,
			r.SkippedCount,
			r.PhraseCount,
			r.Output,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'keyphrase run-info <id>' to see details\n")
}

// RunInfoAction shows one run with its segments and record skip reasons.
func RunInfoAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("ledger"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	ref, err := RunRefOrLatest(c.Args().First(), database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(ref)
	if err != nil {
		return err
	}
	segments, err := database.GetRunSegments(run.RunID)
	if err != nil {
		return err
	}
	reasons, err := database.GetRunSkipReasons(run.RunID)
	if err != nil {
		return err
	}

	printRunInfo(os.Stdout, run, segments, reasons)
	return nil
}

func printRunInfo(w io.Writer, run *dbpkg.Run, segments []dbpkg.Segment, reasons map[string]int) {
	fmt.Fprintf(w, "Run %d (%s)\n", run.RunID, run.RunUUID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Status:      %s\n", run.Status)
	fmt.Fprintf(w, "Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "Finished:    %s (%s)\n",
			run.FinishedAt.Format("2006-01-02 15:04:05"), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Manifest:    %s\n", run.Manifest)
	fmt.Fprintf(w, "Output:      %s\n", run.Output)
	fmt.Fprintf(w, "Segments:    %d total (%d ok, %d skipped)\n", run.SegmentCount, run.OKCount, run.SkippedCount)
	fmt.Fprintf(w, "Records:     %d (%d observations)\n", run.RecordCount, run.ObservationCount)
	fmt.Fprintf(w, "Phrases:     %d\n", run.PhraseCount)
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:       %s\n", run.ErrorMessage)
	}

	if len(reasons) > 0 {
		names := make([]string, 0, len(reasons))
		for reason := range reasons {
			names = append(names, reason)
		}
		sort.Strings(names)

		fmt.Fprintf(w, "\nRecord skips:\n")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, reason := range names {
			fmt.Fprintf(w, "  %-16s %d\n", reason, reasons[reason])
		}
	}

	if len(segments) > 0 {
		fmt.Fprintf(w, "\nSegments (%d):\n", len(segments))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for i, s := range segments {
			fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, s.Status, s.Location)
			if s.Reason != "" {
				fmt.Fprintf(w, "    Reason: [%s] %s\n", s.Reason, s.ErrorMessage)
			} else {
				fmt.Fprintf(w, "    Records: %d | Observations: %d | Size: %s\n",
					s.RecordCount, s.ObservationCount, humanize.Bytes(uint64(s.BytesDownloaded)))
			}
		}
	}
}
