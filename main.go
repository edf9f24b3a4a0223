package main

import (
	"fmt"
	"os"

	"github.com/rafaelsntn/keywords-common-crawl/internal/db"
	"github.com/rafaelsntn/keywords-common-crawl/internal/job"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/urfave/cli/v2"
)

func main() {
	ledgerFlag := &cli.StringFlag{Name: "ledger", Value: models.DefaultLedgerPath, Usage: "SQLite run ledger"}

	app := &cli.App{
		Name:  "keyphrase",
		Usage: "count how many distinct hosts of a web archive share each key phrase",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "process every segment of a manifest and publish phrase,count rows",
				Flags:  job.Flags(),
				Action: job.RunAction,
			},
			{
				Name:   "runs",
				Usage:  "list recorded runs",
				Flags:  []cli.Flag{ledgerFlag, &cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to show, 0 for all"}},
				Action: db.RunsAction,
			},
			{
				Name:      "run-info",
				Usage:     "show one run with its segments",
				ArgsUsage: "[run id or uuid, default latest]",
				Flags:     []cli.Flag{ledgerFlag},
				Action:    db.RunInfoAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
