package job

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafaelsntn/keywords-common-crawl/internal/common"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/db"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/metrics"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

// RunAction is the `run` command: it builds the job config, opens the ledger and
// runs the job until it finishes or the process is interrupted.
func RunAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	config, err := ConfigFromFlags(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := config.Validate(); err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := Deps{
		Store:   storage.NewMux(),
		Metrics: metrics.NewRecorder(),
	}

	if config.LedgerPath != "" {
		database, err := db.Open(config.LedgerPath)
		if err != nil {
			logger.Warn("Ledger unavailable, run will not be recorded", "ledger", config.LedgerPath, "error", err)
		} else {
			defer database.Close()
			deps.Ledger = database
		}
	}

	if !c.Bool("quiet") {
		bar := progressbar.Default(-1, "segments")
		defer bar.Finish()
		deps.OnSegment = func(r Result) {
			_ = bar.Add(1)
		}
	}

	summary, err := Run(ctx, logger, config, deps)
	if err != nil {
		logger.Error("Run failed", "error", err)
		if errors.Is(err, models.ErrInvalidConfig) {
			return cli.Exit(err, 1)
		}
		return cli.Exit(fmt.Errorf("run failed: %w", err), 1)
	}

	fmt.Printf("Wrote %d phrases from %d/%d segments to %s\n",
		summary.Phrases, summary.Successful, summary.TotalSegments, summary.Output)
	return nil
}

// ConfigFromFlags loads the optional --config file and applies every flag the user
// set on top of it.
func ConfigFromFlags(c *cli.Context) (*models.JobConfig, error) {
	config := models.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
		}
		config = loaded
	}

	if c.IsSet("manifest") {
		config.Manifest = common.SanitizeLocation(c.String("manifest"))
	}
	if c.IsSet("output") {
		config.Output = common.SanitizeLocation(c.String("output"))
	}
	if c.IsSet("url-pattern") {
		config.URLPatterns = c.StringSlice("url-pattern")
	}
	if c.IsSet("url-regex-pattern") {
		config.URLPatterns = append(config.URLPatterns, models.SplitPatterns(c.String("url-regex-pattern"))...)
	}
	if c.IsSet("ngram-length") {
		config.NgramLength = c.Int("ngram-length")
	}
	if c.IsSet("model") {
		config.Model = c.String("model")
	}
	if c.IsSet("embedding-url") {
		config.EmbeddingURL = c.String("embedding-url")
	}
	if c.IsSet("embedding-rps") {
		config.EmbeddingRPS = c.Float64("embedding-rps")
	}
	if c.IsSet("stopword-lang") {
		config.StopwordLang = c.String("stopword-lang")
	}
	if c.IsSet("stopword-dir") {
		config.StopwordDir = c.String("stopword-dir")
	}
	if c.IsSet("workers") {
		config.WorkerCount = c.Int("workers")
	}
	if c.IsSet("shards") {
		config.ShardCount = c.Int("shards")
	}
	if c.IsSet("scratch-dir") {
		config.ScratchDir = c.String("scratch-dir")
	}
	if c.IsSet("vote-store") {
		config.VoteStore = c.String("vote-store")
	}
	if c.IsSet("ledger") {
		config.LedgerPath = c.String("ledger")
	}
	if c.IsSet("metrics-file") {
		config.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("summary-file") {
		config.SummaryFile = c.String("summary-file")
	}
	if c.IsSet("segment-timeout") {
		config.SegmentTimeout = c.Duration("segment-timeout")
	}
	if c.IsSet("model-timeout") {
		config.ModelTimeout = c.Duration("model-timeout")
	}
	if c.IsSet("inference-timeout") {
		config.InferenceTimeout = c.Duration("inference-timeout")
	}
	return config, nil
}

// Flags are the flags of the `run` command.
func Flags() []cli.Flag {
	defaults := models.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file, flags override its values"},
		&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "location of the segment manifest (local path, http(s):// or s3://)"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "location of the phrase,count CSV"},
		&cli.StringSliceFlag{Name: "url-pattern", Usage: "regex a record URL or hostname must match (repeatable, ORed)"},
		&cli.StringFlag{Name: "url-regex-pattern", Usage: "';'-separated list of URL regexes"},
		&cli.IntFlag{Name: "ngram-length", Value: defaults.NgramLength, Usage: "number of words per candidate phrase"},
		&cli.StringFlag{Name: "model", Value: defaults.Model, Usage: "embedding model identifier"},
		&cli.StringFlag{Name: "embedding-url", Usage: "text embedding inference endpoint, empty uses the local hash model"},
		&cli.Float64Flag{Name: "embedding-rps", Usage: "request rate limit for the embedding endpoint, 0 is unlimited"},
		&cli.StringFlag{Name: "stopword-lang", Usage: "stop word language (name or ISO 639-1 code)"},
		&cli.StringFlag{Name: "stopword-dir", Usage: "directory with one stop word file per language"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: defaults.WorkerCount, Usage: "number of concurrent segment workers"},
		&cli.IntFlag{Name: "shards", Value: defaults.ShardCount, Usage: "number of vote store partitions"},
		&cli.StringFlag{Name: "scratch-dir", Value: defaults.ScratchDir, Usage: "directory for downloaded segment copies"},
		&cli.StringFlag{Name: "vote-store", Usage: "bbolt file for votes, empty keeps them in memory"},
		&cli.StringFlag{Name: "ledger", Value: defaults.LedgerPath, Usage: "SQLite run ledger, empty disables it"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus text metrics here after the run"},
		&cli.StringFlag{Name: "summary-file", Usage: "write a YAML run summary here after the run"},
		&cli.DurationFlag{Name: "segment-timeout", Value: defaults.SegmentTimeout, Usage: "download timeout per segment"},
		&cli.DurationFlag{Name: "model-timeout", Value: defaults.ModelTimeout, Usage: "model load timeout"},
		&cli.DurationFlag{Name: "inference-timeout", Value: defaults.InferenceTimeout, Usage: "embedding timeout per document"},
	}
}
