// Package cmd - history-scraper CLI commands
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/history-scraper/internal/config"
	"github.com/ahmethakanbesel/history-scraper/internal/logging"
	"github.com/ahmethakanbesel/history-scraper/internal/metrics"
	"github.com/ahmethakanbesel/history-scraper/internal/run"
	"github.com/ahmethakanbesel/history-scraper/internal/scraper/yahoo"
)

type options struct {
	symbols     []string
	outputDir   string
	envFile     string
	workers     int
	from        string
	to          string
	timeout     time.Duration
	failFast    bool
	requireRows bool
	logLevel    string
	logFormat   string
	pushgateway string
}

// NewRootCommand builds the history-scraper command.
func NewRootCommand() *cobra.Command {
	var o options

	c := &cobra.Command{
		Use:   "history-scraper -s SYMBOL... -o DIR",
		Short: "Download Yahoo Finance price history as CSV",
		Long: `Download Yahoo Finance price history as CSV.

One file is written per symbol at <output-dir>/<symbol>.csv with the columns
Date,Open,High,Low,Close,Adj Close,Volume.

Settings can also be given as HISTORY_* environment variables or in a .env
file; flags take precedence.`,
		Example: `  history-scraper -s "AAPL MSFT" -o data
  history-scraper -s AAPL -s ^GSPC -o data --from 2020-01-01 --to 2024-01-01`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, o, args)
		},
	}

	f := c.Flags()
	f.StringArrayVarP(&o.symbols, "symbols", "s", nil, "ticker symbols, space-delimited (required)")
	f.StringVarP(&o.outputDir, "output-dir", "o", "", "directory for the CSV files, created if missing (required)")
	f.StringVar(&o.envFile, "env-file", "", "env file to load (default is .env)")
	f.IntVarP(&o.workers, "workers", "w", 5, "symbols processed at once, 0 for no limit")
	f.StringVar(&o.from, "from", "", "start of the history window, YYYY-MM-DD or RFC3339")
	f.StringVar(&o.to, "to", "", "end of the history window, YYYY-MM-DD or RFC3339")
	f.DurationVar(&o.timeout, "timeout", 0, "HTTP timeout per request, 0 for none")
	f.BoolVar(&o.failFast, "fail-fast", false, "stop the run at the first failing symbol")
	f.BoolVar(&o.requireRows, "require-rows", false, "fail a symbol whose page yields no rows")
	f.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (default info)")
	f.StringVar(&o.logFormat, "log-format", "", "text or json (default text)")
	f.StringVar(&o.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for run metrics")

	_ = c.MarkFlagRequired("symbols")
	_ = c.MarkFlagRequired("output-dir")

	return c
}

// Execute runs the root command with args taken from the process.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func execute(cmd *cobra.Command, o options, args []string) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, o, &cfg); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	yahooOpts := []yahoo.Option{
		yahoo.WithBaseURL(cfg.BaseURL),
		yahoo.WithRange(cfg.Range()),
		yahoo.WithTimeout(cfg.Timeout),
	}
	if cfg.UserAgent != "" {
		yahooOpts = append(yahooOpts, yahoo.WithUserAgent(cfg.UserAgent))
	}

	recorder := metrics.NewRecorder()
	runner := run.New(yahoo.New(yahooOpts...),
		run.WithWorkers(cfg.Workers),
		run.WithFailFast(cfg.FailFast),
		run.WithRequireRows(cfg.RequireRows),
		run.WithObserver(recorder),
		run.WithLogger(logger),
	)

	symbols := splitSymbols(append(o.symbols, args...))
	report, runErr := runner.Run(cmd.Context(), o.outputDir, symbols)

	if cfg.PushgatewayURL != "" && report != nil {
		if err := recorder.Push(cmd.Context(), cfg.PushgatewayURL, cfg.MetricsJob); err != nil {
			logger.Warn("failed to push metrics", "url", cfg.PushgatewayURL, "error", err)
		}
	}

	if report != nil {
		for _, res := range report.Results {
			if res.Err == nil {
				logger.Info("wrote history", "symbol", res.Symbol, "path", res.Path,
					"rows", res.Rows, "dropped", res.Dropped, "duration", res.Duration)
			}
		}
	}
	return runErr
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, o options, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("from") {
		t, err := config.ParseTime(o.from)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		cfg.From = t
	}
	if f.Changed("to") {
		t, err := config.ParseTime(o.to)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		cfg.To = t
	}
	if f.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if f.Changed("fail-fast") {
		cfg.FailFast = o.failFast
	}
	if f.Changed("require-rows") {
		cfg.RequireRows = o.requireRows
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if f.Changed("pushgateway") {
		cfg.PushgatewayURL = o.pushgateway
	}
	return cfg.Validate()
}

// splitSymbols splits every value on whitespace so "-s 'AAPL MSFT'" and
// "-s AAPL -s MSFT" are equivalent.
func splitSymbols(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}
