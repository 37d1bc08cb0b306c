// Package run drives the fetch, extract and write pipeline for a batch of
// symbols.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
	"github.com/ahmethakanbesel/history-scraper/internal/csvfile"
	"github.com/ahmethakanbesel/history-scraper/internal/history"
	"github.com/ahmethakanbesel/history-scraper/internal/scraper"
)

const defaultWorkers = 5

// Observer is notified once per symbol when its pipeline finishes.
type Observer interface {
	Observe(Result)
}

// Result is the outcome of one symbol's pipeline.
type Result struct {
	Symbol   string
	Path     string
	Rows     int
	Dropped  int
	Duration time.Duration
	Err      error
}

// Report collects the results of a run in input order.
type Report struct {
	RunID   string
	Results []Result
}

// Get returns the result for symbol.
func (r *Report) Get(symbol string) (Result, bool) {
	for _, res := range r.Results {
		if res.Symbol == symbol {
			return res, true
		}
	}
	return Result{}, false
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins every per-symbol error, or returns nil if all symbols succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

// Runner fetches, parses and writes history files for a set of symbols.
type Runner struct {
	fetcher     scraper.Fetcher
	workers     int
	failFast    bool
	requireRows bool
	observer    Observer
	logger      *slog.Logger
	runID       string
}

// New creates a Runner with the given options applied.
func New(f scraper.Fetcher, opts ...Option) *Runner {
	r := &Runner{
		fetcher: f,
		workers: defaultWorkers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers caps how many symbols are processed at once. Zero means no cap.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithFailFast makes the first failing symbol cancel the rest of the run.
func WithFailFast(v bool) Option {
	return func(r *Runner) { r.failFast = v }
}

// WithRequireRows treats a page without any parsed rows as a failure.
func WithRequireRows(v bool) Option {
	return func(r *Runner) { r.requireRows = v }
}

// WithObserver registers o to receive every finished Result.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRunID sets the identifier attached to every log line. A random UUID is
// used when empty.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// Run writes <outDir>/<symbol>.csv for every symbol. Symbols are processed
// concurrently and independently. Unless fail-fast is enabled every symbol
// runs to completion and the returned error joins all failures.
func (r *Runner) Run(ctx context.Context, outDir string, symbols []string) (*Report, error) {
	symbols, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, apperror.Wrap(apperror.IO, "create output directory", err)
	}

	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	report := &Report{RunID: runID, Results: make([]Result, len(symbols))}

	g := &errgroup.Group{}
	gctx := ctx
	if r.failFast {
		g, gctx = errgroup.WithContext(ctx)
	}
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}

	logger.Info("starting run", "symbols", len(symbols), "workers", r.workers,
		"source", r.fetcher.Source(), "fail_fast", r.failFast)

	for i, symbol := range symbols {
		path := filepath.Join(outDir, symbol+".csv")
		g.Go(func() error {
			var res Result
			if err := gctx.Err(); err != nil {
				res = Result{Symbol: symbol, Path: path, Err: fmt.Errorf("%s: %w", symbol, err)}
			} else {
				res = r.process(gctx, logger.With("symbol", symbol), symbol, path)
			}
			report.Results[i] = res
			if r.observer != nil {
				r.observer.Observe(res)
			}
			if r.failFast {
				return res.Err
			}
			return nil
		})
	}

	waitErr := g.Wait()

	failed := report.Failed()
	logger.Info("finished run", "symbols", len(symbols), "succeeded", len(symbols)-len(failed), "failed", len(failed))

	if r.failFast && waitErr != nil {
		return report, waitErr
	}
	return report, report.Err()
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, symbol, path string) Result {
	start := time.Now()
	res := Result{Symbol: symbol, Path: path}
	fail := func(err error) Result {
		res.Err = fmt.Errorf("%s: %w", symbol, err)
		res.Duration = time.Since(start)
		logger.Error("symbol failed", "code", apperror.CodeOf(err), "error", err)
		return res
	}

	logger.Info("fetch history page")
	body, err := r.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return fail(err)
	}
	logger.Info("finish fetch history page", "bytes", len(body))

	page, err := history.Extract(strings.NewReader(body))
	if err != nil {
		return fail(err)
	}

	logger.Info("write entries", "path", path)
	n, err := csvfile.Write(path, page.Entries())
	res.Rows = n
	res.Dropped = page.Dropped()
	if err != nil {
		return fail(err)
	}
	logger.Info("finish parse history page", "matched", page.Matched(), "parsed", page.Parsed(), "dropped", page.Dropped())
	logger.Info("finish write entries", "path", path, "rows", n)

	if r.requireRows && n == 0 {
		return fail(apperror.New(apperror.EmptyResult,
			fmt.Sprintf("no rows parsed (%d matched, %d dropped)", page.Matched(), page.Dropped())))
	}

	res.Duration = time.Since(start)
	return res
}

func normalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, apperror.New(apperror.InvalidArgument, "at least one symbol is required")
	}

	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			return nil, apperror.New(apperror.InvalidArgument, "symbol cannot be empty")
		case s == "." || s == ".." || strings.ContainsAny(s, `/\`):
			return nil, apperror.New(apperror.InvalidArgument, fmt.Sprintf("invalid symbol %q", s))
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
