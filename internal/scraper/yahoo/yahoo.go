// Package yahoo fetches Yahoo Finance price-history pages. The page is served
// as HTML and the history table is read from it by the history package.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
	"github.com/ahmethakanbesel/history-scraper/internal/scraper"
)

const (
	defaultBaseURL = "https://finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// DefaultRange is the history window requested when none is configured.
var DefaultRange = scraper.DateRange{
	From: time.Unix(345479400, 0).UTC(),
	To:   time.Unix(1722448703, 0).UTC(),
}

// Scraper fetches history pages from Yahoo Finance.
type Scraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
	period    scraper.DateRange
}

// New creates a Scraper with the given options applied.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:    &http.Client{},
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		period:    DefaultRange,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithBaseURL overrides the default https://finance.yahoo.com origin.
func WithBaseURL(u string) Option {
	return func(s *Scraper) { s.baseURL = u }
}

// WithUserAgent overrides the browser User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.userAgent = ua }
}

// WithRange sets the history window.
func WithRange(r scraper.DateRange) Option {
	return func(s *Scraper) { s.period = r }
}

// WithTimeout sets an explicit client timeout. Zero leaves the client as is.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d <= 0 {
			return
		}
		c := *s.client
		c.Timeout = d
		s.client = &c
	}
}

// Source returns the scraper identifier.
func (s *Scraper) Source() string { return "yahoo" }

// HistoryURL returns the history page URL for symbol.
func (s *Scraper) HistoryURL(symbol string) string {
	return fmt.Sprintf("%s/quote/%s/history/?period1=%s&period2=%s",
		s.baseURL,
		url.PathEscape(symbol),
		strconv.FormatInt(s.period.From.Unix(), 10),
		strconv.FormatInt(s.period.To.Unix(), 10),
	)
}

// Fetch downloads the history page for symbol and returns its body.
func (s *Scraper) Fetch(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", apperror.New(apperror.InvalidArgument, "symbol cannot be empty")
	}
	if err := s.period.Validate(); err != nil {
		return "", apperror.Wrap(apperror.InvalidArgument, "history range", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.HistoryURL(symbol), nil)
	if err != nil {
		return "", apperror.Wrap(apperror.Fetch, "build request", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	res, err := s.client.Do(req) //nolint:gosec // URL built from internal config
	if err != nil {
		return "", apperror.Wrap(apperror.Fetch, "fetch "+symbol, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", apperror.New(apperror.Fetch, fmt.Sprintf("yahoo returned HTTP %d for %s", res.StatusCode, symbol))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", apperror.Wrap(apperror.Fetch, "read body for "+symbol, err)
	}

	slog.Debug("retrieved yahoo history page", "symbol", symbol,
		"range", s.period.String(), "bytes", len(body))

	return string(body), nil
}
