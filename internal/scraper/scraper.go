package scraper

import (
	"context"
	"fmt"
	"time"
)

// Fetcher returns the raw history page for a symbol.
type Fetcher interface {
	Source() string
	Fetch(ctx context.Context, symbol string) (string, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, symbol string) (string, error)

func (f FetcherFunc) Source() string { return "func" }

func (f FetcherFunc) Fetch(ctx context.Context, symbol string) (string, error) {
	return f(ctx, symbol)
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate checks that the range is set and ordered.
func (r DateRange) Validate() error {
	switch {
	case r.From.IsZero():
		return fmt.Errorf("start date cannot be empty")
	case r.To.IsZero():
		return fmt.Errorf("end date cannot be empty")
	case r.From.After(r.To):
		return fmt.Errorf("start date cannot be after end date")
	}
	return nil
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.From.UTC().Format(time.RFC3339), r.To.UTC().Format(time.RFC3339))
}
