package history

import (
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
)

// RowSelector matches the rows of the Yahoo history table. The first match is
// the table header, styled like the data rows.
const RowSelector = "tr.yf-ewueuo"

// Page holds the history rows found in one document.
type Page struct {
	rows    *goquery.Selection
	parsed  int
	dropped int
}

// Extract parses an HTML document and selects its history rows.
func Extract(r io.Reader) (*Page, error) {
	return ExtractWith(r, RowSelector)
}

// ExtractWith is Extract with a custom row selector.
func ExtractWith(r io.Reader, selector string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{rows: doc.Find(selector)}, nil
}

// Matched returns the number of rows matched by the selector, header included.
func (p *Page) Matched() int { return p.rows.Length() }

// Parsed returns how many rows Entries has yielded so far.
func (p *Page) Parsed() int { return p.parsed }

// Dropped returns how many rows Entries has skipped so far because they did
// not parse.
func (p *Page) Dropped() int { return p.dropped }

// Entries yields the parsed data rows in document order. Rows that fail to
// parse are skipped. The sequence is meant to be consumed once.
func (p *Page) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := 1; i < p.rows.Length(); i++ {
			e, err := ParseRow(p.rows.Eq(i))
			if err != nil {
				p.dropped++
				slog.Debug("dropping history row", "row", i, "error", err)
				continue
			}
			p.parsed++
			if !yield(e) {
				return
			}
		}
	}
}
