// Package history turns a Yahoo Finance price-history page into daily
// entries.
package history

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
)

const (
	// DateLayout is how the history table renders dates, e.g. "Jan 5, 2021".
	DateLayout = "Jan 2, 2006"
	// OutputDateLayout is how dates are written out.
	OutputDateLayout = "2006-01-02"

	columnCount = 7
)

// decimalNumber rejects the hex, Inf and NaN forms strconv.ParseFloat accepts.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Header lists the output columns in order.
var Header = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Entry is one trading day.
type Entry struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   uint64
}

// Fields renders the entry in Header order.
func (e Entry) Fields() []string {
	return []string{
		e.Date.Format(OutputDateLayout),
		formatFloat(e.Open),
		formatFloat(e.High),
		formatFloat(e.Low),
		formatFloat(e.Close),
		formatFloat(e.AdjClose),
		strconv.FormatUint(e.Volume, 10),
	}
}

func (e Entry) String() string {
	return strings.Join(e.Fields(), ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseRow parses a history table row. The row must have exactly seven child
// cells in the order date, open, high, low, close, adj close, volume.
func ParseRow(row *goquery.Selection) (Entry, error) {
	cells := row.Children()
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, c.Text())
	})
	return ParseCells(texts)
}

// ParseCells parses the raw text of the seven cells of a row.
func ParseCells(raw []string) (Entry, error) {
	if len(raw) != columnCount {
		return Entry{}, apperror.New(apperror.MalformedRow,
			fmt.Sprintf("expected %d cells, got %d", columnCount, len(raw)))
	}
	cells := make([]string, len(raw))
	for i, c := range raw {
		cells[i] = strings.TrimSpace(c)
	}

	date, err := time.Parse(DateLayout, cells[0])
	if err != nil {
		return Entry{}, apperror.Wrap(apperror.InvalidDate, fmt.Sprintf("date %q", cells[0]), err)
	}

	var prices [5]float64
	for i := range prices {
		v, err := parseDecimal(cells[i+1])
		if err != nil {
			return Entry{}, apperror.Wrap(apperror.InvalidNumber,
				fmt.Sprintf("%s %q", Header[i+1], cells[i+1]), err)
		}
		prices[i] = v
	}

	volume, err := strconv.ParseUint(strings.ReplaceAll(cells[6], ",", ""), 10, 64)
	if err != nil {
		return Entry{}, apperror.Wrap(apperror.InvalidNumber, fmt.Sprintf("volume %q", cells[6]), err)
	}

	return Entry{
		Date:     date,
		Open:     prices[0],
		High:     prices[1],
		Low:      prices[2],
		Close:    prices[3],
		AdjClose: prices[4],
		Volume:   volume,
	}, nil
}

func parseDecimal(s string) (float64, error) {
	if !decimalNumber.MatchString(s) {
		return 0, fmt.Errorf("not a decimal number")
	}
	return strconv.ParseFloat(s, 64)
}
