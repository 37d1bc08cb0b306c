package history

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/history-scraper/internal/apperror"
)

const headerRow = `<tr class="yf-ewueuo"><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Adj Close</th><th>Volume</th></tr>`

func row(cells ...string) string {
	var b strings.Builder
	b.WriteString(`<tr class="yf-ewueuo">`)
	for _, c := range cells {
		b.WriteString("<td>" + c + "</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func page(rows ...string) string {
	return `<html><body><table class="table yf-ewueuo"><thead>` + headerRow + `</thead><tbody>` +
		strings.Join(rows, "") + `</tbody></table></body></html>`
}

func firstRow(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find("tbody tr").First()
	require.Equal(t, 1, sel.Length())
	return sel
}

func TestParseRow(t *testing.T) {
	sel := firstRow(t, page(row("Jan 5, 2021", "100.00", "105.50", "99.25", "104.00", "104.00", "1,234,567")))

	e, err := ParseRow(sel)
	require.NoError(t, err)

	assert.Equal(t, Entry{
		Date:     time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
		Open:     100,
		High:     105.5,
		Low:      99.25,
		Close:    104,
		AdjClose: 104,
		Volume:   1234567,
	}, e)
	assert.Equal(t, "2021-01-05,100,105.5,99.25,104,104,1234567", e.String())
}

func TestParseRow_NestedMarkupAndWhitespace(t *testing.T) {
	sel := firstRow(t, page(row(" Jul 31, 2024 ", "<span>218.19</span>", "223.48", "217.71", "222.08", "221.84", " 50,036,300 ")))

	e, err := ParseRow(sel)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-31,218.19,223.48,217.71,222.08,221.84,50036300", e.String())
}

func TestParseRow_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		code  apperror.Code
	}{
		{"too few cells", []string{"Jan 5, 2021", "1", "2", "3", "4", "5"}, apperror.MalformedRow},
		{"too many cells", []string{"Jan 5, 2021", "1", "2", "3", "4", "5", "6", "7"}, apperror.MalformedRow},
		{"dividend row", []string{"Feb 9, 2024", "0.24 Dividend"}, apperror.MalformedRow},
		{"no cells", nil, apperror.MalformedRow},
		{"numeric date", []string{"2021-01-05", "1", "2", "3", "4", "5", "6"}, apperror.InvalidDate},
		{"full month name", []string{"January 5, 2021", "1", "2", "3", "4", "5", "6"}, apperror.InvalidDate},
		{"missing price", []string{"Jan 5, 2021", "-", "2", "3", "4", "5", "6"}, apperror.InvalidNumber},
		{"price with thousands separator", []string{"Jan 5, 2021", "1", "2", "3", "4,100.5", "5", "6"}, apperror.InvalidNumber},
		{"hex float price", []string{"Jan 5, 2021", "0x1p3", "1", "1", "1", "1", "1"}, apperror.InvalidNumber},
		{"infinite price", []string{"Jan 5, 2021", "1", "Inf", "1", "1", "1", "1"}, apperror.InvalidNumber},
		{"nan price", []string{"Jan 5, 2021", "1", "1", "1", "1", "NaN", "1"}, apperror.InvalidNumber},
		{"negative volume", []string{"Jan 5, 2021", "1", "2", "3", "4", "5", "-6"}, apperror.InvalidNumber},
		{"fractional volume", []string{"Jan 5, 2021", "1", "2", "3", "4", "5", "6.5"}, apperror.InvalidNumber},
		{"empty volume", []string{"Jan 5, 2021", "1", "2", "3", "4", "5", ""}, apperror.InvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := firstRow(t, page(row(tt.cells...)))
			_, err := ParseRow(sel)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseCells_DecimalForms(t *testing.T) {
	e, err := ParseCells([]string{"Jan 5, 2021", "1e2", ".5", "-0.25", "+3", "7.", "1"})
	require.NoError(t, err)
	assert.Equal(t, "2021-01-05,100,0.5,-0.25,3,7,1", e.String())
}

func TestParseCells_DoesNotModifyInput(t *testing.T) {
	cells := []string{" Jan 5, 2021", "1", "2", "3", "4", "5", "6 "}
	_, err := ParseCells(cells)
	require.NoError(t, err)
	assert.Equal(t, " Jan 5, 2021", cells[0])
	assert.Equal(t, "6 ", cells[6])
}

func TestExtract_SkipsHeaderAndDropsBadRows(t *testing.T) {
	html := page(
		row("Jul 31, 2024", "218.19", "223.48", "217.71", "222.08", "221.84", "50,036,300"),
		row("Jul 30, 2024", "huh", "220.33", "216.12", "218.80", "218.56", "41,643,800"),
		`<tr class="yf-ewueuo"><td>Jul 29, 2024</td><td colspan="6">0.25 Dividend</td></tr>`,
		row("Jul 26, 2024", "218.70", "219.49", "216.01", "217.96", "217.72", "41,601,300"),
	)

	p, err := Extract(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 5, p.Matched())

	got := slices.Collect(p.Entries())
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC), got[1].Date)
	assert.Equal(t, 2, p.Parsed())
	assert.Equal(t, 2, p.Dropped())
}

func TestExtract_AlwaysSkipsFirstMatch(t *testing.T) {
	// Without a header the first data row is still skipped.
	html := `<table><tbody>` +
		row("Jan 5, 2021", "1", "2", "3", "4", "5", "6") +
		row("Jan 4, 2021", "1", "2", "3", "4", "5", "6") +
		`</tbody></table>`

	p, err := Extract(strings.NewReader(html))
	require.NoError(t, err)

	got := slices.Collect(p.Entries())
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestExtract_NoMatches(t *testing.T) {
	p, err := Extract(strings.NewReader(`<html><body><p>Oops, something went wrong</p></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, 0, p.Matched())
	assert.Empty(t, slices.Collect(p.Entries()))
	assert.Equal(t, 0, p.Dropped())
}

func TestExtract_OnlyHeader(t *testing.T) {
	p, err := Extract(strings.NewReader(page()))
	require.NoError(t, err)

	assert.Equal(t, 1, p.Matched())
	assert.Empty(t, slices.Collect(p.Entries()))
}

func TestExtract_StopsEarly(t *testing.T) {
	html := page(
		row("Jan 6, 2021", "1", "2", "3", "4", "5", "6"),
		row("Jan 5, 2021", "1", "2", "3", "4", "5", "6"),
		row("Jan 4, 2021", "1", "2", "3", "4", "5", "6"),
	)
	p, err := Extract(strings.NewReader(html))
	require.NoError(t, err)

	n := 0
	for range p.Entries() {
		n++
		if n == 1 {
			break
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, p.Parsed())
}

func TestExtractWith_CustomSelector(t *testing.T) {
	html := `<table><tbody>` +
		`<tr class="hist"><th>Date</th></tr>` +
		`<tr class="hist"><td>Jan 5, 2021</td><td>1</td><td>2</td><td>3</td><td>4</td><td>5</td><td>6</td></tr>` +
		`</tbody></table>`

	p, err := ExtractWith(strings.NewReader(html), "tr.hist")
	require.NoError(t, err)
	assert.Len(t, slices.Collect(p.Entries()), 1)
}
